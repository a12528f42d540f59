package inference

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// The OCR service answers in one of two shapes depending on its engine
// version: a structured record with a "rec_texts" list, or the legacy
// nested list of detections. Both must stay supported.
type ResultKind int

const (
	KindStructured ResultKind = iota
	KindLegacy
)

type Result struct {
	Kind       ResultKind
	Texts      []string
	Detections []Detection
}

// Detection is one legacy-shape entry: a quad of box points followed by a
// (text, score) pair.
type Detection struct {
	Text  string
	Score float64
}

type structuredResult struct {
	RecTexts  []string  `json:"rec_texts"`
	RecScores []float64 `json:"rec_scores"`
	Error     string    `json:"error,omitempty"`
}

// DecodeResult resolves the wire payload into a tagged Result, trying the
// structured shape first.
func DecodeResult(raw []byte) (Result, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Result{}, errors.New("empty OCR response")
	}

	switch trimmed[0] {
	case '{':
		var sr structuredResult
		if err := json.Unmarshal(trimmed, &sr); err != nil {
			return Result{}, fmt.Errorf("error unmarshaling OCR response: %w", err)
		}
		if sr.Error != "" {
			return Result{}, fmt.Errorf("OCR service: %s", sr.Error)
		}
		return Result{Kind: KindStructured, Texts: sr.RecTexts}, nil
	case '[':
		detections, err := decodeLegacy(trimmed)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: KindLegacy, Detections: detections}, nil
	default:
		return Result{}, errors.New("unrecognized OCR response shape")
	}
}

// decodeLegacy parses [[box, [text, score]], ...].
func decodeLegacy(raw []byte) ([]Detection, error) {
	var entries [][]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("error unmarshaling legacy OCR response: %w", err)
	}

	detections := make([]Detection, 0, len(entries))
	for _, entry := range entries {
		if len(entry) < 2 {
			continue
		}

		var pair []json.RawMessage
		if err := json.Unmarshal(entry[1], &pair); err != nil || len(pair) < 1 {
			continue
		}

		var det Detection
		if err := json.Unmarshal(pair[0], &det.Text); err != nil {
			continue
		}
		if len(pair) > 1 {
			_ = json.Unmarshal(pair[1], &det.Score)
		}

		detections = append(detections, det)
	}

	return detections, nil
}

// FirstText returns the first recognized span in either shape.
func (r Result) FirstText() (string, bool) {
	switch r.Kind {
	case KindStructured:
		if len(r.Texts) > 0 {
			return r.Texts[0], true
		}
	case KindLegacy:
		if len(r.Detections) > 0 {
			return r.Detections[0].Text, true
		}
	}
	return "", false
}
