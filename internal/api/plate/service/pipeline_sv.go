package plateService

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
	"unicode"

	"ProjectPlaca/internal/api/plate"
	"ProjectPlaca/internal/entity"
	"ProjectPlaca/pkg/imaging"
	"ProjectPlaca/pkg/inference"
	"ProjectPlaca/pkg/log"

	"golang.org/x/net/context"
)

// DetectPlate runs the full recognition pipeline: normalize, detect,
// read, verify against the registry, cross-check local reports, persist.
// Decode, detection and OCR failures abort the request; a registry
// failure does not, its diagnostic is folded into the estado text instead.
func (s *plateService) DetectPlate(ctx context.Context, imageBytes []byte) (*plate.DetectPlateResponse, error) {
	handles, err := s.bridge.Acquire()
	if err != nil {
		s.log.WithFields(log.Fields{
			"error": err.Error(),
		}).Error("Inference capabilities unavailable")
		return nil, plate.ErrCapabilityUnavailable
	}

	frame, err := imaging.Normalize(imageBytes)
	if err != nil {
		return nil, plate.ErrImageDecode
	}

	frameJPEG, err := imaging.EncodeJPEG(frame)
	if err != nil {
		return nil, err
	}

	boxes, err := handles.DetectPlates(frameJPEG)
	if err != nil {
		s.log.WithFields(log.Fields{
			"error": err.Error(),
		}).Warn("Plate detector call failed")
		return nil, plate.ErrPlateNotFound
	}

	region, ok := firstCandidate(boxes)
	if !ok {
		return nil, plate.ErrPlateNotFound
	}

	crop, err := imaging.Crop(frame, int(region.X1), int(region.Y1), int(region.X2), int(region.Y2))
	if err != nil {
		return nil, plate.ErrOCRFailed
	}

	cropJPEG, err := imaging.EncodeJPEG(crop)
	if err != nil {
		return nil, plate.ErrOCRFailed
	}
	preview := base64.StdEncoding.EncodeToString(cropJPEG)

	ocrResult, err := handles.RecognizeText(cropJPEG)
	if err != nil {
		s.log.WithFields(log.Fields{
			"error": err.Error(),
		}).Warn("OCR call failed")
		return nil, plate.ErrOCRFailed
	}

	rawText, ok := ocrResult.FirstText()
	if !ok {
		return nil, plate.ErrOCRFailed
	}

	canonical := CanonicalizePlate(rawText)
	if canonical == "" {
		return nil, plate.ErrOCRFailed
	}

	go s.archiveCrop(canonical, cropJPEG)

	estadoLegal := s.resolveLegalStatus(ctx, canonical)

	if descripcion, found := s.findReport(ctx, canonical); found {
		estadoLegal.Estado += fmt.Sprintf(plate.AlertSuffixFormat, descripcion)
	}

	return &plate.DetectPlateResponse{
		Status:         "success",
		PlacaDetectada: canonical,
		EstadoLegal:    estadoLegal,
		PlacaImagen:    preview,
	}, nil
}

// StreamFrame backs the live detection socket: one frame in, every
// candidate region out.
func (s *plateService) StreamFrame(frame []byte) (*entity.PlateStreamResult, error) {
	handles, err := s.bridge.Acquire()
	if err != nil {
		return nil, plate.ErrCapabilityUnavailable
	}

	normalized, err := imaging.Normalize(frame)
	if err != nil {
		return nil, plate.ErrImageDecode
	}

	frameJPEG, err := imaging.EncodeJPEG(normalized)
	if err != nil {
		return nil, err
	}

	boxes, err := handles.DetectPlates(frameJPEG)
	if err != nil {
		return nil, err
	}

	result := &entity.PlateStreamResult{Message: "sin detección"}
	for _, box := range boxes {
		if box.Conf < inference.MinConfidence {
			continue
		}
		result.Boxes = append(result.Boxes, entity.PlateBox{
			X1:   int(box.X1),
			Y1:   int(box.Y1),
			X2:   int(box.X2),
			Y2:   int(box.Y2),
			Conf: box.Conf,
		})
	}

	if len(result.Boxes) > 0 {
		result.Message = "placa detectada"
	}

	return result, nil
}

// firstCandidate picks the first box in service order among those at or
// above the threshold. First in order, not highest confidence.
func firstCandidate(boxes []inference.Box) (inference.Box, bool) {
	for _, box := range boxes {
		if box.Conf >= inference.MinConfidence {
			return box, true
		}
	}
	return inference.Box{}, false
}

// CanonicalizePlate reduces raw OCR text to the uppercase alphanumeric
// plate code. The result is empty when nothing usable remains.
func CanonicalizePlate(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// archiveCrop ships the cropped plate JPEG to object storage. Best
// effort, failures are logged and never reach the caller.
func (s *plateService) archiveCrop(placa string, cropJPEG []byte) {
	if s.s3Client == nil {
		return
	}

	key := fmt.Sprintf("placas/%s-%d.jpg", placa, time.Now().UnixMilli())
	if _, err := s.s3Client.UploadBytes(key, cropJPEG, "image/jpeg"); err != nil {
		s.log.WithFields(log.Fields{
			"placa": placa,
			"error": err.Error(),
		}).Warn("Failed to archive plate crop")
	}
}
