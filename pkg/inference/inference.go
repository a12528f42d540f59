package inference

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MinConfidence is the fixed detector threshold. Boxes below it are
// discarded before selection.
const MinConfidence = 0.5

// IBridge hands out the shared inference handles. The detector and the
// OCR reader run as sidecar services and are dialed on first use.
type IBridge interface {
	Acquire() (IHandles, error)
	Close()
}

// IHandles is the pair of live capability calls a request works with.
type IHandles interface {
	DetectPlates(frame []byte) ([]Box, error)
	RecognizeText(crop []byte) (Result, error)
}

// Handles wraps the two live capability connections. A Handles value is
// only ever returned with both capabilities connected.
type Handles struct {
	detector *capability
	reader   *capability
}

// Box is one candidate plate region in frame coordinates.
type Box struct {
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
	Conf float64 `json:"conf"`
}

type detectorResponse struct {
	Boxes []Box  `json:"boxes"`
	Error string `json:"error,omitempty"`
}

type bridge struct {
	mu       sync.Mutex
	detector *capability
	reader   *capability
}

func NewBridge() IBridge {
	return &bridge{
		detector: newCapability("plate detector", detectorURL()),
		reader:   newCapability("plate OCR", readerURL()),
	}
}

// Acquire dials both capabilities if needed and returns the shared
// handles. Concurrent first-use callers serialize on the bridge mutex, so
// at most one dial attempt runs at a time and nobody ever sees a
// half-connected pair.
func (b *bridge) Acquire() (IHandles, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.detector.ensureConnected(); err != nil {
		return nil, fmt.Errorf("detector unavailable: %w", err)
	}
	if err := b.reader.ensureConnected(); err != nil {
		return nil, fmt.Errorf("OCR reader unavailable: %w", err)
	}

	return &Handles{detector: b.detector, reader: b.reader}, nil
}

func (b *bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.detector.close()
	b.reader.close()
}

// DetectPlates sends one JPEG frame to the detector service and returns
// every box it reports, in service order.
func (h *Handles) DetectPlates(frame []byte) ([]Box, error) {
	payload, err := h.detector.call(frame)
	if err != nil {
		return nil, err
	}

	var resp detectorResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling detector response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("detector service: %s", resp.Error)
	}

	return resp.Boxes, nil
}

// RecognizeText sends one cropped region to the OCR service. The reply
// arrives in one of two wire shapes, see DecodeResult.
func (h *Handles) RecognizeText(crop []byte) (Result, error) {
	payload, err := h.reader.call(crop)
	if err != nil {
		return Result{}, err
	}

	return DecodeResult(payload)
}

type capability struct {
	name         string
	url          string
	mu           sync.Mutex
	conn         *websocket.Conn
	dialTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func newCapability(name, url string) *capability {
	return &capability{
		name:         name,
		url:          url,
		dialTimeout:  10 * time.Second,
		readTimeout:  10 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

func (c *capability) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	if c.url == "" {
		return fmt.Errorf("URL for %s not configured", c.name)
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
	})

	c.conn = conn
	return nil
}

// call performs one request/response exchange. The connection is not safe
// for concurrent use, so the whole exchange holds the capability lock. A
// failed exchange drops the connection, the next Acquire redials.
func (c *capability) call(frame []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("not connected to %s service", c.name)
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.drop()
		return nil, fmt.Errorf("error sending frame to %s: %w", c.name, err)
	}

	c.conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		c.drop()
		return nil, fmt.Errorf("error reading %s response: %w", c.name, err)
	}

	c.conn.SetReadDeadline(time.Time{})
	c.conn.SetWriteDeadline(time.Time{})

	return message, nil
}

func (c *capability) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *capability) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
}

func detectorURL() string {
	if url := os.Getenv("AI_PLATE_DETECTOR_URL"); url != "" {
		return url
	}
	return "ws://localhost:8000/api/v1/plate/detector/ws"
}

func readerURL() string {
	if url := os.Getenv("AI_PLATE_OCR_URL"); url != "" {
		return url
	}
	return "ws://localhost:8000/api/v1/plate/ocr/ws"
}
