package regcheck

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const lookupTimeout = 15 * time.Second

// notFoundMarker appears verbatim in the response body when the registry
// has no record for the plate. It is checked on the raw bytes before any
// XML parsing.
const notFoundMarker = "Peru Lookup failed"

type IRegCheck interface {
	Lookup(ctx context.Context, plate string) (*VehicleRecord, error)
}

// VehicleRecord is the parsed registry payload. Absent upstream fields
// carry their fixed fallback values; ImageURL stays empty when missing.
type VehicleRecord struct {
	Make             string
	Model            string
	RegistrationYear string
	VIN              string
	Use              string
	Owner            string
	ImageURL         string
}

type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindServerUnavailable
	KindPlateNotFound
	KindNoData
)

// LookupError carries the failure class so the caller can fold it into
// its own status text. It never escapes as an unhandled fault.
type LookupError struct {
	Kind       ErrorKind
	StatusCode int
	Cause      error
}

func (e *LookupError) Error() string {
	switch e.Kind {
	case KindServerUnavailable:
		return fmt.Sprintf("registry returned status %d", e.StatusCode)
	case KindPlateNotFound:
		return "plate not found in registry"
	case KindNoData:
		return "registry response carried no vehicle data"
	default:
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return "registry lookup failed"
	}
}

func (e *LookupError) Unwrap() error { return e.Cause }

type regCheckClient struct {
	httpClient *http.Client
	endpoint   string
	username   string
	log        *logrus.Logger
}

func New(log *logrus.Logger) IRegCheck {
	endpoint := os.Getenv("REGCHECK_ENDPOINT")
	if endpoint == "" {
		endpoint = "https://www.regcheck.org.uk/api/reg.asmx/CheckPeru"
	}

	username := os.Getenv("REGCHECK_USERNAME")
	if username == "" {
		username = "Rafael32"
	}

	return &regCheckClient{
		httpClient: &http.Client{Timeout: lookupTimeout},
		endpoint:   endpoint,
		username:   username,
		log:        log,
	}
}

// vehicleEnvelope matches the registry XML: one namespaced element whose
// text content is itself a JSON-encoded vehicle payload.
type vehicleEnvelope struct {
	XMLName     xml.Name
	VehicleJSON string `xml:"http://regcheck.org.uk vehicleJson"`
}

func (c *regCheckClient) Lookup(ctx context.Context, plate string) (*VehicleRecord, error) {
	registration := strings.ToUpper(strings.ReplaceAll(plate, "-", ""))

	params := url.Values{}
	params.Set("RegistrationNumber", registration)
	params.Set("username", c.username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &LookupError{Kind: KindTransport, Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"plate": registration,
			"error": err.Error(),
		}).Warn("RegCheck request failed")
		return nil, &LookupError{Kind: KindTransport, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LookupError{Kind: KindTransport, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &LookupError{Kind: KindServerUnavailable, StatusCode: resp.StatusCode}
	}

	if bytes.Contains(body, []byte(notFoundMarker)) {
		return nil, &LookupError{Kind: KindPlateNotFound}
	}

	var envelope vehicleEnvelope
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return nil, &LookupError{Kind: KindTransport, Cause: err}
	}

	if strings.TrimSpace(envelope.VehicleJSON) == "" {
		return nil, &LookupError{Kind: KindNoData}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(envelope.VehicleJSON), &payload); err != nil {
		return nil, &LookupError{Kind: KindTransport, Cause: err}
	}

	record := &VehicleRecord{
		Make:             fieldOr(payload, "Make", "N/A"),
		Model:            fieldOr(payload, "Model", "N/A"),
		RegistrationYear: fieldOr(payload, "RegistrationYear", "N/A"),
		VIN:              fieldOr(payload, "VIN", "No disponible"),
		Use:              fieldOr(payload, "Use", "Desconocido"),
		Owner:            fieldOr(payload, "Owner", "No disponible"),
		ImageURL:         fieldOr(payload, "ImageUrl", ""),
	}

	return record, nil
}

// fieldOr stringifies the payload value, falling back when the key is
// absent or null. RegistrationYear in particular arrives as a number.
func fieldOr(payload map[string]interface{}, key, fallback string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		return fallback
	}

	switch v := value.(type) {
	case string:
		if v == "" {
			return fallback
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
