package plate

// Sentinel plate values surfaced to clients. PLACA_NO_ENCONTRADA means no
// region was detected; OCR_FALLIDO means a region was found but no text
// could be read from it.
const (
	SentinelPlateNotFound = "PLACA_NO_ENCONTRADA"
	SentinelOCRFailed     = "OCR_FALLIDO"
)

// AlertSuffixFormat is appended to the legal status when the plate has a
// local report on file.
const AlertSuffixFormat = " 🚨 ALERTA: %s"

type EstadoLegal struct {
	Estado    string  `json:"estado"`
	ImagenURL *string `json:"imagen_url"`
}

type DetectPlateResponse struct {
	Status         string       `json:"status"`
	PlacaDetectada string       `json:"placa_detectada"`
	EstadoLegal    *EstadoLegal `json:"estado_legal,omitempty"`
	PlacaImagen    string       `json:"placa_imagen,omitempty"`
}

type ConsultaItem struct {
	ID            int64  `json:"id"`
	Placa         string `json:"placa"`
	Marca         string `json:"marca"`
	Modelo        string `json:"modelo"`
	Uso           string `json:"uso"`
	Propietario   string `json:"propietario"`
	ImagenURL     string `json:"imagen_url"`
	FechaConsulta string `json:"fecha_consulta"`
	Observaciones string `json:"observaciones"`
}

type HistorialResponse struct {
	Status    string         `json:"status"`
	Historial []ConsultaItem `json:"historial"`
}

type ReportRequest struct {
	Placa       string `json:"placa" validate:"required"`
	Descripcion string `json:"descripcion" validate:"required"`
}

type ObservacionRequest struct {
	Observacion string `json:"observacion"`
}

type StatusMessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
