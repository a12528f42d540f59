package entity

import "time"

// Consultation is one persisted registry-lookup audit entry. Records are
// append-only from the pipeline; only the observation field is edited
// afterwards.
type Consultation struct {
	ID            int64
	Placa         string
	Marca         string
	Modelo        string
	Uso           string
	Propietario   string
	ImagenURL     string
	FechaConsulta time.Time
	Observaciones string
}
