package entity

import "time"

// Report flags a plate with a free-text alert. One row per plate; a later
// report overwrites the description.
type Report struct {
	ID           int64
	Placa        string
	Descripcion  string
	FechaReporte time.Time
}
