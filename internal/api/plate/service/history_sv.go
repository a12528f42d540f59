package plateService

import (
	"fmt"
	"strings"
	"time"

	"ProjectPlaca/internal/api/plate"
	"ProjectPlaca/internal/entity"

	"golang.org/x/net/context"
)

const consultaTimeLayout = "2006-01-02 15:04:05"

func (s *plateService) History(ctx context.Context) ([]plate.ConsultaItem, error) {
	client, err := s.repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	consultations, err := client.Consultations.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]plate.ConsultaItem, 0, len(consultations))
	for _, c := range consultations {
		items = append(items, plate.ConsultaItem{
			ID:            c.ID,
			Placa:         c.Placa,
			Marca:         c.Marca,
			Modelo:        c.Modelo,
			Uso:           c.Uso,
			Propietario:   c.Propietario,
			ImagenURL:     c.ImagenURL,
			FechaConsulta: c.FechaConsulta.Format(consultaTimeLayout),
			Observaciones: c.Observaciones,
		})
	}

	return items, nil
}

func (s *plateService) ExportHistoryCSV(ctx context.Context) ([]byte, error) {
	items, err := s.History(ctx)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("ID,Placa,Marca,Modelo,Uso,Propietario,Fecha,Observaciones\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%d,%s,%s,%s,%s,%s,%s,%s\n",
			item.ID, item.Placa, item.Marca, item.Modelo,
			item.Uso, item.Propietario, item.FechaConsulta, item.Observaciones)
	}

	return []byte(b.String()), nil
}

func (s *plateService) UpdateObservation(ctx context.Context, id int64, observation string) error {
	client, err := s.repo.NewClient(false)
	if err != nil {
		return err
	}

	return client.Consultations.UpdateObservation(ctx, id, observation)
}

func (s *plateService) DeleteConsultation(ctx context.Context, id int64) error {
	client, err := s.repo.NewClient(false)
	if err != nil {
		return err
	}

	return client.Consultations.Delete(ctx, id)
}

func (s *plateService) ReportVehicle(ctx context.Context, placa string, descripcion string) error {
	placa = strings.ToUpper(strings.TrimSpace(placa))
	descripcion = strings.TrimSpace(descripcion)

	if placa == "" || descripcion == "" {
		return plate.ErrReportFieldsRequired
	}

	client, err := s.repo.NewClient(false)
	if err != nil {
		return err
	}

	return client.Reports.Upsert(ctx, entity.Report{
		Placa:        placa,
		Descripcion:  descripcion,
		FechaReporte: time.Now(),
	})
}
