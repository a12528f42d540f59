package plateService

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ProjectPlaca/internal/api/plate"
	"ProjectPlaca/internal/entity"
	"ProjectPlaca/pkg/log"
	"ProjectPlaca/pkg/regcheck"

	"golang.org/x/net/context"
)

const lookupCacheTTL = 10 * time.Minute

// resolveLegalStatus turns a canonical plate into the user-facing estado
// text. Lookup failures are folded into the text, never propagated; a
// successful lookup also records the consultation.
func (s *plateService) resolveLegalStatus(ctx context.Context, placa string) *plate.EstadoLegal {
	record, err := s.cachedLookup(ctx, placa)
	if err != nil {
		return &plate.EstadoLegal{Estado: lookupFailureText(placa, err)}
	}

	estado := fmt.Sprintf("✅ Marca: %s, Modelo: %s, Año: %s, Uso: %s, VIN: %s, Propietario: %s",
		record.Make, record.Model, record.RegistrationYear, record.Use, record.VIN, record.Owner)

	s.saveConsultation(ctx, placa, record)

	var imagenURL *string
	if record.ImageURL != "" {
		imagenURL = &record.ImageURL
	}

	return &plate.EstadoLegal{Estado: estado, ImagenURL: imagenURL}
}

func lookupFailureText(placa string, err error) string {
	var lookupErr *regcheck.LookupError
	if errors.As(err, &lookupErr) {
		switch lookupErr.Kind {
		case regcheck.KindServerUnavailable:
			return fmt.Sprintf("⚠ ERROR %d: Servidor no disponible.", lookupErr.StatusCode)
		case regcheck.KindPlateNotFound:
			return fmt.Sprintf("❌ No se encontró la placa %s.", placa)
		case regcheck.KindNoData:
			return fmt.Sprintf("⚠ No se encontraron datos para %s.", placa)
		}
	}
	return fmt.Sprintf("⚠ Error conectando con RegCheck: %v", err)
}

// cachedLookup consults the Redis cache before going out to the
// registry. Cache problems fall through to a live lookup.
func (s *plateService) cachedLookup(ctx context.Context, placa string) (*regcheck.VehicleRecord, error) {
	if s.cache != nil {
		if payload, err := s.cache.GetLookup(ctx, placa); err == nil {
			var record regcheck.VehicleRecord
			if err := json.Unmarshal([]byte(payload), &record); err == nil {
				return &record, nil
			}
		}
	}

	record, err := s.registry.Lookup(ctx, placa)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(record); err == nil {
			if err := s.cache.SetLookup(ctx, placa, string(payload), lookupCacheTTL); err != nil {
				s.log.WithFields(log.Fields{
					"placa": placa,
					"error": err.Error(),
				}).Warn("Failed to cache registry lookup")
			}
		}
	}

	return record, nil
}

// saveConsultation records a successful lookup. Persistence problems are
// logged and swallowed, they must not mask the lookup result.
func (s *plateService) saveConsultation(ctx context.Context, placa string, record *regcheck.VehicleRecord) {
	client, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(log.Fields{
			"placa": placa,
			"error": err.Error(),
		}).Warn("Failed to open repository client for consultation")
		return
	}

	consultation := entity.Consultation{
		Placa:         placa,
		Marca:         record.Make,
		Modelo:        record.Model,
		Uso:           record.Use,
		Propietario:   record.Owner,
		ImagenURL:     record.ImageURL,
		FechaConsulta: time.Now(),
	}

	if err := client.Consultations.Save(ctx, consultation); err != nil {
		s.log.WithFields(log.Fields{
			"placa": placa,
			"error": err.Error(),
		}).Warn("Failed to persist consultation")
	}
}

func (s *plateService) findReport(ctx context.Context, placa string) (string, bool) {
	client, err := s.repo.NewClient(false)
	if err != nil {
		s.log.WithFields(log.Fields{
			"placa": placa,
			"error": err.Error(),
		}).Warn("Failed to open repository client for report check")
		return "", false
	}

	report, found, err := client.Reports.GetByPlate(ctx, placa)
	if err != nil {
		s.log.WithFields(log.Fields{
			"placa": placa,
			"error": err.Error(),
		}).Warn("Failed to check report registry")
		return "", false
	}
	if !found {
		return "", false
	}

	return report.Descripcion, true
}
