package plateRepository

import (
	"context"
	"database/sql"

	"ProjectPlaca/internal/api/plate"
	"ProjectPlaca/internal/entity"
	contextPkg "ProjectPlaca/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ConsultationDB struct {
	ID            int64          `db:"id"`
	Placa         sql.NullString `db:"placa"`
	Marca         sql.NullString `db:"marca"`
	Modelo        sql.NullString `db:"modelo"`
	Uso           sql.NullString `db:"uso"`
	Propietario   sql.NullString `db:"propietario"`
	ImagenURL     sql.NullString `db:"imagen_url"`
	FechaConsulta sql.NullTime   `db:"fecha_consulta"`
	Observaciones sql.NullString `db:"observaciones"`
}

func (r *consultationRepository) Save(c context.Context, consultation entity.Consultation) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"placa":          consultation.Placa,
		"marca":          consultation.Marca,
		"modelo":         consultation.Modelo,
		"uso":            consultation.Uso,
		"propietario":    consultation.Propietario,
		"imagen_url":     consultation.ImagenURL,
		"fecha_consulta": consultation.FechaConsulta,
	}

	query, args, err := sqlx.Named(querySaveConsultation, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for Save consultation")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when saving consultation")
		return err
	}

	return nil
}

func (r *consultationRepository) List(c context.Context) ([]entity.Consultation, error) {
	requestID := contextPkg.GetRequestID(c)

	rows, err := r.q.QueryxContext(c, r.q.Rebind(queryListConsultations))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("List consultations execution err")
		return nil, err
	}
	defer rows.Close()

	var consultations []entity.Consultation
	for rows.Next() {
		var row ConsultationDB
		if err := rows.StructScan(&row); err != nil {
			r.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("List consultations scan err")
			return nil, err
		}
		consultations = append(consultations, r.makeConsultation(row))
	}

	return consultations, rows.Err()
}

func (r *consultationRepository) UpdateObservation(c context.Context, id int64, observation string) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":            id,
		"observaciones": observation,
	}

	query, args, err := sqlx.Named(queryUpdateObservation, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("UpdateObservation named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when updating observation")
		return err
	}

	return nil
}

func (r *consultationRepository) Delete(c context.Context, id int64) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id": id,
	}

	query, args, err := sqlx.Named(queryDeleteConsultation, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Delete consultation named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	result, err := r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when deleting consultation")
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return plate.ErrConsultationNotFound
	}

	return nil
}

func (r *consultationRepository) makeConsultation(row ConsultationDB) entity.Consultation {
	return entity.Consultation{
		ID:            row.ID,
		Placa:         row.Placa.String,
		Marca:         row.Marca.String,
		Modelo:        row.Modelo.String,
		Uso:           row.Uso.String,
		Propietario:   row.Propietario.String,
		ImagenURL:     row.ImagenURL.String,
		FechaConsulta: row.FechaConsulta.Time,
		Observaciones: row.Observaciones.String,
	}
}
