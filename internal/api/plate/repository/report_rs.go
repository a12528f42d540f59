package plateRepository

import (
	"context"
	"database/sql"
	"errors"

	"ProjectPlaca/internal/entity"
	contextPkg "ProjectPlaca/pkg/context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ReportDB struct {
	ID           int64          `db:"id"`
	Placa        sql.NullString `db:"placa"`
	Descripcion  sql.NullString `db:"descripcion"`
	FechaReporte sql.NullTime   `db:"fecha_reporte"`
}

func (r *reportRepository) Upsert(c context.Context, report entity.Report) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"placa":         report.Placa,
		"descripcion":   report.Descripcion,
		"fecha_reporte": report.FechaReporte,
	}

	query, args, err := sqlx.Named(queryUpsertReport, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Upsert report named query preparation err")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(c, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when upserting report")
		return err
	}

	return nil
}

func (r *reportRepository) GetByPlate(c context.Context, placa string) (entity.Report, bool, error) {
	requestID := contextPkg.GetRequestID(c)
	var row ReportDB

	argsKV := map[string]interface{}{
		"placa": placa,
	}

	query, args, err := sqlx.Named(queryGetReportByPlate, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByPlate named query preparation err")
		return entity.Report{}, false, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(c, query, args...).StructScan(&row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Report{}, false, nil
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetByPlate execution err")
		return entity.Report{}, false, err
	}

	return entity.Report{
		ID:           row.ID,
		Placa:        row.Placa.String,
		Descripcion:  row.Descripcion.String,
		FechaReporte: row.FechaReporte.Time,
	}, true, nil
}
