package plateRepository

import (
	"ProjectPlaca/internal/entity"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func New(db *sqlx.DB, log *logrus.Logger) Repository {
	return &repository{
		DB:  db,
		log: log,
	}
}

type repository struct {
	DB  *sqlx.DB
	log *logrus.Logger
}

type Repository interface {
	NewClient(tx bool) (Client, error)
}

func (r *repository) NewClient(tx bool) (Client, error) {
	var db sqlx.ExtContext
	var commitFunc, rollbackFunc func() error

	db = r.DB

	if tx {
		txx, err := r.DB.Beginx()
		if err != nil {
			return Client{}, err
		}

		db = txx
		commitFunc = txx.Commit
		rollbackFunc = txx.Rollback
	} else {
		commitFunc = func() error { return nil }
		rollbackFunc = func() error { return nil }
	}

	return Client{
		Consultations: &consultationRepository{q: db, log: r.log},
		Reports:       &reportRepository{q: db, log: r.log},
		Commit:        commitFunc,
		Rollback:      rollbackFunc,
	}, nil
}

type Client struct {
	Consultations interface {
		Save(ctx context.Context, consultation entity.Consultation) error
		List(ctx context.Context) ([]entity.Consultation, error)
		UpdateObservation(ctx context.Context, id int64, observation string) error
		Delete(ctx context.Context, id int64) error
	}

	Reports interface {
		Upsert(ctx context.Context, report entity.Report) error
		GetByPlate(ctx context.Context, placa string) (entity.Report, bool, error)
	}

	Commit   func() error
	Rollback func() error
}

type consultationRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}

type reportRepository struct {
	q   sqlx.ExtContext
	log *logrus.Logger
}
