package postgres

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS consultas (
    id SERIAL PRIMARY KEY,
    placa VARCHAR(50),
    marca VARCHAR(100),
    modelo VARCHAR(100),
    uso VARCHAR(100),
    propietario VARCHAR(255),
    imagen_url VARCHAR(500),
    fecha_consulta TIMESTAMP DEFAULT NOW(),
    observaciones TEXT DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_consultas_placa ON consultas (placa);

CREATE TABLE IF NOT EXISTS reportes (
    id SERIAL PRIMARY KEY,
    placa VARCHAR(50) UNIQUE,
    descripcion TEXT NOT NULL,
    fecha_reporte TIMESTAMP DEFAULT NOW()
);
`

func New() (*sqlx.DB, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not configured")
	}

	// Some hosting providers still hand out the legacy scheme.
	if strings.HasPrefix(databaseURL, "postgres://") {
		databaseURL = strings.Replace(databaseURL, "postgres://", "postgresql://", 1)
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(15)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	return db, nil
}
