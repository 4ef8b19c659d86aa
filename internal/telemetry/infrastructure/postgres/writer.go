package postgres

import (
	"context"
	"database/sql"
	"errors"

	telemetry "sensor-cloud/internal/telemetry/domain"
)

// MeasurementRepository inserts sensor observations into the measurements
// hypertable.
type MeasurementRepository struct {
	db *sql.DB
}

// NewMeasurementRepository constructs a repository.
func NewMeasurementRepository(db *sql.DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// Insert stores one observation. Duplicate (location, observed_at) rows are
// ignored so replayed MQTT messages stay idempotent.
func (r *MeasurementRepository) Insert(ctx context.Context, m telemetry.Measurement) error {
	if r == nil || r.db == nil {
		return errors.New("measurement repo: nil db")
	}
	if m.Location == "" {
		return errors.New("measurement repo: empty location")
	}
	if m.ObservedAt.IsZero() {
		return errors.New("measurement repo: zero timestamp")
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO measurements (location, observed_at, temperature, humidity, pressure)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (location, observed_at) DO NOTHING`,
		m.Location, m.ObservedAt.UTC(), nullable(m.Temperature), nullable(m.Humidity), nullable(m.Pressure))
	return err
}

func nullable(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
