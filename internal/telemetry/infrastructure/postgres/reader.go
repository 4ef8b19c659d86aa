package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerting "sensor-cloud/internal/alerting/domain"
	telemetry "sensor-cloud/internal/telemetry/domain"
)

// MeasurementReader reads sensor observations from the measurements
// hypertable.
type MeasurementReader struct {
	db *sql.DB
}

// NewMeasurementReader constructs a reader.
func NewMeasurementReader(db *sql.DB) *MeasurementReader {
	return &MeasurementReader{db: db}
}

// Latest returns the most recent reading for a location. A location with no
// rows yields a reading with a zero ObservedAt, which classifies as offline.
func (r *MeasurementReader) Latest(ctx context.Context, location string) (alerting.SensorReading, error) {
	if r == nil || r.db == nil {
		return alerting.SensorReading{}, errors.New("measurement reader: nil db")
	}
	if location == "" {
		return alerting.SensorReading{}, errors.New("measurement reader: empty location")
	}

	row := r.db.QueryRowContext(ctx, `
SELECT observed_at, temperature, humidity, pressure
FROM measurements
WHERE location = $1
ORDER BY observed_at DESC
LIMIT 1`, location)

	var (
		observedAt  time.Time
		temperature sql.NullFloat64
		humidity    sql.NullFloat64
		pressure    sql.NullFloat64
	)
	if err := row.Scan(&observedAt, &temperature, &humidity, &pressure); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return alerting.SensorReading{Location: location}, nil
		}
		return alerting.SensorReading{}, err
	}

	reading := alerting.SensorReading{Location: location, ObservedAt: observedAt.UTC()}
	if temperature.Valid {
		reading.Temperature = &temperature.Float64
	}
	if humidity.Valid {
		reading.Humidity = &humidity.Float64
	}
	if pressure.Valid {
		reading.Pressure = &pressure.Float64
	}
	return reading, nil
}

// History returns the samples of one metric for a location within [from, to],
// oldest first. Rows where the metric is NULL are skipped.
func (r *MeasurementReader) History(ctx context.Context, location string, metric alerting.Metric, from, to time.Time) ([]telemetry.Point, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("measurement reader: nil db")
	}
	if location == "" {
		return nil, errors.New("measurement reader: empty location")
	}
	column, ok := metricColumn(metric)
	if !ok {
		return nil, errors.New("measurement reader: unknown metric " + string(metric))
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT observed_at, `+column+`
FROM measurements
WHERE location = $1 AND observed_at >= $2 AND observed_at <= $3
ORDER BY observed_at ASC`, location, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []telemetry.Point
	for rows.Next() {
		var ts time.Time
		var value sql.NullFloat64
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, err
		}
		if !value.Valid {
			continue
		}
		points = append(points, telemetry.Point{TS: ts.UTC(), Value: value.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// HistoryAll returns full measurement rows for a location within [from, to],
// oldest first. Used by the export endpoints.
func (r *MeasurementReader) HistoryAll(ctx context.Context, location string, from, to time.Time) ([]telemetry.Measurement, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("measurement reader: nil db")
	}
	if location == "" {
		return nil, errors.New("measurement reader: empty location")
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT observed_at, temperature, humidity, pressure
FROM measurements
WHERE location = $1 AND observed_at >= $2 AND observed_at <= $3
ORDER BY observed_at ASC`, location, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var measurements []telemetry.Measurement
	for rows.Next() {
		var (
			ts          time.Time
			temperature sql.NullFloat64
			humidity    sql.NullFloat64
			pressure    sql.NullFloat64
		)
		if err := rows.Scan(&ts, &temperature, &humidity, &pressure); err != nil {
			return nil, err
		}
		m := telemetry.Measurement{Location: location, ObservedAt: ts.UTC()}
		if temperature.Valid {
			m.Temperature = &temperature.Float64
		}
		if humidity.Valid {
			m.Humidity = &humidity.Float64
		}
		if pressure.Valid {
			m.Pressure = &pressure.Float64
		}
		measurements = append(measurements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return measurements, nil
}

func metricColumn(metric alerting.Metric) (string, bool) {
	switch metric {
	case alerting.MetricTemperature:
		return "temperature", true
	case alerting.MetricHumidity:
		return "humidity", true
	case alerting.MetricPressure:
		return "pressure", true
	default:
		return "", false
	}
}
