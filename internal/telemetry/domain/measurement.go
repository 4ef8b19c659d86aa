package telemetry

import (
	"context"
	"time"
)

// Measurement is one stored sensor observation for a location. Metric values
// are optional because a sensor may report a subset of them.
type Measurement struct {
	Location   string
	ObservedAt time.Time

	Temperature *float64
	Humidity    *float64
	Pressure    *float64
}

// Point is a single metric sample used for charts and exports.
type Point struct {
	TS    time.Time
	Value float64
}

// MeasurementWriter persists sensor observations.
type MeasurementWriter interface {
	Insert(ctx context.Context, measurement Measurement) error
}
