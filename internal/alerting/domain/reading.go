package domain

import "time"

// Metric identifies a measured quantity.
type Metric string

const (
	MetricTemperature Metric = "temperature"
	MetricHumidity    Metric = "humidity"
	MetricPressure    Metric = "pressure"
)

// Metrics lists all metrics in evaluation order. Violations and chart
// attachments preserve this order for deterministic message composition.
var Metrics = []Metric{MetricTemperature, MetricHumidity, MetricPressure}

// Valid returns true when the metric is known.
func (m Metric) Valid() bool {
	switch m {
	case MetricTemperature, MetricHumidity, MetricPressure:
		return true
	default:
		return false
	}
}

// ConditionKind identifies a debounced alert condition. Metric conditions
// share their name with the metric; offline/online cover connectivity.
type ConditionKind string

const (
	KindTemperature ConditionKind = "temperature"
	KindHumidity    ConditionKind = "humidity"
	KindPressure    ConditionKind = "pressure"
	KindOffline     ConditionKind = "offline"
	KindOnline      ConditionKind = "online"
)

// Kind returns the condition kind matching the metric.
func (m Metric) Kind() ConditionKind {
	return ConditionKind(m)
}

// SensorReading is the most recent observation for a location. Readings are
// fetched fresh every cycle and never retained. Metric values are optional
// because a sensor may report a subset of them.
type SensorReading struct {
	Location    string
	ObservedAt  time.Time
	Temperature *float64
	Humidity    *float64
	Pressure    *float64
}

// Value returns the reading for a metric, or nil when absent.
func (r SensorReading) Value(metric Metric) *float64 {
	switch metric {
	case MetricTemperature:
		return r.Temperature
	case MetricHumidity:
		return r.Humidity
	case MetricPressure:
		return r.Pressure
	default:
		return nil
	}
}
