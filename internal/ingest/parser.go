package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	telemetry "sensor-cloud/internal/telemetry/domain"
)

const timestampLayout = "2006-01-02 15:04:05"

// Plausibility ranges matching the publisher's own validation. Out-of-range
// values indicate a sensor fault and are rejected rather than stored.
const (
	tempMin     = -40
	tempMax     = 85
	humidityMin = 0
	humidityMax = 100
	pressureMin = 300
	pressureMax = 1100
)

// ErrNoMetrics reports a payload carrying no usable metric values.
var ErrNoMetrics = errors.New("ingest: payload has no metric values")

// readingPayload covers both wire formats: the structured one
// (temperature/humidity/pressure) and the legacy one with Slovak field
// names (teplota/vlhkost/tlak) published on the shared legacy topic.
type readingPayload struct {
	Location    string   `json:"location"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Pressure    *float64 `json:"pressure"`
	Teplota     *float64 `json:"teplota"`
	Vlhkost     *float64 `json:"vlhkost"`
	Tlak        *float64 `json:"tlak"`
	Timestamp   string   `json:"timestamp"`
}

// ParseReading decodes a readings message in either wire format and
// validates it. A missing or unparsable timestamp falls back to now.
func ParseReading(data []byte, now time.Time) (telemetry.Measurement, error) {
	var payload readingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return telemetry.Measurement{}, fmt.Errorf("ingest: decode payload: %w", err)
	}
	if payload.Location == "" {
		return telemetry.Measurement{}, errors.New("ingest: payload missing location")
	}

	temperature := firstOf(payload.Temperature, payload.Teplota)
	humidity := firstOf(payload.Humidity, payload.Vlhkost)
	pressure := firstOf(payload.Pressure, payload.Tlak)
	if temperature == nil && humidity == nil && pressure == nil {
		return telemetry.Measurement{}, ErrNoMetrics
	}

	if err := validateRange("temperature", temperature, tempMin, tempMax); err != nil {
		return telemetry.Measurement{}, err
	}
	if err := validateRange("humidity", humidity, humidityMin, humidityMax); err != nil {
		return telemetry.Measurement{}, err
	}
	if err := validateRange("pressure", pressure, pressureMin, pressureMax); err != nil {
		return telemetry.Measurement{}, err
	}

	observedAt := now.UTC()
	if payload.Timestamp != "" {
		if parsed, err := time.Parse(timestampLayout, payload.Timestamp); err == nil {
			observedAt = parsed.UTC()
		}
	}

	return telemetry.Measurement{
		Location:    payload.Location,
		ObservedAt:  observedAt,
		Temperature: temperature,
		Humidity:    humidity,
		Pressure:    pressure,
	}, nil
}

func firstOf(values ...*float64) *float64 {
	for _, value := range values {
		if value != nil {
			return value
		}
	}
	return nil
}

func validateRange(name string, value *float64, min, max float64) error {
	if value == nil {
		return nil
	}
	if *value < min || *value > max {
		return fmt.Errorf("ingest: %s %v outside plausible range [%v, %v]", name, *value, min, max)
	}
	return nil
}
