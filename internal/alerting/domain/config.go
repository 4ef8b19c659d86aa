package domain

import "time"

// Mode selects how a metric threshold is evaluated.
type Mode string

const (
	// ModeRange alerts when the value leaves the closed interval [Min, Max].
	ModeRange Mode = "range"
	// ModeCeiling alerts when the value reaches or exceeds Max; Min is ignored.
	ModeCeiling Mode = "ceiling"
)

// Valid returns true when the mode is supported.
func (m Mode) Valid() bool {
	return m == ModeRange || m == ModeCeiling
}

// Language selects the notification language.
type Language string

const (
	LanguageEN Language = "en"
	LanguageSK Language = "sk"
)

// Valid returns true when the language is supported.
func (l Language) Valid() bool {
	return l == LanguageEN || l == LanguageSK
}

const (
	// DefaultFrequencyMinutes is the fallback notification cadence.
	DefaultFrequencyMinutes = 30
	// MinFrequencyMinutes is the lowest allowed cadence.
	MinFrequencyMinutes = 1
)

// MetricThreshold holds the alert bounds for a single metric.
type MetricThreshold struct {
	Min     float64
	Max     float64
	Enabled bool
	Mode    Mode
}

// LocationAlertConfig is the effective alert configuration for one
// (recipient, location) pair. Read-only to the alerting engine.
type LocationAlertConfig struct {
	RecipientID          string
	Location             string
	ChatTarget           string
	Enabled              bool
	Temperature          MetricThreshold
	Humidity             MetricThreshold
	Pressure             MetricThreshold
	OfflineAlertsEnabled bool
	FrequencyMinutes     int
	Language             Language
	SendCharts           bool
}

// Normalize resolves absent or invalid fields to documented defaults.
// Mode always resolves to a concrete value even when configuration omits it.
func (c *LocationAlertConfig) Normalize() {
	if c == nil {
		return
	}
	if !c.Temperature.Mode.Valid() {
		c.Temperature.Mode = ModeRange
	}
	if !c.Humidity.Mode.Valid() {
		c.Humidity.Mode = ModeRange
	}
	if !c.Pressure.Mode.Valid() {
		c.Pressure.Mode = ModeRange
	}
	if c.FrequencyMinutes < MinFrequencyMinutes {
		c.FrequencyMinutes = DefaultFrequencyMinutes
	}
	if !c.Language.Valid() {
		c.Language = LanguageEN
	}
}

// Frequency returns the notification cadence as a duration.
func (c LocationAlertConfig) Frequency() time.Duration {
	minutes := c.FrequencyMinutes
	if minutes < MinFrequencyMinutes {
		minutes = DefaultFrequencyMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// Threshold returns the threshold configured for a metric.
func (c LocationAlertConfig) Threshold(metric Metric) MetricThreshold {
	switch metric {
	case MetricTemperature:
		return c.Temperature
	case MetricHumidity:
		return c.Humidity
	case MetricPressure:
		return c.Pressure
	default:
		return MetricThreshold{}
	}
}

// AlertSettings is the global alerting configuration together with every
// active per-location config, as loaded from the settings store.
type AlertSettings struct {
	Enabled    bool
	ChatTarget string
	Configs    []LocationAlertConfig
}
