package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"sensor-cloud/internal/alerting/domain"
)

const lastSeenLayout = "2006-01-02 15:04:05"

// Compose renders a violation list into one message, one line per violation,
// in the requested language. Numeric values keep their source precision.
// An empty violation list composes to an empty string, which callers must
// treat as nothing to send.
func Compose(location string, violations []domain.Violation, lang domain.Language) string {
	if len(violations) == 0 {
		return ""
	}
	lines := make([]string, 0, len(violations))
	for _, violation := range violations {
		lines = append(lines, composeLine(location, violation, lang))
	}
	return strings.Join(lines, "\n")
}

func composeLine(location string, v domain.Violation, lang domain.Language) string {
	icon := metricIcon(v.Metric)
	name := metricName(v.Metric, lang)
	unit := metricUnit(v.Metric)
	value := formatNumber(v.Value)

	if v.Mode == domain.ModeCeiling {
		if lang == domain.LanguageSK {
			return fmt.Sprintf("%s %s v %s dosiahla %s %s (cieľ %s %s)",
				icon, name, location, value, unit, formatNumber(v.Max), unit)
		}
		return fmt.Sprintf("%s %s at %s reached %s %s (target %s %s)",
			icon, name, location, value, unit, formatNumber(v.Max), unit)
	}

	if lang == domain.LanguageSK {
		return fmt.Sprintf("%s %s v %s: %s %s (povolené %s až %s %s)",
			icon, name, location, value, unit, formatNumber(v.Min), formatNumber(v.Max), unit)
	}
	return fmt.Sprintf("%s %s at %s: %s %s (allowed %s to %s %s)",
		icon, name, location, value, unit, formatNumber(v.Min), formatNumber(v.Max), unit)
}

// ComposeTransition renders a connectivity change message.
func ComposeTransition(location string, transition domain.Transition, lastSeen time.Time, lang domain.Language) string {
	switch transition {
	case domain.TransitionWentOffline:
		if lang == domain.LanguageSK {
			if lastSeen.IsZero() {
				return fmt.Sprintf("🔴 Senzor v %s je offline (zatiaľ žiadne dáta)", location)
			}
			return fmt.Sprintf("🔴 Senzor v %s je offline (naposledy videný %s UTC)",
				location, lastSeen.UTC().Format(lastSeenLayout))
		}
		if lastSeen.IsZero() {
			return fmt.Sprintf("🔴 Sensor at %s went offline (no data yet)", location)
		}
		return fmt.Sprintf("🔴 Sensor at %s went offline (last seen %s UTC)",
			location, lastSeen.UTC().Format(lastSeenLayout))
	case domain.TransitionWentOnline:
		if lang == domain.LanguageSK {
			return fmt.Sprintf("🟢 Senzor v %s je opäť online", location)
		}
		return fmt.Sprintf("🟢 Sensor at %s is back online", location)
	default:
		return ""
	}
}

func metricIcon(metric domain.Metric) string {
	switch metric {
	case domain.MetricTemperature:
		return "🌡️"
	case domain.MetricHumidity:
		return "💧"
	case domain.MetricPressure:
		return "📈"
	default:
		return "⚠️"
	}
}

func metricName(metric domain.Metric, lang domain.Language) string {
	if lang == domain.LanguageSK {
		switch metric {
		case domain.MetricTemperature:
			return "Teplota"
		case domain.MetricHumidity:
			return "Vlhkosť"
		case domain.MetricPressure:
			return "Tlak"
		}
	}
	switch metric {
	case domain.MetricTemperature:
		return "Temperature"
	case domain.MetricHumidity:
		return "Humidity"
	case domain.MetricPressure:
		return "Pressure"
	default:
		return string(metric)
	}
}

func metricUnit(metric domain.Metric) string {
	switch metric {
	case domain.MetricTemperature:
		return "°C"
	case domain.MetricHumidity:
		return "%"
	case domain.MetricPressure:
		return "hPa"
	default:
		return ""
	}
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
