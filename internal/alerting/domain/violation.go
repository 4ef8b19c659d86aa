package domain

// Violation describes one threshold breach found in a reading.
type Violation struct {
	Metric Metric
	Mode   Mode
	Value  float64
	Min    float64
	Max    float64
}

// EvaluateThresholds checks a reading against a location's configuration and
// returns every breach in fixed metric order (temperature, humidity,
// pressure). Metrics that are disabled or absent from the reading are
// skipped. Range mode breaches outside [Min, Max]; ceiling mode breaches at
// or above Max and ignores Min.
func EvaluateThresholds(reading SensorReading, cfg LocationAlertConfig) []Violation {
	var violations []Violation
	for _, metric := range Metrics {
		threshold := cfg.Threshold(metric)
		if !threshold.Enabled {
			continue
		}
		value := reading.Value(metric)
		if value == nil {
			continue
		}
		if !breaches(*value, threshold) {
			continue
		}
		violations = append(violations, Violation{
			Metric: metric,
			Mode:   threshold.Mode,
			Value:  *value,
			Min:    threshold.Min,
			Max:    threshold.Max,
		})
	}
	return violations
}

func breaches(value float64, threshold MetricThreshold) bool {
	switch threshold.Mode {
	case ModeCeiling:
		return value >= threshold.Max
	default:
		return value < threshold.Min || value > threshold.Max
	}
}

// ChartMetrics returns the distinct metrics present in the violation list,
// preserving the fixed metric order.
func ChartMetrics(violations []Violation) []Metric {
	seen := make(map[Metric]bool, len(violations))
	for _, violation := range violations {
		seen[violation.Metric] = true
	}
	var metrics []Metric
	for _, metric := range Metrics {
		if seen[metric] {
			metrics = append(metrics, metric)
		}
	}
	return metrics
}
