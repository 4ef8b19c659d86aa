package domain

import (
	"testing"
	"time"
)

func TestNormalizeAppliesDefaults(t *testing.T) {
	cfg := LocationAlertConfig{
		Location:         "SERVER ROOM",
		FrequencyMinutes: 0,
		Language:         "de",
		Temperature:      MetricThreshold{Min: 18, Max: 28, Enabled: true, Mode: "invalid"},
	}
	cfg.Normalize()

	if cfg.Temperature.Mode != ModeRange {
		t.Fatalf("expected range mode default, got %s", cfg.Temperature.Mode)
	}
	if cfg.Humidity.Mode != ModeRange || cfg.Pressure.Mode != ModeRange {
		t.Fatalf("expected range mode default for untouched metrics")
	}
	if cfg.FrequencyMinutes != DefaultFrequencyMinutes {
		t.Fatalf("expected default frequency %d, got %d", DefaultFrequencyMinutes, cfg.FrequencyMinutes)
	}
	if cfg.Language != LanguageEN {
		t.Fatalf("expected english default, got %s", cfg.Language)
	}
}

func TestNormalizeKeepsValidValues(t *testing.T) {
	cfg := LocationAlertConfig{
		FrequencyMinutes: 5,
		Language:         LanguageSK,
		Temperature:      MetricThreshold{Mode: ModeCeiling},
	}
	cfg.Normalize()

	if cfg.FrequencyMinutes != 5 {
		t.Fatalf("frequency changed to %d", cfg.FrequencyMinutes)
	}
	if cfg.Language != LanguageSK {
		t.Fatalf("language changed to %s", cfg.Language)
	}
	if cfg.Temperature.Mode != ModeCeiling {
		t.Fatalf("mode changed to %s", cfg.Temperature.Mode)
	}
}

func TestFrequency(t *testing.T) {
	cfg := LocationAlertConfig{FrequencyMinutes: 5}
	if got := cfg.Frequency(); got != 5*time.Minute {
		t.Fatalf("expected 5m, got %s", got)
	}
	cfg.FrequencyMinutes = 0
	if got := cfg.Frequency(); got != DefaultFrequencyMinutes*time.Minute {
		t.Fatalf("expected default frequency, got %s", got)
	}
}
