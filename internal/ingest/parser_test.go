package ingest

import (
	"errors"
	"testing"
	"time"
)

func TestParseReadingStructuredFormat(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"location":"IT OFFICE","temperature":22.5,"humidity":45.2,"pressure":1013.1,"timestamp":"2025-03-01 11:58:30"}`)

	m, err := ParseReading(payload, now)
	if err != nil {
		t.Fatalf("ParseReading: %v", err)
	}
	if m.Location != "IT OFFICE" {
		t.Fatalf("location: %q", m.Location)
	}
	if m.Temperature == nil || *m.Temperature != 22.5 {
		t.Fatalf("temperature: %v", m.Temperature)
	}
	if m.Humidity == nil || *m.Humidity != 45.2 {
		t.Fatalf("humidity: %v", m.Humidity)
	}
	if m.Pressure == nil || *m.Pressure != 1013.1 {
		t.Fatalf("pressure: %v", m.Pressure)
	}
	want := time.Date(2025, 3, 1, 11, 58, 30, 0, time.UTC)
	if !m.ObservedAt.Equal(want) {
		t.Fatalf("observed at: %v, want %v", m.ObservedAt, want)
	}
}

func TestParseReadingLegacyFormat(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"location":"IT OFFICE","teplota":21.3,"vlhkost":40.1,"tlak":1008.7}`)

	m, err := ParseReading(payload, now)
	if err != nil {
		t.Fatalf("ParseReading: %v", err)
	}
	if m.Temperature == nil || *m.Temperature != 21.3 {
		t.Fatalf("temperature: %v", m.Temperature)
	}
	if m.Humidity == nil || *m.Humidity != 40.1 {
		t.Fatalf("humidity: %v", m.Humidity)
	}
	if m.Pressure == nil || *m.Pressure != 1008.7 {
		t.Fatalf("pressure: %v", m.Pressure)
	}
	if !m.ObservedAt.Equal(now) {
		t.Fatalf("missing timestamp should fall back to now, got %v", m.ObservedAt)
	}
}

func TestParseReadingStructuredWinsOverLegacy(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"location":"IT OFFICE","temperature":22.5,"teplota":99}`)

	m, err := ParseReading(payload, now)
	if err != nil {
		t.Fatalf("ParseReading: %v", err)
	}
	if m.Temperature == nil || *m.Temperature != 22.5 {
		t.Fatalf("temperature: %v", m.Temperature)
	}
}

func TestParseReadingUnparsableTimestampFallsBack(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"location":"IT OFFICE","temperature":22.5,"timestamp":"yesterday"}`)

	m, err := ParseReading(payload, now)
	if err != nil {
		t.Fatalf("ParseReading: %v", err)
	}
	if !m.ObservedAt.Equal(now) {
		t.Fatalf("observed at: %v, want %v", m.ObservedAt, now)
	}
}

func TestParseReadingRejectsBadPayloads(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"location":`},
		{"missing location", `{"temperature":22.5}`},
		{"temperature too high", `{"location":"x","temperature":90}`},
		{"temperature too low", `{"location":"x","temperature":-50}`},
		{"humidity over 100", `{"location":"x","humidity":101}`},
		{"pressure too low", `{"location":"x","tlak":250}`},
	}
	for _, tc := range cases {
		if _, err := ParseReading([]byte(tc.payload), now); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestParseReadingNoMetrics(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := ParseReading([]byte(`{"location":"IT OFFICE","timestamp":"2025-03-01 11:58:30"}`), now)
	if !errors.Is(err, ErrNoMetrics) {
		t.Fatalf("got %v, want ErrNoMetrics", err)
	}
}

func TestParseReadingPartialMetrics(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m, err := ParseReading([]byte(`{"location":"IT OFFICE","humidity":55}`), now)
	if err != nil {
		t.Fatalf("ParseReading: %v", err)
	}
	if m.Temperature != nil || m.Pressure != nil {
		t.Fatal("absent metrics must stay nil")
	}
	if m.Humidity == nil || *m.Humidity != 55 {
		t.Fatalf("humidity: %v", m.Humidity)
	}
}
