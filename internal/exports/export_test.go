package exports

import (
	"bytes"
	"testing"
	"time"

	telemetry "sensor-cloud/internal/telemetry/domain"
)

func floatPtr(v float64) *float64 { return &v }

func sampleMeasurements(start time.Time) []telemetry.Measurement {
	return []telemetry.Measurement{
		{Location: "IT OFFICE", ObservedAt: start, Temperature: floatPtr(20), Humidity: floatPtr(40), Pressure: floatPtr(1010)},
		{Location: "IT OFFICE", ObservedAt: start.Add(time.Hour), Temperature: floatPtr(24), Humidity: floatPtr(50)},
		{Location: "IT OFFICE", ObservedAt: start.Add(2 * time.Hour), Temperature: floatPtr(22), Pressure: floatPtr(1014)},
	}
}

func TestSummarize(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	summary := Summarize("IT OFFICE", day, sampleMeasurements(day.Add(8*time.Hour)))

	if summary.Samples != 3 {
		t.Fatalf("samples: %d", summary.Samples)
	}
	if len(summary.Metrics) != 3 {
		t.Fatalf("metrics: %d", len(summary.Metrics))
	}

	temperature := summary.Metrics[0]
	if temperature.Min != 20 || temperature.Max != 24 || temperature.Average != 22 || temperature.Samples != 3 {
		t.Fatalf("temperature summary: %+v", temperature)
	}
	humidity := summary.Metrics[1]
	if humidity.Min != 40 || humidity.Max != 50 || humidity.Average != 45 || humidity.Samples != 2 {
		t.Fatalf("humidity summary: %+v", humidity)
	}
	pressure := summary.Metrics[2]
	if pressure.Min != 1010 || pressure.Max != 1014 || pressure.Samples != 2 {
		t.Fatalf("pressure summary: %+v", pressure)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	summary := Summarize("IT OFFICE", day, nil)
	if summary.Samples != 0 {
		t.Fatalf("samples: %d", summary.Samples)
	}
	for _, metric := range summary.Metrics {
		if metric.Samples != 0 {
			t.Fatalf("metric %s has samples without data", metric.Name)
		}
	}
}

func TestBuildMeasurementsXLSX(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	payload, err := BuildMeasurementsXLSX("IT OFFICE", sampleMeasurements(start))
	if err != nil {
		t.Fatalf("BuildMeasurementsXLSX: %v", err)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(payload, []byte("PK")) {
		t.Fatal("output is not a zip archive")
	}
}

func TestBuildDailySummaryPDF(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	summary := Summarize("IT OFFICE", day, sampleMeasurements(day.Add(8*time.Hour)))

	payload, err := BuildDailySummaryPDF(summary)
	if err != nil {
		t.Fatalf("BuildDailySummaryPDF: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte("%PDF")) {
		t.Fatal("output is not a pdf")
	}
}
