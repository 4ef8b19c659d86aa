package exports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	telemetry "sensor-cloud/internal/telemetry/domain"
)

// DailySummary aggregates one day of readings for a location.
type DailySummary struct {
	Location string
	Day      time.Time
	Samples  int
	Metrics  []MetricSummary
}

// MetricSummary holds min/max/average for one metric.
type MetricSummary struct {
	Name    string
	Unit    string
	Min     float64
	Max     float64
	Average float64
	Samples int
}

// BuildMeasurementsXLSX renders measurement history as a spreadsheet.
func BuildMeasurementsXLSX(location string, measurements []telemetry.Measurement) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "measurements"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Location")
	_ = f.SetCellValue(sheet, "B1", location)
	_ = f.SetCellValue(sheet, "A3", "Observed At (UTC)")
	_ = f.SetCellValue(sheet, "B3", "Temperature (°C)")
	_ = f.SetCellValue(sheet, "C3", "Humidity (%)")
	_ = f.SetCellValue(sheet, "D3", "Pressure (hPa)")

	for i, m := range measurements {
		row := i + 4
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.ObservedAt.Format("2006-01-02 15:04:05"))
		if m.Temperature != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), *m.Temperature)
		}
		if m.Humidity != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), *m.Humidity)
		}
		if m.Pressure != nil {
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), *m.Pressure)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDailySummaryPDF renders a minimal PDF for a day of readings.
func BuildDailySummaryPDF(summary DailySummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Sensor Daily Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Location: %s", summary.Location))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Day: %s", summary.Day.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Samples: %d", summary.Samples))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Metric", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Min", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Max", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Average", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, metric := range summary.Metrics {
		if metric.Samples == 0 {
			continue
		}
		pdf.CellFormat(45, 6, fmt.Sprintf("%s (%s)", metric.Name, metric.Unit), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", metric.Min), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", metric.Max), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", metric.Average), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Summarize computes per-metric aggregates for one day of measurements.
func Summarize(location string, day time.Time, measurements []telemetry.Measurement) DailySummary {
	summary := DailySummary{
		Location: location,
		Day:      day,
		Samples:  len(measurements),
	}
	type accumulator struct {
		name, unit string
		pick       func(telemetry.Measurement) *float64
	}
	accumulators := []accumulator{
		{"Temperature", "°C", func(m telemetry.Measurement) *float64 { return m.Temperature }},
		{"Humidity", "%", func(m telemetry.Measurement) *float64 { return m.Humidity }},
		{"Pressure", "hPa", func(m telemetry.Measurement) *float64 { return m.Pressure }},
	}
	for _, acc := range accumulators {
		metric := MetricSummary{Name: acc.name, Unit: acc.unit}
		var sum float64
		for _, m := range measurements {
			value := acc.pick(m)
			if value == nil {
				continue
			}
			if metric.Samples == 0 || *value < metric.Min {
				metric.Min = *value
			}
			if metric.Samples == 0 || *value > metric.Max {
				metric.Max = *value
			}
			sum += *value
			metric.Samples++
		}
		if metric.Samples > 0 {
			metric.Average = sum / float64(metric.Samples)
		}
		summary.Metrics = append(summary.Metrics, metric)
	}
	return summary
}
