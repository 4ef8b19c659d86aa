package exports

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	telemetry "sensor-cloud/internal/telemetry/domain"
)

// HistoryReader loads raw measurement rows for export.
type HistoryReader interface {
	HistoryAll(ctx context.Context, location string, from, to time.Time) ([]telemetry.Measurement, error)
}

// Handler serves measurement exports as XLSX and PDF downloads.
type Handler struct {
	reader HistoryReader
	logger *log.Logger
}

func NewHandler(reader HistoryReader, logger *log.Logger) (*Handler, error) {
	if reader == nil {
		return nil, errors.New("exports handler: reader is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{reader: reader, logger: logger}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/exports/measurements.xlsx":
		h.handleXLSX(w, r)
	case "/api/v1/exports/daily-summary.pdf":
		h.handlePDF(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		http.Error(w, "location is required", http.StatusBadRequest)
		return
	}
	from, to, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	measurements, err := h.reader.HistoryAll(r.Context(), location, from, to)
	if err != nil {
		h.logger.Printf("exports: history query failed for %s: %v", location, err)
		http.Error(w, "failed to load measurements", http.StatusInternalServerError)
		return
	}
	payload, err := BuildMeasurementsXLSX(location, measurements)
	if err != nil {
		h.logger.Printf("exports: xlsx build failed for %s: %v", location, err)
		http.Error(w, "failed to build export", http.StatusInternalServerError)
		return
	}
	filename := fmt.Sprintf("measurements_%s_%s.xlsx", location, from.Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(payload)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		http.Error(w, "location is required", http.StatusBadRequest)
		return
	}
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid day, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}
	measurements, err := h.reader.HistoryAll(r.Context(), location, day, day.Add(24*time.Hour))
	if err != nil {
		h.logger.Printf("exports: history query failed for %s: %v", location, err)
		http.Error(w, "failed to load measurements", http.StatusInternalServerError)
		return
	}
	payload, err := BuildDailySummaryPDF(Summarize(location, day, measurements))
	if err != nil {
		h.logger.Printf("exports: pdf build failed for %s: %v", location, err)
		http.Error(w, "failed to build export", http.StatusInternalServerError)
		return
	}
	filename := fmt.Sprintf("summary_%s_%s.pdf", location, day.Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(payload)
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from, expected RFC3339")
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to, expected RFC3339")
		}
		to = parsed
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, errors.New("to must be after from")
	}
	return from, to, nil
}
