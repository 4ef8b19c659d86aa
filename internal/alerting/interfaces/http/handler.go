package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"sensor-cloud/internal/alerting/application"
	"sensor-cloud/internal/alerting/domain"
)

// Handler exposes manual test sends over HTTP.
type Handler struct {
	service  *application.Service
	readings application.MeasurementReader
	settings application.SettingsProvider
	logger   *log.Logger
}

func NewHandler(service *application.Service, readings application.MeasurementReader, settings application.SettingsProvider, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("alerts handler: service is nil")
	}
	if readings == nil {
		return nil, errors.New("alerts handler: readings is nil")
	}
	if settings == nil {
		return nil, errors.New("alerts handler: settings is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, readings: readings, settings: settings, logger: logger}, nil
}

type testSendRequest struct {
	Location   string   `json:"location"`
	ChatTarget string   `json:"chat_target,omitempty"`
	Metrics    []string `json:"metrics,omitempty"`
}

type testSendResponse struct {
	Sent bool   `json:"sent"`
	Text string `json:"text,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/alerts/test" && r.Method == http.MethodPost:
		h.handleTestSend(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleTestSend(w http.ResponseWriter, r *http.Request) {
	var req testSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Location == "" {
		http.Error(w, "location is required", http.StatusBadRequest)
		return
	}
	metrics, err := parseMetrics(req.Metrics)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	settings, err := h.settings.ActiveConfigs(r.Context())
	if err != nil {
		h.logger.Printf("alerts handler: settings load failed: %v", err)
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	cfg, ok := configForLocation(settings, req.Location)
	if !ok {
		http.Error(w, "no alert settings for location", http.StatusNotFound)
		return
	}
	if cfg.ChatTarget == "" {
		cfg.ChatTarget = settings.ChatTarget
	}

	reading, err := h.readings.Latest(r.Context(), req.Location)
	if err != nil {
		h.logger.Printf("alerts handler: latest reading failed for %s: %v", req.Location, err)
		http.Error(w, "failed to load latest reading", http.StatusInternalServerError)
		return
	}

	text, err := h.service.SendNow(r.Context(), application.SendNowRequest{
		ChatTarget: req.ChatTarget,
		Location:   req.Location,
		Metrics:    metrics,
		Reading:    reading,
		Config:     cfg,
	})
	if err != nil {
		h.logger.Printf("alerts handler: test send failed for %s: %v", req.Location, err)
		http.Error(w, "send failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(testSendResponse{Sent: text != "", Text: text})
}

func parseMetrics(raw []string) ([]domain.Metric, error) {
	metrics := make([]domain.Metric, 0, len(raw))
	for _, name := range raw {
		switch metric := domain.Metric(name); metric {
		case domain.MetricTemperature, domain.MetricHumidity, domain.MetricPressure:
			metrics = append(metrics, metric)
		default:
			return nil, errors.New("unknown metric: " + name)
		}
	}
	return metrics, nil
}

func configForLocation(settings domain.AlertSettings, location string) (domain.LocationAlertConfig, bool) {
	for _, cfg := range settings.Configs {
		if cfg.Location == location {
			return cfg, true
		}
	}
	return domain.LocationAlertConfig{}, false
}
