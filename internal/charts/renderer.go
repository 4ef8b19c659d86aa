package charts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"sensor-cloud/internal/alerting/domain"
	"sensor-cloud/internal/alerting/notify"
	telemetry "sensor-cloud/internal/telemetry/domain"
)

const (
	defaultRenderBaseURL = "https://quickchart.io"
	defaultWindowMinutes = 60
	maxChartPoints       = 120
)

// HistoryReader loads metric samples for a location.
type HistoryReader interface {
	History(ctx context.Context, location string, metric domain.Metric, from, to time.Time) ([]telemetry.Point, error)
}

// PhotoSender delivers a rendered chart as a photo by URL.
type PhotoSender interface {
	SendPhotoURL(ctx context.Context, chatTarget, photoURL, caption string) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Renderer builds a line-chart render URL from measurement history and
// delivers it through the messaging gateway. Implements notify.ChartSender.
// Best-effort: a failure here never affects an already sent text alert.
type Renderer struct {
	history HistoryReader
	photos  PhotoSender
	baseURL string
	width   int
	height  int
	clock   Clock
}

// RendererOption configures the renderer.
type RendererOption func(*Renderer)

// WithRenderBaseURL overrides the chart render service URL.
func WithRenderBaseURL(baseURL string) RendererOption {
	return func(r *Renderer) {
		if baseURL != "" {
			r.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithClock overrides the default clock.
func WithClock(clock Clock) RendererOption {
	return func(r *Renderer) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRenderer constructs a chart renderer.
func NewRenderer(history HistoryReader, photos PhotoSender, opts ...RendererOption) (*Renderer, error) {
	if history == nil {
		return nil, errors.New("chart renderer: nil history reader")
	}
	if photos == nil {
		return nil, errors.New("chart renderer: nil photo sender")
	}
	renderer := &Renderer{
		history: history,
		photos:  photos,
		baseURL: defaultRenderBaseURL,
		width:   800,
		height:  400,
		clock:   systemClock{},
	}
	for _, opt := range opts {
		opt(renderer)
	}
	return renderer, nil
}

// SendChart renders the recent history of one metric and sends it to the
// chat target.
func (r *Renderer) SendChart(ctx context.Context, chatTarget, location string, metric domain.Metric, opts notify.ChartOptions) error {
	if r == nil {
		return errors.New("chart renderer: nil")
	}
	window := opts.TimeRangeMinutes
	if window <= 0 {
		window = defaultWindowMinutes
	}
	to := r.clock.Now().UTC()
	from := to.Add(-time.Duration(window) * time.Minute)

	points, err := r.history.History(ctx, location, metric, from, to)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("chart renderer: no history for %s/%s", location, metric)
	}
	points = downsample(points, maxChartPoints)

	chartURL, err := r.buildChartURL(location, metric, points, opts.Language, window)
	if err != nil {
		return err
	}
	return r.photos.SendPhotoURL(ctx, chatTarget, chartURL, chartCaption(location, metric, opts.Language, window))
}

type chartConfig struct {
	Type    string       `json:"type"`
	Data    chartData    `json:"data"`
	Options chartOptions `json:"options"`
}

type chartData struct {
	Labels   []string       `json:"labels"`
	Datasets []chartDataset `json:"datasets"`
}

type chartDataset struct {
	Label       string    `json:"label"`
	Data        []float64 `json:"data"`
	Fill        bool      `json:"fill"`
	BorderColor string    `json:"borderColor"`
	PointRadius int       `json:"pointRadius"`
}

type chartOptions struct {
	Title chartTitle `json:"title"`
}

type chartTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

func (r *Renderer) buildChartURL(location string, metric domain.Metric, points []telemetry.Point, lang domain.Language, window int) (string, error) {
	labels := make([]string, 0, len(points))
	values := make([]float64, 0, len(points))
	for _, point := range points {
		labels = append(labels, point.TS.Format("15:04"))
		values = append(values, point.Value)
	}

	cfg := chartConfig{
		Type: "line",
		Data: chartData{
			Labels: labels,
			Datasets: []chartDataset{{
				Label:       datasetLabel(metric, lang),
				Data:        values,
				Fill:        false,
				BorderColor: metricColor(metric),
				PointRadius: 0,
			}},
		},
		Options: chartOptions{Title: chartTitle{Display: true, Text: chartCaption(location, metric, lang, window)}},
	}
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/chart?w=%d&h=%d&c=%s", r.baseURL, r.width, r.height, url.QueryEscape(string(encoded))), nil
}

func datasetLabel(metric domain.Metric, lang domain.Language) string {
	if lang == domain.LanguageSK {
		switch metric {
		case domain.MetricTemperature:
			return "Teplota (°C)"
		case domain.MetricHumidity:
			return "Vlhkosť (%)"
		case domain.MetricPressure:
			return "Tlak (hPa)"
		}
	}
	switch metric {
	case domain.MetricTemperature:
		return "Temperature (°C)"
	case domain.MetricHumidity:
		return "Humidity (%)"
	case domain.MetricPressure:
		return "Pressure (hPa)"
	default:
		return string(metric)
	}
}

func chartCaption(location string, metric domain.Metric, lang domain.Language, window int) string {
	if lang == domain.LanguageSK {
		return fmt.Sprintf("%s: %s, posledných %d min", location, datasetLabel(metric, lang), window)
	}
	return fmt.Sprintf("%s: %s, last %d min", location, datasetLabel(metric, lang), window)
}

func metricColor(metric domain.Metric) string {
	switch metric {
	case domain.MetricTemperature:
		return "rgb(220,53,69)"
	case domain.MetricHumidity:
		return "rgb(13,110,253)"
	case domain.MetricPressure:
		return "rgb(25,135,84)"
	default:
		return "rgb(108,117,125)"
	}
}

func downsample(points []telemetry.Point, limit int) []telemetry.Point {
	if limit <= 0 || len(points) <= limit {
		return points
	}
	stride := (len(points) + limit - 1) / limit
	sampled := make([]telemetry.Point, 0, limit)
	for i := 0; i < len(points); i += stride {
		sampled = append(sampled, points[i])
	}
	return sampled
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
