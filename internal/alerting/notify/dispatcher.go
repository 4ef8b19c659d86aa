package notify

import (
	"context"
	"errors"
	"log"

	"sensor-cloud/internal/alerting/application"
	"sensor-cloud/internal/alerting/domain"
	"sensor-cloud/internal/observability/metrics"
)

// Gateway delivers message text to a chat target.
type Gateway interface {
	SendText(ctx context.Context, chatTarget, text string) error
}

// ChartOptions parameterizes a chart attachment.
type ChartOptions struct {
	TimeRangeMinutes int
	Language         domain.Language
}

// ChartSender renders and delivers one chart for a metric.
type ChartSender interface {
	SendChart(ctx context.Context, chatTarget, location string, metric domain.Metric, opts ChartOptions) error
}

// Dispatcher implements application.Notifier: it composes the message, sends
// the text, and then attaches charts. The text outcome alone decides success;
// chart failures are logged and never surfaced.
type Dispatcher struct {
	gateway Gateway
	charts  ChartSender
	logger  *log.Logger
}

// NewDispatcher constructs a dispatcher. The chart sender may be nil, in
// which case chart attachments are silently disabled.
func NewDispatcher(gateway Gateway, charts ChartSender, logger *log.Logger) (*Dispatcher, error) {
	if gateway == nil {
		return nil, errors.New("dispatcher: nil gateway")
	}
	return &Dispatcher{gateway: gateway, charts: charts, logger: logger}, nil
}

// NotifyViolations sends a threshold alert. Charts are attached sequentially
// after a successful text send to keep the gateway request order stable.
func (d *Dispatcher) NotifyViolations(ctx context.Context, n application.ViolationNotification) (string, error) {
	if d == nil {
		return "", errors.New("dispatcher: nil")
	}
	text := Compose(n.Location, n.Violations, n.Language)
	if text == "" {
		return "", nil
	}
	if err := d.gateway.SendText(ctx, n.ChatTarget, text); err != nil {
		return "", err
	}

	if n.SendCharts && d.charts != nil {
		opts := ChartOptions{TimeRangeMinutes: n.ChartWindowMinutes, Language: n.Language}
		for _, metric := range domain.ChartMetrics(n.Violations) {
			if err := d.charts.SendChart(ctx, n.ChatTarget, n.Location, metric, opts); err != nil {
				metrics.IncChartError()
				if d.logger != nil {
					d.logger.Printf("chart attachment error: location=%s metric=%s err=%v", n.Location, metric, err)
				}
				continue
			}
			metrics.IncChartSent()
		}
	}
	return text, nil
}

// NotifyTransition sends a connectivity change alert. Transitions never
// carry chart attachments.
func (d *Dispatcher) NotifyTransition(ctx context.Context, n application.TransitionNotification) (string, error) {
	if d == nil {
		return "", errors.New("dispatcher: nil")
	}
	text := ComposeTransition(n.Location, n.Transition, n.LastSeenAt, n.Language)
	if text == "" {
		return "", nil
	}
	if err := d.gateway.SendText(ctx, n.ChatTarget, text); err != nil {
		return "", err
	}
	return text, nil
}
