package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"sensor-cloud/internal/alerting/domain"
	"sensor-cloud/internal/observability/metrics"
)

// SettingsProvider loads the effective alert configuration.
type SettingsProvider interface {
	ActiveConfigs(ctx context.Context) (domain.AlertSettings, error)
}

// MeasurementReader fetches the most recent reading for a location.
type MeasurementReader interface {
	Latest(ctx context.Context, location string) (domain.SensorReading, error)
}

// ViolationNotification carries everything needed to deliver a threshold
// alert for one location.
type ViolationNotification struct {
	ChatTarget         string
	Location           string
	Language           domain.Language
	Violations         []domain.Violation
	SendCharts         bool
	ChartWindowMinutes int
}

// TransitionNotification carries a connectivity change alert.
type TransitionNotification struct {
	ChatTarget string
	Location   string
	Language   domain.Language
	Transition domain.Transition
	LastSeenAt time.Time
}

// Notifier composes and delivers notifications. Implementations must send
// the text message first and report its outcome; chart delivery is
// best-effort and must not influence the returned error.
type Notifier interface {
	NotifyViolations(ctx context.Context, n ViolationNotification) (string, error)
	NotifyTransition(ctx context.Context, n TransitionNotification) (string, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Service runs one alert evaluation per location: fetch the latest reading,
// classify connectivity, evaluate thresholds, debounce, and dispatch.
type Service struct {
	settings     SettingsProvider
	measurements MeasurementReader
	notifier     Notifier
	tracker      *StatusTracker
	debouncer    *Debouncer
	chartWindow  int
	clock        Clock
	logger       *log.Logger
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithClock overrides the default clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithChartWindowMinutes sets the history window attached charts cover.
func WithChartWindowMinutes(minutes int) ServiceOption {
	return func(s *Service) {
		if minutes > 0 {
			s.chartWindow = minutes
		}
	}
}

// NewService constructs the evaluation service.
func NewService(settings SettingsProvider, measurements MeasurementReader, notifier Notifier, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if settings == nil {
		return nil, errors.New("alerting service: nil settings provider")
	}
	if measurements == nil {
		return nil, errors.New("alerting service: nil measurement reader")
	}
	if notifier == nil {
		return nil, errors.New("alerting service: nil notifier")
	}
	service := &Service{
		settings:     settings,
		measurements: measurements,
		notifier:     notifier,
		tracker:      NewStatusTracker(),
		debouncer:    NewDebouncer(),
		chartWindow:  60,
		clock:        systemClock{},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// RunCycle evaluates every active location once. Locations are evaluated
// concurrently; a failure in one branch never aborts the others.
func (s *Service) RunCycle(ctx context.Context, now time.Time) error {
	if s == nil {
		return errors.New("alerting service: nil")
	}
	if now.IsZero() {
		now = s.clock.Now().UTC()
	}

	settings, err := s.settings.ActiveConfigs(ctx)
	if err != nil {
		return err
	}
	if !settings.Enabled || settings.ChatTarget == "" {
		return nil
	}

	var wg sync.WaitGroup
	for _, cfg := range settings.Configs {
		cfg := cfg
		cfg.Normalize()
		if cfg.ChatTarget == "" {
			cfg.ChatTarget = settings.ChatTarget
		}
		if cfg.RecipientID == "" {
			cfg.RecipientID = cfg.ChatTarget
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil && s.logger != nil {
					s.logger.Printf("alert evaluation panic: location=%s err=%v", cfg.Location, r)
				}
			}()
			s.evaluateLocation(ctx, cfg, now)
		}()
	}
	wg.Wait()
	return nil
}

func (s *Service) evaluateLocation(ctx context.Context, cfg domain.LocationAlertConfig, now time.Time) {
	reading, err := s.measurements.Latest(ctx, cfg.Location)
	if err != nil {
		metrics.IncFetchError()
		if s.logger != nil {
			s.logger.Printf("latest reading error: location=%s err=%v", cfg.Location, err)
		}
		return
	}

	status := domain.ClassifyStatus(reading.ObservedAt, now)
	transition := s.tracker.Observe(cfg.Location, status)

	if transition != domain.TransitionNone && cfg.OfflineAlertsEnabled {
		s.notifyTransition(ctx, cfg, transition, reading.ObservedAt, now)
	}

	if !cfg.Enabled {
		return
	}

	violations := domain.EvaluateThresholds(reading, cfg)
	if len(violations) == 0 {
		return
	}
	s.notifyViolations(ctx, cfg, violations, now)
}

func (s *Service) notifyTransition(ctx context.Context, cfg domain.LocationAlertConfig, transition domain.Transition, lastSeen, now time.Time) {
	kind := domain.KindOffline
	if transition == domain.TransitionWentOnline {
		kind = domain.KindOnline
	}
	if !s.debouncer.ShouldSend(cfg.RecipientID, cfg.Location, kind, cfg.Frequency(), now) {
		return
	}

	_, err := s.notifier.NotifyTransition(ctx, TransitionNotification{
		ChatTarget: cfg.ChatTarget,
		Location:   cfg.Location,
		Language:   cfg.Language,
		Transition: transition,
		LastSeenAt: lastSeen,
	})
	if err != nil {
		metrics.IncNotification(string(kind), "error")
		if s.logger != nil {
			s.logger.Printf("transition notification error: location=%s kind=%s err=%v", cfg.Location, kind, err)
		}
		return
	}
	metrics.IncNotification(string(kind), "sent")
	s.debouncer.MarkSent(cfg.RecipientID, cfg.Location, kind, now)
}

func (s *Service) notifyViolations(ctx context.Context, cfg domain.LocationAlertConfig, violations []domain.Violation, now time.Time) {
	due := violations[:0:0]
	for _, violation := range violations {
		kind := violation.Metric.Kind()
		if s.debouncer.ShouldSend(cfg.RecipientID, cfg.Location, kind, cfg.Frequency(), now) {
			due = append(due, violation)
		}
	}
	if len(due) == 0 {
		return
	}

	_, err := s.notifier.NotifyViolations(ctx, ViolationNotification{
		ChatTarget:         cfg.ChatTarget,
		Location:           cfg.Location,
		Language:           cfg.Language,
		Violations:         due,
		SendCharts:         cfg.SendCharts,
		ChartWindowMinutes: s.chartWindow,
	})
	if err != nil {
		metrics.IncNotification("threshold", "error")
		if s.logger != nil {
			s.logger.Printf("threshold notification error: location=%s err=%v", cfg.Location, err)
		}
		return
	}
	metrics.IncNotification("threshold", "sent")
	for _, violation := range due {
		s.debouncer.MarkSent(cfg.RecipientID, cfg.Location, violation.Metric.Kind(), now)
	}
}

// SendNowRequest describes an on-demand notification. Manual sends bypass
// the debouncer entirely and leave its records untouched.
type SendNowRequest struct {
	ChatTarget string
	Location   string
	Metrics    []domain.Metric
	Reading    domain.SensorReading
	Config     domain.LocationAlertConfig
}

// SendNow composes and dispatches a notification for the supplied reading
// snapshot, returning the composed text. An empty result means the snapshot
// produced no violations and nothing was sent.
func (s *Service) SendNow(ctx context.Context, req SendNowRequest) (string, error) {
	if s == nil {
		return "", errors.New("alerting service: nil")
	}
	cfg := req.Config
	cfg.Normalize()
	if req.ChatTarget != "" {
		cfg.ChatTarget = req.ChatTarget
	}
	if cfg.ChatTarget == "" {
		return "", errors.New("alerting service: no chat target")
	}
	location := req.Location
	if location == "" {
		location = cfg.Location
	}

	violations := domain.EvaluateThresholds(req.Reading, cfg)
	if len(req.Metrics) > 0 {
		requested := make(map[domain.Metric]bool, len(req.Metrics))
		for _, metric := range req.Metrics {
			requested[metric] = true
		}
		filtered := violations[:0:0]
		for _, violation := range violations {
			if requested[violation.Metric] {
				filtered = append(filtered, violation)
			}
		}
		violations = filtered
	}
	if len(violations) == 0 {
		return "", nil
	}

	return s.notifier.NotifyViolations(ctx, ViolationNotification{
		ChatTarget:         cfg.ChatTarget,
		Location:           location,
		Language:           cfg.Language,
		Violations:         violations,
		SendCharts:         cfg.SendCharts,
		ChartWindowMinutes: s.chartWindow,
	})
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
