package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sensor-cloud/internal/alerting/domain"
)

type settingsStub struct {
	settings domain.AlertSettings
	err      error
}

func (s *settingsStub) ActiveConfigs(ctx context.Context) (domain.AlertSettings, error) {
	return s.settings, s.err
}

type readerStub struct {
	mu       sync.Mutex
	readings map[string]domain.SensorReading
	errs     map[string]error
}

func (r *readerStub) Latest(ctx context.Context, location string) (domain.SensorReading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.errs[location]; ok {
		return domain.SensorReading{}, err
	}
	return r.readings[location], nil
}

type notifierStub struct {
	mu          sync.Mutex
	violations  []ViolationNotification
	transitions []TransitionNotification
	sendErr     error
}

func (n *notifierStub) NotifyViolations(ctx context.Context, v ViolationNotification) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return "", n.sendErr
	}
	n.violations = append(n.violations, v)
	return "alert text", nil
}

func (n *notifierStub) NotifyTransition(ctx context.Context, v TransitionNotification) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		return "", n.sendErr
	}
	n.transitions = append(n.transitions, v)
	return "transition text", nil
}

func (n *notifierStub) violationCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.violations)
}

func (n *notifierStub) transitionCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.transitions)
}

func floatPtr(v float64) *float64 { return &v }

func testConfig(location string) domain.LocationAlertConfig {
	return domain.LocationAlertConfig{
		RecipientID:          "u1",
		Location:             location,
		ChatTarget:           "12345",
		Enabled:              true,
		Temperature:          domain.MetricThreshold{Min: 18, Max: 28, Enabled: true, Mode: domain.ModeRange},
		OfflineAlertsEnabled: true,
		FrequencyMinutes:     5,
		Language:             domain.LanguageEN,
	}
}

func onlineReading(location string, temperature float64, now time.Time) domain.SensorReading {
	return domain.SensorReading{
		Location:    location,
		ObservedAt:  now.Add(-time.Minute),
		Temperature: floatPtr(temperature),
	}
}

func newTestService(t *testing.T, settings domain.AlertSettings, reader *readerStub, notifier *notifierStub) *Service {
	t.Helper()
	service, err := NewService(&settingsStub{settings: settings}, reader, notifier, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return service
}

func TestRunCycleSendsViolationOncePerWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	settings := domain.AlertSettings{
		Enabled:    true,
		ChatTarget: "12345",
		Configs:    []domain.LocationAlertConfig{testConfig("IT OFFICE")},
	}
	reader := &readerStub{readings: map[string]domain.SensorReading{
		"IT OFFICE": onlineReading("IT OFFICE", 31, now),
	}}
	notifier := &notifierStub{}
	service := newTestService(t, settings, reader, notifier)

	if err := service.RunCycle(context.Background(), now); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if got := notifier.violationCount(); got != 1 {
		t.Fatalf("after first cycle: %d notifications, want 1", got)
	}

	// 90 seconds later the reading is still out of range; the 5 minute
	// frequency suppresses the repeat.
	later := now.Add(90 * time.Second)
	reader.readings["IT OFFICE"] = onlineReading("IT OFFICE", 31, later)
	if err := service.RunCycle(context.Background(), later); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if got := notifier.violationCount(); got != 1 {
		t.Fatalf("after suppressed cycle: %d notifications, want 1", got)
	}

	afterWindow := now.Add(5 * time.Minute)
	reader.readings["IT OFFICE"] = onlineReading("IT OFFICE", 31, afterWindow)
	if err := service.RunCycle(context.Background(), afterWindow); err != nil {
		t.Fatalf("third cycle: %v", err)
	}
	if got := notifier.violationCount(); got != 2 {
		t.Fatalf("after window elapsed: %d notifications, want 2", got)
	}
}

func TestRunCycleFailedSendRetriesNextCycle(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig("IT OFFICE")
	cfg.OfflineAlertsEnabled = false
	settings := domain.AlertSettings{Enabled: true, ChatTarget: "12345", Configs: []domain.LocationAlertConfig{cfg}}
	reader := &readerStub{readings: map[string]domain.SensorReading{
		"IT OFFICE": onlineReading("IT OFFICE", 31, now),
	}}
	notifier := &notifierStub{sendErr: errors.New("gateway down")}
	service := newTestService(t, settings, reader, notifier)

	if err := service.RunCycle(context.Background(), now); err != nil {
		t.Fatalf("failing cycle: %v", err)
	}
	if got := notifier.violationCount(); got != 0 {
		t.Fatalf("failed send recorded %d notifications", got)
	}

	// Delivery recovers; the very next cycle must retry because the failed
	// send never updated the debouncer.
	notifier.mu.Lock()
	notifier.sendErr = nil
	notifier.mu.Unlock()

	later := now.Add(time.Minute)
	reader.readings["IT OFFICE"] = onlineReading("IT OFFICE", 31, later)
	if err := service.RunCycle(context.Background(), later); err != nil {
		t.Fatalf("retry cycle: %v", err)
	}
	if got := notifier.violationCount(); got != 1 {
		t.Fatalf("retry cycle sent %d notifications, want 1", got)
	}
}

func TestRunCycleOfflineTransition(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig("IT OFFICE")
	cfg.Enabled = false
	settings := domain.AlertSettings{Enabled: true, ChatTarget: "12345", Configs: []domain.LocationAlertConfig{cfg}}
	lastSeen := now.Add(-2 * time.Minute)
	reader := &readerStub{readings: map[string]domain.SensorReading{
		"IT OFFICE": {Location: "IT OFFICE", ObservedAt: lastSeen, Temperature: floatPtr(22)},
	}}
	notifier := &notifierStub{}
	service := newTestService(t, settings, reader, notifier)

	// First cycle observes the sensor online; no transition yet.
	if err := service.RunCycle(context.Background(), now); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if got := notifier.transitionCount(); got != 0 {
		t.Fatalf("first cycle sent %d transitions", got)
	}

	// The reading ages past the offline threshold.
	stale := now.Add(15 * time.Minute)
	if err := service.RunCycle(context.Background(), stale); err != nil {
		t.Fatalf("offline cycle: %v", err)
	}
	if got := notifier.transitionCount(); got != 1 {
		t.Fatalf("offline cycle sent %d transitions, want 1", got)
	}
	notifier.mu.Lock()
	offline := notifier.transitions[0]
	notifier.mu.Unlock()
	if offline.Transition != domain.TransitionWentOffline {
		t.Fatalf("transition: got %v", offline.Transition)
	}
	if !offline.LastSeenAt.Equal(lastSeen) {
		t.Fatalf("last seen: got %v, want %v", offline.LastSeenAt, lastSeen)
	}

	// Still offline next cycle; no repeat.
	if err := service.RunCycle(context.Background(), stale.Add(time.Minute)); err != nil {
		t.Fatalf("still offline cycle: %v", err)
	}
	if got := notifier.transitionCount(); got != 1 {
		t.Fatalf("still offline sent %d transitions, want 1", got)
	}

	// Fresh data arrives; recovery alert fires.
	recovered := stale.Add(10 * time.Minute)
	reader.mu.Lock()
	reader.readings["IT OFFICE"] = onlineReading("IT OFFICE", 22, recovered)
	reader.mu.Unlock()
	if err := service.RunCycle(context.Background(), recovered); err != nil {
		t.Fatalf("recovery cycle: %v", err)
	}
	if got := notifier.transitionCount(); got != 2 {
		t.Fatalf("recovery sent %d transitions, want 2", got)
	}
	notifier.mu.Lock()
	online := notifier.transitions[1]
	notifier.mu.Unlock()
	if online.Transition != domain.TransitionWentOnline {
		t.Fatalf("recovery transition: got %v", online.Transition)
	}
}

func TestRunCycleGloballyDisabled(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	settings := domain.AlertSettings{
		Enabled:    false,
		ChatTarget: "12345",
		Configs:    []domain.LocationAlertConfig{testConfig("IT OFFICE")},
	}
	reader := &readerStub{readings: map[string]domain.SensorReading{
		"IT OFFICE": onlineReading("IT OFFICE", 99, now),
	}}
	notifier := &notifierStub{}
	service := newTestService(t, settings, reader, notifier)

	if err := service.RunCycle(context.Background(), now); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if notifier.violationCount() != 0 || notifier.transitionCount() != 0 {
		t.Fatal("disabled settings must not notify")
	}
}

func TestRunCycleFetchErrorDoesNotAbortOtherLocations(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	broken := testConfig("warehouse")
	healthy := testConfig("IT OFFICE")
	settings := domain.AlertSettings{Enabled: true, ChatTarget: "12345", Configs: []domain.LocationAlertConfig{broken, healthy}}
	reader := &readerStub{
		readings: map[string]domain.SensorReading{"IT OFFICE": onlineReading("IT OFFICE", 31, now)},
		errs:     map[string]error{"warehouse": errors.New("query timeout")},
	}
	notifier := &notifierStub{}
	service := newTestService(t, settings, reader, notifier)

	if err := service.RunCycle(context.Background(), now); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if got := notifier.violationCount(); got != 1 {
		t.Fatalf("healthy location sent %d notifications, want 1", got)
	}
}

func TestSendNowBypassesDebouncer(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig("IT OFFICE")
	settings := domain.AlertSettings{Enabled: true, ChatTarget: "12345", Configs: []domain.LocationAlertConfig{cfg}}
	reader := &readerStub{readings: map[string]domain.SensorReading{
		"IT OFFICE": onlineReading("IT OFFICE", 31, now),
	}}
	notifier := &notifierStub{}
	service := newTestService(t, settings, reader, notifier)

	req := SendNowRequest{
		Location: "IT OFFICE",
		Reading:  onlineReading("IT OFFICE", 31, now),
		Config:   cfg,
	}
	for i := 0; i < 2; i++ {
		text, err := service.SendNow(context.Background(), req)
		if err != nil {
			t.Fatalf("SendNow %d: %v", i, err)
		}
		if text == "" {
			t.Fatalf("SendNow %d: empty text", i)
		}
	}
	if got := notifier.violationCount(); got != 2 {
		t.Fatalf("manual sends: got %d, want 2", got)
	}

	// A scheduled cycle afterwards must still send, since manual sends
	// never touch the debouncer.
	if err := service.RunCycle(context.Background(), now); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if got := notifier.violationCount(); got != 3 {
		t.Fatalf("cycle after manual sends: got %d, want 3", got)
	}
}

func TestSendNowFiltersRequestedMetrics(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig("IT OFFICE")
	cfg.Humidity = domain.MetricThreshold{Min: 30, Max: 60, Enabled: true, Mode: domain.ModeRange}
	settings := domain.AlertSettings{Enabled: true, ChatTarget: "12345"}
	notifier := &notifierStub{}
	service := newTestService(t, settings, &readerStub{}, notifier)

	reading := domain.SensorReading{
		Location:    "IT OFFICE",
		ObservedAt:  now,
		Temperature: floatPtr(31),
		Humidity:    floatPtr(80),
	}
	text, err := service.SendNow(context.Background(), SendNowRequest{
		Location: "IT OFFICE",
		Metrics:  []domain.Metric{domain.MetricHumidity},
		Reading:  reading,
		Config:   cfg,
	})
	if err != nil {
		t.Fatalf("SendNow: %v", err)
	}
	if text == "" {
		t.Fatal("expected a humidity notification")
	}
	notifier.mu.Lock()
	sent := notifier.violations[0]
	notifier.mu.Unlock()
	if len(sent.Violations) != 1 || sent.Violations[0].Metric != domain.MetricHumidity {
		t.Fatalf("violations: got %+v", sent.Violations)
	}
}

func TestSendNowNoViolationsSendsNothing(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	notifier := &notifierStub{}
	service := newTestService(t, domain.AlertSettings{}, &readerStub{}, notifier)

	text, err := service.SendNow(context.Background(), SendNowRequest{
		Location: "IT OFFICE",
		Reading:  onlineReading("IT OFFICE", 22, now),
		Config:   testConfig("IT OFFICE"),
	})
	if err != nil {
		t.Fatalf("SendNow: %v", err)
	}
	if text != "" {
		t.Fatalf("in-range reading composed %q", text)
	}
	if notifier.violationCount() != 0 {
		t.Fatal("in-range reading must not notify")
	}
}
