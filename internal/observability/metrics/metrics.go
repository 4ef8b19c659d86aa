package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "sensorcloud_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	cyclesTotal   *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec

	notificationsTotal *prometheus.CounterVec
	chartsTotal        *prometheus.CounterVec

	fetchErrorsTotal prometheus.Counter

	ingestMessagesTotal *prometheus.CounterVec
)

// Init registers the alerting and ingest metrics. Safe to call once; helper
// functions are no-ops until it runs.
func Init() {
	registerOnce.Do(func() {
		cyclesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "evaluation_cycles_total",
				Help: "Total evaluation cycles by result",
			},
			[]string{"result"},
		)
		cycleDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "evaluation_cycle_duration_seconds",
				Help:    "Evaluation cycle duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		notificationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Total notification attempts by kind and result",
			},
			[]string{"kind", "result"},
		)
		chartsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "chart_attachments_total",
				Help: "Total chart attachment attempts by result",
			},
			[]string{"result"},
		)
		fetchErrorsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "measurement_fetch_errors_total",
				Help: "Total failed latest-reading fetches",
			},
		)
		ingestMessagesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_messages_total",
				Help: "Total ingested sensor messages by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			cyclesTotal,
			cycleDuration,
			notificationsTotal,
			chartsTotal,
			fetchErrorsTotal,
			ingestMessagesTotal,
		)
	})
}

// IncCycle counts a finished or skipped evaluation cycle.
func IncCycle(result string) {
	if cyclesTotal == nil {
		return
	}
	cyclesTotal.WithLabelValues(result).Inc()
}

// ObserveCycleDuration records how long a cycle took.
func ObserveCycleDuration(seconds float64, result string) {
	if cycleDuration == nil {
		return
	}
	cycleDuration.WithLabelValues(result).Observe(seconds)
}

// IncNotification counts a notification attempt.
func IncNotification(kind, result string) {
	if notificationsTotal == nil {
		return
	}
	notificationsTotal.WithLabelValues(kind, result).Inc()
}

// IncChartSent counts a delivered chart attachment.
func IncChartSent() {
	if chartsTotal == nil {
		return
	}
	chartsTotal.WithLabelValues(resultSuccess).Inc()
}

// IncChartError counts a failed chart attachment.
func IncChartError() {
	if chartsTotal == nil {
		return
	}
	chartsTotal.WithLabelValues(resultError).Inc()
}

// IncFetchError counts a failed latest-reading fetch.
func IncFetchError() {
	if fetchErrorsTotal == nil {
		return
	}
	fetchErrorsTotal.Inc()
}

// IncIngest counts an ingested sensor message.
func IncIngest(result string) {
	if ingestMessagesTotal == nil {
		return
	}
	ingestMessagesTotal.WithLabelValues(result).Inc()
}
