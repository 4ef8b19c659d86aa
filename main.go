package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	alerthttp "sensor-cloud/internal/alerting/interfaces/http"

	"sensor-cloud/internal/alerting/application"
	"sensor-cloud/internal/alerting/notify"
	"sensor-cloud/internal/auth"
	"sensor-cloud/internal/charts"
	"sensor-cloud/internal/config"
	"sensor-cloud/internal/exports"
	"sensor-cloud/internal/ingest"
	"sensor-cloud/internal/observability/metrics"
	settingspostgres "sensor-cloud/internal/settings/infrastructure/postgres"
	telemetrypostgres "sensor-cloud/internal/telemetry/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()

	settingsRepo := settingspostgres.NewSettingsRepository(db)
	measurementReader := telemetrypostgres.NewMeasurementReader(db)
	measurementWriter := telemetrypostgres.NewMeasurementRepository(db)

	telegramOpts := []notify.TelegramOption{}
	if cfg.Telegram.BaseURL != "" {
		telegramOpts = append(telegramOpts, notify.WithTelegramBaseURL(cfg.Telegram.BaseURL))
	}
	gateway, err := notify.NewTelegramGateway(cfg.Telegram.Token, telegramOpts...)
	if err != nil {
		logger.Fatalf("telegram gateway error: %v", err)
	}

	rendererOpts := []charts.RendererOption{}
	if cfg.Alerting.ChartBaseURL != "" {
		rendererOpts = append(rendererOpts, charts.WithRenderBaseURL(cfg.Alerting.ChartBaseURL))
	}
	renderer, err := charts.NewRenderer(measurementReader, gateway, rendererOpts...)
	if err != nil {
		logger.Fatalf("chart renderer error: %v", err)
	}

	dispatcher, err := notify.NewDispatcher(gateway, renderer, logger)
	if err != nil {
		logger.Fatalf("dispatcher error: %v", err)
	}

	service, err := application.NewService(settingsRepo, measurementReader, dispatcher, logger,
		application.WithChartWindowMinutes(cfg.Alerting.ChartWindowMinutes))
	if err != nil {
		logger.Fatalf("alerting service error: %v", err)
	}

	scheduler := application.NewScheduler(service, logger,
		application.WithInterval(cfg.Alerting.Interval()),
		application.WithCycleTimeout(cfg.Alerting.CycleTimeout()))
	go scheduler.Start(context.Background())

	if cfg.MQTT.BrokerURL != "" {
		subscriber, err := ingest.NewSubscriber(ingest.SubscriberConfig{
			BrokerURL:     cfg.MQTT.BrokerURL,
			ClientID:      cfg.MQTT.ClientID,
			Username:      cfg.MQTT.Username,
			Password:      cfg.MQTT.Password,
			ReadingsTopic: cfg.MQTT.ReadingsTopic,
			LegacyTopic:   cfg.MQTT.LegacyTopic,
		}, measurementWriter, logger)
		if err != nil {
			logger.Fatalf("mqtt subscriber error: %v", err)
		}
		if err := subscriber.Start(context.Background()); err != nil {
			logger.Fatalf("mqtt connect error: %v", err)
		}
	}

	alertHandler, err := alerthttp.NewHandler(service, measurementReader, settingsRepo, logger)
	if err != nil {
		logger.Fatalf("alerts handler error: %v", err)
	}
	exportHandler, err := exports.NewHandler(measurementReader, logger)
	if err != nil {
		logger.Fatalf("exports handler error: %v", err)
	}

	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), []string{"/healthz", "/metrics"})

	mux := http.NewServeMux()
	mux.Handle("/api/v1/alerts/test", alertHandler)
	mux.Handle("/api/v1/exports/measurements.xlsx", exportHandler)
	mux.Handle("/api/v1/exports/daily-summary.pdf", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
