package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration. Values come from an optional yaml
// file (SENSORCLOUD_CONFIG) with environment variables as fallback.
type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	DatabaseURL string `yaml:"database_url"`
	JWTSecret   string `yaml:"jwt_secret"`

	Telegram TelegramConfig `yaml:"telegram"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Alerting AlertingConfig `yaml:"alerting"`
}

// TelegramConfig configures the Telegram Bot API gateway.
type TelegramConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// MQTTConfig configures the sensor reading ingest. Ingest is disabled when
// BrokerURL is empty.
type MQTTConfig struct {
	BrokerURL     string `yaml:"broker_url"`
	ClientID      string `yaml:"client_id"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	ReadingsTopic string `yaml:"readings_topic"`
	LegacyTopic   string `yaml:"legacy_topic"`
}

// AlertingConfig tunes the evaluation scheduler.
type AlertingConfig struct {
	IntervalSeconds    int    `yaml:"interval_seconds"`
	CycleTimeoutSecs   int    `yaml:"cycle_timeout_seconds"`
	ChartWindowMinutes int    `yaml:"chart_window_minutes"`
	ChartBaseURL       string `yaml:"chart_base_url"`
}

func (c AlertingConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

func (c AlertingConfig) CycleTimeout() time.Duration {
	if c.CycleTimeoutSecs <= 0 {
		return 50 * time.Second
	}
	return time.Duration(c.CycleTimeoutSecs) * time.Second
}

// Load reads configuration from yaml or env.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Telegram: TelegramConfig{
			Token:   os.Getenv("TELEGRAM_BOT_TOKEN"),
			BaseURL: os.Getenv("TELEGRAM_BASE_URL"),
		},
		MQTT: MQTTConfig{
			BrokerURL: os.Getenv("MQTT_BROKER_URL"),
			ClientID:  os.Getenv("MQTT_CLIENT_ID"),
			Username:  os.Getenv("MQTT_USERNAME"),
			Password:  os.Getenv("MQTT_PASSWORD"),
		},
		Alerting: AlertingConfig{
			IntervalSeconds:    getenvIntDefault("ALERT_INTERVAL_SECONDS", 60),
			CycleTimeoutSecs:   getenvIntDefault("ALERT_CYCLE_TIMEOUT_SECONDS", 50),
			ChartWindowMinutes: getenvIntDefault("ALERT_CHART_WINDOW_MINUTES", 60),
			ChartBaseURL:       os.Getenv("CHART_BASE_URL"),
		},
	}

	if path := os.Getenv("SENSORCLOUD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: database url required")
	}
	if cfg.Telegram.Token == "" {
		return cfg, errors.New("config: telegram bot token required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
