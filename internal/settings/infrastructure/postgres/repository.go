package postgres

import (
	"context"
	"database/sql"
	"errors"

	"sensor-cloud/internal/alerting/domain"
)

// SettingsRepository loads alert configuration from Postgres. Absent or
// malformed fields resolve to documented defaults at scan time; the alerting
// engine never sees a partially populated config.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository constructs a repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// ActiveConfigs returns the global alerting switch and chat target together
// with every per-location config that has metric or offline alerts enabled.
func (r *SettingsRepository) ActiveConfigs(ctx context.Context) (domain.AlertSettings, error) {
	if r == nil || r.db == nil {
		return domain.AlertSettings{}, errors.New("settings repo: nil db")
	}

	settings, err := r.loadGlobal(ctx)
	if err != nil {
		return domain.AlertSettings{}, err
	}
	if !settings.Enabled {
		return settings, nil
	}

	configs, err := r.loadConfigs(ctx)
	if err != nil {
		return domain.AlertSettings{}, err
	}
	settings.Configs = configs
	return settings, nil
}

func (r *SettingsRepository) loadGlobal(ctx context.Context) (domain.AlertSettings, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT alerts_enabled, alert_chat_id
FROM dashboard_settings
LIMIT 1`)

	var enabled sql.NullBool
	var chatTarget sql.NullString
	if err := row.Scan(&enabled, &chatTarget); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AlertSettings{}, nil
		}
		return domain.AlertSettings{}, err
	}
	return domain.AlertSettings{
		Enabled:    enabled.Valid && enabled.Bool,
		ChatTarget: chatTarget.String,
	}, nil
}

func (r *SettingsRepository) loadConfigs(ctx context.Context) ([]domain.LocationAlertConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id, location, chat_id,
	alerts_enabled,
	temp_min, temp_max, temp_enabled, temp_mode,
	hum_min, hum_max, hum_enabled, hum_mode,
	pres_min, pres_max, pres_enabled, pres_mode,
	offline_alerts_enabled, frequency_minutes, language, send_charts
FROM alert_settings
WHERE alerts_enabled = TRUE OR offline_alerts_enabled = TRUE
ORDER BY user_id, location`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []domain.LocationAlertConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return configs, nil
}

func scanConfig(rows *sql.Rows) (domain.LocationAlertConfig, error) {
	var (
		userID     string
		location   string
		chatTarget sql.NullString
		enabled    sql.NullBool

		tempMin, tempMax sql.NullFloat64
		tempEnabled      sql.NullBool
		tempMode         sql.NullString

		humMin, humMax sql.NullFloat64
		humEnabled     sql.NullBool
		humMode        sql.NullString

		presMin, presMax sql.NullFloat64
		presEnabled      sql.NullBool
		presMode         sql.NullString

		offlineEnabled sql.NullBool
		frequency      sql.NullInt64
		language       sql.NullString
		sendCharts     sql.NullBool
	)
	err := rows.Scan(
		&userID, &location, &chatTarget,
		&enabled,
		&tempMin, &tempMax, &tempEnabled, &tempMode,
		&humMin, &humMax, &humEnabled, &humMode,
		&presMin, &presMax, &presEnabled, &presMode,
		&offlineEnabled, &frequency, &language, &sendCharts,
	)
	if err != nil {
		return domain.LocationAlertConfig{}, err
	}

	cfg := domain.LocationAlertConfig{
		RecipientID:          userID,
		Location:             location,
		ChatTarget:           chatTarget.String,
		Enabled:              enabled.Valid && enabled.Bool,
		Temperature:          scanThreshold(tempMin, tempMax, tempEnabled, tempMode),
		Humidity:             scanThreshold(humMin, humMax, humEnabled, humMode),
		Pressure:             scanThreshold(presMin, presMax, presEnabled, presMode),
		OfflineAlertsEnabled: offlineEnabled.Valid && offlineEnabled.Bool,
		FrequencyMinutes:     int(frequency.Int64),
		Language:             domain.Language(language.String),
		SendCharts:           sendCharts.Valid && sendCharts.Bool,
	}
	cfg.Normalize()
	return cfg, nil
}

func scanThreshold(min, max sql.NullFloat64, enabled sql.NullBool, mode sql.NullString) domain.MetricThreshold {
	return domain.MetricThreshold{
		Min:     min.Float64,
		Max:     max.Float64,
		Enabled: enabled.Valid && enabled.Bool,
		Mode:    domain.Mode(mode.String),
	}
}
