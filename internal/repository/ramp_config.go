package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/marcin93w/sonos-alarm/internal/models"
)

// RampConfigRepository 每报警一份的渐升配置仓库
// 没有单独配置的报警回退到默认配置
type RampConfigRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRampConfigRepository 创建渐升配置仓库
func NewRampConfigRepository(db *sql.DB, logger *zap.Logger) *RampConfigRepository {
	return &RampConfigRepository{
		db:     db,
		logger: logger,
	}
}

// GetConfig 读取单个报警的配置；不存在时返回默认配置
func (r *RampConfigRepository) GetConfig(userID, alarmID string) (models.RampConfig, error) {
	query := `
		SELECT ramp_enabled, max_volume, ramp_duration
		FROM alarm_ramp_configs
		WHERE user_id = $1 AND alarm_id = $2
	`

	var cfg models.RampConfig
	err := r.db.QueryRow(query, userID, alarmID).Scan(
		&cfg.RampEnabled,
		&cfg.MaxVolume,
		&cfg.RampDuration,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.DefaultRampConfig(), nil
		}
		return models.RampConfig{}, fmt.Errorf("failed to get ramp config: %w", err)
	}

	return cfg, nil
}

// GetConfigs 列出用户全部单独配置（alarmId -> config）
func (r *RampConfigRepository) GetConfigs(userID string) (map[string]models.RampConfig, error) {
	query := `
		SELECT alarm_id, ramp_enabled, max_volume, ramp_duration
		FROM alarm_ramp_configs
		WHERE user_id = $1
	`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ramp configs: %w", err)
	}
	defer rows.Close()

	configs := make(map[string]models.RampConfig)
	for rows.Next() {
		var alarmID string
		var cfg models.RampConfig
		if err := rows.Scan(&alarmID, &cfg.RampEnabled, &cfg.MaxVolume, &cfg.RampDuration); err != nil {
			return nil, fmt.Errorf("failed to scan ramp config row: %w", err)
		}
		configs[alarmID] = cfg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ramp config rows: %w", err)
	}

	return configs, nil
}

// SaveConfig 写入（或覆盖）单个报警的配置，写入前校验取值范围
func (r *RampConfigRepository) SaveConfig(userID, alarmID string, cfg models.RampConfig) error {
	if alarmID == "" {
		return &models.ValidationError{Field: "alarmId", Reason: "is required"}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO alarm_ramp_configs (user_id, alarm_id, ramp_enabled, max_volume, ramp_duration, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id, alarm_id) DO UPDATE SET
			ramp_enabled  = EXCLUDED.ramp_enabled,
			max_volume    = EXCLUDED.max_volume,
			ramp_duration = EXCLUDED.ramp_duration,
			updated_at    = now()
	`
	if _, err := r.db.Exec(query, userID, alarmID, cfg.RampEnabled, cfg.MaxVolume, cfg.RampDuration); err != nil {
		return fmt.Errorf("failed to save ramp config: %w", err)
	}

	r.logger.Info("ramp config saved",
		zap.String("user_id", userID),
		zap.String("alarm_id", alarmID),
		zap.Bool("ramp_enabled", cfg.RampEnabled),
		zap.Int("max_volume", cfg.MaxVolume),
		zap.Int("ramp_duration", cfg.RampDuration),
	)
	return nil
}
