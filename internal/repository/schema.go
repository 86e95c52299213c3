package repository

import (
	"database/sql"
	"fmt"
)

// EnsureSchema 启动时建表（幂等）
func EnsureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id    TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS alarm_ramp_configs (
			user_id       TEXT NOT NULL,
			alarm_id      TEXT NOT NULL,
			ramp_enabled  BOOLEAN NOT NULL,
			max_volume    INTEGER NOT NULL,
			ramp_duration INTEGER NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, alarm_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
