package repository

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// UserRegistry 已注册用户仓库（定时批处理遍历的用户来源）
type UserRegistry struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRegistry 创建用户仓库
func NewUserRegistry(db *sql.DB, logger *zap.Logger) *UserRegistry {
	return &UserRegistry{
		db:     db,
		logger: logger,
	}
}

// Register 注册用户（重复注册是幂等的）
func (r *UserRegistry) Register(userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	query := `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	r.logger.Info("user registered for scheduled processing",
		zap.String("user_id", userID),
	)
	return nil
}

// AllUserIDs 列出全部已注册用户（按注册顺序）
func (r *UserRegistry) AllUserIDs() ([]string, error) {
	query := `SELECT user_id FROM users ORDER BY created_at`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}

	return userIDs, nil
}
