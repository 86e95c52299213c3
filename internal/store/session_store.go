package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// sessionRecord 会话记录
type sessionRecord struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStore 浏览器会话存储
// 键格式 session:<sessionId>
type SessionStore struct {
	kv KV
}

// NewSessionStore 创建会话存储
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Create 为用户创建新会话，返回会话ID
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	sessionID := uuid.NewString()
	record := sessionRecord{UserID: userID, CreatedAt: time.Now()}

	jsonData, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey(sessionID), string(jsonData), 0); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return sessionID, nil
}

// GetUserID 根据会话ID查用户；会话不存在时返回 ("", nil)
func (s *SessionStore) GetUserID(ctx context.Context, sessionID string) (string, error) {
	val, err := s.kv.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if err == ErrMiss {
			return "", nil
		}
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return "", fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return record.UserID, nil
}

// Delete 删除会话（登出）
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.kv.Delete(ctx, sessionKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
