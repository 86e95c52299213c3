package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marcin93w/sonos-alarm/internal/models"
)

// TokenStore 每用户一份的令牌存储
// 键格式 user:<userId>:token，JSON 序列化，不设 TTL（过期由 TokenLifecycle 判断）
type TokenStore struct {
	kv     KV
	userID string
}

// NewTokenStore 创建令牌存储
func NewTokenStore(kv KV, userID string) *TokenStore {
	return &TokenStore{kv: kv, userID: userID}
}

func (s *TokenStore) key() string {
	return fmt.Sprintf("user:%s:token", s.userID)
}

// GetTokenSet 读取令牌；未认证时返回 (nil, nil)
func (s *TokenStore) GetTokenSet(ctx context.Context) (*models.TokenSet, error) {
	val, err := s.kv.Get(ctx, s.key())
	if err != nil {
		if err == ErrMiss {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token set: %w", err)
	}

	var tokenSet models.TokenSet
	if err := json.Unmarshal([]byte(val), &tokenSet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token set: %w", err)
	}
	return &tokenSet, nil
}

// SaveTokenSet 覆盖保存令牌
func (s *TokenStore) SaveTokenSet(ctx context.Context, tokenSet *models.TokenSet) error {
	jsonData, err := json.Marshal(tokenSet)
	if err != nil {
		return fmt.Errorf("failed to marshal token set: %w", err)
	}
	if err := s.kv.Set(ctx, s.key(), string(jsonData), 0); err != nil {
		return fmt.Errorf("failed to save token set: %w", err)
	}
	return nil
}

// Clear 清除令牌（刷新被永久拒绝后必须调用）
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key()); err != nil {
		return fmt.Errorf("failed to clear token set: %w", err)
	}
	return nil
}
