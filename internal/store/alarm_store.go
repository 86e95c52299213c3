package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcin93w/sonos-alarm/internal/models"
)

// alarmSnapshot 报警列表缓存（整体替换，不做局部合并）
type alarmSnapshot struct {
	Alarms    []*models.Alarm `json:"alarms"`
	LastSaved time.Time       `json:"lastSaved"`
}

// AlarmStore 每用户一份的报警列表缓存
// 键格式 user:<userId>:alarms
type AlarmStore struct {
	kv     KV
	userID string
}

// NewAlarmStore 创建报警缓存
func NewAlarmStore(kv KV, userID string) *AlarmStore {
	return &AlarmStore{kv: kv, userID: userID}
}

func (s *AlarmStore) key() string {
	return fmt.Sprintf("user:%s:alarms", s.userID)
}

// GetAlarms 读取缓存的报警列表；从未填充时返回 (nil, nil)
func (s *AlarmStore) GetAlarms(ctx context.Context) ([]*models.Alarm, error) {
	snapshot, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, nil
	}
	return snapshot.Alarms, nil
}

// SaveAlarms 整体替换缓存并刷新时间戳
func (s *AlarmStore) SaveAlarms(ctx context.Context, alarms []*models.Alarm) error {
	snapshot := alarmSnapshot{
		Alarms:    alarms,
		LastSaved: time.Now(),
	}
	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal alarm snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, s.key(), string(jsonData), 0); err != nil {
		return fmt.Errorf("failed to save alarm snapshot: %w", err)
	}
	return nil
}

// UpdateAlarms 回写渐升引擎修改后的列表，但保留原有时间戳
// 时效性始终锚定在最近一次上游刷新上，音量调整不算刷新
func (s *AlarmStore) UpdateAlarms(ctx context.Context, alarms []*models.Alarm) error {
	existing, err := s.load(ctx)
	if err != nil {
		return err
	}

	snapshot := alarmSnapshot{Alarms: alarms}
	if existing != nil {
		snapshot.LastSaved = existing.LastSaved
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal alarm snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, s.key(), string(jsonData), 0); err != nil {
		return fmt.Errorf("failed to save alarm snapshot: %w", err)
	}
	return nil
}

// ShouldRefresh 从未填充或距上次保存超过 ttl 时为 true
func (s *AlarmStore) ShouldRefresh(ctx context.Context, ttl time.Duration) (bool, error) {
	snapshot, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if snapshot == nil {
		return true, nil
	}
	return time.Since(snapshot.LastSaved) > ttl, nil
}

// Clear 清空缓存
func (s *AlarmStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key()); err != nil {
		return fmt.Errorf("failed to clear alarm snapshot: %w", err)
	}
	return nil
}

func (s *AlarmStore) load(ctx context.Context) (*alarmSnapshot, error) {
	val, err := s.kv.Get(ctx, s.key())
	if err != nil {
		if err == ErrMiss {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get alarm snapshot: %w", err)
	}

	var snapshot alarmSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alarm snapshot: %w", err)
	}
	return &snapshot, nil
}
