package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marcin93w/sonos-alarm/internal/engine"
	"github.com/marcin93w/sonos-alarm/internal/models"
)

// RefreshAlarms 从上游拉取报警快照并整体替换缓存（不做局部合并）
// force 为 false 时只在缓存过期后刷新
func (s *Service) RefreshAlarms(ctx context.Context, userID string, force bool) error {
	alarmStore := s.AlarmStoreFor(userID)

	if !force {
		should, err := alarmStore.ShouldRefresh(ctx, s.cfg.Scheduler.AlarmCacheTTL)
		if err != nil {
			return err
		}
		if !should {
			return nil
		}
	}

	client := s.ClientFor(userID)

	households, err := client.GetHouseholds(ctx)
	if err != nil {
		return err
	}
	if len(households) == 0 {
		return fmt.Errorf("no households found for user %s", userID)
	}
	householdID := households[0].Key()

	rawAlarms, err := client.GetAlarms(ctx, householdID)
	if err != nil {
		return err
	}
	groups, err := client.GetGroups(ctx, householdID)
	if err != nil {
		return err
	}

	alarms := make([]*models.Alarm, 0, len(rawAlarms))
	for _, raw := range rawAlarms {
		alarm, err := engine.AlarmFromSonos(raw, groups, time.Now())
		if err != nil {
			// 单个残缺报警不拖垮整个刷新
			s.logger.Warn("skipping malformed upstream alarm",
				zap.String("user_id", userID),
				zap.String("alarm_id", raw.AlarmID),
				zap.Error(err),
			)
			continue
		}
		alarms = append(alarms, alarm)
	}

	if err := alarmStore.SaveAlarms(ctx, alarms); err != nil {
		return err
	}

	s.logger.Info("alarms refreshed",
		zap.String("user_id", userID),
		zap.String("household_id", householdID),
		zap.Int("count", len(alarms)),
	)
	return nil
}

// AdjustVolumes 执行一轮渐升并把变化按序下发到对应分组
func (s *Service) AdjustVolumes(ctx context.Context, userID string, now time.Time) error {
	alarmStore := s.AlarmStoreFor(userID)

	alarms, err := alarmStore.GetAlarms(ctx)
	if err != nil {
		return err
	}
	if len(alarms) == 0 {
		return nil
	}

	configs, err := s.rampConfigs.GetConfigs(userID)
	if err != nil {
		return err
	}

	changes := s.engine.Tick(alarms, now, configs)
	if len(changes) == 0 {
		return nil
	}

	client := s.ClientFor(userID)
	for groupID, volume := range changes {
		s.logger.Info("adjusting group volume",
			zap.String("user_id", userID),
			zap.String("group_id", groupID),
			zap.Int("new_volume", volume),
		)
		if err := client.SetVolume(ctx, groupID, volume); err != nil {
			return err
		}
	}

	// 回写调整后的音量，但不改变快照时效
	return alarmStore.UpdateAlarms(ctx, alarms)
}

// ListAlarms 强制刷新后返回用户当前的报警列表（浏览器端点用）
func (s *Service) ListAlarms(ctx context.Context, userID string) ([]*models.Alarm, error) {
	if err := s.RefreshAlarms(ctx, userID, true); err != nil {
		return nil, err
	}
	alarms, err := s.AlarmStoreFor(userID).GetAlarms(ctx)
	if err != nil {
		return nil, err
	}
	if alarms == nil {
		alarms = []*models.Alarm{}
	}
	return alarms, nil
}

// IsAuthenticated 用户是否持有可刷新的令牌对
func (s *Service) IsAuthenticated(ctx context.Context, userID string) (bool, error) {
	return s.ClientFor(userID).Tokens().IsAuthenticated(ctx)
}

// AuthURL 授权页跳转地址
func (s *Service) AuthURL(state string) string {
	return s.ClientFor("").AuthURL(state, s.cfg.Sonos.RedirectURI)
}

// AlarmConfigs 用户全部单独渐升配置
func (s *Service) AlarmConfigs(userID string) (map[string]models.RampConfig, error) {
	return s.rampConfigs.GetConfigs(userID)
}

// SaveAlarmConfig 保存单个报警的渐升配置
func (s *Service) SaveAlarmConfig(userID, alarmID string, cfg models.RampConfig) error {
	return s.rampConfigs.SaveConfig(userID, alarmID, cfg)
}
