package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/marcin93w/sonos-alarm/internal/models"
)

const minutesPerDay = 24 * 60

// Engine 报警音量渐升引擎
type Engine struct {
	logger *zap.Logger
}

// NewEngine 创建渐升引擎
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// AdjustVolume 判断单个报警此刻是否需要调整音量，需要时就地修改 alarm.Volume
// 返回是否发生了变化；同一分钟内重复调用是幂等的
func (e *Engine) AdjustVolume(alarm *models.Alarm, now time.Time, cfg models.RampConfig) bool {
	// 渐升关闭与禁用的报警都静默跳过
	if !cfg.RampEnabled {
		return false
	}
	if !alarm.Enabled {
		return false
	}

	daysSince := DaysSinceLastOccurrence(alarm.RecurrenceDays, now)
	minutesSince := MinutesSinceSameDayOccurrence(alarm.StartTime, now)
	totalMinutes := minutesSince + daysSince*minutesPerDay

	// 渐升窗口只锚定在最近一次发生时刻上
	if totalMinutes < 0 || totalMinutes > cfg.RampDuration {
		return false
	}

	newVolume := VolumeAt(totalMinutes, alarm.InitialVolume, cfg.MaxVolume, cfg.RampDuration)
	if newVolume == alarm.Volume {
		return false
	}

	alarm.SetVolume(newVolume)
	e.logger.Debug("alarm volume adjusted",
		zap.String("alarm_id", alarm.AlarmID),
		zap.Int("elapsed_minutes", totalMinutes),
		zap.Int("new_volume", newVolume),
	)
	return true
}

// Tick 对全部报警执行一轮调整，返回需要下发的 {groupId -> 新音量}
// 共享分组的报警按列表顺序后写者胜出
func (e *Engine) Tick(alarms []*models.Alarm, now time.Time, configs map[string]models.RampConfig) map[string]int {
	changes := make(map[string]int)

	for _, alarm := range alarms {
		cfg, ok := configs[alarm.AlarmID]
		if !ok {
			cfg = models.DefaultRampConfig()
		}
		if !e.AdjustVolume(alarm, now, cfg) {
			continue
		}
		for _, groupID := range alarm.GroupIDs {
			changes[groupID] = alarm.Volume
		}
	}

	return changes
}
