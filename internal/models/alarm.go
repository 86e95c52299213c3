package models

import (
	"time"
)

// Alarm 域内报警模型（由上游 Sonos 报警翻译而来）
// StartTime 锚定在 1970-01-01，仅时/分/秒有意义（UTC 归一化后的起始时刻）
type Alarm struct {
	AlarmID        string    `json:"alarmId"`
	Enabled        bool      `json:"enabled"`
	GroupIDs       []string  `json:"groupIds"`
	GroupNames     []string  `json:"groupNames,omitempty"`
	RecurrenceDays []string  `json:"recurrenceDays"`
	StartTime      time.Time `json:"startTime"`
	Volume         int       `json:"volume"`
	InitialVolume  int       `json:"initialVolume"`
}

// SetVolume 更新当前音量（仅由引擎在有变化时调用）
// InitialVolume 只在刷新快照时被覆盖，渐升调整不会触碰它
func (a *Alarm) SetVolume(newVolume int) {
	a.Volume = newVolume
}

// FindGroupIDsForAlarm 根据执行器ID解析报警所属的分组
// 成员判断基于 {group.id, group.coordinatorId, ...group.playerIds} 集合
func FindGroupIDsForAlarm(actuatorID string, groups []Group) []string {
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, group := range groups {
		if group.ID == "" {
			continue
		}
		members := make([]string, 0, len(group.PlayerIDs)+2)
		members = append(members, group.ID)
		if group.CoordinatorID != "" {
			members = append(members, group.CoordinatorID)
		}
		members = append(members, group.PlayerIDs...)

		for _, member := range members {
			if member == actuatorID && !seen[group.ID] {
				seen[group.ID] = true
				ids = append(ids, group.ID)
				break
			}
		}
	}
	return ids
}
