package models

// 上游 Sonos Control API 的原始数据结构

// Household Sonos 家庭（账号下的一套设备）
type Household struct {
	ID          string `json:"id,omitempty"`
	HouseholdID string `json:"householdId,omitempty"`
}

// Key 返回有效的家庭标识（两个字段兼容）
func (h Household) Key() string {
	if h.ID != "" {
		return h.ID
	}
	return h.HouseholdID
}

// GroupVolume 分组音量状态
type GroupVolume struct {
	Volume int `json:"volume"`
}

// Group 播放分组
type Group struct {
	ID            string       `json:"id"`
	Name          string       `json:"name,omitempty"`
	CoordinatorID string       `json:"coordinatorId,omitempty"`
	PlayerIDs     []string     `json:"playerIds,omitempty"`
	GroupVolume   *GroupVolume `json:"groupVolume,omitempty"`
}

// SonosAlarmActuator 报警执行器（触发播放的目标及其音量）
type SonosAlarmActuator struct {
	ID     string `json:"id,omitempty"`
	Target string `json:"target,omitempty"`
	Volume *int   `json:"volume,omitempty"`
}

// SonosAlarmRecurrence 报警重复规则
type SonosAlarmRecurrence struct {
	Days []string `json:"days,omitempty"`
}

// SonosAlarmDescription 报警描述块
type SonosAlarmDescription struct {
	Actuator   *SonosAlarmActuator   `json:"actuator,omitempty"`
	Recurrence *SonosAlarmRecurrence `json:"recurrence,omitempty"`
	StartTime  string                `json:"startTime,omitempty"`
}

// SonosAlarm 上游报警原始表示
type SonosAlarm struct {
	AlarmID     string                 `json:"alarmId,omitempty"`
	Enabled     bool                   `json:"enabled,omitempty"`
	State       string                 `json:"state,omitempty"`
	Description *SonosAlarmDescription `json:"description,omitempty"`
}
