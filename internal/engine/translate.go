package engine

import (
	"time"

	"github.com/marcin93w/sonos-alarm/internal/models"
)

// AlarmFromSonos 把上游报警表示翻译为域内 Alarm
// 必填字段缺失时返回 ValidationError（不发生任何副作用）
// InitialVolume 与 Volume 都取自上游快照，渐升以 InitialVolume 为起点
func AlarmFromSonos(raw models.SonosAlarm, groups []models.Group, referenceInstant time.Time) (*models.Alarm, error) {
	if raw.AlarmID == "" {
		return nil, &models.ValidationError{Field: "alarmId", Reason: "is required"}
	}
	if raw.Description == nil || raw.Description.Actuator == nil {
		return nil, &models.ValidationError{Field: "description.actuator", Reason: "is required"}
	}
	if raw.Description.Actuator.ID == "" {
		return nil, &models.ValidationError{Field: "description.actuator.id", Reason: "is required"}
	}
	if raw.Description.Actuator.Volume == nil {
		return nil, &models.ValidationError{Field: "description.actuator.volume", Reason: "is required"}
	}

	var recurrenceDays []string
	if raw.Description.Recurrence != nil {
		recurrenceDays = raw.Description.Recurrence.Days
	}
	if recurrenceDays == nil {
		recurrenceDays = []string{}
	}

	groupIDs := models.FindGroupIDsForAlarm(raw.Description.Actuator.ID, groups)
	groupNames := resolveGroupNames(groupIDs, groups)
	volume := *raw.Description.Actuator.Volume

	return &models.Alarm{
		AlarmID:        raw.AlarmID,
		Enabled:        raw.Enabled,
		GroupIDs:       groupIDs,
		GroupNames:     groupNames,
		RecurrenceDays: recurrenceDays,
		StartTime:      ResolveStartInstant(raw.Description.StartTime, referenceInstant),
		Volume:         volume,
		InitialVolume:  volume,
	}, nil
}

// resolveGroupNames 展示用的分组名称（派生字段，非权威）
func resolveGroupNames(groupIDs []string, groups []models.Group) []string {
	byID := make(map[string]string, len(groups))
	for _, g := range groups {
		byID[g.ID] = g.Name
	}
	names := make([]string, 0, len(groupIDs))
	for _, id := range groupIDs {
		if name := byID[id]; name != "" {
			names = append(names, name)
		}
	}
	return names
}
