package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcin93w/sonos-alarm/internal/models"
)

func intPtr(v int) *int { return &v }

func sonosAlarmFixture() models.SonosAlarm {
	return models.SonosAlarm{
		AlarmID: "126",
		Enabled: true,
		State:   "ALARM_PENDING",
		Description: &models.SonosAlarmDescription{
			StartTime: "1970-01-01T09:07:00Z",
			Recurrence: &models.SonosAlarmRecurrence{
				Days: []string{"MO", "TU", "TH", "FR"},
			},
			Actuator: &models.SonosAlarmActuator{
				ID:     "RINCON_542A1B595D5001400",
				Target: "PLAYER",
				Volume: intPtr(9),
			},
		},
	}
}

func groupsFixture() []models.Group {
	return []models.Group{
		{
			ID:            "RINCON_542A1B595D5001400:542642962",
			Name:          "Bedroom",
			CoordinatorID: "RINCON_542A1B595D5001400",
			PlayerIDs:     []string{"RINCON_542A1B595D5001400"},
		},
	}
}

func TestAlarmFromSonos_MapsCoreFields(t *testing.T) {
	ref := time.Date(2026, 1, 26, 8, 0, 0, 0, time.UTC)

	alarm, err := AlarmFromSonos(sonosAlarmFixture(), groupsFixture(), ref)

	require.NoError(t, err)
	assert.Equal(t, "126", alarm.AlarmID)
	assert.True(t, alarm.Enabled)
	assert.Equal(t, 9, alarm.Volume)
	assert.Equal(t, 9, alarm.InitialVolume)
	assert.Equal(t, []string{"MO", "TU", "TH", "FR"}, alarm.RecurrenceDays)
}

func TestAlarmFromSonos_NormalizesStartTime(t *testing.T) {
	// 冬季参照时刻：民用 09:07 → UTC 08:07
	ref := time.Date(2026, 1, 26, 8, 0, 0, 0, time.UTC)

	alarm, err := AlarmFromSonos(sonosAlarmFixture(), groupsFixture(), ref)

	require.NoError(t, err)
	assert.Equal(t, 8, alarm.StartTime.UTC().Hour())
	assert.Equal(t, 7, alarm.StartTime.UTC().Minute())
}

func TestAlarmFromSonos_ResolvesGroupMembership(t *testing.T) {
	ref := time.Date(2026, 1, 26, 8, 0, 0, 0, time.UTC)

	alarm, err := AlarmFromSonos(sonosAlarmFixture(), groupsFixture(), ref)

	require.NoError(t, err)
	assert.Equal(t, []string{"RINCON_542A1B595D5001400:542642962"}, alarm.GroupIDs)
	assert.Equal(t, []string{"Bedroom"}, alarm.GroupNames)
}

func TestAlarmFromSonos_MissingAlarmID(t *testing.T) {
	raw := sonosAlarmFixture()
	raw.AlarmID = ""

	_, err := AlarmFromSonos(raw, groupsFixture(), time.Now())

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "alarmId", verr.Field)
}

func TestAlarmFromSonos_MissingActuatorVolume(t *testing.T) {
	raw := sonosAlarmFixture()
	raw.Description.Actuator.Volume = nil

	_, err := AlarmFromSonos(raw, groupsFixture(), time.Now())

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description.actuator.volume", verr.Field)
}

func TestAlarmFromSonos_MissingRecurrenceMeansDaily(t *testing.T) {
	raw := sonosAlarmFixture()
	raw.Description.Recurrence = nil

	alarm, err := AlarmFromSonos(raw, groupsFixture(), time.Now())

	require.NoError(t, err)
	assert.NotNil(t, alarm.RecurrenceDays)
	assert.Empty(t, alarm.RecurrenceDays)
}

func TestFindGroupIDsForAlarm_MatchesByPlayerID(t *testing.T) {
	groups := []models.Group{
		{ID: "g-1", CoordinatorID: "c-1", PlayerIDs: []string{"p-1", "p-2"}},
		{ID: "g-2", CoordinatorID: "c-2", PlayerIDs: []string{"p-3"}},
	}

	assert.Equal(t, []string{"g-1"}, models.FindGroupIDsForAlarm("p-2", groups))
	assert.Equal(t, []string{"g-2"}, models.FindGroupIDsForAlarm("c-2", groups))
	assert.Empty(t, models.FindGroupIDsForAlarm("unknown", groups))
}
