package engine

import (
	"time"
)

// 上游厂商固定以中欧民用时区报告报警时刻（含夏令时规则）
const vendorTimezone = "Europe/Berlin"

// dayCodeMap 七日代码映射（UTC 日历序，周日=0）
// 不在表内的代码永远不匹配
var dayCodeMap = map[string]int{
	"SU": 0,
	"MO": 1,
	"TU": 2,
	"WE": 3,
	"TH": 4,
	"FR": 5,
	"SA": 6,
}

// 原始起始时刻的可能格式（上游在不同固件间不一致）
var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"15:04:05",
	"15:04",
}

// ResolveStartInstant 把上游原始起始时刻解析为 UTC 归一化的 startTime
// 结果锚定在 1970-01-01，仅时/分/秒有意义
// 时区偏移量按 referenceInstant 当时的中欧时区规则计算（逐次重算以跟随夏令时切换）
func ResolveStartInstant(raw string, referenceInstant time.Time) time.Time {
	epoch := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

	parsed, ok := parseStartTime(raw)
	if !ok {
		return epoch
	}

	loc, err := time.LoadLocation(vendorTimezone)
	if err != nil {
		return epoch
	}
	_, offsetSeconds := referenceInstant.In(loc).Zone()

	// 民用钟面时刻去掉时区偏移得到 UTC 钟面时刻
	civilSeconds := parsed.Hour()*3600 + parsed.Minute()*60 + parsed.Second()
	utcSeconds := civilSeconds - offsetSeconds
	utcSeconds = ((utcSeconds % 86400) + 86400) % 86400

	return epoch.Add(time.Duration(utcSeconds) * time.Second)
}

func parseStartTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysSinceLastOccurrence 最近一次匹配重复规则的日期距今天数
// 空集合视为每日重复，恒为 0（今天）
// 非空集合按 UTC 日历向前逐日扫描至多 7 天（今天、昨天、……）
func DaysSinceLastOccurrence(recurrenceDays []string, referenceInstant time.Time) int {
	if len(recurrenceDays) == 0 {
		return 0
	}

	today := int(referenceInstant.UTC().Weekday())
	for i := 0; i < 7; i++ {
		checkDay := (today - i + 7) % 7
		for _, code := range recurrenceDays {
			if day, ok := dayCodeMap[code]; ok && day == checkDay {
				return i
			}
		}
	}
	return 0
}

// MinutesSinceSameDayOccurrence 距当天（或前一天）发生时刻的整分钟数
// 把 startTime 的钟面时刻套到 referenceInstant 的 UTC 日期上；
// 若该时刻尚未到来则回退 24 小时
func MinutesSinceSameDayOccurrence(startTime, referenceInstant time.Time) int {
	ref := referenceInstant.UTC()
	st := startTime.UTC()

	occurrence := time.Date(
		ref.Year(), ref.Month(), ref.Day(),
		st.Hour(), st.Minute(), st.Second(),
		0, time.UTC,
	)
	if occurrence.After(ref) {
		occurrence = occurrence.Add(-24 * time.Hour)
	}

	return int(ref.Sub(occurrence) / time.Minute)
}
