package engine

import "math"

// VolumeAt 计算渐升窗口内某一时刻的目标音量
// elapsedMinutes 被夹取到 [0, rampDuration]；
// 下界精确返回 initialVolume，上界精确返回 maxVolume，
// 中间线性插值并四舍五入（0.5 进位）
// 调用方保证 rampDuration >= 1
func VolumeAt(elapsedMinutes, initialVolume, maxVolume, rampDuration int) int {
	clamped := elapsedMinutes
	if clamped < 0 {
		clamped = 0
	}
	if clamped > rampDuration {
		clamped = rampDuration
	}

	if clamped == 0 {
		return initialVolume
	}
	if clamped == rampDuration {
		return maxVolume
	}

	ratio := float64(clamped) / float64(rampDuration)
	volume := float64(initialVolume) + float64(maxVolume-initialVolume)*ratio
	return int(math.Floor(volume + 0.5))
}
