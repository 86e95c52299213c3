package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolumeAt_EndpointExactness(t *testing.T) {
	// 下界精确返回起始音量，上界精确返回最大音量
	assert.Equal(t, 1, VolumeAt(0, 1, 15, 60))
	assert.Equal(t, 15, VolumeAt(60, 1, 15, 60))
	assert.Equal(t, 9, VolumeAt(0, 9, 100, 180))
	assert.Equal(t, 100, VolumeAt(180, 9, 100, 180))
}

func TestVolumeAt_ClampsOutOfWindow(t *testing.T) {
	assert.Equal(t, 1, VolumeAt(-10, 1, 15, 60))
	assert.Equal(t, 15, VolumeAt(600, 1, 15, 60))
}

func TestVolumeAt_MidpointInterpolation(t *testing.T) {
	// 半程：1 + (10-1)*0.5 = 5.5 → 6（0.5 进位）
	assert.Equal(t, 6, VolumeAt(30, 1, 10, 60))
	// 3 分钟：1 + 14*3/60 = 1.7 → 2
	assert.Equal(t, 2, VolumeAt(3, 1, 15, 60))
	// 1 分钟：1 + 14/60 = 1.23 → 1
	assert.Equal(t, 1, VolumeAt(1, 1, 15, 60))
}

func TestVolumeAt_Monotonic(t *testing.T) {
	prev := VolumeAt(0, 3, 80, 120)
	for elapsed := 1; elapsed <= 120; elapsed++ {
		current := VolumeAt(elapsed, 3, 80, 120)
		assert.GreaterOrEqual(t, current, prev, "elapsed=%d", elapsed)
		prev = current
	}
}

func TestVolumeAt_DescendingRamp(t *testing.T) {
	// 起始音量高于最大音量时按同样规则插值（后写者胜出语义不变）
	assert.Equal(t, 20, VolumeAt(0, 20, 10, 60))
	assert.Equal(t, 10, VolumeAt(60, 20, 10, 60))
	assert.Equal(t, 15, VolumeAt(30, 20, 10, 60))
}
