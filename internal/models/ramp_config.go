package models

// RampConfig 单个报警的音量渐升配置
type RampConfig struct {
	RampEnabled  bool `json:"rampEnabled"`
	MaxVolume    int  `json:"maxVolume"`
	RampDuration int  `json:"rampDuration"` // 渐升窗口长度（分钟）
}

// DefaultRampConfig 默认渐升配置（无单独配置时使用）
func DefaultRampConfig() RampConfig {
	return RampConfig{
		RampEnabled:  true,
		MaxVolume:    15,
		RampDuration: 60,
	}
}

// Validate 校验配置取值范围
// maxVolume ∈ [1,100]，rampDuration ∈ [1,180]
func (c RampConfig) Validate() error {
	if c.MaxVolume < 1 || c.MaxVolume > 100 {
		return &ValidationError{Field: "maxVolume", Reason: "must be between 1 and 100"}
	}
	if c.RampDuration < 1 || c.RampDuration > 180 {
		return &ValidationError{Field: "rampDuration", Reason: "must be between 1 and 180"}
	}
	return nil
}
