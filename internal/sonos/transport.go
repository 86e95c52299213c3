package sonos

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// TransportConfig 出站 HTTP 配置
type TransportConfig struct {
	Timeout     time.Duration // 单次尝试超时
	Retries     int           // 瞬时失败重试次数
	BackoffBase time.Duration // 线性退避基数（attempt * base）
}

// DefaultTransportConfig 默认出站配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:     8 * time.Second,
		Retries:     2,
		BackoffBase: 200 * time.Millisecond,
	}
}

// NewTransport 创建带超时与重试的 resty 客户端
// 重试触发条件：网络错误，或状态码 ∈ {408, 429, 5xx}
// 其它 4xx 属于业务错误，原样返回给调用方，不重试
func NewTransport(cfg TransportConfig, logger *zap.Logger) *resty.Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			// 线性退避
			return time.Duration(resp.Request.Attempt) * cfg.BackoffBase, nil
		}).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return isRetryableStatus(resp.StatusCode())
		}).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			if isRetryableStatus(resp.StatusCode()) {
				logger.Warn("upstream transient failure",
					zap.Int("status_code", resp.StatusCode()),
					zap.Int("attempt", resp.Request.Attempt),
					zap.String("url", resp.Request.URL),
				)
			}
			return nil
		})

	return client
}

func isRetryableStatus(status int) bool {
	switch {
	case status == http.StatusRequestTimeout: // 408
		return true
	case status == http.StatusTooManyRequests: // 429
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}
