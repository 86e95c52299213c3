package sonos

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated 没有可用令牌，需要重新走 OAuth 流程
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrTokenRevoked 刷新被永久拒绝（invalid_grant），缓存令牌已清除，需要重新认证
var ErrTokenRevoked = errors.New("refresh token revoked")

// UpstreamError 上游返回非 2xx（重试与 401 刷新之后仍失败）
// 携带状态码与响应体用于诊断，不再重试
type UpstreamError struct {
	Op     string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: upstream status %d: %s", e.Op, e.Status, e.Body)
}
