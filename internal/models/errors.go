package models

import "fmt"

// ValidationError 前置校验错误（在任何网络调用之前拒绝）
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}
