package xretry

import "errors"

var (
	// ErrNilRetryer 表示 Retryer 接收者为 nil
	ErrNilRetryer = errors.New("xretry: nil retryer")

	// ErrNilContext 表示 context 参数为 nil
	ErrNilContext = errors.New("xretry: nil context")

	// ErrNilFunc 表示操作函数为 nil
	ErrNilFunc = errors.New("xretry: nil function")

	// ErrInvalidMaxAttempts 表示最大尝试次数无效
	ErrInvalidMaxAttempts = errors.New("xretry: max attempts must be >= 1")
)
