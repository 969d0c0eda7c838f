package xgate

import "errors"

var (
	// ErrInvalidPermits 表示许可数无效（必须 >= 1）
	ErrInvalidPermits = errors.New("xgate: max permits must be >= 1")

	// ErrNilContext 表示 context 参数为 nil
	ErrNilContext = errors.New("xgate: nil context")

	// ErrNilFunc 表示操作函数为 nil
	ErrNilFunc = errors.New("xgate: nil function")
)
