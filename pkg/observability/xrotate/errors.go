package xrotate

import "errors"

var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is empty")

	// ErrInvalidMaxSize 单文件大小上限超出合法范围
	ErrInvalidMaxSize = errors.New("xrotate: invalid max size")

	// ErrInvalidMaxBackups 备份数量超出合法范围
	ErrInvalidMaxBackups = errors.New("xrotate: invalid max backups")

	// ErrInvalidMaxAge 保留天数超出合法范围
	ErrInvalidMaxAge = errors.New("xrotate: invalid max age")

	// ErrNoCleanupPolicy 备份数量和保留天数不能同时为 0
	//
	// 两者同时为 0 意味着备份文件永不清理，磁盘最终会被写满。
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy")

	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")
)
