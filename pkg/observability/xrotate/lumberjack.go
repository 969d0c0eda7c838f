package xrotate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 默认配置
const (
	DefaultMaxSizeMB  = 100  // 单文件上限 100MB
	DefaultMaxBackups = 7    // 最多保留 7 个备份
	DefaultMaxAgeDays = 30   // 备份最长保留 30 天
	DefaultCompress   = true // 默认压缩备份
)

// 配置上限，防止误填超大值
const (
	maxSizeMBLimit  = 4096
	maxBackupsLimit = 1000
	maxAgeDaysLimit = 3650
)

type config struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	LocalTime  bool
}

// Option 配置选项
type Option func(*config)

// WithMaxSizeMB 设置单文件大小上限（MB），超过后触发轮转
func WithMaxSizeMB(mb int) Option {
	return func(c *config) { c.MaxSizeMB = mb }
}

// WithMaxBackups 设置最多保留的备份文件数量，0 表示不按数量清理
func WithMaxBackups(n int) Option {
	return func(c *config) { c.MaxBackups = n }
}

// WithMaxAgeDays 设置备份文件最长保留天数，0 表示不按时间清理
func WithMaxAgeDays(days int) Option {
	return func(c *config) { c.MaxAgeDays = days }
}

// WithCompress 设置是否对备份文件做 gzip 压缩
func WithCompress(compress bool) Option {
	return func(c *config) { c.Compress = compress }
}

// WithLocalTime 设置备份文件名是否使用本地时间
func WithLocalTime(local bool) Option {
	return func(c *config) { c.LocalTime = local }
}

// lumberjackRotator 基于 lumberjack 的 Rotator 实现
type lumberjackRotator struct {
	logger *lumberjack.Logger
	closed atomic.Bool
}

var _ Rotator = (*lumberjackRotator)(nil)

// NewLumberjack 创建基于 lumberjack 的日志轮转器
//
// 文件路径会被规范化为绝对路径，父目录不存在时自动创建（权限 0750）。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := config{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   DefaultCompress,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	path, err := filepath.Abs(filepath.Clean(filename))
	if err != nil {
		return nil, fmt.Errorf("xrotate: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("xrotate: create log dir: %w", err)
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		},
	}, nil
}

func (c *config) validate() error {
	if c.MaxSizeMB <= 0 || c.MaxSizeMB > maxSizeMBLimit {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, c.MaxSizeMB, maxSizeMBLimit)
	}
	if c.MaxBackups < 0 || c.MaxBackups > maxBackupsLimit {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, c.MaxBackups, maxBackupsLimit)
	}
	if c.MaxAgeDays < 0 || c.MaxAgeDays > maxAgeDaysLimit {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, c.MaxAgeDays, maxAgeDaysLimit)
	}
	if c.MaxBackups == 0 && c.MaxAgeDays == 0 {
		return fmt.Errorf("%w: MaxBackups and MaxAgeDays cannot both be 0", ErrNoCleanupPolicy)
	}
	return nil
}

// Write 实现 io.Writer
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}

	n, err := r.logger.Write(p)
	if err != nil {
		// 设计决策: Write 通过 closed 前置检查后，Close 可能在 logger.Write
		// 执行期间完成。后置检查确保调用者始终得到 ErrClosed 而非底层 I/O 错误。
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, err
	}
	return n, nil
}

// Close 实现 io.Closer
//
// 关闭后 Write 和 Rotate 返回 [ErrClosed]，重复 Close 也返回 [ErrClosed]。
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

// Rotate 手动触发轮转
func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		if r.closed.Load() {
			return ErrClosed
		}
		return err
	}
	return nil
}
