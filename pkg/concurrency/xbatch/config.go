package xbatch

import (
	"fmt"
	"time"
)

// Config 单次批处理作业的配置
type Config struct {
	// BatchSize 每批条目数，必须 ≥ 1，末批允许不足。
	BatchSize int `koanf:"batch_size" json:"batch_size" yaml:"batch_size"`

	// InterBatchDelay 相邻批次之间的停顿时长，0 表示不停顿。
	// 停顿期间响应取消。
	InterBatchDelay time.Duration `koanf:"inter_batch_delay" json:"inter_batch_delay" yaml:"inter_batch_delay"`
}

// DefaultConfig 返回默认批处理配置
func DefaultConfig() Config {
	return Config{
		BatchSize:       10,
		InterBatchDelay: 0,
	}
}

// Validate 校验批处理配置
func (c Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be at least 1, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.InterBatchDelay < 0 {
		return fmt.Errorf("%w: inter_batch_delay cannot be negative, got %v", ErrInvalidConfig, c.InterBatchDelay)
	}
	return nil
}
