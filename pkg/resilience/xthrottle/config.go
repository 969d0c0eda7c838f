package xthrottle

import "fmt"

// Config 控制器配置
type Config struct {
	// RequestsPerSecond 令牌补充速率（每秒），必须 > 0
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" koanf:"requests_per_second"`

	// BurstLimit 桶容量（突发上限），必须 >= 1
	BurstLimit int `json:"burst_limit" yaml:"burst_limit" koanf:"burst_limit"`

	// MaxQueueDepth 等待队列深度上限，必须 >= 0
	// 0 表示不排队：无令牌时新请求被立即拒绝
	MaxQueueDepth int `json:"max_queue_depth" yaml:"max_queue_depth" koanf:"max_queue_depth"`
}

// Validate 验证配置是否有效
func (c Config) Validate() error {
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests_per_second must be > 0, got %v",
			ErrInvalidConfig, c.RequestsPerSecond)
	}
	if c.BurstLimit < 1 {
		return fmt.Errorf("%w: burst_limit must be >= 1, got %d",
			ErrInvalidConfig, c.BurstLimit)
	}
	if c.MaxQueueDepth < 0 {
		return fmt.Errorf("%w: max_queue_depth must be >= 0, got %d",
			ErrInvalidConfig, c.MaxQueueDepth)
	}
	return nil
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 10,
		BurstLimit:        10,
		MaxQueueDepth:     100,
	}
}
