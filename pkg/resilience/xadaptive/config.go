package xadaptive

import (
	"fmt"
	"time"
)

// Tuning 自适应调参配置。
//
// 控制反馈环的评估窗口、触发阈值与缩放系数。
// 零值不可用，请从 DefaultTuning 出发按需覆盖。
type Tuning struct {
	// AdjustmentInterval 两次调整评估之间的最小壁钟间隔。
	AdjustmentInterval time.Duration `koanf:"adjustment_interval" json:"adjustment_interval" yaml:"adjustment_interval"`

	// MinSamples 一次评估所需的最小样本数（成功+失败）。
	// 样本不足时窗口顺延，避免小样本噪声触发调整。
	MinSamples int `koanf:"min_samples" json:"min_samples" yaml:"min_samples"`

	// HighErrorThreshold 错误率高于该值时收缩速率与容量。
	HighErrorThreshold float64 `koanf:"high_error_threshold" json:"high_error_threshold" yaml:"high_error_threshold"`

	// LowErrorThreshold 错误率低于该值且当前低于原始上限时逐步恢复。
	LowErrorThreshold float64 `koanf:"low_error_threshold" json:"low_error_threshold" yaml:"low_error_threshold"`

	// DampingFactor 收缩时的乘法系数，(0, 1)。
	DampingFactor float64 `koanf:"damping_factor" json:"damping_factor" yaml:"damping_factor"`

	// RecoveryFactor 恢复时的乘法系数，> 1。
	RecoveryFactor float64 `koanf:"recovery_factor" json:"recovery_factor" yaml:"recovery_factor"`

	// MinFactor 相对原始配置的下限系数，(0, 1]。
	// 速率与容量永不低于 原始值 × MinFactor（容量至少为 1）。
	MinFactor float64 `koanf:"min_factor" json:"min_factor" yaml:"min_factor"`
}

// DefaultTuning 返回默认调参配置。
func DefaultTuning() Tuning {
	return Tuning{
		AdjustmentInterval: 60 * time.Second,
		MinSamples:         10,
		HighErrorThreshold: 0.2,
		LowErrorThreshold:  0.05,
		DampingFactor:      0.8,
		RecoveryFactor:     1.1,
		MinFactor:          0.1,
	}
}

// Validate 校验调参配置。
func (t Tuning) Validate() error {
	if t.AdjustmentInterval <= 0 {
		return fmt.Errorf("%w: adjustment_interval must be positive, got %v", ErrInvalidTuning, t.AdjustmentInterval)
	}
	if t.MinSamples < 1 {
		return fmt.Errorf("%w: min_samples must be at least 1, got %d", ErrInvalidTuning, t.MinSamples)
	}
	if t.HighErrorThreshold <= 0 || t.HighErrorThreshold > 1 {
		return fmt.Errorf("%w: high_error_threshold must be in (0, 1], got %v", ErrInvalidTuning, t.HighErrorThreshold)
	}
	if t.LowErrorThreshold < 0 || t.LowErrorThreshold >= t.HighErrorThreshold {
		return fmt.Errorf("%w: low_error_threshold must be in [0, high), got %v", ErrInvalidTuning, t.LowErrorThreshold)
	}
	if t.DampingFactor <= 0 || t.DampingFactor >= 1 {
		return fmt.Errorf("%w: damping_factor must be in (0, 1), got %v", ErrInvalidTuning, t.DampingFactor)
	}
	if t.RecoveryFactor <= 1 {
		return fmt.Errorf("%w: recovery_factor must be greater than 1, got %v", ErrInvalidTuning, t.RecoveryFactor)
	}
	if t.MinFactor <= 0 || t.MinFactor > 1 {
		return fmt.Errorf("%w: min_factor must be in (0, 1], got %v", ErrInvalidTuning, t.MinFactor)
	}
	return nil
}
