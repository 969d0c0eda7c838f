package xthrottle

import (
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{RequestsPerSecond: 5, BurstLimit: 5, MaxQueueDepth: 10}, false},
		{"zero queue depth is valid", Config{RequestsPerSecond: 1, BurstLimit: 1, MaxQueueDepth: 0}, false},
		{"fractional rate is valid", Config{RequestsPerSecond: 0.5, BurstLimit: 1, MaxQueueDepth: 0}, false},
		{"zero rate", Config{RequestsPerSecond: 0, BurstLimit: 1, MaxQueueDepth: 0}, true},
		{"negative rate", Config{RequestsPerSecond: -1, BurstLimit: 1, MaxQueueDepth: 0}, true},
		{"zero burst", Config{RequestsPerSecond: 1, BurstLimit: 0, MaxQueueDepth: 0}, true},
		{"negative queue depth", Config{RequestsPerSecond: 1, BurstLimit: 1, MaxQueueDepth: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("validation error should wrap ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}
