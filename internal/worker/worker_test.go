package worker

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	base := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Concurrency = 0 },
			wantErr: true,
		},
		{
			name:    "concurrency over cap",
			mutate:  func(c *Config) { c.Concurrency = 101 },
			wantErr: true,
		},
		{
			name:    "sub-second poll interval",
			mutate:  func(c *Config) { c.PollInterval = 250 * time.Millisecond },
			wantErr: true,
		},
		{
			name:    "sub-second job timeout",
			mutate:  func(c *Config) { c.JobTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "sub-second shutdown timeout",
			mutate:  func(c *Config) { c.ShutdownTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "stale threshold under a minute",
			mutate:  func(c *Config) { c.StaleJobThreshold = 30 * time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsPermanent(t *testing.T) {
	cause := errors.New("company no longer exists")

	if !IsPermanent(NewPermanentError(cause)) {
		t.Error("expected wrapped permanent error to be permanent")
	}
	if !IsPermanent(fmt.Errorf("handling job: %w", NewPermanentError(cause))) {
		t.Error("expected permanence to survive further wrapping")
	}
	if IsPermanent(cause) {
		t.Error("plain error should not be permanent")
	}
	if IsPermanent(nil) {
		t.Error("nil should not be permanent")
	}
}

func TestPermanentError_Unwrap(t *testing.T) {
	cause := errors.New("bad payload")
	err := NewPermanentError(cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the wrapped cause")
	}
	if err.Error() != "bad payload" {
		t.Errorf("expected message of the cause, got %q", err.Error())
	}
}
