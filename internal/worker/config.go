package worker

import (
	"fmt"
	"time"
)

// Config controls the background job worker pool.
type Config struct {
	// Concurrency is how many worker goroutines poll and process jobs
	// in parallel.
	Concurrency int

	// PollInterval is the sleep between polls when the queue is empty.
	PollInterval time.Duration

	// JobTimeout bounds a single job execution. The job's context is
	// canceled when it elapses and the job is marked failed.
	JobTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for in-flight jobs before
	// giving up on a graceful shutdown.
	ShutdownTimeout time.Duration

	// StaleJobThreshold is the age at which a 'running' job is presumed
	// orphaned by a crashed worker and recovered on startup.
	StaleJobThreshold time.Duration
}

// DefaultConfig returns the production defaults. Deployment overrides the
// polling knobs through environment configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        5 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

// Validate rejects configurations that would starve or thrash the queue.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Concurrency > 100 {
		return fmt.Errorf("concurrency too high (max 100), got %d", c.Concurrency)
	}
	if c.PollInterval < 1*time.Second {
		return fmt.Errorf("poll interval must be at least 1 second, got %v", c.PollInterval)
	}
	if c.JobTimeout < 1*time.Second {
		return fmt.Errorf("job timeout must be at least 1 second, got %v", c.JobTimeout)
	}
	if c.ShutdownTimeout < 1*time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	if c.StaleJobThreshold < 1*time.Minute {
		return fmt.Errorf("stale job threshold must be at least 1 minute, got %v", c.StaleJobThreshold)
	}
	return nil
}
