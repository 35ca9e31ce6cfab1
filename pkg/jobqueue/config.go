package jobqueue

import (
	"fmt"
	"time"
)

// Config holds the tunables of one named queue. It is immutable after the
// queue engine is constructed.
type Config struct {
	DefaultPriority   int           `env:"JOBQUEUE_DEFAULT_PRIORITY" envDefault:"0"`
	MaxAttempts       int           `env:"JOBQUEUE_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay        time.Duration `env:"JOBQUEUE_RETRY_DELAY" envDefault:"5s"`
	MaxRetryDelay     time.Duration `env:"JOBQUEUE_MAX_RETRY_DELAY" envDefault:"5m"`
	BackoffMultiplier float64       `env:"JOBQUEUE_BACKOFF_MULTIPLIER" envDefault:"2"`
	ProcessingTimeout time.Duration `env:"JOBQUEUE_PROCESSING_TIMEOUT" envDefault:"30s"`
	PollInterval      time.Duration `env:"JOBQUEUE_POLL_INTERVAL" envDefault:"1s"`
	CleanupInterval   time.Duration `env:"JOBQUEUE_CLEANUP_INTERVAL" envDefault:"1m"`
	MaxCompletedJobs  int64         `env:"JOBQUEUE_MAX_COMPLETED_JOBS" envDefault:"1000"`
	MaxFailedJobs     int64         `env:"JOBQUEUE_MAX_FAILED_JOBS" envDefault:"1000"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		DefaultPriority:   0,
		MaxAttempts:       3,
		RetryDelay:        5 * time.Second,
		MaxRetryDelay:     5 * time.Minute,
		BackoffMultiplier: 2,
		ProcessingTimeout: 30 * time.Second,
		PollInterval:      time.Second,
		CleanupInterval:   time.Minute,
		MaxCompletedJobs:  1000,
		MaxFailedJobs:     1000,
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("%w: retry delay must be positive, got %s", ErrInvalidConfig, c.RetryDelay)
	}
	if c.MaxRetryDelay < c.RetryDelay {
		return fmt.Errorf("%w: max retry delay %s is below retry delay %s", ErrInvalidConfig, c.MaxRetryDelay, c.RetryDelay)
	}
	if c.BackoffMultiplier < 1 {
		return fmt.Errorf("%w: backoff multiplier must be at least 1, got %g", ErrInvalidConfig, c.BackoffMultiplier)
	}
	if c.ProcessingTimeout <= 0 {
		return fmt.Errorf("%w: processing timeout must be positive, got %s", ErrInvalidConfig, c.ProcessingTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("%w: cleanup interval must be positive, got %s", ErrInvalidConfig, c.CleanupInterval)
	}
	if c.MaxCompletedJobs < 0 || c.MaxFailedJobs < 0 {
		return fmt.Errorf("%w: retention limits cannot be negative", ErrInvalidConfig)
	}
	return nil
}
