package jobqueue

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Queue
type Option func(*queueOptions)

type queueOptions struct {
	logger *slog.Logger
	clock  Clock
}

// WithLogger sets the logger used for the queue's structured events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *queueOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(o *queueOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// AddOption is a functional option for the AddJob method
type AddOption func(*addOptions)

type addOptions struct {
	priority    *int
	maxAttempts *int
	delay       time.Duration
	jobID       string
}

// WithPriority sets the priority for the job; higher is processed first.
// The priority is fixed once the job is enqueued and survives retries.
func WithPriority(priority int) AddOption {
	return func(o *addOptions) {
		o.priority = &priority
	}
}

// WithMaxAttempts overrides the queue's attempt ceiling for this job.
func WithMaxAttempts(maxAttempts int) AddOption {
	return func(o *addOptions) {
		if maxAttempts >= 1 {
			o.maxAttempts = &maxAttempts
		}
	}
}

// WithDelay defers the first processing of the job by the given duration.
func WithDelay(delay time.Duration) AddOption {
	return func(o *addOptions) {
		if delay > 0 {
			o.delay = delay
		}
	}
}

// WithJobID sets an explicit job id instead of a generated one.
func WithJobID(id string) AddOption {
	return func(o *addOptions) {
		if id != "" {
			o.jobID = id
		}
	}
}
