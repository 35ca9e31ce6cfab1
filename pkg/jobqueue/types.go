package jobqueue

import (
	"encoding/json"
	"time"
)

// DefaultQueueName is the queue name used when no queue is specified.
const DefaultQueueName = "default"

// Status represents the state of a job. A job is a member of exactly one
// state collection at any observable instant.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusDelayed   Status = "delayed"
)

// Statuses lists all job states in a stable order, used for stats and
// full-queue operations.
var Statuses = []Status{StatusWaiting, StatusActive, StatusCompleted, StatusFailed, StatusDelayed}

// Valid checks if the status is one of the five known states.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusActive, StatusCompleted, StatusFailed, StatusDelayed:
		return true
	}
	return false
}

// Job represents a single unit of deferred work.
//
// Priority is immutable once the job is first enqueued: retried jobs pass
// through the delayed set (scored by due time) and re-enter waiting at their
// original priority. Each timestamp is set exactly once at the corresponding
// transition and never cleared. Error holds the last failure message and is
// only ever overwritten by a later failure.
type Job struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Data        json.RawMessage `json:"data,omitempty"`
	Status      Status          `json:"status"`
	Priority    int             `json:"priority"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Delay       time.Duration   `json:"delay"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	FailedAt    *time.Time      `json:"failed_at,omitempty"`
}

// Stats holds the cardinality of each state collection for one queue.
type Stats struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Delayed   int64 `json:"delayed"`
	Total     int64 `json:"total"`
}

// Clock abstracts wall-clock time so scheduling behaviour can be tested
// deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
