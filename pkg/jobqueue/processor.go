package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
)

type (
	// Processor executes jobs of one declared type. Type selects the jobs
	// the processor handles; Process runs one job and returns nil on
	// success. Any returned error counts as a failed attempt.
	Processor interface {
		Type() string
		Process(ctx context.Context, job *Job) error
	}

	// TypedProcessorFunc handles a job whose payload decodes into T.
	TypedProcessorFunc[T any] func(ctx context.Context, job *Job, payload T) error

	// RawProcessorFunc handles a job without payload decoding.
	RawProcessorFunc func(ctx context.Context, job *Job) error
)

// NewProcessor builds a Processor for jobType that decodes the job payload
// into T before invoking the handler.
func NewProcessor[T any](jobType string, handler TypedProcessorFunc[T]) Processor {
	return &typedProcessor[T]{
		jobType: jobType,
		handler: handler,
	}
}

// NewRawProcessor builds a Processor for jobType that receives the job with
// its payload untouched.
func NewRawProcessor(jobType string, handler RawProcessorFunc) Processor {
	return &rawProcessor{
		jobType: jobType,
		handler: handler,
	}
}

type typedProcessor[T any] struct {
	jobType string
	handler TypedProcessorFunc[T]
}

func (p *typedProcessor[T]) Type() string {
	return p.jobType
}

func (p *typedProcessor[T]) Process(ctx context.Context, job *Job) error {
	var payload T
	if len(job.Data) > 0 {
		if err := json.Unmarshal(job.Data, &payload); err != nil {
			return fmt.Errorf("failed to decode payload of job %s: %w", job.ID, err)
		}
	}
	return p.handler(ctx, job, payload)
}

type rawProcessor struct {
	jobType string
	handler RawProcessorFunc
}

func (p *rawProcessor) Type() string {
	return p.jobType
}

func (p *rawProcessor) Process(ctx context.Context, job *Job) error {
	return p.handler(ctx, job)
}
