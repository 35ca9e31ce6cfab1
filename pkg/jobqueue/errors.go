package jobqueue

import "errors"

// Common errors
var (
	// ErrStoreNil is returned when a nil ordered store is provided
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrQueueNameEmpty is returned when a queue is created without a name
	ErrQueueNameEmpty = errors.New("queue name cannot be empty")

	// ErrJobNotFound is returned when a job id matches no record
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyExists is returned when adding a job with an id that is already present
	ErrJobAlreadyExists = errors.New("job with this id already exists")

	// ErrProcessorNotFound is returned when a job's type has no registered processor
	ErrProcessorNotFound = errors.New("no processor registered for job type")

	// ErrProcessorNil is returned when registering a nil processor
	ErrProcessorNil = errors.New("processor cannot be nil")

	// ErrProcessingTimeout is recorded when a processor outlives the processing timeout
	ErrProcessingTimeout = errors.New("job processing timed out")

	// ErrInvalidStatus is returned when an unknown status is requested
	ErrInvalidStatus = errors.New("invalid job status")

	// ErrAlreadyStarted is returned when Start is called on a running queue
	ErrAlreadyStarted = errors.New("queue already started")

	// ErrNotStarted is returned when Stop is called on a queue that is not running
	ErrNotStarted = errors.New("queue not started")

	// ErrPayloadMarshal is returned when payload marshaling fails
	ErrPayloadMarshal = errors.New("failed to marshal job payload to JSON")

	// ErrInvalidConfig is returned when queue configuration violates an invariant
	ErrInvalidConfig = errors.New("invalid queue configuration")
)
