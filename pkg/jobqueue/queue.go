package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barview/backend/pkg/logger"
)

// Queue owns the lifecycle of one named job queue: it accepts jobs, runs the
// polling/processing loop and the periodic cleanup loop, and exposes
// statistics and administrative lookups.
//
// The move from waiting to active is a read-then-remove-then-insert sequence
// over separate store calls, not an atomic claim. Exactly-once processing is
// therefore only guaranteed when a single Queue instance per queue name
// writes to the store; two engines pointed at the same name can race to pick
// the same job.
type Queue struct {
	name   string
	cfg    Config
	store  OrderedStore
	keys   keys
	logger *slog.Logger
	clock  Clock

	mu         sync.RWMutex
	processors map[string]Processor

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a queue engine for the given name on top of an ordered store.
func New(name string, store OrderedStore, cfg Config, opts ...Option) (*Queue, error) {
	if name == "" {
		return nil, ErrQueueNameEmpty
	}
	if store == nil {
		return nil, ErrStoreNil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &queueOptions{
		logger: slog.Default(),
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Queue{
		name:  name,
		cfg:   cfg,
		store: store,
		keys:  newKeys(name),
		logger: options.logger.With(
			logger.Component("jobqueue"),
			logger.QueueName(name),
		),
		clock:      options.clock,
		processors: make(map[string]Processor),
	}, nil
}

// Name returns the queue name.
func (q *Queue) Name() string { return q.name }

// Config returns the queue configuration.
func (q *Queue) Config() Config { return q.cfg }

// RegisterProcessor registers the processor for its job type, replacing any
// previous registration. Job types are never validated at add time; a job
// whose type has no processor fails lazily when it is picked up.
func (q *Queue) RegisterProcessor(p Processor) error {
	if p == nil {
		return ErrProcessorNil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.processors[p.Type()] = p
	return nil
}

// RegisterProcessors registers multiple processors.
func (q *Queue) RegisterProcessors(ps ...Processor) error {
	for _, p := range ps {
		if err := q.RegisterProcessor(p); err != nil {
			return err
		}
	}
	return nil
}

// AddJob persists a new job and returns its id. The job lands in the delayed
// set when a start delay was requested, otherwise in the waiting set scored
// by priority.
func (q *Queue) AddJob(ctx context.Context, jobType string, data any, opts ...AddOption) (string, error) {
	options := &addOptions{}
	for _, opt := range opts {
		opt(options)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPayloadMarshal, err)
	}

	priority := q.cfg.DefaultPriority
	if options.priority != nil {
		priority = *options.priority
	}
	maxAttempts := q.cfg.MaxAttempts
	if options.maxAttempts != nil {
		maxAttempts = *options.maxAttempts
	}

	id := options.jobID
	if id == "" {
		id = uuid.NewString()
	} else {
		if _, exists, err := q.store.GetRecord(ctx, q.keys.records(), id); err != nil {
			return "", err
		} else if exists {
			return "", fmt.Errorf("%w: %s", ErrJobAlreadyExists, id)
		}
	}

	now := q.clock.Now()
	job := &Job{
		ID:          id,
		Type:        jobType,
		Data:        payload,
		Priority:    priority,
		Attempts:    0,
		MaxAttempts: maxAttempts,
		Delay:       options.delay,
		CreatedAt:   now,
	}

	status, score := StatusWaiting, float64(priority)
	if options.delay > 0 {
		status, score = StatusDelayed, timeScore(now.Add(options.delay))
	}
	job.Status = status

	if err := q.saveJob(ctx, job); err != nil {
		return "", err
	}
	if err := q.store.Add(ctx, q.keys.state(status), id, score); err != nil {
		return "", err
	}

	q.logger.InfoContext(ctx, "job added",
		logger.JobID(id),
		logger.JobType(jobType),
		slog.String("status", string(status)),
		slog.Int("priority", priority),
		slog.Duration("delay", options.delay))

	return id, nil
}

// GetJob returns the job with the given id, or ErrJobNotFound. This is an
// administrative point lookup, not a hot-path operation.
func (q *Queue) GetJob(ctx context.Context, id string) (*Job, error) {
	return q.loadJob(ctx, id)
}

// RemoveJob deletes the job with the given id while it is still in the
// waiting, active, or delayed set and reports whether a removal occurred.
// Completed and failed jobs are terminal history and are left in place.
func (q *Queue) RemoveJob(ctx context.Context, id string) (bool, error) {
	job, err := q.loadJob(ctx, id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}

	switch job.Status {
	case StatusWaiting, StatusActive, StatusDelayed:
	default:
		return false, nil
	}

	removed, err := q.store.Remove(ctx, q.keys.state(job.Status), id)
	if err != nil {
		return false, err
	}
	if removed {
		if err := q.store.DeleteRecord(ctx, q.keys.records(), id); err != nil {
			return true, err
		}
	}
	return removed, nil
}

// GetStats returns the cardinality of each state collection and their sum.
func (q *Queue) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	counts := map[Status]*int64{
		StatusWaiting:   &stats.Waiting,
		StatusActive:    &stats.Active,
		StatusCompleted: &stats.Completed,
		StatusFailed:    &stats.Failed,
		StatusDelayed:   &stats.Delayed,
	}
	for _, s := range Statuses {
		n, err := q.store.Card(ctx, q.keys.state(s))
		if err != nil {
			return Stats{}, err
		}
		*counts[s] = n
		stats.Total += n
	}
	return stats, nil
}

// GetJobs returns a rank-ordered slice of one state collection for
// administrative browsing; it has no side effects on job state. Ranks are
// ascending by score, so waiting jobs come lowest priority first, and the
// time-scored collections come oldest first.
func (q *Queue) GetJobs(ctx context.Context, status Status, start, stop int64) ([]*Job, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	ids, err := q.store.RangeByRank(ctx, q.keys.state(status), start, stop)
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, 0, len(ids))
	for _, id := range ids {
		job, err := q.loadJob(ctx, id)
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Clear drops all five state collections and the job records of the queue.
func (q *Queue) Clear(ctx context.Context) error {
	return q.store.Clear(ctx, q.keys.all()...)
}

// Start arms the processing loop and the cleanup loop. It returns
// ErrAlreadyStarted when the queue is already running.
func (q *Queue) Start(ctx context.Context) error {
	q.runMu.Lock()
	defer q.runMu.Unlock()

	if q.cancel != nil {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	q.wg.Add(2)
	go q.processLoop(loopCtx)
	go q.cleanupLoop(loopCtx)

	q.logger.InfoContext(ctx, "queue started",
		slog.Duration("poll_interval", q.cfg.PollInterval),
		slog.Duration("cleanup_interval", q.cfg.CleanupInterval))

	return nil
}

// Stop disarms both loops and waits for them to exit. It does not interrupt
// an in-flight processor invocation: "stopped" means no new ticks will start,
// not that no processor code is still running.
func (q *Queue) Stop() error {
	q.runMu.Lock()
	if q.cancel == nil {
		q.runMu.Unlock()
		return ErrNotStarted
	}
	cancel := q.cancel
	q.cancel = nil
	q.runMu.Unlock()

	cancel()
	q.wg.Wait()

	q.logger.Info("queue stopped")
	return nil
}

// Run starts the queue and returns a function suitable for errgroup.
func (q *Queue) Run(ctx context.Context) func() error {
	return func() error {
		if err := q.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return q.Stop()
	}
}

// processLoop drives promotion and processing once per poll interval. Errors
// are logged at the loop boundary and never stop the loop.
func (q *Queue) processLoop(ctx context.Context) {
	defer q.wg.Done()

	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()

	// Ticks run on an uncancellable context: stopping the queue stops
	// arming further ticks, it never aborts the in-flight tick's handler
	// or its outcome-recording store writes.
	tickCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.PromoteDelayed(tickCtx); err != nil {
				q.logger.ErrorContext(tickCtx, "failed to promote delayed jobs",
					logger.Error(err))
			}
			if err := q.ProcessNext(tickCtx); err != nil {
				q.logger.ErrorContext(tickCtx, "failed to process next job",
					logger.Error(err))
			}
		}
	}
}

// cleanupLoop runs housekeeping once per cleanup interval.
func (q *Queue) cleanupLoop(ctx context.Context) {
	defer q.wg.Done()

	ticker := time.NewTicker(q.cfg.CleanupInterval)
	defer ticker.Stop()

	tickCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.RunCleanup(tickCtx); err != nil {
				q.logger.ErrorContext(tickCtx, "cleanup failed",
					logger.Error(err))
			}
		}
	}
}

// ProcessNext picks the highest-priority waiting job, moves it to active, and
// runs it against the registered processor, racing the processing timeout. At
// most one job is processed per call. A missing processor and a timeout both
// take the ordinary failure path.
func (q *Queue) ProcessNext(ctx context.Context) error {
	id, ok, err := q.store.PeekHighest(ctx, q.keys.state(StatusWaiting))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	job, err := q.loadJob(ctx, id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			// Orphaned membership without a record; drop it.
			_, rmErr := q.store.Remove(ctx, q.keys.state(StatusWaiting), id)
			return rmErr
		}
		return err
	}

	if _, err := q.store.Remove(ctx, q.keys.state(StatusWaiting), id); err != nil {
		return err
	}

	now := q.clock.Now()
	job.Status = StatusActive
	job.ProcessedAt = &now
	if err := q.saveJob(ctx, job); err != nil {
		return err
	}
	if err := q.store.Add(ctx, q.keys.state(StatusActive), id, timeScore(now)); err != nil {
		return err
	}

	q.mu.RLock()
	proc, registered := q.processors[job.Type]
	q.mu.RUnlock()

	var procErr error
	if !registered {
		procErr = fmt.Errorf("%w: %q", ErrProcessorNotFound, job.Type)
	} else {
		procErr = q.invoke(ctx, proc, job)
	}

	if procErr != nil {
		return q.failJob(ctx, job, procErr.Error())
	}
	return q.completeJob(ctx, job)
}

// invoke races the processor against the processing timeout. When the timer
// wins, the job's outcome is decided as a timeout failure but the processor
// goroutine is not cancelled; it keeps running in the background and any side
// effects it eventually produces are not reconciled with the recorded
// outcome.
func (q *Queue) invoke(ctx context.Context, proc Processor, job *Job) error {
	done := make(chan error, 1)

	jobCopy := *job
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("processor panicked: %v", r)
			}
		}()
		done <- proc.Process(ctx, &jobCopy)
	}()

	timer := time.NewTimer(q.cfg.ProcessingTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrProcessingTimeout, q.cfg.ProcessingTimeout)
	}
}

// completeJob moves an active job into the completed set.
func (q *Queue) completeJob(ctx context.Context, job *Job) error {
	if _, err := q.store.Remove(ctx, q.keys.state(StatusActive), job.ID); err != nil {
		return err
	}

	now := q.clock.Now()
	job.Status = StatusCompleted
	job.CompletedAt = &now
	if err := q.saveJob(ctx, job); err != nil {
		return err
	}
	if err := q.store.Add(ctx, q.keys.state(StatusCompleted), job.ID, timeScore(now)); err != nil {
		return err
	}

	q.logger.InfoContext(ctx, "job completed",
		logger.JobID(job.ID),
		logger.JobType(job.Type),
		logger.Attempts(job.Attempts))

	return nil
}

// failJob records one failed attempt of an active job. While attempts remain
// the job is rescheduled into the delayed set with an exponential backoff;
// once the ceiling is reached it lands permanently in the failed set. The
// job's priority is left untouched so promotion can restore it verbatim.
func (q *Queue) failJob(ctx context.Context, job *Job, message string) error {
	if _, err := q.store.Remove(ctx, q.keys.state(StatusActive), job.ID); err != nil {
		return err
	}

	job.Attempts++
	job.Error = message
	now := q.clock.Now()

	if job.Attempts < job.MaxAttempts {
		backoff := q.backoffDelay(job.Attempts)
		job.Status = StatusDelayed
		job.Delay = backoff
		if err := q.saveJob(ctx, job); err != nil {
			return err
		}
		if err := q.store.Add(ctx, q.keys.state(StatusDelayed), job.ID, timeScore(now.Add(backoff))); err != nil {
			return err
		}

		q.logger.WarnContext(ctx, "job retry scheduled",
			logger.JobID(job.ID),
			logger.JobType(job.Type),
			logger.Attempts(job.Attempts),
			slog.Int("max_attempts", job.MaxAttempts),
			slog.Duration("backoff", backoff),
			slog.String("error", message))

		return nil
	}

	job.Status = StatusFailed
	job.FailedAt = &now
	if err := q.saveJob(ctx, job); err != nil {
		return err
	}
	if err := q.store.Add(ctx, q.keys.state(StatusFailed), job.ID, timeScore(now)); err != nil {
		return err
	}

	q.logger.ErrorContext(ctx, "job failed permanently",
		logger.JobID(job.ID),
		logger.JobType(job.Type),
		logger.Attempts(job.Attempts),
		slog.String("error", message))

	return nil
}

// PromoteDelayed moves every due delayed job back into the waiting set scored
// by its original priority, so retried jobs re-enter normal priority ordering
// rather than arrival order. A due job is promoted no earlier than its due
// time, but may be promoted arbitrarily later depending on the poll interval.
func (q *Queue) PromoteDelayed(ctx context.Context) error {
	now := q.clock.Now()
	ids, err := q.store.RangeByScore(ctx, q.keys.state(StatusDelayed), math.Inf(-1), timeScore(now))
	if err != nil {
		return err
	}

	for _, id := range ids {
		job, err := q.loadJob(ctx, id)
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				if _, err := q.store.Remove(ctx, q.keys.state(StatusDelayed), id); err != nil {
					return err
				}
				continue
			}
			return err
		}

		if _, err := q.store.Remove(ctx, q.keys.state(StatusDelayed), id); err != nil {
			return err
		}
		job.Status = StatusWaiting
		if err := q.saveJob(ctx, job); err != nil {
			return err
		}
		if err := q.store.Add(ctx, q.keys.state(StatusWaiting), id, float64(job.Priority)); err != nil {
			return err
		}

		q.logger.DebugContext(ctx, "delayed job promoted",
			logger.JobID(id),
			slog.Int("priority", job.Priority))
	}
	return nil
}

// backoffDelay computes the retry delay after the given number of failed
// attempts: min(RetryDelay * BackoffMultiplier^(attempts-1), MaxRetryDelay).
func (q *Queue) backoffDelay(attempts int) time.Duration {
	d := time.Duration(float64(q.cfg.RetryDelay) * math.Pow(q.cfg.BackoffMultiplier, float64(attempts-1)))
	if d > q.cfg.MaxRetryDelay || d <= 0 {
		d = q.cfg.MaxRetryDelay
	}
	return d
}

func (q *Queue) loadJob(ctx context.Context, id string) (*Job, error) {
	data, ok, err := q.store.GetRecord(ctx, q.keys.records(), id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return &job, nil
}

func (q *Queue) saveJob(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.ID, err)
	}
	return q.store.SetRecord(ctx, q.keys.records(), job.ID, data)
}

// timeScore renders a wall-clock instant as a collection score.
func timeScore(t time.Time) float64 {
	return float64(t.UnixMilli())
}
