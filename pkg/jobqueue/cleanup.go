package jobqueue

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/barview/backend/pkg/logger"
)

// staleJobError is recorded on jobs recovered from the active set; the
// failure is indistinguishable from an ordinary processing failure and still
// consumes one attempt.
const staleJobError = "job stale in active set, worker presumed crashed or hung"

// RunCleanup performs one housekeeping pass: trims the completed and failed
// backlogs down to their configured retention, oldest first, and pushes jobs
// stuck in the active set past twice the processing timeout through the
// ordinary failure path. The cleanup loop calls this once per cleanup
// interval.
func (q *Queue) RunCleanup(ctx context.Context) error {
	if err := q.trimBacklog(ctx, StatusCompleted, q.cfg.MaxCompletedJobs); err != nil {
		return err
	}
	if err := q.trimBacklog(ctx, StatusFailed, q.cfg.MaxFailedJobs); err != nil {
		return err
	}
	return q.recoverStale(ctx)
}

// trimBacklog drops the oldest entries of a terminal collection once it
// exceeds its retention limit, records included.
func (q *Queue) trimBacklog(ctx context.Context, status Status, retain int64) error {
	key := q.keys.state(status)
	n, err := q.store.Card(ctx, key)
	if err != nil {
		return err
	}
	if n <= retain {
		return nil
	}

	trimmed, err := q.store.TrimLowest(ctx, key, n-retain)
	if err != nil {
		return err
	}
	for _, id := range trimmed {
		if err := q.store.DeleteRecord(ctx, q.keys.records(), id); err != nil {
			return err
		}
	}

	q.logger.InfoContext(ctx, "trimmed job backlog",
		slog.String("status", string(status)),
		slog.Int("removed", len(trimmed)),
		slog.Int64("retained", retain))

	return nil
}

// recoverStale fails every active job whose entry time is older than twice
// the processing timeout. Such jobs are presumed abandoned by their worker;
// failing them consumes an attempt, so a recovered job is either rescheduled
// with backoff or lands permanently in the failed set. It is never silently
// dropped.
func (q *Queue) recoverStale(ctx context.Context) error {
	cutoff := q.clock.Now().Add(-2 * q.cfg.ProcessingTimeout)
	ids, err := q.store.RangeByScore(ctx, q.keys.state(StatusActive), math.Inf(-1), timeScore(cutoff))
	if err != nil {
		return err
	}

	for _, id := range ids {
		job, err := q.loadJob(ctx, id)
		if err != nil {
			if errors.Is(err, ErrJobNotFound) {
				if _, err := q.store.Remove(ctx, q.keys.state(StatusActive), id); err != nil {
					return err
				}
				continue
			}
			return err
		}

		q.logger.WarnContext(ctx, "recovering stale active job",
			logger.JobID(id),
			logger.JobType(job.Type))

		if err := q.failJob(ctx, job, staleJobError); err != nil {
			return err
		}
	}
	return nil
}
