// Package jobqueue provides a priority job queue with deferred execution,
// bounded exponential-backoff retries, stale-worker recovery, and
// backlog-bounded housekeeping on top of a generic ordered key-value store.
//
// The package is organised around four main components:
//
//   - OrderedStore — the persistence contract: five ordered collections per
//     queue (waiting, active, completed, failed, delayed) holding job ids,
//     plus an id-indexed record collection. Redis, PostgreSQL, and in-memory
//     implementations ship with the package.
//   - Processor   — the handler registered for one job type.
//   - Queue       — one named queue's engine: intake, the polling/processing
//     loop, the delayed-job promoter, periodic cleanup, and statistics.
//   - Registry    — a named-singleton factory sharing one store connection
//     across queues, passed around explicitly instead of living in a global.
//
// # Job lifecycle
//
// A job moves waiting → active → completed on success. On failure it moves
// active → delayed with a backoff-computed due time while attempts remain,
// or active → failed permanently once MaxAttempts is reached. Due delayed
// jobs are promoted back into waiting at their original priority. Those are
// the only transitions; in particular there is no direct active → waiting.
//
// # Usage
//
//	store := jobqueue.NewMemoryStore()
//	q, err := jobqueue.New("reports", store, jobqueue.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//
//	type ReportPayload struct {
//	    BarID string `json:"bar_id"`
//	}
//
//	_ = q.RegisterProcessor(jobqueue.NewProcessor("report",
//	    func(ctx context.Context, job *jobqueue.Job, p ReportPayload) error {
//	        return buildReport(ctx, p.BarID)
//	    }))
//
//	id, err := q.AddJob(ctx, "report", ReportPayload{BarID: "x"},
//	    jobqueue.WithPriority(10),
//	    jobqueue.WithDelay(time.Minute),
//	)
//
//	_ = q.Start(ctx)
//	defer q.Stop()
//
// For production use, back the queue with Redis:
//
//	client, _ := redis.Connect(ctx, cfg) // pkg/redis
//	store, _ := jobqueue.NewRedisStore(client)
//
// # Deployment preconditions
//
// The waiting → active move is not an atomic claim. Run a single engine per
// queue name per store, or accept that concurrent engines may occasionally
// process the same job twice. The processing-timeout race decides a job's
// outcome early but does not cancel the handler goroutine; handlers must
// tolerate their side effects outliving a timed-out job.
//
// # Error Handling
//
// Package-level sentinel errors (e.g. ErrJobNotFound, ErrProcessorNotFound)
// can be checked with errors.Is. Store errors are wrapped and surfaced to
// API callers unretried; errors inside the periodic loops are logged and the
// next tick proceeds.
package jobqueue
