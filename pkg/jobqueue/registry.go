package jobqueue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/barview/backend/pkg/logger"
)

// Registry is an explicit named-singleton factory for queue engines sharing
// one store connection. Construct it once at process startup and pass it to
// every component that enqueues or manages jobs; there is no ambient global
// registry.
type Registry struct {
	store  OrderedStore
	opts   []Option
	logger *slog.Logger

	mu     sync.Mutex
	queues map[string]*Queue
}

// NewRegistry creates a registry on top of a shared ordered store. The given
// options are applied to every queue it creates.
func NewRegistry(store OrderedStore, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	options := &queueOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	return &Registry{
		store:  store,
		opts:   opts,
		logger: options.logger.With(logger.Component("jobqueue")),
		queues: make(map[string]*Queue),
	}, nil
}

// CreateQueue returns the existing engine registered under name, or
// constructs and registers a new one with the given configuration. The
// configuration of an already-registered queue is not changed.
func (r *Registry) CreateQueue(name string, cfg Config) (*Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q, ok := r.queues[name]; ok {
		return q, nil
	}

	q, err := New(name, r.store, cfg, r.opts...)
	if err != nil {
		return nil, err
	}
	r.queues[name] = q
	return q, nil
}

// GetQueue is a pure lookup by queue name.
func (r *Registry) GetQueue(name string) (*Queue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[name]
	return q, ok
}

// QueueNames returns the names of all registered queues.
func (r *Registry) QueueNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.queues))
	for name := range r.queues {
		names = append(names, name)
	}
	return names
}

// StartAll starts every registered queue. When any queue fails to start, the
// queues started so far are stopped again, so the registry is never left
// partially running.
func (r *Registry) StartAll(ctx context.Context) error {
	for _, q := range r.snapshot() {
		if err := q.Start(ctx); err != nil {
			if stopErr := r.StopAll(); stopErr != nil {
				return errors.Join(err, stopErr)
			}
			return err
		}
	}
	return nil
}

// StopAll stops every registered queue and waits for completion; used for
// graceful process shutdown. Queues that were never started are skipped.
func (r *Registry) StopAll() error {
	var g errgroup.Group
	for _, q := range r.snapshot() {
		q := q
		g.Go(func() error {
			if err := q.Stop(); err != nil && !errors.Is(err, ErrNotStarted) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.logger.Info("all queues stopped")
	return nil
}

func (r *Registry) snapshot() []*Queue {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Queue, 0, len(r.queues))
	for _, q := range r.queues {
		out = append(out, q)
	}
	return out
}
