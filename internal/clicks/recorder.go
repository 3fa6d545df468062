// Package clicks implements asynchronous click accounting. Resolved
// visits are enqueued to a bounded queue and applied by a small worker
// pool, so accounting never adds latency to the redirect path. A full
// queue drops the click; the redirect itself is never affected.
package clicks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultQueueSize    = 1024
	defaultWorkers      = 4
	defaultWriteTimeout = 5 * time.Second
	defaultDrainTimeout = 10 * time.Second
)

// URLRepository is the storage dependency of the recorder. RegisterClick
// must increment the click counter atomically in the store.
type URLRepository interface {
	RegisterClick(ctx context.Context, shortCode string, accessedAt time.Time) error
}

// Event is a single resolved visit awaiting accounting.
type Event struct {
	ShortCode  string
	AccessedAt time.Time
}

type Option func(*Recorder)

func WithQueueSize(n int) Option {
	return func(r *Recorder) {
		r.queue = make(chan Event, n)
	}
}

func WithWorkers(n int) Option {
	return func(r *Recorder) {
		r.workers = n
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.writeTimeout = d
	}
}

func WithDrainTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.drainTimeout = d
	}
}

// Recorder accepts click events from request handlers and applies them
// to storage in the background.
type Recorder struct {
	repo         URLRepository
	logger       *slog.Logger
	queue        chan Event
	workers      int
	writeTimeout time.Duration
	drainTimeout time.Duration

	nowFunc func() time.Time
}

func NewRecorder(repo URLRepository, logger *slog.Logger, opts ...Option) *Recorder {
	r := &Recorder{
		repo:         repo,
		logger:       logger,
		queue:        make(chan Event, defaultQueueSize),
		workers:      defaultWorkers,
		writeTimeout: defaultWriteTimeout,
		drainTimeout: defaultDrainTimeout,
		nowFunc:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Record enqueues a click for the given short code. It never blocks:
// if the queue is full the click is dropped and logged, and Record
// returns false. A lost click is an accepted degradation, a delayed
// redirect is not.
func (r *Recorder) Record(shortCode string) bool {
	ev := Event{
		ShortCode:  shortCode,
		AccessedAt: r.nowFunc().UTC(),
	}

	select {
	case r.queue <- ev:
		return true
	default:
		r.logger.Warn("click queue full, dropping click",
			slog.String("short_code", shortCode))
		return false
	}
}

// Run starts the worker pool and blocks until ctx is cancelled. On
// cancellation the workers drain whatever is left in the queue, bounded
// by the drain timeout, before Run returns.
func (r *Recorder) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	wg.Add(r.workers)
	for i := 0; i < r.workers; i++ {
		go func() {
			defer wg.Done()
			r.work(ctx)
		}()
	}

	wg.Wait()
	return nil
}

func (r *Recorder) work(ctx context.Context) {
	for {
		select {
		case ev := <-r.queue:
			r.apply(ev)
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

func (r *Recorder) apply(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.repo.RegisterClick(ctx, ev.ShortCode, ev.AccessedAt); err != nil {
		r.logger.Error("failed to register click",
			slog.String("short_code", ev.ShortCode),
			slog.Any("err", err))
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), r.drainTimeout)
	defer cancel()

	for {
		select {
		case ev := <-r.queue:
			if ctx.Err() != nil {
				r.logger.Warn("drain timeout exceeded, dropping click",
					slog.String("short_code", ev.ShortCode))
				continue
			}
			if err := r.repo.RegisterClick(ctx, ev.ShortCode, ev.AccessedAt); err != nil {
				r.logger.Error("failed to register click",
					slog.String("short_code", ev.ShortCode),
					slog.Any("err", err))
			}
		default:
			return
		}
	}
}
