// Package jobs runs fire-and-forget work, such as outbound mail, off the
// request path with bounded retries.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoHandler is returned by Enqueue for job types nobody registered.
var ErrNoHandler = errors.New("no handler registered for job type")

// Outcomes reported to Config.Observe.
const (
	OutcomeDone    = "done"
	OutcomeRetried = "retried"
	OutcomeDropped = "dropped"
)

type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

type Handler func(context.Context, Job) error

type Config struct {
	Workers    int
	BufferSize int
	// MaxRetries counts re-runs after the first failure.
	MaxRetries int
	// RetryDelay is the first backoff; it doubles per attempt up to maxBackoff.
	RetryDelay time.Duration
	Logger     *zap.Logger
	// Observe, when set, is told the outcome of every run.
	Observe func(jobType, outcome string)
}

const maxBackoff = 5 * time.Minute

// Queue fans jobs out to per-type handlers on a fixed set of goroutines.
// Jobs still buffered at Stop are discarded.
type Queue struct {
	name string
	cfg  Config
	log  *zap.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool

	pending chan Job
	workers sync.WaitGroup
	backoff sync.WaitGroup
}

func NewQueue(name string, cfg Config) *Queue {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 16 * cfg.Workers
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Observe == nil {
		cfg.Observe = func(string, string) {}
	}
	return &Queue{
		name:     name,
		cfg:      cfg,
		log:      cfg.Logger.With(zap.String("queue", name)),
		handlers: make(map[string]Handler),
		pending:  make(chan Job, cfg.BufferSize),
	}
}

// Register binds handler to jobType. Call it before Start.
func (q *Queue) Register(jobType string, handler Handler) {
	q.mu.Lock()
	q.handlers[jobType] = handler
	q.mu.Unlock()
}

// Start launches the workers. Calling it on a running queue does nothing.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	q.workers.Add(q.cfg.Workers)
	for i := 0; i < q.cfg.Workers; i++ {
		go q.work(q.ctx)
	}
	q.log.Info("queue started", zap.Int("workers", q.cfg.Workers), zap.Int("buffer", q.cfg.BufferSize))
}

// Stop cancels in-flight backoffs and waits for every goroutine to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.workers.Wait()
	q.backoff.Wait()
	q.log.Info("queue stopped", zap.Int("discarded", len(q.pending)))
}

// Enqueue buffers job, stamping an ID and enqueue time when missing. It
// blocks while the buffer is full and fails once the queue stops.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	ctx, running := q.ctx, q.running
	_, known := q.handlers[job.Type]
	q.mu.RUnlock()

	switch {
	case !running:
		return fmt.Errorf("queue %s is not running", q.name)
	case !known:
		return fmt.Errorf("%w: %s", ErrNoHandler, job.Type)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.pending <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	}
}

func (q *Queue) work(ctx context.Context) {
	defer q.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-q.pending:
			q.handle(ctx, job)
		}
	}
}

func (q *Queue) handle(ctx context.Context, job Job) {
	q.mu.RLock()
	run := q.handlers[job.Type]
	q.mu.RUnlock()

	err := run(ctx, job)
	if err == nil {
		q.cfg.Observe(job.Type, OutcomeDone)
		return
	}

	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt+1), zap.Error(err)}
	if job.Attempt >= q.cfg.MaxRetries {
		q.cfg.Observe(job.Type, OutcomeDropped)
		q.log.Error("job dropped after final attempt", fields...)
		return
	}
	q.cfg.Observe(job.Type, OutcomeRetried)
	delay := q.delay(job.Attempt)
	q.log.Warn("job failed, will retry", append(fields, zap.Duration("in", delay))...)

	job.Attempt++
	q.backoff.Add(1)
	go func() {
		defer q.backoff.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.cfg.Observe(job.Type, OutcomeDropped)
				q.log.Error("job lost on requeue", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}()
}

// delay returns RetryDelay * 2^attempt, capped.
func (q *Queue) delay(attempt int) time.Duration {
	d := q.cfg.RetryDelay
	for i := 0; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
