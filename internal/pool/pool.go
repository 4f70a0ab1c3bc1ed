// Package pool implements a bounded admission pool: a variable set of worker
// goroutines fed by a bounded queue, with a configurable policy for
// submissions that arrive while both are full.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/congo-pay/walletops/internal/metrics"
)

var (
	// ErrExecution marks failures that did not come from the task itself:
	// cancellation while queued or running, or a panic.
	ErrExecution = errors.New("execution failed")

	// ErrOverloaded is returned under the reject policy when no worker or
	// queue slot is available.
	ErrOverloaded = errors.New("pool overloaded")

	// ErrPoolClosed is returned for submissions after Close.
	ErrPoolClosed = errors.New("pool closed")
)

// Policy decides what happens to a submission when the queue is full and
// the pool already runs MaxWorkers.
type Policy int

const (
	// CallerRuns executes the task on the submitting goroutine.
	CallerRuns Policy = iota
	// Reject fails the submission with ErrOverloaded.
	Reject
)

// Task is one unit of work. Its error is handed back to the submitter as is.
type Task func(ctx context.Context) error

// Config sizes the pool.
type Config struct {
	MinWorkers  int
	MaxWorkers  int
	IdleTimeout time.Duration
	QueueSize   int
	Policy      Policy
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		MinWorkers:  10,
		MaxWorkers:  100,
		IdleTimeout: 60 * time.Second,
		QueueSize:   1000,
		Policy:      CallerRuns,
	}
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers    int   `json:"workers"`
	Active     int64 `json:"active"`
	Queued     int   `json:"queued"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	CallerRuns int64 `json:"caller_runs"`
	Rejected   int64 `json:"rejected"`
}

type job struct {
	ctx      context.Context
	task     Task
	queuedAt time.Time
	done     chan error
}

// Pool runs tasks on a bounded set of workers.
type Pool struct {
	cfg     Config
	queue   chan *job
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	workers int
	closed  bool
	wg      sync.WaitGroup

	active     atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
	callerRuns atomic.Int64
	rejected   atomic.Int64
}

// New creates a pool. Workers are started lazily on submission.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Pool {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	if cfg.MinWorkers < 0 {
		cfg.MinWorkers = 0
	}
	if cfg.MinWorkers > cfg.MaxWorkers {
		cfg.MinWorkers = cfg.MaxWorkers
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultConfig().IdleTimeout
	}
	return &Pool{
		cfg:     cfg,
		queue:   make(chan *job, cfg.QueueSize),
		logger:  logger,
		metrics: m,
	}
}

// Submit hands task to the pool and waits for it to finish. The task's own
// error is returned unchanged. If ctx ends first, Submit returns an
// ErrExecution wrapping ctx.Err(); a task that had not started yet is then
// never started.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrExecution, err)
	}

	j := &job{ctx: ctx, task: task, queuedAt: time.Now(), done: make(chan error, 1)}

	accepted, err := p.dispatch(j)
	if err != nil {
		return err
	}
	if !accepted {
		switch p.cfg.Policy {
		case Reject:
			p.rejected.Add(1)
			p.metrics.IncRejected()
			return ErrOverloaded
		default:
			p.callerRuns.Add(1)
			p.metrics.IncCallerRuns()
			p.logger.Debug("pool saturated, running task on caller")
			p.run(j)
			return <-j.done
		}
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrExecution, ctx.Err())
	}
}

// dispatch places j on a new or existing worker. It reports false when the
// pool is saturated.
func (p *Pool) dispatch(j *job) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, ErrPoolClosed
	}
	defer p.publish()

	if p.workers < p.cfg.MinWorkers {
		p.spawn(j)
		return true, nil
	}

	select {
	case p.queue <- j:
		if p.workers == 0 {
			p.spawn(nil)
		}
		return true, nil
	default:
	}

	if p.workers < p.cfg.MaxWorkers {
		p.spawn(j)
		return true, nil
	}
	return false, nil
}

// spawn starts a worker; p.mu must be held.
func (p *Pool) spawn(first *job) {
	p.workers++
	p.wg.Add(1)
	go p.worker(first)
}

func (p *Pool) worker(first *job) {
	defer p.wg.Done()

	if first != nil {
		p.run(first)
	}

	for {
		idle := time.NewTimer(p.cfg.IdleTimeout)
		select {
		case j, ok := <-p.queue:
			idle.Stop()
			if !ok {
				p.exit()
				return
			}
			p.run(j)
		case <-idle.C:
			if p.retire() {
				return
			}
		}
	}
}

// retire lets an idle worker exit while the pool is above MinWorkers. The
// last worker stays if work is still queued.
func (p *Pool) retire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.workers <= p.cfg.MinWorkers {
		return false
	}
	if p.workers == 1 && len(p.queue) > 0 {
		return false
	}
	p.workers--
	p.publish()
	return true
}

func (p *Pool) exit() {
	p.mu.Lock()
	p.workers--
	p.publish()
	p.mu.Unlock()
}

// run executes j and always delivers exactly one value on j.done.
func (p *Pool) run(j *job) {
	if err := j.ctx.Err(); err != nil {
		p.failed.Add(1)
		j.done <- fmt.Errorf("%w: %w", ErrExecution, err)
		return
	}

	p.metrics.ObserveQueueWait(time.Since(j.queuedAt))
	p.metrics.SetPoolActive(p.active.Add(1))
	defer func() { p.metrics.SetPoolActive(p.active.Add(-1)) }()

	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			p.metrics.IncPanics()
			p.logger.Error("task panicked", "panic", fmt.Sprint(r))
			j.done <- fmt.Errorf("%w: panic: %v", ErrExecution, r)
		}
	}()

	err := j.task(j.ctx)
	if err != nil {
		p.failed.Add(1)
	} else {
		p.completed.Add(1)
	}
	j.done <- err
}

// publish mirrors the current sizes into metrics; p.mu must be held.
func (p *Pool) publish() {
	p.metrics.UpdatePool(p.workers, int(p.active.Load()), len(p.queue))
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()
	return Stats{
		Workers:    workers,
		Active:     p.active.Load(),
		Queued:     len(p.queue),
		Completed:  p.completed.Load(),
		Failed:     p.failed.Load(),
		CallerRuns: p.callerRuns.Load(),
		Rejected:   p.rejected.Load(),
	}
}

// Close stops accepting work, lets workers drain the queue and waits for them
// or for ctx.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pool shutdown: %w", ctx.Err())
	}
}
