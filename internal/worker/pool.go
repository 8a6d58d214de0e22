// Package worker runs independent units of work on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	ErrQueueFull    = errors.New("worker queue full")
	ErrStopped      = errors.New("worker pool stopped")
	ErrStillRunning = errors.New("worker tasks still running after cancel")
)

// cancelGrace is how long Stop waits for tasks after canceling them.
const cancelGrace = 2 * time.Second

// Task is one unit of work. ctx is canceled when the pool stops.
type Task func(ctx context.Context)

type job struct {
	name string
	fn   Task
}

// Config sizes a Pool. Zero values pick defaults.
type Config struct {
	Workers    int
	QueueSize  int
	Registerer prometheus.Registerer // optional
}

// Pool is a bounded queue drained by a fixed number of workers.
// Tasks run in no particular order; a panicking task is logged and
// does not take its worker down.
type Pool struct {
	log     *zap.Logger
	workers int
	grace   time.Duration

	mu      sync.RWMutex
	queue   chan job
	stopped bool

	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup

	done    *prometheus.CounterVec
	dropped prometheus.Counter
}

func New(cfg Config, log *zap.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	p := &Pool{
		log:     log,
		workers: cfg.Workers,
		grace:   cancelGrace,
		queue:   make(chan job, cfg.QueueSize),
		done: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_tasks_total",
			Help: "Tasks finished by the worker pool.",
		}, []string{"task", "status"}), // status: ok, panic
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "worker_tasks_dropped_total",
			Help: "Tasks rejected because the queue was full.",
		}),
	}
	if cfg.Registerer != nil {
		cfg.Registerer.MustRegister(p.done, p.dropped)
	}
	return p
}

// Start launches the workers. It must be called once.
func (p *Pool) Start(ctx context.Context) {
	p.runCtx, p.runCancel = context.WithCancel(ctx)
	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func(idx int) {
			defer p.wg.Done()
			p.loop(idx)
		}(i)
	}
	p.log.Info("worker pool started", zap.Int("workers", p.workers), zap.Int("queue", cap(p.queue)))
}

func (p *Pool) loop(idx int) {
	for j := range p.queue {
		p.run(idx, j)
	}
}

func (p *Pool) run(idx int, j job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.done.WithLabelValues(j.name, "panic").Inc()
			p.log.Error("panic in task",
				zap.String("task", j.name),
				zap.Int("worker", idx),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()
	j.fn(p.runCtx)
	p.done.WithLabelValues(j.name, "ok").Inc()
	p.log.Debug("task done", zap.String("task", j.name), zap.Duration("took", time.Since(start)))
}

// Submit queues fn without blocking. name labels logs and metrics.
func (p *Pool) Submit(name string, fn Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.queue <- job{name: name, fn: fn}:
		return nil
	default:
		p.dropped.Inc()
		return ErrQueueFull
	}
}

// Stop refuses new tasks, lets queued ones drain and waits for the
// workers until ctx is done. It then cancels the tasks' context and
// waits a short grace period more. A nil error means every worker has
// exited; ErrStillRunning means some task ignored cancellation.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.log.Warn("worker pool stop timed out; canceling running tasks")
	}
	if p.runCancel != nil {
		p.runCancel()
	}

	t := time.NewTimer(p.grace)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		return ErrStillRunning
	}
}
