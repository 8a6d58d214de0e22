package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func TestPool_RunsAllTasks(t *testing.T) {
	p := New(Config{Workers: 3, QueueSize: 100}, zap.NewNop())
	p.Start(context.Background())

	var n atomic.Int32
	for i := 0; i < 50; i++ {
		if err := p.Submit("count", func(context.Context) { n.Add(1) }); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if got := n.Load(); got != 50 {
		t.Fatalf("want 50 tasks run, got %d", got)
	}
	if err := p.Submit("late", func(context.Context) {}); !errors.Is(err, ErrStopped) {
		t.Fatalf("want ErrStopped, got %v", err)
	}
}

func TestPool_QueueFull(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := New(Config{Workers: 1, QueueSize: 1, Registerer: reg}, zap.NewNop())
	p.Start(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	_ = p.Submit("block", func(context.Context) {
		close(started)
		<-release
	})
	<-started
	if err := p.Submit("queued", func(context.Context) {}); err != nil {
		t.Fatalf("second submit should be queued: %v", err)
	}
	if err := p.Submit("overflow", func(context.Context) {}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("want ErrQueueFull, got %v", err)
	}
	if n := testutil.ToFloat64(p.dropped); n != 1 {
		t.Fatalf("want 1 dropped, got %v", n)
	}

	close(release)
	p.Stop(context.Background())
}

func TestPool_RecoversPanics(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 4}, zap.NewNop())
	p.Start(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	_ = p.Submit("boom", func(context.Context) { panic("boom") })
	_ = p.Submit("after", func(context.Context) { wg.Done() })
	wg.Wait()

	p.Stop(context.Background())
	if n := testutil.ToFloat64(p.done.WithLabelValues("boom", "panic")); n != 1 {
		t.Fatalf("want 1 panic recorded, got %v", n)
	}
}

func TestPool_StopCancelsStuckTasks(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1}, zap.NewNop())
	p.Start(context.Background())

	canceled := make(chan struct{})
	_ = p.Submit("stuck", func(ctx context.Context) {
		<-ctx.Done()
		close(canceled)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Stop returns only after the canceled task has finished.
	select {
	case <-canceled:
	default:
		t.Fatal("Stop returned before the canceled task exited")
	}
}

func TestPool_StopReportsTasksIgnoringCancel(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1}, zap.NewNop())
	p.grace = 20 * time.Millisecond
	p.Start(context.Background())

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	_ = p.Submit("stubborn", func(context.Context) {
		close(started)
		<-release
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Stop(ctx); !errors.Is(err, ErrStillRunning) {
		t.Fatalf("want ErrStillRunning, got %v", err)
	}
}
