package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerQueue_ProcessesAllJobs(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	q := NewWorkerQueue(func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen[job.Path] = true
		if job.Path == "bad.pdf" {
			return errors.New("boom")
		}
		return nil
	}, quietLogger(), WithWorkers(3), WithQueueSize(2))

	paths := []string{"a.pdf", "b.png", "c.tif", "bad.pdf", "d.jpg"}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), Job{Path: p}); err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if len(seen) != len(paths) {
		t.Errorf("expected %d jobs handled, got %d", len(paths), len(seen))
	}
	processed, failed := q.Stats()
	if processed != 4 || failed != 1 {
		t.Errorf("stats = %d processed, %d failed", processed, failed)
	}
}

func TestWorkerQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewWorkerQueue(func(context.Context, Job) error { return nil }, quietLogger())
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	if err := q.Enqueue(context.Background(), Job{Path: "late.pdf"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed, got %v", err)
	}
}

func TestWorkerQueue_HandlerTimeout(t *testing.T) {
	errs := make(chan error, 1)
	q := NewWorkerQueue(func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		errs <- ctx.Err()
		return ctx.Err()
	}, quietLogger(), WithWorkers(1), WithProcessTimeout(10*time.Millisecond))

	if err := q.Enqueue(context.Background(), Job{Path: "slow.pdf"}); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-errs:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler never timed out")
	}
	q.Shutdown(context.Background())
}
