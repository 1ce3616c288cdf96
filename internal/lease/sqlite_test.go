package lease

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "leases.db")
	l, err := OpenSQLite(context.Background(), dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open sqlite lease: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// acquireContract runs the lease semantics every SQL driver must share.
// open returns a lease with no rows in it.
func acquireContract(t *testing.T, open func(t *testing.T) Lease) {
	ctx := context.Background()

	t.Run("second holder is refused", func(t *testing.T) {
		l := open(t)
		ok, err := l.Acquire(ctx, "job-1", "a", time.Minute)
		if err != nil || !ok {
			t.Fatalf("first acquire: ok=%v err=%v", ok, err)
		}
		ok, err = l.Acquire(ctx, "job-1", "b", time.Minute)
		if err != nil {
			t.Fatalf("second acquire: %v", err)
		}
		if ok {
			t.Error("expected second holder to be refused")
		}
	})

	t.Run("same holder renews", func(t *testing.T) {
		l := open(t)
		if ok, _ := l.Acquire(ctx, "job-1", "a", time.Minute); !ok {
			t.Fatal("expected first acquire")
		}
		if ok, _ := l.Acquire(ctx, "job-1", "a", time.Minute); !ok {
			t.Error("expected renewal by same holder")
		}
	})

	t.Run("expired lease is taken over", func(t *testing.T) {
		l := open(t)
		if ok, _ := l.Acquire(ctx, "job-1", "a", -time.Second); !ok {
			t.Fatal("expected first acquire")
		}
		if ok, _ := l.Acquire(ctx, "job-1", "b", time.Minute); !ok {
			t.Error("expected takeover of expired lease")
		}
	})

	t.Run("release frees the job", func(t *testing.T) {
		l := open(t)
		_, _ = l.Acquire(ctx, "job-1", "a", time.Minute)
		if err := l.Release(ctx, "job-1", "a"); err != nil {
			t.Fatalf("release: %v", err)
		}
		if ok, _ := l.Acquire(ctx, "job-1", "b", time.Minute); !ok {
			t.Error("expected acquire after release")
		}
	})

	t.Run("jobs are independent", func(t *testing.T) {
		l := open(t)
		_, _ = l.Acquire(ctx, "job-1", "a", time.Minute)
		if ok, _ := l.Acquire(ctx, "job-2", "b", time.Minute); !ok {
			t.Error("expected lease on a different job")
		}
	})
}

func TestSQLite_Acquire(t *testing.T) {
	acquireContract(t, func(t *testing.T) Lease { return openTestSQLite(t) })
}

func TestOpen(t *testing.T) {
	l, err := Open(context.Background(), common.LeaseConfig{Driver: common.LeaseDriverNone}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := l.Acquire(context.Background(), "j", "h", time.Second); !ok {
		t.Error("noop lease must always grant")
	}

	if _, err := Open(context.Background(), common.LeaseConfig{Driver: "redis"}, nil); err == nil {
		t.Error("expected error for unknown driver")
	}
}
