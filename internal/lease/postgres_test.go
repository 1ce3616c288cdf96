package lease

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
)

// LEASE_TEST_POSTGRES_DSN points at a scratch database; the job_leases table is wiped per subtest.
func TestPostgres_Acquire(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("LEASE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LEASE_TEST_POSTGRES_DSN not set")
	}

	acquireContract(t, func(t *testing.T) Lease {
		t.Helper()
		ctx := context.Background()
		l, err := OpenPostgres(ctx, PostgresConfig{DSN: dsn}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err != nil {
			t.Fatalf("open postgres lease: %v", err)
		}
		if _, err := l.pool.Exec(ctx, `DELETE FROM job_leases`); err != nil {
			t.Fatalf("reset lease table: %v", err)
		}
		t.Cleanup(func() { _ = l.Close() })
		return l
	})
}

func TestOpenPostgres_BadDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), PostgresConfig{DSN: "postgres://user@localhost:notaport/db"}, nil)
	if err == nil {
		t.Fatal("expected parse error")
	}
}
