// Package lease provides an optional per-job lock so two aggregator runs
// for the same job do not both poll and write.
package lease

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

// Lease grants exclusive, expiring ownership of a job id.
type Lease interface {
	// Acquire returns true when holder now owns jobID until ttl elapses.
	// An expired lease held by someone else is taken over.
	Acquire(ctx context.Context, jobID, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, jobID, holder string) error
	Close() error
}

// Noop always grants the lease.
type Noop struct{}

func (Noop) Acquire(context.Context, string, string, time.Duration) (bool, error) { return true, nil }
func (Noop) Release(context.Context, string, string) error                       { return nil }
func (Noop) Close() error                                                        { return nil }

// Open returns the lease backend named by cfg.Driver.
func Open(ctx context.Context, cfg common.LeaseConfig, logger *slog.Logger) (Lease, error) {
	switch cfg.Driver {
	case "", common.LeaseDriverNone:
		return Noop{}, nil
	case common.LeaseDriverPostgres:
		pg, err := OpenPostgres(ctx, PostgresConfig{DSN: cfg.DSN, DialTimeout: 3 * time.Second}, logger)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case common.LeaseDriverSQLite:
		lite, err := OpenSQLite(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unknown lease driver %q", cfg.Driver)
	}
}

const createTable = `CREATE TABLE IF NOT EXISTS job_leases (
	job_id     TEXT PRIMARY KEY,
	holder     TEXT NOT NULL,
	expires_at BIGINT NOT NULL
)`
