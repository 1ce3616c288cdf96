package lease

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// Postgres stores leases in a job_leases table.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres creates a small pgx pool and ensures the lease table exists.
func OpenPostgres(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("lease.postgres.parse_failed", "error", err)
		return nil, fmt.Errorf("parse lease dsn: %w", err)
	}
	// one invocation holds at most one lease
	pc.MaxConns = 2
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "textract-sheets"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("lease.postgres.connect_failed", "error", err)
		return nil, fmt.Errorf("connect lease db: %w", err)
	}
	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create lease table: %w", err)
	}
	logger.Info("lease.postgres.ready")
	return &Postgres{pool: pool, logger: logger}, nil
}

func (p *Postgres) Acquire(ctx context.Context, jobID, holder string, ttl time.Duration) (bool, error) {
	now := time.Now()
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO job_leases (job_id, holder, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO UPDATE
		SET holder = EXCLUDED.holder, expires_at = EXCLUDED.expires_at
		WHERE job_leases.expires_at < $4 OR job_leases.holder = EXCLUDED.holder`,
		jobID, holder, now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		p.logger.Error("lease.acquire.failed", "job_id", jobID, "error", err)
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	ok := tag.RowsAffected() == 1
	p.logger.Debug("lease.acquire", "job_id", jobID, "holder", holder, "acquired", ok)
	return ok, nil
}

func (p *Postgres) Release(ctx context.Context, jobID, holder string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM job_leases WHERE job_id = $1 AND holder = $2`, jobID, holder); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
