package lease

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores leases in a local database file, for single-host runs of the CLI.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open lease db: %w", err)
	}
	// sqlite serializes writers; a single connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create lease table: %w", err)
	}
	logger.Info("lease.sqlite.ready", "dsn", dsn)
	return &SQLite{db: db, logger: logger}, nil
}

func (s *SQLite) Acquire(ctx context.Context, jobID, holder string, ttl time.Duration) (bool, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO job_leases (job_id, holder, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (job_id) DO UPDATE
		SET holder = excluded.holder, expires_at = excluded.expires_at
		WHERE job_leases.expires_at < ? OR job_leases.holder = excluded.holder`,
		jobID, holder, now.Add(ttl).UnixNano(), now.UnixNano())
	if err != nil {
		s.logger.Error("lease.acquire.failed", "job_id", jobID, "error", err)
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	s.logger.Debug("lease.acquire", "job_id", jobID, "holder", holder, "acquired", n == 1)
	return n == 1, nil
}

func (s *SQLite) Release(ctx context.Context, jobID, holder string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM job_leases WHERE job_id = ? AND holder = ?`, jobID, holder); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
