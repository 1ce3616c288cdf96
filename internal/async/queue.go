package async

import (
	"context"
	"time"
)

// Job is one local file waiting to be uploaded.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Handler processes one job. Errors are logged by the queue, not retried.
type Handler func(ctx context.Context, job Job) error
