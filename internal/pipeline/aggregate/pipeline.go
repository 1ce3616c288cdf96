package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/textract-sheets/constants"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/export"
	"github.com/joseph-ayodele/textract-sheets/internal/lease"
	"github.com/joseph-ayodele/textract-sheets/internal/ocr"
	"github.com/joseph-ayodele/textract-sheets/internal/storage"
)

type Pipeline struct {
	OCR      ocr.Client
	Store    storage.Store
	Exporter *export.Service
	Lease    lease.Lease
	Poller   *Poller
	Cfg      Config
	Log      *slog.Logger
}

type Config struct {
	Prefix   string
	LeaseTTL time.Duration
}

// Result summarizes one aggregation. Skipped means another run holds the job's lease.
type Result struct {
	JobID   string
	Status  constants.JobStatus
	Key     string
	Pages   int
	Lines   int
	Bytes   int
	Skipped bool
}

func NewPipeline(client ocr.Client, store storage.Store, exporter *export.Service, l lease.Lease, poller *Poller, cfg Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if l == nil {
		l = lease.Noop{}
	}
	if poller == nil {
		poller = &Poller{Interval: 5 * time.Second, Log: log}
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 15 * time.Minute
	}
	return &Pipeline{OCR: client, Store: store, Exporter: exporter, Lease: l, Poller: poller, Cfg: cfg, Log: log}
}

// Run waits for the job, gathers every result page, and writes the
// rendered file in one upload. Nothing is written unless the job SUCCEEDED.
func (p *Pipeline) Run(ctx context.Context, jobID string) (Result, error) {
	start := time.Now()
	ctx = common.WithJobID(ctx, jobID)
	log := common.LoggerFromContext(ctx, p.Log).With("job_id", jobID)
	ctx = common.WithLogger(ctx, log)
	res := Result{JobID: jobID}

	holder := common.RequestIDFromContext(ctx)
	if holder == "" {
		holder = uuid.NewString()
	}
	acquired, err := p.Lease.Acquire(ctx, jobID, holder, p.Cfg.LeaseTTL)
	if err != nil {
		return res, common.NewAppError(common.KindStorageFailure, "acquire job lease", err)
	}
	if !acquired {
		log.Warn("aggregate.lease.held", "holder", holder)
		res.Skipped = true
		return res, nil
	}
	defer func() {
		if err := p.Lease.Release(context.WithoutCancel(ctx), jobID, holder); err != nil {
			log.Warn("aggregate.lease.release_failed", "error", err)
		}
	}()

	job, first, err := p.Poller.Wait(ctx, p.OCR, jobID)
	res.Status = job.Status
	if err != nil {
		log.Error("aggregate.poll.failed", "error", err)
		return res, err
	}

	pages, err := ocr.CollectPages(ctx, p.OCR, jobID, first)
	if err != nil {
		log.Error("aggregate.fetch.failed", "error", err)
		return res, fmt.Errorf("collect results for job %s: %w", jobID, err)
	}
	pt := ocr.Flatten(pages)
	res.Pages = pt.Len()
	res.Lines = pt.LineCount()
	log.Info("aggregate.flatten.ok", "responses", len(pages), "pages", res.Pages, "lines", res.Lines)

	artifact, err := p.Exporter.Export(ctx, p.Cfg.Prefix, jobID, pt)
	if err != nil {
		log.Error("aggregate.render.failed", "error", err)
		return res, err
	}
	if err := p.Store.Put(ctx, artifact.Key, artifact.Body, artifact.ContentType); err != nil {
		log.Error("aggregate.upload.failed", "key", artifact.Key, "error", err)
		if common.KindOf(err) == common.KindUnknown {
			err = common.NewAppError(common.KindStorageFailure, "upload result", err)
		}
		return res, err
	}

	res.Key = artifact.Key
	res.Bytes = len(artifact.Body)
	log.Info("aggregate.ok",
		"key", res.Key,
		"bytes", res.Bytes,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
