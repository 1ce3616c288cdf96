package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/joseph-ayodele/textract-sheets/internal/pipeline/aggregate"
	"github.com/joseph-ayodele/textract-sheets/internal/pipeline/submit"
	"github.com/joseph-ayodele/textract-sheets/internal/results"
	"github.com/joseph-ayodele/textract-sheets/internal/trigger"
)

// Response messages.
const (
	MsgNoRecords     = "No records to process."
	MsgJobSubmitted  = "Job created and SNS message sent successfully!"
	MsgFileUploaded  = "File uploaded successfully!"
	msgErrorPrefix   = "An error occurred: "
	msgListErrPrefix = "Error: "
)

// MsgLeaseHeld is returned when another run owns the job.
func MsgLeaseHeld(jobID string) string {
	return fmt.Sprintf("Aggregation already running for job %s.", jobID)
}

type SubmitHandler struct {
	pipeline *submit.Pipeline
	logger   *slog.Logger
}

func NewSubmitHandler(p *submit.Pipeline, logger *slog.Logger) *SubmitHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitHandler{pipeline: p, logger: logger}
}

// Handle starts one OCR job per uploaded object.
func (h *SubmitHandler) Handle(ctx context.Context, evt events.S3Event) (events.APIGatewayProxyResponse, error) {
	ctx, log := begin(ctx, h.logger, "submitter")
	start := time.Now()

	uploads, err := trigger.ParseUploads(evt)
	if err != nil {
		log.Error("submit.event.invalid", "error", err)
		return failure(msgErrorPrefix, err), nil
	}
	if len(uploads) == 0 {
		log.Info("submit.event.empty")
		return ok(MsgNoRecords), nil
	}

	jobs, err := h.pipeline.RunAll(ctx, uploads)
	if err != nil {
		log.Error("submit.failed", "submitted", len(jobs), "records", len(uploads), "error", err)
		return failure(msgErrorPrefix, err), nil
	}
	log.Info("submit.ok", "jobs", len(jobs), "elapsed_ms", time.Since(start).Milliseconds())
	return ok(MsgJobSubmitted), nil
}

type AggregateHandler struct {
	pipeline *aggregate.Pipeline
	logger   *slog.Logger
}

func NewAggregateHandler(p *aggregate.Pipeline, logger *slog.Logger) *AggregateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateHandler{pipeline: p, logger: logger}
}

// Handle aggregates the job named by each notification record, in order.
func (h *AggregateHandler) Handle(ctx context.Context, evt events.SNSEvent) (events.APIGatewayProxyResponse, error) {
	ctx, log := begin(ctx, h.logger, "aggregator")

	msgs, err := trigger.ParseJobMessages(evt)
	if err != nil {
		log.Error("aggregate.event.invalid", "error", err)
		return failure(msgErrorPrefix, err), nil
	}
	if len(msgs) == 0 {
		log.Info("aggregate.event.empty")
		return ok(MsgNoRecords), nil
	}

	var skipped []string
	for _, m := range msgs {
		res, err := h.pipeline.Run(ctx, m.JobID)
		if err != nil {
			return failure(msgErrorPrefix, err), nil
		}
		if res.Skipped {
			skipped = append(skipped, m.JobID)
		}
	}
	if len(skipped) == len(msgs) {
		return ok(MsgLeaseHeld(skipped[len(skipped)-1])), nil
	}
	return ok(MsgFileUploaded), nil
}

type ListHandler struct {
	svc    *results.Service
	logger *slog.Logger
}

func NewListHandler(svc *results.Service, logger *slog.Logger) *ListHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListHandler{svc: svc, logger: logger}
}

// Handle returns presigned links to every result file. The request is ignored.
func (h *ListHandler) Handle(ctx context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, log := begin(ctx, h.logger, "lister")

	listing, err := h.svc.List(ctx)
	if err != nil {
		log.Error("list.failed", "error", err)
		return failure(msgListErrPrefix, err), nil
	}
	if listing.Status != results.StatusReady {
		return ok(listing.Message), nil
	}
	return ok(listing.URLs), nil
}
