package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/entity"
	"github.com/joseph-ayodele/textract-sheets/internal/notify"
	"github.com/joseph-ayodele/textract-sheets/internal/ocr"
	"github.com/joseph-ayodele/textract-sheets/internal/trigger"
)

// Subject is the notification subject for a created job.
const Subject = "Textract Job Created"

type Pipeline struct {
	OCR      ocr.Client
	Notifier notify.Publisher
	Cfg      Config
	Log      *slog.Logger
}

type Config struct {
	OutputBucket       string
	OutputPrefix       string
	NotifyOnCompletion bool
	TopicARN           string
	RoleARN            string
}

// ConfigFrom picks the submitter's settings out of the app config.
func ConfigFrom(c *common.Config) Config {
	return Config{
		OutputBucket:       c.OCR.OutputBucket,
		OutputPrefix:       c.OCR.OutputPrefix,
		NotifyOnCompletion: c.OCR.NotifyOnCompletion,
		TopicARN:           c.Notify.TopicARN,
		RoleARN:            c.Notify.RoleARN,
	}
}

func NewPipeline(client ocr.Client, notifier notify.Publisher, cfg Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{OCR: client, Notifier: notifier, Cfg: cfg, Log: log}
}

// Run starts a text-detection job for the uploaded object and publishes
// the creation response. It does not retry.
func (p *Pipeline) Run(ctx context.Context, up trigger.Upload) (entity.JobCreated, error) {
	log := common.LoggerFromContext(ctx, p.Log)
	log.Info("submit.start", "bucket", up.Bucket, "key", up.Key)

	in := ocr.StartInput{
		Bucket:       up.Bucket,
		Key:          up.Key,
		OutputBucket: p.Cfg.OutputBucket,
		OutputPrefix: p.Cfg.OutputPrefix,
	}
	if p.Cfg.NotifyOnCompletion {
		in.NotifyTopicARN = p.Cfg.TopicARN
		in.NotifyRoleARN = p.Cfg.RoleARN
	}

	created, err := p.OCR.StartTextDetection(ctx, in)
	if err != nil {
		return entity.JobCreated{}, err
	}
	if created.ResponseMetadata.HTTPStatusCode != http.StatusOK {
		log.Warn("submit.start.rejected", "http_status", created.ResponseMetadata.HTTPStatusCode)
		return created, common.Errorf(common.KindExternalServiceRejected, nil,
			"job creation failed with http status %d", created.ResponseMetadata.HTTPStatusCode)
	}
	log.Info("submit.job.created", "job_id", created.JobID)

	body, err := json.Marshal(created)
	if err != nil {
		return created, fmt.Errorf("encode job notification: %w", err)
	}
	msgID, err := p.Notifier.Publish(ctx, Subject, body)
	if err != nil {
		return created, err
	}
	log.Info("submit.notify.ok", "job_id", created.JobID, "message_id", msgID)
	return created, nil
}

// RunAll submits every upload in order and stops at the first failure.
func (p *Pipeline) RunAll(ctx context.Context, uploads []trigger.Upload) ([]entity.JobCreated, error) {
	out := make([]entity.JobCreated, 0, len(uploads))
	for _, up := range uploads {
		created, err := p.Run(ctx, up)
		if err != nil {
			return out, err
		}
		out = append(out, created)
	}
	return out, nil
}
