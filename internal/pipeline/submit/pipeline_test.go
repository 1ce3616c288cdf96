package submit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/entity"
	"github.com/joseph-ayodele/textract-sheets/internal/testutil"
	"github.com/joseph-ayodele/textract-sheets/internal/trigger"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		OutputBucket: "textract-out",
		OutputPrefix: "raw",
		TopicARN:     "arn:aws:sns:us-east-1:123:jobs",
		RoleARN:      "arn:aws:iam::123:role/textract",
	}
}

func TestPipeline_Run(t *testing.T) {
	up := trigger.Upload{Bucket: "docs", Key: "upload/report.pdf"}

	t.Run("starts job and publishes creation response", func(t *testing.T) {
		fake := &testutil.FakeOCR{JobID: "job-42"}
		pub := &testutil.RecordingPublisher{}
		p := NewPipeline(fake, pub, testConfig(), quietLogger())

		created, err := p.Run(context.Background(), up)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created.JobID != "job-42" {
			t.Errorf("expected job-42, got %s", created.JobID)
		}

		started := fake.Started[0]
		if started.Bucket != "docs" || started.Key != "upload/report.pdf" {
			t.Errorf("unexpected source: %+v", started)
		}
		if started.OutputBucket != "textract-out" || started.OutputPrefix != "raw" {
			t.Errorf("unexpected output location: %+v", started)
		}
		if started.NotifyTopicARN != "" {
			t.Error("service-side notification should be off by default")
		}

		if len(pub.Messages) != 1 || pub.Subjects[0] != Subject {
			t.Fatalf("expected one message with subject %q, got %v", Subject, pub.Subjects)
		}
		var msg entity.JobCreated
		if err := json.Unmarshal(pub.Messages[0], &msg); err != nil {
			t.Fatalf("message is not JSON: %v", err)
		}
		if msg.JobID != "job-42" || msg.ResponseMetadata.HTTPStatusCode != 200 {
			t.Errorf("unexpected message: %+v", msg)
		}
	})

	t.Run("non-200 start is rejected and nothing published", func(t *testing.T) {
		fake := &testutil.FakeOCR{JobID: "job-42", HTTPStatus: 202}
		pub := &testutil.RecordingPublisher{}
		p := NewPipeline(fake, pub, testConfig(), quietLogger())

		_, err := p.Run(context.Background(), up)
		if common.KindOf(err) != common.KindExternalServiceRejected {
			t.Errorf("expected rejected kind, got %v", err)
		}
		if len(pub.Messages) != 0 {
			t.Error("expected no publish on failed creation")
		}
	})

	t.Run("start error propagates", func(t *testing.T) {
		fake := &testutil.FakeOCR{StartErr: common.NewAppError(common.KindExternalServiceRejected, "unsupported document", nil)}
		p := NewPipeline(fake, &testutil.RecordingPublisher{}, testConfig(), quietLogger())
		if _, err := p.Run(context.Background(), up); common.KindOf(err) != common.KindExternalServiceRejected {
			t.Errorf("expected rejected kind, got %v", err)
		}
	})

	t.Run("publish failure is reported", func(t *testing.T) {
		pubErr := common.NewAppError(common.KindExternalServiceTransient, "sns throttled", errors.New("throttled"))
		p := NewPipeline(&testutil.FakeOCR{JobID: "j"}, &testutil.RecordingPublisher{Err: pubErr}, testConfig(), quietLogger())
		if _, err := p.Run(context.Background(), up); !errors.Is(err, pubErr) {
			t.Errorf("expected publish error, got %v", err)
		}
	})

	t.Run("notify on completion passes channel", func(t *testing.T) {
		cfg := testConfig()
		cfg.NotifyOnCompletion = true
		fake := &testutil.FakeOCR{JobID: "j"}
		p := NewPipeline(fake, &testutil.RecordingPublisher{}, cfg, quietLogger())
		if _, err := p.Run(context.Background(), up); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fake.Started[0].NotifyRoleARN != cfg.RoleARN {
			t.Errorf("expected role arn on start input, got %+v", fake.Started[0])
		}
	})
}

func TestPipeline_RunAll(t *testing.T) {
	t.Run("no uploads is a no-op", func(t *testing.T) {
		fake := &testutil.FakeOCR{JobID: "j"}
		p := NewPipeline(fake, &testutil.RecordingPublisher{}, testConfig(), quietLogger())
		out, err := p.RunAll(context.Background(), nil)
		if err != nil || len(out) != 0 {
			t.Errorf("expected no jobs, got %v, %v", out, err)
		}
		if len(fake.Started) != 0 {
			t.Error("expected no OCR calls")
		}
	})

	t.Run("submits each upload", func(t *testing.T) {
		fake := &testutil.FakeOCR{JobID: "j"}
		pub := &testutil.RecordingPublisher{}
		p := NewPipeline(fake, pub, testConfig(), quietLogger())
		out, err := p.RunAll(context.Background(), []trigger.Upload{
			{Bucket: "docs", Key: "a.pdf"},
			{Bucket: "docs", Key: "b.pdf"},
		})
		if err != nil || len(out) != 2 {
			t.Fatalf("expected 2 jobs, got %d (%v)", len(out), err)
		}
		if len(pub.Messages) != 2 {
			t.Errorf("expected 2 messages, got %d", len(pub.Messages))
		}
	})
}

func TestConfigFrom(t *testing.T) {
	c := &common.Config{}
	c.OCR.OutputBucket = "out"
	c.OCR.OutputPrefix = "raw"
	c.Notify.TopicARN = "topic"
	c.Notify.RoleARN = "role"
	got := ConfigFrom(c)
	if got.OutputBucket != "out" || got.OutputPrefix != "raw" || got.TopicARN != "topic" || got.RoleARN != "role" {
		t.Errorf("unexpected config: %+v", got)
	}
}
