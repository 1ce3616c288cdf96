package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/joseph-ayodele/textract-sheets/constants"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/entity"
	"github.com/joseph-ayodele/textract-sheets/internal/ocr"
)

var errStillRunning = errors.New("job in progress")

// Poller re-queries job status at a fixed interval until it is terminal.
type Poller struct {
	Interval    time.Duration
	MaxAttempts uint          // 0 = until terminal or Timeout
	Timeout     time.Duration // 0 = caller's context only
	Timer       retry.Timer   // nil = real time
	Log         *slog.Logger
}

// PollerFrom builds a Poller from the poll section of the app config.
func PollerFrom(c common.PollConfig, log *slog.Logger) *Poller {
	return &Poller{Interval: c.Interval, MaxAttempts: c.MaxAttempts, Timeout: c.Timeout, Log: log}
}

// Wait polls until the job leaves IN_PROGRESS. The returned Job is the last
// status observed, even on error. The first result page comes back only when
// the job SUCCEEDED.
func (p *Poller) Wait(ctx context.Context, client ocr.Client, jobID string) (entity.Job, entity.DetectionPage, error) {
	log := common.LoggerFromContext(ctx, p.Log)
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var (
		job     = entity.Job{ID: jobID}
		last    entity.DetectionPage
		lastErr error
		polls   uint
	)
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(p.MaxAttempts),
		retry.Delay(p.Interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.WrapContextErrorWithLastError(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errStillRunning) || common.KindOf(err) == common.KindExternalServiceTransient
		}),
		retry.OnRetry(func(n uint, err error) {
			if errors.Is(err, errStillRunning) {
				log.Info("aggregate.poll.waiting", "job_id", jobID, "attempt", n+1, "interval", p.Interval.String())
				return
			}
			log.Warn("aggregate.poll.retry", "job_id", jobID, "attempt", n+1, "error", err)
		}),
	}
	if p.Timer != nil {
		opts = append(opts, retry.WithTimer(p.Timer))
	}

	err := retry.Do(func() error {
		polls++
		page, err := client.GetTextDetection(ctx, jobID, "")
		if err != nil {
			lastErr = err
			return err
		}
		lastErr = nil
		job.Status, job.StatusMessage = page.JobStatus, page.StatusMessage
		if !page.JobStatus.Terminal() {
			return errStillRunning
		}
		last = page
		return nil
	}, opts...)

	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		if lastErr != nil {
			return job, entity.DetectionPage{}, common.Errorf(common.KindExternalServiceTransient, err,
				"stopped polling job %s after %d polls (last error: %v)", jobID, polls, lastErr)
		}
		return job, entity.DetectionPage{}, common.Errorf(common.KindExternalServiceTransient, err,
			"stopped polling job %s after %d polls", jobID, polls)
	case errors.Is(err, errStillRunning):
		return job, entity.DetectionPage{}, common.Errorf(common.KindExternalServiceTransient, common.ErrPollExhausted,
			"job %s still %s after %d polls", jobID, constants.JobStatusInProgress, polls)
	default:
		return job, entity.DetectionPage{}, err
	}

	if job.Status != constants.JobStatusSucceeded {
		log.Error("aggregate.poll.job_failed", "job_id", jobID, "status", string(job.Status), "status_message", job.StatusMessage)
		msg := "textract job %s failed with status %s"
		args := []any{jobID, job.Status}
		if job.StatusMessage != "" {
			msg += " (%s)"
			args = append(args, job.StatusMessage)
		}
		return job, entity.DetectionPage{}, common.Errorf(common.KindExternalServiceRejected, common.ErrJobFailed, msg, args...)
	}
	log.Info("aggregate.poll.done", "job_id", jobID, "polls", polls)
	return job, last, nil
}
