package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/joseph-ayodele/textract-sheets/constants"
	"github.com/joseph-ayodele/textract-sheets/internal/awsx"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/entity"
)

// Client is the slice of the OCR service the pipeline depends on.
type Client interface {
	StartTextDetection(ctx context.Context, in StartInput) (entity.JobCreated, error)
	GetTextDetection(ctx context.Context, jobID, nextToken string) (entity.DetectionPage, error)
}

// StartInput names the source object and where the service writes its raw output.
type StartInput struct {
	Bucket       string
	Key          string
	OutputBucket string
	OutputPrefix string

	// Optional completion notification sent by the service itself.
	NotifyTopicARN string
	NotifyRoleARN  string
}

// TextractAPI lets us stub the SDK client in tests.
type TextractAPI interface {
	StartDocumentTextDetection(ctx context.Context, params *textract.StartDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.StartDocumentTextDetectionOutput, error)
	GetDocumentTextDetection(ctx context.Context, params *textract.GetDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.GetDocumentTextDetectionOutput, error)
}

type Config struct {
	MaxResults int32 // blocks per page, service max 1000; 0 uses the service default
}

type TextractClient struct {
	api    TextractAPI
	cfg    Config
	logger *slog.Logger
}

func NewTextractClient(api TextractAPI, cfg Config, logger *slog.Logger) *TextractClient {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxResults < 0 || cfg.MaxResults > 1000 {
		cfg.MaxResults = 0
	}
	return &TextractClient{api: api, cfg: cfg, logger: logger}
}

// NewTextractClientFromConfig builds the SDK client from a loaded aws.Config.
func NewTextractClientFromConfig(awsCfg aws.Config, cfg Config, logger *slog.Logger) *TextractClient {
	return NewTextractClient(textract.NewFromConfig(awsCfg), cfg, logger)
}

func (c *TextractClient) StartTextDetection(ctx context.Context, in StartInput) (entity.JobCreated, error) {
	start := time.Now()
	req := &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(in.Bucket),
				Name:   aws.String(in.Key),
			},
		},
		OutputConfig: &types.OutputConfig{
			S3Bucket: aws.String(in.OutputBucket),
			S3Prefix: aws.String(in.OutputPrefix),
		},
	}
	if in.NotifyTopicARN != "" && in.NotifyRoleARN != "" {
		req.NotificationChannel = &types.NotificationChannel{
			SNSTopicArn: aws.String(in.NotifyTopicARN),
			RoleArn:     aws.String(in.NotifyRoleARN),
		}
	}

	out, err := c.api.StartDocumentTextDetection(ctx, req)
	if err != nil {
		c.logger.Error("textract.start.failed", "bucket", in.Bucket, "key", in.Key, "error", err)
		return entity.JobCreated{}, awsx.Wrap(err, common.KindExternalServiceRejected, "start text detection")
	}

	created := entity.JobCreated{
		JobID:            aws.ToString(out.JobId),
		DocumentLocation: entity.DocumentLocation{Bucket: in.Bucket, Name: in.Key},
		ResponseMetadata: responseMetadata(out),
	}
	c.logger.Info("textract.start.ok",
		"job_id", created.JobID,
		"http_status", created.ResponseMetadata.HTTPStatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return created, nil
}

func (c *TextractClient) GetTextDetection(ctx context.Context, jobID, nextToken string) (entity.DetectionPage, error) {
	req := &textract.GetDocumentTextDetectionInput{JobId: aws.String(jobID)}
	if nextToken != "" {
		req.NextToken = aws.String(nextToken)
	}
	if c.cfg.MaxResults > 0 {
		req.MaxResults = aws.Int32(c.cfg.MaxResults)
	}

	out, err := c.api.GetDocumentTextDetection(ctx, req)
	if err != nil {
		c.logger.Warn("textract.get.failed", "job_id", jobID, "error", err)
		return entity.DetectionPage{}, awsx.Wrap(err, common.KindExternalServiceRejected, fmt.Sprintf("get text detection for job %s", jobID))
	}

	page := entity.DetectionPage{
		JobStatus:     constants.JobStatus(out.JobStatus),
		StatusMessage: aws.ToString(out.StatusMessage),
		NextToken:     aws.ToString(out.NextToken),
		Blocks:        make([]entity.Block, 0, len(out.Blocks)),
	}
	for _, b := range out.Blocks {
		page.Blocks = append(page.Blocks, entity.Block{
			BlockType: string(b.BlockType),
			Page:      int(aws.ToInt32(b.Page)),
			Text:      aws.ToString(b.Text),
		})
	}
	return page, nil
}

func responseMetadata(out *textract.StartDocumentTextDetectionOutput) entity.ResponseMetadata {
	// the SDK turns non-2xx responses into errors, so a missing raw response means 200
	md := entity.ResponseMetadata{HTTPStatusCode: http.StatusOK}
	if raw, ok := awsmiddleware.GetRawResponse(out.ResultMetadata).(*smithyhttp.Response); ok && raw != nil {
		md.HTTPStatusCode = raw.StatusCode
	}
	if id, ok := awsmiddleware.GetRequestIDMetadata(out.ResultMetadata); ok {
		md.RequestID = id
	}
	return md
}
