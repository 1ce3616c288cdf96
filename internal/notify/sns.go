package notify

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/joseph-ayodele/textract-sheets/internal/awsx"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

// Publisher sends one message to the configured channel and returns its id.
type Publisher interface {
	Publish(ctx context.Context, subject string, message []byte) (string, error)
}

// SNSAPI lets us stub the SDK client in tests.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSPublisher struct {
	api      SNSAPI
	topicARN string
	logger   *slog.Logger
}

func NewSNSPublisher(api SNSAPI, topicARN string, logger *slog.Logger) *SNSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SNSPublisher{api: api, topicARN: topicARN, logger: logger}
}

func NewSNSPublisherFromConfig(awsCfg aws.Config, topicARN string, logger *slog.Logger) *SNSPublisher {
	return NewSNSPublisher(sns.NewFromConfig(awsCfg), topicARN, logger)
}

func (p *SNSPublisher) Publish(ctx context.Context, subject string, message []byte) (string, error) {
	in := &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(message)),
	}
	if subject != "" {
		in.Subject = aws.String(subject)
	}
	out, err := p.api.Publish(ctx, in)
	if err != nil {
		p.logger.Error("sns.publish.failed", "topic_arn", p.topicARN, "error", err)
		return "", awsx.Wrap(err, common.KindExternalServiceRejected, "publish notification")
	}
	id := aws.ToString(out.MessageId)
	p.logger.Info("sns.publish.ok", "topic_arn", p.topicARN, "message_id", id)
	return id, nil
}
