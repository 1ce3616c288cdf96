// Package awsx loads SDK configuration and classifies service errors.
package awsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

// Load resolves credentials and region the usual SDK way, applying overrides from cfg.
func Load(ctx context.Context, cfg common.AWSConfig, logger *slog.Logger) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logger.Error("aws.config.failed", "error", err)
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	logger.Debug("aws.config.ok", "region", awsCfg.Region, "endpoint", cfg.Endpoint)
	return awsCfg, nil
}

var throttlingCodes = map[string]struct{}{
	"Throttling":                             {},
	"ThrottlingException":                    {},
	"ThrottledException":                     {},
	"RequestThrottledException":              {},
	"TooManyRequestsException":               {},
	"ProvisionedThroughputExceededException": {},
	"SlowDown":                               {},
	"RequestLimitExceeded":                   {},
	"LimitExceededException":                 {},
	"InternalServerError":                    {},
	"ServiceUnavailable":                     {},
}

// Classify maps an SDK error onto an ErrorKind. Throttling, server faults,
// 5xx responses and network failures are transient. Anything else, including
// client-side operation errors such as bad params or missing credentials,
// takes the fallback kind. Errors that already carry a kind keep it.
func Classify(err error, fallback common.ErrorKind) common.ErrorKind {
	if err == nil {
		return common.KindUnknown
	}
	if k := common.KindOf(err); k != common.KindUnknown {
		return k
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return common.KindExternalServiceTransient
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := throttlingCodes[apiErr.ErrorCode()]; ok {
			return common.KindExternalServiceTransient
		}
		if apiErr.ErrorFault() == smithy.FaultServer {
			return common.KindExternalServiceTransient
		}
		return fallback
	}
	var statusErr interface{ HTTPStatusCode() int }
	if errors.As(err, &statusErr) && statusErr.HTTPStatusCode() >= 500 {
		return common.KindExternalServiceTransient
	}
	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) {
		return common.KindExternalServiceTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return common.KindExternalServiceTransient
	}
	return fallback
}

// Wrap attaches a classified kind to an SDK error.
func Wrap(err error, fallback common.ErrorKind, message string) error {
	if err == nil {
		return nil
	}
	if common.KindOf(err) != common.KindUnknown {
		return common.WrapError(err, message)
	}
	return common.NewAppError(Classify(err, fallback), message, err)
}
