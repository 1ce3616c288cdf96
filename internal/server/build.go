package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/textract-sheets/internal/awsx"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
	"github.com/joseph-ayodele/textract-sheets/internal/export"
	"github.com/joseph-ayodele/textract-sheets/internal/lease"
	"github.com/joseph-ayodele/textract-sheets/internal/notify"
	"github.com/joseph-ayodele/textract-sheets/internal/ocr"
	"github.com/joseph-ayodele/textract-sheets/internal/pipeline/aggregate"
	"github.com/joseph-ayodele/textract-sheets/internal/pipeline/submit"
	"github.com/joseph-ayodele/textract-sheets/internal/results"
	"github.com/joseph-ayodele/textract-sheets/internal/storage"
)

// NewSubmitHandlerFromConfig wires the submitter against the real services.
func NewSubmitHandlerFromConfig(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*SubmitHandler, error) {
	if err := cfg.Validate(common.RoleSubmitter); err != nil {
		return nil, err
	}
	awsCfg, err := awsx.Load(ctx, cfg.AWS, logger)
	if err != nil {
		return nil, err
	}
	p := submit.NewPipeline(
		ocr.NewTextractClientFromConfig(awsCfg, ocr.Config{}, logger),
		notify.NewSNSPublisherFromConfig(awsCfg, cfg.Notify.TopicARN, logger),
		submit.ConfigFrom(cfg),
		logger,
	)
	return NewSubmitHandler(p, logger), nil
}

// NewAggregateHandlerFromConfig wires the aggregator. The returned close
// func releases the lease backend.
func NewAggregateHandlerFromConfig(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*AggregateHandler, func() error, error) {
	if err := cfg.Validate(common.RoleAggregator); err != nil {
		return nil, nil, err
	}
	awsCfg, err := awsx.Load(ctx, cfg.AWS, logger)
	if err != nil {
		return nil, nil, err
	}
	l, err := lease.Open(ctx, cfg.Lease, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open lease: %w", err)
	}
	p := aggregate.NewPipeline(
		ocr.NewTextractClientFromConfig(awsCfg, ocr.Config{}, logger),
		storage.NewS3StoreFromConfig(awsCfg, cfg.Results.Bucket, logger),
		export.NewService(cfg.Format(), logger),
		l,
		aggregate.PollerFrom(cfg.Poll, logger),
		aggregate.Config{Prefix: cfg.Results.Prefix, LeaseTTL: cfg.Lease.TTL},
		logger,
	)
	return NewAggregateHandler(p, logger), l.Close, nil
}

// NewListHandlerFromConfig wires the lister.
func NewListHandlerFromConfig(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*ListHandler, error) {
	if err := cfg.Validate(common.RoleLister); err != nil {
		return nil, err
	}
	awsCfg, err := awsx.Load(ctx, cfg.AWS, logger)
	if err != nil {
		return nil, err
	}
	store := storage.NewS3StoreFromConfig(awsCfg, cfg.Results.Bucket, logger)
	svc := results.NewService(store, cfg.Results.Prefix, cfg.Format(), cfg.Results.PresignTTL, logger)
	return NewListHandler(svc, logger), nil
}
