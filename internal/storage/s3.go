package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/textract-sheets/internal/awsx"
	"github.com/joseph-ayodele/textract-sheets/internal/common"
)

// Store is the object storage surface used by the aggregator, lister and uploader.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// S3API lets us stub the SDK client in tests.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// PresignAPI is the subset of s3.PresignClient we use.
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store works against one bucket.
type S3Store struct {
	api     S3API
	presign PresignAPI
	bucket  string
	logger  *slog.Logger
}

func NewS3Store(api S3API, presign PresignAPI, bucket string, logger *slog.Logger) *S3Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Store{api: api, presign: presign, bucket: bucket, logger: logger}
}

// NewS3StoreFromConfig builds the SDK client; a custom endpoint switches to path-style addressing.
func NewS3StoreFromConfig(awsCfg aws.Config, bucket string, logger *slog.Logger) *S3Store {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if awsCfg.BaseEndpoint != nil {
			o.UsePathStyle = true
		}
	})
	return NewS3Store(client, s3.NewPresignClient(client), bucket, logger)
}

// Put uploads body in a single request. Readers never see a partial object.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	start := time.Now()
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("s3.put.failed", "bucket", s.bucket, "key", key, "error", err)
		return awsx.Wrap(err, common.KindStorageFailure, fmt.Sprintf("put s3://%s/%s", s.bucket, key))
	}
	s.logger.Info("s3.put.ok",
		"bucket", s.bucket,
		"key", key,
		"bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// List returns every key under prefix across all result pages.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			s.logger.Error("s3.list.failed", "bucket", s.bucket, "prefix", prefix, "error", err)
			return nil, awsx.Wrap(err, common.KindStorageFailure, fmt.Sprintf("list s3://%s/%s", s.bucket, prefix))
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	s.logger.Debug("s3.list.ok", "bucket", s.bucket, "prefix", prefix, "keys", len(keys))
	return keys, nil
}

// PresignGet returns a time-limited GET URL for key.
func (s *S3Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", awsx.Wrap(err, common.KindStorageFailure, fmt.Sprintf("presign s3://%s/%s", s.bucket, key))
	}
	return req.URL, nil
}
