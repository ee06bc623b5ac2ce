package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wardensec/warden/internal/log"
	"github.com/wardensec/warden/internal/review"
)

// s3API is the subset of the S3 client the sink uses, extracted so tests can
// substitute a fake.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads reports to an S3 bucket under an optional key prefix.
type S3Sink struct {
	client s3API
	bucket string
	prefix string
	logger log.Logger
}

// NewS3Sink creates the sink using the ambient AWS credential chain
// (environment, shared config, instance role).
func NewS3Sink(ctx context.Context, bucket, prefix string, logger log.Logger) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 sink: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	if logger == nil {
		logger = log.NewNop()
	}
	return &S3Sink{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Store uploads the report and returns its s3:// location.
func (s *S3Sink) Store(ctx context.Context, report *review.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	key := path.Join(s.prefix, fmt.Sprintf("security-report-%s.json", report.ID))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading report to s3://%s/%s: %w", s.bucket, key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Debug("report uploaded", "location", location, "bytes", len(data))
	return location, nil
}
