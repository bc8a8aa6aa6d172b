package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Sink uploads the report to an S3 object.
type S3Sink struct {
	client *s3.Client
	bucket string
	key    string
	region string
}

// NewS3Sink creates an S3Sink for an "s3://bucket/key" destination.
func NewS3Sink(ctx context.Context, destination string, cfg S3Settings) (*S3Sink, error) {
	bucket, key, err := parseS3URI(destination)
	if err != nil {
		return nil, err
	}

	var configOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		configOpts = append(configOpts, config.WithRegion(cfg.Region))
	}

	// Use static credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load AWS config: %w", err)
	}

	return &S3Sink{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		key:    key,
		region: cfg.Region,
	}, nil
}

// Put uploads the report and returns its https URL.
func (s *S3Sink) Put(ctx context.Context, data io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        data,
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload report to S3: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, s.key)
	return url, nil
}
