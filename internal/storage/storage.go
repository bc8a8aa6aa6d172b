// Package storage provides report persistence capabilities.
// It defines the Sink interface (port) and implementations for local
// disk and S3 destinations, selected by the destination's scheme.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Sink persists one finished report to its destination.
type Sink interface {
	// Put writes the report data and returns the final location
	// (a filesystem path or an https URL for S3 destinations).
	Put(ctx context.Context, data io.Reader) (location string, err error)
}

// S3Settings carries the credentials and region used for s3://
// destinations. All fields are optional; without static credentials the
// AWS default chain applies.
type S3Settings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewSink selects a sink implementation from the destination string.
// "s3://bucket/key" destinations get an S3Sink; everything else is
// treated as a local file path. Construction fails fast when the
// destination cannot possibly be written, so a doomed run aborts before
// any file is touched.
func NewSink(ctx context.Context, destination string, s3cfg S3Settings) (Sink, error) {
	if strings.HasPrefix(destination, "s3://") {
		return NewS3Sink(ctx, destination, s3cfg)
	}
	return NewLocalSink(destination)
}

// parseS3URI splits "s3://bucket/key" into bucket and key.
func parseS3URI(destination string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(destination, "s3://")
	bucket, key, found := strings.Cut(trimmed, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("storage: invalid S3 destination %q (want s3://bucket/key)", destination)
	}
	return bucket, key, nil
}
