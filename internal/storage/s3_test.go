package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		name       string
		dest       string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			name:       "bucket and key",
			dest:       "s3://my-bucket/reports/audit.csv",
			wantBucket: "my-bucket",
			wantKey:    "reports/audit.csv",
		},
		{
			name:       "single key segment",
			dest:       "s3://my-bucket/audit.csv",
			wantBucket: "my-bucket",
			wantKey:    "audit.csv",
		},
		{
			name:    "missing key",
			dest:    "s3://my-bucket",
			wantErr: true,
		},
		{
			name:    "missing bucket",
			dest:    "s3:///audit.csv",
			wantErr: true,
		},
		{
			name:    "trailing slash only",
			dest:    "s3://my-bucket/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := parseS3URI(tt.dest)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestNewS3Sink(t *testing.T) {
	ctx := context.Background()

	t.Run("valid destination", func(t *testing.T) {
		sink, err := NewS3Sink(ctx, "s3://bucket/key.csv", S3Settings{
			Region:          "us-east-1",
			AccessKeyID:     "test-access-key",
			SecretAccessKey: "test-secret-key",
		})
		require.NoError(t, err)
		assert.Equal(t, "bucket", sink.bucket)
		assert.Equal(t, "key.csv", sink.key)
	})

	t.Run("invalid destination", func(t *testing.T) {
		_, err := NewS3Sink(ctx, "s3://bucket-only", S3Settings{Region: "us-east-1"})
		require.Error(t, err)
	})
}
