package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalSink(t *testing.T) {
	t.Run("creates missing parent directory", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "reports", "audit.csv")

		sink, err := NewLocalSink(dest)
		require.NoError(t, err)
		assert.Equal(t, dest, sink.Path())

		info, err := os.Stat(filepath.Dir(dest))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty destination fails", func(t *testing.T) {
		_, err := NewLocalSink("")
		require.Error(t, err)
	})

	t.Run("unwritable destination fails before the scan", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root ignores directory permissions")
		}
		parent := t.TempDir()
		require.NoError(t, os.Chmod(parent, 0500))
		t.Cleanup(func() { _ = os.Chmod(parent, 0750) })

		_, err := NewLocalSink(filepath.Join(parent, "sub", "audit.csv"))
		require.Error(t, err)
	})
}

func TestLocalSink_Put(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "audit.csv")
	sink, err := NewLocalSink(dest)
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("writes report content", func(t *testing.T) {
		location, err := sink.Put(ctx, strings.NewReader("path,decision\na.wav,SILENT\n"))
		require.NoError(t, err)
		assert.Equal(t, dest, location)

		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "path,decision\na.wav,SILENT\n", string(got))
	})

	t.Run("replaces a previous report", func(t *testing.T) {
		_, err := sink.Put(ctx, strings.NewReader("second run"))
		require.NoError(t, err)

		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "second run", string(got))
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(dest))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := sink.Put(cctx, strings.NewReader("x"))
		require.Error(t, err)
	})
}

func TestNewSink_SchemeSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("local path", func(t *testing.T) {
		sink, err := NewSink(ctx, filepath.Join(t.TempDir(), "audit.csv"), S3Settings{})
		require.NoError(t, err)
		assert.IsType(t, &LocalSink{}, sink)
	})

	t.Run("s3 destination", func(t *testing.T) {
		sink, err := NewSink(ctx, "s3://bucket/reports/audit.csv", S3Settings{Region: "eu-west-1"})
		require.NoError(t, err)
		assert.IsType(t, &S3Sink{}, sink)
	})
}
