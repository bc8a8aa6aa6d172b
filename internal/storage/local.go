package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalSink writes the report to a local file path. The write goes
// through a temp file in the same directory and a rename, so an
// interrupted run never leaves a half-written report at the destination.
type LocalSink struct {
	path string
}

// NewLocalSink creates a LocalSink for path. The parent directory is
// created eagerly so an unwritable destination fails before the scan
// starts.
func NewLocalSink(path string) (*LocalSink, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: empty report destination")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("storage: create report directory %s: %w", dir, err)
	}

	return &LocalSink{path: path}, nil
}

// Path returns the destination path.
func (s *LocalSink) Path() string {
	return s.path
}

// Put writes data to the destination, replacing any previous report.
func (s *LocalSink) Put(ctx context.Context, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("storage: context cancelled: %w", ctx.Err())
	default:
	}

	dir := filepath.Dir(s.path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp report: %w", err)
	}

	tmpName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: write report: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: close report: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storage: publish report: %w", err)
	}

	return s.path, nil
}
