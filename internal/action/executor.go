// Package action performs the destructive side of the pipeline: deleting
// or quarantining files the current run verdicted silent.
package action

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
)

// ErrAction wraps every failed delete or relocate so callers can count
// action failures without inspecting OS error details.
var ErrAction = errors.New("action: operation failed")

// Executor removes or relocates files. The pipeline invokes it only for
// files with a fresh silent verdict from the current run.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger}
}

// Remove deletes path permanently.
func (e *Executor) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrAction, path, err)
	}
	e.logger.Info("removed silent file", slog.String("path", path))
	return nil
}

// Relocate moves path into quarantineDir and returns the destination.
// Name collisions in the quarantine get a numeric suffix. Cross-device
// moves fall back to copy + remove.
func (e *Executor) Relocate(path, quarantineDir string) (string, error) {
	if err := os.MkdirAll(quarantineDir, 0750); err != nil {
		return "", fmt.Errorf("%w: create quarantine dir %s: %v", ErrAction, quarantineDir, err)
	}

	dst, err := collisionFreePath(quarantineDir, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("%w: relocate %s: %v", ErrAction, path, err)
	}

	if err := os.Rename(path, dst); err != nil {
		if !isCrossDevice(err) {
			return "", fmt.Errorf("%w: relocate %s -> %s: %v", ErrAction, path, dst, err)
		}
		if err := copyAndRemove(path, dst); err != nil {
			return "", fmt.Errorf("%w: relocate %s -> %s: %v", ErrAction, path, dst, err)
		}
	}

	e.logger.Info("relocated silent file",
		slog.String("path", path),
		slog.String("quarantined_as", dst),
	)
	return dst, nil
}

// collisionFreePath picks a destination name that does not already exist.
func collisionFreePath(dir, base string) (string, error) {
	dst := filepath.Join(dir, base)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	for n := 1; ; n++ {
		if _, err := os.Lstat(dst); err != nil {
			if os.IsNotExist(err) {
				return dst, nil
			}
			return "", err
		}
		if n > 10000 {
			return "", fmt.Errorf("no free name for %s in %s", base, dir)
		}
		dst = filepath.Join(dir, fmt.Sprintf("%s.%d%s", stem, n, ext))
	}
}

// isCrossDevice reports whether err is an EXDEV rename failure.
func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// copyAndRemove moves a file across filesystems. The destination is
// written fully before the source is deleted.
func copyAndRemove(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 - src was verdicted by this run
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640) // #nosec G304
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	return os.Remove(src)
}
