// Package scan drives the discover → classify → act → record pipeline
// over a directory tree of WAV files.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/davekimi14/wav-silence-cleaner/internal/classify"
	"github.com/davekimi14/wav-silence-cleaner/internal/config"
	"github.com/davekimi14/wav-silence-cleaner/internal/wavio"
)

// Executor performs the destructive or relocating action for silent
// files. Implemented by action.Executor; a port so tests can observe or
// fail actions.
type Executor interface {
	Remove(path string) error
	Relocate(path, quarantineDir string) (destination string, err error)
}

// Pipeline scans a file tree, classifies each WAV file and, depending on
// the run mode, removes or quarantines the silent ones.
type Pipeline struct {
	cfg      *config.Config
	executor Executor
	logger   *slog.Logger
}

// NewPipeline creates a Pipeline. The executor is only invoked for files
// this run verdicts silent.
func NewPipeline(cfg *config.Config, executor Executor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		executor: executor,
		logger:   logger,
	}
}

// Run executes one full scan. It returns the run totals and one result
// record per processed file, in deterministic (lexicographic) path order.
//
// File-level failures are isolated into ERROR records and never abort the
// run. The returned error is reserved for fatal conditions such as an
// inaccessible root. On context cancellation Run returns whatever results
// accumulated so the report stays consistent.
func (p *Pipeline) Run(ctx context.Context) (Summary, []FileResult, error) {
	files, walkResults, err := p.discover()
	if err != nil {
		return Summary{}, nil, err
	}

	p.logger.Info("scan starting",
		slog.String("root", p.cfg.RootDirectory),
		slog.String("mode", string(p.cfg.Mode)),
		slog.Int("interval_seconds", p.cfg.IntervalSeconds),
		slog.Int("num_samples_per_file", p.cfg.NumSamplesPerFile),
		slog.Float64("silence_threshold", p.cfg.SilenceThreshold),
		slog.Int("workers", p.cfg.Workers),
		slog.Int("wav_files_found", len(files)),
	)

	var (
		progress *mpb.Progress
		bar      *mpb.Bar
	)
	if p.cfg.Progress && len(files) > 0 {
		progress = mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
		bar = progress.AddBar(int64(len(files)),
			mpb.PrependDecorators(
				decor.Name("Scanning WAV files: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
			),
		)
	}

	// Each worker writes only its own slot, so the slice needs no lock
	// and the report order stays deterministic regardless of scheduling.
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results[i] = p.processOne(gctx, path)
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}
	_ = g.Wait()

	if progress != nil {
		if ctx.Err() != nil {
			bar.Abort(false)
		}
		progress.Wait()
	}

	processed := make([]FileResult, 0, len(walkResults)+len(results))
	processed = append(processed, walkResults...)
	for _, r := range results {
		if r.Decision != "" {
			processed = append(processed, r)
		}
	}

	if ctx.Err() != nil {
		p.logger.Warn("scan interrupted, reporting partial results",
			slog.Int("processed", len(processed)),
			slog.Int("discovered", len(files)+len(walkResults)),
		)
	}

	return Summarize(processed), processed, nil
}

// discover walks the root collecting WAV files in sorted path order.
// An inaccessible root is fatal; unreadable subtrees become ERROR
// records and the walk continues.
func (p *Pipeline) discover() ([]string, []FileResult, error) {
	root := p.cfg.RootDirectory

	var files []string
	var walkResults []FileResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			p.logger.Warn("inaccessible path skipped",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			walkResults = append(walkResults, FileResult{
				Path:     path,
				Decision: DecisionError,
				Action:   ActionNone,
				Detail:   fmt.Sprintf("walk: %v", err),
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".wav") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("scan root %s: %w", root, err)
	}

	sort.Strings(files)
	return files, walkResults, nil
}

// processOne runs the full per-file state machine:
// discovered → probed → verdicted → (audited|acted) → recorded.
func (p *Pipeline) processOne(ctx context.Context, path string) FileResult {
	res := FileResult{
		Path:      path,
		Action:    ActionNone,
		Threshold: p.cfg.SilenceThreshold,
	}

	info, err := os.Stat(path)
	if err != nil {
		res.Decision = DecisionError
		res.Detail = fmt.Sprintf("stat: %v", err)
		return res
	}
	res.SizeBytes = info.Size()

	if res.SizeBytes < p.cfg.MinSizeBytes {
		res.Decision = DecisionSkipped
		res.Detail = fmt.Sprintf("below MIN_SIZE_BYTES (%d < %d)", res.SizeBytes, p.cfg.MinSizeBytes)
		return res
	}

	reader, err := wavio.Open(path)
	if err != nil {
		p.logger.Warn("unreadable file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		res.Decision = DecisionError
		res.Detail = err.Error()
		return res
	}
	defer func() { _ = reader.Close() }()

	// A hung I/O path must not stall the whole run; the deadline turns
	// into a per-file read error.
	cctx, cancel := context.WithTimeout(ctx, p.cfg.ReadTimeout())
	defer cancel()

	verdict, err := classify.Classify(cctx, reader, classify.Params{
		IntervalSeconds: p.cfg.IntervalSeconds,
		NumSamples:      p.cfg.NumSamplesPerFile,
		Threshold:       p.cfg.SilenceThreshold,
	})
	if err != nil {
		p.logger.Warn("classification failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		res.Decision = DecisionError
		res.Detail = err.Error()
		return res
	}

	res.DurationSeconds = verdict.DurationSeconds
	res.SampleRate = verdict.SampleRate
	res.Channels = verdict.Channels
	res.MaxPeak = verdict.MaxPeak
	res.WindowsProbed = len(verdict.Windows)
	res.Empty = verdict.Empty

	if !verdict.IsSilent {
		res.Decision = DecisionKeep
		res.Detail = fmt.Sprintf("non-silent window found (peak=%.6g)", verdict.MaxPeak)
		return res
	}

	res.Decision = DecisionSilent
	if verdict.Empty {
		res.Detail = "empty audio stream (zero frames)"
	} else {
		res.Detail = "all sampled windows below threshold"
	}

	p.logger.Debug("silent file found",
		slog.String("path", path),
		slog.Int64("size_bytes", res.SizeBytes),
		slog.Float64("max_peak", res.MaxPeak),
		slog.Bool("empty", res.Empty),
	)

	// Act only on the verdict produced just above, never on evidence
	// from a previous run.
	switch p.cfg.Mode {
	case config.ModeDelete:
		if err := p.executor.Remove(path); err != nil {
			p.logger.Error("delete failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			res.Action = ActionFailed
			res.Detail = err.Error()
		} else {
			res.Action = ActionDeleted
		}
	case config.ModeMove:
		dst, err := p.executor.Relocate(path, p.cfg.QuarantineDir)
		if err != nil {
			p.logger.Error("relocate failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			res.Action = ActionFailed
			res.Detail = err.Error()
		} else {
			res.Action = ActionRelocated
			res.Detail = "quarantined as " + dst
		}
	case config.ModeAudit:
		// No filesystem mutation in audit mode.
	}

	return res
}
