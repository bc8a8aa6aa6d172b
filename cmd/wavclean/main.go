// Package main provides the entry point for the wavclean CLI.
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/davekimi14/wav-silence-cleaner/internal/bootstrap"
	"github.com/davekimi14/wav-silence-cleaner/internal/config"
	"github.com/davekimi14/wav-silence-cleaner/internal/report"
	"github.com/davekimi14/wav-silence-cleaner/internal/scan"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the root command. Configuration comes from the
// environment (or .env); flags override individual settings.
func newRootCmd() *cobra.Command {
	var (
		root       string
		mode       string
		dest       string
		interval   int
		samples    int
		threshold  float64
		minSize    int64
		quarantine string
		workers    int
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "wavclean",
		Short: "Find and clean up effectively silent WAV session files",
		Long: `wavclean recursively scans a directory tree for WAV files and classifies
each one as silent or active by probing a few short windows spread across
the file, so multi-gigabyte recordings are never loaded into memory.

Silent files are reported (AUDIT), deleted (DELETE) or moved to a
quarantine directory (MOVE). Every scanned file lands in a CSV report.`,
		Example: `  wavclean --root /mnt/sessions
  wavclean --root /mnt/sessions --mode DELETE --report cleanup.csv
  wavclean --root /mnt/sessions --mode MOVE --quarantine /mnt/quarantine
  ROOT_DIRECTORY=/mnt/sessions MODE=AUDIT wavclean`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			flags := cmd.Flags()
			if flags.Changed("root") {
				cfg.RootDirectory = root
			}
			if flags.Changed("mode") {
				cfg.Mode = config.Mode(mode)
			}
			if flags.Changed("report") {
				cfg.ReportDestination = dest
			}
			if flags.Changed("interval") {
				cfg.IntervalSeconds = interval
			}
			if flags.Changed("samples") {
				cfg.NumSamplesPerFile = samples
			}
			if flags.Changed("threshold") {
				cfg.SilenceThreshold = threshold
			}
			if flags.Changed("min-size") {
				cfg.MinSizeBytes = minSize
			}
			if flags.Changed("quarantine") {
				cfg.QuarantineDir = quarantine
			}
			if flags.Changed("workers") {
				cfg.Workers = workers
			}
			if noProgress {
				cfg.Progress = false
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return runScan(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "root directory to scan (env ROOT_DIRECTORY)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "AUDIT, DELETE or MOVE (env MODE)")
	cmd.Flags().StringVarP(&dest, "report", "o", "", "report destination, local path or s3://bucket/key (env REPORT_DESTINATION)")
	cmd.Flags().IntVar(&interval, "interval", 0, "probe window length in seconds (env INTERVAL_SECONDS)")
	cmd.Flags().IntVar(&samples, "samples", 0, "probe windows per file (env NUM_SAMPLES_PER_FILE)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "peak-amplitude silence threshold in (0,1) (env SILENCE_THRESHOLD)")
	cmd.Flags().Int64Var(&minSize, "min-size", 0, "ignore files below this many bytes (env MIN_SIZE_BYTES)")
	cmd.Flags().StringVar(&quarantine, "quarantine", "", "quarantine directory for MOVE mode (env QUARANTINE_DIR)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel classification workers (env WORKERS)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

// runScan executes one scan run end to end: pipeline, report, summary.
func runScan(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting silent WAV scan",
		slog.String("root", cfg.RootDirectory),
		slog.String("mode", string(cfg.Mode)),
		slog.String("report_destination", cfg.ReportDestination),
		slog.Int("interval_seconds", cfg.IntervalSeconds),
		slog.Int("num_samples_per_file", cfg.NumSamplesPerFile),
		slog.Float64("silence_threshold", cfg.SilenceThreshold),
		slog.Int64("min_size_bytes", cfg.MinSizeBytes),
		slog.Int("workers", cfg.Workers),
	)

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	summary, results, err := deps.Pipeline.Run(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, results, summary); err != nil {
		return err
	}

	// The report is flushed on a fresh context so an interrupt that ended
	// the scan early does not also discard the partial results.
	putCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	location, err := deps.ReportSink.Put(putCtx, &buf)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if ctx.Err() != nil {
		logger.Warn("run interrupted, report covers processed files only")
	}

	printSummary(cfg, summary, location)
	return nil
}

// printSummary prints the human-facing totals. The bytes figure changes
// meaning per mode: could be saved, actually freed, or quarantined.
func printSummary(cfg *config.Config, s scan.Summary, location string) {
	fmt.Printf("\nDone.\n")
	fmt.Printf("Scanned WAV files        : %d\n", s.Scanned)
	fmt.Printf("Silent candidates        : %d\n", s.Silent)
	fmt.Printf("Errors                   : %d\n", s.Errored)
	if s.Skipped > 0 {
		fmt.Printf("Skipped (below min size) : %d\n", s.Skipped)
	}
	if s.ActionFailures > 0 {
		fmt.Printf("Action failures          : %d (storage NOT reclaimed)\n", s.ActionFailures)
	}

	switch cfg.Mode {
	case config.ModeDelete:
		fmt.Printf("GB freed                 : %.3f GB\n", bytesToGB(s.FreedBytes))
		fmt.Printf("GB flagged as silent     : %.3f GB\n", bytesToGB(s.RecoverableBytes))
	case config.ModeMove:
		fmt.Printf("GB moved to quarantine   : %.3f GB\n", bytesToGB(s.RelocatedBytes))
		fmt.Printf("GB flagged as silent     : %.3f GB\n", bytesToGB(s.RecoverableBytes))
	default:
		fmt.Printf("GB available to be saved : %.3f GB\n", bytesToGB(s.RecoverableBytes))
	}

	fmt.Printf("Report                   : %s\n", location)
}

// bytesToGB converts bytes to GiB, labeled GB for convenience.
func bytesToGB(n int64) float64 {
	return float64(n) / (1 << 30)
}
