// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Mode selects what the pipeline does with files verdicted silent.
type Mode string

const (
	// ModeAudit reports silent files without touching the filesystem.
	ModeAudit Mode = "AUDIT"
	// ModeDelete removes silent files permanently.
	ModeDelete Mode = "DELETE"
	// ModeMove relocates silent files into the quarantine directory.
	ModeMove Mode = "MOVE"
)

// IsValid returns true if the mode is one of AUDIT, DELETE or MOVE.
func (m Mode) IsValid() bool {
	return m == ModeAudit || m == ModeDelete || m == ModeMove
}

// Static errors for configuration validation.
var (
	// ErrRootRequired is returned when ROOT_DIRECTORY is not set.
	ErrRootRequired = errors.New("config: ROOT_DIRECTORY is required")
	// ErrRootNotDirectory is returned when ROOT_DIRECTORY does not exist or is not a directory.
	ErrRootNotDirectory = errors.New("config: ROOT_DIRECTORY is not an existing directory")
	// ErrInvalidMode is returned when MODE is not AUDIT, DELETE or MOVE.
	ErrInvalidMode = errors.New(`config: MODE must be "AUDIT", "DELETE" or "MOVE"`)
	// ErrThresholdRange is returned when SILENCE_THRESHOLD is outside (0, 1).
	ErrThresholdRange = errors.New("config: SILENCE_THRESHOLD must be in (0, 1)")
	// ErrQuarantineRequired is returned when MODE is MOVE and QUARANTINE_DIR is not set.
	ErrQuarantineRequired = errors.New("config: QUARANTINE_DIR is required in MOVE mode")
)

// Config holds all configuration for one scan run. It is loaded once at
// process start and passed explicitly to every component that needs it.
type Config struct {
	// Scan target
	RootDirectory string `env:"ROOT_DIRECTORY" json:"root_directory" validate:"required"`
	Mode          Mode   `env:"MODE, default=AUDIT" json:"mode" validate:"oneof=AUDIT DELETE MOVE"`

	// Report settings
	ReportDestination string `env:"REPORT_DESTINATION, default=silent_wav_audit.csv" json:"report_destination" validate:"required"`

	// Probe settings
	IntervalSeconds   int     `env:"INTERVAL_SECONDS, default=7" json:"interval_seconds" validate:"gt=0"`
	NumSamplesPerFile int     `env:"NUM_SAMPLES_PER_FILE, default=16" json:"num_samples_per_file" validate:"gt=0"`
	SilenceThreshold  float64 `env:"SILENCE_THRESHOLD, default=0.0001" json:"silence_threshold" validate:"gt=0,lt=1"`
	MinSizeBytes      int64   `env:"MIN_SIZE_BYTES, default=0" json:"min_size_bytes" validate:"gte=0"`

	// MOVE mode target
	QuarantineDir string `env:"QUARANTINE_DIR" json:"quarantine_dir,omitempty"`

	// Processing settings
	Workers        int  `env:"WORKERS, default=1" json:"workers" validate:"gte=1"`
	ReadTimeoutSec int  `env:"READ_TIMEOUT_SEC, default=120" json:"read_timeout_sec" validate:"gt=0"`
	Progress       bool `env:"PROGRESS, default=true" json:"progress"`

	// Optional S3 settings for s3:// report destinations
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// Interval returns the probe window length as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// ReadTimeout returns the per-file classification deadline.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

// Load reads configuration from environment variables using go-envconfig.
// It does not validate semantic constraints; call Validate for that.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration describes a runnable scan.
// Validation failures map to the package's static errors so callers can
// test with errors.Is.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].StructField() {
			case "RootDirectory":
				return ErrRootRequired
			case "Mode":
				return ErrInvalidMode
			case "SilenceThreshold":
				return ErrThresholdRange
			}
		}
		return fmt.Errorf("config: %w", err)
	}

	if c.Mode == ModeMove && c.QuarantineDir == "" {
		return ErrQuarantineRequired
	}

	info, err := os.Stat(c.RootDirectory)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotDirectory, c.RootDirectory)
	}

	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for automation.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with credentials masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{RootDirectory: %s, Mode: %s, ReportDestination: %s, IntervalSeconds: %d, NumSamplesPerFile: %d, SilenceThreshold: %g, MinSizeBytes: %d, QuarantineDir: %s, Workers: %d, LogFormat: %s, LogLevel: %s}",
		c.RootDirectory,
		c.Mode,
		c.ReportDestination,
		c.IntervalSeconds,
		c.NumSamplesPerFile,
		c.SilenceThreshold,
		c.MinSizeBytes,
		c.QuarantineDir,
		c.Workers,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
