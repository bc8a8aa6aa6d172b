// Package report serializes scan results into a durable CSV record set:
// one record per processed file plus one terminating summary record.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/davekimi14/wav-silence-cleaner/internal/scan"
)

// Header is the column layout of the report. Exported so consumers of the
// CSV can assert against it.
var Header = []string{
	"path",
	"size_bytes",
	"duration_sec",
	"samplerate",
	"channels",
	"decision",
	"empty",
	"max_peak",
	"windows_probed",
	"threshold",
	"action",
	"detail",
}

// summaryMarker is the path column value of the terminating summary record.
const summaryMarker = "SUMMARY"

// Write emits the full report to w. Every processed file, including
// errors and skips, appears exactly once, followed by the summary record.
func Write(w io.Writer, results []scan.FileResult, sum scan.Summary) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.Path,
			strconv.FormatInt(r.SizeBytes, 10),
			fmt.Sprintf("%.3f", r.DurationSeconds),
			strconv.Itoa(r.SampleRate),
			strconv.Itoa(r.Channels),
			string(r.Decision),
			strconv.FormatBool(r.Empty),
			fmt.Sprintf("%.6g", r.MaxPeak),
			strconv.Itoa(r.WindowsProbed),
			fmt.Sprintf("%.6g", r.Threshold),
			string(r.Action),
			r.Detail,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("report: write record for %s: %w", r.Path, err)
		}
	}

	if err := cw.Write(summaryRecord(sum)); err != nil {
		return fmt.Errorf("report: write summary: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("report: flush: %w", err)
	}
	return nil
}

// summaryRecord folds the run totals into one row with the same column
// layout as the per-file records.
func summaryRecord(sum scan.Summary) []string {
	detail := fmt.Sprintf(
		"scanned=%d silent=%d kept=%d skipped=%d errors=%d action_failures=%d recoverable_bytes=%d freed_bytes=%d relocated_bytes=%d",
		sum.Scanned,
		sum.Silent,
		sum.Kept,
		sum.Skipped,
		sum.Errored,
		sum.ActionFailures,
		sum.RecoverableBytes,
		sum.FreedBytes,
		sum.RelocatedBytes,
	)
	return []string{
		summaryMarker,
		strconv.FormatInt(sum.RecoverableBytes, 10),
		"", "", "",
		summaryMarker,
		"", "", "", "", "",
		detail,
	}
}
