package scan

// Decision is the per-file outcome of a scan.
type Decision string

const (
	// DecisionSilent marks a file whose every probed window stayed below
	// the silence threshold. Candidate for deletion.
	DecisionSilent Decision = "SILENT"
	// DecisionKeep marks a file with at least one active window.
	DecisionKeep Decision = "KEEP"
	// DecisionSkipped marks a file below MIN_SIZE_BYTES. Not silent, not
	// errored.
	DecisionSkipped Decision = "SKIPPED"
	// DecisionError marks a file that could not be scanned. Errors and
	// silence are disjoint outcomes.
	DecisionError Decision = "ERROR"
)

// ActionOutcome records what, if anything, happened to a silent file.
type ActionOutcome string

const (
	// ActionNone means no filesystem mutation was attempted.
	ActionNone ActionOutcome = "NONE"
	// ActionDeleted means the file was removed.
	ActionDeleted ActionOutcome = "DELETED"
	// ActionRelocated means the file was moved into quarantine.
	ActionRelocated ActionOutcome = "RELOCATED"
	// ActionFailed means the delete or relocate failed; the verdict
	// stands but no storage was reclaimed.
	ActionFailed ActionOutcome = "ACTION_FAILED"
)

// FileResult is one durable report record. Every discovered file,
// including errors and skips, produces exactly one.
type FileResult struct {
	Path            string
	SizeBytes       int64
	DurationSeconds float64
	SampleRate      int
	Channels        int

	Decision      Decision
	Empty         bool
	MaxPeak       float64
	WindowsProbed int
	Threshold     float64

	Action ActionOutcome
	// Detail carries the scan error, the action failure, or a short
	// human-readable explanation of the decision.
	Detail string
}

// Summary holds the aggregate counters for one run.
type Summary struct {
	Scanned        int
	Silent         int
	Kept           int
	Skipped        int
	Errored        int
	ActionFailures int

	// RecoverableBytes is the total size of files verdicted silent:
	// "available to be saved" in AUDIT mode.
	RecoverableBytes int64
	// FreedBytes is the total size of files actually deleted.
	FreedBytes int64
	// RelocatedBytes is the total size of files moved to quarantine.
	RelocatedBytes int64
}

// Summarize folds the per-file results into run totals.
func Summarize(results []FileResult) Summary {
	var s Summary
	for _, r := range results {
		s.Scanned++
		switch r.Decision {
		case DecisionSilent:
			s.Silent++
			s.RecoverableBytes += r.SizeBytes
		case DecisionKeep:
			s.Kept++
		case DecisionSkipped:
			s.Skipped++
		case DecisionError:
			s.Errored++
		}
		switch r.Action {
		case ActionDeleted:
			s.FreedBytes += r.SizeBytes
		case ActionRelocated:
			s.RelocatedBytes += r.SizeBytes
		case ActionFailed:
			s.ActionFailures++
		}
	}
	return s
}
