package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davekimi14/wav-silence-cleaner/internal/scan"
)

func sampleResults() []scan.FileResult {
	return []scan.FileResult{
		{
			Path:            "/sessions/a.wav",
			SizeBytes:       4_800_044,
			DurationSeconds: 300,
			SampleRate:      8000,
			Channels:        2,
			Decision:        scan.DecisionSilent,
			MaxPeak:         0.00001,
			WindowsProbed:   16,
			Threshold:       0.0001,
			Action:          scan.ActionDeleted,
			Detail:          "all sampled windows below threshold",
		},
		{
			Path:            "/sessions/b.wav",
			SizeBytes:       4_800_044,
			DurationSeconds: 300,
			SampleRate:      8000,
			Channels:        2,
			Decision:        scan.DecisionKeep,
			MaxPeak:         0.5,
			WindowsProbed:   9,
			Threshold:       0.0001,
			Action:          scan.ActionNone,
			Detail:          "non-silent window found (peak=0.5)",
		},
		{
			Path:     "/sessions/c.wav",
			Decision: scan.DecisionError,
			Action:   scan.ActionNone,
			Detail:   "wavio: unreadable audio file",
		},
	}
}

func TestWrite(t *testing.T) {
	results := sampleResults()
	sum := scan.Summarize(results)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, results, sum))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)

	// Header + one record per file + summary.
	require.Len(t, records, 5)
	assert.Equal(t, Header, records[0])

	t.Run("every file appears exactly once", func(t *testing.T) {
		seen := map[string]int{}
		for _, rec := range records[1:4] {
			seen[rec[0]]++
		}
		assert.Equal(t, map[string]int{
			"/sessions/a.wav": 1,
			"/sessions/b.wav": 1,
			"/sessions/c.wav": 1,
		}, seen)
	})

	t.Run("silent record carries evidence and action", func(t *testing.T) {
		rec := records[1]
		assert.Equal(t, "/sessions/a.wav", rec[0])
		assert.Equal(t, "4800044", rec[1])
		assert.Equal(t, "300.000", rec[2])
		assert.Equal(t, "SILENT", rec[5])
		assert.Equal(t, "1e-05", rec[7])
		assert.Equal(t, "16", rec[8])
		assert.Equal(t, "DELETED", rec[10])
	})

	t.Run("error record present with empty audio fields", func(t *testing.T) {
		rec := records[3]
		assert.Equal(t, "ERROR", rec[5])
		assert.Equal(t, "NONE", rec[10])
		assert.NotEmpty(t, rec[11])
	})

	t.Run("terminating summary record", func(t *testing.T) {
		rec := records[4]
		assert.Equal(t, "SUMMARY", rec[0])
		assert.Contains(t, rec[11], "scanned=3")
		assert.Contains(t, rec[11], "silent=1")
		assert.Contains(t, rec[11], "errors=1")
		assert.Contains(t, rec[11], "freed_bytes=4800044")
	})
}

func TestWrite_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, scan.Summary{}))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SUMMARY", records[1][0])
	assert.Contains(t, records[1][11], "scanned=0")
}
