// Package classify implements the sparse peak-amplitude silence test.
//
// A file is probed at a handful of evenly spaced windows instead of being
// read in full. The file is silent iff every probed window's peak absolute
// amplitude stays strictly below the configured threshold. This is a
// deliberate best-effort heuristic for huge session recordings, not a
// guarantee of silence between probes.
package classify

import (
	"context"
	"fmt"

	"github.com/davekimi14/wav-silence-cleaner/internal/wavio"
)

// Params configures one classification call.
type Params struct {
	// IntervalSeconds is the probe window length.
	IntervalSeconds int
	// NumSamples is the requested number of probe windows per file.
	NumSamples int
	// Threshold is the peak amplitude in [0, 1] at or above which a
	// window counts as active signal.
	Threshold float64
}

// ProbeWindow is the evidence gathered from one probed window.
type ProbeWindow struct {
	// StartFrame is the first frame of the window.
	StartFrame int64
	// NumFrames is the number of frames actually read (clipped at EOF).
	NumFrames int64
	// Peak is the maximum absolute sample value across all channels.
	Peak float64
}

// Verdict is the file-level classification with its supporting evidence.
type Verdict struct {
	Path            string
	SizeBytes       int64
	DurationSeconds float64
	SampleRate      int
	Channels        int
	Threshold       float64

	// Windows holds the probed evidence in probe order. Short-circuited
	// evaluations stop at the first active window.
	Windows []ProbeWindow
	// MaxPeak is the loudest peak seen in any probed window.
	MaxPeak float64

	// IsSilent is true iff every probed window peak < Threshold.
	IsSilent bool
	// Empty marks a file with zero audio frames. Such files are silent,
	// but reporting must distinguish them from recorded silence.
	Empty bool
}

// ProbeOffsets returns the deterministic probe start frames for a file.
//
// A file no longer than one window gets a single probe at frame zero.
// Otherwise offsets are linearly interpolated across
// [0, totalFrames-framesPerWindow], inclusive of both ends, truncated to
// integer frames. Duplicate offsets from short files collapse to one
// probe each, so the returned count may be less than numSamples.
func ProbeOffsets(totalFrames, framesPerWindow int64, numSamples int) []int64 {
	if totalFrames <= 0 || framesPerWindow <= 0 {
		return nil
	}
	if totalFrames <= framesPerWindow || numSamples <= 1 {
		return []int64{0}
	}

	maxStart := totalFrames - framesPerWindow
	offsets := make([]int64, 0, numSamples)
	last := int64(-1)
	for i := 0; i < numSamples; i++ {
		off := int64(float64(maxStart) * float64(i) / float64(numSamples-1))
		if off != last {
			offsets = append(offsets, off)
			last = off
		}
	}
	return offsets
}

// Classify probes the file behind r and returns its verdict.
//
// Evaluation short-circuits on the first window at or above the
// threshold; the verdict is identical to full evaluation. A read failure
// aborts classification with an error so the caller records the file as
// errored, never as silent.
func Classify(ctx context.Context, r *wavio.Reader, p Params) (Verdict, error) {
	h := r.Handle()
	v := Verdict{
		Path:            h.Path,
		SizeBytes:       h.SizeBytes,
		DurationSeconds: h.DurationSeconds(),
		SampleRate:      h.SampleRate,
		Channels:        h.Channels,
		Threshold:       p.Threshold,
		IsSilent:        true,
	}

	if h.TotalFrames == 0 {
		v.Empty = true
		return v, nil
	}

	framesPerWindow := int64(h.SampleRate) * int64(p.IntervalSeconds)
	if framesPerWindow <= 0 {
		return Verdict{}, fmt.Errorf("classify %s: invalid probe window (%d Hz x %d s)", h.Path, h.SampleRate, p.IntervalSeconds)
	}

	for _, off := range ProbeOffsets(h.TotalFrames, framesPerWindow, p.NumSamples) {
		samples, err := r.ReadWindow(ctx, off, framesPerWindow)
		if err != nil {
			return Verdict{}, fmt.Errorf("classify %s: probe at frame %d: %w", h.Path, off, err)
		}

		peak := peakAbs(samples)
		v.Windows = append(v.Windows, ProbeWindow{
			StartFrame: off,
			NumFrames:  int64(len(samples) / h.Channels),
			Peak:       peak,
		})
		if peak > v.MaxPeak {
			v.MaxPeak = peak
		}

		if peak >= p.Threshold {
			v.IsSilent = false
			break
		}
	}

	return v, nil
}

// peakAbs returns the maximum absolute value in samples.
func peakAbs(samples []float64) float64 {
	peak := 0.0
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
