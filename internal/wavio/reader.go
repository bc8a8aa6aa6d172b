// Package wavio provides random-access window reads over WAV files.
// It parses the container header with github.com/go-audio/wav, then reads
// bounded windows of PCM frames directly from the data chunk, so memory
// use stays proportional to one window regardless of file duration.
package wavio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/wav"
)

// Static errors for window reading.
var (
	// ErrUnreadable is returned when a file cannot be opened or is not a
	// parseable WAV container.
	ErrUnreadable = errors.New("wavio: unreadable audio file")
	// ErrRead is returned when a requested window yields zero frames.
	ErrRead = errors.New("wavio: window read failed")
	// ErrUnsupportedFormat is returned for sample formats the reader
	// cannot decode.
	ErrUnsupportedFormat = errors.New("wavio: unsupported sample format")
)

// wavFormatIEEEFloat is the WAVE format tag for IEEE float PCM.
const wavFormatIEEEFloat = 3

// Handle describes one opened audio file. It is immutable after Open.
type Handle struct {
	Path        string
	SizeBytes   int64
	SampleRate  int
	Channels    int
	BitDepth    int
	TotalFrames int64
	FloatPCM    bool
}

// DurationSeconds returns the audio duration derived from the frame count.
func (h Handle) DurationSeconds() float64 {
	if h.SampleRate <= 0 {
		return 0
	}
	return float64(h.TotalFrames) / float64(h.SampleRate)
}

// Reader exposes random-access reads of bounded frame windows from one
// WAV file. It is not safe for concurrent use; each worker owns its own
// Reader per file.
type Reader struct {
	f          *os.File
	handle     Handle
	dataOffset int64
	blockAlign int64
}

// Open opens path as a WAV file and probes its metadata.
// Truncated data chunks are tolerated: the usable frame count is clipped
// to what is actually present on disk.
func Open(path string) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s: not a regular file", ErrUnreadable, path)
	}

	f, err := os.Open(path) // #nosec G304 - path comes from the scan walk
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 || dec.BitDepth == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: invalid WAV metadata", ErrUnreadable, path)
	}
	if err := dec.FwdToPCM(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	// The decoder leaves the file positioned at the first PCM byte.
	dataOffset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	blockAlign := int64(dec.NumChans) * int64(dec.BitDepth/8)
	if blockAlign <= 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: bit depth %d", ErrUnsupportedFormat, path, dec.BitDepth)
	}

	headerFrames := dec.PCMLen() / blockAlign
	onDiskFrames := (info.Size() - dataOffset) / blockAlign
	totalFrames := headerFrames
	if onDiskFrames < totalFrames {
		totalFrames = onDiskFrames
	}
	if totalFrames < 0 {
		totalFrames = 0
	}

	r := &Reader{
		f: f,
		handle: Handle{
			Path:        path,
			SizeBytes:   info.Size(),
			SampleRate:  int(dec.SampleRate),
			Channels:    int(dec.NumChans),
			BitDepth:    int(dec.BitDepth),
			TotalFrames: totalFrames,
			FloatPCM:    dec.WavAudioFormat == wavFormatIEEEFloat,
		},
		dataOffset: dataOffset,
		blockAlign: blockAlign,
	}

	if err := r.checkFormat(); err != nil {
		_ = f.Close()
		return nil, err
	}

	return r, nil
}

// Handle returns the immutable metadata for the opened file.
func (r *Reader) Handle() Handle {
	return r.handle
}

// checkFormat rejects sample layouts decodeSamples cannot handle.
func (r *Reader) checkFormat() error {
	h := r.handle
	if h.FloatPCM {
		if h.BitDepth != 32 && h.BitDepth != 64 {
			return fmt.Errorf("%w: %d-bit float", ErrUnsupportedFormat, h.BitDepth)
		}
		return nil
	}
	switch h.BitDepth {
	case 8, 16, 24, 32:
		return nil
	}
	return fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, h.BitDepth)
}

// ReadWindow reads up to numFrames interleaved frames starting at
// startFrame and returns them as normalized samples in [-1, 1].
// A window extending past end-of-stream is clipped to the available
// frames; a window with zero available frames returns ErrRead.
func (r *Reader) ReadWindow(ctx context.Context, startFrame, numFrames int64) ([]float64, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("wavio: read window: %w", ctx.Err())
	default:
	}

	if startFrame < 0 || numFrames <= 0 {
		return nil, fmt.Errorf("%w: invalid window [%d, +%d)", ErrRead, startFrame, numFrames)
	}

	available := r.handle.TotalFrames - startFrame
	if available <= 0 {
		return nil, fmt.Errorf("%w: offset %d beyond end of stream (%d frames)", ErrRead, startFrame, r.handle.TotalFrames)
	}
	if numFrames > available {
		numFrames = available
	}

	if _, err := r.f.Seek(r.dataOffset+startFrame*r.blockAlign, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: seek to frame %d: %v", ErrRead, startFrame, err)
	}

	buf := make([]byte, numFrames*r.blockAlign)
	n, err := io.ReadFull(r.f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: frame %d: %v", ErrRead, startFrame, err)
	}

	// Keep only whole frames of what was actually read.
	frames := int64(n) / r.blockAlign
	if frames == 0 {
		return nil, fmt.Errorf("%w: zero frames at offset %d", ErrRead, startFrame)
	}
	buf = buf[:frames*r.blockAlign]

	return r.decodeSamples(buf), nil
}

// decodeSamples converts raw little-endian PCM bytes to normalized
// float64 samples, interleaved by channel.
func (r *Reader) decodeSamples(buf []byte) []float64 {
	h := r.handle
	bytesPerSample := h.BitDepth / 8
	out := make([]float64, len(buf)/bytesPerSample)

	switch {
	case h.FloatPCM && h.BitDepth == 32:
		for i := range out {
			bits := binary.LittleEndian.Uint32(buf[i*4:])
			out[i] = float64(math.Float32frombits(bits))
		}
	case h.FloatPCM && h.BitDepth == 64:
		for i := range out {
			bits := binary.LittleEndian.Uint64(buf[i*8:])
			out[i] = math.Float64frombits(bits)
		}
	case h.BitDepth == 8:
		// 8-bit WAV is unsigned, centered at 128.
		for i := range out {
			out[i] = float64(int(buf[i])-128) / 128.0
		}
	case h.BitDepth == 16:
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(buf[i*2:]))
			out[i] = float64(v) / 32768.0
		}
	case h.BitDepth == 24:
		for i := range out {
			b := buf[i*3 : i*3+3]
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if v&0x800000 != 0 {
				v -= 1 << 24
			}
			out[i] = float64(v) / 8388608.0
		}
	case h.BitDepth == 32:
		for i := range out {
			v := int32(binary.LittleEndian.Uint32(buf[i*4:]))
			out[i] = float64(v) / 2147483648.0
		}
	}

	return out
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
