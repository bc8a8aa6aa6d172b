package wavio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWAV16 writes a 16-bit PCM WAV file with the given interleaved
// samples (full scale is ±32768).
func writeWAV16(t *testing.T, path string, sampleRate, channels int, samples []int) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	if len(samples) > 0 {
		buf := &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			Data:           samples,
			SourceBitDepth: 16,
		}
		require.NoError(t, enc.Write(buf))
	}
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}

func TestOpen_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	// 100 stereo frames
	samples := make([]int, 200)
	samples[0] = 16384
	writeWAV16(t, path, 48000, 2, samples)

	r, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	h := r.Handle()
	assert.Equal(t, path, h.Path)
	assert.Equal(t, 48000, h.SampleRate)
	assert.Equal(t, 2, h.Channels)
	assert.Equal(t, 16, h.BitDepth)
	assert.Equal(t, int64(100), h.TotalFrames)
	assert.False(t, h.FloatPCM)
	assert.Greater(t, h.SizeBytes, int64(0))
	assert.InDelta(t, 100.0/48000.0, h.DurationSeconds(), 1e-9)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "nope.wav"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnreadable)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Open(dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnreadable)
	})

	t.Run("corrupt header", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.wav")
		require.NoError(t, os.WriteFile(path, []byte("this is not a wav container"), 0600))

		_, err := Open(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnreadable)
	})
}

func TestOpen_EmptyStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.wav")
	writeWAV16(t, path, 44100, 1, nil)

	r, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	assert.Equal(t, int64(0), r.Handle().TotalFrames)
}

func TestReadWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "steps.wav")
	// Mono, frame i holds value i*100 so offsets are verifiable.
	samples := make([]int, 50)
	for i := range samples {
		samples[i] = i * 100
	}
	writeWAV16(t, path, 8000, 1, samples)

	r, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	ctx := context.Background()

	t.Run("full window", func(t *testing.T) {
		got, err := r.ReadWindow(ctx, 10, 5)
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.InDelta(t, 1000.0/32768.0, got[0], 1e-9)
		assert.InDelta(t, 1400.0/32768.0, got[4], 1e-9)
	})

	t.Run("clipped at end of stream", func(t *testing.T) {
		got, err := r.ReadWindow(ctx, 45, 20)
		require.NoError(t, err)
		assert.Len(t, got, 5)
	})

	t.Run("offset beyond end of stream", func(t *testing.T) {
		_, err := r.ReadWindow(ctx, 50, 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRead)
	})

	t.Run("invalid window", func(t *testing.T) {
		_, err := r.ReadWindow(ctx, -1, 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRead)

		_, err = r.ReadWindow(ctx, 0, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRead)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.ReadWindow(cctx, 0, 5)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestReadWindow_Normalization(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peaks.wav")
	writeWAV16(t, path, 8000, 1, []int{0, 16384, -32768, 1})

	r, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	got, err := r.ReadWindow(context.Background(), 0, 4)
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.InDelta(t, 0.0, got[0], 1e-9)
	assert.InDelta(t, 0.5, got[1], 1e-9)
	assert.InDelta(t, -1.0, got[2], 1e-9)
	// One LSB of 16-bit audio; must survive normalization as non-zero.
	assert.InDelta(t, 1.0/32768.0, got[3], 1e-12)
}

func TestReadWindow_InterleavedChannels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stereo.wav")
	// Stereo frames: L=1000, R=-2000 for every frame.
	samples := make([]int, 0, 20)
	for i := 0; i < 10; i++ {
		samples = append(samples, 1000, -2000)
	}
	writeWAV16(t, path, 8000, 2, samples)

	r, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	got, err := r.ReadWindow(context.Background(), 3, 2)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.InDelta(t, 1000.0/32768.0, got[0], 1e-9)
	assert.InDelta(t, -2000.0/32768.0, got[1], 1e-9)
	assert.InDelta(t, 1000.0/32768.0, got[2], 1e-9)
	assert.InDelta(t, -2000.0/32768.0, got[3], 1e-9)
}

func TestOpen_TruncatedData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.wav")
	samples := make([]int, 100)
	writeWAV16(t, path, 8000, 1, samples)

	// Chop off the last 20 bytes of PCM data; the header still claims
	// 100 frames but only 90 remain on disk.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-20))

	r, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	assert.Equal(t, int64(90), r.Handle().TotalFrames)

	got, err := r.ReadWindow(context.Background(), 80, 50)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}
