// Package audio converts caller-described sample buffers into owned chunks
// and provides the small amount of signal shaping the recogniser needs.
package audio

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/nupi-ai/plugin-suno-core/internal/status"
)

// MaxSamples bounds a single chunk, before and after resampling, so that a
// corrupt descriptor cannot trigger an unbounded allocation (~8.7 minutes of
// 8-channel 16 kHz audio).
const MaxSamples = 1 << 26

// Accepted sample rates, in Hz.
const (
	MinSampleRate = 1000
	MaxSampleRate = 384000
)

// View describes a caller-owned buffer of interleaved float32 samples. It
// does not own Data; nothing reads through it after Copy returns.
type View struct {
	Data       unsafe.Pointer
	Length     int
	SampleRate uint32
	Channels   uint16
}

// Chunk is an owned audio buffer independent from any caller memory.
type Chunk struct {
	Samples    []float32
	SampleRate int
	Channels   int
	Timestamp  time.Time
}

// Validate checks the descriptor without touching Data.
func (v *View) Validate() error {
	if v == nil {
		return fmt.Errorf("audio: nil descriptor: %w", status.ErrInvalidInput)
	}
	if v.Data == nil {
		return fmt.Errorf("audio: nil sample pointer: %w", status.ErrInvalidInput)
	}
	if v.Length < 0 || v.Length > MaxSamples {
		return fmt.Errorf("audio: length %d out of range: %w", v.Length, status.ErrInvalidInput)
	}
	if v.SampleRate < MinSampleRate || v.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio: sample rate %d Hz outside [%d, %d]: %w", v.SampleRate, MinSampleRate, MaxSampleRate, status.ErrInvalidInput)
	}
	if v.Channels == 0 {
		return fmt.Errorf("audio: channel count must be positive: %w", status.ErrInvalidInput)
	}
	if v.Length%int(v.Channels) != 0 {
		return fmt.Errorf("audio: length %d is not a multiple of %d channels: %w", v.Length, v.Channels, status.ErrInvalidInput)
	}
	return nil
}

// Copy validates the descriptor and copies every sample into a new Chunk
// stamped with captured.
func (v *View) Copy(captured time.Time) (Chunk, error) {
	if err := v.Validate(); err != nil {
		return Chunk{}, err
	}
	samples := make([]float32, v.Length)
	if v.Length > 0 {
		copy(samples, unsafe.Slice((*float32)(v.Data), v.Length))
	}
	return Chunk{
		Samples:    samples,
		SampleRate: int(v.SampleRate),
		Channels:   int(v.Channels),
		Timestamp:  captured,
	}, nil
}

// Frames returns the number of per-channel frames in the chunk.
func (c Chunk) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playback length of the chunk.
func (c Chunk) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Mono averages interleaved channels into a single channel. A mono chunk is
// returned unchanged.
func (c Chunk) Mono() Chunk {
	if c.Channels <= 1 {
		return c
	}
	frames := c.Frames()
	out := make([]float32, frames)
	scale := 1 / float32(c.Channels)
	for i := 0; i < frames; i++ {
		var sum float32
		base := i * c.Channels
		for ch := 0; ch < c.Channels; ch++ {
			sum += c.Samples[base+ch]
		}
		out[i] = sum * scale
	}
	return Chunk{
		Samples:    out,
		SampleRate: c.SampleRate,
		Channels:   1,
		Timestamp:  c.Timestamp,
	}
}
