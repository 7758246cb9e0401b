package audio

import (
	"fmt"
	"math"

	"github.com/nupi-ai/plugin-suno-core/internal/status"
)

// Resample converts mono samples from one rate to another using cubic
// interpolation. Neighbours outside the buffer are clamped to the edges.
// An output longer than MaxSamples is refused with status.ErrInvalidInput.
func Resample(samples []float32, from, to int) ([]float32, error) {
	if from <= 0 || to <= 0 || from == to || len(samples) == 0 {
		return samples, nil
	}

	ratio := float64(to) / float64(from)
	size := math.Round(float64(len(samples)) * ratio)
	if size > MaxSamples {
		return nil, fmt.Errorf("audio: resampling %d samples from %d Hz to %d Hz exceeds %d samples: %w",
			len(samples), from, to, MaxSamples, status.ErrInvalidInput)
	}
	n := int(size)
	out := make([]float32, n)
	last := len(samples) - 1

	at := func(i int) float32 {
		if i < 0 {
			return samples[0]
		}
		if i > last {
			return samples[last]
		}
		return samples[i]
	}

	for i := 0; i < n; i++ {
		pos := float64(i) / ratio
		index := int(pos)
		frac := float32(pos - float64(index))

		y0, y1, y2, y3 := at(index-1), at(index), at(index+1), at(index+2)
		mu2 := frac * frac
		a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
		a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
		a2 := -0.5*y0 + 0.5*y2

		out[i] = a0*frac*mu2 + a1*mu2 + a2*frac + y1
	}
	return out, nil
}

// Prepare converts a chunk into mono audio at the requested rate.
func (c Chunk) Prepare(rate int) (Chunk, error) {
	mono := c.Mono()
	if mono.SampleRate == rate {
		return mono, nil
	}
	samples, err := Resample(mono.Samples, mono.SampleRate, rate)
	if err != nil {
		return Chunk{}, err
	}
	return Chunk{
		Samples:    samples,
		SampleRate: rate,
		Channels:   1,
		Timestamp:  mono.Timestamp,
	}, nil
}
