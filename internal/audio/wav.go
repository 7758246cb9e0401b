package audio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"
)

// ReadWAV decodes a PCM WAV stream into an interleaved float32 chunk in the
// range [-1, 1].
func ReadWAV(r io.ReadSeeker) (Chunk, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return Chunk{}, errors.New("audio: input is not a valid WAV file")
	}

	var divisor float32
	switch decoder.BitDepth {
	case 8:
		divisor = 128.0
	case 16:
		divisor = 32768.0
	case 24:
		divisor = 8388608.0
	case 32:
		divisor = 2147483648.0
	default:
		return Chunk{}, fmt.Errorf("audio: unsupported bit depth %d", decoder.BitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Chunk{}, fmt.Errorf("audio: decode wav: %w", err)
	}

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if decoder.BitDepth == 8 {
			v -= 128
		}
		samples[i] = float32(v) / divisor
	}

	return Chunk{
		Samples:    samples,
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
		Timestamp:  time.Now(),
	}, nil
}
