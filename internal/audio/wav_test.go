package audio

import (
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, data []int, rate, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	return path
}

func TestReadWAV(t *testing.T) {
	path := writeWAV(t, []int{0, 16384, -16384, 32767}, 8000, 2)
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	chunk, err := ReadWAV(f)
	require.NoError(t, err)
	assert.Equal(t, 8000, chunk.SampleRate)
	assert.Equal(t, 2, chunk.Channels)
	assert.Equal(t, 2, chunk.Frames())
	assert.InDeltaSlice(t, []float32{0, 0.5, -0.5, 0.99997}, chunk.Samples, 1e-4)
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(path, []byte("definitely not RIFF"), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = ReadWAV(f)
	assert.Error(t, err)
}
