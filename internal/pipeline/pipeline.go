// Package pipeline composes speech recognition and text translation into the
// capability driven by the boundary.
package pipeline

import (
	"context"

	"github.com/nupi-ai/plugin-suno-core/internal/audio"
)

// Translation is the result of one pipeline run. Confidence is reported by
// the recogniser and is not clamped.
type Translation struct {
	Original   string
	Translated string
	Confidence float32
}

// Pipeline turns one chunk of audio into one Translation. Implementations
// must be safe for concurrent use and Close must wait for in-flight calls.
type Pipeline interface {
	ProcessAudio(ctx context.Context, chunk audio.Chunk) (Translation, error)
	Close() error
}

// Factory constructs a Pipeline from model paths and languages.
type Factory func(ctx context.Context, opts Options) (Pipeline, error)
