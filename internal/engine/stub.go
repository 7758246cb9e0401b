package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nupi-ai/plugin-suno-core/internal/moduleinfo"
)

// StubConfidence is the fixed confidence reported by the stub engine.
const StubConfidence = 0.42

// StubEngine produces deterministic transcripts without invoking Whisper.
type StubEngine struct {
	log       *slog.Logger
	modelPath string
}

// NewStubEngine returns an Engine that generates placeholder transcripts.
func NewStubEngine(logger *slog.Logger, modelPath string) *StubEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubEngine{
		log: logger.With(
			"component", "engine.stub",
			"module", moduleinfo.Info.Slug,
			"model_path", modelPath,
		),
		modelPath: modelPath,
	}
}

// Close implements the Engine interface.
func (e *StubEngine) Close() error {
	return nil
}

// Transcribe implements the Engine interface.
func (e *StubEngine) Transcribe(ctx context.Context, samples []float32, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	lang := normaliseLanguage(opts.Language, "")
	if strings.EqualFold(lang, "auto") {
		lang = "en"
	}
	if len(samples) == 0 {
		return Result{Language: lang}, nil
	}
	seconds := float64(len(samples)) / SampleRate
	text := fmt.Sprintf("hello, this is %.2f seconds of audio", seconds)
	e.log.Debug("stub transcript", "samples", len(samples), "language", lang)
	return Result{
		Text:       text,
		Language:   lang,
		Confidence: StubConfidence,
	}, nil
}
