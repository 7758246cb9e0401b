package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nupi-ai/plugin-suno-core/internal/audio"
	"github.com/nupi-ai/plugin-suno-core/internal/config"
	"github.com/nupi-ai/plugin-suno-core/internal/engine"
	"github.com/nupi-ai/plugin-suno-core/internal/translate"
)

// TranslationPipeline recognises speech with an engine.Engine and translates
// the transcript with a translate.Translator.
type TranslationPipeline struct {
	log        *slog.Logger
	opts       Options
	sampleRate int
	recognizer engine.Engine
	translator translate.Translator
}

// NewFactory returns a Factory that builds TranslationPipelines using cfg.
func NewFactory(cfg config.Config, logger *slog.Logger) Factory {
	return func(ctx context.Context, opts Options) (Pipeline, error) {
		return New(ctx, cfg, opts, logger)
	}
}

// New loads both models and returns a ready pipeline.
func New(ctx context.Context, cfg config.Config, opts Options, logger *slog.Logger) (*TranslationPipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recognizer, err := engine.New(cfg, opts.WhisperModelPath, logger)
	switch {
	case errors.Is(err, engine.ErrNativeEngineUnavailable) && recognizer != nil:
		logger.Warn("recogniser initialised with warnings", "error", err)
	case err != nil:
		return nil, fmt.Errorf("pipeline: load recogniser: %w", err)
	}

	translator, err := translate.LoadPhrasebook(opts.TranslationModelPath, opts.SourceLang, opts.TargetLang)
	if err != nil {
		if cerr := recognizer.Close(); cerr != nil {
			logger.Warn("failed to close recogniser", "error", cerr)
		}
		return nil, fmt.Errorf("pipeline: load translator: %w", err)
	}

	return Compose(recognizer, translator, opts, cfg.RecognizerSampleRate, logger), nil
}

// Compose assembles a pipeline from already constructed parts. opts must be
// normalised.
func Compose(recognizer engine.Engine, translator translate.Translator, opts Options, sampleRate int, logger *slog.Logger) *TranslationPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if sampleRate <= 0 {
		sampleRate = engine.SampleRate
	}
	return &TranslationPipeline{
		log: logger.With(
			"component", "pipeline",
			"source_lang", opts.SourceLang,
			"target_lang", opts.TargetLang,
		),
		opts:       opts,
		sampleRate: sampleRate,
		recognizer: recognizer,
		translator: translator,
	}
}

// ProcessAudio implements Pipeline.
func (p *TranslationPipeline) ProcessAudio(ctx context.Context, chunk audio.Chunk) (Translation, error) {
	prepared, err := chunk.Prepare(p.sampleRate)
	if err != nil {
		return Translation{}, fmt.Errorf("pipeline: prepare audio: %w", err)
	}

	recognised, err := p.recognizer.Transcribe(ctx, prepared.Samples, engine.Options{Language: p.opts.SourceLang})
	if err != nil {
		return Translation{}, fmt.Errorf("pipeline: recognise: %w", err)
	}
	original := strings.TrimSpace(recognised.Text)

	translated := original
	if original != "" && !p.opts.SameLanguage() && !strings.EqualFold(recognised.Language, p.opts.TargetLang) {
		res, err := p.translator.Translate(ctx, original, recognised.Language)
		if err != nil {
			return Translation{}, fmt.Errorf("pipeline: translate: %w", err)
		}
		translated = res.Text
		p.log.Debug("translated chunk",
			"duration_ms", prepared.Duration().Milliseconds(),
			"detected_lang", recognised.Language,
			"coverage", res.Coverage,
		)
	}

	return Translation{
		Original:   original,
		Translated: translated,
		Confidence: recognised.Confidence,
	}, nil
}

// Close releases both models.
func (p *TranslationPipeline) Close() error {
	return errors.Join(p.recognizer.Close(), p.translator.Close())
}
