package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nupi-ai/plugin-suno-core/internal/audio"
	"github.com/nupi-ai/plugin-suno-core/internal/config"
	"github.com/nupi-ai/plugin-suno-core/internal/engine"
	"github.com/nupi-ai/plugin-suno-core/internal/status"
	"github.com/nupi-ai/plugin-suno-core/internal/translate"
)

const phrasebookYAML = `
source: en
target: fr
entries:
  hello: bonjour
  this is: c'est
  seconds: secondes
  of: de
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeModels(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	whisper := filepath.Join(dir, "w.model")
	phrasebook := filepath.Join(dir, "g.model")
	require.NoError(t, os.WriteFile(whisper, []byte("ggml"), 0o644))
	require.NoError(t, os.WriteFile(phrasebook, []byte(phrasebookYAML), 0o644))
	return whisper, phrasebook
}

func stubConfig() config.Config {
	cfg := config.Config{UseStubEngine: true}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

func TestOptionsNormalize(t *testing.T) {
	opts, err := Options{
		WhisperModelPath:     " w.model ",
		TranslationModelPath: "g.model",
		SourceLang:           "EN-us",
		TargetLang:           "pt-BR",
	}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "w.model", opts.WhisperModelPath)
	assert.Equal(t, "en", opts.SourceLang)
	assert.Equal(t, "pt", opts.TargetLang)
	assert.False(t, opts.SameLanguage())

	auto, err := Options{WhisperModelPath: "w", TranslationModelPath: "g", SourceLang: "Auto", TargetLang: "fr"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, AutoLanguage, auto.SourceLang)

	same, err := Options{WhisperModelPath: "w", TranslationModelPath: "g", SourceLang: "fr", TargetLang: "fr-CA"}.Normalize()
	require.NoError(t, err)
	assert.True(t, same.SameLanguage())
}

func TestOptionsNormalizeRejectsInvalid(t *testing.T) {
	valid := Options{WhisperModelPath: "w", TranslationModelPath: "g", SourceLang: "en", TargetLang: "fr"}
	cases := map[string]func(o *Options){
		"missing whisper":     func(o *Options) { o.WhisperModelPath = "  " },
		"missing translation": func(o *Options) { o.TranslationModelPath = "" },
		"empty source":        func(o *Options) { o.SourceLang = "" },
		"auto target":         func(o *Options) { o.TargetLang = "auto" },
		"malformed source":    func(o *Options) { o.SourceLang = "not a language" },
		"malformed target":    func(o *Options) { o.TargetLang = "!!" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := valid
			mutate(&opts)
			_, err := opts.Normalize()
			assert.ErrorIs(t, err, status.ErrInvalidInput)
		})
	}
}

func TestNewAndProcessWithStubEngine(t *testing.T) {
	whisper, phrasebook := writeModels(t)
	p, err := New(context.Background(), stubConfig(), Options{
		WhisperModelPath:     whisper,
		TranslationModelPath: phrasebook,
		SourceLang:           "en",
		TargetLang:           "fr",
	}, discardLogger())
	require.NoError(t, err)
	defer p.Close()

	chunk := audio.Chunk{Samples: make([]float32, 16000), SampleRate: 16000, Channels: 1}
	tr, err := p.ProcessAudio(context.Background(), chunk)
	require.NoError(t, err)
	assert.Equal(t, "hello, this is 1.00 seconds of audio", tr.Original)
	assert.Equal(t, "bonjour, c'est 1.00 secondes de audio", tr.Translated)
	assert.Equal(t, float32(engine.StubConfidence), tr.Confidence)
}

func TestProcessPreparesAudio(t *testing.T) {
	whisper, phrasebook := writeModels(t)
	p, err := New(context.Background(), stubConfig(), Options{
		WhisperModelPath:     whisper,
		TranslationModelPath: phrasebook,
		SourceLang:           "en",
		TargetLang:           "fr",
	}, discardLogger())
	require.NoError(t, err)
	defer p.Close()

	// One second of 48 kHz stereo becomes one second of 16 kHz mono.
	chunk := audio.Chunk{Samples: make([]float32, 96000), SampleRate: 48000, Channels: 2}
	tr, err := p.ProcessAudio(context.Background(), chunk)
	require.NoError(t, err)
	assert.Equal(t, "hello, this is 1.00 seconds of audio", tr.Original)
}

func TestNewFailsOnBadModels(t *testing.T) {
	whisper, phrasebook := writeModels(t)
	dir := t.TempDir()

	_, err := New(context.Background(), stubConfig(), Options{
		WhisperModelPath:     filepath.Join(dir, "missing.bin"),
		TranslationModelPath: phrasebook,
		SourceLang:           "en",
		TargetLang:           "fr",
	}, discardLogger())
	assert.ErrorIs(t, err, engine.ErrModelNotFound)

	garbage := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("::: not yaml"), 0o644))
	_, err = New(context.Background(), stubConfig(), Options{
		WhisperModelPath:     whisper,
		TranslationModelPath: garbage,
		SourceLang:           "en",
		TargetLang:           "fr",
	}, discardLogger())
	assert.ErrorIs(t, err, translate.ErrInvalidModel)

	_, err = New(context.Background(), stubConfig(), Options{
		WhisperModelPath:     whisper,
		TranslationModelPath: phrasebook,
		SourceLang:           "en",
		TargetLang:           "de",
	}, discardLogger())
	assert.ErrorIs(t, err, translate.ErrInvalidModel)
}

type fakeRecognizer struct {
	result engine.Result
	err    error
	closed bool
}

func (f *fakeRecognizer) Transcribe(ctx context.Context, samples []float32, opts engine.Options) (engine.Result, error) {
	return f.result, f.err
}

func (f *fakeRecognizer) Close() error {
	f.closed = true
	return nil
}

type fakeTranslator struct {
	calls int
	err   error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, sourceLang string) (translate.Result, error) {
	f.calls++
	if f.err != nil {
		return translate.Result{}, f.err
	}
	return translate.Result{Text: "<" + text + ">", Coverage: 1}, nil
}

func (f *fakeTranslator) Close() error { return errors.New("translator close") }

func TestComposePassesConfidenceThrough(t *testing.T) {
	rec := &fakeRecognizer{result: engine.Result{Text: " raw ", Language: "en", Confidence: 1.25}}
	tr := &fakeTranslator{}
	p := Compose(rec, tr, Options{SourceLang: "en", TargetLang: "fr"}, 0, discardLogger())

	got, err := p.ProcessAudio(context.Background(), audio.Chunk{Samples: []float32{0}, SampleRate: 16000, Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, Translation{Original: "raw", Translated: "<raw>", Confidence: 1.25}, got)

	err = p.Close()
	assert.True(t, rec.closed)
	assert.EqualError(t, err, "translator close")
}

func TestComposeSkipsTranslationWhenNotNeeded(t *testing.T) {
	tr := &fakeTranslator{}

	same := Compose(&fakeRecognizer{result: engine.Result{Text: "salut", Language: "fr"}}, tr, Options{SourceLang: "fr", TargetLang: "fr"}, 0, nil)
	got, err := same.ProcessAudio(context.Background(), audio.Chunk{SampleRate: 16000, Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, "salut", got.Translated)

	detected := Compose(&fakeRecognizer{result: engine.Result{Text: "salut", Language: "fr"}}, tr, Options{SourceLang: AutoLanguage, TargetLang: "fr"}, 0, nil)
	got, err = detected.ProcessAudio(context.Background(), audio.Chunk{SampleRate: 16000, Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, "salut", got.Translated)

	silent := Compose(&fakeRecognizer{result: engine.Result{Language: "en"}}, tr, Options{SourceLang: "en", TargetLang: "fr"}, 0, nil)
	got, err = silent.ProcessAudio(context.Background(), audio.Chunk{SampleRate: 16000, Channels: 1})
	require.NoError(t, err)
	assert.Equal(t, Translation{}, got)

	assert.Zero(t, tr.calls)
}

func TestComposePropagatesFailures(t *testing.T) {
	boom := errors.New("boom")

	p := Compose(&fakeRecognizer{err: boom}, &fakeTranslator{}, Options{SourceLang: "en", TargetLang: "fr"}, 0, nil)
	_, err := p.ProcessAudio(context.Background(), audio.Chunk{SampleRate: 16000, Channels: 1})
	assert.ErrorIs(t, err, boom)

	p = Compose(&fakeRecognizer{result: engine.Result{Text: "hi", Language: "en"}}, &fakeTranslator{err: boom}, Options{SourceLang: "en", TargetLang: "fr"}, 0, nil)
	_, err = p.ProcessAudio(context.Background(), audio.Chunk{SampleRate: 16000, Channels: 1})
	assert.ErrorIs(t, err, boom)
}

func TestProcessRefusesOversizedResample(t *testing.T) {
	rec := &fakeRecognizer{result: engine.Result{Text: "never", Language: "en"}}
	p := Compose(rec, &fakeTranslator{}, Options{SourceLang: "en", TargetLang: "fr"}, 16000, nil)

	chunk := audio.Chunk{Samples: make([]float32, 5_000_000), SampleRate: 1000, Channels: 1}
	_, err := p.ProcessAudio(context.Background(), chunk)
	assert.ErrorIs(t, err, status.ErrInvalidInput)
}
