package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/nupi-ai/plugin-suno-core/internal/status"
)

// AutoLanguage asks the recogniser to detect the spoken language.
const AutoLanguage = "auto"

// Options names the models and the language pair of a pipeline.
type Options struct {
	WhisperModelPath     string
	TranslationModelPath string
	SourceLang           string
	TargetLang           string
}

// Normalize trims whitespace and canonicalises the language codes. Invalid
// options are reported with status.ErrInvalidInput.
func (o Options) Normalize() (Options, error) {
	o.WhisperModelPath = strings.TrimSpace(o.WhisperModelPath)
	o.TranslationModelPath = strings.TrimSpace(o.TranslationModelPath)
	if o.WhisperModelPath == "" {
		return Options{}, fmt.Errorf("pipeline: whisper model path is required: %w", status.ErrInvalidInput)
	}
	if o.TranslationModelPath == "" {
		return Options{}, fmt.Errorf("pipeline: translation model path is required: %w", status.ErrInvalidInput)
	}

	source, err := canonicalLanguage(o.SourceLang, true)
	if err != nil {
		return Options{}, fmt.Errorf("pipeline: source language: %w", err)
	}
	target, err := canonicalLanguage(o.TargetLang, false)
	if err != nil {
		return Options{}, fmt.Errorf("pipeline: target language: %w", err)
	}
	o.SourceLang = source
	o.TargetLang = target
	return o, nil
}

// SameLanguage reports whether no translation step is needed.
func (o Options) SameLanguage() bool {
	return o.SourceLang != AutoLanguage && o.SourceLang == o.TargetLang
}

func canonicalLanguage(code string, allowAuto bool) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", fmt.Errorf("empty language code: %w", status.ErrInvalidInput)
	}
	if strings.EqualFold(trimmed, AutoLanguage) {
		if !allowAuto {
			return "", fmt.Errorf("%q is only valid as source language: %w", trimmed, status.ErrInvalidInput)
		}
		return AutoLanguage, nil
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%q: %v: %w", trimmed, err, status.ErrInvalidInput)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("%q has no base language: %w", trimmed, status.ErrInvalidInput)
	}
	return base.String(), nil
}
