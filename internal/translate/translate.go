// Package translate holds the text translation backends used after speech
// recognition.
package translate

import "context"

// Translator converts text from the source to the target language. Methods
// must be safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang string) (Result, error)
	Close() error
}

// Result is a translated text with the share of words the model covered.
type Result struct {
	Text     string
	Coverage float32
}
