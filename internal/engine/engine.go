package engine

import "context"

// Engine recognises speech in a single chunk of audio. Implementations must
// be safe for concurrent use: independent calls share no scratch state.
type Engine interface {
	// Transcribe runs recognition over mono float32 samples at SampleRate.
	Transcribe(ctx context.Context, samples []float32, opts Options) (Result, error)
	// Close releases underlying resources. It waits for in-flight calls.
	Close() error
}

// SampleRate is the rate every engine expects its input at.
const SampleRate = 16000

// Options configures decoding for one call.
type Options struct {
	// Language is an ISO code or "auto" for detection.
	Language string
}

// Result represents a transcript produced by the engine.
type Result struct {
	Text       string
	Language   string
	Confidence float32
}
