//go:build whispercpp

package engine

import (
	"context"
	"testing"
)

func BenchmarkNativeEngineTranscribe(b *testing.B) {
	if !NativeAvailable() {
		b.Skip("native backend not available")
	}

	engine := openTestNativeEngine(b)
	samples := loadTestAudio(b)
	if len(samples) > 2*SampleRate {
		samples = samples[:2*SampleRate]
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Transcribe(ctx, samples, Options{Language: "en"}); err != nil {
			b.Fatalf("Transcribe failed: %v", err)
		}
	}
}
