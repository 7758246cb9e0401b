package engine

import (
	"context"
	"testing"
)

func BenchmarkStubEngineTranscribe(b *testing.B) {
	eng := NewStubEngine(nil, "base")
	samples := make([]float32, SampleRate)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := eng.Transcribe(ctx, samples, Options{Language: "en"}); err != nil {
			b.Fatalf("Transcribe failed: %v", err)
		}
	}
}
