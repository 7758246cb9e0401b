package engine

import "github.com/nupi-ai/plugin-suno-core/internal/config"

// NativeOptions configures the native Whisper backend. Nil fields fall back
// to whisper.cpp defaults.
type NativeOptions struct {
	UseGPU         *bool
	FlashAttention *bool
	Threads        *int
	// BeamSize sets beam search size (1 for greedy sampling, >1 for beam search)
	BeamSize *int
}

// NativeOptionsFromConfig copies the whisper.cpp tuning knobs from cfg.
func NativeOptionsFromConfig(cfg config.Config) NativeOptions {
	return NativeOptions{
		UseGPU:         cfg.UseGPU,
		FlashAttention: cfg.FlashAttention,
		Threads:        cfg.Threads,
		BeamSize:       cfg.BeamSize,
	}
}
