// Command suno-smoke drives the boundary in-process the same way a native
// host drives libsuno: init, one process call per chunk, free, cleanup.
package main

import (
	"fmt"
	"io"
	"os"
	"time"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/plugin-suno-core/internal/audio"
	"github.com/nupi-ai/plugin-suno-core/internal/boundary"
	"github.com/nupi-ai/plugin-suno-core/internal/config"
	"github.com/nupi-ai/plugin-suno-core/internal/handoff"
	"github.com/nupi-ai/plugin-suno-core/internal/logging"
	"github.com/nupi-ai/plugin-suno-core/internal/moduleinfo"
	"github.com/nupi-ai/plugin-suno-core/internal/pipeline"
	"github.com/nupi-ai/plugin-suno-core/internal/status"
	"github.com/nupi-ai/plugin-suno-core/internal/telemetry"
)

type options struct {
	whisperModel     string
	translationModel string
	sourceLang       string
	targetLang       string
	chunkSeconds     float64
	stub             bool
	metrics          bool
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:     "suno-smoke [input.wav]",
		Short:   "Translate a WAV file through the libsuno boundary",
		Version: moduleinfo.Version,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.whisperModel, "whisper-model", "w", "", "Path to the Whisper model file")
	cmd.Flags().StringVarP(&opts.translationModel, "translation-model", "t", "", "Path to the phrasebook translation model")
	cmd.Flags().StringVar(&opts.sourceLang, "source", pipeline.AutoLanguage, "Source language code or auto")
	cmd.Flags().StringVar(&opts.targetLang, "target", "en", "Target language code")
	cmd.Flags().Float64Var(&opts.chunkSeconds, "chunk", 5, "Chunk length in seconds")
	cmd.Flags().BoolVar(&opts.stub, "stub", false, "Use the stub recogniser")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print metrics after processing")
	_ = cmd.MarkFlagRequired("whisper-model")
	_ = cmd.MarkFlagRequired("translation-model")

	return cmd
}

func run(input string, opts options, out io.Writer) error {
	if opts.chunkSeconds <= 0 {
		return fmt.Errorf("chunk length must be positive, got %v", opts.chunkSeconds)
	}

	cfg, err := config.Loader{}.Load()
	if err != nil {
		return err
	}
	if opts.stub {
		cfg.UseStubEngine = true
	}
	logger, closer, err := logging.New(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()
	clip, err := audio.ReadWAV(f)
	if err != nil {
		return err
	}

	recorder := telemetry.NewRecorder(logger)
	api := boundary.New(pipeline.NewFactory(cfg, logger), logger, recorder)
	if code := api.InitStrings(opts.whisperModel, opts.translationModel, opts.sourceLang, opts.targetLang); code != status.OK {
		return fmt.Errorf("init failed with status %d", code)
	}
	defer api.Cleanup()

	frames := int(opts.chunkSeconds * float64(clip.SampleRate))
	if frames < 1 {
		frames = 1
	}
	step := frames * clip.Channels
	for start := 0; start < len(clip.Samples); start += step {
		end := min(start+step, len(clip.Samples))
		samples := clip.Samples[start:end]
		view := &audio.View{
			Data:       unsafe.Pointer(&samples[0]),
			Length:     len(samples),
			SampleRate: uint32(clip.SampleRate),
			Channels:   uint16(clip.Channels),
		}

		res, code := api.Process(view)
		if code != status.OK {
			return fmt.Errorf("process failed at %s with status %d", offset(start, clip), code)
		}
		original, origErr := handoff.GoString(res.Original)
		translated, transErr := handoff.GoString(res.Translated)
		api.FreeString(res.Original)
		api.FreeString(res.Translated)
		if origErr != nil {
			return origErr
		}
		if transErr != nil {
			return transErr
		}

		fmt.Fprintf(out, "[%s-%s] %s => %s (confidence %.2f)\n",
			offset(start, clip), offset(end, clip), original, translated, res.Confidence)
	}

	if opts.metrics {
		if err := recorder.WriteText(out); err != nil {
			return err
		}
	}
	if n := api.Outstanding(); n != 0 {
		return fmt.Errorf("%d strings left unreleased", n)
	}
	return nil
}

func offset(sample int, clip audio.Chunk) time.Duration {
	frames := sample / clip.Channels
	return time.Duration(frames) * time.Second / time.Duration(clip.SampleRate)
}
