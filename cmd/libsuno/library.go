package main

import (
	"log/slog"
	"os"
	"sync"

	"github.com/nupi-ai/plugin-suno-core/internal/boundary"
	"github.com/nupi-ai/plugin-suno-core/internal/config"
	"github.com/nupi-ai/plugin-suno-core/internal/logging"
	"github.com/nupi-ai/plugin-suno-core/internal/moduleinfo"
	"github.com/nupi-ai/plugin-suno-core/internal/pipeline"
	"github.com/nupi-ai/plugin-suno-core/internal/telemetry"
)

var (
	libraryOnce sync.Once
	shared      *boundary.API
)

// library returns the API instance backing the exported functions, building
// it from the environment on first use.
func library() *boundary.API {
	libraryOnce.Do(func() {
		cfg, cfgErr := config.Loader{}.Load()
		if cfgErr != nil {
			cfg = config.Config{}
			_ = cfg.Validate()
		}

		logger, _, err := logging.New(cfg, os.Stderr)
		if err != nil {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)}))
			logger.Warn("failed to open log file, logging to stderr", "error", err, "path", cfg.LogFile)
		}
		if cfgErr != nil {
			logger.Error("failed to load configuration, using defaults", "error", cfgErr)
		}

		logger.Info("library loaded",
			"module", moduleinfo.Info.Slug,
			"version", moduleinfo.Version,
			"stub_engine", cfg.UseStubEngine,
			"recognizer_sample_rate", cfg.RecognizerSampleRate,
		)

		recorder := telemetry.NewRecorder(logger)
		shared = boundary.New(pipeline.NewFactory(cfg, logger), logger, recorder)
	})
	return shared
}
