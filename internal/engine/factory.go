package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nupi-ai/plugin-suno-core/internal/config"
)

// ErrNativeEngineUnavailable indicates that the binary was built without the
// whisper.cpp backend.
var ErrNativeEngineUnavailable = errors.New("engine: native backend unavailable")

// ErrModelNotFound indicates that the model path does not name a readable file.
var ErrModelNotFound = errors.New("engine: model file not found")

// New checks the model path and returns an Engine. When the native backend is
// not compiled in, a stub engine is returned together with
// ErrNativeEngineUnavailable so callers can log the downgrade and continue.
func New(cfg config.Config, modelPath string, logger *slog.Logger) (Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := checkModelFile(modelPath); err != nil {
		return nil, err
	}

	if cfg.UseStubEngine {
		logger.Warn("stub engine forced by configuration", "model_path", modelPath)
		return NewStubEngine(logger, modelPath), nil
	}

	if NativeAvailable() {
		native, err := NewNativeEngine(modelPath, NativeOptionsFromConfig(cfg))
		if err != nil {
			logger.Error("native engine initialisation failed", "error", err, "model_path", modelPath)
			return nil, err
		}
		logger.Info("native engine ready", "model_path", modelPath)
		return native, nil
	}

	logger.Warn("native backend disabled at build time; using stub engine", "model_path", modelPath)
	return NewStubEngine(logger, modelPath), ErrNativeEngineUnavailable
}

func checkModelFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrModelNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrModelNotFound, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrModelNotFound, path)
	}
	return nil
}
