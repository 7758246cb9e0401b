package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from an optional YAML file and environment
// variables. Tests can override Lookup and ReadFile to inject deterministic
// inputs.
type Loader struct {
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load resolves the configuration in order: defaults, YAML file named by
// SUNO_CONFIG_FILE, JSON payload in SUNO_CORE_CONFIG, individual variables.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	var cfg Config

	if path, ok := l.Lookup(DefaultConfigFile); ok && strings.TrimSpace(path) != "" {
		if err := l.applyYAML(strings.TrimSpace(path), &cfg); err != nil {
			return Config{}, err
		}
	}

	if raw, ok := l.Lookup(DefaultConfigEnv); ok && strings.TrimSpace(raw) != "" {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "SUNO_LOG_LEVEL", &cfg.LogLevel)
	overrideString(l.Lookup, "SUNO_LOG_FORMAT", &cfg.LogFormat)
	overrideString(l.Lookup, "SUNO_LOG_FILE", &cfg.LogFile)
	if err := overrideBool(l.Lookup, "SUNO_USE_STUB_ENGINE", &cfg.UseStubEngine); err != nil {
		return Config{}, err
	}
	if err := overrideBoolPtr(l.Lookup, "WHISPERCPP_USE_GPU", &cfg.UseGPU); err != nil {
		return Config{}, err
	}
	if err := overrideBoolPtr(l.Lookup, "WHISPERCPP_FLASH_ATTENTION", &cfg.FlashAttention); err != nil {
		return Config{}, err
	}
	if err := overrideIntPtr(l.Lookup, "WHISPERCPP_THREADS", &cfg.Threads); err != nil {
		return Config{}, err
	}
	if err := overrideIntPtr(l.Lookup, "WHISPERCPP_BEAM_SIZE", &cfg.BeamSize); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loader) applyYAML(path string, cfg *Config) error {
	data, err := l.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func applyJSON(raw string, cfg *Config) error {
	var payload Config
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("config: decode %s: %w", DefaultConfigEnv, err)
	}
	if payload.LogLevel != "" {
		cfg.LogLevel = payload.LogLevel
	}
	if payload.LogFormat != "" {
		cfg.LogFormat = payload.LogFormat
	}
	if payload.LogFile != "" {
		cfg.LogFile = payload.LogFile
	}
	if payload.LogMaxSizeMB != 0 {
		cfg.LogMaxSizeMB = payload.LogMaxSizeMB
	}
	if payload.LogMaxBackups != 0 {
		cfg.LogMaxBackups = payload.LogMaxBackups
	}
	if payload.UseStubEngine {
		cfg.UseStubEngine = true
	}
	if payload.UseGPU != nil {
		cfg.UseGPU = payload.UseGPU
	}
	if payload.FlashAttention != nil {
		cfg.FlashAttention = payload.FlashAttention
	}
	if payload.Threads != nil {
		cfg.Threads = payload.Threads
	}
	if payload.BeamSize != nil {
		cfg.BeamSize = payload.BeamSize
	}
	if payload.RecognizerSampleRate != 0 {
		cfg.RecognizerSampleRate = payload.RecognizerSampleRate
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func overrideBoolPtr(lookup func(string) (string, bool), key string, target **bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = &parsed
	return nil
}

func overrideIntPtr(lookup func(string) (string, bool), key string, target **int) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = &parsed
	return nil
}
