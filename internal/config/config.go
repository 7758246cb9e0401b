package config

import "fmt"

const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultLogMaxSize  = 10
	DefaultLogBackups  = 3
	DefaultSampleRate  = 16000
	DefaultConfigEnv   = "SUNO_CORE_CONFIG"
	DefaultConfigFile  = "SUNO_CONFIG_FILE"
	maxSupportedThread = 256
)

// Config captures library configuration read from a YAML file, an injected
// JSON payload (`SUNO_CORE_CONFIG`) and individual environment variables.
// Model paths and languages are not part of it: they arrive through
// suno_init.
type Config struct {
	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
	// LogFile switches logging from stderr to a rotated file.
	LogFile       string `yaml:"log_file" json:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb" json:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups" json:"log_max_backups"`

	UseStubEngine  bool  `yaml:"use_stub_engine" json:"use_stub_engine"`
	UseGPU         *bool `yaml:"use_gpu" json:"use_gpu"`
	FlashAttention *bool `yaml:"flash_attention" json:"flash_attention"`
	Threads        *int  `yaml:"threads" json:"threads"`
	BeamSize       *int  `yaml:"beam_size" json:"beam_size"`

	// RecognizerSampleRate is the rate audio is resampled to before
	// recognition.
	RecognizerSampleRate int `yaml:"recognizer_sample_rate" json:"recognizer_sample_rate"`
}

// Validate applies defaults and rejects out-of-range values.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	switch c.LogFormat {
	case "":
		c.LogFormat = DefaultLogFormat
	case "text", "json":
	default:
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = DefaultLogMaxSize
	}
	if c.LogMaxSizeMB < 0 {
		return fmt.Errorf("config: log_max_size_mb must be > 0, got %d", c.LogMaxSizeMB)
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = DefaultLogBackups
	}
	if c.LogMaxBackups < 0 {
		return fmt.Errorf("config: log_max_backups must be >= 0, got %d", c.LogMaxBackups)
	}
	if c.RecognizerSampleRate == 0 {
		c.RecognizerSampleRate = DefaultSampleRate
	}
	if c.RecognizerSampleRate < 0 {
		return fmt.Errorf("config: recognizer_sample_rate must be > 0, got %d", c.RecognizerSampleRate)
	}
	if c.Threads != nil {
		switch {
		case *c.Threads < 0:
			return fmt.Errorf("config: threads must be >= 0, got %d", *c.Threads)
		case *c.Threads == 0:
			c.Threads = nil
		case *c.Threads > maxSupportedThread:
			return fmt.Errorf("config: threads must be <= %d, got %d", maxSupportedThread, *c.Threads)
		}
	}
	if c.BeamSize != nil && *c.BeamSize < 1 {
		return fmt.Errorf("config: beam_size must be >= 1, got %d", *c.BeamSize)
	}
	return nil
}
