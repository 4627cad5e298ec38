package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/subtitle-kit/subkit/internal/translate"
)

// Config is the process configuration. Values come from (lowest to
// highest precedence) built-in defaults, an optional YAML file, and
// environment variables.
type Config struct {
	Addr        string   `yaml:"addr"`     // serve listen address
	DataDir     string   `yaml:"data_dir"` // working dir for UI uploads and outputs
	CORSOrigins []string `yaml:"cors_origins"`

	Whisper   WhisperConfig    `yaml:"whisper"`
	Translate translate.Config `yaml:"translate"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// WhisperConfig selects and parameterizes the recognition engine.
type WhisperConfig struct {
	Engine      string `yaml:"engine"`     // "local" or "server"
	Binary      string `yaml:"binary"`     // local engine binary name/path
	ServerURL   string `yaml:"server_url"` // whisper server base URL
	ModelSize   string `yaml:"model_size"`
	Language    string `yaml:"language"`
	Device      string `yaml:"device"`
	ComputeType string `yaml:"compute_type"`
	NoVAD       bool   `yaml:"no_vad"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultPath is the config file consulted when --config is not given.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "subkit", "config.yaml")
	}
	return ""
}

// Load builds the configuration. A missing file at the default path is
// fine; an explicitly requested file must exist.
func Load(path string) (*Config, error) {
	cfg := defaults()

	explicit := path != ""
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case explicit:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(cfg)
	cfg.Translate.Defaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Addr:        ":8570",
		DataDir:     filepath.Join(os.TempDir(), "subkit"),
		CORSOrigins: []string{"*"},
		Whisper: WhisperConfig{
			Engine:      "local",
			ModelSize:   "base",
			Language:    "zh",
			Device:      "auto",
			ComputeType: "int8_float16",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func applyEnv(cfg *Config) {
	cfg.Addr = getEnv("SUBKIT_ADDR", cfg.Addr)
	cfg.DataDir = getEnv("SUBKIT_DATA_DIR", cfg.DataDir)
	cfg.Whisper.Engine = getEnv("SUBKIT_WHISPER_ENGINE", cfg.Whisper.Engine)
	cfg.Whisper.Binary = getEnv("SUBKIT_WHISPER_BINARY", cfg.Whisper.Binary)
	cfg.Whisper.ServerURL = getEnv("SUBKIT_WHISPER_SERVER", cfg.Whisper.ServerURL)
	cfg.Translate.BaseURL = getEnv("SUBKIT_API_BASE", cfg.Translate.BaseURL)
	cfg.Translate.APIKey = getEnv("SUBKIT_API_KEY", cfg.Translate.APIKey)
	cfg.Translate.Model = getEnv("SUBKIT_MODEL", cfg.Translate.Model)
	cfg.Logging.Level = getEnv("SUBKIT_LOG_LEVEL", cfg.Logging.Level)

	if v := os.Getenv("SUBKIT_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Translate.BatchSize = n
		}
	}
	if v := os.Getenv("SUBKIT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Translate.Concurrency = n
		}
	}
}

func (c *Config) validate() error {
	switch c.Whisper.Engine {
	case "local", "server":
	default:
		return fmt.Errorf("whisper.engine must be \"local\" or \"server\", got %q", c.Whisper.Engine)
	}
	if c.Whisper.Engine == "server" && c.Whisper.ServerURL == "" {
		return fmt.Errorf("whisper.server_url is required when whisper.engine is \"server\"")
	}
	if c.Translate.BatchSize <= 0 {
		return fmt.Errorf("translate.batch_size must be positive")
	}
	if c.Translate.Concurrency <= 0 {
		return fmt.Errorf("translate.concurrency must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
