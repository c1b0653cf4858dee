// Package config defines process configuration and its layered loading.
//
// Precedence (low -> high): defaults, YAML file, environment variables with
// the EXPERTISE_ prefix. The resulting Config is built once at startup and
// passed by pointer; there is no ambient global state.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains process configuration.
type Config struct {
	// WatchRoot is the directory watched recursively in watch mode.
	WatchRoot string `koanf:"watch_root"`

	// DBPath locates the SQLite expertise log.
	DBPath string `koanf:"db_path"`

	// OllamaURL is the analysis backend base URL.
	OllamaURL string `koanf:"ollama_url"`

	// Model is the backend model name.
	Model string `koanf:"model"`

	// FileTimeoutSec bounds the wait for file-content analysis.
	FileTimeoutSec int `koanf:"file_timeout_seconds"`

	// CommitTimeoutSec bounds the wait for commit analysis; diffs can be
	// large, so it gets the longer default.
	CommitTimeoutSec int `koanf:"commit_timeout_seconds"`

	// Workers sets the number of pipeline workers in watch mode.
	Workers int `koanf:"workers"`

	// QueueSize bounds the channel between the watcher and the workers.
	QueueSize int `koanf:"queue_size"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `koanf:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DBPath:           filepath.Join(home, ".expertise-engine", "expertise.db"),
		OllamaURL:        "http://localhost:11434",
		Model:            "mistral",
		FileTimeoutSec:   120,
		CommitTimeoutSec: 180,
		Workers:          1,
		QueueSize:        64,
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and
// env vars. path may be empty, in which case EXPERTISE_CONFIG is consulted.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("EXPERTISE_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// EXPERTISE_WATCH_ROOT -> watch_root, etc. Underscores are preserved to
	// match the koanf tags on the struct.
	envProvider := env.Provider("EXPERTISE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "EXPERTISE_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants shared by every mode.
func (c *Config) Validate() error {
	if c.OllamaURL == "" {
		return errors.New("ollama_url must not be empty")
	}
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.QueueSize < 1 {
		return errors.New("queue_size must be at least 1")
	}
	return nil
}

// FileTimeout returns the file analysis bound as a duration.
func (c *Config) FileTimeout() time.Duration {
	return time.Duration(c.FileTimeoutSec) * time.Second
}

// CommitTimeout returns the commit analysis bound as a duration.
func (c *Config) CommitTimeout() time.Duration {
	return time.Duration(c.CommitTimeoutSec) * time.Second
}
