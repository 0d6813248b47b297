package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for a discovery run.
// Zero values mean "unspecified" and are filled from Default.
type Config struct {
	OllamaBin         string `json:"ollama_bin" yaml:"ollama_bin" toml:"ollama_bin"`
	Output            string `json:"output" yaml:"output" toml:"output"`
	LogLevel          string `json:"log_level" yaml:"log_level" toml:"log_level"`
	CommandTimeoutSec int    `json:"command_timeout_sec" yaml:"command_timeout_sec" toml:"command_timeout_sec"`
	MetricsFile       string `json:"metrics_file" yaml:"metrics_file" toml:"metrics_file"`
}

// Default returns built-in defaults overlaid with MODELSETUP_* environment variables.
func Default() Config {
	return Config{
		OllamaBin:         envStr("MODELSETUP_OLLAMA_BIN", "ollama"),
		Output:            envStr("MODELSETUP_OUTPUT", "models.json"),
		LogLevel:          envStr("MODELSETUP_LOG_LEVEL", "info"),
		CommandTimeoutSec: envInt("MODELSETUP_TIMEOUT_SEC", 0),
		MetricsFile:       envStr("MODELSETUP_METRICS_FILE", ""),
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Merge returns c with every non-zero field of o applied on top.
func (c Config) Merge(o Config) Config {
	if o.OllamaBin != "" {
		c.OllamaBin = o.OllamaBin
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.CommandTimeoutSec != 0 {
		c.CommandTimeoutSec = o.CommandTimeoutSec
	}
	if o.MetricsFile != "" {
		c.MetricsFile = o.MetricsFile
	}
	return c
}

// Validate rejects settings a run cannot use.
func (c Config) Validate() error {
	if c.OllamaBin == "" {
		return fmt.Errorf("ollama_bin must not be empty")
	}
	if c.Output == "" {
		return fmt.Errorf("output must not be empty")
	}
	if c.CommandTimeoutSec < 0 {
		return fmt.Errorf("command_timeout_sec must be >= 0, got %d", c.CommandTimeoutSec)
	}
	return nil
}

// CommandTimeout is the per-command timeout; zero disables it.
func (c Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSec) * time.Second
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}
