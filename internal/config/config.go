// Package config loads agent settings from an optional YAML file with
// environment variable overrides on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// apiKeyPlaceholder is the value shipped in the sample config; it counts as
// unset.
const apiKeyPlaceholder = "your_gemini_api_key_here"

// Config is the full agent configuration.
type Config struct {
	Gemini  GeminiConfig  `yaml:"gemini"`
	Browser BrowserConfig `yaml:"browser"`
	Run     RunConfig     `yaml:"run"`
	Logging LoggingConfig `yaml:"logging"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type BrowserConfig struct {
	// Bin is the browser binary path; empty lets the launcher find one.
	Bin      string `yaml:"bin"`
	Headless bool   `yaml:"headless"`
}

type RunConfig struct {
	MaxCycles       int    `yaml:"max_cycles"`
	MinDelaySeconds int    `yaml:"min_delay_seconds"`
	MaxDelaySeconds int    `yaml:"max_delay_seconds"`
	LogDir          string `yaml:"log_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash-lite",
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Run: RunConfig{
			MaxCycles:       10,
			MinDelaySeconds: 5,
			MaxDelaySeconds: 45,
			LogDir:          ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies environment overrides. An empty path skips
// the file entirely.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults plus env are enough to run.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("BROWSER_BIN"); v != "" {
		c.Browser.Bin = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DEBUG_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEBUG_MODE: %w", err)
		}
		c.Logging.Debug = b
	}

	intVars := []struct {
		name string
		dst  *int
	}{
		{"MAX_SEARCH_CYCLES", &c.Run.MaxCycles},
		{"MIN_DELAY", &c.Run.MinDelaySeconds},
		{"MAX_DELAY", &c.Run.MaxDelaySeconds},
	}
	for _, v := range intVars {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", v.name, err)
		}
		*v.dst = n
	}
	return nil
}

// Validate checks the configuration is runnable.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" || c.Gemini.APIKey == apiKeyPlaceholder {
		return errors.New("gemini api key is required (set GEMINI_API_KEY or gemini.api_key)")
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini model must not be empty")
	}
	if c.Run.MaxCycles <= 0 {
		return fmt.Errorf("max cycles must be positive, got %d", c.Run.MaxCycles)
	}
	if c.Run.MinDelaySeconds < 0 {
		return fmt.Errorf("min delay must not be negative, got %d", c.Run.MinDelaySeconds)
	}
	if c.Run.MaxDelaySeconds < c.Run.MinDelaySeconds {
		return fmt.Errorf("max delay %d is below min delay %d",
			c.Run.MaxDelaySeconds, c.Run.MinDelaySeconds)
	}
	return nil
}

// MinDelay returns the inter-cycle minimum pause.
func (c *Config) MinDelay() time.Duration {
	return time.Duration(c.Run.MinDelaySeconds) * time.Second
}

// MaxDelay returns the inter-cycle maximum pause.
func (c *Config) MaxDelay() time.Duration {
	return time.Duration(c.Run.MaxDelaySeconds) * time.Second
}
