// Package config loads client configuration from a TOML file with
// environment variable overrides, and watches the file for live reload.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all tunables for the engine client. Interval-valued
// settings are stored as seconds, the way they are written in the
// config file, with typed accessors below.
type Config struct {
	// BinaryRoot is the versioned engine install tree.
	BinaryRoot string `toml:"binary_root"`

	// BinaryPath overrides version resolution with an explicit path.
	BinaryPath string `toml:"binary_path"`

	// Client is the client identifier passed to the engine.
	Client string `toml:"client"`

	// ProtocolVersion is the version string sent in every envelope.
	ProtocolVersion string `toml:"protocol_version"`

	// LogFile, when set, routes engine logs to a file.
	LogFile string `toml:"log_file"`

	// LogLevel controls both client and engine log verbosity.
	LogLevel string `toml:"log_level"`

	// MaxRestarts is the auto-restart ceiling.
	MaxRestarts int `toml:"max_restarts"`

	// WaitSeconds is the response wait budget.
	WaitSeconds float64 `toml:"wait"`

	// IdleSeconds is the debounce quiet period.
	IdleSeconds float64 `toml:"idle_interval"`

	// PollSeconds is the status poll period.
	PollSeconds float64 `toml:"poll_interval"`

	// MaxResults caps candidates per completion request.
	MaxResults int `toml:"max_results"`

	// ContextChars is the before/after text window sent with each
	// completion request.
	ContextChars int `toml:"context_chars"`

	// IgnoreCommands never disturb the completion trigger.
	IgnoreCommands []string `toml:"ignore_commands"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BinaryRoot:      defaultBinaryRoot(),
		Client:          "tabnine-go",
		ProtocolVersion: "4.4.223",
		LogLevel:        "warn",
		MaxRestarts:     10,
		WaitSeconds:     1.0,
		IdleSeconds:     0.4,
		PollSeconds:     30.0,
		MaxResults:      5,
		ContextChars:    3000,
	}
}

// defaultBinaryRoot returns the versioned install tree location.
func defaultBinaryRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".tabnine", "binaries")
	}
	return filepath.Join(home, ".tabnine", "binaries")
}

// Load builds a configuration from defaults, then the TOML file at
// path (missing file is not an error), then TABNINE_* environment
// overrides. Environment always wins.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies TABNINE_* environment variable overrides.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("TABNINE_BINARY_ROOT"); ok {
		c.BinaryRoot = v
	}
	if v, ok := os.LookupEnv("TABNINE_BINARY_PATH"); ok {
		c.BinaryPath = v
	}
	if v, ok := os.LookupEnv("TABNINE_CLIENT"); ok {
		c.Client = v
	}
	if v, ok := os.LookupEnv("TABNINE_LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := os.LookupEnv("TABNINE_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("TABNINE_MAX_RESTARTS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRestarts = n
		}
	}
	if v, ok := os.LookupEnv("TABNINE_WAIT"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.WaitSeconds = f
		}
	}
	if v, ok := os.LookupEnv("TABNINE_IDLE_INTERVAL"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.IdleSeconds = f
		}
	}
	if v, ok := os.LookupEnv("TABNINE_POLL_INTERVAL"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.PollSeconds = f
		}
	}
	if v, ok := os.LookupEnv("TABNINE_MAX_RESULTS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxResults = n
		}
	}
	if v, ok := os.LookupEnv("TABNINE_IGNORE_COMMANDS"); ok {
		c.IgnoreCommands = splitList(v)
	}
}

// splitList splits a comma-separated env value into trimmed entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Wait returns the response wait budget.
func (c *Config) Wait() time.Duration {
	return secondsToDuration(c.WaitSeconds, time.Second)
}

// IdleInterval returns the debounce quiet period.
func (c *Config) IdleInterval() time.Duration {
	return secondsToDuration(c.IdleSeconds, 400*time.Millisecond)
}

// PollInterval returns the status poll period.
func (c *Config) PollInterval() time.Duration {
	return secondsToDuration(c.PollSeconds, 30*time.Second)
}

func secondsToDuration(secs float64, fallback time.Duration) time.Duration {
	if secs <= 0 {
		return fallback
	}
	return time.Duration(secs * float64(time.Second))
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tabnine", "config.toml")
}
