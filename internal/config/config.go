// Package config loads the cybermancy configuration from the standard XDG
// locations, falling back to defaults when no file exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/maelin/cybermancy/internal/score"
)

// Config holds all cybermancy configuration.
type Config struct {
	StatePath string `toml:"state_path"`
	Nickname  string `toml:"nickname"`

	Weights   score.Weights   `toml:"weights"`
	Interpret InterpretConfig `toml:"interpret"`
	History   HistoryConfig   `toml:"history"`
	Watch     WatchConfig     `toml:"watch"`
}

// InterpretConfig configures the optional interpretation relay.
type InterpretConfig struct {
	Enabled        bool   `toml:"enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Model          string `toml:"model"`
	APIKeyEnv      string `toml:"api_key_env"`
	BaseURL        string `toml:"base_url"`
}

// HistoryConfig configures the run archive.
type HistoryConfig struct {
	Enabled  bool `toml:"enabled"`
	Compress bool `toml:"compress"`
	Keep     int  `toml:"keep"` // 0 keeps everything
}

// WatchConfig configures the drop-directory daemon.
type WatchConfig struct {
	Dir          string `toml:"dir"`
	OutDir       string `toml:"out_dir"`
	DebounceMsec int    `toml:"debounce_msec"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StatePath: "~/.local/share/cybermancy",
		Weights:   score.DefaultWeights(),
		Interpret: InterpretConfig{
			Enabled:        false,
			TimeoutSeconds: 15,
			Model:          "grok-3-mini-fast",
			APIKeyEnv:      "XAI_API_KEY",
			BaseURL:        "https://api.x.ai/v1",
		},
		History: HistoryConfig{
			Enabled:  true,
			Compress: true,
		},
		Watch: WatchConfig{
			Dir:          "~/.local/share/cybermancy/inbox",
			OutDir:       "~/.local/share/cybermancy/outbox",
			DebounceMsec: 300,
		},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			if _, err := toml.DecodeFile(p, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", p, err)
			}
			break
		}
	}

	cfg.StatePath = expandHome(cfg.StatePath)
	cfg.Watch.Dir = expandHome(cfg.Watch.Dir)
	cfg.Watch.OutDir = expandHome(cfg.Watch.OutDir)

	return cfg, nil
}

// WriteDefault writes a default config to the primary path, refusing to
// clobber an existing file.
func WriteDefault() (string, error) {
	paths := configPaths()
	if len(paths) == 0 {
		return "", fmt.Errorf("no config directory available")
	}
	p := paths[0]
	if _, err := os.Stat(p); err == nil {
		return p, fmt.Errorf("config already exists at %s", p)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return p, fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return p, fmt.Errorf("create config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(DefaultConfig()); err != nil {
		return p, fmt.Errorf("encode config: %w", err)
	}
	return p, nil
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "cybermancy", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "cybermancy", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// StateDir returns the expanded state directory, creating it if needed.
func (c Config) StateDir() (string, error) {
	dir := expandHome(c.StatePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return dir, nil
}

// HistoryDBPath returns the sqlite database path inside the state directory.
func (c Config) HistoryDBPath() (string, error) {
	dir, err := c.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
