package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.StatePath != "~/.local/share/cybermancy" {
		t.Errorf("StatePath = %q", cfg.StatePath)
	}
	if cfg.Interpret.Enabled {
		t.Error("Interpret.Enabled should default to false")
	}
	if cfg.Interpret.TimeoutSeconds != 15 {
		t.Errorf("Interpret.TimeoutSeconds = %d", cfg.Interpret.TimeoutSeconds)
	}
	if cfg.Interpret.Model != "grok-3-mini-fast" {
		t.Errorf("Interpret.Model = %q", cfg.Interpret.Model)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled should default to true")
	}
	if !cfg.History.Compress {
		t.Error("History.Compress should default to true")
	}
	sum := cfg.Weights.Temporal + cfg.Weights.Textual + cfg.Weights.Divinatory +
		cfg.Weights.Numerological + cfg.Weights.Entropic
	if sum < 0.99 || sum > 1.01 {
		t.Errorf("default weights sum to %v", sum)
	}
}

func TestLoad_NoConfig(t *testing.T) {
	// Point XDG to an empty dir so no config file is found
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Should have expanded defaults (StatePath no longer starts with ~/)
	if strings.HasPrefix(cfg.StatePath, "~/") {
		t.Errorf("StatePath not expanded: %q", cfg.StatePath)
	}
	if !strings.HasSuffix(cfg.StatePath, ".local/share/cybermancy") {
		t.Errorf("StatePath = %q, want suffix .local/share/cybermancy", cfg.StatePath)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	configDir := filepath.Join(xdg, "cybermancy")
	os.MkdirAll(configDir, 0o755)

	tomlContent := `state_path = "/custom/state"
nickname = "wanderer"

[weights]
temporal = 0.30
textual = 0.10
divinatory = 0.30
numerological = 0.10
entropic = 0.20

[interpret]
enabled = true
timeout_seconds = 30

[history]
enabled = true
compress = false
keep = 200
`
	os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(tomlContent), 0o644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.StatePath != "/custom/state" {
		t.Errorf("StatePath = %q", cfg.StatePath)
	}
	if cfg.Nickname != "wanderer" {
		t.Errorf("Nickname = %q", cfg.Nickname)
	}
	if cfg.Weights.Temporal != 0.30 {
		t.Errorf("Weights.Temporal = %v", cfg.Weights.Temporal)
	}
	if !cfg.Interpret.Enabled {
		t.Error("Interpret.Enabled should be true")
	}
	if cfg.Interpret.TimeoutSeconds != 30 {
		t.Errorf("Interpret.TimeoutSeconds = %d", cfg.Interpret.TimeoutSeconds)
	}
	if cfg.History.Compress {
		t.Error("History.Compress should be false")
	}
	if cfg.History.Keep != 200 {
		t.Errorf("History.Keep = %d", cfg.History.Keep)
	}
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	configDir := filepath.Join(xdg, "cybermancy")
	os.MkdirAll(configDir, 0o755)
	os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(`state_path = "~/my-state"`), 0o644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := filepath.Join(home, "my-state")
	if cfg.StatePath != want {
		t.Errorf("StatePath = %q, want %q", cfg.StatePath, want)
	}
}

func TestLoad_XDGPriority(t *testing.T) {
	xdg := t.TempDir()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", home)

	xdgDir := filepath.Join(xdg, "cybermancy")
	os.MkdirAll(xdgDir, 0o755)
	os.WriteFile(filepath.Join(xdgDir, "config.toml"), []byte(`state_path = "/from-xdg"`), 0o644)

	homeDir := filepath.Join(home, ".config", "cybermancy")
	os.MkdirAll(homeDir, 0o755)
	os.WriteFile(filepath.Join(homeDir, "config.toml"), []byte(`state_path = "/from-home"`), 0o644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.StatePath != "/from-xdg" {
		t.Errorf("StatePath = %q, want /from-xdg (XDG should take priority)", cfg.StatePath)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	configDir := filepath.Join(xdg, "cybermancy")
	os.MkdirAll(configDir, 0o755)
	os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(`state_path = [broken`), 0o644)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestWriteDefault(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	p, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	// A second write must refuse to clobber.
	if _, err := WriteDefault(); err == nil {
		t.Fatal("expected error writing over existing config")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load after WriteDefault: %v", err)
	}
	if cfg.Interpret.Model != DefaultConfig().Interpret.Model {
		t.Errorf("round-tripped model = %q", cfg.Interpret.Model)
	}
}

func TestStateDir_Creates(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{StatePath: filepath.Join(dir, "nested", "state")}

	got, err := cfg.StateDir()
	if err != nil {
		t.Fatalf("StateDir: %v", err)
	}
	info, err := os.Stat(got)
	if err != nil || !info.IsDir() {
		t.Fatalf("state dir not created: %v", err)
	}

	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		t.Fatalf("HistoryDBPath: %v", err)
	}
	if filepath.Dir(dbPath) != got {
		t.Errorf("db path %q not inside state dir %q", dbPath, got)
	}
}
