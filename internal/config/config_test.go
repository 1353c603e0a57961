package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Layout.LinkDistance != 150 {
		t.Errorf("expected link distance 150, got %v", cfg.Layout.LinkDistance)
	}
	if cfg.Layout.Charge != -400 {
		t.Errorf("expected charge -400, got %v", cfg.Layout.Charge)
	}
	if cfg.Camera.MinScale != 0.1 || cfg.Camera.MaxScale != 4 {
		t.Errorf("expected scale extent [0.1, 4], got [%v, %v]", cfg.Camera.MinScale, cfg.Camera.MaxScale)
	}
	if cfg.Assistant.Backend != "stub" {
		t.Errorf("expected stub assistant, got %q", cfg.Assistant.Backend)
	}
	if cfg.Assistant.MaxContext != 60000 {
		t.Errorf("expected max context 60000, got %d", cfg.Assistant.MaxContext)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	dir := ConfigDir()
	if dir != "/tmp/test-xdg/ontoview" {
		t.Errorf("expected /tmp/test-xdg/ontoview, got %q", dir)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	dir = ConfigDir()
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".config", "ontoview")
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Layout.LinkDistance = 90
	cfg.Server.Port = 9000
	cfg.Store.Enabled = false

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := Load()
	if loaded.Layout.LinkDistance != 90 {
		t.Errorf("expected link distance 90, got %v", loaded.Layout.LinkDistance)
	}
	if loaded.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", loaded.Server.Port)
	}
	if loaded.Store.Enabled {
		t.Error("expected store disabled after load")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	os.MkdirAll(filepath.Join(tmp, "ontoview"), 0o755)
	os.WriteFile(Path(), []byte("[camera]\nfocus_scale = 2.0\n"), 0o644)

	cfg := Load()
	if cfg.Camera.FocusScale != 2 {
		t.Errorf("expected focus scale 2, got %v", cfg.Camera.FocusScale)
	}
	if cfg.Camera.MaxScale != 4 {
		t.Errorf("expected default max scale 4, got %v", cfg.Camera.MaxScale)
	}
}

func TestEnsureExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if _, err := os.Stat(Path()); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if err := EnsureExists(); err != nil {
		t.Fatalf("second EnsureExists failed: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"scale extent inverted", func(c *Config) { c.Camera.MaxScale = 0.05 }},
		{"zero link distance", func(c *Config) { c.Layout.LinkDistance = 0 }},
		{"attractive charge", func(c *Config) { c.Layout.Charge = 10 }},
		{"velocity decay out of range", func(c *Config) { c.Layout.VelocityDecay = 1.5 }},
		{"unknown backend", func(c *Config) { c.Assistant.Backend = "oracle" }},
		{"bad endpoint", func(c *Config) { c.Assistant.Endpoint = "not a url" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		err := cfg.Validate()
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	if cfg.LayoutParams().DragAlphaTarget != 0.3 {
		t.Error("expected drag alpha target 0.3")
	}
	if cfg.CameraParams().Transition != time.Second {
		t.Errorf("expected 1s transition, got %v", cfg.CameraParams().Transition)
	}
	if cfg.ViewportSize().Width != 800 {
		t.Error("expected viewport width 800")
	}
	if cfg.TickInterval() != 16*time.Millisecond {
		t.Errorf("expected 16ms tick, got %v", cfg.TickInterval())
	}
}

func TestStorePath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/x")
	cfg := Default()
	if cfg.StorePath() != "/tmp/x/ontoview/layouts.db" {
		t.Errorf("unexpected store path %q", cfg.StorePath())
	}
	cfg.Store.Path = "/data/l.db"
	if cfg.StorePath() != "/data/l.db" {
		t.Errorf("expected override, got %q", cfg.StorePath())
	}
}
