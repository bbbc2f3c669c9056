package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.PushPath != "/ws/notifications" {
		t.Errorf("PushPath = %q", cfg.Server.PushPath)
	}
	if cfg.Server.TokenEnv != "NOTIFY_TOKEN" {
		t.Errorf("TokenEnv = %q", cfg.Server.TokenEnv)
	}
	if cfg.Display.PageLimit != 10 || cfg.Display.PanelLimit != 5 {
		t.Errorf("display defaults = %+v", cfg.Display)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := defaultAppConfig()
	cfg.Server.BaseURL = "https://portal.example.com"
	cfg.Server.ReconnectCeilingSec = 120
	cfg.Display.PageLimit = 25

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Server.BaseURL != cfg.Server.BaseURL {
		t.Errorf("BaseURL = %q, want %q", got.Server.BaseURL, cfg.Server.BaseURL)
	}
	if got.Server.ReconnectCeilingSec != 120 {
		t.Errorf("ReconnectCeilingSec = %d, want 120", got.Server.ReconnectCeilingSec)
	}
	if got.Display.PageLimit != 25 {
		t.Errorf("PageLimit = %d, want 25", got.Display.PageLimit)
	}
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "config.yaml")

	if err := Save(path, defaultAppConfig()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not written: %v", err)
	}
}
