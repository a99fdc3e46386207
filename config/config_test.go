package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Expected memory driver, got %s", cfg.Database.Driver)
	}
	if cfg.Server.HTTPAddress != ":8080" {
		t.Errorf("Expected :8080, got %s", cfg.Server.HTTPAddress)
	}
	if cfg.Game.SessionIdle != 30*time.Minute {
		t.Errorf("Expected 30m idle, got %v", cfg.Game.SessionIdle)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
log_level: debug
database:
  driver: sqlite
  sqlite:
    path: /tmp/test.db
game:
  seed: 77
  sweep_interval: 10s
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SURVIVAL_SERVER_HTTP_ADDRESS", ":9999")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Database.Driver != "sqlite" || cfg.Database.SQLite.Path != "/tmp/test.db" {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if cfg.Game.Seed != 77 || cfg.Game.SweepInterval != 10*time.Second {
		t.Errorf("Unexpected game config %+v", cfg.Game)
	}
	if cfg.Server.HTTPAddress != ":9999" {
		t.Errorf("Expected env override :9999, got %s", cfg.Server.HTTPAddress)
	}
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600)
	if _, err := LoadConfig(dir); err == nil {
		t.Error("Expected an error for invalid YAML")
	}
}
