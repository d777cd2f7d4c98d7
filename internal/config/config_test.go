package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "storage:\n  path: "+filepath.Join(dir, "data", "sb.bolt")+"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.APIPort != 8765 {
		t.Errorf("Expected API port 8765, got %d", cfg.Server.APIPort)
	}
	if cfg.Storage.Type != "bolt" {
		t.Errorf("Expected storage type bolt, got %s", cfg.Storage.Type)
	}
	if cfg.Storage.SettingsKey != "screenbreak" {
		t.Errorf("Expected settings key screenbreak, got %s", cfg.Storage.SettingsKey)
	}
	if cfg.Feed.Limit != 100 {
		t.Errorf("Expected feed limit 100, got %d", cfg.Feed.Limit)
	}
	if got := ParseDuration(cfg.Feed.Lookback, 0); got != 5*time.Minute {
		t.Errorf("Expected lookback 5m, got %v", got)
	}
	if cfg.Usage.RetentionDays != 7 {
		t.Errorf("Expected retention 7 days, got %d", cfg.Usage.RetentionDays)
	}

	if _, err := os.Stat(filepath.Join(dir, "data")); err != nil {
		t.Errorf("Expected storage directory to be created: %v", err)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
storage:
  path: `+filepath.Join(dir, "sb.bolt")+`
usage_tracking:
  retention_days: 1
  renotify_interval: 0s
  timezone: Europe/Rome
platforms:
  - fragment: facebook.com/reel
    label: Facebook Reels
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Usage.RetentionDays != 1 {
		t.Errorf("Expected retention 1, got %d", cfg.Usage.RetentionDays)
	}
	if cfg.Usage.Location().String() != "Europe/Rome" {
		t.Errorf("Expected Europe/Rome, got %s", cfg.Usage.Location())
	}
	if len(cfg.Platforms) != 1 || cfg.Platforms[0].Label != "Facebook Reels" {
		t.Errorf("Expected one extra platform, got %+v", cfg.Platforms)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "storage:\n  path: "+filepath.Join(dir, "sb.bolt")+"\n")

	t.Setenv("SCREENBREAK_SERVER_API_PORT", "9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.APIPort != 9000 {
		t.Errorf("Expected API port 9000 from environment, got %d", cfg.Server.APIPort)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	storage := "storage:\n  path: " + filepath.Join(dir, "sb.bolt") + "\n"

	tests := []struct {
		name string
		body string
	}{
		{"bad port", storage + "server:\n  api_port: 70000\n"},
		{"bad duration", storage + "usage_tracking:\n  session_gap: soon\n"},
		{"negative duration", storage + "usage_tracking:\n  renotify_interval: -1m\n"},
		{"bad timezone", storage + "usage_tracking:\n  timezone: Mars/Olympus\n"},
		{"empty fragment", storage + "platforms:\n  - fragment: \"\"\n    label: X\n"},
		{"bad storage type", "storage:\n  type: sqlite\n"},
		{"zero feed limit", storage + "feed:\n  limit: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestKnownKeys(t *testing.T) {
	keys := KnownKeys()

	for _, key := range []string{"server.api_port", "storage.redis.host", "usage_tracking.session_gap", "platforms"} {
		if !keys[key] {
			t.Errorf("Expected %s to be a known key", key)
		}
	}
}
