package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig with missing file: %v", err)
	}
	if cfg.Client.Lane != 9 || cfg.Client.Role != "lane" {
		t.Errorf("defaults = lane %d role %q", cfg.Client.Lane, cfg.Client.Role)
	}
	if got, want := cfg.serverURL(), "wss://localhost:443/ws"; got != want {
		t.Errorf("serverURL() = %q, want %q", got, want)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  host: timing.example.net
  port: 8080
  path: /ws
  tls: false
client:
  lane: 3
  role: starter
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got, want := cfg.serverURL(), "ws://timing.example.net:8080/ws"; got != want {
		t.Errorf("serverURL() = %q, want %q", got, want)
	}
	if cfg.Client.Lane != 3 || cfg.Client.Role != "starter" {
		t.Errorf("client = lane %d role %q", cfg.Client.Lane, cfg.Client.Role)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("LANETIMER_LANE", "7")
	t.Setenv("LANETIMER_ROLE", "starter")
	t.Setenv("LANETIMER_SERVER_HOST", "override.example.net")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Client.Lane != 7 {
		t.Errorf("lane = %d, want env override 7", cfg.Client.Lane)
	}
	if cfg.Client.Role != "starter" {
		t.Errorf("role = %q, want env override starter", cfg.Client.Role)
	}
	if cfg.Server.Host != "override.example.net" {
		t.Errorf("host = %q, want env override", cfg.Server.Host)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("loadConfig with malformed yaml succeeded")
	}
}
