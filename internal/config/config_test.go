package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.BaseURL == "" {
		t.Fatal("expected default gateway base_url")
	}
	if cfg.Gateway.AuthScheme != "Token" {
		t.Fatalf("got auth scheme %q, want %q", cfg.Gateway.AuthScheme, "Token")
	}
	if cfg.Store.Driver != "file" {
		t.Fatalf("got store driver %q, want file", cfg.Store.Driver)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("gateway:\n  base_url: \"http://analytics.local/api\"\nstore:\n  driver: redis\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Gateway.BaseURL != "http://analytics.local/api" {
		t.Fatalf("got %q", cfg.Gateway.BaseURL)
	}
	if cfg.Store.Driver != "redis" {
		t.Fatalf("got %q", cfg.Store.Driver)
	}
	// untouched keys keep their defaults
	if cfg.Gateway.TimeoutMs != 15000 {
		t.Fatalf("got timeout %d, want 15000", cfg.Gateway.TimeoutMs)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RFMDASH_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("got %q, want debug", cfg.Log.Level)
	}
}
