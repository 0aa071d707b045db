package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.TokenTTL() != 30*time.Minute {
		t.Fatalf("unexpected ttl %v", cfg.TokenTTL())
	}
	if cfg.Uploads.Dir != "uploads" {
		t.Fatalf("unexpected uploads dir %q", cfg.Uploads.Dir)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected an error without JWT_SECRET")
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("server:\n  addr: \":9090\"\nauth:\n  jwt_secret: from-yaml\n  token_ttl_minutes: 5\ndatabase:\n  url: postgres://yaml\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("TOKEN_TTL_MINUTES", "10")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected yaml addr, got %q", cfg.Server.Addr)
	}
	if cfg.Auth.JWTSecret != "from-yaml" {
		t.Fatalf("expected yaml secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Database.URL != "postgres://env" {
		t.Fatalf("env must override yaml, got %q", cfg.Database.URL)
	}
	if cfg.TokenTTL() != 10*time.Minute {
		t.Fatalf("env must override yaml ttl, got %v", cfg.TokenTTL())
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
}
