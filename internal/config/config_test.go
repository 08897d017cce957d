package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FalakNet/Account/params"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file failed: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
debug: true
listenAddr: ":8080"
allowOrigins:
  - "https://app.example.com"
mysql:
  dsn: "user:pass@tcp(localhost:3306)/accounts?parseTime=true"
cache:
  backend: redis
redis:
  url: "redis://localhost:6379"
identity:
  projectID: "example-project"
session:
  tokenSecret: "config-test-secret"
  tokenMaxAge: 12h
  maxSessionsPerUser: 5
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug not parsed")
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("listenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Session.TokenSecret != "config-test-secret" {
		t.Errorf("tokenSecret = %q", cfg.Session.TokenSecret)
	}
	if cfg.Session.TokenMaxAge != 12*time.Hour {
		t.Errorf("tokenMaxAge = %v", cfg.Session.TokenMaxAge)
	}
	if cfg.Session.MaxSessionsPerUser != 5 {
		t.Errorf("maxSessionsPerUser = %d", cfg.Session.MaxSessionsPerUser)
	}
	if cfg.Cache.Backend != "redis" {
		t.Errorf("cache backend = %q", cfg.Cache.Backend)
	}
	if len(cfg.AllowOrigins) != 1 || cfg.AllowOrigins[0] != "https://app.example.com" {
		t.Errorf("allowOrigins = %v", cfg.AllowOrigins)
	}

	// unset fields pick up defaults
	if cfg.Session.CleanupInterval != params.DefaultCleanupInterval {
		t.Errorf("cleanupInterval = %v", cfg.Session.CleanupInterval)
	}
	if cfg.Session.Retention != params.DefaultSessionRetention {
		t.Errorf("retention = %v", cfg.Session.Retention)
	}
}

func TestSanitizeDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Session.TokenSecret = "secret"
	cfg.Identity.ProjectID = "example-project"

	if err := cfg.Sanitize(); err != nil {
		t.Fatalf("Sanitize failed: %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("listenAddr = %q", cfg.ListenAddr)
	}
	if cfg.Session.TokenMaxAge != params.DefaultSessionMaxAge {
		t.Errorf("tokenMaxAge = %v", cfg.Session.TokenMaxAge)
	}
	if cfg.Session.MaxSessionsPerUser != params.DefaultMaxSessionsPerUser {
		t.Errorf("maxSessionsPerUser = %d", cfg.Session.MaxSessionsPerUser)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("cache backend = %q", cfg.Cache.Backend)
	}
}

func TestSanitizeRejectsMissingSecret(t *testing.T) {
	cfg := &Config{}
	cfg.Identity.ProjectID = "example-project"

	err := cfg.Sanitize()
	if err == nil {
		t.Fatal("expected an error for a missing token secret")
	}
	if !strings.Contains(err.Error(), "tokenSecret") {
		t.Errorf("error %q should name the missing key", err)
	}
}

func TestSanitizeRejectsMissingProjectID(t *testing.T) {
	cfg := &Config{}
	cfg.Session.TokenSecret = "secret"

	if err := cfg.Sanitize(); err == nil {
		t.Fatal("expected an error for a missing identity project id")
	}
}
