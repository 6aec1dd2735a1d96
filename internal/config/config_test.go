package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "test")
	if err := os.MkdirAll("config", 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join("config", "config.test.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadParsesConfigFile(t *testing.T) {
	writeConfig(t, "mode: debug\nport: 9090\npresence_backend: redis\npresence_ttl: 30m\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "debug" || cfg.Port != 9090 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.PresenceBackend != "redis" || cfg.PresenceTTL != 30*time.Minute {
		t.Fatalf("cfg = %+v", cfg)
	}
	// Unset keys keep their defaults.
	if cfg.SendBuffer != 32 || cfg.PingPeriod != 54*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadUsesDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 8080 || cfg.PresenceBackend != "memory" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

// A config file that cannot be parsed into the typed struct must
// surface an error rather than a half-populated config.
func TestLoadRejectsMalformedConfig(t *testing.T) {
	writeConfig(t, "port: [8080, 8081]\n")

	if _, err := Load(); err == nil {
		t.Fatal("malformed config loaded without error")
	}
}
