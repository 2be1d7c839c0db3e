package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Backend.URL != "http://localhost:3000" {
		t.Fatalf("expected default backend url, got %q", cfg.Backend.URL)
	}
	if cfg.Backend.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Backend.MaxAttempts)
	}
	if cfg.Prices.Recliner != 340 || cfg.Prices.PrimePlus != 200 || cfg.Prices.Prime != 170 || cfg.Prices.Classic != 150 {
		t.Fatalf("unexpected default prices: %+v", cfg.Prices)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
backend:
  url: https://api.example.com/
  timeout: 5s
prices:
  prime_plus: 250
log:
  level: debug
`)
	t.Setenv("MOVIEBOOK_BACKEND_TIMEOUT", "7s")
	t.Setenv("MOVIEBOOK_PRICES_CLASSIC", "99")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Backend.URL != "https://api.example.com" {
		t.Fatalf("expected trimmed url, got %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 7*time.Second {
		t.Fatalf("expected env to win, got %v", cfg.Backend.Timeout)
	}
	if cfg.Prices.PrimePlus != 250 {
		t.Fatalf("expected file price 250, got %v", cfg.Prices.PrimePlus)
	}
	if cfg.Prices.Classic != 99 {
		t.Fatalf("expected env price 99, got %v", cfg.Prices.Classic)
	}
	if cfg.Prices.Recliner != 340 {
		t.Fatalf("expected default recliner price, got %v", cfg.Prices.Recliner)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug, got %q", cfg.Log.Level)
	}
}

func TestLoad_BackendAlias(t *testing.T) {
	t.Setenv("MOVIEBOOK_BACKEND", "http://10.0.0.2:8080")
	cfg, err := load("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Backend.URL != "http://10.0.0.2:8080" {
		t.Fatalf("expected alias to set url, got %q", cfg.Backend.URL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := writeFile(t, `
log:
  format: xml
`)
	if _, err := load(path); err == nil {
		t.Fatal("expected validation error")
	}

	t.Setenv("MOVIEBOOK_PRICES_PRIME", "-1")
	if _, err := load(""); err == nil {
		t.Fatal("expected negative price to be rejected")
	}
}

func TestEnvKey_UnknownSkipped(t *testing.T) {
	if got := envKey("MOVIEBOOK_SOMETHING_ELSE"); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
	if got := envKey("MOVIEBOOK_LOG_FILE"); got != "log.file" {
		t.Fatalf("expected log.file, got %q", got)
	}
}
