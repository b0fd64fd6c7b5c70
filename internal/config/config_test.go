package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9090
  workers: 4
log:
  level: debug
  format: console
ai:
  provider: gemini
  gemini_key: test-key
  default_model: gemini-2.0-flash
  max_output_tokens: 512
extractor:
  url: http://localhost:8081
  timeout: 30s
context:
  policy: budget
  token_budget: 8000
redis:
  enabled: true
  url: localhost:6379
  ttl: 2h
`)
		cfg, err := LoadConfig(path, false)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Server.Port != 9090 || cfg.Server.Workers != 4 {
			t.Errorf("unexpected server config: %+v", cfg.Server)
		}
		if cfg.AI.GeminiKey != "test-key" || cfg.AI.MaxOutputTokens != 512 {
			t.Errorf("unexpected ai config: %+v", cfg.AI)
		}
		if cfg.Extractor.Timeout != 30*time.Second {
			t.Errorf("unexpected extractor timeout: %v", cfg.Extractor.Timeout)
		}
		if cfg.Context.Policy != "budget" || cfg.Context.TokenBudget != 8000 {
			t.Errorf("unexpected context config: %+v", cfg.Context)
		}
		if !cfg.Redis.Enabled || cfg.Redis.TTL != 2*time.Hour {
			t.Errorf("unexpected redis config: %+v", cfg.Redis)
		}
	})

	t.Run("defaults fill the gaps", func(t *testing.T) {
		path := writeConfig(t, `
ai:
  provider: noop
`)
		cfg, err := LoadConfig(path, false)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Server.Port != 8080 || cfg.Server.Workers != 8 {
			t.Errorf("unexpected server defaults: %+v", cfg.Server)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("unexpected log defaults: %+v", cfg.Log)
		}
		if cfg.AI.DefaultModel != "gemini-2.0-flash" || cfg.AI.ConcurrentLimit != 16 {
			t.Errorf("unexpected ai defaults: %+v", cfg.AI)
		}
		if cfg.Context.Policy != "full" || cfg.Context.Encoding != "cl100k_base" {
			t.Errorf("unexpected context defaults: %+v", cfg.Context)
		}
		if cfg.Extractor.MaxFileBytes != 20<<20 {
			t.Errorf("unexpected max file bytes: %d", cfg.Extractor.MaxFileBytes)
		}
	})

	t.Run("missing provider key fails outside dev", func(t *testing.T) {
		path := writeConfig(t, `
ai:
  provider: gemini
`)
		if _, err := LoadConfig(path, false); err == nil {
			t.Error("expected an error for a missing gemini key")
		}
		if _, err := LoadConfig(path, true); err != nil {
			t.Errorf("dev mode must tolerate a missing key, got %v", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		path := writeConfig(t, `
ai:
  provider: acme
`)
		if _, err := LoadConfig(path, false); err == nil {
			t.Error("expected an error for an unknown provider")
		}
	})

	t.Run("enabled redis needs a url", func(t *testing.T) {
		path := writeConfig(t, `
ai:
  provider: noop
redis:
  enabled: true
`)
		if _, err := LoadConfig(path, false); err == nil {
			t.Error("expected an error for redis without url")
		}
	})

	t.Run("enabled telegram needs a token", func(t *testing.T) {
		path := writeConfig(t, `
ai:
  provider: noop
telegram:
  enabled: true
`)
		if _, err := LoadConfig(path, false); err == nil {
			t.Error("expected an error for telegram without token")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfig(t, "server: [broken")
		if _, err := LoadConfig(path, false); err == nil {
			t.Error("expected a parse error")
		}
	})
}
