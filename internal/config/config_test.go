package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "najdeno.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.TokenTTL != 24*time.Hour {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
addr: ":9000"
db: /var/lib/najdeno/najdeno.db
allowed_origins:
  - https://najdeno.example
token_ttl: 2h
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.DB != "/var/lib/najdeno/najdeno.db" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://najdeno.example" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("expected 2h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.MaxProofBytes != Default().MaxProofBytes {
		t.Errorf("unset field lost its default: %d", cfg.MaxProofBytes)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != Default().Addr {
		t.Errorf("expected default addr, got %q", cfg.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "adress: typo\n")); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := Load(writeConfig(t, "max_proof_bytes: 0\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"NAJDENO_ADDR":            "127.0.0.1:7000",
		"NAJDENO_ALLOWED_ORIGINS": "https://a.example, https://b.example,",
		"NAJDENO_MAX_PROOF_BYTES": "1024",
		"NAJDENO_TOKEN_TTL":       "30m",
		"NAJDENO_LOG":             "  ",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7000" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
	if cfg.MaxProofBytes != 1024 || cfg.TokenTTL != 30*time.Minute {
		t.Errorf("numeric overrides not applied: %+v", cfg)
	}
	if cfg.Log != "" {
		t.Errorf("blank variable should be ignored, got log %q", cfg.Log)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"NAJDENO_MAX_PROOF_BYTES":     "lots",
		"NAJDENO_MAX_IMAGE_DIMENSION": "wide",
		"NAJDENO_TOKEN_TTL":           "forever",
	}
	for key, value := range tests {
		cfg := Default()
		if err := cfg.ApplyEnv(env(map[string]string{key: value})); err == nil {
			t.Errorf("%s=%s: expected error", key, value)
		}
	}
}
