package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CADFORGE_PROVIDER", "CADFORGE_MODEL", "CADFORGE_BASE_URL",
		"CADFORGE_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CADFORGE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.Provider != "gemini" {
		t.Fatalf("expected gemini default provider, got %q", cfg.AI.Provider)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected info default level, got %q", cfg.Logging.Level)
	}
	if cfg.Audit.Enabled {
		t.Fatalf("expected audit disabled by default")
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "cadforge.yaml")
	content := `ai:
  provider: openai
  api_key: file-key
  model: gpt-4o-mini
audit:
  enabled: true
  retention_days: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CADFORGE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.Provider != "openai" || cfg.AI.APIKey != "file-key" {
		t.Fatalf("unexpected AI config: %+v", cfg.AI)
	}
	if !cfg.Audit.Enabled || cfg.Audit.RetentionDays != 3 {
		t.Fatalf("unexpected audit config: %+v", cfg.Audit)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "cadforge.yaml")
	content := `ai:
  provider: gemini
  api_key: file-key
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CADFORGE_CONFIG", path)
	t.Setenv("CADFORGE_API_KEY", "env-key")
	t.Setenv("CADFORGE_MODEL", "gemini-2.5-pro")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.APIKey != "env-key" {
		t.Fatalf("expected env to override file key, got %q", cfg.AI.APIKey)
	}
	if cfg.AI.Model != "gemini-2.5-pro" {
		t.Fatalf("expected env model override, got %q", cfg.AI.Model)
	}
}

func TestProviderKeyFallback(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CADFORGE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.APIKey != "google-key" {
		t.Fatalf("expected GOOGLE_API_KEY fallback for gemini, got %q", cfg.AI.APIKey)
	}

	t.Setenv("CADFORGE_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "openai-key")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AI.APIKey != "openai-key" {
		t.Fatalf("expected OPENAI_API_KEY fallback for openai, got %q", cfg.AI.APIKey)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "cadforge.yaml")
	if err := os.WriteFile(path, []byte("ai: [not a mapping"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CADFORGE_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error for bad yaml")
	}
}
