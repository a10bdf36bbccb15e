package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OLLAMA_HOST", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ollama.Host != "http://localhost:11434" {
		t.Errorf("Ollama.Host = %q", cfg.Ollama.Host)
	}
	if cfg.Engine.MaxRetries != 3 {
		t.Errorf("Engine.MaxRetries = %d", cfg.Engine.MaxRetries)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0] != "openai" {
		t.Errorf("Providers = %v", cfg.Providers)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_MODEL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
providers:
  - anthropic
  - ollama
anthropic:
  api_key: file-key
  model: claude-sonnet-4-20250514
engine:
  requests_per_minute: 30
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Anthropic.APIKey != "file-key" {
		t.Errorf("Anthropic.APIKey = %q", cfg.Anthropic.APIKey)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[0] != "anthropic" {
		t.Errorf("Providers = %v", cfg.Providers)
	}
	if cfg.Engine.RequestsPerMinute != 30 {
		t.Errorf("RequestsPerMinute = %d", cfg.Engine.RequestsPerMinute)
	}
	// Untouched defaults survive the merge.
	if cfg.Ollama.Host != "http://localhost:11434" {
		t.Errorf("Ollama.Host = %q", cfg.Ollama.Host)
	}
	if cfg.Engine.MaxRetries != 3 {
		t.Errorf("Engine.MaxRetries = %d", cfg.Engine.MaxRetries)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("openai:\n  api_key: file-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Errorf("OpenAI.APIKey = %q, env should win", cfg.OpenAI.APIKey)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Groq.APIKey = "saved-key"
	cfg.Providers = []string{"groq"}

	if err := Save(&cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Groq.APIKey != "saved-key" {
		t.Errorf("Groq.APIKey = %q", reloaded.Groq.APIKey)
	}
	if len(reloaded.Providers) != 1 || reloaded.Providers[0] != "groq" {
		t.Errorf("Providers = %v", reloaded.Providers)
	}
}

func TestGetConfigPathEnvOverride(t *testing.T) {
	t.Setenv("LLMWRAP_CONFIG_PATH", "/tmp/custom.yaml")
	if got := GetConfigPath(); got != "/tmp/custom.yaml" {
		t.Errorf("GetConfigPath = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandPath("~/x.yaml"); got != filepath.Join(home, "x.yaml") {
		t.Errorf("expandPath = %q", got)
	}
	if got := expandPath("/abs/x.yaml"); got != "/abs/x.yaml" {
		t.Errorf("expandPath = %q", got)
	}
}
