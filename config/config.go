// Package config loads wrapper and provider configuration from YAML, merges
// it over defaults, and builds ready-to-use llm.Wrappers from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// AnthropicConfig represents configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"` // Anthropic API key
	Model  string `yaml:"model,omitempty"`   // Default model name
}

// OpenAIConfig represents configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`      // OpenAI API key
	BaseURL      string `yaml:"base_url,omitempty"`     // Custom base URL (default: official API)
	Model        string `yaml:"model,omitempty"`        // Default model name
	Organization string `yaml:"organization,omitempty"` // Organization ID
}

// OllamaConfig represents configuration for the Ollama provider.
type OllamaConfig struct {
	Host  string `yaml:"host,omitempty"`  // Ollama host (default: "http://localhost:11434")
	Model string `yaml:"model,omitempty"` // Default model name
}

// CompatConfig represents configuration for an OpenAI-compatible provider
// (groq, openrouter, together, fireworks, grok).
type CompatConfig struct {
	APIKey string `yaml:"api_key,omitempty"` // Provider API key
	Model  string `yaml:"model,omitempty"`   // Default model name
}

// EngineConfig tunes the pooled-wrapper Engine when more than one provider is
// enabled.
type EngineConfig struct {
	MaxRetries        int `yaml:"max_retries,omitempty"`         // Consecutive failures before eviction
	RequestsPerMinute int `yaml:"requests_per_minute,omitempty"` // Per-provider pacing, 0 = unlimited
}

// Config is the root configuration.
type Config struct {
	// Providers lists enabled providers in preference order.
	Providers []string `yaml:"providers,omitempty"`

	Anthropic  AnthropicConfig `yaml:"anthropic,omitempty"`
	OpenAI     OpenAIConfig    `yaml:"openai,omitempty"`
	Ollama     OllamaConfig    `yaml:"ollama,omitempty"`
	Groq       CompatConfig    `yaml:"groq,omitempty"`
	OpenRouter CompatConfig    `yaml:"openrouter,omitempty"`
	Together   CompatConfig    `yaml:"together,omitempty"`
	Fireworks  CompatConfig    `yaml:"fireworks,omitempty"`
	Grok       CompatConfig    `yaml:"grok,omitempty"`

	Engine EngineConfig `yaml:"engine,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Providers: []string{"openai"},
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
		Engine: EngineConfig{
			MaxRetries: 3,
		},
	}
}

// GetConfigPath returns the default config file path.
// Can be overridden via the LLMWRAP_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("LLMWRAP_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.llmwrap/config.yaml"
	}
	return filepath.Join(homeDir, ".llmwrap", "config.yaml")
}

// Load reads the config file at path, merges it over the defaults, and
// applies environment-variable overrides. A missing file is not an error:
// environment variables alone can configure every provider.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(expandPath(path))
	switch {
	case os.IsNotExist(err):
		// Fall through to env overrides.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets environment variables win over file configuration,
// using the conventional variable names of each provider.
func applyEnvOverrides(cfg *Config) {
	setIfEnv(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setIfEnv(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setIfEnv(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setIfEnv(&cfg.OpenAI.Model, "OPENAI_MODEL")
	setIfEnv(&cfg.OpenAI.Organization, "OPENAI_ORG_ID")
	setIfEnv(&cfg.Ollama.Host, "OLLAMA_HOST")
	setIfEnv(&cfg.Ollama.Model, "OLLAMA_MODEL")
	setIfEnv(&cfg.Groq.APIKey, "GROQ_API_KEY")
	setIfEnv(&cfg.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setIfEnv(&cfg.Together.APIKey, "TOGETHER_API_KEY")
	setIfEnv(&cfg.Fireworks.APIKey, "FIREWORKS_API_KEY")
	setIfEnv(&cfg.Grok.APIKey, "GROK_API_KEY")
}

func setIfEnv(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// Save writes the configuration to the specified path.
func Save(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
