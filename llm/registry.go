package llm

import (
	"fmt"
	"os"
	"sync"
)

const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOllama     = "ollama"
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderTogether   = "together"
	ProviderFireworks  = "fireworks"
	ProviderGrok       = "grok"
)

// Preference represents a single provider/model preference.
type Preference struct {
	Provider    string
	Model       string
	Temperature *float64
}

// ClientKey uniquely identifies a resolved backend configuration. The config
// package turns a ClientKey into a live Wrapper; keeping construction out of
// this package avoids an import cycle with the provider subpackages.
type ClientKey struct {
	Provider string
	Model    string
	APIKey   string // credential-based providers
	Host     string // ollama
	BaseURL  string // openai-compatible providers
}

// ProviderConfig holds the provider credentials and defaults the registry
// resolves against. Empty fields fall back to environment variables.
type ProviderConfig struct {
	AnthropicAPIKey  string
	AnthropicModel   string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	OllamaHost       string
	OllamaModel      string
	GroqAPIKey       string
	OpenRouterAPIKey string
	TogetherAPIKey   string
	FireworksAPIKey  string
	GrokAPIKey       string
}

// envKeys maps an OpenAI-compatible provider to its API key environment
// variable, matching the conventions of the services themselves.
var envKeys = map[string]string{
	ProviderGroq:       "GROQ_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
	ProviderTogether:   "TOGETHER_API_KEY",
	ProviderFireworks:  "FIREWORKS_API_KEY",
	ProviderGrok:       "GROK_API_KEY",
}

// ProviderRegistry resolves provider/model preferences into ClientKeys,
// considering only providers that are both enabled and configured.
type ProviderRegistry struct {
	mu               sync.RWMutex
	enabledProviders map[string]bool
	config           *ProviderConfig
}

// NewProviderRegistry creates a registry with the given config and enabled
// providers.
func NewProviderRegistry(providerConfig *ProviderConfig, enabledProviders []string) *ProviderRegistry {
	enabledMap := make(map[string]bool)
	for _, p := range enabledProviders {
		enabledMap[p] = true
	}
	return &ProviderRegistry{
		enabledProviders: enabledMap,
		config:           providerConfig,
	}
}

// IsProviderEnabled checks if a provider is in the enabled providers list.
func (r *ProviderRegistry) IsProviderEnabled(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabledProviders[provider]
}

// IsProviderConfigured checks if a provider has the credentials it needs.
func (r *ProviderRegistry) IsProviderConfigured(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isProviderConfiguredUnlocked(provider)
}

// Resolve returns a ClientKey for the first preference whose provider is
// enabled and configured.
func (r *ProviderRegistry) Resolve(preferences []Preference) (*ClientKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(preferences) == 0 {
		return nil, fmt.Errorf("no preferences given")
	}

	var attempted []string
	for _, pref := range preferences {
		attempted = append(attempted, pref.Provider)
		if !r.enabledProviders[pref.Provider] {
			continue
		}
		if !r.isProviderConfiguredUnlocked(pref.Provider) {
			continue
		}
		key, err := r.resolveProviderConfig(pref.Provider, pref.Model)
		if err != nil {
			continue
		}
		return key, nil
	}

	return nil, fmt.Errorf("no available provider from preferences %v (enabled: %v)", attempted, r.enabledList())
}

// isProviderConfiguredUnlocked must be called with r.mu held.
func (r *ProviderRegistry) isProviderConfiguredUnlocked(provider string) bool {
	switch provider {
	case ProviderAnthropic:
		return r.anthropicKey() != ""
	case ProviderOpenAI:
		return r.openaiKey() != ""
	case ProviderOllama:
		// Ollama needs no credential; the host has a default.
		return true
	case ProviderGroq, ProviderOpenRouter, ProviderTogether, ProviderFireworks, ProviderGrok:
		return r.compatKey(provider) != ""
	default:
		return false
	}
}

func (r *ProviderRegistry) anthropicKey() string {
	if r.config.AnthropicAPIKey != "" {
		return r.config.AnthropicAPIKey
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

func (r *ProviderRegistry) openaiKey() string {
	if r.config.OpenAIAPIKey != "" {
		return r.config.OpenAIAPIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

func (r *ProviderRegistry) compatKey(provider string) string {
	var configured string
	switch provider {
	case ProviderGroq:
		configured = r.config.GroqAPIKey
	case ProviderOpenRouter:
		configured = r.config.OpenRouterAPIKey
	case ProviderTogether:
		configured = r.config.TogetherAPIKey
	case ProviderFireworks:
		configured = r.config.FireworksAPIKey
	case ProviderGrok:
		configured = r.config.GrokAPIKey
	}
	if configured != "" {
		return configured
	}
	return os.Getenv(envKeys[provider])
}

// resolveProviderConfig resolves provider-specific configuration into a
// ClientKey.
func (r *ProviderRegistry) resolveProviderConfig(provider, modelOverride string) (*ClientKey, error) {
	key := &ClientKey{
		Provider: provider,
		Model:    modelOverride,
	}

	switch provider {
	case ProviderAnthropic:
		key.APIKey = r.anthropicKey()
		if key.APIKey == "" {
			return nil, fmt.Errorf("anthropic API key not configured")
		}
		if key.Model == "" {
			key.Model = r.config.AnthropicModel
		}

	case ProviderOpenAI:
		key.APIKey = r.openaiKey()
		if key.APIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		baseURL := r.config.OpenAIBaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OPENAI_BASE_URL")
		}
		key.BaseURL = baseURL
		if key.Model == "" {
			key.Model = r.config.OpenAIModel
		}

	case ProviderOllama:
		host := r.config.OllamaHost
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		key.Host = host
		if key.Model == "" {
			key.Model = r.config.OllamaModel
		}

	case ProviderGroq, ProviderOpenRouter, ProviderTogether, ProviderFireworks, ProviderGrok:
		key.APIKey = r.compatKey(provider)
		if key.APIKey == "" {
			return nil, fmt.Errorf("%s API key not configured", provider)
		}

	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	if key.Model == "" {
		return nil, fmt.Errorf("%s model not specified and no default configured", provider)
	}
	return key, nil
}

func (r *ProviderRegistry) enabledList() []string {
	var providers []string
	for p := range r.enabledProviders {
		providers = append(providers, p)
	}
	return providers
}
