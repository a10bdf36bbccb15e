package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/llmwrap/llm"
	"github.com/aschepis/backscratcher/llmwrap/llm/anthropic"
	"github.com/aschepis/backscratcher/llmwrap/llm/ollama"
	"github.com/aschepis/backscratcher/llmwrap/llm/openai"
)

// compatBaseURLs maps OpenAI-compatible providers to their endpoints.
var compatBaseURLs = map[string]string{
	llm.ProviderGroq:       openai.GroqBaseURL,
	llm.ProviderOpenRouter: openai.OpenRouterBaseURL,
	llm.ProviderTogether:   openai.TogetherBaseURL,
	llm.ProviderFireworks:  openai.FireworksBaseURL,
	llm.ProviderGrok:       openai.GrokBaseURL,
}

// Registry builds a provider registry from the configuration.
func Registry(cfg *Config) *llm.ProviderRegistry {
	providerConfig := &llm.ProviderConfig{
		AnthropicAPIKey:  cfg.Anthropic.APIKey,
		AnthropicModel:   cfg.Anthropic.Model,
		OpenAIAPIKey:     cfg.OpenAI.APIKey,
		OpenAIBaseURL:    cfg.OpenAI.BaseURL,
		OpenAIModel:      cfg.OpenAI.Model,
		OllamaHost:       cfg.Ollama.Host,
		OllamaModel:      cfg.Ollama.Model,
		GroqAPIKey:       cfg.Groq.APIKey,
		OpenRouterAPIKey: cfg.OpenRouter.APIKey,
		TogetherAPIKey:   cfg.Together.APIKey,
		FireworksAPIKey:  cfg.Fireworks.APIKey,
		GrokAPIKey:       cfg.Grok.APIKey,
	}
	return llm.NewProviderRegistry(providerConfig, cfg.Providers)
}

// compatModel returns the configured default model for an OpenAI-compatible
// provider. The registry carries no defaults for these, so the preference
// must supply the model.
func compatModel(cfg *Config, provider string) string {
	switch provider {
	case llm.ProviderGroq:
		return cfg.Groq.Model
	case llm.ProviderOpenRouter:
		return cfg.OpenRouter.Model
	case llm.ProviderTogether:
		return cfg.Together.Model
	case llm.ProviderFireworks:
		return cfg.Fireworks.Model
	case llm.ProviderGrok:
		return cfg.Grok.Model
	default:
		return ""
	}
}

// NewWrapperForKey builds a ChatModel for a resolved ClientKey.
func NewWrapperForKey(cfg *Config, key *llm.ClientKey, logger zerolog.Logger) (*llm.ChatModel, error) {
	var (
		backend llm.Backend
		err     error
	)

	switch key.Provider {
	case llm.ProviderAnthropic:
		backend, err = anthropic.NewBackend(key.APIKey, key.Model, logger)
	case llm.ProviderOpenAI:
		backend, err = openai.NewBackend(key.APIKey, key.BaseURL, key.Model, cfg.OpenAI.Organization, logger)
	case llm.ProviderOllama:
		backend, err = ollama.NewBackend(key.Host, key.Model, logger)
	case llm.ProviderGroq, llm.ProviderOpenRouter, llm.ProviderTogether, llm.ProviderFireworks, llm.ProviderGrok:
		backend, err = openai.NewBackend(key.APIKey, compatBaseURLs[key.Provider], key.Model, "", logger)
	default:
		return nil, fmt.Errorf("unknown provider: %s", key.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", key.Provider, err)
	}

	opts := []llm.ChatOption{llm.WithLogger(logger)}
	if cfg.Engine.RequestsPerMinute > 0 {
		opts = append(opts, llm.WithLimiter(llm.NewLimiter(cfg.Engine.RequestsPerMinute)))
	}
	return llm.NewChatModel(backend, opts...), nil
}

// NewWrapper builds a Wrapper from the configuration. Each enabled and
// configured provider contributes one member; a single member is returned
// directly, several are pooled in an Engine that rotates across them.
func NewWrapper(cfg *Config, logger zerolog.Logger) (llm.Wrapper, error) {
	registry := Registry(cfg)

	var members []llm.Wrapper
	for _, provider := range cfg.Providers {
		key, err := registry.Resolve([]llm.Preference{{
			Provider: provider,
			Model:    compatModel(cfg, provider),
		}})
		if err != nil {
			logger.Debug().Str("provider", provider).Err(err).Msg("skipping provider")
			continue
		}
		member, err := NewWrapperForKey(cfg, key, logger)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	switch len(members) {
	case 0:
		return nil, fmt.Errorf("no configured provider among %v", cfg.Providers)
	case 1:
		return members[0], nil
	default:
		engineOpts := []llm.EngineOption{llm.WithEngineLogger(logger)}
		if cfg.Engine.MaxRetries > 0 {
			engineOpts = append(engineOpts, llm.WithEngineMaxRetries(cfg.Engine.MaxRetries))
		}
		return llm.NewEngine(members, engineOpts...)
	}
}
