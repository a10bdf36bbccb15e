package openai

import (
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/llmwrap/llm"
)

// Base URLs for services that speak the OpenAI chat completion protocol.
const (
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	TogetherBaseURL   = "https://api.together.xyz/v1"
	FireworksBaseURL  = "https://api.fireworks.ai/inference/v1"
	GrokBaseURL       = "https://api.x.ai/v1"
)

// NewCompatible creates a ChatModel for any OpenAI-compatible endpoint.
func NewCompatible(apiKey, baseURL, model string, logger zerolog.Logger) (*llm.ChatModel, error) {
	backend, err := NewBackend(apiKey, baseURL, model, "", logger)
	if err != nil {
		return nil, err
	}
	return llm.NewChatModel(backend, llm.WithLogger(logger)), nil
}

// NewGroq creates a ChatModel speaking to Groq.
func NewGroq(apiKey, model string, logger zerolog.Logger) (*llm.ChatModel, error) {
	return NewCompatible(apiKey, GroqBaseURL, model, logger)
}

// NewOpenRouter creates a ChatModel speaking to OpenRouter.
func NewOpenRouter(apiKey, model string, logger zerolog.Logger) (*llm.ChatModel, error) {
	return NewCompatible(apiKey, OpenRouterBaseURL, model, logger)
}

// NewTogether creates a ChatModel speaking to Together.
func NewTogether(apiKey, model string, logger zerolog.Logger) (*llm.ChatModel, error) {
	return NewCompatible(apiKey, TogetherBaseURL, model, logger)
}

// NewFireworks creates a ChatModel speaking to Fireworks.
func NewFireworks(apiKey, model string, logger zerolog.Logger) (*llm.ChatModel, error) {
	return NewCompatible(apiKey, FireworksBaseURL, model, logger)
}

// NewGrok creates a ChatModel speaking to xAI's Grok.
func NewGrok(apiKey, model string, logger zerolog.Logger) (*llm.ChatModel, error) {
	return NewCompatible(apiKey, GrokBaseURL, model, logger)
}
