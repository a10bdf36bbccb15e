// Package openai adapts OpenAI-style chat completion endpoints to the llm
// package. It is a terminal adapter: the leaf of any delegation chain, and
// the component that performs the actual network call. Several other services
// speak the same wire protocol; constructors for them are in compat.go.
package openai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/aschepis/backscratcher/llmwrap/llm"
)

// Backend issues chat completion calls against an OpenAI-compatible API.
type Backend struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewBackend creates a Backend. apiKey is required; baseURL and organization
// are optional and default to the official OpenAI endpoint.
func NewBackend(apiKey, baseURL, model, organization string, logger zerolog.Logger) (*Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if organization != "" {
		config.OrgID = organization
	}

	return &Backend{
		client: openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}, nil
}

// New creates a ChatModel speaking to the official OpenAI API.
func New(apiKey, model string, logger zerolog.Logger) (*llm.ChatModel, error) {
	backend, err := NewBackend(apiKey, "", model, "", logger)
	if err != nil {
		return nil, err
	}
	return llm.NewChatModel(backend, llm.WithLogger(logger)), nil
}

// Chat implements llm.Backend.
func (b *Backend) Chat(ctx context.Context, history []llm.Message, streaming bool, apiArgs llm.Args) (llm.Stream, error) {
	req := openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: toOpenAIMessages(history),
	}
	if err := applyAPIArgs(&req, apiArgs); err != nil {
		return nil, err
	}

	if !streaming {
		return b.complete(ctx, req)
	}
	return b.stream(ctx, req)
}

// complete issues a non-streaming completion and returns it as the degenerate
// one-chunk stream.
func (b *Backend) complete(ctx context.Context, req openai.ChatCompletionRequest) (llm.Stream, error) {
	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, llm.NewBackendError("chat completion request failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewBackendError("chat completion returned no choices", nil)
	}

	choice := resp.Choices[0]
	switch choice.FinishReason {
	case openai.FinishReasonLength:
		return nil, llm.NewBackendError("the conversation was too long for the context window", nil)
	case openai.FinishReasonContentFilter:
		return nil, llm.NewBackendError("content was filtered due to policy violations", nil)
	}

	b.logger.Debug().
		Str("model", req.Model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("chat completion finished")

	return llm.NewTextStream(choice.Message.Content), nil
}

// stream issues a streaming completion.
func (b *Backend) stream(ctx context.Context, req openai.ChatCompletionRequest) (llm.Stream, error) {
	req.Stream = true
	req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := b.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, llm.NewBackendError("chat completion stream failed", err)
	}
	return newOpenAIStream(stream, b.logger), nil
}

// toOpenAIMessages converts chat history to the SDK's message type.
func toOpenAIMessages(history []llm.Message) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(m.Role),
			Content: m.Content,
		})
	}
	return msgs
}

func toOpenAIRole(role llm.Role) string {
	switch role {
	case llm.RoleSystem:
		return openai.ChatMessageRoleSystem
	case llm.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

var _ llm.Backend = (*Backend)(nil)
