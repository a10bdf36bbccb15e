// Package anthropic adapts Anthropic's Messages API to the llm package. It is
// a terminal adapter: the leaf of any delegation chain, and the component that
// performs the actual network call.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/llmwrap/llm"
)

// defaultMaxTokens applies when the caller does not pass max_tokens; the
// Messages API requires the field.
const defaultMaxTokens = 4096

// Backend issues Messages API calls.
type Backend struct {
	client *anthropic.Client
	model  string
	logger zerolog.Logger
}

// NewBackend creates a Backend with the given API key and model.
func NewBackend(apiKey, model string, logger zerolog.Logger) (*Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Backend{
		client: &client,
		model:  model,
		logger: logger,
	}, nil
}

// New creates a ChatModel speaking to the Anthropic API.
func New(apiKey, model string, logger zerolog.Logger) (*llm.ChatModel, error) {
	backend, err := NewBackend(apiKey, model, logger)
	if err != nil {
		return nil, err
	}
	return llm.NewChatModel(backend, llm.WithLogger(logger)), nil
}

// Chat implements llm.Backend.
func (b *Backend) Chat(ctx context.Context, history []llm.Message, streaming bool, apiArgs llm.Args) (llm.Stream, error) {
	params, err := b.buildParams(history, apiArgs)
	if err != nil {
		return nil, err
	}

	if !streaming {
		return b.complete(ctx, params)
	}
	stream := b.client.Messages.NewStreaming(ctx, params)
	return newAnthropicStream(stream, b.logger), nil
}

// buildParams converts history and API arguments into Messages API params.
// System messages, wherever they sit in the history, become the dedicated
// system parameter; the API does not accept them inline.
func (b *Backend) buildParams(history []llm.Message, apiArgs llm.Args) (anthropic.MessageNewParams, error) {
	system, rest := splitSystem(history)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: defaultMaxTokens,
		Messages:  toMessageParams(rest),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if err := applyAPIArgs(&params, apiArgs); err != nil {
		return anthropic.MessageNewParams{}, err
	}
	return params, nil
}

// complete issues a non-streaming call and returns it as the degenerate
// one-chunk stream.
func (b *Backend) complete(ctx context.Context, params anthropic.MessageNewParams) (llm.Stream, error) {
	message, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return nil, llm.NewBackendError("messages request failed", err)
	}

	var sb strings.Builder
	for _, blockUnion := range message.Content {
		if block, ok := blockUnion.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(block.Text)
		}
	}

	b.logger.Debug().
		Str("model", string(params.Model)).
		Int64("input_tokens", message.Usage.InputTokens).
		Int64("output_tokens", message.Usage.OutputTokens).
		Msg("message completed")

	return llm.NewTextStream(sb.String()), nil
}

// splitSystem extracts system messages from the history, joining multiple
// system turns with blank lines.
func splitSystem(history []llm.Message) (string, []llm.Message) {
	var system []string
	rest := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.Role == llm.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// toMessageParams converts non-system history to the SDK's message type.
func toMessageParams(history []llm.Message) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(history))
	for _, m := range history {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == llm.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}
	return msgs
}

// applyAPIArgs applies the caller's API arguments onto the SDK params. The
// response_format argument is accepted and ignored: the Messages API has no
// constrained decoding, the schema instruction messages carry the intent.
func applyAPIArgs(params *anthropic.MessageNewParams, apiArgs llm.Args) error {
	for name, value := range apiArgs {
		var err error
		switch name {
		case "max_tokens":
			err = setInt64(&params.MaxTokens, value)
		case "temperature":
			var t float64
			if err = setFloat64(&t, value); err == nil {
				params.Temperature = anthropic.Float(t)
			}
		case "top_p":
			var t float64
			if err = setFloat64(&t, value); err == nil {
				params.TopP = anthropic.Float(t)
			}
		case "stop":
			params.StopSequences, err = stringSlice(value)
		case "response_format":
			// No constrained decoding on this API.
		default:
			return llm.NewArgumentError(fmt.Sprintf("unsupported API argument %q", name), nil)
		}
		if err != nil {
			return llm.NewArgumentError(fmt.Sprintf("invalid API argument %q", name), err)
		}
	}
	return nil
}

func setFloat64(dst *float64, value any) error {
	switch v := value.(type) {
	case float64:
		*dst = v
	case float32:
		*dst = float64(v)
	case int:
		*dst = float64(v)
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
	return nil
}

func setInt64(dst *int64, value any) error {
	switch v := value.(type) {
	case int:
		*dst = int64(v)
	case int64:
		*dst = v
	case float64:
		*dst = int64(v)
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
	return nil
}

func stringSlice(value any) ([]string, error) {
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string elements, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected string or string list, got %T", value)
	}
}

var _ llm.Backend = (*Backend)(nil)
