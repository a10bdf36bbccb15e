// Package ollama adapts a local Ollama server to the llm package. It is a
// terminal adapter: the leaf of any delegation chain, and the component that
// performs the actual network call.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/llmwrap/llm"
)

// Backend issues chat calls against an Ollama server.
type Backend struct {
	client *api.Client
	model  string
	logger zerolog.Logger
}

// NewBackend creates a Backend. If host is empty the client is configured
// from the environment (OLLAMA_HOST, default http://localhost:11434).
func NewBackend(host, model string, logger zerolog.Logger) (*Backend, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var client *api.Client
	if host != "" {
		baseURL, err := parseHost(host)
		if err != nil {
			return nil, fmt.Errorf("invalid host: %w", err)
		}
		client = api.NewClient(baseURL, &http.Client{})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &Backend{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// New creates a ChatModel speaking to an Ollama server.
func New(host, model string, logger zerolog.Logger) (*llm.ChatModel, error) {
	backend, err := NewBackend(host, model, logger)
	if err != nil {
		return nil, err
	}
	return llm.NewChatModel(backend, llm.WithLogger(logger)), nil
}

// parseHost parses a host string into a URL, defaulting the scheme to http.
func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// Chat implements llm.Backend.
func (b *Backend) Chat(ctx context.Context, history []llm.Message, streaming bool, apiArgs llm.Args) (llm.Stream, error) {
	req := &api.ChatRequest{
		Model:    b.model,
		Messages: toOllamaMessages(history),
	}
	if err := applyAPIArgs(req, apiArgs); err != nil {
		return nil, err
	}

	if !streaming {
		return b.complete(ctx, req)
	}
	return b.stream(ctx, req), nil
}

// complete issues a non-streaming chat and returns it as the degenerate
// one-chunk stream.
func (b *Backend) complete(ctx context.Context, req *api.ChatRequest) (llm.Stream, error) {
	streamOff := false
	req.Stream = &streamOff

	var sb strings.Builder
	err := b.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		if resp.Done {
			b.logger.Debug().
				Str("model", req.Model).
				Int("eval_count", resp.EvalCount).
				Msg("chat completed")
		}
		return nil
	})
	if err != nil {
		return nil, llm.NewBackendError("chat request failed", err)
	}
	return llm.NewTextStream(sb.String()), nil
}

// stream issues a streaming chat, bridging the SDK's callback onto a
// channel-backed Stream.
func (b *Backend) stream(ctx context.Context, req *api.ChatRequest) llm.Stream {
	streamOn := true
	req.Stream = &streamOn

	cctx, cancel := context.WithCancel(ctx)
	s := &ollamaStream{
		chunks: make(chan string),
		result: make(chan error, 1),
		cancel: cancel,
	}

	go func() {
		err := b.client.Chat(cctx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			select {
			case s.chunks <- resp.Message.Content:
				return nil
			case <-cctx.Done():
				return cctx.Err()
			}
		})
		s.result <- err
		close(s.chunks)
	}()

	return s
}

// toOllamaMessages converts chat history to the SDK's message type.
func toOllamaMessages(history []llm.Message) []api.Message {
	msgs := make([]api.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, api.Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return msgs
}

// applyAPIArgs applies the caller's API arguments onto the SDK request.
// max_tokens maps onto num_predict and response_format onto the request's
// format field; everything else passes through as a model option, which the
// server validates.
func applyAPIArgs(req *api.ChatRequest, apiArgs llm.Args) error {
	options := make(map[string]any)
	for name, value := range apiArgs {
		switch name {
		case "max_tokens":
			options["num_predict"] = value
		case "response_format":
			format, err := toFormat(value)
			if err != nil {
				return llm.NewArgumentError("invalid API argument \"response_format\"", err)
			}
			req.Format = format
		default:
			options[name] = value
		}
	}
	if len(options) > 0 {
		req.Options = options
	}
	return nil
}

// toFormat converts the provider-neutral response_format argument to the
// request's format field: either the literal "json" mode or a JSON schema.
func toFormat(value any) (json.RawMessage, error) {
	switch v := value.(type) {
	case string:
		if v != "json_object" {
			return nil, fmt.Errorf("unknown response format %q", v)
		}
		return json.RawMessage(`"json"`), nil
	case map[string]any:
		spec, ok := v["json_schema"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json_schema section missing")
		}
		return json.Marshal(spec["schema"])
	default:
		return nil, fmt.Errorf("expected string or mapping, got %T", value)
	}
}

var _ llm.Backend = (*Backend)(nil)
