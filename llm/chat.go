package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Backend is the single low-level primitive a provider adapter implements:
// send a chat history, get back a stream of text chunks. When streaming is
// false the adapter may answer with a single-chunk stream (and typically
// requests a non-streaming completion from the provider as an optimization).
// A successful call must yield at least one chunk, so a non-streaming call is
// always representable as the degenerate one-chunk stream.
//
// apiArgs carries the caller's API arguments (temperature, max_tokens, ...)
// minus any keys the history assembly consumed. Backends are the only
// components that perform I/O.
type Backend interface {
	Chat(ctx context.Context, history []Message, streaming bool, apiArgs Args) (Stream, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, history []Message, streaming bool, apiArgs Args) (Stream, error)

// Chat implements Backend.
func (f BackendFunc) Chat(ctx context.Context, history []Message, streaming bool, apiArgs Args) (Stream, error) {
	return f(ctx, history, streaming, apiArgs)
}

// ChatModel derives the full Wrapper surface from a Backend. It owns the
// prompt-construction step (prompt arguments compile into a trailing user
// message) and the decode/extract glue for object and block queries, so
// provider adapters only deal in chat turns and chunks.
type ChatModel struct {
	backend Backend
	logger  zerolog.Logger
	limiter *Limiter
	metrics *Metrics
}

// ChatOption configures a ChatModel at construction.
type ChatOption func(*ChatModel)

// WithLogger sets the model's logger.
func WithLogger(logger zerolog.Logger) ChatOption {
	return func(m *ChatModel) { m.logger = logger }
}

// WithLimiter paces backend calls with the given limiter.
func WithLimiter(limiter *Limiter) ChatOption {
	return func(m *ChatModel) { m.limiter = limiter }
}

// NewChatModel creates a ChatModel over the given backend. The model is
// immutable after construction; all per-call state is local to the call.
func NewChatModel(backend Backend, opts ...ChatOption) *ChatModel {
	m := &ChatModel{
		backend: backend,
		logger:  zerolog.Nop(),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Metrics returns the model's usage counters.
func (m *ChatModel) Metrics() *Metrics { return m.metrics }

// NextAllowed reports when the model's limiter next admits a call. Models
// without a limiter are always available.
func (m *ChatModel) NextAllowed() time.Time {
	if m.limiter == nil {
		return time.Time{}
	}
	return m.limiter.NextAllowed()
}

// buildHistory assembles the chat history for one call: any caller-supplied
// "messages" API argument first, then the compiled prompt arguments as a
// trailing user message. Returns the history and the remaining API arguments.
func buildHistory(call CallArgs) ([]Message, Args, error) {
	apiArgs := call.API.clone()

	var history []Message
	if raw, ok := apiArgs["messages"]; ok {
		msgs, ok := raw.([]Message)
		if !ok {
			return nil, nil, NewArgumentError(fmt.Sprintf("messages must be []llm.Message, got %T", raw), nil)
		}
		history = append(history, msgs...)
		delete(apiArgs, "messages")
	}

	if len(call.Prompt) > 0 {
		compiled, err := CompilePrompt(call.Prompt)
		if err != nil {
			return nil, nil, err
		}
		history = append(history, UserMessage(compiled))
	}

	if len(history) == 0 {
		return nil, nil, NewArgumentError("no prompt arguments or messages provided", nil)
	}
	return history, apiArgs, nil
}

// QueryStream implements Wrapper. Chunks pass through from the backend
// unchanged, in order.
func (m *ChatModel) QueryStream(ctx context.Context, args Args) (Stream, error) {
	history, apiArgs, err := buildHistory(SplitArgs(args))
	if err != nil {
		return nil, err
	}
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	stream, err := m.backend.Chat(ctx, history, true, apiArgs)
	if err != nil {
		return nil, AsBackendError("chat stream failed", err)
	}
	m.metrics.AddCall()
	return &meteredStream{inner: stream, metrics: m.metrics}, nil
}

// QueryResponse implements Wrapper. It is observably the chunk concatenation
// of the streaming path, requested non-streaming from the backend.
func (m *ChatModel) QueryResponse(ctx context.Context, args Args) (string, error) {
	history, apiArgs, err := buildHistory(SplitArgs(args))
	if err != nil {
		return "", err
	}
	return m.fullText(ctx, history, apiArgs)
}

// QueryObject implements Wrapper. See object.go for the schema and decode
// logic.
func (m *ChatModel) QueryObject(ctx context.Context, target any, args Args) error {
	history, apiArgs, err := buildHistory(SplitArgs(args))
	if err != nil {
		return err
	}

	schema, targetSchema, wrapped, err := schemaFor(target)
	if err != nil {
		return err
	}
	history = append(history, objectQueryMessages(schema)...)
	apiArgs["response_format"] = responseFormatFor(schema)

	text, err := m.fullText(ctx, history, apiArgs)
	if err != nil {
		return err
	}
	return decodeObject(text, target, targetSchema, wrapped)
}

// QueryBlock implements Wrapper. See block.go for the extraction logic.
func (m *ChatModel) QueryBlock(ctx context.Context, blockType string, args Args) (string, error) {
	history, apiArgs, err := buildHistory(SplitArgs(args))
	if err != nil {
		return "", err
	}
	history = append(history, blockQueryMessage(blockType))

	text, err := m.fullText(ctx, history, apiArgs)
	if err != nil {
		return "", err
	}
	return ExtractBlock(text, blockType)
}

// fullText runs one non-streaming backend call and concatenates the chunks,
// enforcing the at-least-one-chunk contract.
func (m *ChatModel) fullText(ctx context.Context, history []Message, apiArgs Args) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	stream, err := m.backend.Chat(ctx, history, false, apiArgs)
	if err != nil {
		return "", AsBackendError("chat completion failed", err)
	}
	defer stream.Close()

	var sb strings.Builder
	chunks := 0
	for stream.Next() {
		sb.WriteString(stream.Chunk())
		chunks++
		m.metrics.AddTokens(1)
	}
	if err := stream.Err(); err != nil {
		return "", AsBackendError("chat completion failed", err)
	}
	if chunks == 0 {
		return "", NewBackendError("backend yielded no chunks", nil)
	}
	m.metrics.AddCall()
	m.logger.Debug().Int("chunks", chunks).Int("messages", len(history)).Msg("chat response collected")
	return sb.String(), nil
}

// wait blocks until the limiter admits a call, honoring ctx cancellation.
func (m *ChatModel) wait(ctx context.Context) error {
	if m.limiter == nil {
		return nil
	}
	return m.limiter.Wait(ctx)
}

// meteredStream counts one token per chunk as a default estimate; providers
// with exact usage reporting log it themselves.
type meteredStream struct {
	inner   Stream
	metrics *Metrics
}

func (s *meteredStream) Next() bool {
	if !s.inner.Next() {
		return false
	}
	s.metrics.AddTokens(1)
	return true
}

func (s *meteredStream) Chunk() string { return s.inner.Chunk() }
func (s *meteredStream) Err() error    { return s.inner.Err() }
func (s *meteredStream) Close() error  { return s.inner.Close() }

var _ Wrapper = (*ChatModel)(nil)
