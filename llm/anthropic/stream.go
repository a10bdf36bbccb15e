package anthropic

import (
	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/llmwrap/llm"
)

// anthropicStream implements llm.Stream over the SDK's SSE stream. It pulls
// lazily, one wire event at a time, so an abandoned consumer never forces the
// rest of the response to download.
type anthropicStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	chunk  string
	err    error
	done   bool
	closed bool
	logger zerolog.Logger
}

func newAnthropicStream(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], logger zerolog.Logger) *anthropicStream {
	return &anthropicStream{stream: stream, logger: logger}
}

// Next advances to the next text delta.
func (s *anthropicStream) Next() bool {
	if s.done || s.closed {
		return false
	}
	for s.stream.Next() {
		event := s.stream.Current()
		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				s.chunk = delta.Text
				return true
			}
		case anthropic.MessageDeltaEvent:
			s.logger.Debug().
				Int64("output_tokens", evt.Usage.OutputTokens).
				Msg("stream usage reported")
		case anthropic.MessageStopEvent:
			s.done = true
			return false
		}
	}
	if err := s.stream.Err(); err != nil {
		s.err = llm.NewBackendError("messages stream failed", err)
	}
	s.done = true
	return false
}

// Chunk returns the current chunk.
func (s *anthropicStream) Chunk() string { return s.chunk }

// Err returns any error that occurred during streaming.
func (s *anthropicStream) Err() error { return s.err }

// Close releases the underlying connection. Safe to call at any point,
// including before exhaustion.
func (s *anthropicStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stream.Close()
}

var _ llm.Stream = (*anthropicStream)(nil)
