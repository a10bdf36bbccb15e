package openai

import (
	"errors"
	"io"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/aschepis/backscratcher/llmwrap/llm"
)

// openaiStream implements llm.Stream over the SDK's chat completion stream.
// It pulls lazily: each Next call receives at most a handful of wire events,
// so an abandoned consumer never forces the rest of the response to download.
type openaiStream struct {
	stream *openai.ChatCompletionStream
	chunk  string
	err    error
	done   bool
	closed bool
	logger zerolog.Logger
}

func newOpenAIStream(stream *openai.ChatCompletionStream, logger zerolog.Logger) *openaiStream {
	return &openaiStream{stream: stream, logger: logger}
}

// Next advances to the next non-empty content delta.
func (s *openaiStream) Next() bool {
	if s.done || s.closed {
		return false
	}
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			return false
		}
		if err != nil {
			s.err = llm.NewBackendError("chat completion stream failed", err)
			s.done = true
			return false
		}
		// The final usage frame has no choices.
		if len(resp.Choices) == 0 {
			if resp.Usage != nil {
				s.logger.Debug().Int("total_tokens", resp.Usage.TotalTokens).Msg("stream usage reported")
			}
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			s.chunk = delta
			return true
		}
	}
}

// Chunk returns the current chunk.
func (s *openaiStream) Chunk() string { return s.chunk }

// Err returns any error that occurred during streaming.
func (s *openaiStream) Err() error { return s.err }

// Close releases the underlying connection. Safe to call at any point,
// including before exhaustion.
func (s *openaiStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stream.Close()
}

var _ llm.Stream = (*openaiStream)(nil)
