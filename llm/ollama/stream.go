package ollama

import (
	"context"
	"errors"

	"github.com/aschepis/backscratcher/llmwrap/llm"
)

// ollamaStream implements llm.Stream over the SDK's callback-driven chat
// call, which runs in its own goroutine and hands chunks over a channel.
// Close cancels the call's context, which unblocks the producer on early
// abandonment so the connection is released.
type ollamaStream struct {
	chunks chan string
	result chan error
	cancel context.CancelFunc
	chunk  string
	err    error
	done   bool
	closed bool
}

// Next advances to the next chunk.
func (s *ollamaStream) Next() bool {
	if s.done || s.closed {
		return false
	}
	chunk, ok := <-s.chunks
	if !ok {
		s.done = true
		if err := <-s.result; err != nil && !errors.Is(err, context.Canceled) {
			s.err = llm.NewBackendError("chat stream failed", err)
		}
		return false
	}
	s.chunk = chunk
	return true
}

// Chunk returns the current chunk.
func (s *ollamaStream) Chunk() string { return s.chunk }

// Err returns any error that occurred during streaming.
func (s *ollamaStream) Err() error { return s.err }

// Close cancels the underlying request. Safe to call at any point, including
// before exhaustion.
func (s *ollamaStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	return nil
}

var _ llm.Stream = (*ollamaStream)(nil)
