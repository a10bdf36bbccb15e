package llm

import (
	"strings"
)

// Stream represents a finite, non-restartable, ordered sequence of response
// text chunks. Concatenating every chunk yields the complete response.
type Stream interface {
	// Next advances to the next chunk in the stream.
	// Returns false when the stream is complete or an error occurs.
	Next() bool

	// Chunk returns the current chunk.
	// Should only be called after Next() returns true.
	Chunk() string

	// Err returns any error that occurred during streaming.
	Err() error

	// Close closes the stream and releases the backend connection. It must be
	// called on every exit path, including early abandonment; closing an
	// exhausted stream is a no-op.
	Close() error
}

// Collect drains a stream into a single string and closes it. The stream's
// own error takes precedence; a Close failure is reported only when the drain
// itself succeeded.
func Collect(s Stream) (string, error) {
	var sb strings.Builder
	for s.Next() {
		sb.WriteString(s.Chunk())
	}
	if err := s.Err(); err != nil {
		_ = s.Close()
		return "", err
	}
	return sb.String(), s.Close()
}

// textStream is an in-memory Stream over a fixed chunk slice. It backs the
// degenerate one-chunk path for non-streaming backend responses and is handy
// as a test double.
type textStream struct {
	chunks []string
	index  int
	closed bool
}

// NewTextStream returns a Stream that yields the given chunks in order.
func NewTextStream(chunks ...string) Stream {
	return &textStream{chunks: chunks, index: -1}
}

// Next advances to the next chunk.
func (s *textStream) Next() bool {
	if s.closed {
		return false
	}
	s.index++
	return s.index < len(s.chunks)
}

// Chunk returns the current chunk.
func (s *textStream) Chunk() string {
	if s.index < 0 || s.index >= len(s.chunks) {
		return ""
	}
	return s.chunks[s.index]
}

// Err always returns nil: an in-memory stream cannot fail.
func (s *textStream) Err() error { return nil }

// Close marks the stream exhausted.
func (s *textStream) Close() error {
	s.closed = true
	return nil
}

var _ Stream = (*textStream)(nil)
