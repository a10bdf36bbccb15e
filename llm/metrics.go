package llm

import (
	"sync/atomic"
)

// Metrics accumulates usage counters for one wrapper. Streaming backends that
// do not report exact usage are estimated at one token per chunk.
type Metrics struct {
	tokens atomic.Int64
	calls  atomic.Int64
}

// NewMetrics creates a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// AddTokens adds n to the consumed-token counter.
func (m *Metrics) AddTokens(n int64) {
	m.tokens.Add(n)
}

// AddCall records one completed backend call.
func (m *Metrics) AddCall() {
	m.calls.Add(1)
}

// Tokens returns the tokens consumed so far.
func (m *Metrics) Tokens() int64 {
	return m.tokens.Load()
}

// Calls returns the backend calls completed so far.
func (m *Metrics) Calls() int64 {
	return m.calls.Load()
}
