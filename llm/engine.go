package llm

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const (
	// DefaultEngineMaxRetries is the consecutive-failure cap per member
	// before it is evicted from the pool.
	DefaultEngineMaxRetries = 3
	// DefaultEngineInitialDelay is the first backoff interval after a
	// member's failure.
	DefaultEngineInitialDelay = 1 * time.Second
	// DefaultEngineMaxDelay caps the backoff interval.
	DefaultEngineMaxDelay = 2 * time.Minute
)

// Engine pools several Wrappers behind a single Wrapper. Each query picks the
// member with the most rate-limit headroom, backs off members that recently
// failed, and evicts a member after too many consecutive failures. The Engine
// itself is a Wrapper, so a pool composes anywhere a single model does.
//
// Argument errors are returned immediately: they are deterministic and no
// other member would classify the arguments differently.
type Engine struct {
	mu         sync.Mutex
	members    []*engineMember
	maxRetries int
	logger     zerolog.Logger
}

// engineMember tracks one pooled wrapper's failure state. The Engine's mutex
// guards the pool and the counters; the query itself runs unlocked.
type engineMember struct {
	wrapper  Wrapper
	delay    backoff.BackOff
	failures int
	next     time.Duration // pending backoff before the next use
}

// paced is implemented by wrappers that pace their own calls (ChatModel with
// a Limiter). Members that do not are always considered available.
type paced interface {
	NextAllowed() time.Time
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

// WithEngineMaxRetries sets the consecutive-failure cap per member.
func WithEngineMaxRetries(n int) EngineOption {
	return func(e *Engine) { e.maxRetries = n }
}

// NewEngine creates an Engine over members. At least one member is required.
func NewEngine(members []Wrapper, opts ...EngineOption) (*Engine, error) {
	if len(members) == 0 {
		return nil, NewArgumentError("engine requires at least one member", nil)
	}
	e := &Engine{
		maxRetries: DefaultEngineMaxRetries,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.members = lo.Map(members, func(w Wrapper, _ int) *engineMember {
		return &engineMember{wrapper: w, delay: newMemberBackoff()}
	})
	return e, nil
}

func newMemberBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultEngineInitialDelay
	b.MaxInterval = DefaultEngineMaxDelay
	b.MaxElapsedTime = 0 // the retry cap is the engine's failure counter
	return b
}

// selectMember picks the member whose next call is admitted earliest, and
// returns the backoff pause owed before using it.
func (e *Engine) selectMember() (*engineMember, time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.members) == 0 {
		return nil, 0, NewBackendError("no members available", nil)
	}
	member := lo.MinBy(e.members, func(a, b *engineMember) bool {
		return nextAllowed(a.wrapper).Before(nextAllowed(b.wrapper))
	})
	return member, member.next, nil
}

func nextAllowed(w Wrapper) time.Time {
	if p, ok := w.(paced); ok {
		return p.NextAllowed()
	}
	return time.Time{}
}

// recordResult updates a member's failure bookkeeping after a query and
// evicts it once it has failed too many times in a row.
func (e *Engine) recordResult(member *engineMember, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err == nil {
		member.failures = 0
		member.next = 0
		member.delay.Reset()
		return
	}

	member.failures++
	member.next = member.delay.NextBackOff()
	e.logger.Debug().Err(err).Int("failures", member.failures).Msg("engine member query failed")
	if member.failures >= e.maxRetries {
		e.members = lo.Without(e.members, member)
		e.logger.Warn().
			Int("failures", member.failures).
			Int("remaining", len(e.members)).
			Msg("engine member failed too many times, removing it")
	}
}

// run executes op against pool members until it succeeds, the context is
// done, or every member has been evicted.
func (e *Engine) run(ctx context.Context, op func(Wrapper) error) error {
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		member, pause, err := e.selectMember()
		if err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		if pause > 0 {
			if err := sleep(ctx, pause); err != nil {
				return err
			}
		}

		err = op(member.wrapper)
		if err == nil {
			e.recordResult(member, nil)
			return nil
		}
		if IsArgumentError(err) {
			return err
		}

		lastErr = err
		e.recordResult(member, err)
	}

	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueryResponse implements Wrapper.
func (e *Engine) QueryResponse(ctx context.Context, args Args) (string, error) {
	var out string
	err := e.run(ctx, func(w Wrapper) error {
		var err error
		out, err = w.QueryResponse(ctx, args)
		return err
	})
	return out, err
}

// QueryStream implements Wrapper. Retry covers stream construction only; an
// error mid-stream surfaces to the consumer, who decides whether to re-query.
func (e *Engine) QueryStream(ctx context.Context, args Args) (Stream, error) {
	var out Stream
	err := e.run(ctx, func(w Wrapper) error {
		var err error
		out, err = w.QueryStream(ctx, args)
		return err
	})
	return out, err
}

// QueryObject implements Wrapper.
func (e *Engine) QueryObject(ctx context.Context, target any, args Args) error {
	return e.run(ctx, func(w Wrapper) error {
		return w.QueryObject(ctx, target, args)
	})
}

// QueryBlock implements Wrapper.
func (e *Engine) QueryBlock(ctx context.Context, blockType string, args Args) (string, error) {
	var out string
	err := e.run(ctx, func(w Wrapper) error {
		var err error
		out, err = w.QueryBlock(ctx, blockType, args)
		return err
	})
	return out, err
}

var _ Wrapper = (*Engine)(nil)
