package llm

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Hook lets a Decorator rewrite the partitioned argument sets before a query
// reaches the inner Wrapper and observe the result once it is complete.
// BeforeQuery runs before any network call; returning an error aborts the
// query. AfterQuery receives the response text for the text operations and
// the decoded value for QueryObject. For streaming queries, AfterQuery fires
// only when the caller exhausts the stream; an abandoned stream is never
// observed.
type Hook interface {
	BeforeQuery(ctx context.Context, prompt, api Args) (Args, Args, error)
	AfterQuery(ctx context.Context, response any)
}

// HookFunc is a function-field implementation of Hook; nil fields fall back
// to pass-through behavior.
type HookFunc struct {
	BeforeQueryFunc func(ctx context.Context, prompt, api Args) (Args, Args, error)
	AfterQueryFunc  func(ctx context.Context, response any)
}

// BeforeQuery calls the BeforeQueryFunc if set.
func (f HookFunc) BeforeQuery(ctx context.Context, prompt, api Args) (Args, Args, error) {
	if f.BeforeQueryFunc != nil {
		return f.BeforeQueryFunc(ctx, prompt, api)
	}
	return prompt, api, nil
}

// AfterQuery calls the AfterQueryFunc if set.
func (f HookFunc) AfterQuery(ctx context.Context, response any) {
	if f.AfterQueryFunc != nil {
		f.AfterQueryFunc(ctx, response)
	}
}

// Decorator wraps an inner Wrapper with a Hook. From the outside it is
// indistinguishable from the wrapped model: the same four operations with the
// same semantics, which is what lets specialized behaviors stack to any depth.
type Decorator struct {
	inner  Wrapper
	hook   Hook
	logger zerolog.Logger
}

// DecoratorOption configures a Decorator at construction.
type DecoratorOption func(*Decorator)

// WithDecoratorLogger sets the decorator's logger.
func WithDecoratorLogger(logger zerolog.Logger) DecoratorOption {
	return func(d *Decorator) { d.logger = logger }
}

// NewDecorator creates a Decorator over inner. A nil hook is a pure
// pass-through. The delegation chain below inner is validated to be acyclic:
// cyclic delegation would recurse indefinitely at query time, so it is
// rejected here, at construction.
func NewDecorator(inner Wrapper, hook Hook, opts ...DecoratorOption) (*Decorator, error) {
	if inner == nil {
		return nil, NewArgumentError("inner wrapper is required", nil)
	}
	if hook == nil {
		hook = HookFunc{}
	}
	d := &Decorator{inner: inner, hook: hook, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	if err := checkAcyclic(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Inner implements Delegator.
func (d *Decorator) Inner() Wrapper { return d.inner }

// checkAcyclic walks the delegation chain from root and fails if any wrapper
// appears twice.
func checkAcyclic(root Wrapper) error {
	seen := map[Wrapper]bool{}
	for node := root; node != nil; {
		if seen[node] {
			return NewArgumentError("delegation chain contains a cycle", nil)
		}
		seen[node] = true
		delegator, ok := node.(Delegator)
		if !ok {
			return nil
		}
		node = delegator.Inner()
	}
	return nil
}

// QueryResponse implements Wrapper.
func (d *Decorator) QueryResponse(ctx context.Context, args Args) (string, error) {
	merged, err := d.before(ctx, args)
	if err != nil {
		return "", err
	}
	response, err := d.inner.QueryResponse(ctx, merged)
	if err != nil {
		return "", err
	}
	d.hook.AfterQuery(ctx, response)
	return response, nil
}

// QueryObject implements Wrapper. The hook observes the decoded value.
func (d *Decorator) QueryObject(ctx context.Context, target any, args Args) error {
	merged, err := d.before(ctx, args)
	if err != nil {
		return err
	}
	if err := d.inner.QueryObject(ctx, target, merged); err != nil {
		return err
	}
	d.hook.AfterQuery(ctx, target)
	return nil
}

// QueryBlock implements Wrapper.
func (d *Decorator) QueryBlock(ctx context.Context, blockType string, args Args) (string, error) {
	merged, err := d.before(ctx, args)
	if err != nil {
		return "", err
	}
	block, err := d.inner.QueryBlock(ctx, blockType, merged)
	if err != nil {
		return "", err
	}
	d.hook.AfterQuery(ctx, block)
	return block, nil
}

// QueryStream implements Wrapper. Chunks pass through unchanged; the complete
// response is assembled for the hook as the stream is consumed.
func (d *Decorator) QueryStream(ctx context.Context, args Args) (Stream, error) {
	merged, err := d.before(ctx, args)
	if err != nil {
		return nil, err
	}
	inner, err := d.inner.QueryStream(ctx, merged)
	if err != nil {
		return nil, err
	}
	return &observedStream{ctx: ctx, inner: inner, hook: d.hook}, nil
}

// before splits the arguments, runs the hook, and flattens the result for the
// inner wrapper. Hooks receive copies, so callers' maps are never mutated.
func (d *Decorator) before(ctx context.Context, args Args) (Args, error) {
	call := SplitArgs(args)
	prompt, api, err := d.hook.BeforeQuery(ctx, call.Prompt.clone(), call.API.clone())
	if err != nil {
		return nil, err
	}
	return CallArgs{Prompt: prompt, API: api}.Merge(), nil
}

// observedStream passes chunks through while accumulating the full response
// for the hook. The hook fires once, at exhaustion.
type observedStream struct {
	ctx      context.Context
	inner    Stream
	hook     Hook
	sb       strings.Builder
	notified bool
}

func (s *observedStream) Next() bool {
	if s.inner.Next() {
		s.sb.WriteString(s.inner.Chunk())
		return true
	}
	if !s.notified && s.inner.Err() == nil {
		s.notified = true
		s.hook.AfterQuery(s.ctx, s.sb.String())
	}
	return false
}

func (s *observedStream) Chunk() string { return s.inner.Chunk() }
func (s *observedStream) Err() error    { return s.inner.Err() }
func (s *observedStream) Close() error  { return s.inner.Close() }

var _ Wrapper = (*Decorator)(nil)
var _ Delegator = (*Decorator)(nil)
