package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDecoratorRequiresInner(t *testing.T) {
	_, err := NewDecorator(nil, HookFunc{})
	if !IsArgumentError(err) {
		t.Errorf("expected argument error for nil inner, got %v", err)
	}
}

func TestDecoratorNilHookPassesThrough(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"Hello"}}
	d, err := NewDecorator(NewChatModel(backend), nil)
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	got, err := d.QueryResponse(context.Background(), Args{"QUESTION": "hi"})
	if err != nil {
		t.Fatalf("QueryResponse: %v", err)
	}
	if got != "Hello" {
		t.Errorf("QueryResponse = %q", got)
	}
}

func TestDecoratorBeforeQueryRewritesArgs(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"ok"}}
	hook := HookFunc{
		BeforeQueryFunc: func(_ context.Context, prompt, api Args) (Args, Args, error) {
			prompt["STYLE"] = "terse"
			api["temperature"] = 0.0
			return prompt, api, nil
		},
	}
	d, err := NewDecorator(NewChatModel(backend), hook)
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	if _, err := d.QueryResponse(context.Background(), Args{"QUESTION": "hi"}); err != nil {
		t.Fatalf("QueryResponse: %v", err)
	}
	if backend.apiArgs["temperature"] != 0.0 {
		t.Error("rewritten API arg did not reach the backend")
	}
	if len(backend.history) != 1 {
		t.Fatalf("expected one message, got %d", len(backend.history))
	}
	// STYLE was added by the hook, so it must appear in the compiled prompt.
	if want := "# STYLE\nterse"; !strings.Contains(backend.history[0].Content, want) {
		t.Errorf("rewritten prompt arg missing from compiled prompt:\n%s", backend.history[0].Content)
	}
}

func TestDecoratorBeforeQueryErrorAborts(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"ok"}}
	hook := HookFunc{
		BeforeQueryFunc: func(_ context.Context, _, _ Args) (Args, Args, error) {
			return nil, nil, NewArgumentError("missing QUESTION", nil)
		},
	}
	d, err := NewDecorator(NewChatModel(backend), hook)
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	_, err = d.QueryResponse(context.Background(), Args{"QUESTION": "hi"})
	if !IsArgumentError(err) {
		t.Errorf("expected hook error to surface, got %v", err)
	}
	if backend.history != nil {
		t.Error("inner wrapper must not be queried when the hook aborts")
	}
}

func TestDecoratorDoesNotMutateCallerArgs(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"ok"}}
	hook := HookFunc{
		BeforeQueryFunc: func(_ context.Context, prompt, api Args) (Args, Args, error) {
			prompt["QUESTION"] = "rewritten"
			return prompt, api, nil
		},
	}
	d, err := NewDecorator(NewChatModel(backend), hook)
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	args := Args{"QUESTION": "original"}
	if _, err := d.QueryResponse(context.Background(), args); err != nil {
		t.Fatalf("QueryResponse: %v", err)
	}
	if args["QUESTION"] != "original" {
		t.Error("hook rewrite must not mutate the caller's map")
	}
}

func TestDecoratorAfterQueryObservesResponse(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"Hello"}}
	var observed any
	hook := HookFunc{
		AfterQueryFunc: func(_ context.Context, response any) { observed = response },
	}
	d, err := NewDecorator(NewChatModel(backend), hook)
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	if _, err := d.QueryResponse(context.Background(), Args{"QUESTION": "hi"}); err != nil {
		t.Fatalf("QueryResponse: %v", err)
	}
	if observed != "Hello" {
		t.Errorf("hook observed %v, want %q", observed, "Hello")
	}
}

func TestDecoratorAfterQueryObservesDecodedObject(t *testing.T) {
	backend := &recordingBackend{chunks: []string{`{"data": ["a"]}`}}
	var observed any
	hook := HookFunc{
		AfterQueryFunc: func(_ context.Context, response any) { observed = response },
	}
	d, err := NewDecorator(NewChatModel(backend), hook)
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	var target []string
	if err := d.QueryObject(context.Background(), &target, Args{"QUESTION": "letters"}); err != nil {
		t.Fatalf("QueryObject: %v", err)
	}
	decoded, ok := observed.(*[]string)
	if !ok {
		t.Fatalf("hook observed %T, want *[]string", observed)
	}
	if len(*decoded) != 1 || (*decoded)[0] != "a" {
		t.Errorf("hook observed %v", *decoded)
	}
}

func TestDecoratorStreamObservedOnExhaustion(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"Hel", "lo"}}
	var observed any
	hook := HookFunc{
		AfterQueryFunc: func(_ context.Context, response any) { observed = response },
	}
	d, err := NewDecorator(NewChatModel(backend), hook)
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	stream, err := d.QueryStream(context.Background(), Args{"QUESTION": "hi"})
	if err != nil {
		t.Fatalf("QueryStream: %v", err)
	}
	if !stream.Next() {
		t.Fatal("expected first chunk")
	}
	if observed != nil {
		t.Error("hook must not fire before the stream is exhausted")
	}
	got, err := Collect(stream)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got != "lo" {
		t.Errorf("remaining stream = %q", got)
	}
	if observed != "Hello" {
		t.Errorf("hook observed %v, want full response", observed)
	}
}

func TestDecoratorStreamAbandonedNotObserved(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"Hel", "lo"}}
	fired := false
	hook := HookFunc{
		AfterQueryFunc: func(_ context.Context, _ any) { fired = true },
	}
	d, err := NewDecorator(NewChatModel(backend), hook)
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	stream, err := d.QueryStream(context.Background(), Args{"QUESTION": "hi"})
	if err != nil {
		t.Fatalf("QueryStream: %v", err)
	}
	stream.Next()
	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if fired {
		t.Error("hook must not fire for an abandoned stream")
	}
}

// cyclicWrapper delegates to itself, for exercising cycle detection.
type cyclicWrapper struct {
	inner Wrapper
}

func (c *cyclicWrapper) Inner() Wrapper { return c.inner }
func (c *cyclicWrapper) QueryResponse(ctx context.Context, args Args) (string, error) {
	return c.inner.QueryResponse(ctx, args)
}
func (c *cyclicWrapper) QueryStream(ctx context.Context, args Args) (Stream, error) {
	return c.inner.QueryStream(ctx, args)
}
func (c *cyclicWrapper) QueryObject(ctx context.Context, target any, args Args) error {
	return c.inner.QueryObject(ctx, target, args)
}
func (c *cyclicWrapper) QueryBlock(ctx context.Context, blockType string, args Args) (string, error) {
	return c.inner.QueryBlock(ctx, blockType, args)
}

func TestDecoratorRejectsCyclicDelegation(t *testing.T) {
	a := &cyclicWrapper{}
	b := &cyclicWrapper{inner: a}
	a.inner = b

	_, err := NewDecorator(a, nil)
	if !IsArgumentError(err) {
		t.Errorf("expected argument error for cyclic chain, got %v", err)
	}
}

func TestDecoratorStacking(t *testing.T) {
	backend := &recordingBackend{chunks: []string{"ok"}}
	var order []string
	mkHook := func(name string) Hook {
		return HookFunc{
			BeforeQueryFunc: func(_ context.Context, prompt, api Args) (Args, Args, error) {
				order = append(order, name)
				return prompt, api, nil
			},
		}
	}

	inner, err := NewDecorator(NewChatModel(backend), mkHook("inner"))
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}
	outer, err := NewDecorator(inner, mkHook("outer"))
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	if _, err := outer.QueryResponse(context.Background(), Args{"QUESTION": "hi"}); err != nil {
		t.Fatalf("QueryResponse: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("hooks ran in order %v, want [outer inner]", order)
	}
}

func TestDecoratorErrorNotObserved(t *testing.T) {
	backend := &recordingBackend{err: errors.New("boom")}
	fired := false
	hook := HookFunc{
		AfterQueryFunc: func(_ context.Context, _ any) { fired = true },
	}
	d, err := NewDecorator(NewChatModel(backend), hook)
	if err != nil {
		t.Fatalf("NewDecorator: %v", err)
	}

	if _, err := d.QueryResponse(context.Background(), Args{"QUESTION": "hi"}); err == nil {
		t.Fatal("expected backend error")
	}
	if fired {
		t.Error("hook must not observe failed queries")
	}
}
