package llm

import (
	"context"
)

// Wrapper is the uniform query surface every composed LLM behavior exposes.
// The four operations are mutually consistent views of one logical "ask the
// model something" action: for the same arguments and backend state,
// QueryObject and QueryBlock decode from text QueryResponse would also have
// returned, and concatenating QueryStream's chunks equals QueryResponse.
//
// A Wrapper either produces responses itself or delegates to an inner
// Wrapper; the delegation chain is acyclic and finite, and the terminal
// element calls a live model endpoint.
type Wrapper interface {
	// QueryResponse returns the complete textual response.
	QueryResponse(ctx context.Context, args Args) (string, error)

	// QueryStream returns the response as an ordered chunk stream. The caller
	// owns the stream and must Close it; abandoning it early releases the
	// backend connection and is not an error.
	QueryStream(ctx context.Context, args Args) (Stream, error)

	// QueryObject decodes the response into target, which must be a non-nil
	// pointer. A response that does not conform to target's shape is a
	// validation error, never a silently partial result.
	QueryObject(ctx context.Context, target any, args Args) error

	// QueryBlock extracts the first fenced block tagged blockType (exact,
	// case-sensitive match) from the response. A response without such a
	// block is a format error.
	QueryBlock(ctx context.Context, blockType string, args Args) (string, error)
}

// Delegator is implemented by Wrappers that forward to an inner Wrapper.
// It exposes the delegation chain for construction-time acyclicity checks.
type Delegator interface {
	Inner() Wrapper
}

// Object is a typed convenience over Wrapper.QueryObject.
func Object[T any](ctx context.Context, w Wrapper, args Args) (T, error) {
	var target T
	if err := w.QueryObject(ctx, &target, args); err != nil {
		var zero T
		return zero, err
	}
	return target, nil
}
