package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorTypeChecks(t *testing.T) {
	cases := []struct {
		err   error
		check func(error) bool
		name  string
	}{
		{NewArgumentError("bad arg", nil), IsArgumentError, "argument"},
		{NewBackendError("call failed", nil), IsBackendError, "backend"},
		{NewValidationError("bad shape", nil), IsValidationError, "validation"},
		{NewFormatError("no block"), IsFormatError, "format"},
	}

	for _, c := range cases {
		if !c.check(c.err) {
			t.Errorf("expected Is%sError to match %v", c.name, c.err)
		}
	}

	if IsArgumentError(NewBackendError("x", nil)) {
		t.Error("IsArgumentError should not match a backend error")
	}
	if IsBackendError(errors.New("plain")) {
		t.Error("IsBackendError should not match a plain error")
	}
}

func TestErrorTypeChecksThroughWrapping(t *testing.T) {
	inner := NewValidationError("bad shape", nil)
	wrapped := fmt.Errorf("query failed: %w", inner)
	if !IsValidationError(wrapped) {
		t.Error("expected validation check to see through fmt.Errorf wrapping")
	}
}

func TestErrorUnwrap(t *testing.T) {
	original := errors.New("connection refused")
	wrapped := NewBackendError("call failed", original)
	if !errors.Is(wrapped, original) {
		t.Error("expected error to unwrap to the original error")
	}
}

func TestAsBackendError(t *testing.T) {
	// Plain errors get wrapped.
	plain := errors.New("boom")
	wrapped := AsBackendError("call failed", plain)
	if !IsBackendError(wrapped) {
		t.Error("expected plain error to be wrapped as backend error")
	}

	// Package errors pass through unchanged: no double-wrap, no downgrade.
	argErr := NewArgumentError("bad arg", nil)
	if got := AsBackendError("call failed", argErr); got != argErr { //nolint:errorlint // identity check intended
		t.Error("expected argument error to pass through unchanged")
	}
	backendErr := NewBackendError("already wrapped", nil)
	if got := AsBackendError("call failed", backendErr); got != backendErr { //nolint:errorlint // identity check intended
		t.Error("expected backend error to pass through unchanged")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewBackendError("call failed", errors.New("timeout"))
	want := "backend: call failed: timeout"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	bare := NewFormatError("no block")
	if bare.Error() != "format: no block" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
