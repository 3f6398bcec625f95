// Package llm defines the inference collaborator boundary: text in, text
// out, fallible, latency-bearing. The production implementation talks to an
// OpenAI-compatible chat-completions endpoint; tests inject fakes.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Client is the inference service contract. Implementations may return
// empty content or embed structured data anywhere in the response text;
// callers extract what they need.
type Client interface {
	// Complete sends a prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleteFunc adapts a function to the Client interface.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Client.
func (f CompleteFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrEmptyContent indicates the model call succeeded but produced no text.
var ErrEmptyContent = errors.New("model returned empty content")

// Error wraps a failure from an inference call.
type Error struct {
	// Op is the operation that failed ("complete").
	Op string
	// Err is the underlying error.
	Err error
	// Retryable indicates whether retrying might succeed.
	Retryable bool
}

// NewError creates an Error.
func NewError(op string, err error, retryable bool) *Error {
	return &Error{Op: op, Err: err, Retryable: retryable}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is an inference error worth retrying.
func IsRetryable(err error) bool {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Retryable
	}
	return false
}
