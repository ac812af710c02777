// Package oracle wraps the language-model collaborator behind a small
// interface. The oracle is optional: when no API key is configured every
// caller falls back to its deterministic path, so ErrUnavailable is a
// routine condition, not a failure.
package oracle

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no oracle is configured or the
// configured one cannot be reached.
var ErrUnavailable = errors.New("oracle unavailable")

// Client is the minimal contract the detection pipeline needs from a
// language model.
type Client interface {
	// Complete sends a prompt and returns raw text.
	Complete(ctx context.Context, system, user string) (string, error)
	// CompleteJSON sends a prompt and asks the model for a JSON
	// response. The returned string is the raw (possibly fenced) body;
	// callers parse it tolerantly.
	CompleteJSON(ctx context.Context, system, user string) (string, error)
	// Available reports whether calls have any chance of succeeding.
	Available() bool
}

// Disabled is the no-oracle client: Available is false and every call
// returns ErrUnavailable.
type Disabled struct{}

func (Disabled) Complete(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) CompleteJSON(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Disabled) Available() bool { return false }
