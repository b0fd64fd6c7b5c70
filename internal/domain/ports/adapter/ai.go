package adapter

import (
	"context"
	"errors"
)

// Provider role names on the completion wire.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// FallbackReply is returned when the provider answers without a readable
// text part. A structurally odd answer is degraded into this fixed reply
// instead of being treated as a failure.
const FallbackReply = "could not understand"

// Turn is one role-tagged unit of text submitted to the completion provider.
type Turn struct {
	Role string `json:"role"` // "user" | "model"
	Text string `json:"text"`
}

// Usage for a single completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// TransportError marks a network or provider-call failure, as opposed to a
// malformed-but-delivered response (which degrades to FallbackReply).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "completion transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is (or wraps) a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// CompletionAdapter is the port for the remote completion provider.
// Exactly one attempt per invocation; no internal retry or timeout, the
// caller owns the context.
type CompletionAdapter interface {
	// Complete returns only the reply text.
	Complete(ctx context.Context, model string, turns []Turn) (string, error)

	// CompleteWithUsage returns reply text + usage as reported by the provider.
	CompleteWithUsage(ctx context.Context, model string, turns []Turn) (string, Usage, error)

	// CountTokens returns prompt tokens for the provided turns
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, turns []Turn) (int, error)
}
