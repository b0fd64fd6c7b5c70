package ai

import (
	"context"
	"time"

	"document-chat-assistant/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*NoopAdapter)(nil)

// NoopAdapter implements the completion port for local/dev runs. It echoes
// the last user turn after a small delay instead of calling a provider.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter {
	return &NoopAdapter{}
}

func (a *NoopAdapter) Complete(ctx context.Context, model string, turns []adapter.Turn) (string, error) {
	reply, _, err := a.CompleteWithUsage(ctx, model, turns)
	return reply, err
}

func (a *NoopAdapter) CompleteWithUsage(ctx context.Context, model string, turns []adapter.Turn) (string, adapter.Usage, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", adapter.Usage{}, &adapter.TransportError{Err: ctx.Err()}
	}
	if len(turns) == 0 {
		return adapter.FallbackReply, adapter.Usage{}, nil
	}
	last := turns[len(turns)-1]
	return "echo: " + last.Text, adapter.Usage{}, nil
}

func (a *NoopAdapter) CountTokens(ctx context.Context, model string, turns []adapter.Turn) (int, error) {
	total := 0
	for _, t := range turns {
		total += len(t.Text) / 4
	}
	return total, nil
}
