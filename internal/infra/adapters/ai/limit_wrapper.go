package ai

import (
	"context"
	"time"

	"document-chat-assistant/internal/domain/ports/adapter"
	"document-chat-assistant/internal/infra/metrics"
)

// Compile-time check
var _ adapter.CompletionAdapter = (*limitedAI)(nil)

// limitedAI bounds concurrent provider calls with a semaphore and records
// latency/token metrics for every completion.
type limitedAI struct {
	inner    adapter.CompletionAdapter
	provider string
	sem      chan struct{}
}

func NewLimitedAI(inner adapter.CompletionAdapter, provider string, maxConcurrent int) adapter.CompletionAdapter {
	if maxConcurrent <= 0 {
		maxConcurrent = 16
	}
	return &limitedAI{
		inner:    inner,
		provider: provider,
		sem:      make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) Complete(ctx context.Context, model string, turns []adapter.Turn) (string, error) {
	reply, _, err := l.CompleteWithUsage(ctx, model, turns)
	return reply, err
}

func (l *limitedAI) CompleteWithUsage(ctx context.Context, model string, turns []adapter.Turn) (string, adapter.Usage, error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()

	start := time.Now()
	reply, usage, err := l.inner.CompleteWithUsage(ctx, model, turns)
	latency := int(time.Since(start).Milliseconds())

	metrics.ObserveCompletion(l.provider, model, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, latency, err == nil)
	if err == nil && reply == adapter.FallbackReply {
		metrics.FallbackReply(l.provider, model)
	}
	return reply, usage, err
}

func (l *limitedAI) CountTokens(ctx context.Context, model string, turns []adapter.Turn) (int, error) {
	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.inner.CountTokens(ctx, model, turns)
}
