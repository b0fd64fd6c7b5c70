package usecase

import (
	"github.com/pkoukk/tiktoken-go"

	"document-chat-assistant/internal/domain/ports/adapter"
)

// ContextPolicy bounds how much history goes to the provider. Trim receives
// the turns that must always be sent (document context and the new user
// text) and the history turns in chronological order, and returns the
// history that should remain.
type ContextPolicy interface {
	Trim(reserved, history []adapter.Turn) []adapter.Turn
}

// FullHistoryPolicy sends the entire log every turn. This degrades under
// long sessions; switch to TokenBudgetPolicy when that matters.
type FullHistoryPolicy struct{}

func (FullHistoryPolicy) Trim(_, history []adapter.Turn) []adapter.Turn { return history }

// TokenBudgetPolicy drops the oldest history turns until the whole prompt
// fits a token budget. Reserved turns are charged against the budget but
// never dropped.
type TokenBudgetPolicy struct {
	count  func(string) int
	budget int
}

// NewTokenBudgetPolicy builds a policy around a tiktoken encoding, e.g.
// "cl100k_base". Counting is best-effort: provider tokenizers differ, so the
// budget should leave headroom.
func NewTokenBudgetPolicy(encoding string, budget int) (*TokenBudgetPolicy, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	count := func(text string) int { return len(enc.Encode(text, nil, nil)) }
	return &TokenBudgetPolicy{count: count, budget: budget}, nil
}

func (p *TokenBudgetPolicy) Trim(reserved, history []adapter.Turn) []adapter.Turn {
	remaining := p.budget
	for _, t := range reserved {
		remaining -= p.count(t.Text)
	}

	// Walk newest to oldest, keeping turns while the budget holds.
	kept := 0
	for i := len(history) - 1; i >= 0; i-- {
		cost := p.count(history[i].Text)
		if cost > remaining {
			break
		}
		remaining -= cost
		kept++
	}
	return history[len(history)-kept:]
}
