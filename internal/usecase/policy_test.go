package usecase

import (
	"testing"

	"document-chat-assistant/internal/domain/ports/adapter"
)

// one token per rune keeps the arithmetic obvious
func runeCounter(s string) int { return len([]rune(s)) }

func TestTokenBudgetPolicy(t *testing.T) {
	mk := func(budget int) *TokenBudgetPolicy {
		return &TokenBudgetPolicy{count: runeCounter, budget: budget}
	}
	history := []adapter.Turn{
		{Role: adapter.RoleUser, Text: "aaaa"},  // 4
		{Role: adapter.RoleModel, Text: "bbbb"}, // 4
		{Role: adapter.RoleUser, Text: "cccc"},  // 4
	}
	reserved := []adapter.Turn{
		{Role: adapter.RoleUser, Text: "dddd"}, // 4
	}

	t.Run("keeps everything when the budget fits", func(t *testing.T) {
		got := mk(100).Trim(reserved, history)
		if len(got) != 3 {
			t.Fatalf("expected 3 history turns, got %d", len(got))
		}
	})

	t.Run("drops oldest first", func(t *testing.T) {
		// 4 reserved + 8 available -> only the last two history turns fit
		got := mk(12).Trim(reserved, history)
		if len(got) != 2 {
			t.Fatalf("expected 2 history turns, got %d", len(got))
		}
		if got[0].Text != "bbbb" || got[1].Text != "cccc" {
			t.Errorf("expected newest turns kept, got %+v", got)
		}
	})

	t.Run("reserved turns always survive", func(t *testing.T) {
		// budget smaller than the reserved cost: history is emptied, but the
		// assembler still sends the reserved turns
		got := mk(2).Trim(reserved, history)
		if len(got) != 0 {
			t.Fatalf("expected no history turns, got %d", len(got))
		}
	})

	t.Run("chronological order is preserved", func(t *testing.T) {
		got := mk(16).Trim(reserved, history)
		for i := 1; i < len(got); i++ {
			if got[i-1].Text > got[i].Text {
				t.Errorf("order broken: %+v", got)
			}
		}
	})
}

func TestNewTokenBudgetPolicyRejectsUnknownEncoding(t *testing.T) {
	if _, err := NewTokenBudgetPolicy("no-such-encoding", 100); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
