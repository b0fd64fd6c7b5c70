package usecase

import (
	"strings"
	"testing"

	"document-chat-assistant/internal/domain/model"
	"document-chat-assistant/internal/domain/ports/adapter"
)

func TestAssemblerBuild(t *testing.T) {
	asm := NewAssembler(FullHistoryPolicy{})

	t.Run("first turn with empty log and no document", func(t *testing.T) {
		turns := asm.Build(nil, "", false, "Hello")
		if len(turns) != 1 {
			t.Fatalf("expected 1 turn, got %d", len(turns))
		}
		if turns[0].Role != adapter.RoleUser || turns[0].Text != "Hello" {
			t.Errorf("unexpected turn: %+v", turns[0])
		}
	})

	t.Run("document then history then new text", func(t *testing.T) {
		snapshot := []model.Message{
			{ID: "01", Sender: model.SenderUser, Text: "Hi"},
			{ID: "02", Sender: model.SenderBot, Text: "Yo"},
		}
		turns := asm.Build(snapshot, "Doc:X", true, "Q")

		if len(turns) != 4 {
			t.Fatalf("expected 4 turns, got %d", len(turns))
		}
		if turns[0].Role != adapter.RoleUser || !strings.HasSuffix(turns[0].Text, "Doc:X") {
			t.Errorf("expected document-context turn first, got %+v", turns[0])
		}
		if !strings.HasPrefix(turns[0].Text, documentContextPreamble) {
			t.Errorf("document turn missing preamble: %q", turns[0].Text)
		}
		if turns[1] != (adapter.Turn{Role: adapter.RoleUser, Text: "Hi"}) {
			t.Errorf("unexpected history turn: %+v", turns[1])
		}
		if turns[2] != (adapter.Turn{Role: adapter.RoleModel, Text: "Yo"}) {
			t.Errorf("bot message must map to model role: %+v", turns[2])
		}
		if turns[3] != (adapter.Turn{Role: adapter.RoleUser, Text: "Q"}) {
			t.Errorf("unexpected final turn: %+v", turns[3])
		}
	})

	t.Run("turn count is doc + history + 1", func(t *testing.T) {
		snapshot := []model.Message{
			{Sender: model.SenderUser, Text: "a"},
			{Sender: model.SenderBot, Text: "b"},
			{Sender: model.SenderUser, Text: "c"},
		}
		if got := len(asm.Build(snapshot, "", false, "d")); got != 4 {
			t.Errorf("without document: expected 4, got %d", got)
		}
		if got := len(asm.Build(snapshot, "doc", true, "d")); got != 5 {
			t.Errorf("with document: expected 5, got %d", got)
		}
	})

	t.Run("nil policy falls back to full history", func(t *testing.T) {
		a := NewAssembler(nil)
		snapshot := []model.Message{{Sender: model.SenderUser, Text: "a"}}
		if got := len(a.Build(snapshot, "", false, "b")); got != 2 {
			t.Errorf("expected 2 turns, got %d", got)
		}
	})
}
