package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"document-chat-assistant/internal/domain"
	"document-chat-assistant/internal/domain/model"
	"document-chat-assistant/internal/domain/ports/adapter"
	"document-chat-assistant/internal/infra/store"
)

// ---- Fakes ----

type fakeAI struct {
	mu      sync.Mutex
	reply   string
	err     error
	gate    chan struct{} // when set, Complete blocks until closed
	lastReq []adapter.Turn
}

func (f *fakeAI) Complete(ctx context.Context, model string, turns []adapter.Turn) (string, error) {
	reply, _, err := f.CompleteWithUsage(ctx, model, turns)
	return reply, err
}

func (f *fakeAI) CompleteWithUsage(ctx context.Context, model string, turns []adapter.Turn) (string, adapter.Usage, error) {
	f.mu.Lock()
	f.lastReq = turns
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return "", adapter.Usage{}, f.err
	}
	return f.reply, adapter.Usage{}, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model string, turns []adapter.Turn) (int, error) {
	return 0, nil
}

func (f *fakeAI) last() []adapter.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Supports(mimeType string) bool {
	return mimeType == "application/pdf" || mimeType == "text/plain"
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type recordingRenderer struct {
	mu       sync.Mutex
	messages []model.Message
	pendings []bool
}

func (r *recordingRenderer) MessageAppended(_ string, msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingRenderer) PendingChanged(_ string, pending bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendings = append(r.pendings, pending)
}

func newTestUC(ai adapter.CompletionAdapter, ext adapter.DocumentExtractor, render *recordingRenderer) *chatUC {
	logger := zerolog.Nop()
	return NewChatUseCase(
		store.NewMemorySessionRepo(),
		ai,
		ext,
		NewAssembler(FullHistoryPolicy{}),
		render,
		"test-model",
		&logger,
	)
}

// ---- Tests ----

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("successful turn appends user and bot messages", func(t *testing.T) {
		ai := &fakeAI{reply: "sure thing"}
		render := &recordingRenderer{}
		uc := newTestUC(ai, &fakeExtractor{}, render)

		s, err := uc.StartSession(ctx, "")
		if err != nil {
			t.Fatalf("start session: %v", err)
		}

		reply, err := uc.Submit(ctx, s.ID, "Hello")
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if reply.Sender != model.SenderBot || reply.Text != "sure thing" {
			t.Errorf("unexpected reply: %+v", reply)
		}

		snap := s.Log().Snapshot()
		if len(snap) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(snap))
		}
		if snap[0].Sender != model.SenderUser || snap[0].Text != "Hello" {
			t.Errorf("unexpected user message: %+v", snap[0])
		}
		if snap[1].Sender != model.SenderBot || snap[1].Text != "sure thing" {
			t.Errorf("unexpected bot message: %+v", snap[1])
		}
		if s.Pending() {
			t.Error("session must be idle after the turn")
		}
		if got := ai.last(); len(got) != 1 || got[0].Text != "Hello" {
			t.Errorf("unexpected provider request: %+v", got)
		}
	})

	t.Run("empty and whitespace submissions are ignored", func(t *testing.T) {
		uc := newTestUC(&fakeAI{reply: "x"}, &fakeExtractor{}, &recordingRenderer{})
		s, _ := uc.StartSession(ctx, "")

		for _, input := range []string{"", "   ", "\n\t "} {
			if _, err := uc.Submit(ctx, s.ID, input); !errors.Is(err, domain.ErrEmptyMessage) {
				t.Errorf("input %q: expected ErrEmptyMessage, got %v", input, err)
			}
		}
		if got := s.Log().Len(); got != 0 {
			t.Errorf("expected empty log, got %d messages", got)
		}
		if s.Pending() {
			t.Error("session must stay idle")
		}
	})

	t.Run("transport failure becomes a bot error message", func(t *testing.T) {
		ai := &fakeAI{err: &adapter.TransportError{Err: errors.New("connection refused")}}
		uc := newTestUC(ai, &fakeExtractor{}, &recordingRenderer{})
		s, _ := uc.StartSession(ctx, "")

		reply, err := uc.Submit(ctx, s.ID, "Hello")
		if err != nil {
			t.Fatalf("transport failures must be absorbed, got %v", err)
		}
		if reply.Sender != model.SenderBot || reply.Text != completionErrorReply {
			t.Errorf("expected fixed error reply, got %+v", reply)
		}

		snap := s.Log().Snapshot()
		if len(snap) != 2 {
			t.Fatalf("expected exactly 2 messages, got %d", len(snap))
		}
		if s.Pending() {
			t.Error("session must return to idle after a failure")
		}
		if _, hasDoc := s.Document().Get(); hasDoc {
			t.Error("document context must be untouched")
		}
	})

	t.Run("pending is raised while the request is in flight", func(t *testing.T) {
		gate := make(chan struct{})
		ai := &fakeAI{reply: "done", gate: gate}
		uc := newTestUC(ai, &fakeExtractor{}, &recordingRenderer{})
		s, _ := uc.StartSession(ctx, "")

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = uc.Submit(ctx, s.ID, "Hello")
		}()

		// wait until the turn reached the adapter
		for ai.last() == nil {
			time.Sleep(time.Millisecond)
		}
		if !s.Pending() {
			t.Error("expected pending while the request is outstanding")
		}
		close(gate)
		<-done
		if s.Pending() {
			t.Error("expected idle after completion")
		}
	})

	t.Run("history is replayed to the provider with a document turn first", func(t *testing.T) {
		ai := &fakeAI{reply: "Yo"}
		ext := &fakeExtractor{text: "Doc:X"}
		uc := newTestUC(ai, ext, &recordingRenderer{})
		s, _ := uc.StartSession(ctx, "")

		if _, err := uc.Submit(ctx, s.ID, "Hi"); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if _, err := uc.UploadDocument(ctx, s.ID, "x.pdf", "application/pdf", []byte("%PDF")); err != nil {
			t.Fatalf("upload: %v", err)
		}
		if _, err := uc.Submit(ctx, s.ID, "Q"); err != nil {
			t.Fatalf("submit: %v", err)
		}

		// doc turn + history (Hi, Yo, upload ack) + final Q
		got := ai.last()
		if len(got) != 5 {
			t.Fatalf("expected 5 turns, got %d: %+v", len(got), got)
		}
		if got[0].Role != adapter.RoleUser || got[0].Text[len(got[0].Text)-5:] != "Doc:X" {
			t.Errorf("expected document turn first, got %+v", got[0])
		}
		if got[2].Role != adapter.RoleModel || got[2].Text != "Yo" {
			t.Errorf("bot history must use the model role, got %+v", got[2])
		}
		if got[4] != (adapter.Turn{Role: adapter.RoleUser, Text: "Q"}) {
			t.Errorf("unexpected final turn: %+v", got[4])
		}
	})

	t.Run("unknown session is an error", func(t *testing.T) {
		uc := newTestUC(&fakeAI{}, &fakeExtractor{}, &recordingRenderer{})
		if _, err := uc.Submit(ctx, "missing", "hello"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUploadDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("valid upload replaces context and appends one ack", func(t *testing.T) {
		uc := newTestUC(&fakeAI{}, &fakeExtractor{text: "extracted text"}, &recordingRenderer{})
		s, _ := uc.StartSession(ctx, "")

		ack, err := uc.UploadDocument(ctx, s.ID, "report.pdf", "application/pdf", []byte("%PDF"))
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		if ack.Sender != model.SenderUser {
			t.Errorf("ack must be user-authored, got %s", ack.Sender)
		}
		if text, ok := s.Document().Get(); !ok || text != "extracted text" {
			t.Errorf("document context not stored: %q %v", text, ok)
		}
		if got := s.Log().Len(); got != 1 {
			t.Errorf("expected exactly one ack message, got %d", got)
		}
	})

	t.Run("second upload wins", func(t *testing.T) {
		ext := &fakeExtractor{text: "first"}
		uc := newTestUC(&fakeAI{}, ext, &recordingRenderer{})
		s, _ := uc.StartSession(ctx, "")

		if _, err := uc.UploadDocument(ctx, s.ID, "a.pdf", "application/pdf", nil); err != nil {
			t.Fatalf("upload: %v", err)
		}
		ext.text = "second"
		if _, err := uc.UploadDocument(ctx, s.ID, "b.pdf", "application/pdf", nil); err != nil {
			t.Fatalf("upload: %v", err)
		}
		if text, _ := s.Document().Get(); text != "second" {
			t.Errorf("expected last upload to win, got %q", text)
		}
	})

	t.Run("unsupported type mutates nothing", func(t *testing.T) {
		uc := newTestUC(&fakeAI{}, &fakeExtractor{text: "x"}, &recordingRenderer{})
		s, _ := uc.StartSession(ctx, "")

		_, err := uc.UploadDocument(ctx, s.ID, "cat.png", "image/png", []byte{1, 2})
		if !errors.Is(err, domain.ErrUnsupportedDocument) {
			t.Fatalf("expected ErrUnsupportedDocument, got %v", err)
		}
		if _, ok := s.Document().Get(); ok {
			t.Error("document context must be untouched")
		}
		if got := s.Log().Len(); got != 0 {
			t.Errorf("log must be untouched, got %d messages", got)
		}
	})

	t.Run("failed extraction mutates nothing", func(t *testing.T) {
		uc := newTestUC(&fakeAI{}, &fakeExtractor{err: errors.New("corrupt file")}, &recordingRenderer{})
		s, _ := uc.StartSession(ctx, "")

		_, err := uc.UploadDocument(ctx, s.ID, "bad.pdf", "application/pdf", []byte("junk"))
		if !errors.Is(err, domain.ErrExtractionFailed) {
			t.Fatalf("expected ErrExtractionFailed, got %v", err)
		}
		if _, ok := s.Document().Get(); ok {
			t.Error("document context must be untouched")
		}
		if got := s.Log().Len(); got != 0 {
			t.Errorf("log must be untouched, got %d messages", got)
		}
	})
}

func TestRendererNotifications(t *testing.T) {
	ctx := context.Background()
	render := &recordingRenderer{}
	uc := newTestUC(&fakeAI{reply: "ok"}, &fakeExtractor{}, render)
	s, _ := uc.StartSession(ctx, "")

	if _, err := uc.Submit(ctx, s.ID, "Hello"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	render.mu.Lock()
	defer render.mu.Unlock()
	if len(render.messages) != 2 {
		t.Fatalf("expected 2 message notifications, got %d", len(render.messages))
	}
	if render.messages[0].Sender != model.SenderUser || render.messages[1].Sender != model.SenderBot {
		t.Errorf("unexpected notification order: %+v", render.messages)
	}
	if len(render.pendings) != 2 || render.pendings[0] != true || render.pendings[1] != false {
		t.Errorf("expected pending true then false, got %v", render.pendings)
	}
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	uc := newTestUC(&fakeAI{}, &fakeExtractor{}, &recordingRenderer{})
	s, _ := uc.StartSession(ctx, "")

	if err := uc.EndSession(ctx, s.ID); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if _, err := uc.Session(ctx, s.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after end, got %v", err)
	}
}
