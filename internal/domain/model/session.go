package model

import (
	"sync/atomic"
	"time"
)

// Session is the aggregate root for one running conversation: the log,
// the optional document context and the pending flag. All state lives on
// the session itself; there are no package-level globals, so independent
// sessions can run side by side.
type Session struct {
	ID        string
	Model     string
	CreatedAt time.Time

	log      *ConversationLog
	document DocumentContext
	inflight atomic.Int32
}

func NewSession(id, model string) *Session {
	return &Session{
		ID:        id,
		Model:     model,
		CreatedAt: time.Now(),
		log:       NewConversationLog(),
	}
}

// RestoreSession rebuilds a session from stored state. Pending state is
// process-local and always starts cleared.
func RestoreSession(id, model string, createdAt time.Time, messages []Message, documentText string, hasDocument bool) *Session {
	s := &Session{
		ID:        id,
		Model:     model,
		CreatedAt: createdAt,
		log:       RestoreConversationLog(messages),
	}
	if hasDocument {
		s.document.Set(documentText)
	}
	return s
}

func (s *Session) Log() *ConversationLog { return s.log }

func (s *Session) Document() *DocumentContext { return &s.document }

// BeginTurn marks a completion request as in flight. Overlapping turns are
// accepted, so pending is kept as a counter and exposed as a boolean.
func (s *Session) BeginTurn() { s.inflight.Add(1) }

func (s *Session) EndTurn() { s.inflight.Add(-1) }

// Pending reports whether at least one completion request is outstanding.
func (s *Session) Pending() bool { return s.inflight.Load() > 0 }
