package model

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ConversationLog is an append-only ordered message sequence. Identity
// allocation and append happen under one lock, so two concurrent appends
// can never produce the same ID nor corrupt insertion order. Messages are
// never removed or reordered.
type ConversationLog struct {
	mu       sync.Mutex
	entropy  *ulid.MonotonicEntropy
	messages []Message
}

func NewConversationLog() *ConversationLog {
	return &ConversationLog{
		entropy:  ulid.Monotonic(rand.Reader, 0),
		messages: make([]Message, 0, 8),
	}
}

// RestoreConversationLog rebuilds a log from previously stored messages,
// e.g. when a session is rehydrated from a cache.
func RestoreConversationLog(messages []Message) *ConversationLog {
	l := NewConversationLog()
	l.messages = append(l.messages, messages...)
	return l
}

// Append creates a message with a fresh identity and adds it to the end
// of the log. The returned value is a copy; the stored entry is immutable.
func (l *ConversationLog) Append(sender Sender, text string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	msg := Message{
		ID:        ulid.MustNew(ulid.Timestamp(now), l.entropy).String(),
		Sender:    sender,
		Text:      text,
		CreatedAt: now,
	}
	l.messages = append(l.messages, msg)
	return msg
}

// Snapshot returns a copy of the log in insertion order. Callers may keep
// the slice; later appends do not show up in it.
func (l *ConversationLog) Snapshot() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *ConversationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}
