package renderer

import "document-chat-assistant/internal/domain/model"

// Renderer receives conversation updates for display. Calls happen on the
// turn's goroutine, in log order; implementations should hand off quickly.
type Renderer interface {
	MessageAppended(sessionID string, msg model.Message)
	PendingChanged(sessionID string, pending bool)
}

// Noop satisfies Renderer for frontends that read replies from return
// values instead of a push channel.
type Noop struct{}

func (Noop) MessageAppended(string, model.Message) {}

func (Noop) PendingChanged(string, bool) {}
