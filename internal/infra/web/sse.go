package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tmaxmax/go-sse"

	"document-chat-assistant/internal/domain/model"
	"document-chat-assistant/internal/domain/ports/renderer"
	"document-chat-assistant/internal/infra/metrics"
)

// SSE event types pushed to the browser.
var (
	messageSSEType = sse.Type("message")
	pendingSSEType = sse.Type("pending")
)

var _ renderer.Renderer = (*Hub)(nil)

// Hub fans conversation updates out to SSE subscribers. Each session has
// its own topic; a client subscribes by opening the events endpoint for
// that session.
type Hub struct {
	srv *sse.Server
}

func NewHub() *Hub {
	h := &Hub{}
	h.srv = &sse.Server{
		OnSession: func(s *sse.Session) (sse.Subscription, bool) {
			sessionID := chi.URLParam(s.Req, "sessionID")
			if sessionID == "" {
				return sse.Subscription{}, false
			}
			return sse.Subscription{
				Client:      s,
				LastEventID: s.LastEventID,
				Topics:      []string{sse.DefaultTopic, sessionTopic(sessionID)},
			}, true
		},
	}
	return h
}

func sessionTopic(sessionID string) string {
	return "session-" + sessionID
}

// ServeHTTP upgrades the request to an SSE stream. The subscriber gauge
// tracks accepted subscriptions only; the guard here mirrors the OnSession
// check, so rejected requests never move it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "sessionID") != "" {
		metrics.SSESubscribers(1)
		defer metrics.SSESubscribers(-1)
	}
	h.srv.ServeHTTP(w, r)
}

// MessageAppended implements renderer.Renderer.
func (h *Hub) MessageAppended(sessionID string, msg model.Message) {
	data, err := json.Marshal(messagePayload{
		ID:        msg.ID,
		Sender:    string(msg.Sender),
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		return
	}
	e := &sse.Message{Type: messageSSEType}
	e.AppendData(string(data))
	_ = h.srv.Publish(e, sessionTopic(sessionID))
}

// PendingChanged implements renderer.Renderer.
func (h *Hub) PendingChanged(sessionID string, pending bool) {
	e := &sse.Message{Type: pendingSSEType}
	e.AppendData(strconv.FormatBool(pending))
	_ = h.srv.Publish(e, sessionTopic(sessionID))
}

// Shutdown broadcasts a close event and waits briefly for clients to drop.
func (h *Hub) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("close")}
	e.AppendData("bye")
	_ = h.srv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return h.srv.Shutdown(ctx)
}

type messagePayload struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
