package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"document-chat-assistant/internal/domain"
	"document-chat-assistant/internal/domain/model"
	"document-chat-assistant/internal/infra/metrics"
)

type createSessionRequest struct {
	Model string `json:"model,omitempty"`
}

type sessionResponse struct {
	ID        string           `json:"id"`
	Model     string           `json:"model"`
	Pending   bool             `json:"pending"`
	CreatedAt time.Time        `json:"created_at"`
	Messages  []messagePayload `json:"messages"`
}

type submitRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.Body != nil {
		// an empty body means defaults; anything else must be valid JSON
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
	}
	sess, err := s.chat.StartSession(r.Context(), req.Model)
	if err != nil {
		s.log.Error().Err(err).Msg("start session failed")
		http.Error(w, "could not start session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.chat.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubmit accepts a user turn and processes it off the request
// goroutine. Empty or whitespace-only text is a silent no-op. The reply
// arrives on the session's SSE stream; 202 only acknowledges acceptance.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	// the session must exist before we accept the turn
	if _, err := s.chat.Session(r.Context(), sessionID); err != nil {
		respondError(w, err)
		return
	}

	text := req.Text
	task := func(ctx context.Context) error {
		if _, err := s.chat.Submit(ctx, sessionID, text); err != nil {
			if errors.Is(err, domain.ErrEmptyMessage) {
				return nil
			}
			metrics.Turn("error")
			return err
		}
		metrics.Turn("ok")
		return nil
	}
	if err := s.pool.Submit(task); err != nil {
		s.log.Warn().Err(err).Msg("turn queue saturated")
		http.Error(w, "busy, try again", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleUpload takes a multipart document upload. A wrong file type or a
// failed extraction is reported to the caller and changes nothing.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	r.Body = http.MaxBytesReader(w, r.Body, s.maxFileBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "could not read file", http.StatusBadRequest)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	ack, err := s.chat.UploadDocument(r.Context(), sessionID, header.Filename, mimeType, data)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedDocument):
			metrics.Upload("rejected")
			http.Error(w, "unsupported file type, upload a PDF or plain text file", http.StatusBadRequest)
		case errors.Is(err, domain.ErrExtractionFailed):
			metrics.Upload("failed")
			metrics.ExtractionFailed()
			http.Error(w, "could not extract text from the file", http.StatusUnprocessableEntity)
		default:
			respondError(w, err)
		}
		return
	}
	metrics.Upload("ok")
	writeJSON(w, http.StatusCreated, messagePayload{
		ID:        ack.ID,
		Sender:    string(ack.Sender),
		Text:      ack.Text,
		CreatedAt: ack.CreatedAt,
	})
}

func toSessionResponse(sess *model.Session) sessionResponse {
	snapshot := sess.Log().Snapshot()
	msgs := make([]messagePayload, 0, len(snapshot))
	for _, m := range snapshot {
		msgs = append(msgs, messagePayload{
			ID:        m.ID,
			Sender:    string(m.Sender),
			Text:      m.Text,
			CreatedAt: m.CreatedAt,
		})
	}
	return sessionResponse{
		ID:        sess.ID,
		Model:     sess.Model,
		Pending:   sess.Pending(),
		CreatedAt: sess.CreatedAt,
		Messages:  msgs,
	}
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
