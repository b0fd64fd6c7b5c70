package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"document-chat-assistant/internal/infra/worker"
	"document-chat-assistant/internal/usecase"
)

// Server exposes the conversation engine to browser clients: JSON endpoints
// for session lifecycle, submission and upload, plus an SSE stream carrying
// message and pending/typing events.
type Server struct {
	chat         usecase.ChatUseCase
	pool         *worker.Pool
	hub          *Hub
	maxFileBytes int64
	log          *zerolog.Logger
}

func NewServer(chat usecase.ChatUseCase, pool *worker.Pool, hub *Hub, maxFileBytes int64, logger *zerolog.Logger) *Server {
	if maxFileBytes <= 0 {
		maxFileBytes = 20 << 20
	}
	return &Server{
		chat:         chat,
		pool:         pool,
		hub:          hub,
		maxFileBytes: maxFileBytes,
		log:          logger,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleEndSession)
			r.Post("/messages", s.handleSubmit)
			r.Post("/document", s.handleUpload)
			r.Get("/events", s.hub.ServeHTTP)
		})
	})
	return r
}
