package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"document-chat-assistant/internal/domain"
	"document-chat-assistant/internal/domain/model"
	"document-chat-assistant/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo keeps session state in Redis with a TTL, so a session can
// outlive a single process restart. The TTL bounds how long an idle session
// survives; it is not durable conversation storage. A process-local
// read-through cache hands out one live *Session per ID, so pending state
// and identity allocation stay on a single instance within a process.
type SessionRepo struct {
	client RedisClient
	ttl    time.Duration

	mu   sync.Mutex
	live map[string]*model.Session
}

func NewSessionRepo(client RedisClient, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl, live: make(map[string]*model.Session)}
}

// sessionState is the stored shape of a session.
type sessionState struct {
	ID          string          `json:"id"`
	Model       string          `json:"model"`
	CreatedAt   time.Time       `json:"created_at"`
	Messages    []model.Message `json:"messages"`
	Document    string          `json:"document,omitempty"`
	HasDocument bool            `json:"has_document"`
}

func key(id string) string { return "chat_session:" + id }

func (r *SessionRepo) Save(ctx context.Context, s *model.Session) error {
	doc, hasDoc := s.Document().Get()
	state := sessionState{
		ID:          s.ID,
		Model:       s.Model,
		CreatedAt:   s.CreatedAt,
		Messages:    s.Log().Snapshot(),
		Document:    doc,
		HasDocument: hasDoc,
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.live[s.ID] = s
	r.mu.Unlock()
	return r.client.Set(ctx, key(s.ID), data, r.ttl)
}

func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	if s, ok := r.live[id]; ok {
		r.mu.Unlock()
		// best-effort TTL refresh on access
		_ = r.client.Expire(ctx, key(id), r.ttl)
		return s, nil
	}
	r.mu.Unlock()

	data, err := r.client.Get(ctx, key(id))
	if err != nil {
		if IsNotFound(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var state sessionState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	s := model.RestoreSession(state.ID, state.Model, state.CreatedAt, state.Messages, state.Document, state.HasDocument)
	// Concurrent misses can both rehydrate; the first one to publish wins,
	// so every caller holds the same live instance.
	r.mu.Lock()
	if existing, ok := r.live[id]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.live[id] = s
	r.mu.Unlock()
	return s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.live, id)
	r.mu.Unlock()
	return r.client.Del(ctx, key(id))
}
