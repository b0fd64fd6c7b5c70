package store

import (
	"context"
	"sync"

	"document-chat-assistant/internal/domain"
	"document-chat-assistant/internal/domain/model"
	"document-chat-assistant/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*MemorySessionRepo)(nil)

// MemorySessionRepo keeps sessions in a process-local map. This is the
// default store: sessions live until ended or until the process exits.
type MemorySessionRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.Session
}

func NewMemorySessionRepo() *MemorySessionRepo {
	return &MemorySessionRepo{byID: make(map[string]*model.Session)}
}

func (m *MemorySessionRepo) Save(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[s.ID] = s
	return nil
}

func (m *MemorySessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *MemorySessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}
