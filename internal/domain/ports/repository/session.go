package repository

import (
	"context"

	"document-chat-assistant/internal/domain/model"
)

// SessionRepository stores running sessions. State is ephemeral: a session
// exists from StartSession until EndSession or teardown, never beyond.
type SessionRepository interface {
	Save(ctx context.Context, s *model.Session) error
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}
