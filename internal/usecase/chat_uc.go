package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"document-chat-assistant/internal/domain"
	"document-chat-assistant/internal/domain/model"
	"document-chat-assistant/internal/domain/ports/adapter"
	"document-chat-assistant/internal/domain/ports/renderer"
	"document-chat-assistant/internal/domain/ports/repository"
	"document-chat-assistant/internal/infra/logging"
)

// completionErrorReply is what the user sees when the provider call fails.
// The failure itself stays in the logs; the session keeps going.
const completionErrorReply = "Something went wrong. Please try again."

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

type ChatUseCase interface {
	StartSession(ctx context.Context, modelName string) (*model.Session, error)
	Session(ctx context.Context, sessionID string) (*model.Session, error)
	Submit(ctx context.Context, sessionID, text string) (*model.Message, error)
	UploadDocument(ctx context.Context, sessionID, filename, mimeType string, data []byte) (*model.Message, error)
	EndSession(ctx context.Context, sessionID string) error
}

type chatUC struct {
	sessions repository.SessionRepository
	ai       adapter.CompletionAdapter
	extract  adapter.DocumentExtractor
	asm      *Assembler
	render   renderer.Renderer
	model    string
	log      *zerolog.Logger
}

func NewChatUseCase(
	sessions repository.SessionRepository,
	ai adapter.CompletionAdapter,
	extract adapter.DocumentExtractor,
	asm *Assembler,
	render renderer.Renderer,
	defaultModel string,
	logger *zerolog.Logger,
) *chatUC {
	if render == nil {
		render = renderer.Noop{}
	}
	return &chatUC{
		sessions: sessions,
		ai:       ai,
		extract:  extract,
		asm:      asm,
		render:   render,
		model:    defaultModel,
		log:      logger,
	}
}

func (c *chatUC) StartSession(ctx context.Context, modelName string) (*model.Session, error) {
	if strings.TrimSpace(modelName) == "" {
		modelName = c.model
	}
	s := model.NewSession(uuid.NewString(), modelName)
	if err := c.sessions.Save(ctx, s); err != nil {
		return nil, err
	}
	c.log.Info().Str("session_id", s.ID).Str("model", s.Model).Msg("session started")
	return s, nil
}

func (c *chatUC) Session(ctx context.Context, sessionID string) (*model.Session, error) {
	return c.sessions.FindByID(ctx, sessionID)
}

// Submit runs one conversation turn: append the user message, raise the
// pending flag, assemble the provider request and record the outcome. Empty
// or whitespace-only text is ignored without touching the log. A transport
// failure is absorbed into a bot-authored error message; the session always
// comes back to idle with a consistent log.
func (c *chatUC) Submit(ctx context.Context, sessionID, text string) (*model.Message, error) {
	s, err := c.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}

	logger := logging.With(logging.WithSessionID(ctx, s.ID), c.log)
	defer logging.TraceDuration(logger, "ChatUC.Submit")()

	// The snapshot is captured before the user turn lands so the final
	// request turn is not duplicated, and so an overlapping submit cannot
	// leak its input into this turn.
	snapshot := s.Log().Snapshot()
	userMsg := s.Log().Append(model.SenderUser, text)
	c.render.MessageAppended(s.ID, userMsg)

	s.BeginTurn()
	c.render.PendingChanged(s.ID, true)
	defer func() {
		s.EndTurn()
		c.render.PendingChanged(s.ID, s.Pending())
	}()
	if err := c.sessions.Save(ctx, s); err != nil {
		logger.Warn().Err(err).Msg("save after user append failed")
	}

	document, hasDocument := s.Document().Get()
	turns := c.asm.Build(snapshot, document, hasDocument, text)

	reply, err := c.ai.Complete(ctx, s.Model, turns)
	if err != nil {
		logger.Error().Err(err).Bool("transport", adapter.IsTransportError(err)).Msg("completion failed")
		reply = completionErrorReply
	}

	botMsg := s.Log().Append(model.SenderBot, reply)
	c.render.MessageAppended(s.ID, botMsg)
	if err := c.sessions.Save(ctx, s); err != nil {
		logger.Warn().Err(err).Msg("save after bot append failed")
	}
	return &botMsg, nil
}

// UploadDocument is a side channel next to the submit state machine. A
// rejected file type or a failed extraction surfaces an error only and
// leaves both the log and the document context untouched. On success the
// stored context is replaced (last-write-wins) and the log gets one
// user-authored acknowledgment message.
func (c *chatUC) UploadDocument(ctx context.Context, sessionID, filename, mimeType string, data []byte) (*model.Message, error) {
	s, err := c.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.extract.Supports(mimeType) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedDocument, mimeType)
	}

	logger := logging.With(logging.WithSessionID(ctx, s.ID), c.log)
	text, err := c.extract.Extract(ctx, data, filename, mimeType)
	if err != nil {
		logger.Warn().Err(err).Str("filename", filename).Msg("extraction failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	s.Document().Set(text)
	ack := s.Log().Append(model.SenderUser, "Uploaded a file: "+filename)
	c.render.MessageAppended(s.ID, ack)
	if err := c.sessions.Save(ctx, s); err != nil {
		logger.Warn().Err(err).Msg("save after upload failed")
	}
	logger.Info().Str("filename", filename).Int("chars", len(text)).Msg("document context replaced")
	return &ack, nil
}

func (c *chatUC) EndSession(ctx context.Context, sessionID string) error {
	if err := c.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	c.log.Info().Str("session_id", sessionID).Msg("session ended")
	return nil
}
