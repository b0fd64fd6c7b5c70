package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"document-chat-assistant/internal/config"
	"document-chat-assistant/internal/domain"
	"document-chat-assistant/internal/infra/logging"
	"document-chat-assistant/internal/infra/metrics"
	"document-chat-assistant/internal/usecase"
)

// Bot is a Telegram rendering collaborator: text messages become submits,
// document messages become uploads, and the pending state shows up as the
// native "typing" chat action.
type Bot struct {
	bot      *tgbotapi.BotAPI
	cfg      *config.TelegramConfig
	chat     usecase.ChatUseCase
	log      *zerolog.Logger
	download *http.Client

	mu       sync.Mutex
	sessions map[int64]string // telegram chat -> session id

	cancelPolling context.CancelFunc
}

func NewBot(cfg *config.TelegramConfig, chat usecase.ChatUseCase, logger *zerolog.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, errors.New("telegram config is nil")
	}
	if chat == nil {
		return nil, errors.New("chat usecase is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &Bot{
		bot:      bot,
		cfg:      cfg,
		chat:     chat,
		log:      logger,
		download: &http.Client{Timeout: 60 * time.Second},
		sessions: make(map[int64]string),
	}, nil
}

func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	workers := b.cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := b.handleUpdate(ctx, up); err != nil {
						b.log.Error().Int("worker", id).Err(err).Msg("update failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (b *Bot) StopPolling() {
	if b.cancelPolling != nil {
		b.cancelPolling()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, up tgbotapi.Update) error {
	msg := up.Message
	if msg == nil {
		return nil
	}
	chatID := msg.Chat.ID
	ctx = logging.WithChatID(ctx, chatID)

	switch {
	case msg.IsCommand():
		return b.handleCommand(ctx, chatID, msg.Command())
	case msg.Document != nil:
		return b.handleDocument(ctx, chatID, msg.Document)
	case msg.Text != "":
		return b.handleText(ctx, chatID, msg.Text)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, cmd string) error {
	switch cmd {
	case "start":
		if _, err := b.session(ctx, chatID); err != nil {
			return err
		}
		return b.send(chatID, "Hi! Send me a message, or upload a PDF to chat about it.")
	case "bye":
		b.mu.Lock()
		sessionID, ok := b.sessions[chatID]
		delete(b.sessions, chatID)
		b.mu.Unlock()
		if ok {
			_ = b.chat.EndSession(ctx, sessionID)
		}
		return b.send(chatID, "Bye! Send /start to begin a new conversation.")
	}
	return b.send(chatID, "Unknown command. Use /start or /bye.")
}

func (b *Bot) handleText(ctx context.Context, chatID int64, text string) error {
	sessionID, err := b.session(ctx, chatID)
	if err != nil {
		return err
	}

	// surface the pending state the Telegram way
	_, _ = b.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	reply, err := b.chat.Submit(ctx, sessionID, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			return nil
		}
		metrics.Turn("error")
		return err
	}
	metrics.Turn("ok")
	return b.send(chatID, reply.Text)
}

func (b *Bot) handleDocument(ctx context.Context, chatID int64, doc *tgbotapi.Document) error {
	sessionID, err := b.session(ctx, chatID)
	if err != nil {
		return err
	}

	data, err := b.downloadFile(ctx, doc.FileID)
	if err != nil {
		b.log.Warn().Err(err).Str("file", doc.FileName).Msg("file download failed")
		return b.send(chatID, "I could not download that file, please try again.")
	}

	ack, err := b.chat.UploadDocument(ctx, sessionID, doc.FileName, doc.MimeType, data)
	switch {
	case errors.Is(err, domain.ErrUnsupportedDocument):
		metrics.Upload("rejected")
		return b.send(chatID, "I can only read PDF or plain text files.")
	case errors.Is(err, domain.ErrExtractionFailed):
		metrics.Upload("failed")
		metrics.ExtractionFailed()
		return b.send(chatID, "I could not extract any text from that file.")
	case err != nil:
		return err
	}
	metrics.Upload("ok")
	return b.send(chatID, ack.Text)
}

// session returns the chat's session ID, starting a new session on first
// contact or when the previous one expired.
func (b *Bot) session(ctx context.Context, chatID int64) (string, error) {
	b.mu.Lock()
	sessionID, ok := b.sessions[chatID]
	b.mu.Unlock()
	if ok {
		if _, err := b.chat.Session(ctx, sessionID); err == nil {
			return sessionID, nil
		}
	}

	sess, err := b.chat.StartSession(ctx, "")
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.sessions[chatID] = sess.ID
	b.mu.Unlock()
	return sess.ID, nil
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.download.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download: http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) send(chatID int64, text string) error {
	_, err := b.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
