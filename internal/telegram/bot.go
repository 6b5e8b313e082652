package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hefz-bot/internal/auth"
	"hefz-bot/internal/ratelimit"
	"hefz-bot/internal/storage"
)

// ErrTokenConflict reports that Telegram refused polling with a 409:
// another process is polling updates for the same bot token.
var ErrTokenConflict = errors.New("another process is polling updates for this bot token")

// asker is the gateway surface the pipeline needs.
type asker interface {
	Ask(ctx context.Context, userText string) string
}

type Bot struct {
	api       *tgbotapi.BotAPI
	s         sender
	authSvc   *auth.Service
	gateway   asker
	limiter   *ratelimit.Limiter
	store     storage.Log
	backupDir string
	startedAt time.Time
}

func New(botToken string, authSvc *auth.Service, gw asker, limiter *ratelimit.Limiter, store storage.Log, backupDir string) (*Bot, error) {
	// Client timeout must exceed the long-poll timeout used in Start.
	httpClient := &http.Client{Timeout: 70 * time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(botToken, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return &Bot{
		api:       api,
		s:         botAPISender{api: api},
		authSvc:   authSvc,
		gateway:   gw,
		limiter:   limiter,
		store:     store,
		backupDir: backupDir,
		startedAt: time.Now(),
	}, nil
}

// Reconcile forces the transport into polling mode by deleting any
// webhook registered earlier and dropping queued updates. Best effort:
// a stale webhook only risks delivery conflicts, so failures are logged
// and startup continues.
func (b *Bot) Reconcile() {
	resp, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true})
	if err != nil {
		log.Printf("⚠️ Could not delete webhook: %v", err)
		return
	}
	log.Printf("🧹 deleteWebhook -> ok=%v %s", resp.Ok, string(resp.Result))
}

// Start polls updates until ctx is cancelled. It returns
// ErrTokenConflict when Telegram reports a second poller on the same
// token; other poll errors are logged and retried.
func (b *Bot) Start(ctx context.Context) error {
	log.Printf("✅ Bot is starting with Groq… authorized as @%s", b.api.Self.UserName)

	offset := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 60
		updates, err := b.api.GetUpdates(u)
		if err != nil {
			var apiErr *tgbotapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == 409 {
				return fmt.Errorf("%w: %v", ErrTokenConflict, err)
			}
			log.Printf("⚠️ getUpdates failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			if update.Message.IsCommand() {
				b.handleCommand(update.Message)
				continue
			}
			b.handleIncomingMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("❌ failed to send message: %v", err)
	}
}
