package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"hefz-bot/internal/auth"
	"hefz-bot/internal/config"
	"hefz-bot/internal/llm"
	"hefz-bot/internal/ratelimit"
	"hefz-bot/internal/scheduler"
	"hefz-bot/internal/singleton"
	"hefz-bot/internal/storage"
	"hefz-bot/internal/telegram"
)

// Distinguished exit codes so orchestration tooling can tell a lock
// fight from a token conflict and avoid restart loops.
const (
	exitLockHeld      = 2
	exitTokenConflict = 3
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	guard, err := singleton.Acquire(cfg.SingletonPort)
	if err != nil {
		log.Printf("⚠️ %v", err)
		os.Exit(exitLockHeld)
	}
	defer guard.Close()

	authSvc := auth.New(cfg.AdminUsers)

	client := llm.NewGroq(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel, cfg.GroqTemperature)
	gateway := llm.NewGateway(client, cfg.LLMTimeout, cfg.LLMMaxRPS)

	store, err := storage.NewCSVLog(cfg.StorePath)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	limiter := ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow)

	bot, err := telegram.New(cfg.BotToken, authSvc, gateway, limiter, store, cfg.BackupDir)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	sched := scheduler.New(func() error {
		_, err := store.Backup(cfg.BackupDir)
		return err
	})
	if err := sched.Start(); err != nil {
		log.Printf("⚠️ failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Must run before polling: only one delivery mechanism at a time.
	bot.Reconcile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bot.Start(ctx); err != nil {
		if errors.Is(err, telegram.ErrTokenConflict) {
			log.Printf("❌ 409 Conflict: another process is polling updates for this bot. Ensure only a single instance uses this BOT_TOKEN.")
			os.Exit(exitTokenConflict)
		}
		log.Fatalf("bot stopped: %v", err)
	}
	log.Println("🔴 Bot stopped.")
}
