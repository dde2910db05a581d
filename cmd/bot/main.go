// Package main is the entry point for the Naija Utility Bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"naija-utility-bot/internal/ai"
	"naija-utility-bot/internal/bot"
	"naija-utility-bot/internal/config"
	"naija-utility-bot/internal/pkg/db"
	"naija-utility-bot/internal/pkg/lock"
	"naija-utility-bot/internal/repository"
	"naija-utility-bot/internal/service"
	"naija-utility-bot/internal/session"
	"naija-utility-bot/internal/web"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load .env if present; real deployments use environment variables
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("Loaded .env file")
	}

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	requestRepo := repository.NewRequestRepository(dbPool.Pool)

	// Initialize services
	userLock := lock.NewUserLock()
	ledger := service.NewLedger(userRepo)
	lifecycle := service.NewLifecycle(ledger, requestRepo, userLock)
	referral := service.NewReferral(ledger, session.NewMemoryClaims(), cfg.Referral.Bonus)

	// Initialize AI completion client
	aiClient := ai.NewClient(&cfg.AI)

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:    cfg,
		Sessions:  session.NewMemoryStore(),
		Ledger:    ledger,
		Lifecycle: lifecycle,
		Referral:  referral,
		Completer: aiClient,
	}

	// Initialize bot
	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Start HTTP health server in a goroutine
	httpServer := web.New(dbPool, cfg.HTTP.Port)
	go func() {
		if err := httpServer.Run(); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create requests table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS requests (
			req_id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			type VARCHAR(20) NOT NULL,
			amount BIGINT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_requests_status_created ON requests(status, created DESC);
		CREATE INDEX IF NOT EXISTS idx_requests_user ON requests(user_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: requests table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
