package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prestalink/lending-bot/internal/api"
	"github.com/prestalink/lending-bot/internal/core/service"
	"github.com/prestalink/lending-bot/internal/infrastructure/config"
	mongodb "github.com/prestalink/lending-bot/internal/infrastructure/db/mongo"
	"github.com/prestalink/lending-bot/internal/infrastructure/db/postgres"
	redisdb "github.com/prestalink/lending-bot/internal/infrastructure/db/redis"
	"github.com/prestalink/lending-bot/internal/infrastructure/queue"
	"github.com/prestalink/lending-bot/internal/infrastructure/telegram"
	"github.com/prestalink/lending-bot/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		l := logger.Get()
		l.Fatal().Err(err).Msg("configuration invalid")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Stores ---
	mongoClient, identityDB, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("identity store unavailable")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
	if err != nil {
		log.Fatal().Err(err).Msg("lending database unavailable")
	}
	defer pool.Close()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis unavailable")
	}
	defer func() { _ = rdb.Close() }()

	// --- Core wiring ---
	creds := mongodb.NewCredentialRepository(identityDB)
	queries := postgres.NewLoanRepository(pool)
	messenger := telegram.New(cfg.Telegram.Token, log)
	sessions := service.NewSessionStore()
	auth := service.NewAuthService(creds, messenger, log)
	router := service.NewRouter(sessions, creds, queries, auth, messenger, log)

	dispatcher := queue.NewDispatcher(cfg.Workers, router, log)
	dispatcher.Start(ctx)

	// --- HTTP surface ---
	e := api.NewRouter(api.Deps{
		Queue:         dispatcher,
		Dedup:         redisdb.NewDedupChecker(rdb),
		WebhookSecret: cfg.Telegram.WebhookSecret,
		Mongo:         identityDB,
		Postgres:      pool,
		Redis:         rdb,
		Log:           log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("webhook server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("webhook server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("webhook server shutdown failed")
		os.Exit(1)
	}
}
