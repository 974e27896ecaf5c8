package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/updoot/discussion-backend/internal/api"
	"github.com/updoot/discussion-backend/internal/core/ports"
	"github.com/updoot/discussion-backend/internal/infrastructure/db/mongo"
	"github.com/updoot/discussion-backend/internal/infrastructure/db/redis"
	"github.com/updoot/discussion-backend/internal/infrastructure/email"
	"github.com/updoot/discussion-backend/internal/infrastructure/queue"
	"github.com/updoot/discussion-backend/internal/pkg/config"
	"github.com/updoot/discussion-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Backing stores ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo index bootstrap failed")
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Outbound mail ---
	var mailer ports.Mailer
	if cfg.Postmark.ServerToken != "" {
		mailer = email.NewPostmarkMailer(email.PostmarkConfig{
			ServerToken:  cfg.Postmark.ServerToken,
			AccountToken: cfg.Postmark.AccountToken,
			From:         cfg.Postmark.From,
		})
	} else {
		log.Warn().Msg("no postmark token configured, mail goes to the log")
		mailer = email.NewLogMailer(log)
	}
	dispatcher := queue.NewMailDispatcher(cfg.MailWorkers, mailer, log)
	dispatcher.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(db, rdb, cfg, dispatcher, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
