package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/HenriqueProj/Web-App-BD/internal/app"
	"github.com/HenriqueProj/Web-App-BD/internal/events"
	"github.com/HenriqueProj/Web-App-BD/internal/platform/cache"
	"github.com/HenriqueProj/Web-App-BD/internal/platform/db"
	"github.com/HenriqueProj/Web-App-BD/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		migrator, err := db.NewMigrator(pool)
		if err != nil {
			logger.Error("load migrations", slog.Any("error", err))
			os.Exit(1)
		}
		if err := migrator.Up(ctx, 0); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var producer *events.Producer
	if cfg.KafkaEnabled() {
		producer, err = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaClientID, logger)
		if err != nil {
			// Orders and customers keep working; events are only lost while kafka is down.
			logger.Warn("kafka producer disabled", slog.Any("error", err))
			producer = nil
		} else {
			defer func() {
				if err := producer.Close(); err != nil {
					logger.Warn("kafka close", slog.Any("error", err))
				}
			}()
		}
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("jobs inspector close", slog.Any("error", err))
		}
	}()

	application, err := app.Build(app.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Redis:     redisClient,
		Producer:  producer,
		Jobs:      jobClient,
		Inspector: inspector,
	})
	if err != nil {
		logger.Error("build application", slog.Any("error", err))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           application.Handler,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("back office listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("http server", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	logger.Info("back office stopped")
}
