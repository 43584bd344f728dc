package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/vedran77/huddle/internal/blob"
	"github.com/vedran77/huddle/internal/broker"
	"github.com/vedran77/huddle/internal/cache"
	"github.com/vedran77/huddle/internal/config"
	"github.com/vedran77/huddle/internal/database"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/repository"
	postgresrepo "github.com/vedran77/huddle/internal/repository/postgres"
	sqliterepo "github.com/vedran77/huddle/internal/repository/sqlite"
	"github.com/vedran77/huddle/internal/service"
	"github.com/vedran77/huddle/internal/transport/http/handlers"
	"github.com/vedran77/huddle/internal/transport/http/middleware"
	"github.com/vedran77/huddle/internal/transport/ws"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.LogFormat)
	slog.SetDefault(logger)
	ctx := context.Background()

	// Database
	roomRepo, messageRepo, closeDB, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "database", err)
	}

	// Real-time feed
	hub := ws.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(ctx)
	go hub.Run(hubCtx)
	var notifier service.Notifier = ws.NewHubNotifier(hub)

	// Blobs and cross-instance relay
	var (
		store blob.Store
		nc    *nats.Conn
		relay *broker.Relay
	)
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL, nats.Name("huddle-server"))
		if err != nil {
			fatal(logger, "nats", err)
		}
		js, err := jetstream.New(nc)
		if err != nil {
			fatal(logger, "jetstream", err)
		}
		if store, err = blob.NewJetStreamStore(ctx, js, cfg.BlobBucket); err != nil {
			fatal(logger, "blob store", err)
		}
		relay = broker.NewRelay(nc, notifier, logger)
		if err := relay.Start(); err != nil {
			fatal(logger, "relay", err)
		}
		notifier = relay
		logger.Info("connected to NATS", "url", cfg.NATSURL, "bucket", cfg.BlobBucket)
	} else {
		if store, err = blob.NewDiskStore(cfg.BlobDir); err != nil {
			fatal(logger, "blob store", err)
		}
		logger.Info("storing attachments on disk", "dir", cfg.BlobDir)
	}

	// Services
	roomService := service.NewRoomService(roomRepo, logger)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		if rdb, err = cache.Connect(ctx, cfg.RedisURL); err != nil {
			logger.Warn("room cache disabled", "error", err)
		} else {
			roomService.SetCache(cache.NewRoomCache(rdb, cfg.RoomCacheTTL))
			logger.Info("room cache enabled", "ttl", cfg.RoomCacheTTL)
		}
	}
	messageService := service.NewMessageService(messageRepo, roomRepo, logger)
	messageService.SetNotifier(notifier)
	uploadService := service.NewUploadService(store, cfg.MaxUploadBytes, logger)

	if _, err := roomService.Ensure(ctx, domain.DefaultRoomSlug); err != nil {
		fatal(logger, "default room", err)
	}

	// Routes
	mux := http.NewServeMux()
	handlers.Routes{
		Rooms:    handlers.NewRoomHandler(roomService, logger),
		Messages: handlers.NewMessageHandler(messageService, logger),
		Uploads:  handlers.NewUploadHandler(uploadService, cfg.PublicBaseURL, logger),
		Health:   handlers.Health(hub.Count),
		Feed:     ws.ServeWS(hub),
	}.Register(mux)

	handler := middleware.RequestID(
		middleware.Logging(logger)(
			middleware.Recover(logger)(
				middleware.CORS(mux))))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "http server", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// One operation so the steps run in dependency order.
			"huddle": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				var errs []error
				errs = append(errs, srv.Shutdown(ctx))
				if relay != nil {
					errs = append(errs, relay.Stop())
				}
				stopHub()
				if nc != nil {
					errs = append(errs, nc.Drain())
				}
				if rdb != nil {
					errs = append(errs, rdb.Close())
				}
				closeDB()
				return errors.Join(errs...)
			},
		},
	)

	exitCode := <-wait
	logger.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}

func openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.RoomRepository, repository.MessageRepository, func(), error) {
	switch cfg.DBDriver {
	case "postgres":
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		logger.Info("connected to database", "driver", "postgres", "host", cfg.DBHost, "name", cfg.DBName)
		return postgresrepo.NewRoomRepo(pool), postgresrepo.NewMessageRepo(pool), pool.Close, nil

	case "sqlite":
		db, err := database.OpenSQLite(cfg.SQLitePath, sqliterepo.Models()...)
		if err != nil {
			return nil, nil, nil, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		logger.Info("connected to database", "driver", "sqlite", "path", cfg.SQLitePath)
		return sqliterepo.NewRoomRepo(db), sqliterepo.NewMessageRepo(db), closeDB, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}

func newLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func fatal(logger *slog.Logger, what string, err error) {
	logger.Error("startup failed", "step", what, "error", err)
	os.Exit(1)
}
