package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/vedran77/huddle/internal/client"
	"github.com/vedran77/huddle/internal/config"
	"github.com/vedran77/huddle/internal/domain"
	"github.com/vedran77/huddle/internal/identity"
	"github.com/vedran77/huddle/internal/roomsync"
	"github.com/vedran77/huddle/internal/speech"
	"github.com/vedran77/huddle/internal/tui"
	"golang.org/x/sync/errgroup"
)

const joinTimeout = 15 * time.Second

func main() {
	cfg := config.LoadClient()
	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "huddle server base URL")
	flag.StringVar(&cfg.Room, "room", cfg.Room, "room slug to join")
	flag.StringVar(&cfg.Name, "name", cfg.Name, "display name (remembered for next time)")
	flag.Parse()

	logger, closeLog := newLogger(cfg.LogFile)
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error("client exited", "error", err)
		fmt.Fprintln(os.Stderr, err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.ClientConfig, logger *slog.Logger) error {
	id, err := loadIdentity(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.ServerURL, nil, logger)
	feed := client.NewFeed(cfg.ServerURL, id.Username, logger)

	var (
		lost         atomic.Bool
		lostOnce     sync.Once
		disconnected = make(chan struct{})
	)
	feed.OnDisconnect = func(uuid.UUID, error) {
		lost.Store(true)
		lostOnce.Do(func() { close(disconnected) })
	}

	joinCtx, cancel := context.WithTimeout(ctx, joinTimeout)
	session, err := roomsync.Join(joinCtx, roomsync.Deps{
		Rooms:  api,
		Feed:   feed,
		Blobs:  api,
		Logger: logger,
	}, roomsync.Config{Slug: cfg.Room, Identity: id})
	cancel()
	if err != nil {
		return fmt.Errorf("could not join #%s: %w", cfg.Room, err)
	}

	var dictation tui.Dictation
	if cfg.SpeechURL != "" {
		recognizer := speech.New(speech.Config{
			BaseURL: cfg.SpeechURL,
			APIKey:  cfg.SpeechAPIKey,
			Model:   cfg.SpeechModel,
		}, nil, logger)
		dictation = roomsync.NewTranscriber(recognizer, cfg.MaxAudioBytes, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(gctx)
	})
	g.Go(func() error {
		select {
		case <-disconnected:
			session.Close()
		case <-session.Done():
		}
		return nil
	})
	g.Go(func() error {
		defer session.Close()
		model := tui.New(gctx, session, dictation, api.PublicURL)
		_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx)).Run()
		return err
	})

	err = g.Wait()
	if lost.Load() {
		return errors.New("connection to the server was lost")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// loadIdentity reads the remembered display name once, asking for one the
// first time.
func loadIdentity(cfg *config.ClientConfig) (domain.Identity, error) {
	path := cfg.IdentityFile
	if path == "" {
		var err error
		if path, err = identity.DefaultPath(); err != nil {
			return domain.Identity{}, fmt.Errorf("locating identity file: %w", err)
		}
	}
	store := identity.NewFileStore(path)

	id, err := identity.Load(store, cfg.Name)
	if err != nil {
		return domain.Identity{}, err
	}
	if id.Username != "" {
		return id, nil
	}

	name, err := tui.PromptUsername()
	if err != nil {
		return domain.Identity{}, err
	}
	return identity.Load(store, name)
}

func newLogger(path string) (*slog.Logger, func()) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})), func() { f.Close() }
}
