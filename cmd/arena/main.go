package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tankarena/internal/ai"
	"github.com/udisondev/tankarena/internal/arena"
	"github.com/udisondev/tankarena/internal/config"
	"github.com/udisondev/tankarena/internal/db"
	"github.com/udisondev/tankarena/internal/render"
	"github.com/udisondev/tankarena/internal/spectator"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Config first: it decides the log level.
	cfgPath := config.Path()
	cfg, err := config.LoadArena(cfgPath)
	if err != nil {
		return fmt.Errorf("loading arena config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logOut := os.Stdout
	if cfg.Viewer.Enabled {
		// The viewer owns the terminal.
		logOut = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	})))

	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("tankarena starting", "config", cfgPath, "log_level", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return err
	}

	matchID := uuid.New()
	opts := []arena.Option{arena.WithMatchID(matchID)}

	var (
		repo    *db.JournalRepository
		journal *db.Journal
	)
	if cfg.Journal.Enabled {
		database, err := db.New(ctx, cfg.Journal.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Journal.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		repo = database.Journal()
		journal = db.NewJournal(repo, matchID, cfg.Journal.BufferSize, cfg.Journal.FlushInterval)
		opts = append(opts, arena.WithRecorder(journal))
	}

	var hub *spectator.Hub
	if cfg.Spectator.Enabled {
		hub = spectator.NewHub()
		opts = append(opts, arena.WithPublisher(hub, cfg.Spectator.BroadcastEvery))
	}

	match, err := arena.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("creating arena: %w", err)
	}

	if repo != nil {
		err := repo.CreateMatch(ctx, db.MatchRecord{
			ID:        matchID,
			Seed:      match.Seed(),
			Tanks:     len(cfg.Layout.Tanks),
			StartedAt: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("creating match record: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	// The match ending (duration or viewer quit) stops everything else.
	sctx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		defer stop()
		slog.Info("starting arena", "matchID", matchID, "interval", cfg.TickInterval, "duration", cfg.Duration)
		if err := match.Run(sctx); err != nil {
			return fmt.Errorf("arena: %w", err)
		}
		return nil
	})

	if journal != nil {
		g.Go(func() error {
			return journal.Run(sctx)
		})
	}

	if hub != nil {
		g.Go(func() error {
			return spectator.Serve(sctx, cfg.Spectator.BindAddress, hub)
		})
	}

	if cfg.Viewer.Enabled {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("creating viewer screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("initializing viewer screen: %w", err)
		}
		defer screen.Fini()

		glyphs := render.ASCIIGlyphs
		if cfg.Viewer.Emoji {
			glyphs = render.EmojiGlyphs
		}
		viewer := render.NewViewer(screen, match.Snapshot, cfg.Viewer.FPS, glyphs)

		g.Go(func() error {
			err := viewer.Run(sctx)
			if errors.Is(err, render.ErrQuit) {
				stop()
				return nil
			}
			return err
		})
	}

	waitErr := g.Wait()

	if repo != nil {
		fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.FinishMatch(fctx, matchID, time.Now(), match.Frames()); err != nil {
			slog.Error("finishing match record", "matchID", matchID, "error", err)
		}
	}

	summary := []any{
		"matchID", matchID,
		"frames", match.Frames(),
		"alive", match.Alive(),
		"playerShots", match.PlayerShots(),
		"playerHits", match.PlayerHits(),
	}
	if hub != nil {
		summary = append(summary, "spectatorMessages", hub.Sent())
	}
	slog.Info("tankarena stopped", summary...)

	if waitErr != nil {
		return fmt.Errorf("arena error: %w", waitErr)
	}
	return nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
