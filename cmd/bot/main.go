package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"

	finchat "github.com/ragworks/finchat"
	"github.com/ragworks/finchat/internal/api"
	"github.com/ragworks/finchat/internal/chat"
	"github.com/ragworks/finchat/internal/config"
	"github.com/ragworks/finchat/internal/handler"
	"github.com/ragworks/finchat/internal/middleware"
	"github.com/ragworks/finchat/internal/ragapi"
	"github.com/ragworks/finchat/internal/repository"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(finchat.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// RAG backend client
	var tokens ragapi.TokenSource
	if cfg.AuthTokenURL != "" {
		tokens = ragapi.NewRefreshTokenSource(cfg.AuthTokenURL, cfg.AuthClientID, cfg.AuthClientSecret, config.TokenTimeout)
	} else {
		tokens = ragapi.StaticToken(cfg.RAGToken)
	}
	backend := ragapi.NewClient(cfg.RAGBaseURL, tokens, config.RequestTimeout)

	// Orchestrator registry and turn store
	sessions := chat.NewRegistry(backend, config.TurnTimeout)
	turns := repository.NewTurnStore(pool)

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
		),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("drop pending updates", "error", err)
		}
	}

	h := handler.New(handler.Deps{
		Bot:      b,
		Cfg:      cfg,
		Sessions: sessions,
		Turns:    turns,
	})
	h.Register()

	// Default text handler runs chat turns
	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		if len(update.Message.Text) > 0 && update.Message.Text[0] == '/' {
			return
		}
		if update.Message.Chat.Type == "private" {
			h.HandleTextPrivate(ctx, b, update)
		}
	})

	// HTTP API
	apiHandler := api.NewHandler(sessions, turns)
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      apiHandler.Routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	go func() {
		slog.Info("starting http api", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	slog.Info("starting bot")
	b.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", "error", err)
	}

	slog.Info("stopped gracefully")
}
