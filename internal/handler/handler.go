// Package handler wires the Telegram surface to the turn orchestrator.
package handler

import (
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/ragworks/finchat/internal/chat"
	"github.com/ragworks/finchat/internal/config"
	"github.com/ragworks/finchat/internal/repository"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot      *bot.Bot
	cfg      *config.Config
	sessions *chat.Registry
	turns    *repository.TurnStore
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot      *bot.Bot
	Cfg      *config.Config
	Sessions *chat.Registry
	Turns    *repository.TurnStore
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:      deps.Bot,
		cfg:      deps.Cfg,
		sessions: deps.Sessions,
		turns:    deps.Turns,
	}
}

// Register binds all command, text and callback handlers.
func (h *Handler) Register() {
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.HandleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypeExact, h.HandleReset)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/retry", bot.MatchTypeExact, h.HandleRetry)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypeExact, h.HandleHistory)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "ctx:", bot.MatchTypePrefix, h.HandleShowContext)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "retry", bot.MatchTypeExact, h.HandleRetryButton)
}

// sessionKey maps a Telegram chat to its orchestrator session.
func sessionKey(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}
