package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ragworks/finchat/internal/chat"
	"github.com/ragworks/finchat/internal/domain"
	tg "github.com/ragworks/finchat/internal/telegram"
)

// HandleTextPrivate runs one chat turn for a private text message.
func (h *Handler) HandleTextPrivate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}

	msg := update.Message
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	h.executeTurn(ctx, b, msg.Chat.ID, func(orch *chat.Orchestrator) (domain.Message, error) {
		return orch.Append(ctx, msg.Text)
	})
}

// executeTurn is the shared turn driver for new questions and retries: send
// the placeholder, mirror tracker progress into it via the orchestrator sink,
// then swap in the final answer and persist the turn.
func (h *Handler) executeTurn(ctx context.Context, b *bot.Bot, chatID int64, start func(*chat.Orchestrator) (domain.Message, error)) {
	orch := h.sessions.GetOrCreate(sessionKey(chatID))

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	status, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "⏳ Generating answer...",
	})
	if err != nil {
		slog.Error("send placeholder", "error", err, "chat_id", chatID)
		return
	}

	orch.SetSink(func(s domain.Session) {
		n := len(s.Messages)
		if n == 0 || s.Messages[n-1].Role != domain.RoleBotWaiting {
			return
		}
		// "message is not modified" errors are expected on the first render
		tg.EditLongMessage(ctx, b, chatID, status.ID, renderWaiting(s.Messages[n-1]), nil)
	})
	defer orch.SetSink(nil)

	final, err := start(orch)
	switch {
	case errors.Is(err, domain.ErrTurnInFlight):
		tg.EditLongMessage(ctx, b, chatID, status.ID, "⏳ Wait for the answer to your previous question first.", nil)
		return
	case errors.Is(err, domain.ErrNothingToRetry):
		tg.EditLongMessage(ctx, b, chatID, status.ID, "Nothing to retry yet — ask a question first.", nil)
		return
	case errors.Is(err, domain.ErrEmptyMessage):
		tg.EditLongMessage(ctx, b, chatID, status.ID, "Please send a non-empty question.", nil)
		return
	case err != nil:
		slog.Error("turn failed", "error", err, "chat_id", chatID)
		tg.EditLongMessage(ctx, b, chatID, status.ID, "Something went wrong, please try again.", nil)
		return
	}

	if err := tg.EditLongMessage(ctx, b, chatID, status.ID, renderFinal(final), finalKeyboard(final)); err != nil {
		slog.Warn("edit final message", "error", err, "chat_id", chatID)
	}

	if h.turns != nil {
		if err := h.turns.Record(ctx, sessionKey(chatID), final); err != nil {
			slog.Error("record turn", "error", err, "chat_id", chatID)
		}
	}
}

// finalKeyboard offers context reveal and retry on a finished turn.
func finalKeyboard(msg domain.Message) models.ReplyMarkup {
	row := tg.ButtonRow(
		tg.InlineButton("📄 Show context", "ctx:"+shortID(msg.ID)),
		tg.InlineButton("🔄 Retry", "retry"),
	)
	return tg.InlineKeyboard(row)
}

// shortID fits a message ID into Telegram's 64-byte callback data budget.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
