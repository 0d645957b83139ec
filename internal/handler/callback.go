package handler

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ragworks/finchat/internal/chat"
	"github.com/ragworks/finchat/internal/domain"
	tg "github.com/ragworks/finchat/internal/telegram"
)

// HandleShowContext reveals the retrieved context of a finished turn.
func (h *Handler) HandleShowContext(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil || cb.Message.Message == nil {
		return
	}
	chatID := cb.Message.Message.Chat.ID

	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID})

	id := strings.TrimPrefix(cb.Data, "ctx:")
	orch, ok := h.sessions.Get(sessionKey(chatID))
	if !ok {
		return
	}

	msg, ok := findByShortID(orch.Snapshot().Messages, id)
	if !ok || msg.Context == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: "No context available for this answer."})
		return
	}
	tg.SendLongMessage(ctx, b, chatID, "📄 Retrieved context:\n\n"+msg.Context, nil)
}

// HandleRetryButton is the inline-keyboard variant of /retry.
func (h *Handler) HandleRetryButton(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil || cb.Message.Message == nil {
		return
	}
	chatID := cb.Message.Message.Chat.ID

	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cb.ID})

	h.executeTurn(ctx, b, chatID, func(orch *chat.Orchestrator) (domain.Message, error) {
		return orch.Retry(ctx)
	})
}

func findByShortID(msgs []domain.Message, short string) (domain.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if strings.HasPrefix(msgs[i].ID, short) {
			return msgs[i], true
		}
	}
	return domain.Message{}, false
}
