package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ragworks/finchat/internal/chat"
	"github.com/ragworks/finchat/internal/config"
	"github.com/ragworks/finchat/internal/domain"
	tg "github.com/ragworks/finchat/internal/telegram"
)

// HandleReset clears the chat history. The workshop-complete flag survives a
// reset on purpose.
func (h *Handler) HandleReset(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	chatID := update.Message.Chat.ID

	orch := h.sessions.GetOrCreate(sessionKey(chatID))
	orch.Reset()

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🗑 Conversation cleared. Ask a new question whenever you are ready.",
	})
}

// HandleRetry replays the last question as a fresh turn.
func (h *Handler) HandleRetry(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	h.executeTurn(ctx, b, update.Message.Chat.ID, func(orch *chat.Orchestrator) (domain.Message, error) {
		return orch.Retry(ctx)
	})
}

// HandleHistory lists the most recent persisted turns for this chat.
func (h *Handler) HandleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	chatID := update.Message.Chat.ID

	if h.turns == nil {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: "History is not available."})
		return
	}

	records, err := h.turns.Recent(ctx, sessionKey(chatID), config.HistoryLimit)
	if err != nil {
		slog.Error("load history", "error", err, "chat_id", chatID)
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: "Could not load history."})
		return
	}
	if len(records) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: "No turns recorded yet."})
		return
	}

	var sb strings.Builder
	sb.WriteString("🕘 Recent turns:\n")
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("\n%s %s\n→ %s\n",
			outcomeGlyph(rec.Outcome),
			rec.Question,
			truncate(rec.Answer, 200),
		))
	}
	tg.SendLongMessage(ctx, b, chatID, sb.String(), nil)
}

func outcomeGlyph(o domain.TurnOutcome) string {
	switch o {
	case domain.OutcomeSuccess:
		return "✅"
	case domain.OutcomeWarning:
		return "⚠️"
	default:
		return "❌"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
