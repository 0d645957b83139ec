package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const welcomeText = `👋 Welcome to the RAG workshop assistant.

Ask a question about one of the indexed annual reports and I will run it through the pipeline:

1️⃣ Classification — figure out which company you mean
2️⃣ Retrieval — fetch the supporting document chunks
3️⃣ Prompt Engineering — generate the answer
4️⃣ Chunking · 5️⃣ Accuracy Improvement — validated along the way

Commands:
/reset — clear the conversation
/retry — replay the last question
/history — recent turns`

func (h *Handler) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   welcomeText,
	})
}
