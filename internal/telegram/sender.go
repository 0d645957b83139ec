package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const MaxMessageLen = 4096

// SendLongMessage sends a potentially long message, splitting it into parts
// if needed. Falls back to plain text if Markdown parsing fails.
func SendLongMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) (*models.Message, error) {
	text = FixMarkdown(text)
	parts := SplitMessage(text, MaxMessageLen)

	var last *models.Message
	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      part,
			ParseMode: models.ParseModeMarkdownV1,
		}
		if markup != nil && i == len(parts)-1 {
			params.ReplyMarkup = markup
		}

		msg, err := b.SendMessage(ctx, params)
		if err != nil {
			// Fallback to plain text
			slog.Warn("markdown send failed, falling back to plain text", "error", err)
			params.ParseMode = ""
			msg, err = b.SendMessage(ctx, params)
			if err != nil {
				return nil, fmt.Errorf("send message: %w", err)
			}
		}
		last = msg
	}

	return last, nil
}

// EditLongMessage edits a message with potentially long text, truncating
// past the Telegram limit.
func EditLongMessage(ctx context.Context, b *bot.Bot, chatID int64, messageID int, text string, markup models.ReplyMarkup) error {
	text = FixMarkdown(text)
	if len([]rune(text)) > MaxMessageLen {
		text = string([]rune(text)[:MaxMessageLen-3]) + "..."
	}

	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	_, err := b.EditMessageText(ctx, params)
	if err != nil {
		// Fallback to plain text
		params.ParseMode = ""
		_, err = b.EditMessageText(ctx, params)
	}
	return err
}

// StartTyping sends the "typing..." action every 4 seconds until the
// returned cancel function is called.
func StartTyping(ctx context.Context, b *bot.Bot, chatID int64) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(4 * time.Second)
		defer ticker.Stop()
		// Send immediately
		b.SendChatAction(ctx, &bot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.SendChatAction(ctx, &bot.SendChatActionParams{
					ChatID: chatID,
					Action: models.ChatActionTyping,
				})
			}
		}
	}()
	return cancel
}
