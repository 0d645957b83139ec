package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message, or whether it is still pending.
type Role string

const (
	RoleUser       Role = "user"
	RoleBot        Role = "bot"
	RoleBotWaiting Role = "bot-waiting"
)

// Message is one chat entry. Bot messages additionally carry the retrieved
// context, the validation tracker snapshot taken at creation time, and an
// optional chart built from retrieval results. UserQuestion keeps the
// originating user text so a turn can be replayed.
type Message struct {
	ID           string    `json:"id"`
	Role         Role      `json:"role"`
	Content      string    `json:"content"`
	Context      string    `json:"context,omitempty"`
	UserQuestion string    `json:"user_question"`
	Validation   *Tracker  `json:"validation,omitempty"`
	Chart        *Chart    `json:"chart,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUserMessage creates a user entry.
func NewUserMessage(text string) Message {
	return Message{
		ID:           uuid.NewString(),
		Role:         RoleUser,
		Content:      text,
		UserQuestion: text,
		CreatedAt:    time.Now(),
	}
}

// NewWaitingMessage creates the bot-waiting placeholder shown while a turn is
// in flight. The tracker is snapshotted by value.
func NewWaitingMessage(userText, content string, val Tracker) Message {
	return Message{
		ID:           uuid.NewString(),
		Role:         RoleBotWaiting,
		Content:      content,
		UserQuestion: userText,
		Validation:   &val,
		CreatedAt:    time.Now(),
	}
}

// NewBotMessage creates the final bot entry that replaces the placeholder.
func NewBotMessage(userText, content, context string, val Tracker, chart *Chart) Message {
	return Message{
		ID:           uuid.NewString(),
		Role:         RoleBot,
		Content:      content,
		Context:      context,
		UserQuestion: userText,
		Validation:   &val,
		Chart:        chart,
		CreatedAt:    time.Now(),
	}
}
