package config

import "time"

const (
	// One chat turn end to end; a hung backend call is cut here so the
	// in-flight gate always releases.
	TurnTimeout = 90 * time.Second

	// Single backend HTTP call
	RequestTimeout = 60 * time.Second

	// Token endpoint call
	TokenTimeout = 10 * time.Second

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Turns shown by /history
	HistoryLimit = 5

	// HTTP server
	ReadTimeout     = 15 * time.Second
	WriteTimeout    = 120 * time.Second
	ShutdownTimeout = 10 * time.Second
)
