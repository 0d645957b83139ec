package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// RAG backend
	RAGBaseURL string `env:"RAG_API_BASE_URL,required"`
	RAGToken   string `env:"RAG_API_TOKEN"`

	// Token endpoint, used instead of RAG_API_TOKEN when set
	AuthTokenURL     string `env:"AUTH_TOKEN_URL"`
	AuthClientID     string `env:"AUTH_CLIENT_ID"`
	AuthClientSecret string `env:"AUTH_CLIENT_SECRET"`

	// HTTP API
	Port int `env:"PORT" envDefault:"3000"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RAGToken == "" && cfg.AuthTokenURL == "" {
		return nil, fmt.Errorf("either RAG_API_TOKEN or AUTH_TOKEN_URL must be set")
	}
	return cfg, nil
}
