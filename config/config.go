// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials (the Telegram bot token), use ValidateBotReady.
package config

import (
	"fmt"
	"os"
)

type Config struct {
	// Telegram
	TelegramToken string

	// trace.moe reverse-search provider
	TraceMoeKey string
	TraceMoeURL string

	// AniList metadata catalog
	AniListURL string

	// HTTP keep-alive / metrics server
	HTTPAddr string

	// Chat surface links shown in the help keyboard
	ChannelURL string
	SupportURL string
}

// Load reads environment variables and applies defaults. It doesn't fail if the bot token
// is missing; use ValidateBotReady() before starting the Telegram shell. The trace.moe key
// is optional: without one the provider serves anonymous, rate-limited requests.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TraceMoeKey = os.Getenv("TRACE_MOE_KEY")

	cfg.TraceMoeURL = os.Getenv("TRACE_MOE_API_URL")
	if cfg.TraceMoeURL == "" {
		cfg.TraceMoeURL = "https://api.trace.moe/search"
	}

	cfg.AniListURL = os.Getenv("ANILIST_API_URL")
	if cfg.AniListURL == "" {
		cfg.AniListURL = "https://graphql.anilist.co/"
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.ChannelURL = os.Getenv("HELP_CHANNEL_URL")
	if cfg.ChannelURL == "" {
		cfg.ChannelURL = "https://t.me/Rkgroup_Bot"
	}
	cfg.SupportURL = os.Getenv("HELP_SUPPORT_URL")
	if cfg.SupportURL == "" {
		cfg.SupportURL = "https://t.me/Rkgroup_helpbot?start=start"
	}

	return cfg, nil
}

// ValidateBotReady checks required fields before connecting the Telegram shell.
func (c *Config) ValidateBotReady() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("missing telegram env: require TELEGRAM_TOKEN")
	}
	return nil
}
