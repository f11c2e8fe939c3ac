// Package config provides configuration loading and validation from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"` // debug, info, warn, error
	ListenAddr        string `env:"LISTEN_ADDR" envDefault:":8080"`
	MetricsListenAddr string `env:"METRICS_LISTEN_ADDR" envDefault:"localhost:9090"`
	DatabasePath      string `env:"DATABASE_PATH" envDefault:"/data/relay.db"`

	// Discord bot credentials for the token-registry mode.
	BotToken      string `env:"BOT_TOKEN"`
	DiscordAPIURL string `env:"DISCORD_API_URL"` // empty = use default

	// Webhook relay mode: pre-distributed room secret plus destination allowlist.
	WebhookURL             string   `env:"WEBHOOK_URL"`
	RoomKey                string   `env:"ROOM_KEY"`
	WebhookAllowedPrefixes []string `env:"WEBHOOK_ALLOWED_PREFIXES" envSeparator:"," envDefault:"https://discord.com/api/webhooks/"`

	// RefreshRequireExisting makes /refresh fail when no prior token exists for
	// the (user, channel) pair instead of silently creating one.
	RefreshRequireExisting bool `env:"REFRESH_REQUIRE_EXISTING" envDefault:"false"`

	// TokenMaxAgeDays is the registry token expiry window.
	TokenMaxAgeDays int `env:"TOKEN_MAX_AGE_DAYS" envDefault:"90"`
}

// Load parses configuration from environment variables.
// All optional fields have sensible defaults for ease of deployment.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks all configuration constraints.
// At least one relay mode must be fully configured.
func (c *Config) Validate() error {
	if c.BotToken == "" && !c.WebhookConfigured() {
		return fmt.Errorf("BOT_TOKEN or WEBHOOK_URL+ROOM_KEY environment variables are required")
	}
	if c.TokenMaxAgeDays <= 0 {
		return fmt.Errorf("TOKEN_MAX_AGE_DAYS must be positive, got %d", c.TokenMaxAgeDays)
	}
	return nil
}

// WebhookConfigured reports whether the webhook relay mode is fully configured.
func (c *Config) WebhookConfigured() bool {
	return c.WebhookURL != "" && c.RoomKey != ""
}
