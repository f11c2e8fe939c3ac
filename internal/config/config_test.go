package config

import (
	"testing"
)

// TestLoadDefaults verifies the defaults applied when no environment is set.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "bot-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected listen addr ':8080', got '%s'", cfg.ListenAddr)
	}
	if cfg.MetricsListenAddr != "localhost:9090" {
		t.Errorf("expected metrics addr 'localhost:9090', got '%s'", cfg.MetricsListenAddr)
	}
	if cfg.DatabasePath != "/data/relay.db" {
		t.Errorf("expected database path '/data/relay.db', got '%s'", cfg.DatabasePath)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.TokenMaxAgeDays != 90 {
		t.Errorf("expected 90 day max age, got %d", cfg.TokenMaxAgeDays)
	}
	if cfg.RefreshRequireExisting {
		t.Errorf("expected RefreshRequireExisting to default to false")
	}
	if len(cfg.WebhookAllowedPrefixes) != 1 || cfg.WebhookAllowedPrefixes[0] != "https://discord.com/api/webhooks/" {
		t.Errorf("unexpected webhook prefix default: %v", cfg.WebhookAllowedPrefixes)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

// TestValidateRequiresCredentials verifies that at least one relay mode must
// be configured.
func TestValidateRequiresCredentials(t *testing.T) {
	cfg := &Config{TokenMaxAgeDays: 90}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error with no credentials")
	}

	cfg.WebhookURL = "https://discord.com/api/webhooks/1/abc"
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error with webhook URL but no room key")
	}

	cfg.RoomKey = "room-secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("webhook mode alone should validate, got %v", err)
	}
}

// TestValidateMaxAge verifies the expiry window must be positive.
func TestValidateMaxAge(t *testing.T) {
	cfg := &Config{BotToken: "bot", TokenMaxAgeDays: 0}
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected validation error for zero max age")
	}
}

// TestWebhookPrefixList verifies comma-separated prefix parsing.
func TestWebhookPrefixList(t *testing.T) {
	t.Setenv("BOT_TOKEN", "bot-secret")
	t.Setenv("WEBHOOK_ALLOWED_PREFIXES", "https://a.example/,https://b.example/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.WebhookAllowedPrefixes) != 2 {
		t.Fatalf("expected 2 prefixes, got %v", cfg.WebhookAllowedPrefixes)
	}
}
