package webhook_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/booklight/highlight-relay/internal/discord"
	"github.com/booklight/highlight-relay/internal/testutil/mockdiscord"
	"github.com/booklight/highlight-relay/internal/webhook"
)

// TestForward verifies a complete payload reaches the webhook formatted.
func TestForward(t *testing.T) {
	t.Parallel()

	mock := mockdiscord.New()
	defer mock.Close()

	relay := webhook.NewRelay(mock.WebhookURL(), "room-secret", nil)

	err := relay.Forward(context.Background(), &webhook.ForwardRequest{
		RoomKey: "room-secret",
		User:    "Bob",
		Title:   "T",
		Author:  "A",
		Text:    "Hi",
	})
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	msgs := mock.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	want := "```\nBob highlighted:\n\nT\nby A\n\nHi\n```"
	if msgs[0].Content != want {
		t.Errorf("expected %q, got %q", want, msgs[0].Content)
	}
}

// TestForwardBadRoomKey verifies the room secret gate.
func TestForwardBadRoomKey(t *testing.T) {
	t.Parallel()

	mock := mockdiscord.New()
	defer mock.Close()

	relay := webhook.NewRelay(mock.WebhookURL(), "room-secret", nil)

	err := relay.Forward(context.Background(), &webhook.ForwardRequest{RoomKey: "wrong"})
	if !errors.Is(err, webhook.ErrBadRoomKey) {
		t.Errorf("expected ErrBadRoomKey, got %v", err)
	}
	if len(mock.Messages()) != 0 {
		t.Errorf("expected no forwarded messages")
	}
}

// TestForwardURLAllowlist verifies caller-supplied destinations must match an
// allowed prefix; the configured default is always permitted.
func TestForwardURLAllowlist(t *testing.T) {
	t.Parallel()

	mock := mockdiscord.New()
	defer mock.Close()

	relay := webhook.NewRelay(mock.WebhookURL(), "room-secret", []string{"https://discord.com/api/webhooks/"})

	err := relay.Forward(context.Background(), &webhook.ForwardRequest{
		RoomKey: "room-secret",
		URL:     "https://evil.example.com/exfil",
	})
	if !errors.Is(err, webhook.ErrForbiddenURL) {
		t.Errorf("expected ErrForbiddenURL, got %v", err)
	}

	// Default destination needs no allowlist entry.
	err = relay.Forward(context.Background(), &webhook.ForwardRequest{RoomKey: "room-secret"})
	if err != nil {
		t.Errorf("default destination should be allowed, got %v", err)
	}
}

// TestForwardDownstreamError verifies non-2xx webhook responses surface the
// upstream body.
func TestForwardDownstreamError(t *testing.T) {
	t.Parallel()

	mock := mockdiscord.New()
	defer mock.Close()
	mock.FailStatus = http.StatusBadRequest
	mock.FailBody = `{"message":"Cannot send an empty message"}`

	relay := webhook.NewRelay(mock.WebhookURL(), "room-secret", nil)

	err := relay.Forward(context.Background(), &webhook.ForwardRequest{RoomKey: "room-secret"})

	var apiErr *discord.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", apiErr.StatusCode)
	}
	if apiErr.Body != mock.FailBody {
		t.Errorf("expected upstream body preserved, got %q", apiErr.Body)
	}
}
