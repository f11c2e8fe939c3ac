// Package webhook implements the stateless relay mode: callers authenticate
// with a pre-distributed room secret instead of a registered token.
package webhook

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/booklight/highlight-relay/internal/discord"
)

var (
	// ErrBadRoomKey is returned when the caller's room key does not match.
	ErrBadRoomKey = errors.New("webhook: invalid room key")

	// ErrForbiddenURL is returned when the destination URL is not on the allowlist.
	ErrForbiddenURL = errors.New("webhook: destination URL not allowed")
)

// Relay forwards highlight payloads to an incoming-webhook URL.
// It holds no per-caller state; the room key is the only credential.
type Relay struct {
	defaultURL      string
	roomKey         string
	allowedPrefixes []string
	httpClient      *http.Client
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) RelayOption {
	return func(r *Relay) {
		r.httpClient = client
	}
}

// NewRelay creates a webhook relay with a default destination, room secret
// and destination URL allowlist.
func NewRelay(defaultURL, roomKey string, allowedPrefixes []string, opts ...RelayOption) *Relay {
	r := &Relay{
		defaultURL:      defaultURL,
		roomKey:         roomKey,
		allowedPrefixes: allowedPrefixes,
		httpClient:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ForwardRequest is a highlight payload submitted to the relay.
type ForwardRequest struct {
	RoomKey string `json:"roomKey"`
	URL     string `json:"url,omitempty"` // optional destination override
	User    string `json:"user"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Text    string `json:"text"`
}

// Forward authenticates the request, validates the destination and posts the
// formatted message. Single best-effort attempt, never retried.
func (r *Relay) Forward(ctx context.Context, req *ForwardRequest) error {
	if subtle.ConstantTimeCompare([]byte(req.RoomKey), []byte(r.roomKey)) != 1 {
		return ErrBadRoomKey
	}

	dest := req.URL
	if dest == "" {
		dest = r.defaultURL
	}
	if !r.urlAllowed(dest) {
		return ErrForbiddenURL
	}

	content := discord.FormatHighlight(req.User, req.Title, req.Author, req.Text)

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, dest, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer func() {
		//nolint:errcheck
		resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return &discord.APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
}

// urlAllowed reports whether dest matches one of the allowed URL prefixes.
// The configured default destination is always allowed.
func (r *Relay) urlAllowed(dest string) bool {
	if dest == "" {
		return false
	}
	if dest == r.defaultURL && r.defaultURL != "" {
		return true
	}
	for _, prefix := range r.allowedPrefixes {
		if prefix != "" && strings.HasPrefix(dest, prefix) {
			return true
		}
	}
	return false
}
