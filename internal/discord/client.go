package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	// DefaultBaseURL is the default base URL for the Discord API.
	DefaultBaseURL = "https://discord.com/api/v10"
)

// Client is an HTTP client for the Discord message API.
// It authenticates with the service-held bot token; caller tokens never reach
// Discord.
type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing with mock server).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a new Discord API client.
func NewClient(botToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		botToken:   botToken,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateMessage posts a message to a channel.
// Single best-effort attempt; non-2xx responses map to an error carrying the
// upstream body, and nothing is retried.
func (c *Client) CreateMessage(ctx context.Context, channelID, content string) error {
	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, url.PathEscape(channelID))

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bot "+c.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
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

	return parseError(resp.StatusCode, respBody)
}

// parseError maps a non-2xx Discord response to an error.
// 401 means the service's own bot token is bad and gets its own sentinel;
// everything else keeps the upstream body for diagnostics.
func parseError(statusCode int, body []byte) error {
	if statusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return &APIError{StatusCode: statusCode, Body: string(body)}
}
