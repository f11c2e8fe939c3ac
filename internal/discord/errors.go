// Package discord provides a client for the Discord message-creation API.
package discord

import (
	"errors"
	"fmt"
)

// APIError represents an error response from the Discord API.
// Body carries the upstream error text for operator diagnosis.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("discord: API error (status %d): %s", e.StatusCode, e.Body)
}

// ErrUnauthorized indicates the service's own bot token was rejected.
var ErrUnauthorized = errors.New("discord: unauthorized (invalid bot token)")
