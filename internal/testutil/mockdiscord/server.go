// Package mockdiscord provides a mock Discord API server for testing.
package mockdiscord

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Message is a message the mock received, with the channel it was posted to.
type Message struct {
	ChannelID string
	Content   string
	AuthHdr   string
}

// Server is a mock Discord API server for testing.
// It records every message posted to /channels/{id}/messages and can be told
// to fail with a fixed status.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	messages []Message

	// FailStatus, when non-zero, makes message creation fail with this status
	// and FailBody as the response body.
	FailStatus int
	FailBody   string
}

// New creates a new mock Discord API server.
func New() *Server {
	s := &Server{}

	mux := http.NewServeMux()
	mux.HandleFunc("/channels/", s.handleMessages)
	mux.HandleFunc("/webhook", s.handleWebhook)

	s.Server = httptest.NewServer(mux)
	return s
}

// handleMessages mimics POST /channels/{id}/messages.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if r.Method != http.MethodPost || len(parts) != 3 || parts[2] != "messages" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if s.FailStatus != 0 {
		w.WriteHeader(s.FailStatus)
		//nolint:errcheck
		w.Write([]byte(s.FailBody))
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, Message{
		ChannelID: parts[1],
		Content:   body.Content,
		AuthHdr:   r.Header.Get("Authorization"),
	})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write([]byte(`{"id":"1"}`))
}

// handleWebhook mimics a Discord incoming webhook endpoint.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.FailStatus != 0 {
		w.WriteHeader(s.FailStatus)
		//nolint:errcheck
		w.Write([]byte(s.FailBody))
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, Message{ChannelID: "webhook", Content: body.Content})
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// Messages returns a copy of all received messages.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// WebhookURL returns the URL of the mock webhook endpoint.
func (s *Server) WebhookURL() string {
	return s.URL + "/webhook"
}
