// Package server implements the HTTP surface of the highlight relay.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/booklight/highlight-relay/internal/discord"
	"github.com/booklight/highlight-relay/internal/metrics"
	"github.com/booklight/highlight-relay/internal/registry"
	"github.com/booklight/highlight-relay/internal/webhook"
)

// Messenger posts messages to the downstream chat API.
// This interface enables testing with mock implementations.
type Messenger interface {
	CreateMessage(ctx context.Context, channelID, content string) error
}

// Handler handles relay requests.
type Handler struct {
	registry  *registry.Service
	messenger Messenger
	relay     *webhook.Relay // nil when webhook mode is not configured
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a relay handler. relay may be nil when the webhook mode
// is not configured. If logger is nil, slog.Default() will be used.
func NewHandler(reg *registry.Service, messenger Messenger, relay *webhook.Relay, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry:  reg,
		messenger: messenger,
		relay:     relay,
		logger:    logger,
		now:       time.Now,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

// writeErrorCode writes a structured error response with a machine-readable code.
func writeErrorCode(w http.ResponseWriter, status int, code string, extra map[string]string) {
	body := map[string]any{"success": false, "error": code}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// registrationRequest is the body shape shared by /register and /refresh.
type registrationRequest struct {
	Token     string `json:"token"`
	GuildID   string `json:"guildID"`
	ChannelID string `json:"channelID"`
	UserID    string `json:"userID"`
	Username  string `json:"username"`
	CreatedAt int64  `json:"createdAt"`
}

func (r *registrationRequest) record() *registry.Record {
	return &registry.Record{
		Token:     r.Token,
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		UserID:    r.UserID,
		Username:  r.Username,
		CreatedAt: r.CreatedAt,
	}
}

// HandleRegister registers a new token.
// POST /register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.registry.Register(r.Context(), req.record()); err != nil {
		var dup *registry.DuplicateError
		switch {
		case errors.Is(err, registry.ErrMissingFields):
			writeErrorCode(w, http.StatusBadRequest, "missingFields", nil)
		case errors.As(err, &dup):
			writeErrorCode(w, http.StatusBadRequest, "duplicateToken", map[string]string{"token": dup.Token})
		default:
			h.logger.Error("register failed", "error", err)
			writeErrorCode(w, http.StatusInternalServerError, "internalError", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleRefresh replaces the caller's token for a channel.
// POST /refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.registry.Refresh(r.Context(), req.record()); err != nil {
		switch {
		case errors.Is(err, registry.ErrMissingFields):
			writeErrorCode(w, http.StatusBadRequest, "missingFields", nil)
		case errors.Is(err, registry.ErrNotFound):
			// Only reachable in strict mode (REFRESH_REQUIRE_EXISTING).
			writeErrorCode(w, http.StatusNotFound, "unknownToken", nil)
		default:
			h.logger.Error("refresh failed", "error", err)
			writeErrorCode(w, http.StatusInternalServerError, "internalError", nil)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// quoteRequest is the body shape for /quote.
type quoteRequest struct {
	Token  string `json:"token"`
	Text   string `json:"text"`
	Title  string `json:"title"`
	Author string `json:"author"`
	User   string `json:"user"` // fallback display name for legacy records
}

// HandleQuote validates a token and forwards the highlight to Discord.
// POST /quote
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		writeErrorCode(w, http.StatusBadRequest, "missingToken", nil)
		return
	}

	rec, err := h.registry.Resolve(r.Context(), req.Token, h.now())
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrExpired):
			writeErrorCode(w, http.StatusForbidden, "expiredToken", nil)
		case errors.Is(err, registry.ErrNotFound), errors.Is(err, registry.ErrMalformed):
			writeErrorCode(w, http.StatusForbidden, "invalidToken", nil)
		default:
			h.logger.Error("token lookup failed", "error", err)
			writeErrorCode(w, http.StatusInternalServerError, "internalError", nil)
		}
		return
	}

	// Registered username wins; records from before the username requirement
	// fall back to the caller-supplied name.
	name := rec.Username
	if name == "" {
		name = req.User
	}

	content := discord.FormatHighlight(name, req.Title, req.Author, req.Text)

	if err := h.messenger.CreateMessage(r.Context(), rec.ChannelID, content); err != nil {
		metrics.RecordForwardFailure("discord")
		h.logger.Error("discord forward failed", "channel_id", rec.ChannelID, "error", err)
		writeErrorCode(w, http.StatusInternalServerError, "discordError", map[string]string{"detail": err.Error()})
		return
	}

	h.logger.Info("quote forwarded", "channel_id", rec.ChannelID, "user_id", rec.UserID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleRelay forwards a highlight through the room-key webhook mode.
// POST /relay
func (h *Handler) HandleRelay(w http.ResponseWriter, r *http.Request) {
	if h.relay == nil {
		http.Error(w, "Unknown endpoint", http.StatusNotFound)
		return
	}

	var req webhook.ForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.relay.Forward(r.Context(), &req); err != nil {
		switch {
		case errors.Is(err, webhook.ErrBadRoomKey):
			writeErrorCode(w, http.StatusForbidden, "badRoomKey", nil)
		case errors.Is(err, webhook.ErrForbiddenURL):
			writeErrorCode(w, http.StatusForbidden, "forbiddenURL", nil)
		default:
			metrics.RecordForwardFailure("webhook")
			h.logger.Error("webhook forward failed", "error", err)
			writeErrorCode(w, http.StatusInternalServerError, "webhookError", map[string]string{"detail": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
