package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultMaxAge is how long a token stays valid after registration.
const DefaultMaxAge = 90 * 24 * time.Hour

// Service implements register, refresh and lookup against a Store.
type Service struct {
	store           Store
	maxAge          time.Duration
	requireExisting bool
	logger          *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMaxAge overrides the token expiry window.
func WithMaxAge(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.maxAge = d
	}
}

// WithRequireExistingOnRefresh makes Refresh fail with ErrNotFound when no
// prior token exists for the (user, channel) pair. The default mirrors the
// historical behavior: a refresh without a prior token silently registers.
func WithRequireExistingOnRefresh(require bool) ServiceOption {
	return func(s *Service) {
		s.requireExisting = require
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a registry service on top of a Store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		maxAge: DefaultMaxAge,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new token registration.
// Returns ErrMissingFields if any required field is absent, and *DuplicateError
// citing the conflicting token if the (user, channel) pair already has one.
func (s *Service) Register(ctx context.Context, rec *Record) error {
	if !rec.Complete() {
		return ErrMissingFields
	}

	// Check for an existing registration first so the conflicting token can be
	// reported; the unique owner index still catches concurrent racers.
	existing, err := s.store.FindByOwner(ctx, rec.UserID, rec.ChannelID)
	if err == nil {
		return &DuplicateError{Token: existing.Token}
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check for duplicate: %w", err)
	}

	if err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost the race to a concurrent registration.
			if existing, findErr := s.store.FindByOwner(ctx, rec.UserID, rec.ChannelID); findErr == nil {
				return &DuplicateError{Token: existing.Token}
			}
			return &DuplicateError{Token: rec.Token}
		}
		return err
	}

	s.logger.Info("token registered", "user_id", rec.UserID, "channel_id", rec.ChannelID, "guild_id", rec.GuildID)
	return nil
}

// Refresh replaces the existing token for rec's (user, channel) pair with rec.
// When no prior token exists the behavior depends on configuration: by default
// the record is simply created; with WithRequireExistingOnRefresh the call
// fails with ErrNotFound.
func (s *Service) Refresh(ctx context.Context, rec *Record) error {
	if !rec.Complete() {
		return ErrMissingFields
	}

	existing, err := s.store.FindByOwner(ctx, rec.UserID, rec.ChannelID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to find existing token: %w", err)
		}
		if s.requireExisting {
			return ErrNotFound
		}
		if err := s.store.Create(ctx, rec); err != nil {
			return err
		}
		s.logger.Info("token registered via refresh", "user_id", rec.UserID, "channel_id", rec.ChannelID)
		return nil
	}

	if err := s.store.Replace(ctx, existing.Token, rec); err != nil {
		return err
	}

	s.logger.Info("token refreshed", "user_id", rec.UserID, "channel_id", rec.ChannelID)
	return nil
}

// Resolve looks up a token and validates it is live.
// Returns ErrNotFound for unknown tokens, ErrMalformed for records without a
// destination channel, and ErrExpired for records past the expiry window.
// Records without a creation time predate the expiry requirement and never
// expire.
func (s *Service) Resolve(ctx context.Context, token string, now time.Time) (*Record, error) {
	rec, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if rec.ChannelID == "" {
		return nil, ErrMalformed
	}

	if rec.CreatedAt > 0 && now.UnixMilli()-rec.CreatedAt > s.maxAge.Milliseconds() {
		return nil, ErrExpired
	}

	return rec, nil
}

// PurgeExpired removes records past the expiry window as of now.
// Expired records are otherwise left in place and rejected at lookup time;
// this is a maintenance operation, not part of the request path.
func (s *Service) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.maxAge).UnixMilli()
	return s.store.PurgeExpired(ctx, cutoff)
}
