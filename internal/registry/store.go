package registry

import "context"

// Store defines the persistence operations for token records.
type Store interface {
	// Put creates or overwrites the record at its token key.
	Put(ctx context.Context, rec *Record) error

	// Create inserts a record, failing with ErrDuplicate if the token or its
	// (user, channel) pair is already registered.
	Create(ctx context.Context, rec *Record) error

	// Get returns the record for a token. Returns ErrNotFound if absent.
	Get(ctx context.Context, token string) (*Record, error)

	// FindByOwner returns the record registered for a (user, channel) pair.
	// Returns ErrNotFound if absent.
	FindByOwner(ctx context.Context, userID, channelID string) (*Record, error)

	// List returns up to limit token keys in unspecified order.
	// The result is a best-effort snapshot, not a transactional view.
	List(ctx context.Context, limit int) ([]string, error)

	// Delete removes the record for a token; no-op if absent.
	Delete(ctx context.Context, token string) error

	// Replace atomically deletes oldToken and inserts rec.
	Replace(ctx context.Context, oldToken string, rec *Record) error

	// PurgeExpired deletes records created before cutoffMs (milliseconds since
	// epoch), returning the number removed. Records without a creation time
	// are kept.
	PurgeExpired(ctx context.Context, cutoffMs int64) (int64, error)

	// Lifecycle
	Close() error
}
