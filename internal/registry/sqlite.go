package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and initializes the schema.
// Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent requests and keeps in-memory databases
	// from splitting across connections.
	db.SetMaxOpenConns(1)

	// WAL keeps concurrent request handlers from serializing on writes.
	// A no-op for in-memory databases.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		//nolint:errcheck
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	if err := InitSchema(db); err != nil {
		//nolint:errcheck
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStore creates a SQLiteStore on an existing database handle.
// The caller is responsible for having initialized the schema.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// InitSchema creates all required tables and indexes.
// This is idempotent - safe to call multiple times.
func InitSchema(db *sql.DB) error {
	ddlStatements := []string{
		// tokens table: the registry. The token string is the key; the unique
		// owner index turns the one-live-token-per-(user, channel) scan into a
		// constraint enforced by the database.
		`CREATE TABLE IF NOT EXISTS tokens (
			token TEXT PRIMARY KEY,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tokens_owner ON tokens(user_id, channel_id)`,
	}

	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}

// Put creates or overwrites the record at its token key.
func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO tokens (token, guild_id, channel_id, user_id, username, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Token, rec.GuildID, rec.ChannelID, rec.UserID, rec.Username, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}
	return nil
}

// Create inserts a new record.
// Returns ErrDuplicate if the token or its (user, channel) pair already exists.
func (s *SQLiteStore) Create(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (token, guild_id, channel_id, user_id, username, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Token, rec.GuildID, rec.ChannelID, rec.UserID, rec.Username, rec.CreatedAt)
	if err != nil {
		if isConstraintErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// Get retrieves the record for a token.
// Returns ErrNotFound if the token doesn't exist.
func (s *SQLiteStore) Get(ctx context.Context, token string) (*Record, error) {
	var rec Record

	err := s.db.QueryRowContext(ctx,
		"SELECT token, guild_id, channel_id, user_id, username, created_at FROM tokens WHERE token = ?",
		token).
		Scan(&rec.Token, &rec.GuildID, &rec.ChannelID, &rec.UserID, &rec.Username, &rec.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return &rec, nil
}

// FindByOwner retrieves the record registered for a (user, channel) pair.
// This is a point lookup on the owner index, not a scan.
// Returns ErrNotFound if no record exists.
func (s *SQLiteStore) FindByOwner(ctx context.Context, userID, channelID string) (*Record, error) {
	var rec Record

	err := s.db.QueryRowContext(ctx,
		"SELECT token, guild_id, channel_id, user_id, username, created_at FROM tokens WHERE user_id = ? AND channel_id = ?",
		userID, channelID).
		Scan(&rec.Token, &rec.GuildID, &rec.ChannelID, &rec.UserID, &rec.Username, &rec.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find record by owner: %w", err)
	}

	return &rec, nil
}

// List returns up to limit token keys in unspecified order.
// Returns empty slice if no tokens exist.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT token FROM tokens LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var tokens []string

	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tokens: %w", err)
	}

	// Return empty slice instead of nil
	if tokens == nil {
		tokens = make([]string, 0)
	}

	return tokens, nil
}

// Delete removes the record for a token. No-op if absent.
func (s *SQLiteStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Replace deletes oldToken and inserts rec in a single transaction, so a
// crash between the two cannot leave zero or two live records for the owner.
func (s *SQLiteStore) Replace(ctx context.Context, oldToken string, rec *Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM tokens WHERE token = ?", oldToken); err != nil {
		return fmt.Errorf("failed to delete old record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tokens (token, guild_id, channel_id, user_id, username, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Token, rec.GuildID, rec.ChannelID, rec.UserID, rec.Username, rec.CreatedAt)
	if err != nil {
		if isConstraintErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert new record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

// PurgeExpired deletes records created before cutoffMs.
// Records without a creation time (created_at = 0) are kept: they predate the
// expiry requirement and are still rejected or accepted at lookup time.
func (s *SQLiteStore) PurgeExpired(ctx context.Context, cutoffMs int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tokens WHERE created_at > 0 AND created_at < ?", cutoffMs)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// Ping verifies the database connection is alive. Used by readiness checks.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isConstraintErr reports whether err is a SQLite constraint violation.
// The extended error code for UNIQUE constraint is 2067; 19 is the base
// constraint error code.
func isConstraintErr(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == 2067 || (sqliteErr.Code()&0xFF) == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
