package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFields is returned when a registration is missing required fields.
	ErrMissingFields = errors.New("missing required fields")

	// ErrNotFound is returned when no record exists for a token or owner.
	ErrNotFound = errors.New("token not found")

	// ErrExpired is returned when a record is past its expiry window.
	ErrExpired = errors.New("token expired")

	// ErrMalformed is returned when a stored record lacks a destination channel.
	ErrMalformed = errors.New("malformed token record")

	// ErrDuplicate is returned by the store when an insert violates the token
	// key or the (user, channel) uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
)

// DuplicateError is returned when a live token already exists for the same
// (user, channel) pair. Token identifies the conflicting registration so the
// caller can decide to refresh instead.
type DuplicateError struct {
	Token string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate token for user+channel: %s", e.Token)
}
