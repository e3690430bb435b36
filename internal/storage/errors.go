package storage

import "errors"

var (
	// ErrConflict is returned when creating a restriction for a member who
	// already has an active one.
	ErrConflict = errors.New("member already has an active restriction")

	// ErrNotFound is returned when closing a restriction that does not exist.
	ErrNotFound = errors.New("no active restriction for member")
)
