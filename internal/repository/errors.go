package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("entity already exists")

	// ErrOverlap is returned when a booking window collides with an existing one.
	ErrOverlap = errors.New("booking window overlaps an existing booking")

	// ErrReferenced is returned when deleting an entity other rows still point at.
	ErrReferenced = errors.New("entity is still referenced")

	// ErrStaleState is returned when a conditional update finds the row in an unexpected state.
	ErrStaleState = errors.New("entity state changed concurrently")
)
