package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a record's instance id already exists.
	ErrDuplicate = errors.New("record already exists")
)
