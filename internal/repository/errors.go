package repository

import "errors"

var (
	// ErrNotFound is returned when a requested trip, account or ledger
	// entry does not exist.
	ErrNotFound = errors.New("entity not found")
)
