// Package sentinel holds the storage facts shared by every store. Stores
// return them, possibly wrapped, and services map them to domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound means no record has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the id or a unique key (user email) is taken.
	ErrConflict = errors.New("conflict")
)
