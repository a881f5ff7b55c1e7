// Package sentinel holds the storage-level error facts that stores return
// (usually wrapped) and services translate into domain errors.
package sentinel

import "errors"

var (
	// ErrNotFound: no registry entry, snapshot or record for the key.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a write lost against a newer version, such as a stale
	// snapshot sequence.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState: the stored value cannot take the requested change.
	ErrInvalidState = errors.New("invalid state")
)
