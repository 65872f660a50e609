// Package apperr defines the error taxonomy shared across the backend.
package apperr

import "errors"

var (
	// ErrUnauthenticated means the caller carries no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSyncFailure means a live subscription terminated abnormally.
	ErrSyncFailure = errors.New("sync failure")
	// ErrPersistence means a write against the remote store did not complete.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound means a one-shot lookup came back empty.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument means the caller's input was rejected before
	// any store operation ran.
	ErrInvalidArgument = errors.New("invalid argument")
)
