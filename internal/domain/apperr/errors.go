// Package apperr defines the error taxonomy shared across the application.
// Callers classify failures with errors.Is against these sentinels; layers
// add context by wrapping with %w.
package apperr

import "errors"

var (
	// ErrValidation marks input that was rejected before any persistence
	// occurred (empty item list after deletions, amount over the cap).
	ErrValidation = errors.New("validation failed")

	// ErrPermissionDenied marks an action disallowed for the acting
	// principal's role and the report's current status. Checked before any
	// mutation; a denied action has no partial effects.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound marks a lookup for a report that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPersistence marks a storage failure during a save. Prior writes in
	// the same save are covered by the surrounding transaction.
	ErrPersistence = errors.New("persistence failure")
)
