// Package fault defines the error taxonomy shared across the service.
// Components wrap these sentinels with fmt.Errorf("...: %w", ...) and
// callers branch with errors.Is.
package fault

import "errors"

var (
	// ErrValidation marks malformed input: missing fields, bad email
	// shape, empty labels.
	ErrValidation = errors.New("validation failed")

	// ErrCapacity marks a rejected attempt to exceed a tier or core limit.
	ErrCapacity = errors.New("capacity exceeded")

	// ErrNotFound marks an unknown session, selection or share slug.
	ErrNotFound = errors.New("not found")

	// ErrPersistence marks a store read/write failure.
	ErrPersistence = errors.New("persistence failure")

	// ErrDelivery marks an email provider failure.
	ErrDelivery = errors.New("delivery failure")

	// ErrRender marks a document generation failure.
	ErrRender = errors.New("render failure")
)
