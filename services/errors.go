package services

import "errors"

var (
	// ErrForbidden means the snapshot lacks the capability for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the target row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the input fails a domain rule. Wrap it with the
	// specific rule so handlers can surface the message.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate means an equivalent listing already exists.
	ErrDuplicate = errors.New("duplicate listing")
)
