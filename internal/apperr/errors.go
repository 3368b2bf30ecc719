// Package apperr defines the sentinel errors shared across the bridge.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrStructural marks embedded data that cannot be represented in the
	// target shape (malformed structured trait, malformed wire sub-object).
	ErrStructural = errors.New("structural error")

	ErrInvalidWire      = errors.New("invalid wire document")
	ErrUnsupported      = errors.New("unsupported")
	ErrUnknownProperty  = errors.New("unknown property")
	ErrConversionFailed = errors.New("conversion failed")
)
