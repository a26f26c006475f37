package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalid        = errors.New("invalid")
	ErrConflict       = errors.New("conflict")
	ErrTooMany        = errors.New("too many requests")
	ErrInternal       = errors.New("internal")
	ErrHybridDisabled = errors.New("hybrid search is not enabled")
)

// Input-class errors wrap ErrInvalid so callers can classify them without
// matching each one.
var (
	ErrEmptyDocument   = fmt.Errorf("document is empty after cleaning: %w", ErrInvalid)
	ErrUnsupportedType = fmt.Errorf("unsupported file type: %w", ErrInvalid)
	ErrFileTooLarge    = fmt.Errorf("file too large: %w", ErrInvalid)
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
