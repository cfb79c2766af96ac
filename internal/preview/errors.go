package preview

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is matched by every *OptionError.
var ErrInvalidOptions = errors.New("invalid render options")

// ErrInvalidRequest is returned when a render request body is malformed.
var ErrInvalidRequest = errors.New("invalid render request")

// OptionError describes a field of a render request with the wrong shape.
type OptionError struct {
	Field string
	Err   error
}

func (e *OptionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid render options: %v", e.Err)
	}
	return fmt.Sprintf("invalid render option %q: %v", e.Field, e.Err)
}

func (e *OptionError) Unwrap() error { return e.Err }

// Is allows comparison with ErrInvalidOptions.
func (e *OptionError) Is(target error) bool {
	if target == ErrInvalidOptions {
		return true
	}
	_, ok := target.(*OptionError)
	return ok
}

func newOptionError(field string, err error) *OptionError {
	return &OptionError{Field: field, Err: err}
}
