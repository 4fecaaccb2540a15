package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Caller-contract errors. These are the only failures the statistical
	// core surfaces; degenerate data degrades to fallback values instead.
	ErrUnknownDimension = errors.New("unknown dimension")

	// Data loading errors
	ErrNoData          = errors.New("record set is empty")
	ErrUnreadableFile  = errors.New("data file unreadable")
	ErrColumnNotFound  = errors.New("mapped column not found")
	ErrUnsupportedFile = errors.New("unsupported data file type")
)

// NewUnknownDimensionError reports a dimension name outside the recognized set
func NewUnknownDimensionError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownDimension, name)
}

// NewColumnError reports a mapped column missing from the data file header
func NewColumnError(column string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
}

// IsCallerError reports whether err is a programming-contract violation
// rather than a data condition.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrUnknownDimension)
}
