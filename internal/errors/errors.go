package errors

import (
	"errors"
	"fmt"
)

// Repository level errors shared by every storage backend
var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key (such as an email) is taken
	ErrAlreadyExists = errors.New("already exists")
	// ErrStale is returned when a conditional write lost to a concurrent writer
	ErrStale = errors.New("stale write")
	// ErrUnsupported is returned for a backend name the process does not know
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
