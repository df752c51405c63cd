package errors

import (
	"github.com/gostdlib/base/errors"
)

// Callers compare against the sentinels in this package, so the chain helpers live
// here too and no file needs a second errors import.

// New returns an error with the message text.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether err or anything it wraps matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As sets target to the first error in err's chain assignable to it.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the error err wraps, or nil.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join wraps every non-nil error in errs. It returns nil if there are none.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
