package errors

import (
	"errors"
	"fmt"
)

var (
	// Static error for unexpected type.
	ErrorUnexpectedType = errors.New("unexpected type")
	// Static error for a value that was expected in the request context.
	ErrorMissingContextValue = errors.New("missing context value")
)

// WrapUnexpectedType wraps the error for unexpected type.
func WrapUnexpectedType(expected string, actual interface{}) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrorUnexpectedType, expected, actual)
}

// WrapMissingContextValue wraps the error for a missing context value.
func WrapMissingContextValue(name string) error {
	return fmt.Errorf("%w: %s", ErrorMissingContextValue, name)
}
