package namer

import (
	"errors"
	"fmt"
)

// ErrInvalid matches every InvalidKeyError and InvalidNameError.
var ErrInvalid = errors.New("invalid storage key")

// InvalidKeyError is returned for a key or key part that does not fit the layout.
type InvalidKeyError struct {
	Key     string
	Problem string
}

func (e InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid key %q: %s", e.Key, e.Problem)
}

// Is reports whether target is ErrInvalid.
func (e InvalidKeyError) Is(target error) bool {
	return target == ErrInvalid //nolint:errorlint
}

// InvalidNameError is returned for a table or index name that cannot be
// used as a key segment.
type InvalidNameError struct {
	Name    string
	Problem string
}

func (e InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Problem)
}

// Is reports whether target is ErrInvalid.
func (e InvalidNameError) Is(target error) bool {
	return target == ErrInvalid //nolint:errorlint
}

func errInvalidKey(key, problem string) error {
	return InvalidKeyError{Key: key, Problem: problem}
}

func errInvalidName(name, problem string) error {
	return InvalidNameError{Name: name, Problem: problem}
}
