package marshaller

import (
	"fmt"
)

// MarshalError is returned when an entity cannot be encoded.
type MarshalError struct {
	Format Format
	parent error
}

// UnmarshalError is returned when stored bytes cannot be decoded.
type UnmarshalError struct {
	Format Format
	parent error
}

func errMarshal(format Format, parent error) error {
	if parent == nil {
		return nil
	}

	return MarshalError{Format: format, parent: parent}
}

func errUnmarshal(format Format, parent error) error {
	if parent == nil {
		return nil
	}

	return UnmarshalError{Format: format, parent: parent}
}

func (e MarshalError) Error() string {
	return fmt.Sprintf("%s: failed to marshal: %s", e.Format, e.parent)
}

// Unwrap returns the encoder error.
func (e MarshalError) Unwrap() error {
	return e.parent
}

func (e UnmarshalError) Error() string {
	return fmt.Sprintf("%s: failed to unmarshal: %s", e.Format, e.parent)
}

// Unwrap returns the decoder error.
func (e UnmarshalError) Unwrap() error {
	return e.parent
}
