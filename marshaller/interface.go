// Package marshaller converts entities to and from their stored bytes.
package marshaller

import (
	"errors"
	"fmt"
)

// TypedMarshaller is a generic interface for typed marshalling operations.
type TypedMarshaller[T any] interface {
	Marshal(data T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// Format names an encoding supported by New.
type Format string

const (
	// FormatMsgpack is the compact binary default.
	FormatMsgpack Format = "msgpack"
	// FormatYAML is human readable and handy when inspecting a store by hand.
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned by New for formats it does not implement.
var ErrUnknownFormat = errors.New("unknown marshaller format")

// Validate returns ErrUnknownFormat for formats New does not implement.
func (f Format) Validate() error {
	switch f {
	case "", FormatMsgpack, FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// New returns the typed marshaller for format. An empty format selects msgpack.
func New[T any](format Format) (TypedMarshaller[T], error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	if format == FormatYAML {
		return NewTypedYamlMarshaller[T](), nil
	}

	return NewTypedMsgpackMarshaller[T](), nil
}

func zero[T any]() T {
	var out T
	return out
}
