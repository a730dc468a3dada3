package marshaller

import (
	"github.com/vmihailenco/msgpack/v5"
)

// TypedMsgpackMarshaller encodes values with msgpack. Struct fields are
// named by their `msgpack` tags, falling back to the Go field name.
type TypedMsgpackMarshaller[T any] struct{}

// NewTypedMsgpackMarshaller creates a new TypedMsgpackMarshaller for the specified type.
func NewTypedMsgpackMarshaller[T any]() TypedMsgpackMarshaller[T] {
	return TypedMsgpackMarshaller[T]{}
}

// Marshal serializes the typed data to msgpack.
func (m TypedMsgpackMarshaller[T]) Marshal(data T) ([]byte, error) {
	marshalled, err := msgpack.Marshal(data)
	if err != nil {
		return nil, errMarshal(FormatMsgpack, err)
	}

	return marshalled, nil
}

// Unmarshal deserializes msgpack data into a typed object.
func (m TypedMsgpackMarshaller[T]) Unmarshal(data []byte) (T, error) {
	var out T

	if err := msgpack.Unmarshal(data, &out); err != nil {
		return zero[T](), errUnmarshal(FormatMsgpack, err)
	}

	return out, nil
}
