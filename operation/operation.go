// Package operation provides types and interfaces for storage operations.
// It defines operation types and configurations used in transactional contexts.
package operation

// Type represents the type of storage operation.
type Type int

const (
	// TypeGet reads a key or every key under a prefix.
	TypeGet Type = iota
	// TypePut stores a value under a key.
	TypePut
	// TypeDelete removes a key or every key under a prefix.
	TypeDelete
)

func (t Type) String() string {
	switch t {
	case TypeGet:
		return "Get"
	case TypePut:
		return "Put"
	case TypeDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Option configures a single operation. It is reserved for driver specific
// extensions and is carried through untouched.
type Option struct{}

// Operation represents a storage operation to be executed.
// This is used within transactions and other operation contexts.
type Operation struct {
	tp      Type
	key     []byte
	value   []byte
	options []Option
}

// Get creates a read operation. A key ending with "/" (or an empty key)
// reads every key under that prefix.
func Get(key []byte, options ...Option) Operation {
	return Operation{
		tp:      TypeGet,
		key:     key,
		value:   nil,
		options: options,
	}
}

// Put creates a write operation that stores value under key.
func Put(key []byte, value []byte, options ...Option) Operation {
	return Operation{
		tp:      TypePut,
		key:     key,
		value:   value,
		options: options,
	}
}

// Delete creates a delete operation. A key ending with "/" deletes
// every key under that prefix.
func Delete(key []byte, options ...Option) Operation {
	return Operation{
		tp:      TypeDelete,
		key:     key,
		value:   nil,
		options: options,
	}
}

// Type returns the operation type (Get, Put, Delete).
func (o Operation) Type() Type {
	return o.tp
}

// Key returns the target key for the operation.
func (o Operation) Key() []byte {
	return o.key
}

// Value returns the data for put operations, nil for get/delete.
func (o Operation) Value() []byte {
	return o.value
}

// Options returns additional operation configuration.
func (o Operation) Options() []Option {
	return o.options
}

// IsPrefix reports whether the operation addresses a key prefix rather than
// a single key.
func (o Operation) IsPrefix() bool {
	return len(o.key) == 0 || o.key[len(o.key)-1] == '/'
}
