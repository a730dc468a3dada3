package namer

import (
	"fmt"
)

// KeyType represents key types.
type KeyType int

const (
	// KeyTypePrimary addresses a stored entity.
	KeyTypePrimary KeyType = iota + 1
	// KeyTypeIndex addresses a unique index entry holding a primary key.
	KeyTypeIndex
)

func (t KeyType) String() string {
	switch t {
	case KeyTypePrimary:
		return "KeyTypePrimary"
	case KeyTypeIndex:
		return "KeyTypeIndex"
	default:
		return fmt.Sprintf("KeyType[%d]", int(t))
	}
}

// Key is a parsed storage key.
type Key struct {
	Table string  // Table name.
	Type  KeyType // Primary or index entry.
	Index string  // Index name, empty for primary keys.
	Parts []string
	Raw   string // Storage key as written.
}

// String returns the storage key.
func (k Key) String() string {
	return k.Raw
}
