package record

import (
	"github.com/tarantool/go-record/ident"
)

// Shape converts between a record and its storable entity.
// Name identifies the table and must be unique within one storage.
type Shape[R, E any] interface {
	Name() string
	// Dehydrate returns the primary storage key and the entity of r.
	// It must not modify r.
	Dehydrate(r R) (key string, entity E, err error)
	// Hydrate restores a record from a stored entity.
	Hydrate(entity E) (R, error)
}

// Versioned is implemented by shapes whose records carry a version marker.
// CompareVersion returns a negative number when a is older than b, zero when
// both versions are equal and a positive number otherwise. It is only called
// for entities of the same identity.
type Versioned[E any] interface {
	CompareVersion(a, b E) int
}

// Cloner is implemented by shapes whose Dehydrate needs a private copy.
type Cloner[R any] interface {
	Clone(r R) R
}

// Index declares a unique secondary index. Key returns the parts of the
// index key of an entity; an empty result, or one with an empty part,
// means the entity is not indexed.
type Index[E any] struct {
	Name string
	Key  func(entity E) []string
}

// Indexed is implemented by shapes that declare unique secondary indexes.
type Indexed[E any] interface {
	Indexes() []Index[E]
}

// Funcs assembles a shape from plain functions.
// Encode and Decode are required; Compare, Copy and Unique are optional.
type Funcs[R, E any] struct {
	Table   string
	Encode  func(r R) (string, E, error)
	Decode  func(entity E) (R, error)
	Compare func(a, b E) int
	Copy    func(r R) R
	Unique  []Index[E]
}

// Name implements Shape.
func (f Funcs[R, E]) Name() string {
	return f.Table
}

// Dehydrate implements Shape.
func (f Funcs[R, E]) Dehydrate(r R) (string, E, error) {
	return f.Encode(r)
}

// Hydrate implements Shape.
func (f Funcs[R, E]) Hydrate(entity E) (R, error) {
	return f.Decode(entity)
}

// CompareVersion implements Versioned. It only takes effect when Compare is set.
func (f Funcs[R, E]) CompareVersion(a, b E) int {
	if f.Compare == nil {
		return -1
	}

	return f.Compare(a, b)
}

// Clone implements Cloner.
func (f Funcs[R, E]) Clone(r R) R {
	if f.Copy == nil {
		return r
	}

	return f.Copy(r)
}

// Indexes implements Indexed.
func (f Funcs[R, E]) Indexes() []Index[E] {
	return f.Unique
}

func (f Funcs[R, E]) versioned() bool {
	return f.Compare != nil
}

func (f Funcs[R, E]) validate() {
	if f.Encode == nil || f.Decode == nil {
		panic("record: Funcs." + missingFunc(f.Encode == nil) + " is required for table " + f.Table)
	}
}

func missingFunc(encode bool) string {
	if encode {
		return "Encode"
	}

	return "Decode"
}

// IdentKey formats a binary identifier as a storage key. Shapes keyed by
// identifiers call it from Dehydrate.
func IdentKey(b []byte) (string, error) {
	key, ok := ident.Decode(b)
	if !ok {
		return "", newError("", ErrInvalidKey, nil, "identifier must hold 16 bytes, got %d", len(b))
	}

	return key, nil
}
