package record

import (
	"strings"

	"github.com/tarantool/go-record/ident"
)

// Query selects one record by primary key or by a unique index.
type Query struct {
	index string
	parts []string
}

// ByKey selects a record by its primary storage key. The key is used
// verbatim; identifier keys must be canonical, see ByIdent.
func ByKey(key string) Query {
	return Query{index: "", parts: []string{key}}
}

// ByIdent selects a record keyed by a 128-bit identifier. The identifier is
// accepted in any form ident.Encode understands and normalized to the
// canonical key. An identifier that does not parse is passed through as is.
func ByIdent(id string) Query {
	if b, ok := ident.Encode(id); ok {
		if key, ok := ident.Decode(b); ok {
			id = key
		}
	}

	return ByKey(id)
}

// ByIndex selects a record by the parts of a unique index key.
func ByIndex(name string, parts ...string) Query {
	return Query{index: name, parts: parts}
}

// Index returns the index name, empty for primary key queries.
func (q Query) Index() string {
	return q.index
}

// Parts returns the key parts.
func (q Query) Parts() []string {
	return q.parts
}

func (q Query) String() string {
	if q.index == "" {
		return "key " + strings.Join(q.parts, ",")
	}

	return q.index + " " + strings.Join(q.parts, ",")
}
