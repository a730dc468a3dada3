// Package namer lays out table keys in the flat key space of a driver.
//
//	<prefix><table>/pk/<key>
//	<prefix><table>/ix/<index>/<part>,<part>...
//
// Every variable segment is path-escaped, so a segment never contains "/"
// or "," and a key never ends with "/" (which drivers treat as a prefix).
package namer

import (
	"net/url"
	"strings"
)

// DefaultPrefix is the root of every table unless configured otherwise.
const DefaultPrefix = "/records/"

const (
	primarySegment = "pk"
	indexSegment   = "ix"
	partSeparator  = ","
)

// Namer represents keys naming strategy.
type Namer interface {
	PrimaryKey(table, key string) (string, error)
	IndexKey(table, index string, parts []string) (string, error)
	TablePrefix(table string) (string, error)
	PrimaryPrefix(table string) (string, error)
	ParseKey(raw string) (Key, error)
}

// DefaultNamer represents default namer.
type DefaultNamer struct {
	prefix string
}

var _ Namer = (*DefaultNamer)(nil)

// NewDefaultNamer returns new DefaultNamer object. The prefix always ends
// with "/"; an empty prefix selects DefaultPrefix.
func NewDefaultNamer(prefix string) *DefaultNamer {
	switch {
	case prefix == "":
		prefix = DefaultPrefix
	case !strings.HasSuffix(prefix, "/"):
		prefix += "/"
	}

	return &DefaultNamer{
		prefix: prefix,
	}
}

// Prefix returns the root shared by all tables.
func (n *DefaultNamer) Prefix() string {
	return n.prefix
}

func validateName(name string) error {
	switch {
	case name == "":
		return errInvalidName(name, "must not be empty")
	case strings.ContainsAny(name, "/,"):
		return errInvalidName(name, "must not contain '/' or ','")
	}

	return nil
}

// TablePrefix returns the prefix shared by every key of table, ending with "/".
func (n *DefaultNamer) TablePrefix(table string) (string, error) {
	if err := validateName(table); err != nil {
		return "", err
	}

	return n.prefix + table + "/", nil
}

// PrimaryPrefix returns the prefix of every entity key of table.
func (n *DefaultNamer) PrimaryPrefix(table string) (string, error) {
	base, err := n.TablePrefix(table)
	if err != nil {
		return "", err
	}

	return base + primarySegment + "/", nil
}

// PrimaryKey returns the storage key of an entity.
func (n *DefaultNamer) PrimaryKey(table, key string) (string, error) {
	base, err := n.PrimaryPrefix(table)
	if err != nil {
		return "", err
	}

	if key == "" {
		return "", errInvalidKey(key, "must not be empty")
	}

	return base + url.PathEscape(key), nil
}

// IndexKey returns the storage key of a unique index entry.
func (n *DefaultNamer) IndexKey(table, index string, parts []string) (string, error) {
	base, err := n.TablePrefix(table)
	if err != nil {
		return "", err
	}

	if err := validateName(index); err != nil {
		return "", err
	}

	if len(parts) == 0 {
		return "", errInvalidKey("", "index key needs at least one part")
	}

	escaped := make([]string, len(parts))
	for i, part := range parts {
		if part == "" {
			return "", errInvalidKey(strings.Join(parts, partSeparator), "index key parts must not be empty")
		}

		escaped[i] = url.PathEscape(part)
	}

	return base + indexSegment + "/" + index + "/" + strings.Join(escaped, partSeparator), nil
}

// ParseKey is the inverse of PrimaryKey and IndexKey.
func (n *DefaultNamer) ParseKey(raw string) (Key, error) {
	rest, ok := strings.CutPrefix(raw, n.prefix)
	if !ok {
		return Key{}, errInvalidKey(raw, "outside of prefix "+n.prefix)
	}

	segments := strings.Split(rest, "/")

	switch {
	case len(segments) == 3 && segments[1] == primarySegment:
		key, err := url.PathUnescape(segments[2])
		if err != nil || key == "" {
			return Key{}, errInvalidKey(raw, "malformed primary key")
		}

		return Key{
			Table: segments[0],
			Type:  KeyTypePrimary,
			Index: "",
			Parts: []string{key},
			Raw:   raw,
		}, nil
	case len(segments) == 4 && segments[1] == indexSegment:
		escaped := strings.Split(segments[3], partSeparator)
		parts := make([]string, len(escaped))

		for i, part := range escaped {
			var err error
			if parts[i], err = url.PathUnescape(part); err != nil || parts[i] == "" {
				return Key{}, errInvalidKey(raw, "malformed index key")
			}
		}

		return Key{
			Table: segments[0],
			Type:  KeyTypeIndex,
			Index: segments[2],
			Parts: parts,
			Raw:   raw,
		}, nil
	default:
		return Key{}, errInvalidKey(raw, "unknown key layout")
	}
}
