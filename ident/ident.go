// Package ident converts 128-bit identifiers between their 16-byte binary
// form and the canonical lowercase 8-4-4-4-12 hexadecimal text.
//
// Both directions are tolerant: Decode ignores bytes past the 16th and
// Encode skips every non-hex character, so "{0011...}", "urn:uuid:0011..."
// or a bare 32 digit string parse the same as the canonical form.
package ident

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// Size is the length of a binary identifier.
	Size = 16

	hexDigits = 2 * Size
	urnPrefix = "urn:uuid:"
)

// Decode formats the first 16 bytes of b. It fails on shorter input.
func Decode(b []byte) (string, bool) {
	if len(b) < Size {
		return "", false
	}

	var id uuid.UUID

	copy(id[:], b[:Size])

	return id.String(), true
}

// Encode parses the first 32 hexadecimal digits of s, ignoring every other
// character. It fails when s holds fewer than 32 digits.
func Encode(s string) ([]byte, bool) {
	// The "d" of the URN namespace is a hex digit itself.
	if len(s) >= len(urnPrefix) && strings.EqualFold(s[:len(urnPrefix)], urnPrefix) {
		s = s[len(urnPrefix):]
	}

	var digits strings.Builder

	digits.Grow(hexDigits)

	for _, r := range s {
		if !isHex(r) {
			continue
		}

		digits.WriteRune(r)

		if digits.Len() == hexDigits {
			break
		}
	}

	if digits.Len() < hexDigits {
		return nil, false
	}

	id, err := uuid.Parse(digits.String())
	if err != nil {
		return nil, false
	}

	out := make([]byte, Size)
	copy(out, id[:])

	return out, true
}

// MustEncode is like Encode but panics on malformed input.
// Use it for constants and tests.
func MustEncode(s string) []byte {
	b, ok := Encode(s)
	if !ok {
		panic("ident: malformed identifier " + s)
	}

	return b
}

// New returns a random (version 4) identifier.
func New() []byte {
	id := uuid.New()

	out := make([]byte, Size)
	copy(out, id[:])

	return out
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
