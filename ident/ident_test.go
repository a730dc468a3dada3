package ident_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-record/ident"
)

const canonical = "00112233-4455-6677-8899-aabbccddeeff"

var binary = []byte{ //nolint:gochecknoglobals
	0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
	0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []byte
		expected string
		ok       bool
	}{
		{"exact", binary, canonical, true},
		{"trailing bytes ignored", append(bytes.Clone(binary), 0x01, 0x02), canonical, true},
		{"zero", make([]byte, 16), "00000000-0000-0000-0000-000000000000", true},
		{"short", binary[:15], "", false},
		{"empty", []byte{}, "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, ok := ident.Decode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []byte
		ok       bool
	}{
		{"canonical", canonical, binary, true},
		{"upper case", "00112233-4455-6677-8899-AABBCCDDEEFF", binary, true},
		{"no dashes", "00112233445566778899aabbccddeeff", binary, true},
		{"braces", "{" + canonical + "}", binary, true},
		{"urn", "urn:uuid:" + canonical, binary, true},
		{"urn upper case", "URN:UUID:" + canonical, binary, true},
		{"spaced", "0011 2233 4455 6677 8899 aabb ccdd eeff", binary, true},
		{"extra digits ignored", canonical + "0123", binary, true},
		{"31 digits", "00112233-4455-6677-8899-aabbccddeef", nil, false},
		{"garbage", "not an identifier", nil, false},
		{"empty", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, ok := ident.Encode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEncode_Variants(t *testing.T) {
	t.Parallel()

	want, ok := ident.Encode("550e8400-e29b-41d4-a716-446655440000")
	require.True(t, ok)

	for _, variant := range []string{
		"{550E8400-E29B-41D4-A716-446655440000}",
		"urn:uuid:550e8400-e29b-41d4-a716-446655440000",
		"550e8400e29b41d4a716446655440000",
	} {
		got, ok := ident.Encode(variant)
		require.True(t, ok, variant)
		assert.Equal(t, want, got, variant)
	}

	for _, bad := range []string{"not-a-uuid", "1234"} {
		got, ok := ident.Encode(bad)
		assert.False(t, ok, bad)
		assert.Nil(t, got, bad)
	}

	for _, bad := range [][]byte{nil, {1, 2, 3}} {
		got, ok := ident.Decode(bad)
		assert.False(t, ok)
		assert.Empty(t, got)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for range 32 {
		b := ident.New()
		require.Len(t, b, ident.Size)

		s, ok := ident.Decode(b)
		require.True(t, ok)

		back, ok := ident.Encode(s)
		require.True(t, ok)
		assert.Equal(t, b, back, "Encode(Decode(b)) == b")

		again, ok := ident.Decode(back)
		require.True(t, ok)
		assert.Equal(t, s, again, "Decode(Encode(s)) == s for canonical s")
	}
}

func TestEncode_ReturnsFreshSlice(t *testing.T) {
	t.Parallel()

	a := ident.MustEncode(canonical)
	b := ident.MustEncode(canonical)
	a[0] = 0xff

	assert.Equal(t, binary, b)
}

func TestMustEncode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, binary, ident.MustEncode(canonical))
	assert.Panics(t, func() { ident.MustEncode("nope") })
}

func TestNew_Unique(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, ident.New(), ident.New())
}
