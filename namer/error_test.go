package namer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-record/namer"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		expected string
	}{
		{err: namer.InvalidNameError{Name: "us/er", Problem: "contains /"}, expected: `invalid name "us/er": contains /`},
		{err: namer.InvalidKeyError{Key: "/x", Problem: "unknown key layout"}, expected: `invalid key "/x": unknown key layout`},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()

			assert.EqualError(t, tc.err, tc.expected)
			require.ErrorIs(t, tc.err, namer.ErrInvalid)
		})
	}
}
