package tx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tarantool/go-record/kv"
	"github.com/tarantool/go-record/tx"
)

func TestResponse_Single(t *testing.T) {
	t.Parallel()

	first := kv.KeyValue{Key: []byte("a"), Value: []byte("1"), ModRevision: 2}
	resp := tx.Response{
		Succeeded: true,
		Results: []tx.RequestResponse{
			{Values: []kv.KeyValue{first}},
			{Values: nil},
		},
	}

	got, ok := resp.Single(0)
	assert.True(t, ok)
	assert.Equal(t, first, got)

	_, ok = resp.Single(1)
	assert.False(t, ok, "empty result has no single value")

	_, ok = resp.Single(5)
	assert.False(t, ok, "out of range index")

	_, ok = resp.Single(-1)
	assert.False(t, ok, "negative index")
}

func TestResponse_Flatten(t *testing.T) {
	t.Parallel()

	resp := tx.Response{
		Succeeded: true,
		Results: []tx.RequestResponse{
			{Values: []kv.KeyValue{{Key: []byte("a")}, {Key: []byte("b")}}},
			{Values: nil},
			{Values: []kv.KeyValue{{Key: []byte("c")}}},
		},
	}

	flat := resp.Flatten()
	assert.Len(t, flat, 3)
	assert.Equal(t, []byte("c"), flat[2].Key)
}
