package tkv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarantool/go-tarantool/v2"

	"github.com/tarantool/go-record/driver/tkv"
	"github.com/tarantool/go-record/internal/tarantooltest"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
)

func txnReply(t *testing.T, success bool, revision int64, responses ...[]any) *tarantooltest.Reply {
	t.Helper()

	if responses == nil {
		responses = [][]any{}
	}

	return tarantooltest.NewReply(t, []any{
		map[string]any{
			"data": map[string]any{
				"is_success": success,
				"responses":  responses,
			},
			"revision": revision,
		},
	})
}

func TestDriver_Execute_Get(t *testing.T) {
	t.Parallel()

	doer := tarantooltest.NewDoer(t, txnReply(t, true, 10, []any{
		map[string]any{
			"path":         "/records/user/pk/1",
			"value":        "payload",
			"mod_revision": 4,
		},
	}))

	resp, err := tkv.New(doer).Execute(context.Background(), nil,
		[]operation.Operation{operation.Get([]byte("/records/user/pk/1"))}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Succeeded)

	kv, ok := resp.Single(0)
	require.True(t, ok)
	assert.Equal(t, []byte("/records/user/pk/1"), kv.Key)
	assert.Equal(t, []byte("payload"), kv.Value)
	assert.Equal(t, int64(4), kv.ModRevision)

	requests := doer.Requests()
	require.Len(t, requests, 1)
	assert.IsType(t, &tarantool.CallRequest{}, requests[0]) //nolint:exhaustruct
}

func TestDriver_Execute_PredicateFailed(t *testing.T) {
	t.Parallel()

	doer := tarantooltest.NewDoer(t, txnReply(t, false, 10, []any{}))

	resp, err := tkv.New(doer).Execute(context.Background(),
		[]predicate.Predicate{predicate.Absent([]byte("/records/user/pk/1"))},
		[]operation.Operation{operation.Put([]byte("/records/user/pk/1"), []byte("v"))},
		[]operation.Operation{operation.Get([]byte("/records/user/pk/1"))})
	require.NoError(t, err)
	assert.False(t, resp.Succeeded)
	require.Len(t, resp.Results, 1)
	assert.Empty(t, resp.Results[0].Values)
}

func TestDriver_Execute_Error(t *testing.T) {
	t.Parallel()

	errConn := errors.New("connection is closed")
	doer := tarantooltest.NewDoer(t, errConn)

	_, err := tkv.New(doer).Execute(context.Background(), nil,
		[]operation.Operation{operation.Get([]byte("/k"))}, nil)
	require.ErrorIs(t, err, errConn)
}

func TestDriver_Execute_UnexpectedResponse(t *testing.T) {
	t.Parallel()

	doer := tarantooltest.NewDoer(t, tarantooltest.NewReply(t, []any{}))

	_, err := tkv.New(doer).Execute(context.Background(), nil, nil, nil)
	require.ErrorIs(t, err, tkv.ErrUnexpectedResponse)
}

func TestDriver_Execute_CanceledContext(t *testing.T) {
	t.Parallel()

	doer := tarantooltest.NewDoer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tkv.New(doer).Execute(ctx, nil, nil, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, doer.Requests(), "canceled transactions are not sent")
}
