package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-record"
	"github.com/tarantool/go-record/driver/dummy"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
	"github.com/tarantool/go-record/tx"
)

// recordingDriver remembers the last Execute call and replies with a canned response.
type recordingDriver struct {
	mu         sync.Mutex
	predicates []predicate.Predicate
	thenOps    []operation.Operation
	elseOps    []operation.Operation
	calls      int

	response tx.Response
	err      error
}

func (d *recordingDriver) Execute(
	_ context.Context,
	predicates []predicate.Predicate,
	thenOps []operation.Operation,
	elseOps []operation.Operation,
) (tx.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	d.predicates = predicates
	d.thenOps = thenOps
	d.elseOps = elseOps

	return d.response, d.err
}

func TestStorage_Tx(t *testing.T) {
	t.Parallel()

	strg := storage.NewStorage(&recordingDriver{})

	assert.NotNil(t, strg.Tx(context.Background()))
}

func TestTx_Builder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	strg := storage.NewStorage(&recordingDriver{})

	txInstance := strg.Tx(ctx)
	pred := predicate.ValueEqual([]byte("key1"), "value1")

	assert.Equal(t, txInstance, txInstance.If(pred), "If should return the same tx instance")
	assert.Equal(t, txInstance, txInstance.Then(operation.Put([]byte("key1"), []byte("v"))),
		"Then should return the same tx instance")
	assert.Equal(t, txInstance, txInstance.Else(operation.Delete([]byte("key1"))),
		"Else should return the same tx instance")
}

func TestTx_Commit_Success(t *testing.T) {
	t.Parallel()

	expectedResponse := tx.Response{
		Succeeded: true,
		Results:   []tx.RequestResponse{},
	}
	drv := &recordingDriver{response: expectedResponse}
	strg := storage.NewStorage(drv)

	pred := predicate.ValueEqual([]byte("key"), "value")
	thenOp := operation.Put([]byte("key"), []byte("new-value"))
	elseOp := operation.Delete([]byte("key"))

	resp, err := strg.Tx(context.Background()).If(pred).Then(thenOp).Else(elseOp).Commit()
	require.NoError(t, err)
	assert.Equal(t, expectedResponse, resp)

	assert.Equal(t, 1, drv.calls)
	assert.Equal(t, []predicate.Predicate{pred}, drv.predicates)
	assert.Equal(t, []operation.Operation{thenOp}, drv.thenOps)
	assert.Equal(t, []operation.Operation{elseOp}, drv.elseOps)
}

func TestTx_Commit_Error(t *testing.T) {
	t.Parallel()

	drv := &recordingDriver{err: errors.New("driver execution failed")}
	strg := storage.NewStorage(drv)

	resp, err := strg.Tx(context.Background()).
		If(predicate.ValueEqual([]byte("key"), "value")).
		Then(operation.Put([]byte("key"), []byte("new-value"))).
		Commit()

	require.EqualError(t, err, "tx execute failed: driver execution failed")
	assert.False(t, resp.Succeeded)
	assert.Nil(t, resp.Results)
	assert.Nil(t, drv.elseOps, "unset Else passes nil operations")
}

func TestTx_Commit_NoOperations(t *testing.T) {
	t.Parallel()

	drv := &recordingDriver{response: tx.Response{Succeeded: true, Results: nil}}
	strg := storage.NewStorage(drv)

	resp, err := strg.Tx(context.Background()).Commit()
	require.NoError(t, err)
	assert.True(t, resp.Succeeded)
	assert.Nil(t, drv.predicates)
	assert.Nil(t, drv.thenOps)
}

func TestTx_DoubleCall(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	strg := storage.NewStorage(&recordingDriver{})

	t.Run("if", func(t *testing.T) {
		t.Parallel()

		require.Panics(t, func() {
			_ = strg.Tx(ctx).
				If(predicate.ValueEqual([]byte("key1"), "value1")).
				If(predicate.ValueEqual([]byte("key2"), "value2"))
		})
	})

	t.Run("then", func(t *testing.T) {
		t.Parallel()

		require.Panics(t, func() {
			_ = strg.Tx(ctx).
				Then(operation.Put([]byte("key1"), []byte("new-value1"))).
				Then(operation.Put([]byte("key2"), []byte("new-value2")))
		})
	})

	t.Run("else", func(t *testing.T) {
		t.Parallel()

		require.Panics(t, func() {
			_ = strg.Tx(ctx).
				Else(operation.Delete([]byte("key1"))).
				Else(operation.Delete([]byte("key2")))
		})
	})
}

func TestTx_OrderValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	strg := storage.NewStorage(&recordingDriver{})

	pred := predicate.ValueEqual([]byte("key"), "value")
	thenOp := operation.Put([]byte("key"), []byte("new-value"))
	elseOp := operation.Delete([]byte("key"))

	t.Run("if after then", func(t *testing.T) {
		t.Parallel()

		require.Panics(t, func() { _ = strg.Tx(ctx).Then(thenOp).If(pred) })
	})

	t.Run("if after else", func(t *testing.T) {
		t.Parallel()

		require.Panics(t, func() { _ = strg.Tx(ctx).Else(elseOp).If(pred) })
	})

	t.Run("then after else", func(t *testing.T) {
		t.Parallel()

		require.Panics(t, func() { _ = strg.Tx(ctx).Else(elseOp).Then(thenOp) })
	})

	t.Run("if-then-else", func(t *testing.T) {
		t.Parallel()

		require.NotPanics(t, func() { _ = strg.Tx(ctx).If(pred).Then(thenOp).Else(elseOp) })
	})

	t.Run("then-else", func(t *testing.T) {
		t.Parallel()

		require.NotPanics(t, func() { _ = strg.Tx(ctx).Then(thenOp).Else(elseOp) })
	})
}

func TestStorage_Range(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	strg := storage.NewStorage(dummy.New())

	_, err := strg.Tx(ctx).Then(
		operation.Put([]byte("/records/user/pk/b"), []byte("2")),
		operation.Put([]byte("/records/user/pk/a"), []byte("1")),
		operation.Put([]byte("/records/user/pk/c"), []byte("3")),
		operation.Put([]byte("/records/tenant/pk/x"), []byte("x")),
	).Commit()
	require.NoError(t, err)

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()

		kvs, err := strg.Range(ctx, storage.WithPrefix("/records/user/pk"))
		require.NoError(t, err)
		require.Len(t, kvs, 3)
		assert.Equal(t, []byte("/records/user/pk/a"), kvs[0].Key, "results are ordered by key")
		assert.Equal(t, []byte("/records/user/pk/c"), kvs[2].Key)
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		kvs, err := strg.Range(ctx, storage.WithPrefix("/records/"), storage.WithLimit(2))
		require.NoError(t, err)
		require.Len(t, kvs, 2)
		assert.Equal(t, []byte("/records/tenant/pk/x"), kvs[0].Key)
	})

	t.Run("everything", func(t *testing.T) {
		t.Parallel()

		kvs, err := strg.Range(ctx)
		require.NoError(t, err)
		assert.Len(t, kvs, 4)
	})
}
