// Package drivertest holds the behaviour every driver.Driver must share.
// Driver packages run it from their tests against a fresh engine.
package drivertest

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-record/driver"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
)

// Opener returns a ready driver. Cleanup must be registered on t.
type Opener func(t *testing.T) driver.Driver

// testKey builds a key unique to the running test, so that shared remote
// engines do not see crosstalk between tests.
func testKey(t *testing.T, name string) []byte {
	t.Helper()

	return []byte("/drivertest/" + t.Name() + "/" + name)
}

func testPrefix(t *testing.T) []byte {
	t.Helper()

	return []byte("/drivertest/" + t.Name() + "/")
}

func put(ctx context.Context, t *testing.T, drv driver.Driver, key []byte, value string) {
	t.Helper()

	_, err := drv.Execute(ctx, nil, []operation.Operation{operation.Put(key, []byte(value))}, nil)
	require.NoError(t, err)
}

func getRevision(ctx context.Context, t *testing.T, drv driver.Driver, key []byte) int64 {
	t.Helper()

	resp, err := drv.Execute(ctx, nil, []operation.Operation{operation.Get(key)}, nil)
	require.NoError(t, err)

	kv, ok := resp.Single(0)
	if !ok {
		return 0
	}

	return kv.ModRevision
}

// Run executes the shared driver behaviour tests.
func Run(t *testing.T, open Opener) { //nolint:maintidx
	t.Helper()

	ctx := context.Background()

	t.Run("PutGet", func(t *testing.T) {
		drv := open(t)
		key := testKey(t, "key")

		resp, err := drv.Execute(ctx, nil, []operation.Operation{
			operation.Put(key, []byte("value")),
		}, nil)
		require.NoError(t, err)
		assert.True(t, resp.Succeeded)
		require.Len(t, resp.Results, 1, "TX should return one result")
		assert.Empty(t, resp.Results[0].Values, "Put operation should not return any values")

		resp, err = drv.Execute(ctx, nil, []operation.Operation{operation.Get(key)}, nil)
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		require.Len(t, resp.Results[0].Values, 1)
		assert.Equal(t, key, resp.Results[0].Values[0].Key)
		assert.Equal(t, []byte("value"), resp.Results[0].Values[0].Value)
		assert.Positive(t, resp.Results[0].Values[0].ModRevision)
	})

	t.Run("GetMissing", func(t *testing.T) {
		drv := open(t)

		resp, err := drv.Execute(ctx, nil, []operation.Operation{
			operation.Get(testKey(t, "missing")),
		}, nil)
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		assert.Empty(t, resp.Results[0].Values)
	})

	t.Run("DeleteReturnsPrevious", func(t *testing.T) {
		drv := open(t)
		key := testKey(t, "key")
		put(ctx, t, drv, key, "value")

		resp, err := drv.Execute(ctx, nil, []operation.Operation{operation.Delete(key)}, nil)
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		require.Len(t, resp.Results[0].Values, 1)
		assert.Equal(t, []byte("value"), resp.Results[0].Values[0].Value)

		assert.Zero(t, getRevision(ctx, t, drv, key), "deleted key reads as absent")
	})

	t.Run("Prefix", func(t *testing.T) {
		drv := open(t)
		prefix := testPrefix(t)

		put(ctx, t, drv, testKey(t, "b"), "2")
		put(ctx, t, drv, testKey(t, "a"), "1")
		put(ctx, t, drv, testKey(t, "c"), "3")

		resp, err := drv.Execute(ctx, nil, []operation.Operation{operation.Get(prefix)}, nil)
		require.NoError(t, err)
		require.Len(t, resp.Results, 1)
		require.Len(t, resp.Results[0].Values, 3)
		assert.Equal(t, testKey(t, "a"), resp.Results[0].Values[0].Key, "prefix reads are ordered by key")
		assert.Equal(t, testKey(t, "c"), resp.Results[0].Values[2].Key)

		resp, err = drv.Execute(ctx, nil, []operation.Operation{operation.Delete(prefix)}, nil)
		require.NoError(t, err)
		assert.Len(t, resp.Results[0].Values, 3)

		resp, err = drv.Execute(ctx, nil, []operation.Operation{operation.Get(prefix)}, nil)
		require.NoError(t, err)
		assert.Empty(t, resp.Results[0].Values)
	})

	t.Run("AbsentPredicate", func(t *testing.T) {
		drv := open(t)
		key := testKey(t, "key")

		resp, err := drv.Execute(ctx,
			[]predicate.Predicate{predicate.Absent(key)},
			[]operation.Operation{operation.Put(key, []byte("first"))},
			nil)
		require.NoError(t, err)
		assert.True(t, resp.Succeeded, "missing key has revision 0")

		resp, err = drv.Execute(ctx,
			[]predicate.Predicate{predicate.Absent(key)},
			[]operation.Operation{operation.Put(key, []byte("second"))},
			[]operation.Operation{operation.Get(key)})
		require.NoError(t, err)
		assert.False(t, resp.Succeeded)

		kv, ok := resp.Single(0)
		require.True(t, ok, "else branch runs on failed predicates")
		assert.Equal(t, []byte("first"), kv.Value)
	})

	t.Run("UnchangedPredicate", func(t *testing.T) {
		drv := open(t)
		key := testKey(t, "key")
		put(ctx, t, drv, key, "v1")

		rev := getRevision(ctx, t, drv, key)
		require.Positive(t, rev)

		resp, err := drv.Execute(ctx,
			[]predicate.Predicate{predicate.Unchanged(key, rev)},
			[]operation.Operation{operation.Put(key, []byte("v2"))},
			nil)
		require.NoError(t, err)
		assert.True(t, resp.Succeeded)

		newRev := getRevision(ctx, t, drv, key)
		assert.Greater(t, newRev, rev, "writes move the revision forward")

		resp, err = drv.Execute(ctx,
			[]predicate.Predicate{predicate.Unchanged(key, rev)},
			[]operation.Operation{operation.Put(key, []byte("v3"))},
			nil)
		require.NoError(t, err)
		assert.False(t, resp.Succeeded, "stale revision must not match")

		resp, err = drv.Execute(ctx,
			[]predicate.Predicate{predicate.VersionGreater(key, rev), predicate.VersionLess(key, newRev+1)},
			nil, nil)
		require.NoError(t, err)
		assert.True(t, resp.Succeeded)
	})

	t.Run("ValuePredicates", func(t *testing.T) {
		drv := open(t)
		key := testKey(t, "key")
		put(ctx, t, drv, key, "value")

		resp, err := drv.Execute(ctx,
			[]predicate.Predicate{predicate.ValueEqual(key, []byte("value"))}, nil, nil)
		require.NoError(t, err)
		assert.True(t, resp.Succeeded)

		resp, err = drv.Execute(ctx,
			[]predicate.Predicate{predicate.ValueNotEqual(key, []byte("value"))}, nil, nil)
		require.NoError(t, err)
		assert.False(t, resp.Succeeded)

		resp, err = drv.Execute(ctx,
			[]predicate.Predicate{predicate.ValueEqual(key, []byte("other"))}, nil, nil)
		require.NoError(t, err)
		assert.False(t, resp.Succeeded)
	})

	t.Run("MultipleOperations", func(t *testing.T) {
		drv := open(t)
		k1, k2 := testKey(t, "k1"), testKey(t, "k2")
		put(ctx, t, drv, k2, "2")

		resp, err := drv.Execute(ctx, nil, []operation.Operation{
			operation.Put(k1, []byte("1")),
			operation.Get(k1),
			operation.Delete(k2),
			operation.Get(k2),
		}, nil)
		require.NoError(t, err)
		require.Len(t, resp.Results, 4)

		kv, ok := resp.Single(1)
		require.True(t, ok, "reads observe earlier writes of the same transaction")
		assert.Equal(t, []byte("1"), kv.Value)

		_, ok = resp.Single(3)
		assert.False(t, ok)

		assert.Equal(t, getRevision(ctx, t, drv, k1), kv.ModRevision)
	})

	t.Run("ConcurrentCompareAndSwap", func(t *testing.T) {
		drv := open(t)
		key := testKey(t, "counter")

		const workers = 8

		var wg sync.WaitGroup

		for range workers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				for {
					resp, err := drv.Execute(ctx, nil, []operation.Operation{operation.Get(key)}, nil)
					if !assert.NoError(t, err) {
						return
					}

					var (
						current int
						rev     int64
					)

					if kv, ok := resp.Single(0); ok {
						current, err = strconv.Atoi(string(kv.Value))
						if !assert.NoError(t, err) {
							return
						}

						rev = kv.ModRevision
					}

					resp, err = drv.Execute(ctx,
						[]predicate.Predicate{predicate.Unchanged(key, rev)},
						[]operation.Operation{operation.Put(key, []byte(strconv.Itoa(current+1)))},
						nil)
					if !assert.NoError(t, err) {
						return
					}

					if resp.Succeeded {
						return
					}
				}
			}()
		}

		wg.Wait()

		resp, err := drv.Execute(ctx, nil, []operation.Operation{operation.Get(key)}, nil)
		require.NoError(t, err)

		kv, ok := resp.Single(0)
		require.True(t, ok)
		assert.Equal(t, strconv.Itoa(workers), string(kv.Value), "no increment may be lost")
	})

	t.Run("CanceledContext", func(t *testing.T) {
		drv := open(t)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := drv.Execute(cctx, nil, []operation.Operation{
			operation.Put(testKey(t, "key"), []byte("value")),
		}, nil)
		require.Error(t, err)
	})
}
