package etcd_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
	etcdclient "go.etcd.io/etcd/client/v3"

	"github.com/tarantool/go-record/driver/etcd"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
)

// fakeTxn records what the driver builds and replies with a canned response.
type fakeTxn struct {
	cmps    []etcdclient.Cmp
	thenOps []etcdclient.Op
	elseOps []etcdclient.Op

	resp *etcdclient.TxnResponse
	err  error
}

func (f *fakeTxn) If(cs ...etcdclient.Cmp) etcdclient.Txn {
	f.cmps = cs
	return f
}

func (f *fakeTxn) Then(ops ...etcdclient.Op) etcdclient.Txn {
	f.thenOps = ops
	return f
}

func (f *fakeTxn) Else(ops ...etcdclient.Op) etcdclient.Txn {
	f.elseOps = ops
	return f
}

func (f *fakeTxn) Commit() (*etcdclient.TxnResponse, error) {
	return f.resp, f.err
}

type fakeClient struct {
	txn *fakeTxn
}

func (c fakeClient) Txn(context.Context) etcdclient.Txn {
	return c.txn
}

func TestDriver_Execute(t *testing.T) {
	t.Parallel()

	key := []byte("/records/user/pk/a")
	txn := &fakeTxn{
		resp: &etcdclient.TxnResponse{
			Succeeded: true,
			Responses: []*etcdserverpb.ResponseOp{
				{Response: &etcdserverpb.ResponseOp_ResponsePut{
					ResponsePut: &etcdserverpb.PutResponse{},
				}},
				{Response: &etcdserverpb.ResponseOp_ResponseRange{
					ResponseRange: &etcdserverpb.RangeResponse{
						Kvs: []*mvccpb.KeyValue{{Key: key, Value: []byte("v"), ModRevision: 42}},
					},
				}},
				{Response: &etcdserverpb.ResponseOp_ResponseDeleteRange{
					ResponseDeleteRange: &etcdserverpb.DeleteRangeResponse{
						PrevKvs: []*mvccpb.KeyValue{{Key: []byte("/old"), Value: []byte("x"), ModRevision: 3}},
					},
				}},
			},
		},
	}

	drv := etcd.New(fakeClient{txn: txn})

	resp, err := drv.Execute(context.Background(),
		[]predicate.Predicate{predicate.Absent(key)},
		[]operation.Operation{
			operation.Put(key, []byte("v")),
			operation.Get(key),
			operation.Delete([]byte("/old")),
		},
		[]operation.Operation{operation.Get(key)},
	)
	require.NoError(t, err)

	assert.Len(t, txn.cmps, 1)
	assert.Len(t, txn.thenOps, 3)
	assert.Len(t, txn.elseOps, 1)

	assert.True(t, resp.Succeeded)
	require.Len(t, resp.Results, 3)
	assert.Empty(t, resp.Results[0].Values)

	value, ok := resp.Single(1)
	require.True(t, ok)
	assert.Equal(t, int64(42), value.ModRevision)
	assert.Equal(t, []byte("v"), value.Value)

	deleted, ok := resp.Single(2)
	require.True(t, ok)
	assert.Equal(t, []byte("/old"), deleted.Key)
}

func TestDriver_Execute_CommitError(t *testing.T) {
	t.Parallel()

	drv := etcd.New(fakeClient{txn: &fakeTxn{err: errors.New("connection refused")}})

	_, err := drv.Execute(context.Background(), nil, []operation.Operation{operation.Get([]byte("k"))}, nil)
	require.EqualError(t, err, "transaction failed: connection refused")
}

func TestDriver_Execute_BadPredicate(t *testing.T) {
	t.Parallel()

	txn := &fakeTxn{}
	drv := etcd.New(fakeClient{txn: txn})

	_, err := drv.Execute(context.Background(),
		[]predicate.Predicate{predicate.ValueEqual([]byte("k"), 42)}, nil, nil)
	require.ErrorContains(t, err, "failed to convert predicates")
	assert.Nil(t, txn.cmps, "nothing is sent on conversion errors")
}
