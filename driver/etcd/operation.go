package etcd

import (
	"fmt"

	etcd "go.etcd.io/etcd/client/v3"

	"github.com/tarantool/go-record/operation"
)

// operationsToEtcdOps converts operations to etcd operations.
func operationsToEtcdOps(ops []operation.Operation) ([]etcd.Op, error) {
	etcdOps := make([]etcd.Op, 0, len(ops))

	for _, op := range ops {
		etcdOp, err := operationToEtcdOp(op)
		if err != nil {
			return nil, err
		}

		etcdOps = append(etcdOps, etcdOp)
	}

	return etcdOps, nil
}

// operationToEtcdOp converts an operation to an etcd operation. Keys ending
// with "/" become range requests; deletes return the removed pairs.
func operationToEtcdOp(op operation.Operation) (etcd.Op, error) {
	key := string(op.Key())

	var opts []etcd.OpOption
	if op.IsPrefix() {
		opts = append(opts, etcd.WithPrefix())
	}

	switch op.Type() {
	case operation.TypeGet:
		return etcd.OpGet(key, opts...), nil
	case operation.TypePut:
		return etcd.OpPut(key, string(op.Value())), nil
	case operation.TypeDelete:
		return etcd.OpDelete(key, append(opts, etcd.WithPrevKV())...), nil
	default:
		return etcd.Op{}, fmt.Errorf("%w: %v", errUnsupportedOperationType, op.Type())
	}
}
