// Package dummy provides a base in-memory implementation
// of the storage driver interface for demonstration and tests.
package dummy

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tarantool/go-record/driver"
	"github.com/tarantool/go-record/kv"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
	"github.com/tarantool/go-record/tx"
)

// dummyStorage is a thread-safe structure that holds the key-value storage.
type dummyStorage struct {
	storage     map[string]kv.KeyValue
	modRevision int64
	mu          sync.RWMutex
}

// Driver keeps every key in memory. A single mutex serializes transactions.
type Driver struct {
	data dummyStorage
}

var _ driver.Driver = &Driver{} //nolint:exhaustruct

// New returns an empty in-memory driver.
func New() *Driver {
	return &Driver{
		data: dummyStorage{
			storage:     make(map[string]kv.KeyValue),
			modRevision: 1,
			mu:          sync.RWMutex{},
		},
	}
}

// Execute implements driver.Driver.
func (d *Driver) Execute(
	ctx context.Context,
	predicates []predicate.Predicate,
	thenOps []operation.Operation,
	elseOps []operation.Operation,
) (tx.Response, error) {
	if err := ctx.Err(); err != nil {
		return tx.Response{}, fmt.Errorf("dummy: %w", err)
	}

	// We use a mutex to ensure that the execution of
	// operations is atomic and thread-safe.
	d.data.mu.Lock()
	defer d.data.mu.Unlock()

	ops := elseOps
	success := d.checkPredicates(predicates)

	if success {
		ops = thenOps
	}

	return tx.Response{
		Succeeded: success,
		Results:   d.executeOps(ops),
	}, nil
}

// Len returns the number of stored keys.
func (d *Driver) Len() int {
	d.data.mu.RLock()
	defer d.data.mu.RUnlock()

	return len(d.data.storage)
}

func (d *Driver) get(key string) (kv.KeyValue, bool) {
	val, ok := d.data.storage[key]
	return val, ok
}

func (d *Driver) put(key string, value []byte) {
	d.data.storage[key] = kv.KeyValue{
		Key:         []byte(key),
		Value:       bytes.Clone(value),
		ModRevision: d.data.modRevision,
	}
}

func (d *Driver) delete(key string) (kv.KeyValue, bool) {
	prevKv, ok := d.data.storage[key]
	delete(d.data.storage, key)

	return prevKv, ok
}

func isPrefix(str string) bool {
	return str == "" || str[len(str)-1] == '/'
}

// checkPredicates checks if the given predicates are satisfied by
// the current state of the storage.
func (d *Driver) checkPredicates(predicates []predicate.Predicate) bool {
	for _, pred := range predicates {
		val, exists := d.data.storage[string(pred.Key())]

		switch pred.Target() {
		case predicate.TargetVersion:
			version, ok := pred.Value().(int64)
			if !ok {
				return false
			}

			// A missing key has revision 0.
			var revision int64
			if exists {
				revision = val.ModRevision
			}

			if !predicate.CompareVersion(pred.Operation(), revision, version) {
				return false
			}
		case predicate.TargetValue:
			value, ok := pred.Value().([]byte)
			if !ok {
				return false
			}

			switch pred.Operation() { //nolint:exhaustive
			case predicate.OpEqual:
				if !exists || !bytes.Equal(val.Value, value) {
					return false
				}
			case predicate.OpNotEqual:
				if exists && bytes.Equal(val.Value, value) {
					return false
				}
			default:
				return false
			}
		default:
			return false
		}
	}

	return true
}

func (d *Driver) getAllByPrefix(prefix string) []kv.KeyValue {
	var prefixValues []kv.KeyValue

	for k, v := range d.data.storage {
		if strings.HasPrefix(k, prefix) {
			prefixValues = append(prefixValues, v)
		}
	}

	sort.Slice(prefixValues, func(i, j int) bool {
		return bytes.Compare(prefixValues[i].Key, prefixValues[j].Key) < 0
	})

	return prefixValues
}

func (d *Driver) executeOps(ops []operation.Operation) []tx.RequestResponse {
	result := make([]tx.RequestResponse, 0, len(ops))
	mutable := false

	for _, eop := range ops {
		key := string(eop.Key())

		switch eop.Type() {
		case operation.TypePut:
			d.put(key, eop.Value())
			mutable = true

			result = append(result, tx.RequestResponse{Values: nil})
		case operation.TypeDelete:
			var values []kv.KeyValue

			if isPrefix(key) {
				values = d.getAllByPrefix(key)
				for _, pv := range values {
					d.delete(string(pv.Key))
				}
			} else if val, ok := d.delete(key); ok {
				values = []kv.KeyValue{val}
			}

			if len(values) > 0 {
				mutable = true
			}

			result = append(result, tx.RequestResponse{Values: values})
		case operation.TypeGet:
			var values []kv.KeyValue

			if isPrefix(key) {
				values = d.getAllByPrefix(key)
			} else if val, ok := d.get(key); ok {
				values = []kv.KeyValue{val}
			}

			result = append(result, tx.RequestResponse{Values: values})
		}
	}

	if mutable {
		d.data.modRevision++
	}

	return result
}
