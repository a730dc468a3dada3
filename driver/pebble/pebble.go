// Package pebble provides an embedded storage driver on top of
// github.com/cockroachdb/pebble. It keeps a whole table store in one local
// directory and needs no server.
package pebble

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/tarantool/go-record/driver"
	"github.com/tarantool/go-record/kv"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
	"github.com/tarantool/go-record/tx"
)

// Keys starting with metaPrefix are internal and never returned to callers.
const metaPrefix = "\x00"

var revisionKey = []byte(metaPrefix + "revision") //nolint:gochecknoglobals

var (
	// ErrDataDirRequired is returned by Open when Options.DataDir is empty.
	ErrDataDirRequired = errors.New("pebble: Options.DataDir is required")
	// ErrReservedKey is returned when an operation addresses an internal key.
	ErrReservedKey = errors.New("pebble: key uses the reserved prefix")
)

// Options configures the pebble driver.
type Options struct {
	// DataDir is the path to the pebble database directory.
	DataDir string
	// Sync forces a WAL fsync on each committed transaction.
	Sync bool
	// PebbleOptions allows advanced tuning of pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
}

// storedValue is the on-disk envelope: pebble has no per-key revisions,
// so the driver keeps them next to the value.
type storedValue struct {
	Revision int64  `msgpack:"r"`
	Value    []byte `msgpack:"v"`
}

// Driver is a pebble implementation of the storage driver interface.
// Transactions are serialized by a mutex and applied as one indexed batch.
type Driver struct {
	db        *pebble.DB
	writeSync *pebble.WriteOptions

	mu       sync.Mutex
	revision int64
}

var _ driver.Driver = &Driver{} //nolint:exhaustruct

// Open creates or opens a pebble database with the provided options.
func Open(opts Options) (*Driver, error) {
	if opts.DataDir == "" {
		return nil, ErrDataDirRequired
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{} //nolint:exhaustruct
	}

	db, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, fmt.Errorf("pebble: failed to open %s: %w", opts.DataDir, err)
	}

	revision, err := loadRevision(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	writeSync := pebble.NoSync
	if opts.Sync {
		writeSync = pebble.Sync
	}

	return &Driver{
		db:        db,
		writeSync: writeSync,
		mu:        sync.Mutex{},
		revision:  revision,
	}, nil
}

func loadRevision(db *pebble.DB) (int64, error) {
	raw, closer, err := db.Get(revisionKey)
	switch {
	case errors.Is(err, pebble.ErrNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("pebble: failed to read revision: %w", err)
	}
	defer closer.Close()

	var revision int64
	if err := msgpack.Unmarshal(raw, &revision); err != nil {
		return 0, fmt.Errorf("pebble: failed to decode revision: %w", err)
	}

	return revision, nil
}

// Close closes the pebble database.
func (d *Driver) Close() error {
	if d == nil || d.db == nil {
		return nil
	}

	return d.db.Close() //nolint:wrapcheck
}

// Execute implements driver.Driver.
func (d *Driver) Execute(
	ctx context.Context,
	predicates []predicate.Predicate,
	thenOps []operation.Operation,
	elseOps []operation.Operation,
) (tx.Response, error) {
	if err := ctx.Err(); err != nil {
		return tx.Response{}, fmt.Errorf("pebble: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	batch := d.db.NewIndexedBatch()
	defer batch.Close()

	success, err := checkPredicates(batch, predicates)
	if err != nil {
		return tx.Response{}, err
	}

	ops := elseOps
	if success {
		ops = thenOps
	}

	revision := d.revision + 1

	results, mutated, err := executeOps(batch, ops, revision)
	if err != nil {
		return tx.Response{}, err
	}

	if mutated {
		rawRevision, err := msgpack.Marshal(revision)
		if err != nil {
			return tx.Response{}, fmt.Errorf("pebble: failed to encode revision: %w", err)
		}

		if err := batch.Set(revisionKey, rawRevision, nil); err != nil {
			return tx.Response{}, fmt.Errorf("pebble: failed to stage revision: %w", err)
		}

		if err := batch.Commit(d.writeSync); err != nil {
			return tx.Response{}, fmt.Errorf("pebble: failed to commit: %w", err)
		}

		d.revision = revision
	}

	return tx.Response{
		Succeeded: success,
		Results:   results,
	}, nil
}

type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
	NewIter(o *pebble.IterOptions) (*pebble.Iterator, error)
}

func get(r reader, key []byte) (kv.KeyValue, bool, error) {
	raw, closer, err := r.Get(key)
	switch {
	case errors.Is(err, pebble.ErrNotFound):
		return kv.KeyValue{}, false, nil
	case err != nil:
		return kv.KeyValue{}, false, fmt.Errorf("pebble: failed to get %q: %w", key, err)
	}
	defer closer.Close()

	out, err := decode(key, raw)
	if err != nil {
		return kv.KeyValue{}, false, err
	}

	return out, true, nil
}

func decode(key, raw []byte) (kv.KeyValue, error) {
	var stored storedValue
	if err := msgpack.Unmarshal(raw, &stored); err != nil {
		return kv.KeyValue{}, fmt.Errorf("pebble: failed to decode %q: %w", key, err)
	}

	return kv.KeyValue{
		Key:         bytes.Clone(key),
		Value:       stored.Value,
		ModRevision: stored.Revision,
	}, nil
}

// upperBound returns the smallest key greater than every key with the prefix,
// or nil when no such key exists.
func upperBound(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}

	return nil
}

func scan(r reader, prefix []byte) ([]kv.KeyValue, error) {
	lower := prefix
	if len(lower) == 0 {
		// Skip internal keys.
		lower = []byte{metaPrefix[0] + 1}
	}

	iter, err := r.NewIter(&pebble.IterOptions{ //nolint:exhaustruct
		LowerBound: lower,
		UpperBound: upperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble: failed to create iterator: %w", err)
	}
	defer iter.Close()

	var values []kv.KeyValue

	for iter.First(); iter.Valid(); iter.Next() {
		value, err := decode(iter.Key(), iter.Value())
		if err != nil {
			return nil, err
		}

		values = append(values, value)
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pebble: iteration failed: %w", err)
	}

	return values, nil
}

func checkPredicates(r reader, predicates []predicate.Predicate) (bool, error) {
	for _, pred := range predicates {
		current, exists, err := get(r, pred.Key())
		if err != nil {
			return false, err
		}

		switch pred.Target() {
		case predicate.TargetVersion:
			version, ok := pred.Value().(int64)
			if !ok || !predicate.CompareVersion(pred.Operation(), current.ModRevision, version) {
				return false, nil
			}
		case predicate.TargetValue:
			value, ok := pred.Value().([]byte)
			if !ok {
				return false, nil
			}

			switch pred.Operation() { //nolint:exhaustive
			case predicate.OpEqual:
				if !exists || !bytes.Equal(current.Value, value) {
					return false, nil
				}
			case predicate.OpNotEqual:
				if exists && bytes.Equal(current.Value, value) {
					return false, nil
				}
			default:
				return false, nil
			}
		default:
			return false, nil
		}
	}

	return true, nil
}

func executeOps(
	batch *pebble.Batch,
	ops []operation.Operation,
	revision int64,
) ([]tx.RequestResponse, bool, error) {
	results := make([]tx.RequestResponse, 0, len(ops))
	mutated := false

	for _, op := range ops {
		if bytes.HasPrefix(op.Key(), []byte(metaPrefix)) {
			return nil, false, fmt.Errorf("%w: %q", ErrReservedKey, op.Key())
		}

		var (
			values []kv.KeyValue
			err    error
		)

		switch op.Type() {
		case operation.TypeGet:
			values, err = readOp(batch, op)
		case operation.TypePut:
			err = putOp(batch, op, revision)
			mutated = true
		case operation.TypeDelete:
			values, err = readOp(batch, op)
			if err == nil {
				err = deleteAll(batch, values)
			}

			mutated = mutated || len(values) > 0
		}

		if err != nil {
			return nil, false, err
		}

		results = append(results, tx.RequestResponse{Values: values})
	}

	return results, mutated, nil
}

func readOp(batch *pebble.Batch, op operation.Operation) ([]kv.KeyValue, error) {
	if op.IsPrefix() {
		return scan(batch, op.Key())
	}

	value, ok, err := get(batch, op.Key())
	if err != nil || !ok {
		return nil, err
	}

	return []kv.KeyValue{value}, nil
}

func putOp(batch *pebble.Batch, op operation.Operation, revision int64) error {
	raw, err := msgpack.Marshal(storedValue{Revision: revision, Value: op.Value()})
	if err != nil {
		return fmt.Errorf("pebble: failed to encode %q: %w", op.Key(), err)
	}

	if err := batch.Set(op.Key(), raw, nil); err != nil {
		return fmt.Errorf("pebble: failed to stage put %q: %w", op.Key(), err)
	}

	return nil
}

func deleteAll(batch *pebble.Batch, values []kv.KeyValue) error {
	for _, value := range values {
		if err := batch.Delete(value.Key, nil); err != nil {
			return fmt.Errorf("pebble: failed to stage delete %q: %w", value.Key, err)
		}
	}

	return nil
}
