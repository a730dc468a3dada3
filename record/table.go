package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	storage "github.com/tarantool/go-record"
	"github.com/tarantool/go-record/internal/options"
	"github.com/tarantool/go-record/kv"
	"github.com/tarantool/go-record/marshaller"
	"github.com/tarantool/go-record/namer"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
)

// Table stores records of one shape. It holds no per-record state and is
// safe for concurrent use.
type Table[R, E any] struct {
	storage storage.Storage
	shape   Shape[R, E]
	name    string

	compare func(a, b E) int
	clone   func(r R) R
	indexes []Index[E]

	namer      namer.Namer
	codec      marshaller.TypedMarshaller[E]
	logger     *slog.Logger
	maxRetries int
}

// indexEntry is one unique index key of an entity.
type indexEntry struct {
	index string
	key   string
}

// stored is an entity as read from the storage.
type stored[E any] struct {
	entity   E
	revision int64
}

type versionedShape interface {
	versioned() bool
}

type validatedShape interface {
	validate()
}

// New binds shape to strg. It panics when shape is nil, when a Funcs shape
// misses Encode or Decode, or when WithMarshaller is given a codec for
// another entity type.
func New[R, E any](strg storage.Storage, shape Shape[R, E], opts ...Option) *Table[R, E] {
	if strg == nil {
		panic("record: storage is nil")
	}

	if shape == nil {
		panic("record: shape is nil")
	}

	if v, ok := shape.(validatedShape); ok {
		v.validate()
	}

	cfg := options.ApplyOptions(defaultOptions, opts)

	table := &Table[R, E]{
		storage:    strg,
		shape:      shape,
		name:       shape.Name(),
		compare:    nil,
		clone:      nil,
		indexes:    nil,
		namer:      cfg.namer,
		codec:      nil,
		logger:     cfg.logger.With(slog.String("table", shape.Name())),
		maxRetries: cfg.maxRetries,
	}

	if v, ok := shape.(Versioned[E]); ok {
		table.compare = v.CompareVersion
	}

	if v, ok := shape.(versionedShape); ok && !v.versioned() {
		table.compare = nil
	}

	if c, ok := shape.(Cloner[R]); ok {
		table.clone = c.Clone
	}

	if i, ok := shape.(Indexed[E]); ok {
		table.indexes = i.Indexes()
	}

	switch codec := cfg.codec.(type) {
	case nil:
		m, err := marshaller.New[E](cfg.format)
		if err != nil {
			panic("record: " + err.Error())
		}

		table.codec = m
	case marshaller.TypedMarshaller[E]:
		table.codec = codec
	default:
		panic(fmt.Sprintf("record: marshaller %T does not match the entity type of table %s", codec, table.name))
	}

	return table
}

// Name returns the table name.
func (t *Table[R, E]) Name() string {
	return t.name
}

// IsVersioned reports whether reconcile compares versions.
func (t *Table[R, E]) IsVersioned() bool {
	return t.compare != nil
}

// CompareVersion orders two entities of the same identity. Without a
// version order every entity is older than any other, so writes always win.
func (t *Table[R, E]) CompareVersion(a, b E) int {
	if t.compare == nil {
		return -1
	}

	return t.compare(a, b)
}

// Get returns the record selected by q.
func (t *Table[R, E]) Get(ctx context.Context, q Query) (R, error) {
	var zero R

	key, err := t.resolve(ctx, q)
	if err != nil {
		return zero, err
	}

	current, found, err := t.read(ctx, key)
	if err != nil {
		return zero, err
	}

	if !found {
		return zero, t.fail(ErrNotFound, nil, "no record for %s", q)
	}

	return t.hydrate(current.entity)
}

// Insert adds a new record. It fails with ErrAlreadyExists when the primary
// key or any of its unique index keys is taken.
func (t *Table[R, E]) Insert(ctx context.Context, r R) error {
	key, entity, err := t.dehydrate(r)
	if err != nil {
		return err
	}

	raw, err := t.codec.Marshal(entity)
	if err != nil {
		return t.fail(nil, err, "failed to encode %s", key)
	}

	entries, err := t.indexEntries(entity)
	if err != nil {
		return err
	}

	predicates := []predicate.Predicate{predicate.Absent([]byte(key))}
	ops := []operation.Operation{operation.Put([]byte(key), raw)}

	for _, entry := range entries {
		predicates = append(predicates, predicate.Absent([]byte(entry.key)))
		ops = append(ops, operation.Put([]byte(entry.key), []byte(key)))
	}

	resp, err := t.storage.Tx(ctx).If(predicates...).Then(ops...).Commit()
	if err != nil {
		return t.fail(nil, err, "failed to insert %s", key)
	}

	if !resp.Succeeded {
		return t.fail(ErrAlreadyExists, nil, "%s or one of its unique keys is taken", key)
	}

	return nil
}

// Reconcile writes r unless the stored record of the same key has an equal
// or newer version. It reports whether r was written. A unique index key
// held by another record fails with ErrAlreadyExists.
func (t *Table[R, E]) Reconcile(ctx context.Context, r R) (bool, error) {
	key, entity, err := t.dehydrate(r)
	if err != nil {
		return false, err
	}

	raw, err := t.codec.Marshal(entity)
	if err != nil {
		return false, t.fail(nil, err, "failed to encode %s", key)
	}

	entries, err := t.indexEntries(entity)
	if err != nil {
		return false, err
	}

	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		written, done, err := t.tryReconcile(ctx, key, entity, raw, entries)
		if err != nil || done {
			return written, err
		}

		t.logger.DebugContext(ctx, "concurrent write, retrying reconcile",
			slog.String("key", key), slog.Int("attempt", attempt))
	}

	return false, t.fail(ErrConflict, nil, "gave up reconciling %s after %d attempts", key, t.maxRetries)
}

func (t *Table[R, E]) tryReconcile(
	ctx context.Context,
	key string,
	entity E,
	raw []byte,
	entries []indexEntry,
) (bool, bool, error) {
	reads := make([]operation.Operation, 0, len(entries)+1)
	reads = append(reads, operation.Get([]byte(key)))

	for _, entry := range entries {
		reads = append(reads, operation.Get([]byte(entry.key)))
	}

	resp, err := t.storage.Tx(ctx).Then(reads...).Commit()
	if err != nil {
		return false, false, t.fail(nil, err, "failed to read %s", key)
	}

	var (
		revision int64
		stale    []indexEntry
	)

	if current, ok := resp.Single(0); ok {
		previous, err := t.decode(current)
		if err != nil {
			return false, false, err
		}

		if t.compare != nil && t.compare(previous.entity, entity) >= 0 {
			t.logger.DebugContext(ctx, "stale write ignored", slog.String("key", key))
			return false, true, nil
		}

		revision = previous.revision

		stale, err = t.staleEntries(previous.entity, entries)
		if err != nil {
			return false, false, err
		}
	}

	predicates := []predicate.Predicate{predicate.Unchanged([]byte(key), revision)}
	ops := []operation.Operation{operation.Put([]byte(key), raw)}

	for i, entry := range entries {
		var entryRevision int64

		if owner, ok := resp.Single(i + 1); ok {
			if string(owner.Value) != key {
				return false, false, t.fail(ErrAlreadyExists, nil,
					"%s %v is held by %s", entry.index, entry.key, owner.Value)
			}

			entryRevision = owner.ModRevision
		}

		predicates = append(predicates, predicate.Unchanged([]byte(entry.key), entryRevision))
		ops = append(ops, operation.Put([]byte(entry.key), []byte(key)))
	}

	for _, entry := range stale {
		ops = append(ops, operation.Delete([]byte(entry.key)))
	}

	resp, err = t.storage.Tx(ctx).If(predicates...).Then(ops...).Commit()
	if err != nil {
		return false, false, t.fail(nil, err, "failed to write %s", key)
	}

	return resp.Succeeded, resp.Succeeded, nil
}

// Delete removes the record selected by q together with its index entries.
func (t *Table[R, E]) Delete(ctx context.Context, q Query) error {
	key, err := t.resolve(ctx, q)
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		current, found, err := t.read(ctx, key)
		if err != nil {
			return err
		}

		if !found {
			return t.fail(ErrNotFound, nil, "no record for %s", q)
		}

		entries, err := t.indexEntries(current.entity)
		if err != nil {
			return err
		}

		ops := []operation.Operation{operation.Delete([]byte(key))}
		for _, entry := range entries {
			ops = append(ops, operation.Delete([]byte(entry.key)))
		}

		resp, err := t.storage.Tx(ctx).
			If(predicate.Unchanged([]byte(key), current.revision)).
			Then(ops...).
			Commit()
		if err != nil {
			return t.fail(nil, err, "failed to delete %s", key)
		}

		if resp.Succeeded {
			return nil
		}

		t.logger.DebugContext(ctx, "concurrent write, retrying delete",
			slog.String("key", key), slog.Int("attempt", attempt))
	}

	return t.fail(ErrConflict, nil, "gave up deleting %s after %d attempts", key, t.maxRetries)
}

// List returns every record of the table ordered by storage key.
func (t *Table[R, E]) List(ctx context.Context) ([]R, error) {
	prefix, err := t.namer.PrimaryPrefix(t.name)
	if err != nil {
		return nil, t.fail(ErrInvalidKey, err, "bad table name")
	}

	kvs, err := t.storage.Range(ctx, storage.WithPrefix(prefix))
	if err != nil {
		return nil, t.fail(nil, err, "failed to list")
	}

	records := make([]R, 0, len(kvs))

	for _, value := range kvs {
		current, err := t.decode(value)
		if err != nil {
			return nil, err
		}

		r, err := t.hydrate(current.entity)
		if err != nil {
			return nil, err
		}

		records = append(records, r)
	}

	return records, nil
}

// resolve returns the primary storage key selected by q.
func (t *Table[R, E]) resolve(ctx context.Context, q Query) (string, error) {
	if q.index == "" {
		if len(q.parts) != 1 {
			return "", t.fail(ErrInvalidKey, nil, "primary key query needs exactly one part")
		}

		key, err := t.namer.PrimaryKey(t.name, q.parts[0])
		if err != nil {
			return "", t.fail(ErrInvalidKey, err, "bad %s", q)
		}

		return key, nil
	}

	if !t.hasIndex(q.index) {
		return "", t.fail(ErrInvalidKey, nil, "unknown index %q", q.index)
	}

	indexKey, err := t.namer.IndexKey(t.name, q.index, q.parts)
	if err != nil {
		return "", t.fail(ErrInvalidKey, err, "bad %s", q)
	}

	resp, err := t.storage.Tx(ctx).Then(operation.Get([]byte(indexKey))).Commit()
	if err != nil {
		return "", t.fail(nil, err, "failed to read %s", indexKey)
	}

	entry, ok := resp.Single(0)
	if !ok {
		return "", t.fail(ErrNotFound, nil, "no record for %s", q)
	}

	return string(entry.Value), nil
}

func (t *Table[R, E]) hasIndex(name string) bool {
	for _, index := range t.indexes {
		if index.Name == name {
			return true
		}
	}

	return false
}

func (t *Table[R, E]) read(ctx context.Context, key string) (stored[E], bool, error) {
	resp, err := t.storage.Tx(ctx).Then(operation.Get([]byte(key))).Commit()
	if err != nil {
		return stored[E]{}, false, t.fail(nil, err, "failed to read %s", key)
	}

	value, ok := resp.Single(0)
	if !ok {
		return stored[E]{}, false, nil
	}

	current, err := t.decode(value)
	if err != nil {
		return stored[E]{}, false, err
	}

	return current, true, nil
}

func (t *Table[R, E]) decode(value kv.KeyValue) (stored[E], error) {
	entity, err := t.codec.Unmarshal(value.Value)
	if err != nil {
		return stored[E]{}, t.fail(nil, err, "failed to decode %s", value.Key)
	}

	return stored[E]{entity: entity, revision: value.ModRevision}, nil
}

func (t *Table[R, E]) hydrate(entity E) (R, error) {
	r, err := t.shape.Hydrate(entity)
	if err != nil {
		var zero R
		return zero, t.fail(nil, err, "failed to hydrate")
	}

	return r, nil
}

// dehydrate returns the primary storage key and the entity of r.
func (t *Table[R, E]) dehydrate(r R) (string, E, error) {
	var zero E

	if t.clone != nil {
		r = t.clone(r)
	}

	key, entity, err := t.shape.Dehydrate(r)
	if err != nil {
		return "", zero, t.fail(ErrInvalidKey, err, "failed to dehydrate")
	}

	storageKey, err := t.namer.PrimaryKey(t.name, key)
	if err != nil {
		return "", zero, t.fail(ErrInvalidKey, err, "bad primary key")
	}

	return storageKey, entity, nil
}

func (t *Table[R, E]) indexEntries(entity E) ([]indexEntry, error) {
	entries := make([]indexEntry, 0, len(t.indexes))

	for _, index := range t.indexes {
		parts := index.Key(entity)
		if !indexable(parts) {
			continue
		}

		key, err := t.namer.IndexKey(t.name, index.Name, parts)
		if err != nil {
			return nil, t.fail(ErrInvalidKey, err, "bad %s key", index.Name)
		}

		entries = append(entries, indexEntry{index: index.Name, key: key})
	}

	return entries, nil
}

func indexable(parts []string) bool {
	if len(parts) == 0 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
	}

	return true
}

// staleEntries returns the index entries of previous that current no longer has.
func (t *Table[R, E]) staleEntries(previous E, current []indexEntry) ([]indexEntry, error) {
	old, err := t.indexEntries(previous)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]struct{}, len(current))
	for _, entry := range current {
		keep[entry.key] = struct{}{}
	}

	stale := old[:0]

	for _, entry := range old {
		if _, ok := keep[entry.key]; !ok {
			stale = append(stale, entry)
		}
	}

	return stale, nil
}

// fail builds an *Error for this table. A nil kind keeps the kind of a
// wrapped *Error, so driver and codec failures are reported as internal.
func (t *Table[R, E]) fail(kind, cause error, format string, args ...any) error {
	var inner *Error
	if kind == nil && errors.As(cause, &inner) {
		kind = inner.kind
	}

	return newError(t.name, kind, cause, format, args...)
}
