// Package sqlite provides an embedded storage driver on top of SQLite
// (github.com/mattn/go-sqlite3). Every Execute call is one SQL transaction.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // Registers the "sqlite3" database/sql driver.

	"github.com/tarantool/go-record/driver"
	"github.com/tarantool/go-record/kv"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
	"github.com/tarantool/go-record/tx"
)

//go:embed schema.sql
var schemaSQL string

// ErrPathRequired is returned by Open when no database path is given.
var ErrPathRequired = errors.New("sqlite: database path is required")

// Driver is a SQLite implementation of the storage driver interface.
type Driver struct {
	db *sql.DB
}

var _ driver.Driver = &Driver{} //nolint:exhaustruct

// Open creates or opens a SQLite database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Driver, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps ":memory:"
	// databases from being split across connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: failed to connect to database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}

	return &Driver{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("sqlite: failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database.
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
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return tx.Response{}, fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	success, err := checkPredicates(ctx, sqlTx, predicates)
	if err != nil {
		return tx.Response{}, err
	}

	ops := elseOps
	if success {
		ops = thenOps
	}

	var revision int64
	if err := sqlTx.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE name = 'revision'`).Scan(&revision); err != nil {
		return tx.Response{}, fmt.Errorf("sqlite: failed to read revision: %w", err)
	}

	revision++

	results, mutated, err := executeOps(ctx, sqlTx, ops, revision)
	if err != nil {
		return tx.Response{}, err
	}

	if mutated {
		if _, err := sqlTx.ExecContext(ctx,
			`UPDATE meta SET value = ? WHERE name = 'revision'`, revision); err != nil {
			return tx.Response{}, fmt.Errorf("sqlite: failed to bump revision: %w", err)
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return tx.Response{}, fmt.Errorf("sqlite: failed to commit: %w", err)
	}

	return tx.Response{
		Succeeded: success,
		Results:   results,
	}, nil
}

func get(ctx context.Context, sqlTx *sql.Tx, key []byte) (kv.KeyValue, bool, error) {
	out := kv.KeyValue{Key: bytes.Clone(key), Value: nil, ModRevision: 0}

	err := sqlTx.QueryRowContext(ctx,
		`SELECT value, mod_revision FROM kv WHERE key = ?`, key).Scan(&out.Value, &out.ModRevision)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return kv.KeyValue{}, false, nil
	case err != nil:
		return kv.KeyValue{}, false, fmt.Errorf("sqlite: failed to get %q: %w", key, err)
	}

	return out, true, nil
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

func scan(ctx context.Context, sqlTx *sql.Tx, prefix []byte) ([]kv.KeyValue, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if end := upperBound(prefix); end != nil {
		rows, err = sqlTx.QueryContext(ctx,
			`SELECT key, value, mod_revision FROM kv WHERE key >= ? AND key < ? ORDER BY key`,
			prefix, end)
	} else {
		rows, err = sqlTx.QueryContext(ctx,
			`SELECT key, value, mod_revision FROM kv WHERE key >= ? ORDER BY key`, prefix)
	}

	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to scan %q: %w", prefix, err)
	}
	defer rows.Close()

	var values []kv.KeyValue

	for rows.Next() {
		var value kv.KeyValue
		if err := rows.Scan(&value.Key, &value.Value, &value.ModRevision); err != nil {
			return nil, fmt.Errorf("sqlite: failed to read row: %w", err)
		}

		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to scan %q: %w", prefix, err)
	}

	return values, nil
}

func checkPredicates(ctx context.Context, sqlTx *sql.Tx, predicates []predicate.Predicate) (bool, error) {
	for _, pred := range predicates {
		current, exists, err := get(ctx, sqlTx, pred.Key())
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
	ctx context.Context,
	sqlTx *sql.Tx,
	ops []operation.Operation,
	revision int64,
) ([]tx.RequestResponse, bool, error) {
	results := make([]tx.RequestResponse, 0, len(ops))
	mutated := false

	for _, op := range ops {
		var (
			values []kv.KeyValue
			err    error
		)

		switch op.Type() {
		case operation.TypeGet:
			values, err = read(ctx, sqlTx, op)
		case operation.TypePut:
			value := op.Value()
			if value == nil {
				value = []byte{}
			}

			_, err = sqlTx.ExecContext(ctx,
				`INSERT INTO kv (key, value, mod_revision) VALUES (?, ?, ?)
				 ON CONFLICT (key) DO UPDATE SET value = excluded.value, mod_revision = excluded.mod_revision`,
				op.Key(), value, revision)
			if err != nil {
				err = fmt.Errorf("sqlite: failed to put %q: %w", op.Key(), err)
			}

			mutated = true
		case operation.TypeDelete:
			values, err = read(ctx, sqlTx, op)
			for i := 0; err == nil && i < len(values); i++ {
				if _, err = sqlTx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, values[i].Key); err != nil {
					err = fmt.Errorf("sqlite: failed to delete %q: %w", values[i].Key, err)
				}
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

func read(ctx context.Context, sqlTx *sql.Tx, op operation.Operation) ([]kv.KeyValue, error) {
	if op.IsPrefix() {
		return scan(ctx, sqlTx, op.Key())
	}

	value, ok, err := get(ctx, sqlTx, op.Key())
	if err != nil || !ok {
		return nil, err
	}

	return []kv.KeyValue{value}, nil
}
