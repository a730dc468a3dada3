// Package driver defines the interface for storage driver implementations.
// It provides a common interface for the persistence engines behind a record
// table: in-memory, embedded (pebble, sqlite) and remote (etcd, Tarantool).
package driver

import (
	"context"

	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
	"github.com/tarantool/go-record/tx"
)

// Driver is the interface that storage drivers must implement.
type Driver interface {
	// Execute executes a transactional operation with conditional logic.
	// The transaction will execute thenOps if all predicates evaluate to true,
	// otherwise it will execute elseOps. Predicate evaluation and the chosen
	// operations form one atomic step.
	//
	// Version predicates on a missing key see revision 0.
	Execute(
		ctx context.Context,
		predicates []predicate.Predicate,
		thenOps []operation.Operation,
		elseOps []operation.Operation,
	) (tx.Response, error)
}
