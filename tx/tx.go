// Package tx provides transactional interfaces for atomic storage operations.
// It supports conditional execution with predicates for complex transaction logic.
package tx

import (
	"github.com/tarantool/go-record/kv"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
)

// Tx represents a transactional interface for atomic operations.
// Transactions support conditional execution with predicates.
type Tx interface {
	// If specifies predicates for conditional transaction execution.
	// Empty predicate list means always true (unconditional execution).
	If(predicates ...predicate.Predicate) Tx
	// Then specifies operations to execute if predicates evaluate to true.
	Then(operations ...operation.Operation) Tx
	// Else specifies operations to execute if predicates evaluate to false.
	// This is optional.
	Else(operations ...operation.Operation) Tx
	// Commit atomically executes the transaction and returns the result.
	Commit() (Response, error)
}

// RequestResponse represents the response for an individual transaction operation.
type RequestResponse struct {
	// Values contains the result data for Get operations and the previous
	// values for Delete operations.
	Values []kv.KeyValue
}

// Response contains the result of a transaction execution.
type Response struct {
	// Succeeded indicates whether the transaction predicates evaluated to true.
	Succeeded bool
	// Results contains the responses for each operation in Then/Else blocks.
	Results []RequestResponse
}

// Single returns the single value produced by the i-th operation.
// It reports false when the operation produced no value or is out of range.
func (r Response) Single(i int) (kv.KeyValue, bool) {
	if i < 0 || i >= len(r.Results) || len(r.Results[i].Values) == 0 {
		return kv.KeyValue{}, false
	}

	return r.Results[i].Values[0], true
}

// Flatten concatenates the values of every operation result.
func (r Response) Flatten() []kv.KeyValue {
	kvs := make([]kv.KeyValue, 0, len(r.Results))
	for _, res := range r.Results {
		kvs = append(kvs, res.Values...)
	}

	return kvs
}
