// Package tkv provides a Tarantool config storage driver. Every transaction
// is a single call of config.storage.txn on the connected instance.
package tkv

import (
	"context"
	"errors"
	"fmt"

	"github.com/tarantool/go-tarantool/v2"

	"github.com/tarantool/go-record/driver"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
	"github.com/tarantool/go-record/tx"
)

// TxnFunction is the stored function that runs a transaction.
const TxnFunction = "config.storage.txn"

var (
	_ driver.Driver = Driver{} //nolint:exhaustruct

	// ErrUnexpectedResponse is returned when the response from tarantool has unexpected format.
	ErrUnexpectedResponse = errors.New("unexpected response from tarantool")
)

// Driver sends transactions to a Tarantool instance. tarantool.Connection
// and pool.ConnectorAdapter both satisfy tarantool.Doer.
type Driver struct {
	conn tarantool.Doer
}

// New returns a driver that executes requests through doer.
func New(doer tarantool.Doer) Driver {
	return Driver{conn: doer}
}

// Execute implements driver.Driver.
func (d Driver) Execute(
	ctx context.Context,
	predicates []predicate.Predicate,
	thenOps []operation.Operation,
	elseOps []operation.Operation,
) (tx.Response, error) {
	if err := ctx.Err(); err != nil {
		return tx.Response{}, fmt.Errorf("tkv: %w", err)
	}

	req := tarantool.NewCallRequest(TxnFunction).
		Args([]any{newTxnRequest(predicates, thenOps, elseOps)}).
		Context(ctx)

	var result []txnResponse

	switch err := d.conn.Do(req).GetTyped(&result); {
	case err != nil:
		return tx.Response{}, fmt.Errorf("tkv: failed to execute transaction: %w", err)
	case len(result) != 1:
		return tx.Response{}, fmt.Errorf("tkv: %w: expected 1 response, got %d", ErrUnexpectedResponse, len(result))
	}

	return result[0].asTxnResponse(), nil
}
