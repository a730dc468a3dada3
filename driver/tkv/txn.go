package tkv

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tarantool/go-record/kv"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
	"github.com/tarantool/go-record/tx"
)

var (
	// ErrUnknownOperation is returned when the operation type has no tarantool name.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrUnknownOperator is returned when the predicate operator has no tarantool name.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrUnknownTarget is returned when the predicate target has no tarantool name.
	ErrUnknownTarget = errors.New("unknown target")

	_ msgpack.CustomEncoder = txnOperation{}  //nolint:exhaustruct
	_ msgpack.CustomEncoder = txnPredicate{}  //nolint:exhaustruct
	_ msgpack.CustomDecoder = &txnResultSet{} //nolint:exhaustruct

	//nolint:gochecknoglobals
	operations = map[operation.Type]string{
		operation.TypeGet:    "get",
		operation.TypePut:    "put",
		operation.TypeDelete: "delete",
	}

	//nolint:gochecknoglobals
	operators = map[predicate.Op]string{
		predicate.OpEqual:    "==",
		predicate.OpNotEqual: "!=",
		predicate.OpGreater:  ">",
		predicate.OpLess:     "<",
	}

	//nolint:gochecknoglobals
	targets = map[predicate.Target]string{
		predicate.TargetValue:   "value",
		predicate.TargetVersion: "mod_revision",
	}
)

// EncodeError is returned when a request part cannot be written.
type EncodeError struct {
	Part string
	Err  error
}

// Error returns the error message.
func (e EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s: %s", e.Part, e.Err)
}

// Unwrap returns the underlying error.
func (e EncodeError) Unwrap() error {
	return e.Err
}

// txnOperation is written as [name, path] or [name, path, value] for puts.
type txnOperation struct {
	op operation.Operation
}

func (o txnOperation) EncodeMsgpack(enc *msgpack.Encoder) error {
	name, ok := operations[o.op.Type()]
	if !ok {
		return EncodeError{Part: "operation", Err: fmt.Errorf("%w: %d", ErrUnknownOperation, o.op.Type())}
	}

	fields := []string{name, string(o.op.Key())}
	if o.op.Type() == operation.TypePut {
		fields = append(fields, string(o.op.Value()))
	}

	if err := enc.EncodeArrayLen(len(fields)); err != nil {
		return EncodeError{Part: "operation", Err: err}
	}

	for _, field := range fields {
		// Tarantool compares paths and values as strings.
		if err := enc.EncodeString(field); err != nil {
			return EncodeError{Part: "operation " + name, Err: err}
		}
	}

	return nil
}

// txnPredicate is written as [target, operator, value, path].
type txnPredicate struct {
	pred predicate.Predicate
}

func (p txnPredicate) EncodeMsgpack(enc *msgpack.Encoder) error {
	operator, ok := operators[p.pred.Operation()]
	if !ok {
		return EncodeError{Part: "predicate", Err: fmt.Errorf("%w: %d", ErrUnknownOperator, p.pred.Operation())}
	}

	target, ok := targets[p.pred.Target()]
	if !ok {
		return EncodeError{Part: "predicate", Err: fmt.Errorf("%w: %d", ErrUnknownTarget, p.pred.Target())}
	}

	if err := enc.EncodeArrayLen(4); err != nil { //nolint:mnd
		return EncodeError{Part: "predicate", Err: err}
	}

	if err := enc.EncodeString(target); err != nil {
		return EncodeError{Part: "predicate target", Err: err}
	}

	if err := enc.EncodeString(operator); err != nil {
		return EncodeError{Part: "predicate operator", Err: err}
	}

	var err error

	switch value := p.pred.Value().(type) {
	case []byte:
		err = enc.EncodeString(string(value))
	default:
		err = enc.Encode(value)
	}

	if err != nil {
		return EncodeError{Part: "predicate value", Err: err}
	}

	if err := enc.EncodeString(string(p.pred.Key())); err != nil {
		return EncodeError{Part: "predicate path", Err: err}
	}

	return nil
}

type txnRequest struct {
	Predicates []txnPredicate `msgpack:"predicates,omitempty"`
	OnSuccess  []txnOperation `msgpack:"on_success,omitempty"`
	OnFailure  []txnOperation `msgpack:"on_failure,omitempty"`
}

func newTxnRequest(
	predicates []predicate.Predicate,
	onSuccess []operation.Operation,
	onFailure []operation.Operation,
) txnRequest {
	req := txnRequest{
		Predicates: make([]txnPredicate, 0, len(predicates)),
		OnSuccess:  make([]txnOperation, 0, len(onSuccess)),
		OnFailure:  make([]txnOperation, 0, len(onFailure)),
	}

	for _, pred := range predicates {
		req.Predicates = append(req.Predicates, txnPredicate{pred: pred})
	}

	for _, op := range onSuccess {
		req.OnSuccess = append(req.OnSuccess, txnOperation{op: op})
	}

	for _, op := range onFailure {
		req.OnFailure = append(req.OnFailure, txnOperation{op: op})
	}

	return req
}

type txnValue struct {
	Path        []byte `msgpack:"path"`
	ModRevision int64  `msgpack:"mod_revision"`
	Value       []byte `msgpack:"value"`
}

// txnResultSet is the list of values one operation returned.
type txnResultSet struct {
	Values []txnValue
}

func (s *txnResultSet) DecodeMsgpack(dec *msgpack.Decoder) error {
	if err := dec.Decode(&s.Values); err != nil {
		return fmt.Errorf("failed to decode operation result: %w", err)
	}

	return nil
}

type txnResponseData struct {
	IsSuccess bool           `msgpack:"is_success"`
	Responses []txnResultSet `msgpack:"responses"`
}

type txnResponse struct {
	Data     txnResponseData `msgpack:"data"`
	Revision int64           `msgpack:"revision"`
}

// asTxnResponse converts the reply. Values written by the same transaction
// come back without a mod_revision, they carry the transaction revision.
func (r txnResponse) asTxnResponse() tx.Response {
	results := make([]tx.RequestResponse, 0, len(r.Data.Responses))

	for _, set := range r.Data.Responses {
		values := make([]kv.KeyValue, 0, len(set.Values))

		for _, val := range set.Values {
			revision := val.ModRevision
			if revision == 0 {
				revision = r.Revision
			}

			values = append(values, kv.KeyValue{
				Key:         val.Path,
				Value:       val.Value,
				ModRevision: revision,
			})
		}

		results = append(results, tx.RequestResponse{Values: values})
	}

	return tx.Response{
		Succeeded: r.Data.IsSuccess,
		Results:   results,
	}
}
