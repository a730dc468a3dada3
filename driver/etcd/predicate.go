package etcd

import (
	"fmt"

	etcd "go.etcd.io/etcd/client/v3"

	"github.com/tarantool/go-record/predicate"
)

// cmpOperators maps predicate operations to etcd comparison operators.
var cmpOperators = map[predicate.Op]string{ //nolint:gochecknoglobals
	predicate.OpEqual:    "=",
	predicate.OpNotEqual: "!=",
	predicate.OpGreater:  ">",
	predicate.OpLess:     "<",
}

// predicatesToCmps converts a predicate list to an etcd comparison list.
func predicatesToCmps(predicates []predicate.Predicate) ([]etcd.Cmp, error) {
	cmps := make([]etcd.Cmp, 0, len(predicates))

	for _, pred := range predicates {
		cmp, err := predicateToCmp(pred)
		if err != nil {
			return nil, err
		}

		cmps = append(cmps, cmp)
	}

	return cmps, nil
}

// predicateToCmp converts a predicate to an etcd comparison.
// etcd fails every value comparison against a missing key, while
// a missing key has mod revision 0.
func predicateToCmp(pred predicate.Predicate) (etcd.Cmp, error) {
	key := string(pred.Key())
	operator := cmpOperators[pred.Operation()]

	switch pred.Target() {
	case predicate.TargetValue:
		value, ok := pred.Value().([]byte)
		if !ok {
			return etcd.Cmp{}, errValuePredicateRequiresBytes
		}

		if pred.Operation() != predicate.OpEqual && pred.Operation() != predicate.OpNotEqual {
			return etcd.Cmp{}, fmt.Errorf("%w: %v", errUnsupportedValueOperation, pred.Operation())
		}

		return etcd.Compare(etcd.Value(key), operator, string(value)), nil
	case predicate.TargetVersion:
		version, ok := pred.Value().(int64)
		if !ok {
			return etcd.Cmp{}, errVersionPredicateRequiresInt
		}

		if operator == "" {
			return etcd.Cmp{}, fmt.Errorf("%w: %v", errUnsupportedVersionOperation, pred.Operation())
		}

		return etcd.Compare(etcd.ModRevision(key), operator, version), nil
	default:
		return etcd.Cmp{}, fmt.Errorf("%w: %v", errUnsupportedPredicateTarget, pred.Target())
	}
}
