package etcd //nolint:testpackage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/etcdserverpb"

	"github.com/tarantool/go-record/predicate"
)

func TestPredicateToCmp(t *testing.T) {
	t.Parallel()

	key := []byte("/records/user/pk/a")

	tests := []struct {
		name      string
		predicate predicate.Predicate
		target    etcdserverpb.Compare_CompareTarget
		result    etcdserverpb.Compare_CompareResult
		value     any
	}{
		{"value equal", predicate.ValueEqual(key, []byte("v")),
			etcdserverpb.Compare_VALUE, etcdserverpb.Compare_EQUAL, []byte("v")},
		{"value equal from string", predicate.ValueEqual(key, "v"),
			etcdserverpb.Compare_VALUE, etcdserverpb.Compare_EQUAL, []byte("v")},
		{"value not equal", predicate.ValueNotEqual(key, []byte("v")),
			etcdserverpb.Compare_VALUE, etcdserverpb.Compare_NOT_EQUAL, []byte("v")},
		{"version equal", predicate.VersionEqual(key, 123),
			etcdserverpb.Compare_MOD, etcdserverpb.Compare_EQUAL, int64(123)},
		{"version not equal", predicate.VersionNotEqual(key, 123),
			etcdserverpb.Compare_MOD, etcdserverpb.Compare_NOT_EQUAL, int64(123)},
		{"version greater", predicate.VersionGreater(key, 123),
			etcdserverpb.Compare_MOD, etcdserverpb.Compare_GREATER, int64(123)},
		{"version less", predicate.VersionLess(key, 123),
			etcdserverpb.Compare_MOD, etcdserverpb.Compare_LESS, int64(123)},
		{"absent", predicate.Absent(key),
			etcdserverpb.Compare_MOD, etcdserverpb.Compare_EQUAL, int64(0)},
		{"unchanged", predicate.Unchanged(key, 7),
			etcdserverpb.Compare_MOD, etcdserverpb.Compare_EQUAL, int64(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmp, err := predicateToCmp(tt.predicate)
			require.NoError(t, err)

			assert.Equal(t, tt.target, cmp.Target)
			assert.Equal(t, tt.result, cmp.Result)
			assert.Equal(t, key, cmp.KeyBytes())

			switch union := cmp.TargetUnion.(type) {
			case *etcdserverpb.Compare_Value:
				assert.Equal(t, tt.value, union.Value)
			case *etcdserverpb.Compare_ModRevision:
				assert.Equal(t, tt.value, union.ModRevision)
			default:
				t.Fatalf("unexpected target union %T", union)
			}
		})
	}
}

type badPredicate struct {
	target predicate.Target
	op     predicate.Op
	value  any
}

func (p badPredicate) Key() []byte              { return []byte("key") }
func (p badPredicate) Operation() predicate.Op  { return p.op }
func (p badPredicate) Target() predicate.Target { return p.target }
func (p badPredicate) Value() any               { return p.value }

func TestPredicateToCmp_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		predicate predicate.Predicate
		err       error
	}{
		{"value is not bytes",
			badPredicate{predicate.TargetValue, predicate.OpEqual, 1}, errValuePredicateRequiresBytes},
		{"ordered value compare",
			badPredicate{predicate.TargetValue, predicate.OpGreater, []byte("x")}, errUnsupportedValueOperation},
		{"version is not int64",
			badPredicate{predicate.TargetVersion, predicate.OpEqual, "1"}, errVersionPredicateRequiresInt},
		{"unknown version operation",
			badPredicate{predicate.TargetVersion, predicate.Op(99), int64(1)}, errUnsupportedVersionOperation},
		{"unknown target",
			badPredicate{predicate.Target(99), predicate.OpEqual, int64(1)}, errUnsupportedPredicateTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := predicatesToCmps([]predicate.Predicate{tt.predicate})
			require.ErrorIs(t, err, tt.err)
		})
	}
}
