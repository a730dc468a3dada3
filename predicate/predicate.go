// Package predicate provides types and interfaces for conditional operations.
// It defines predicate logic used in transactional conditional execution.
//
// Version predicates compare the mod revision of a key. A key that does not
// exist has revision 0, so VersionEqual(key, 0) holds exactly when the key
// is absent. Drivers must follow this rule.
package predicate

// Op represents the comparison operation type for predicates.
type Op int

const (
	// OpEqual represents equality comparison.
	OpEqual Op = iota
	// OpNotEqual represents inequality comparison.
	OpNotEqual
	// OpGreater represents greater than comparison.
	OpGreater
	// OpLess represents less than comparison.
	OpLess
)

func (op Op) String() string {
	switch op {
	case OpEqual:
		return "Equal"
	case OpNotEqual:
		return "NotEqual"
	case OpGreater:
		return "Greater"
	case OpLess:
		return "Less"
	default:
		return "Unknown"
	}
}

// Target represents what aspect of a key to compare in predicates.
type Target int

const (
	// TargetVersion compares the mod revision of the key.
	TargetVersion Target = iota
	// TargetValue compares the value of the key.
	TargetValue
)

func (t Target) String() string {
	switch t {
	case TargetVersion:
		return "Version"
	case TargetValue:
		return "Value"
	default:
		return "Unknown"
	}
}

// Predicate represents a condition used for conditional operations.
// Predicates are used in transactions to specify conditions for execution.
type Predicate interface {
	// Key returns the key that this predicate applies to.
	Key() []byte
	// Operation returns the comparison operation (Equal, NotEqual, Greater, Less).
	Operation() Op
	// Target returns what aspect of the key to compare (Version, Value).
	Target() Target
	// Value returns the comparison value for the predicate.
	// It is an int64 for version predicates and []byte for value predicates.
	Value() any
}

type predicate struct {
	key    []byte
	op     Op
	target Target
	value  any
}

func (p predicate) Key() []byte    { return p.key }
func (p predicate) Operation() Op  { return p.op }
func (p predicate) Target() Target { return p.target }
func (p predicate) Value() any     { return p.value }

func newValue(key []byte, op Op, value any) Predicate {
	if s, ok := value.(string); ok {
		value = []byte(s)
	}

	return predicate{key: key, op: op, target: TargetValue, value: value}
}

// ValueEqual holds when the key exists and its value equals value.
func ValueEqual(key []byte, value any) Predicate {
	return newValue(key, OpEqual, value)
}

// ValueNotEqual holds when the key is absent or its value differs from value.
func ValueNotEqual(key []byte, value any) Predicate {
	return newValue(key, OpNotEqual, value)
}

// VersionEqual holds when the mod revision of key equals version.
func VersionEqual(key []byte, version int64) Predicate {
	return predicate{key: key, op: OpEqual, target: TargetVersion, value: version}
}

// VersionNotEqual holds when the mod revision of key differs from version.
func VersionNotEqual(key []byte, version int64) Predicate {
	return predicate{key: key, op: OpNotEqual, target: TargetVersion, value: version}
}

// VersionGreater holds when the mod revision of key is greater than version.
func VersionGreater(key []byte, version int64) Predicate {
	return predicate{key: key, op: OpGreater, target: TargetVersion, value: version}
}

// VersionLess holds when the mod revision of key is less than version.
func VersionLess(key []byte, version int64) Predicate {
	return predicate{key: key, op: OpLess, target: TargetVersion, value: version}
}

// Absent holds when key does not exist.
func Absent(key []byte) Predicate {
	return VersionEqual(key, 0)
}

// Unchanged holds when key still has the revision it was read with.
// A revision of 0 means the key was absent when read.
func Unchanged(key []byte, revision int64) Predicate {
	return VersionEqual(key, revision)
}

// CompareVersion evaluates a version predicate operation against revision.
// Drivers that evaluate predicates locally share this rule.
func CompareVersion(op Op, revision, version int64) bool {
	switch op {
	case OpEqual:
		return revision == version
	case OpNotEqual:
		return revision != version
	case OpGreater:
		return revision > version
	case OpLess:
		return revision < version
	default:
		return false
	}
}
