package record

import (
	"cmp"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// CompareTime orders two version timestamps.
func CompareTime(a, b time.Time) int {
	return a.Compare(b)
}

// CompareTimestamp orders two protobuf timestamps. A missing timestamp sorts
// after every present one, so a record without a version never loses to a
// record that has one.
func CompareTimestamp(a, b *timestamppb.Timestamp) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	if c := cmp.Compare(a.GetSeconds(), b.GetSeconds()); c != 0 {
		return c
	}

	return cmp.Compare(a.GetNanos(), b.GetNanos())
}
