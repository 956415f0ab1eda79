package histore

import "testing"

func TestSingleVersionValueMergeSameValueExtends(t *testing.T) {
	v := NewSingleVersionValue(Int(32), TimestampOf(0))
	merged := v.Merge(Int(32), 1)
	sv, ok := merged.(SingleVersionValue)
	if !ok {
		t.Fatalf("merging an equal value should stay single-version, got %T", merged)
	}
	if got, want := sv.Timestamp().String(), "0-1"; got != want {
		t.Fatalf("Timestamp() = %q, want %q", got, want)
	}
}

func TestSingleVersionValueMergeDifferentValueBecomesMulti(t *testing.T) {
	v := NewSingleVersionValue(Int(32), TimestampOf(0))
	merged := v.Merge(Int(33), 1)
	mv, ok := merged.(MultiVersionValue)
	if !ok {
		t.Fatalf("merging a different value should become multi-version, got %T", merged)
	}
	if len(mv.Values()) != 2 {
		t.Fatalf("expected 2 timestamped values, got %d", len(mv.Values()))
	}
}

func TestMultiVersionValueMergeRecurringValueExtendsExistingEntry(t *testing.T) {
	mv := MultiVersionValue{values: []TimestampedValue{
		{Value: Int(32), Timestamp: TimestampOf(0)},
		{Value: Int(33), Timestamp: TimestampOf(1)},
	}}
	merged := mv.Merge(Int(32), 2).(MultiVersionValue)
	if len(merged.Values()) != 2 {
		t.Fatalf("recurring value should not grow the entry count, got %d entries", len(merged.Values()))
	}
	scalar, ok := merged.AtVersion(2)
	if !ok || !scalar.Equal(Int(32)) {
		t.Fatalf("AtVersion(2) = %v, %v, want 32, true", scalar, ok)
	}
}

func TestMultiVersionValueAtVersionUnknown(t *testing.T) {
	mv := MultiVersionValue{values: []TimestampedValue{
		{Value: Int(1), Timestamp: TimestampOf(0)},
	}}
	if _, ok := mv.AtVersion(5); ok {
		t.Fatalf("AtVersion(5) should report false for a version outside the timestamp")
	}
}

func TestArchiveValueExtendNoopWhenOriginAbsent(t *testing.T) {
	v := NewSingleVersionValue(Int(1), TimestampOf(0))
	extended := v.Extend(1, 5)
	if !extended.Timestamp().IsEqual(v.Timestamp()) {
		t.Fatalf("Extend with an absent origin should be a no-op")
	}
}

func TestArchiveValueDiff(t *testing.T) {
	v := NewSingleVersionValue(Int(1), TimestampOf(0)).Merge(Int(2), 1)
	if d := v.Diff(0, 1); d == nil || !d.Old.Equal(Int(1)) || !d.New.Equal(Int(2)) {
		t.Fatalf("Diff(0,1) = %v, want {1 2}", d)
	}
	if d := v.Diff(0, 0); d != nil {
		t.Fatalf("Diff(0,0) = %v, want nil", d)
	}
}
