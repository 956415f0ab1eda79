package histore

import (
	"math"
	"testing"
	"time"
)

func TestScalarEqualFloatBitExact(t *testing.T) {
	if !Float(1.5).Equal(Float(1.5)) {
		t.Fatalf("1.5 should equal 1.5")
	}
	if Float(0.0).Equal(Float(math.Copysign(0, -1))) {
		t.Fatalf("+0 and -0 have different bit patterns and must not be equal")
	}
}

func TestScalarEqualNaNIsNeverEqual(t *testing.T) {
	nan := Float(math.NaN())
	if nan.Equal(nan) {
		t.Fatalf("NaN must not equal itself")
	}
}

func TestScalarEqualTimeByInstant(t *testing.T) {
	a := Time(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	b := Time(time.Date(2019, 12, 31, 19, 0, 0, 0, time.FixedZone("EST", -5*3600)))
	if !a.Equal(b) {
		t.Fatalf("times representing the same instant in different zones should be equal")
	}
}

func TestScalarLessNullSortsFirst(t *testing.T) {
	if !Null.Less(Int(0)) {
		t.Fatalf("Null should sort before any non-null value")
	}
	if Int(0).Less(Null) {
		t.Fatalf("non-null should not sort before Null")
	}
}

func TestKeyLess(t *testing.T) {
	a := Key{Text("Alice")}
	b := Key{Text("Bob")}
	if !a.Less(b) {
		t.Fatalf("Alice should sort before Bob")
	}
	if b.Less(a) {
		t.Fatalf("Bob should not sort before Alice")
	}
}
