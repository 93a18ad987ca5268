package jsvalue

import (
	"math"
	"testing"
)

func TestSameValueZero_NaNAndZero(t *testing.T) {
	nan := Number(math.NaN())
	if !SameValueZero(nan, nan) {
		t.Error("SameValueZero(NaN, NaN) should be true")
	}
	if !SameValueZero(Number(0), Number(math.Copysign(0, -1))) {
		t.Error("SameValueZero(+0, -0) should be true")
	}
	if !SameValue(nan, nan) {
		t.Error("SameValue(NaN, NaN) should be true")
	}
	if SameValue(Number(0), Number(math.Copysign(0, -1))) {
		t.Error("SameValue(+0, -0) should be false")
	}
}

func TestPropertyKeyCanonicalIndex(t *testing.T) {
	table := NewStringTable()

	tests := []struct {
		s    string
		want int64
	}{
		{"0", 0},
		{"42", 42},
		{"100000", 100000},
		{"01", -1},  // leading zero disqualifies
		{"-1", -1},  // negative disqualifies
		{"abc", -1}, // non-numeric
		{"", -1},
	}
	for _, tt := range tests {
		s := table.Intern(tt.s)
		if s.IndexValue != tt.want {
			t.Errorf("IndexValue(%q) = %d, want %d", tt.s, s.IndexValue, tt.want)
		}
	}
}

func TestKeyFromStringRoundTrip(t *testing.T) {
	table := NewStringTable()
	key := KeyFromString(table.Intern("100000"))
	if key.Kind != PropKeyIndex || key.Index != 100000 {
		t.Errorf("KeyFromString(\"100000\") = %+v, want index key 100000", key)
	}
	if key.String() != "100000" {
		t.Errorf("String() = %q, want \"100000\"", key.String())
	}
}

func TestToBoolean(t *testing.T) {
	table := NewStringTable()
	tests := []struct {
		v    Value
		want bool
	}{
		{Undefined, false},
		{Null, false},
		{Bool(false), false},
		{Bool(true), true},
		{Number(0), false},
		{Number(math.NaN()), false},
		{Number(1), true},
		{Str(table.Intern("")), false},
		{Str(table.Intern("x")), true},
	}
	for _, tt := range tests {
		if got := tt.v.ToBoolean(); got != tt.want {
			t.Errorf("ToBoolean(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
