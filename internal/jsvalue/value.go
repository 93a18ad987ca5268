// Package jsvalue implements the tagged-union value representation
// spec.md §3 describes: undefined, null, boolean, number, big-integer,
// string, symbol, private-name, object. It follows the teacher's
// bytecode.Value{Data interface{}, Type ValueType} tag shape but keeps
// numbers unboxed in a concrete struct rather than behind interface{},
// matching spec.md §3's "tagged variant" wording more closely.
package jsvalue

import (
	"math"
	"math/big"
)

// Kind is the discriminant of a Value.
type Kind byte

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindBigInt
	KindString
	KindSymbol
	KindPrivateName
	KindObject
)

var kindNames = [...]string{
	KindUndefined:   "undefined",
	KindNull:        "null",
	KindBool:        "boolean",
	KindNumber:      "number",
	KindBigInt:      "bigint",
	KindString:      "string",
	KindSymbol:      "symbol",
	KindPrivateName: "private-name",
	KindObject:      "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// HeapRef is satisfied by any heap-allocated payload a Value can point
// at: *object.Object (referenced here only by identity through the Ptr
// field to avoid an import cycle), *InternedString, *Symbol, or
// *PrivateName. The Value layer does not need to know the concrete
// type: the GC's scan callback and the object package are the only
// consumers that type-assert Ptr. HeapThing is exported (rather than
// an unexported marker method) precisely so internal/object, defined
// in a different package, can satisfy this interface.
type HeapRef interface {
	HeapThing()
}

// Value is the tagged union. Numbers are unboxed (spec.md §3's IEEE-754
// double, with +0/-0 and NaN handled explicitly by Is/SameValue below);
// every other variant is a pointer into the GC-managed heap.
type Value struct {
	Kind Kind
	num  float64
	b    bool
	Ptr  HeapRef
}

// Undefined is the canonical undefined value.
var Undefined = Value{Kind: KindUndefined}

// Null is the canonical null value.
var Null = Value{Kind: KindNull}

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, b: b} }

// Number constructs a number Value from a float64.
func Number(f float64) Value { return Value{Kind: KindNumber, num: f} }

// BigInt constructs a big-integer Value.
func BigInt(i *big.Int) Value { return Value{Kind: KindBigInt, Ptr: &BigIntBox{I: i}} }

// BigIntBox is the heap payload for a KindBigInt value.
type BigIntBox struct{ I *big.Int }

func (*BigIntBox) HeapThing() {}

// Str constructs a string Value from an already-interned string.
func Str(s *InternedString) Value { return Value{Kind: KindString, Ptr: s} }

// Object constructs an object Value wrapping a heap reference whose
// concrete type is internal/object.Object.
func Object(o HeapRef) Value { return Value{Kind: KindObject, Ptr: o} }

// Symbol constructs a symbol Value.
func SymbolValue(s *Symbol) Value { return Value{Kind: KindSymbol, Ptr: s} }

// PrivateNameValue constructs a private-name Value.
func PrivateNameValue(p *PrivateName) Value { return Value{Kind: KindPrivateName, Ptr: p} }

// Symbol is a heap thing with unique identity (spec.md §3).
type Symbol struct {
	Description string
	registered  bool // true for Symbol.for() registry symbols
}

func (*Symbol) HeapThing() {}

// NewSymbol allocates a fresh, non-registered symbol.
func NewSymbol(desc string) *Symbol { return &Symbol{Description: desc} }

// CanBeHeldWeakly reports spec.md §4.1's weak-reference eligibility
// rule: an object, or a non-registered symbol.
func (v Value) CanBeHeldWeakly() bool {
	if v.Kind == KindObject {
		return true
	}
	if v.Kind == KindSymbol {
		if s, ok := v.Ptr.(*Symbol); ok {
			return !s.registered
		}
	}
	return false
}

// PrivateName is a `#name` scoped identity, distinct from any string
// or symbol property key (spec.md §9).
type PrivateName struct {
	Description string
	Kind        string // "field", "method", "accessor"
}

func (*PrivateName) HeapThing() {}

// IsUndefined, IsNull, ... small predicates mirroring the embedder API
// shape (spec.md §6 "predicates (is-number/is-string/…)").
func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }
func (v Value) IsNull() bool      { return v.Kind == KindNull }
func (v Value) IsNullish() bool   { return v.Kind == KindUndefined || v.Kind == KindNull }
func (v Value) IsBool() bool      { return v.Kind == KindBool }
func (v Value) IsNumber() bool    { return v.Kind == KindNumber }
func (v Value) IsBigInt() bool    { return v.Kind == KindBigInt }
func (v Value) IsString() bool    { return v.Kind == KindString }
func (v Value) IsSymbol() bool    { return v.Kind == KindSymbol }
func (v Value) IsObject() bool    { return v.Kind == KindObject }

// Bool unwraps a boolean Value. Callers must check IsBool first.
func (v Value) AsBool() bool { return v.b }

// Num unwraps a number Value. Callers must check IsNumber first.
func (v Value) Num() float64 { return v.num }

// Str unwraps a string Value's interned string. Callers must check
// IsString first.
func (v Value) AsString() *InternedString {
	s, _ := v.Ptr.(*InternedString)
	return s
}

// ToBoolean implements the abstract ToBoolean coercion used by
// conditional branches and the logical operators.
func (v Value) ToBoolean() bool {
	switch v.Kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBigInt:
		if b, ok := v.Ptr.(*BigIntBox); ok {
			return b.I.Sign() != 0
		}
		return false
	case KindString:
		s := v.AsString()
		return s != nil && len(s.UTF16) > 0
	default:
		return true // symbol, private-name, object are always truthy
	}
}

// SameValueZero implements the equality relation used by collection
// keys (spec.md §3): NaN equals NaN, but +0 and -0 are also equal
// (distinguishing them is reserved for strict SameValue, not used by
// Map/Set/WeakMap key comparison).
func SameValueZero(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		return a.num == b.num
	case KindBigInt:
		ab, _ := a.Ptr.(*BigIntBox)
		bb, _ := b.Ptr.(*BigIntBox)
		if ab == nil || bb == nil {
			return false
		}
		return ab.I.Cmp(bb.I) == 0
	case KindString:
		as, bs := a.AsString(), b.AsString()
		return as != nil && bs != nil && as.Content == bs.Content
	default:
		return a.Ptr == b.Ptr
	}
}

// SameValue implements SameValue (distinguishes +0 from -0, unlike
// SameValueZero), spec.md §3.
func SameValue(a, b Value) bool {
	if a.Kind == KindNumber && b.Kind == KindNumber {
		if math.IsNaN(a.num) && math.IsNaN(b.num) {
			return true
		}
		if a.num == 0 && b.num == 0 {
			return math.Signbit(a.num) == math.Signbit(b.num)
		}
	}
	return SameValueZero(a, b)
}

// TypeOf implements the `typeof` operator's string result.
func (v Value) TypeOf() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindBigInt:
		return "bigint"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	default:
		return "object"
	}
}
