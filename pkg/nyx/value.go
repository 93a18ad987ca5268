package nyx

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
	"github.com/nyxlang/nyx/internal/vm"
)

// Value re-exports the engine's tagged value so embedders need not
// import internal packages.
type Value = jsvalue.Value

// Undefined and Null are the canonical singletons.
var (
	Undefined = jsvalue.Undefined
	Null      = jsvalue.Null
)

// Constructors (spec.md §6 "construct values").

func FromFloat64(f float64) Value { return jsvalue.Number(f) }
func FromBool(b bool) Value       { return jsvalue.Bool(b) }
func FromBigInt(i *big.Int) Value { return jsvalue.BigInt(i) }

// FromChars builds a string value on the engine's intern table.
func (e *Engine) FromChars(s string) Value {
	return jsvalue.Str(e.rt.Strings.Intern(s))
}

// Predicates (spec.md §6 "predicates (is-number/is-string/…)").

func IsUndefined(v Value) bool { return v.IsUndefined() }
func IsNull(v Value) bool      { return v.IsNull() }
func IsBool(v Value) bool      { return v.IsBool() }
func IsNumber(v Value) bool    { return v.IsNumber() }
func IsBigInt(v Value) bool    { return v.IsBigInt() }
func IsString(v Value) bool    { return v.IsString() }
func IsObject(v Value) bool    { return v.IsObject() }

// IsCallable reports whether v can be invoked.
func IsCallable(v Value) bool {
	o, _ := v.Ptr.(*object.Object)
	return o != nil && o.IsCallable()
}

// Extractors (spec.md §6 "extract primitive").

// ToNumber coerces v through the engine's abstract operation.
func (e *Engine) ToNumber(v Value) (float64, error) { return e.rt.ToNumber(v) }

// ToString coerces v through the engine's abstract operation
// (accessor-aware for objects).
func (e *Engine) ToString(v Value) (string, error) { return e.rt.ToString(v) }

// Call invokes a callable value with this and argv.
func (e *Engine) Call(fn, this Value, argv ...Value) (Value, error) {
	o, _ := fn.Ptr.(*object.Object)
	if o == nil || !o.IsCallable() {
		return Undefined, errNotCallable
	}
	v, err := o.Call(this, argv)
	e.rt.Jobs.Drain()
	return v, err
}

type notCallableError struct{}

func (notCallableError) Error() string { return "nyx: value is not callable" }

var errNotCallable = notCallableError{}

// ToString renders a primitive value canonically; objects render as
// their tag. For coercion with user-defined toString, use
// Engine.ToString.
func ToString(v Value) string {
	switch v.Kind {
	case jsvalue.KindNumber:
		return vm.NumberToString(v.Num())
	case jsvalue.KindString:
		return v.AsString().Content
	case jsvalue.KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case jsvalue.KindUndefined:
		return "undefined"
	case jsvalue.KindNull:
		return "null"
	case jsvalue.KindBigInt:
		if b, ok := v.Ptr.(*jsvalue.BigIntBox); ok {
			return b.I.String() + "n"
		}
		return "0n"
	default:
		return "[" + v.Kind.String() + "]"
	}
}

// FromString parses ToString's canonical primitive renderings back
// into values, so FromString(ToString(v)) is SameValueZero(v) for
// every primitive v (the round-trip law).
func FromString(s string) Value {
	switch s {
	case "undefined":
		return Undefined
	case "null":
		return Null
	case "true":
		return jsvalue.Bool(true)
	case "false":
		return jsvalue.Bool(false)
	case "NaN":
		return jsvalue.Number(math.NaN())
	case "Infinity":
		return jsvalue.Number(math.Inf(1))
	case "-Infinity":
		return jsvalue.Number(math.Inf(-1))
	}
	if strings.HasSuffix(s, "n") {
		if i, ok := new(big.Int).SetString(s[:len(s)-1], 10); ok {
			return jsvalue.BigInt(i)
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return jsvalue.Number(f)
	}
	return jsvalue.Str(&jsvalue.InternedString{Content: s, IndexValue: -1})
}
