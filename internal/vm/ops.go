package vm

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
)

// ToPrimitive applies the ordinary OrdinaryToPrimitive order: valueOf
// then toString for the default/number hint, reversed for the string
// hint.
func (rt *Runtime) ToPrimitive(v jsvalue.Value, hint string) (jsvalue.Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	o, _ := v.Ptr.(*object.Object)
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		mv, err := o.Get(rt.key(name), v)
		if err != nil {
			return jsvalue.Undefined, rt.jsError(err)
		}
		if mv.IsObject() {
			m, _ := mv.Ptr.(*object.Object)
			if m.IsCallable() {
				res, err := m.Call(v, nil)
				if err != nil {
					return jsvalue.Undefined, rt.jsError(err)
				}
				if !res.IsObject() {
					return res, nil
				}
			}
		}
	}
	return jsvalue.Undefined, rt.typeError("cannot convert object to primitive value")
}

// ToNumber implements the abstract numeric coercion.
func (rt *Runtime) ToNumber(v jsvalue.Value) (float64, error) {
	switch v.Kind {
	case jsvalue.KindUndefined:
		return math.NaN(), nil
	case jsvalue.KindNull:
		return 0, nil
	case jsvalue.KindBool:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	case jsvalue.KindNumber:
		return v.Num(), nil
	case jsvalue.KindBigInt:
		return 0, rt.typeError("cannot convert a BigInt to a number")
	case jsvalue.KindString:
		return stringToNumber(v.AsString().Content), nil
	case jsvalue.KindSymbol:
		return 0, rt.typeError("cannot convert a Symbol to a number")
	default:
		prim, err := rt.ToPrimitive(v, "number")
		if err != nil {
			return 0, err
		}
		return rt.ToNumber(prim)
	}
}

func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		n, err := strconv.ParseUint(t[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		if t == "Infinity" || t == "+Infinity" {
			return math.Inf(1)
		}
		if t == "-Infinity" {
			return math.Inf(-1)
		}
		return math.NaN()
	}
	return f
}

// ToString implements the abstract string coercion. Symbols throw.
func (rt *Runtime) ToString(v jsvalue.Value) (string, error) {
	switch v.Kind {
	case jsvalue.KindUndefined:
		return "undefined", nil
	case jsvalue.KindNull:
		return "null", nil
	case jsvalue.KindBool:
		if v.AsBool() {
			return "true", nil
		}
		return "false", nil
	case jsvalue.KindNumber:
		return NumberToString(v.Num()), nil
	case jsvalue.KindBigInt:
		b, _ := v.Ptr.(*jsvalue.BigIntBox)
		return b.I.String(), nil
	case jsvalue.KindString:
		return v.AsString().Content, nil
	case jsvalue.KindSymbol:
		return "", rt.typeError("cannot convert a Symbol to a string")
	default:
		prim, err := rt.ToPrimitive(v, "string")
		if err != nil {
			return "", err
		}
		return rt.ToString(prim)
	}
}

// NumberToString renders a float64 the way JS Number::toString does
// for the common ranges: integral values without a fraction, the
// shortest round-tripping decimal otherwise, exponent form for the
// extremes.
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		return fixExponent(s)
	}
	if abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		return fixExponent(s)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// fixExponent converts Go's "1e+21"/"1.5e-07" exponent spelling to
// JS's "1e+21"/"1.5e-7" (no leading zero in the exponent).
func fixExponent(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 {
		return s
	}
	mant, exp := s[:i], s[i+1:]
	sign := ""
	if len(exp) > 0 && (exp[0] == '+' || exp[0] == '-') {
		sign = string(exp[0])
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + sign + exp
}

// ToPropertyKey canonicalizes a value into a property key, coercing
// non-symbol values through ToString.
func (rt *Runtime) ToPropertyKey(v jsvalue.Value) (jsvalue.PropertyKey, error) {
	if v.Kind == jsvalue.KindSymbol {
		return jsvalue.KeyFromValue(v), nil
	}
	if v.Kind == jsvalue.KindPrivateName {
		return jsvalue.KeyFromValue(v), nil
	}
	s, err := rt.ToString(v)
	if err != nil {
		return jsvalue.PropertyKey{}, err
	}
	return jsvalue.KeyFromString(rt.Strings.Intern(s)), nil
}

func bigOf(v jsvalue.Value) *big.Int {
	b, _ := v.Ptr.(*jsvalue.BigIntBox)
	if b == nil {
		return nil
	}
	return b.I
}

// add implements the `+` operator: string concatenation when either
// primitive side is a string, BigInt addition when both are BigInts,
// numeric addition otherwise.
func (rt *Runtime) add(a, b jsvalue.Value) (jsvalue.Value, error) {
	pa, err := rt.ToPrimitive(a, "default")
	if err != nil {
		return jsvalue.Undefined, err
	}
	pb, err := rt.ToPrimitive(b, "default")
	if err != nil {
		return jsvalue.Undefined, err
	}
	if pa.IsString() || pb.IsString() {
		sa, err := rt.ToString(pa)
		if err != nil {
			return jsvalue.Undefined, err
		}
		sb, err := rt.ToString(pb)
		if err != nil {
			return jsvalue.Undefined, err
		}
		return rt.str(sa + sb), nil
	}
	if pa.IsBigInt() || pb.IsBigInt() {
		if !pa.IsBigInt() || !pb.IsBigInt() {
			return jsvalue.Undefined, rt.typeError("cannot mix BigInt and other types")
		}
		return jsvalue.BigInt(new(big.Int).Add(bigOf(pa), bigOf(pb))), nil
	}
	na, err := rt.ToNumber(pa)
	if err != nil {
		return jsvalue.Undefined, err
	}
	nb, err := rt.ToNumber(pb)
	if err != nil {
		return jsvalue.Undefined, err
	}
	return jsvalue.Number(na + nb), nil
}

// numericBinary evaluates the arithmetic operators with the BigInt
// branch spec.md §4.4 calls out (including exponentiation).
func (rt *Runtime) numericBinary(op string, a, b jsvalue.Value) (jsvalue.Value, error) {
	if a.IsBigInt() || b.IsBigInt() {
		if !a.IsBigInt() || !b.IsBigInt() {
			return jsvalue.Undefined, rt.typeError("cannot mix BigInt and other types")
		}
		x, y := bigOf(a), bigOf(b)
		z := new(big.Int)
		switch op {
		case "-":
			z.Sub(x, y)
		case "*":
			z.Mul(x, y)
		case "/":
			if y.Sign() == 0 {
				return jsvalue.Undefined, rt.rangeError("division by zero")
			}
			z.Quo(x, y)
		case "%":
			if y.Sign() == 0 {
				return jsvalue.Undefined, rt.rangeError("division by zero")
			}
			z.Rem(x, y)
		case "**":
			if y.Sign() < 0 {
				return jsvalue.Undefined, rt.rangeError("exponent must be non-negative")
			}
			z.Exp(x, y, nil)
		default:
			return jsvalue.Undefined, rt.typeError("unsupported BigInt operator %q", op)
		}
		return jsvalue.BigInt(z), nil
	}

	x, err := rt.ToNumber(a)
	if err != nil {
		return jsvalue.Undefined, err
	}
	y, err := rt.ToNumber(b)
	if err != nil {
		return jsvalue.Undefined, err
	}
	switch op {
	case "-":
		return jsvalue.Number(x - y), nil
	case "*":
		return jsvalue.Number(x * y), nil
	case "/":
		return jsvalue.Number(x / y), nil
	case "%":
		return jsvalue.Number(math.Mod(x, y)), nil
	case "**":
		return jsvalue.Number(math.Pow(x, y)), nil
	}
	return jsvalue.Undefined, rt.typeError("unsupported operator %q", op)
}

// toInt32/toUint32 implement the bitwise operand coercions.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Trunc(f))))
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return uint32(int64(math.Trunc(f)))
}

func (rt *Runtime) bitwiseBinary(op string, a, b jsvalue.Value) (jsvalue.Value, error) {
	x, err := rt.ToNumber(a)
	if err != nil {
		return jsvalue.Undefined, err
	}
	y, err := rt.ToNumber(b)
	if err != nil {
		return jsvalue.Undefined, err
	}
	ix, iy := toInt32(x), toInt32(y)
	switch op {
	case "&":
		return jsvalue.Number(float64(ix & iy)), nil
	case "|":
		return jsvalue.Number(float64(ix | iy)), nil
	case "^":
		return jsvalue.Number(float64(ix ^ iy)), nil
	case "<<":
		return jsvalue.Number(float64(ix << (uint32(iy) & 31))), nil
	case ">>":
		return jsvalue.Number(float64(ix >> (uint32(iy) & 31))), nil
	case ">>>":
		return jsvalue.Number(float64(toUint32(x) >> (uint32(iy) & 31))), nil
	}
	return jsvalue.Undefined, rt.typeError("unsupported operator %q", op)
}

// compare evaluates the relational operators. lessFn receives the
// operands already coerced to primitives.
func (rt *Runtime) compare(op string, a, b jsvalue.Value) (jsvalue.Value, error) {
	pa, err := rt.ToPrimitive(a, "number")
	if err != nil {
		return jsvalue.Undefined, err
	}
	pb, err := rt.ToPrimitive(b, "number")
	if err != nil {
		return jsvalue.Undefined, err
	}
	if pa.IsString() && pb.IsString() {
		sa, sb := pa.AsString().Content, pb.AsString().Content
		switch op {
		case "<":
			return jsvalue.Bool(sa < sb), nil
		case "<=":
			return jsvalue.Bool(sa <= sb), nil
		case ">":
			return jsvalue.Bool(sa > sb), nil
		case ">=":
			return jsvalue.Bool(sa >= sb), nil
		}
	}
	if pa.IsBigInt() && pb.IsBigInt() {
		c := bigOf(pa).Cmp(bigOf(pb))
		switch op {
		case "<":
			return jsvalue.Bool(c < 0), nil
		case "<=":
			return jsvalue.Bool(c <= 0), nil
		case ">":
			return jsvalue.Bool(c > 0), nil
		case ">=":
			return jsvalue.Bool(c >= 0), nil
		}
	}
	na, err := rt.ToNumber(pa)
	if err != nil {
		return jsvalue.Undefined, err
	}
	nb, err := rt.ToNumber(pb)
	if err != nil {
		return jsvalue.Undefined, err
	}
	if math.IsNaN(na) || math.IsNaN(nb) {
		return jsvalue.Bool(false), nil
	}
	switch op {
	case "<":
		return jsvalue.Bool(na < nb), nil
	case "<=":
		return jsvalue.Bool(na <= nb), nil
	case ">":
		return jsvalue.Bool(na > nb), nil
	case ">=":
		return jsvalue.Bool(na >= nb), nil
	}
	return jsvalue.Undefined, rt.typeError("unsupported comparison %q", op)
}

// strictEquals implements `===`.
func strictEquals(a, b jsvalue.Value) bool {
	if a.Kind == jsvalue.KindNumber && b.Kind == jsvalue.KindNumber {
		return a.Num() == b.Num() // NaN != NaN, +0 == -0
	}
	if a.Kind != b.Kind {
		return false
	}
	return jsvalue.SameValueZero(a, b)
}

// looseEquals implements `==` with the standard coercion ladder.
func (rt *Runtime) looseEquals(a, b jsvalue.Value) (bool, error) {
	if a.Kind == b.Kind {
		return strictEquals(a, b), nil
	}
	switch {
	case a.IsNullish() && b.IsNullish():
		return true, nil
	case a.IsNullish() || b.IsNullish():
		return false, nil
	case a.IsNumber() && b.IsString():
		return a.Num() == stringToNumber(b.AsString().Content), nil
	case a.IsString() && b.IsNumber():
		return stringToNumber(a.AsString().Content) == b.Num(), nil
	case a.IsBool():
		n := 0.0
		if a.AsBool() {
			n = 1
		}
		return rt.looseEquals(jsvalue.Number(n), b)
	case b.IsBool():
		n := 0.0
		if b.AsBool() {
			n = 1
		}
		return rt.looseEquals(a, jsvalue.Number(n))
	case a.IsObject() && !b.IsObject():
		pa, err := rt.ToPrimitive(a, "default")
		if err != nil {
			return false, err
		}
		return rt.looseEquals(pa, b)
	case b.IsObject() && !a.IsObject():
		pb, err := rt.ToPrimitive(b, "default")
		if err != nil {
			return false, err
		}
		return rt.looseEquals(a, pb)
	}
	return false, nil
}

// instanceOf walks the prototype chain against the constructor's
// `prototype` property.
func (rt *Runtime) instanceOf(v, ctor jsvalue.Value) (bool, error) {
	if !ctor.IsObject() {
		return false, rt.typeError("right-hand side of 'instanceof' is not callable")
	}
	c, _ := ctor.Ptr.(*object.Object)
	if !c.IsCallable() {
		return false, rt.typeError("right-hand side of 'instanceof' is not callable")
	}
	if !v.IsObject() {
		return false, nil
	}
	protoV, err := c.Get(rt.key("prototype"), ctor)
	if err != nil {
		return false, rt.jsError(err)
	}
	protoObj, _ := protoV.Ptr.(*object.Object)
	if protoObj == nil {
		return false, rt.typeError("constructor has no prototype object")
	}
	o, _ := v.Ptr.(*object.Object)
	for p := o.GetPrototypeOf(); p != nil; p = p.GetPrototypeOf() {
		if p == protoObj {
			return true, nil
		}
	}
	return false, nil
}
