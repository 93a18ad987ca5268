package object

import "github.com/nyxlang/nyx/internal/jsvalue"

// BoundData is the Extra payload for a bound function (spec.md §4.2
// "Bound function forwards call/construct to the target, prepending
// bound-arguments").
type BoundData struct {
	Target    *Object
	BoundThis jsvalue.Value
	BoundArgs []jsvalue.Value
}

// NewBoundFunction wraps target with a fixed `this` and a prefix of
// bound arguments.
func NewBoundFunction(proto, target *Object, boundThis jsvalue.Value, boundArgs []jsvalue.Value) *Object {
	o := New(proto)
	o.Kind = KindBoundFunction
	o.Methods = OrdinaryMethods{}
	o.Extra = &BoundData{Target: target, BoundThis: boundThis, BoundArgs: boundArgs}

	o.Call = func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		all := append(append([]jsvalue.Value{}, boundArgs...), args...)
		return target.Call(boundThis, all)
	}
	if target.IsConstructor() {
		o.Construct = func(args []jsvalue.Value, newTarget *Object) (jsvalue.Value, error) {
			all := append(append([]jsvalue.Value{}, boundArgs...), args...)
			return target.Construct(all, newTarget)
		}
	}
	return o
}
