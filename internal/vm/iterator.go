package vm

import (
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
)

// spreadData wraps an already-iterated argument spread so call
// instructions can splice it (the compiler's OpSpread marker).
type spreadData struct {
	values []jsvalue.Value
}

func (s *spreadData) ScanExtra(visit func(jsvalue.Value)) {
	for _, v := range s.values {
		visit(v)
	}
}

func (rt *Runtime) newSpreadMarker(vals []jsvalue.Value) jsvalue.Value {
	o := object.New(nil)
	o.Extra = &spreadData{values: vals}
	rt.track(o)
	return jsvalue.Object(o)
}

func spreadDataOf(v jsvalue.Value) *spreadData {
	o, _ := v.Ptr.(*object.Object)
	if o == nil {
		return nil
	}
	sd, _ := o.Extra.(*spreadData)
	return sd
}

// getIterator resolves a value's Symbol.iterator method and invokes
// it, returning the iterator object (the for-of/spread entry of the
// iterator protocol, spec.md §4.4).
func (rt *Runtime) getIterator(v jsvalue.Value) (jsvalue.Value, error) {
	method, err := rt.getValueProperty(v, jsvalue.KeyFromSymbol(rt.Realm.SymbolIterator))
	if err != nil {
		return jsvalue.Undefined, err
	}
	mo, _ := method.Ptr.(*object.Object)
	if mo == nil || !mo.IsCallable() {
		return jsvalue.Undefined, rt.typeError("%s is not iterable", describeThrown(v))
	}
	it, err := mo.Call(v, nil)
	if err != nil {
		return jsvalue.Undefined, rt.jsError(err)
	}
	if !it.IsObject() {
		return jsvalue.Undefined, rt.typeError("iterator result is not an object")
	}
	return it, nil
}

// iteratorNextRaw invokes the iterator's next method and returns the
// raw result object without unpacking it.
func (rt *Runtime) iteratorNextRaw(it jsvalue.Value) (jsvalue.Value, error) {
	nextV, err := rt.getValueProperty(it, rt.key("next"))
	if err != nil {
		return jsvalue.Undefined, err
	}
	next, _ := nextV.Ptr.(*object.Object)
	if next == nil || !next.IsCallable() {
		return jsvalue.Undefined, rt.typeError("iterator has no next method")
	}
	res, err := next.Call(it, nil)
	if err != nil {
		return jsvalue.Undefined, rt.jsError(err)
	}
	return res, nil
}

// unpackIterResult reads {value, done} off an iterator result object.
func (rt *Runtime) unpackIterResult(res jsvalue.Value) (jsvalue.Value, bool, error) {
	if !res.IsObject() {
		return jsvalue.Undefined, false, rt.typeError("iterator result is not an object")
	}
	doneV, err := rt.getValueProperty(res, rt.key("done"))
	if err != nil {
		return jsvalue.Undefined, false, err
	}
	value, err := rt.getValueProperty(res, rt.key("value"))
	if err != nil {
		return jsvalue.Undefined, false, err
	}
	return value, doneV.ToBoolean(), nil
}

// iteratorStep advances an iterator one result: (value, done).
func (rt *Runtime) iteratorStep(it jsvalue.Value) (jsvalue.Value, bool, error) {
	res, err := rt.iteratorNextRaw(it)
	if err != nil {
		return jsvalue.Undefined, false, err
	}
	return rt.unpackIterResult(res)
}

// iteratorMethod looks up an optional protocol method (return/throw).
func (rt *Runtime) iteratorMethod(it jsvalue.Value, name string) *object.Object {
	v, err := rt.getValueProperty(it, rt.key(name))
	if err != nil {
		return nil
	}
	o, _ := v.Ptr.(*object.Object)
	if o == nil || !o.IsCallable() {
		return nil
	}
	return o
}

// iteratorClose invokes the iterator's return method if present;
// close failures are swallowed, matching loop-exit semantics.
func (rt *Runtime) iteratorClose(it jsvalue.Value) {
	if m := rt.iteratorMethod(it, "return"); m != nil {
		_, _ = m.Call(it, nil)
	}
}

// iterateToSlice drains an iterable into a Go slice (spread
// arguments, array spread, rest elements).
func (rt *Runtime) iterateToSlice(v jsvalue.Value) ([]jsvalue.Value, error) {
	it, err := rt.getIterator(v)
	if err != nil {
		return nil, err
	}
	var out []jsvalue.Value
	for {
		value, done, err := rt.iteratorStep(it)
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
		out = append(out, value)
	}
}

// iterResult builds a {value, done} result object.
func (rt *Runtime) iterResult(value jsvalue.Value, done bool) jsvalue.Value {
	o := rt.NewObject()
	o.DefineOwnProperty(rt.key("value"), object.Property{Value: value, Writable: true, Enumerable: true, Configurable: true})
	o.DefineOwnProperty(rt.key("done"), object.Property{Value: jsvalue.Bool(done), Writable: true, Enumerable: true, Configurable: true})
	return jsvalue.Object(o)
}

// forInData is the enumerator state behind OpForInStart/OpForInNext:
// own-then-inherited enumerable string keys, shadow-aware, snapshot
// at loop entry.
type forInData struct {
	keys []string
	idx  int
}

func (*forInData) ScanExtra(func(jsvalue.Value)) {}

// newForInEnumerator snapshots the for-in key order: integer indices
// ascending, then strings in insertion order, per prototype level,
// skipping shadowed and non-enumerable entries.
func (rt *Runtime) newForInEnumerator(v jsvalue.Value) (jsvalue.Value, error) {
	holder := object.New(nil)
	data := &forInData{}
	holder.Extra = data
	rt.track(holder)

	if v.IsNullish() {
		return jsvalue.Object(holder), nil
	}
	o, _ := v.Ptr.(*object.Object)
	if o == nil {
		return jsvalue.Object(holder), nil
	}

	seen := make(map[string]bool)
	for cur := o; cur != nil; cur = cur.GetPrototypeOf() {
		for _, key := range cur.OwnPropertyKeys() {
			if key.Kind == jsvalue.PropKeySymbol || key.Kind == jsvalue.PropKeyPrivate {
				continue
			}
			name := key.String()
			if seen[name] {
				continue
			}
			seen[name] = true
			p, ok := cur.GetOwnProperty(key)
			if !ok || !p.Enumerable {
				continue
			}
			data.keys = append(data.keys, name)
		}
	}
	return jsvalue.Object(holder), nil
}

func forInNext(en jsvalue.Value) (string, bool) {
	o, _ := en.Ptr.(*object.Object)
	if o == nil {
		return "", true
	}
	data, _ := o.Extra.(*forInData)
	if data == nil || data.idx >= len(data.keys) {
		return "", true
	}
	k := data.keys[data.idx]
	data.idx++
	return k, false
}
