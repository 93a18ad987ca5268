package vm

import (
	"fmt"
	"math"
	"strings"

	"github.com/nyxlang/nyx/internal/coroutine"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
)

// installIntrinsics populates the realm with the surface the core
// machinery itself needs (iteration protocol, generator/promise
// prototypes, error constructors) plus the small set of constructors
// the embedder contract's scenarios rely on (Map, WeakMap, Proxy,
// Symbol, console). The full standard library is out of scope
// (spec.md §1) and would layer on the same hooks.
func (rt *Runtime) installIntrinsics(r *Realm) {
	rt.installObjectIntrinsics(r)
	rt.installIteratorIntrinsics(r)
	rt.installGeneratorIntrinsics(r)
	rt.installPromiseIntrinsics(r)
	rt.installCollectionIntrinsics(r)
	rt.installErrorIntrinsics(r)
	rt.installGlobals(r)
}

func (rt *Runtime) installObjectIntrinsics(r *Realm) {
	rt.defineBuiltin(r.ObjectProto, "hasOwnProperty", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		o, _ := this.Ptr.(*object.Object)
		if o == nil {
			return jsvalue.Bool(false), nil
		}
		key, err := rt.ToPropertyKey(argAt(args, 0))
		if err != nil {
			return jsvalue.Undefined, err
		}
		_, ok := o.GetOwnProperty(key)
		return jsvalue.Bool(ok), nil
	})
	rt.defineBuiltin(r.ObjectProto, "toString", 0, func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		return rt.str("[object Object]"), nil
	})
	rt.defineBuiltin(r.ObjectProto, "valueOf", 0, func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		return this, nil
	})

	// String prototype: the few methods primitive receivers reach for
	// in the core's own tests.
	rt.defineBuiltin(r.StringProto, "toUpperCase", 0, rt.stringMapMethod(strings.ToUpper))
	rt.defineBuiltin(r.StringProto, "toLowerCase", 0, rt.stringMapMethod(strings.ToLower))
	rt.defineBuiltin(r.StringProto, "indexOf", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		s, err := rt.ToString(this)
		if err != nil {
			return jsvalue.Undefined, err
		}
		needle, err := rt.ToString(argAt(args, 0))
		if err != nil {
			return jsvalue.Undefined, err
		}
		return jsvalue.Number(float64(strings.Index(s, needle))), nil
	})
	rt.defineBuiltin(r.StringProto, "toString", 0, func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		return this, nil
	})

	rt.defineBuiltin(r.NumberProto, "toString", 0, func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		s, err := rt.ToString(this)
		if err != nil {
			return jsvalue.Undefined, err
		}
		return rt.str(s), nil
	})

	// Array prototype.
	rt.defineBuiltin(r.ArrayProto, "push", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		arr, _ := this.Ptr.(*object.Object)
		if arr == nil {
			return jsvalue.Undefined, rt.typeError("Array.prototype.push called on non-object")
		}
		for _, v := range args {
			rt.arrayAppend(arr, v)
		}
		return jsvalue.Number(float64(object.Length(arr))), nil
	})
	rt.defineBuiltin(r.ArrayProto, "join", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		arr, _ := this.Ptr.(*object.Object)
		if arr == nil {
			return jsvalue.Undefined, rt.typeError("Array.prototype.join called on non-object")
		}
		sep := ","
		if len(args) > 0 && !args[0].IsUndefined() {
			var err error
			sep, err = rt.ToString(args[0])
			if err != nil {
				return jsvalue.Undefined, err
			}
		}
		n := object.Length(arr)
		parts := make([]string, 0, n)
		for i := int64(0); i < n; i++ {
			v, err := arr.Get(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: i}, this)
			if err != nil {
				return jsvalue.Undefined, rt.jsError(err)
			}
			if v.IsNullish() {
				parts = append(parts, "")
				continue
			}
			s, err := rt.ToString(v)
			if err != nil {
				return jsvalue.Undefined, err
			}
			parts = append(parts, s)
		}
		return rt.str(strings.Join(parts, sep)), nil
	})
	rt.defineBuiltinSym(r.ArrayProto, r.SymbolIterator, "[Symbol.iterator]", func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		arr, _ := this.Ptr.(*object.Object)
		if arr == nil {
			return jsvalue.Undefined, rt.typeError("array iterator on non-object")
		}
		i := int64(0)
		return rt.newStepIterator(func() (jsvalue.Value, bool, error) {
			if i >= object.Length(arr) {
				return jsvalue.Undefined, true, nil
			}
			v, err := arr.Get(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: i}, this)
			i++
			if err != nil {
				return jsvalue.Undefined, true, rt.jsError(err)
			}
			return v, false, nil
		}), nil
	})
}

// stringMapMethod wraps a Go string transform as a String.prototype
// method.
func (rt *Runtime) stringMapMethod(fn func(string) string) object.CallFunc {
	return func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		s, err := rt.ToString(this)
		if err != nil {
			return jsvalue.Undefined, err
		}
		return rt.str(fn(s)), nil
	}
}

// newStepIterator builds an iterator object over a Go step function.
func (rt *Runtime) newStepIterator(step func() (jsvalue.Value, bool, error)) jsvalue.Value {
	it := rt.track(object.New(rt.Realm.IteratorProto))
	rt.defineBuiltin(it, "next", 0, func(jsvalue.Value, []jsvalue.Value) (jsvalue.Value, error) {
		v, done, err := step()
		if err != nil {
			return jsvalue.Undefined, err
		}
		return rt.iterResult(v, done), nil
	})
	return jsvalue.Object(it)
}

func (rt *Runtime) installIteratorIntrinsics(r *Realm) {
	// %IteratorPrototype%[Symbol.iterator] returns the receiver, which
	// is what makes iterators themselves iterable (generator spread).
	rt.defineBuiltinSym(r.IteratorProto, r.SymbolIterator, "[Symbol.iterator]", func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		return this, nil
	})
}

func (rt *Runtime) installGeneratorIntrinsics(r *Realm) {
	genMethod := func(name string, typ coroutine.ReceivedType) {
		rt.defineBuiltin(r.GeneratorProto, name, 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
			gd := generatorDataOf(this)
			if gd == nil {
				return jsvalue.Undefined, rt.typeError("Generator.prototype.%s called on non-generator", name)
			}
			return rt.generatorResume(gd, typ, argAt(args, 0))
		})
	}
	genMethod("next", coroutine.ReceiveNext)
	genMethod("return", coroutine.ReceiveReturn)
	genMethod("throw", coroutine.ReceiveThrow)

	asyncMethod := func(name string, typ coroutine.ReceivedType) {
		rt.defineBuiltin(r.AsyncGeneratorProto, name, 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
			ag := asyncGenDataOf(this)
			if ag == nil {
				return jsvalue.Undefined, rt.typeError("AsyncGenerator.prototype.%s called on non-generator", name)
			}
			return rt.asyncGenEnqueue(ag, typ, argAt(args, 0)), nil
		})
	}
	asyncMethod("next", coroutine.ReceiveNext)
	asyncMethod("return", coroutine.ReceiveReturn)
	asyncMethod("throw", coroutine.ReceiveThrow)
	rt.defineBuiltinSym(r.AsyncGeneratorProto, r.SymbolAsyncIterator, "[Symbol.asyncIterator]", func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		return this, nil
	})
}

func (rt *Runtime) installPromiseIntrinsics(r *Realm) {
	rt.defineBuiltin(r.PromiseProto, "then", 2, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		o, _ := this.Ptr.(*object.Object)
		pd, _ := o.Extra.(*PromiseData)
		if pd == nil {
			return jsvalue.Undefined, rt.typeError("Promise.prototype.then called on non-promise")
		}
		derived := coroutine.NewPromise(rt.Jobs)
		onF, onR := argAt(args, 0), argAt(args, 1)
		pd.P.Then(
			rt.promiseReaction(derived, onF, false),
			rt.promiseReaction(derived, onR, true),
		)
		return jsvalue.Object(rt.NewPromiseObject(derived)), nil
	})
	rt.defineBuiltin(r.PromiseProto, "catch", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		o, _ := this.Ptr.(*object.Object)
		pd, _ := o.Extra.(*PromiseData)
		if pd == nil {
			return jsvalue.Undefined, rt.typeError("Promise.prototype.catch called on non-promise")
		}
		derived := coroutine.NewPromise(rt.Jobs)
		pd.P.Then(
			rt.promiseReaction(derived, jsvalue.Undefined, false),
			rt.promiseReaction(derived, argAt(args, 0), true),
		)
		return jsvalue.Object(rt.NewPromiseObject(derived)), nil
	})
}

// promiseReaction adapts a script callback into a reaction settling a
// derived promise; a missing callback passes the value (or rethrow)
// through.
func (rt *Runtime) promiseReaction(derived *coroutine.Promise, handler jsvalue.Value, isReject bool) func(jsvalue.Value) {
	return func(v jsvalue.Value) {
		h, _ := handler.Ptr.(*object.Object)
		if h == nil || !h.IsCallable() {
			if isReject {
				derived.Reject(v)
			} else {
				derived.Resolve(v)
			}
			return
		}
		res, err := h.Call(jsvalue.Undefined, []jsvalue.Value{v})
		if err != nil {
			if th, ok := rt.jsError(err).(*Thrown); ok {
				derived.Reject(th.Value)
			}
			return
		}
		rt.resolvePromise(derived, res)
	}
}

// mapData backs a Map instance: parallel key/value slices preserve
// insertion order, with SameValueZero key identity (spec.md §3).
type mapData struct {
	keys []jsvalue.Value
	vals []jsvalue.Value
}

func (md *mapData) ScanExtra(visit func(jsvalue.Value)) {
	for _, k := range md.keys {
		visit(k)
	}
	for _, v := range md.vals {
		visit(v)
	}
}

func (md *mapData) find(key jsvalue.Value) int {
	for i, k := range md.keys {
		if jsvalue.SameValueZero(k, key) {
			return i
		}
	}
	return -1
}

// weakMapData backs a WeakMap: entries keyed by object identity,
// pruned by the collector's weak-table sweep (spec.md §4.1).
type weakMapData struct {
	entries map[*object.Object]jsvalue.Value
}

// ScanExtra deliberately visits values only: keys must not be kept
// alive by the WeakMap itself. A value held for one extra cycle by a
// dying key is pruned by the weak sweep before user code observes it.
func (wd *weakMapData) ScanExtra(visit func(jsvalue.Value)) {
	for _, v := range wd.entries {
		visit(v)
	}
}

func (rt *Runtime) installCollectionIntrinsics(r *Realm) {
	mapDataOf := func(this jsvalue.Value) *mapData {
		o, _ := this.Ptr.(*object.Object)
		if o == nil {
			return nil
		}
		md, _ := o.Extra.(*mapData)
		return md
	}

	mapCtor := rt.NewNativeFunction("Map", 0, nil)
	mapCtor.Construct = func(args []jsvalue.Value, _ *object.Object) (jsvalue.Value, error) {
		o := object.New(r.MapProto)
		o.Kind = object.KindMapObject
		md := &mapData{}
		o.Extra = md
		rt.track(o)
		if len(args) > 0 && !args[0].IsNullish() {
			entries, err := rt.iterateToSlice(args[0])
			if err != nil {
				return jsvalue.Undefined, err
			}
			for _, entry := range entries {
				k, err := rt.getValueProperty(entry, jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: 0})
				if err != nil {
					return jsvalue.Undefined, err
				}
				v, err := rt.getValueProperty(entry, jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: 1})
				if err != nil {
					return jsvalue.Undefined, err
				}
				if i := md.find(k); i >= 0 {
					md.vals[i] = v
				} else {
					md.keys = append(md.keys, k)
					md.vals = append(md.vals, v)
				}
			}
		}
		return jsvalue.Object(o), nil
	}
	rt.defineGlobal("Map", jsvalue.Object(mapCtor))

	rt.defineBuiltin(r.MapProto, "get", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		md := mapDataOf(this)
		if md == nil {
			return jsvalue.Undefined, rt.typeError("Map.prototype.get called on non-map")
		}
		if i := md.find(argAt(args, 0)); i >= 0 {
			return md.vals[i], nil
		}
		return jsvalue.Undefined, nil
	})
	rt.defineBuiltin(r.MapProto, "set", 2, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		md := mapDataOf(this)
		if md == nil {
			return jsvalue.Undefined, rt.typeError("Map.prototype.set called on non-map")
		}
		k, v := argAt(args, 0), argAt(args, 1)
		if i := md.find(k); i >= 0 {
			md.vals[i] = v
		} else {
			md.keys = append(md.keys, k)
			md.vals = append(md.vals, v)
		}
		return this, nil
	})
	rt.defineBuiltin(r.MapProto, "has", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		md := mapDataOf(this)
		if md == nil {
			return jsvalue.Undefined, rt.typeError("Map.prototype.has called on non-map")
		}
		return jsvalue.Bool(md.find(argAt(args, 0)) >= 0), nil
	})
	rt.defineBuiltin(r.MapProto, "delete", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		md := mapDataOf(this)
		if md == nil {
			return jsvalue.Undefined, rt.typeError("Map.prototype.delete called on non-map")
		}
		i := md.find(argAt(args, 0))
		if i < 0 {
			return jsvalue.Bool(false), nil
		}
		md.keys = append(md.keys[:i], md.keys[i+1:]...)
		md.vals = append(md.vals[:i], md.vals[i+1:]...)
		return jsvalue.Bool(true), nil
	})
	rt.defineBuiltin(r.MapProto, "values", 0, func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		md := mapDataOf(this)
		if md == nil {
			return jsvalue.Undefined, rt.typeError("Map.prototype.values called on non-map")
		}
		i := 0
		return rt.newStepIterator(func() (jsvalue.Value, bool, error) {
			if i >= len(md.vals) {
				return jsvalue.Undefined, true, nil
			}
			v := md.vals[i]
			i++
			return v, false, nil
		}), nil
	})
	rt.defineBuiltin(r.MapProto, "keys", 0, func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		md := mapDataOf(this)
		if md == nil {
			return jsvalue.Undefined, rt.typeError("Map.prototype.keys called on non-map")
		}
		i := 0
		return rt.newStepIterator(func() (jsvalue.Value, bool, error) {
			if i >= len(md.keys) {
				return jsvalue.Undefined, true, nil
			}
			v := md.keys[i]
			i++
			return v, false, nil
		}), nil
	})
	rt.defineBuiltinSym(r.MapProto, r.SymbolIterator, "[Symbol.iterator]", func(this jsvalue.Value, _ []jsvalue.Value) (jsvalue.Value, error) {
		md := mapDataOf(this)
		if md == nil {
			return jsvalue.Undefined, rt.typeError("map iterator on non-map")
		}
		i := 0
		return rt.newStepIterator(func() (jsvalue.Value, bool, error) {
			if i >= len(md.keys) {
				return jsvalue.Undefined, true, nil
			}
			pair := rt.newArrayFrom([]jsvalue.Value{md.keys[i], md.vals[i]})
			i++
			return jsvalue.Object(pair), false, nil
		}), nil
	})

	// WeakMap, wired into the heap's weak-reference side table.
	weakDataOf := func(this jsvalue.Value) *weakMapData {
		o, _ := this.Ptr.(*object.Object)
		if o == nil {
			return nil
		}
		wd, _ := o.Extra.(*weakMapData)
		return wd
	}
	weakMapCtor := rt.NewNativeFunction("WeakMap", 0, nil)
	weakMapCtor.Construct = func(_ []jsvalue.Value, _ *object.Object) (jsvalue.Value, error) {
		o := object.New(r.WeakMapProto)
		o.Kind = object.KindMapObject
		o.Extra = &weakMapData{entries: make(map[*object.Object]jsvalue.Value)}
		rt.track(o)
		return jsvalue.Object(o), nil
	}
	rt.defineGlobal("WeakMap", jsvalue.Object(weakMapCtor))

	rt.defineBuiltin(r.WeakMapProto, "set", 2, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		wd := weakDataOf(this)
		if wd == nil {
			return jsvalue.Undefined, rt.typeError("WeakMap.prototype.set called on non-weakmap")
		}
		keyV := argAt(args, 0)
		if !keyV.CanBeHeldWeakly() {
			return jsvalue.Undefined, rt.typeError("invalid value used as weak map key")
		}
		key, _ := keyV.Ptr.(*object.Object)
		if _, exists := wd.entries[key]; !exists {
			rt.Heap.Weak().RegisterWeakMapEntry(key, argAt(args, 1), func() {
				delete(wd.entries, key)
			})
		}
		wd.entries[key] = argAt(args, 1)
		return this, nil
	})
	rt.defineBuiltin(r.WeakMapProto, "get", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		wd := weakDataOf(this)
		if wd == nil {
			return jsvalue.Undefined, rt.typeError("WeakMap.prototype.get called on non-weakmap")
		}
		key, _ := argAt(args, 0).Ptr.(*object.Object)
		if v, ok := wd.entries[key]; ok {
			return v, nil
		}
		return jsvalue.Undefined, nil
	})
	rt.defineBuiltin(r.WeakMapProto, "has", 1, func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		wd := weakDataOf(this)
		if wd == nil {
			return jsvalue.Undefined, rt.typeError("WeakMap.prototype.has called on non-weakmap")
		}
		key, _ := argAt(args, 0).Ptr.(*object.Object)
		_, ok := wd.entries[key]
		return jsvalue.Bool(ok), nil
	})
}

func (rt *Runtime) installErrorIntrinsics(r *Realm) {
	for kind, proto := range r.ErrorProtos {
		kindCopy := kind
		protoCopy := proto
		ctor := rt.NewNativeFunction(string(kind), 1, nil)
		ctor.Construct = func(args []jsvalue.Value, _ *object.Object) (jsvalue.Value, error) {
			msg := ""
			if len(args) > 0 && !args[0].IsUndefined() {
				var err error
				msg, err = rt.ToString(args[0])
				if err != nil {
					return jsvalue.Undefined, err
				}
			}
			return rt.NewError(kindCopy, msg), nil
		}
		ctor.Call = func(_ jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
			return ctor.Construct(args, nil)
		}
		ctor.DefineOwnProperty(rt.key("prototype"), object.Property{Value: jsvalue.Object(protoCopy)})
		rt.defineGlobal(string(kind), jsvalue.Object(ctor))
	}

	// Plain Error shares the TypeError prototype shape but reports as
	// "Error".
	errProto := rt.track(object.New(r.ObjectProto))
	errProto.DefineOwnProperty(rt.key("name"), object.Property{Value: rt.str("Error"), Writable: true, Configurable: true})
	r.intrinsics = append(r.intrinsics, errProto)
	errCtor := rt.NewNativeFunction("Error", 1, nil)
	errCtor.Construct = func(args []jsvalue.Value, _ *object.Object) (jsvalue.Value, error) {
		o := object.New(errProto)
		o.Kind = object.KindError
		rt.track(o)
		if len(args) > 0 && !args[0].IsUndefined() {
			msg, err := rt.ToString(args[0])
			if err != nil {
				return jsvalue.Undefined, err
			}
			o.DefineOwnProperty(rt.key("message"), object.Property{Value: rt.str(msg), Writable: true, Configurable: true})
		}
		return jsvalue.Object(o), nil
	}
	errCtor.Call = func(_ jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		return errCtor.Construct(args, nil)
	}
	rt.defineGlobal("Error", jsvalue.Object(errCtor))
}

func (rt *Runtime) installGlobals(r *Realm) {
	rt.defineGlobal("globalThis", jsvalue.Object(r.GlobalObject))
	rt.defineGlobal("undefined", jsvalue.Undefined)
	rt.defineGlobal("NaN", jsvalue.Number(math.NaN()))
	rt.defineGlobal("Infinity", jsvalue.Number(math.Inf(1)))

	// Symbol: the well-known registry surface the iteration protocol
	// needs.
	symbolObj := rt.NewNativeFunction("Symbol", 1, func(_ jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		desc := ""
		if len(args) > 0 && args[0].IsString() {
			desc = args[0].AsString().Content
		}
		return jsvalue.SymbolValue(jsvalue.NewSymbol(desc)), nil
	})
	symbolObj.DefineOwnProperty(rt.key("iterator"), object.Property{Value: jsvalue.SymbolValue(r.SymbolIterator)})
	symbolObj.DefineOwnProperty(rt.key("asyncIterator"), object.Property{Value: jsvalue.SymbolValue(r.SymbolAsyncIterator)})
	rt.defineGlobal("Symbol", jsvalue.Object(symbolObj))

	// Proxy.
	proxyCtor := rt.NewNativeFunction("Proxy", 2, nil)
	proxyCtor.Construct = func(args []jsvalue.Value, _ *object.Object) (jsvalue.Value, error) {
		target, _ := argAt(args, 0).Ptr.(*object.Object)
		handler, _ := argAt(args, 1).Ptr.(*object.Object)
		if target == nil || handler == nil {
			return jsvalue.Undefined, rt.typeError("Cannot create proxy with a non-object as target or handler")
		}
		return jsvalue.Object(rt.track(object.NewProxy(target, handler))), nil
	}
	rt.defineGlobal("Proxy", jsvalue.Object(proxyCtor))

	// Promise: constructor plus the resolve/reject statics the resume
	// path bridges through.
	promiseCtor := rt.NewNativeFunction("Promise", 1, nil)
	promiseCtor.Construct = func(args []jsvalue.Value, _ *object.Object) (jsvalue.Value, error) {
		executor, _ := argAt(args, 0).Ptr.(*object.Object)
		if executor == nil || !executor.IsCallable() {
			return jsvalue.Undefined, rt.typeError("Promise resolver is not a function")
		}
		p := coroutine.NewPromise(rt.Jobs)
		resolve := rt.NewNativeFunction("resolve", 1, func(_ jsvalue.Value, a []jsvalue.Value) (jsvalue.Value, error) {
			rt.resolvePromise(p, argAt(a, 0))
			return jsvalue.Undefined, nil
		})
		reject := rt.NewNativeFunction("reject", 1, func(_ jsvalue.Value, a []jsvalue.Value) (jsvalue.Value, error) {
			p.Reject(argAt(a, 0))
			return jsvalue.Undefined, nil
		})
		if _, err := executor.Call(jsvalue.Undefined, []jsvalue.Value{jsvalue.Object(resolve), jsvalue.Object(reject)}); err != nil {
			if th, ok := rt.jsError(err).(*Thrown); ok {
				p.Reject(th.Value)
			}
		}
		return jsvalue.Object(rt.NewPromiseObject(p)), nil
	}
	rt.defineBuiltin(promiseCtor, "resolve", 1, func(_ jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		p := coroutine.NewPromise(rt.Jobs)
		rt.resolvePromise(p, argAt(args, 0))
		return jsvalue.Object(rt.NewPromiseObject(p)), nil
	})
	rt.defineBuiltin(promiseCtor, "reject", 1, func(_ jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		p := coroutine.NewPromise(rt.Jobs)
		p.Reject(argAt(args, 0))
		return jsvalue.Object(rt.NewPromiseObject(p)), nil
	})
	promiseCtor.DefineOwnProperty(rt.key("prototype"), object.Property{Value: jsvalue.Object(r.PromiseProto)})
	rt.defineGlobal("Promise", jsvalue.Object(promiseCtor))

	// console.log, writing to the runtime's output sink.
	console := rt.NewObject()
	rt.defineBuiltin(console, "log", 0, func(_ jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		if rt.Output == nil {
			return jsvalue.Undefined, nil
		}
		parts := make([]string, 0, len(args))
		for _, a := range args {
			s, err := rt.ToString(a)
			if err != nil {
				s = "[" + a.Kind.String() + "]"
			}
			parts = append(parts, s)
		}
		fmt.Fprintln(rt.Output, strings.Join(parts, " "))
		return jsvalue.Undefined, nil
	})
	rt.defineGlobal("console", jsvalue.Object(console))

	// gc(): an embedder hook forcing a collection, handy for the
	// weak-reference laws.
	rt.defineBuiltin(r.GlobalObject, "gc", 0, func(jsvalue.Value, []jsvalue.Value) (jsvalue.Value, error) {
		rt.Heap.Collect()
		return jsvalue.Undefined, nil
	})
}
