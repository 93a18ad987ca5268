package vm

import (
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/lexenv"
	"github.com/nyxlang/nyx/internal/object"
	"github.com/nyxlang/nyx/internal/srcerr"
)

// Realm holds one runtime's intrinsics: the global object, the
// prototype objects the core machinery needs (function/array/iterator
// plumbing, error hierarchy, generator and promise prototypes), and
// the well-known symbols. The full built-in library is out of the
// core's scope (spec.md §1); what lives here is the minimal surface
// the interpreter itself consults plus the handful of constructors
// the embedder-facing test scenarios exercise.
type Realm struct {
	GlobalObject *object.Object
	GlobalEnv    *lexenv.Env

	ObjectProto   *object.Object
	FunctionProto *object.Object
	ArrayProto    *object.Object
	StringProto   *object.Object
	NumberProto   *object.Object
	BooleanProto  *object.Object

	GeneratorProto      *object.Object
	AsyncGeneratorProto *object.Object
	PromiseProto        *object.Object
	MapProto            *object.Object
	SetProto            *object.Object
	WeakMapProto        *object.Object
	IteratorProto       *object.Object

	ErrorProtos map[srcerr.Kind]*object.Object

	SymbolIterator      *jsvalue.Symbol
	SymbolAsyncIterator *jsvalue.Symbol

	intrinsics []*object.Object
}

func (r *Realm) scan(visit func(jsvalue.Value)) {
	visit(jsvalue.Object(r.GlobalObject))
	r.GlobalEnv.Scan(visit)
	for _, o := range r.intrinsics {
		visit(jsvalue.Object(o))
	}
}

func (rt *Runtime) newRealm() *Realm {
	r := &Realm{
		ErrorProtos:         make(map[srcerr.Kind]*object.Object),
		SymbolIterator:      jsvalue.NewSymbol("Symbol.iterator"),
		SymbolAsyncIterator: jsvalue.NewSymbol("Symbol.asyncIterator"),
	}
	rt.Realm = r // visible to helpers during construction

	reg := func(o *object.Object) *object.Object {
		r.intrinsics = append(r.intrinsics, o)
		rt.Heap.Alloc(o)
		return o
	}

	r.ObjectProto = reg(object.New(nil))
	r.FunctionProto = reg(object.New(r.ObjectProto))
	r.FunctionProto.Call = func(jsvalue.Value, []jsvalue.Value) (jsvalue.Value, error) {
		return jsvalue.Undefined, nil
	}
	r.ArrayProto = reg(object.New(r.ObjectProto))
	r.StringProto = reg(object.New(r.ObjectProto))
	r.NumberProto = reg(object.New(r.ObjectProto))
	r.BooleanProto = reg(object.New(r.ObjectProto))
	r.IteratorProto = reg(object.New(r.ObjectProto))
	r.GeneratorProto = reg(object.New(r.IteratorProto))
	r.AsyncGeneratorProto = reg(object.New(r.ObjectProto))
	r.PromiseProto = reg(object.New(r.ObjectProto))
	r.MapProto = reg(object.New(r.ObjectProto))
	r.SetProto = reg(object.New(r.ObjectProto))
	r.WeakMapProto = reg(object.New(r.ObjectProto))

	for _, kind := range []srcerr.Kind{
		srcerr.SyntaxErrorKind, srcerr.TypeErrorKind, srcerr.RangeErrorKind,
		srcerr.ReferenceErrorKind, srcerr.URIErrorKind, srcerr.EvalErrorKind,
	} {
		proto := reg(object.New(r.ObjectProto))
		proto.DefineOwnProperty(rt.key("name"), object.Property{
			Value: rt.str(string(kind)), Writable: true, Configurable: true,
		})
		proto.DefineOwnProperty(rt.key("message"), object.Property{
			Value: rt.str(""), Writable: true, Configurable: true,
		})
		r.ErrorProtos[kind] = proto
	}

	r.GlobalObject = reg(object.New(r.ObjectProto))
	r.GlobalEnv = lexenv.NewGlobal(r.GlobalObject)

	rt.installIntrinsics(r)
	return r
}

// defineBuiltin installs a native function as a non-enumerable data
// property, the attribute shape built-ins use.
func (rt *Runtime) defineBuiltin(on *object.Object, name string, arity int, fn object.CallFunc) {
	f := rt.NewNativeFunction(name, arity, fn)
	on.DefineOwnProperty(rt.key(name), object.Property{
		Value: jsvalue.Object(f), Writable: true, Configurable: true,
	})
}

// defineBuiltinSym installs a native function under a symbol key.
func (rt *Runtime) defineBuiltinSym(on *object.Object, sym *jsvalue.Symbol, name string, fn object.CallFunc) {
	f := rt.NewNativeFunction(name, 0, fn)
	on.DefineOwnProperty(jsvalue.KeyFromSymbol(sym), object.Property{
		Value: jsvalue.Object(f), Writable: true, Configurable: true,
	})
}

// NewNativeFunction wraps a Go function as a callable object (the
// "native-function" heap tag of spec.md §3).
func (rt *Runtime) NewNativeFunction(name string, arity int, fn object.CallFunc) *object.Object {
	o := object.New(rt.Realm.FunctionProto)
	o.Kind = object.KindFunction
	o.Call = fn
	rt.track(o)
	o.DefineOwnProperty(rt.key("name"), object.Property{Value: rt.str(name), Configurable: true})
	o.DefineOwnProperty(rt.key("length"), object.Property{Value: jsvalue.Number(float64(arity)), Configurable: true})
	return o
}

// defineGlobal installs a global-object property the way host-defined
// globals appear: writable, non-enumerable, configurable.
func (rt *Runtime) defineGlobal(name string, v jsvalue.Value) {
	rt.Realm.GlobalObject.DefineOwnProperty(rt.key(name), object.Property{
		Value: v, Writable: true, Configurable: true,
	})
}
