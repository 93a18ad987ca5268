package vm

import (
	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/coroutine"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/lexenv"
	"github.com/nyxlang/nyx/internal/object"
)

// ScriptFuncData is the Extra payload of a script-function object: the
// compiled function, its module's tables, and the captured defining
// environment (the closure). The spec's "script function metadata"
// record (§3) is the bytecode.Function; this adds the live half.
type ScriptFuncData struct {
	Fn     *bytecode.Function
	Module *bytecode.Module
	Env    *lexenv.Env
	Rt     *Runtime

	HomeObject *object.Object
	Class      *ClassData

	// TopLevel marks the script/module entry frame: it runs directly
	// in the environment the loader prepared instead of allocating a
	// fresh function environment.
	TopLevel bool
}

// ScanExtra reports the closure's strong references to the collector.
func (d *ScriptFuncData) ScanExtra(visit func(jsvalue.Value)) {
	lexenv.ScanChain(d.Env, visit)
	if d.HomeObject != nil {
		visit(jsvalue.Object(d.HomeObject))
	}
	if d.Class != nil {
		d.Class.scan(visit)
	}
}

// ClassData is the live state OpNewClassStatic assembles for one class
// evaluation: the wired constructor/prototype pair, the superclass,
// per-construction field initializers, and this class body's private
// names (spec.md §9 "scoped by a private environment that the class
// body creates and the methods capture").
type ClassData struct {
	Ctor      *object.Object
	Proto     *object.Object
	SuperCtor *object.Object
	Derived   bool

	FieldInits []classField
	Privates   map[string]*jsvalue.PrivateName
}

type classField struct {
	key  jsvalue.PropertyKey
	init *object.Object
}

func (cd *ClassData) scan(visit func(jsvalue.Value)) {
	if cd.Ctor != nil {
		visit(jsvalue.Object(cd.Ctor))
	}
	if cd.Proto != nil {
		visit(jsvalue.Object(cd.Proto))
	}
	if cd.SuperCtor != nil {
		visit(jsvalue.Object(cd.SuperCtor))
	}
	for _, f := range cd.FieldInits {
		if f.init != nil {
			visit(jsvalue.Object(f.init))
		}
	}
}

// privateName resolves (or creates) this class's private name for
// description.
func (cd *ClassData) privateName(desc string) *jsvalue.PrivateName {
	if cd.Privates == nil {
		cd.Privates = make(map[string]*jsvalue.PrivateName)
	}
	pn, ok := cd.Privates[desc]
	if !ok {
		pn = &jsvalue.PrivateName{Description: desc}
		cd.Privates[desc] = pn
	}
	return pn
}

// newClosure materializes function-table entry fnIdx into a callable
// object capturing env (the OpClosure instruction's effect).
func (rt *Runtime) newClosure(m *bytecode.Module, fnIdx int, env *lexenv.Env) *object.Object {
	fn := m.Functions[fnIdx]
	d := &ScriptFuncData{Fn: fn, Module: m, Env: env, Rt: rt}

	o := object.New(rt.Realm.FunctionProto)
	o.Kind = object.KindFunction
	o.Extra = d
	rt.track(o)

	o.DefineOwnProperty(rt.key("name"), object.Property{Value: rt.str(fn.Name), Configurable: true})
	o.DefineOwnProperty(rt.key("length"), object.Property{Value: jsvalue.Number(float64(fn.ParamCount)), Configurable: true})

	o.Call = rt.makeCallHook(d)
	if !fn.IsArrow && !fn.IsGenerator && !fn.IsAsync && !fn.IsMethod {
		// Ordinary functions are constructors carrying a fresh
		// prototype object.
		proto := rt.NewObject()
		proto.DefineOwnProperty(rt.key("constructor"), object.Property{
			Value: jsvalue.Object(o), Writable: true, Configurable: true,
		})
		o.DefineOwnProperty(rt.key("prototype"), object.Property{Value: jsvalue.Object(proto), Writable: true})
		o.Construct = rt.makeConstructHook(o, d)
	}
	return o
}

func (rt *Runtime) makeCallHook(d *ScriptFuncData) object.CallFunc {
	return func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		switch {
		case d.Fn.IsClassConstructor:
			return jsvalue.Undefined, rt.typeError("class constructor %s cannot be invoked without 'new'", d.Fn.Name)
		case d.Fn.IsGenerator && d.Fn.IsAsync:
			return rt.newAsyncGeneratorObject(d, this, args), nil
		case d.Fn.IsGenerator:
			return rt.newGeneratorObject(d, this, args), nil
		case d.Fn.IsAsync:
			return rt.callAsync(d, this, args), nil
		default:
			return rt.invoke(d, this, args, nil, nil)
		}
	}
}

// invoke runs d's bytecode to completion on a fresh frame. co is
// non-nil when the frame belongs to a suspendable context.
func (rt *Runtime) invoke(d *ScriptFuncData, this jsvalue.Value, args []jsvalue.Value, co *coroutine.Coroutine, newTarget *object.Object) (jsvalue.Value, error) {
	f := rt.newFiber()
	defer rt.releaseFiber(f)
	fr := f.newFrame(d, this, args)
	fr.co = co
	fr.newTarget = newTarget
	return f.runFrame(fr)
}

// makeConstructHook implements ordinary [[Construct]] for plain
// script functions: allocate `this` from the target's prototype, run
// the body, return an explicit object result or the allocated this.
func (rt *Runtime) makeConstructHook(fnObj *object.Object, d *ScriptFuncData) object.ConstructFunc {
	return func(args []jsvalue.Value, newTarget *object.Object) (jsvalue.Value, error) {
		if newTarget == nil {
			newTarget = fnObj
		}
		thisObj := rt.newInstanceFor(newTarget, fnObj)
		ret, err := rt.invoke(d, jsvalue.Object(thisObj), args, nil, newTarget)
		if err != nil {
			return jsvalue.Undefined, err
		}
		if ret.IsObject() {
			return ret, nil
		}
		return jsvalue.Object(thisObj), nil
	}
}

// newInstanceFor allocates an ordinary object whose prototype comes
// from newTarget's `prototype` property, falling back through fallback.
func (rt *Runtime) newInstanceFor(newTarget, fallback *object.Object) *object.Object {
	src := newTarget
	if src == nil {
		src = fallback
	}
	protoV, _ := src.Get(rt.key("prototype"), jsvalue.Object(src))
	proto, _ := protoV.Ptr.(*object.Object)
	if proto == nil {
		proto = rt.Realm.ObjectProto
	}
	return rt.track(object.New(proto))
}

// makeClassConstructHook implements [[Construct]] for class
// constructors, including the derived path where `this` stays
// uninitialized until super() runs, and field initialization.
func (rt *Runtime) makeClassConstructHook(d *ScriptFuncData, cd *ClassData) object.ConstructFunc {
	return func(args []jsvalue.Value, newTarget *object.Object) (jsvalue.Value, error) {
		if newTarget == nil {
			newTarget = cd.Ctor
		}

		f := rt.newFiber()
		defer rt.releaseFiber(f)

		var thisV jsvalue.Value
		if cd.Derived {
			thisV = jsvalue.Undefined // bound by OpSuperCall
		} else {
			thisObj := rt.newInstanceFor(newTarget, cd.Ctor)
			if err := rt.runFieldInits(cd, thisObj); err != nil {
				return jsvalue.Undefined, err
			}
			thisV = jsvalue.Object(thisObj)
		}

		fr := f.newFrame(d, thisV, args)
		fr.newTarget = newTarget
		if cd.Derived {
			fr.env.ThisStatus = lexenv.ThisUninitialised
		}
		ret, err := f.runFrame(fr)
		if err != nil {
			return jsvalue.Undefined, err
		}
		if ret.IsObject() {
			return ret, nil
		}
		final, terr := fr.env.GetThisBinding()
		if terr != nil {
			return jsvalue.Undefined, rt.referenceError("must call super constructor before returning from derived constructor")
		}
		return final, nil
	}
}

// runFieldInits evaluates the class's instance-field initializers
// against a freshly constructed object.
func (rt *Runtime) runFieldInits(cd *ClassData, thisObj *object.Object) error {
	for _, fieldDef := range cd.FieldInits {
		v, err := fieldDef.init.Call(jsvalue.Object(thisObj), nil)
		if err != nil {
			return err
		}
		thisObj.DefineOwnProperty(fieldDef.key, object.Property{
			Value: v, Writable: true, Enumerable: fieldDef.key.Kind != jsvalue.PropKeyPrivate, Configurable: true,
		})
	}
	return nil
}

// callValue is the single entry for every call instruction: verify
// callability and dispatch through the object's [[Call]].
func (rt *Runtime) callValue(fn, this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
	o, _ := fn.Ptr.(*object.Object)
	if !fn.IsObject() || o == nil || !o.IsCallable() {
		return jsvalue.Undefined, rt.typeError("%s is not a function", describeThrown(fn))
	}
	return o.Call(this, args)
}

// constructValue dispatches `new` through [[Construct]].
func (rt *Runtime) constructValue(ctor jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
	o, _ := ctor.Ptr.(*object.Object)
	if !ctor.IsObject() || o == nil || !o.IsConstructor() {
		return jsvalue.Undefined, rt.typeError("%s is not a constructor", describeThrown(ctor))
	}
	return o.Construct(args, o)
}
