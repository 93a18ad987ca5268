package vm

import (
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
)

// Class-member flags mirrored from the compiler's OpDefineMethod A
// operand encoding.
const (
	classMemberStatic  = 1 << 0
	classMemberGetter  = 1 << 1
	classMemberSetter  = 1 << 2
	classMemberPrivate = 1 << 3
	classMemberField   = 1 << 4
)

// finishClass wires a class definition (OpNewClassStatic): prototype
// chains for both the constructor and its prototype object, the
// ClassData every method shares, and the class-constructor call/
// construct hooks. Pushes [ctor, proto].
func (rt *Runtime) finishClass(f *fiber, fr *frame, ctorV, superV jsvalue.Value, derived bool) error {
	ctor, _ := ctorV.Ptr.(*object.Object)
	d, _ := ctor.Extra.(*ScriptFuncData)
	if ctor == nil || d == nil {
		return rt.typeError("malformed class constructor")
	}

	var superCtor *object.Object
	protoParent := rt.Realm.ObjectProto
	ctorParent := rt.Realm.FunctionProto
	if derived {
		superCtor, _ = superV.Ptr.(*object.Object)
		if superCtor == nil || !superCtor.IsConstructor() {
			return rt.typeError("class extends value is not a constructor")
		}
		superProtoV, err := superCtor.Get(rt.key("prototype"), superV)
		if err != nil {
			return rt.jsError(err)
		}
		if sp, _ := superProtoV.Ptr.(*object.Object); sp != nil {
			protoParent = sp
		}
		ctorParent = superCtor
	}

	proto := rt.track(object.New(protoParent))
	ctor.SetPrototypeOf(ctorParent)

	cd := &ClassData{Ctor: ctor, Proto: proto, SuperCtor: superCtor, Derived: derived}
	d.Class = cd
	d.HomeObject = proto

	proto.DefineOwnProperty(rt.key("constructor"), object.Property{
		Value: ctorV, Writable: true, Configurable: true,
	})
	ctor.DefineOwnProperty(rt.key("prototype"), object.Property{Value: jsvalue.Object(proto)})

	ctor.Construct = rt.makeClassConstructHook(d, cd)

	f.push(ctorV)
	f.push(jsvalue.Object(proto))
	return nil
}

// defineClassMember installs one class member (OpDefineMethod). The
// stack holds [ctor, proto, key, fn]; ctor and proto stay.
func (rt *Runtime) defineClassMember(f *fiber, flags byte) error {
	fnV := f.pop()
	keyV := f.pop()
	protoV := f.peek(0)
	ctorV := f.peek(1)

	proto, _ := protoV.Ptr.(*object.Object)
	ctor, _ := ctorV.Ptr.(*object.Object)
	ctorData, _ := ctor.Extra.(*ScriptFuncData)
	if proto == nil || ctor == nil || ctorData == nil || ctorData.Class == nil {
		return rt.typeError("class member outside class definition")
	}
	cd := ctorData.Class

	target := proto
	if flags&classMemberStatic != 0 {
		target = ctor
	}

	var key jsvalue.PropertyKey
	if flags&classMemberPrivate != 0 {
		key = jsvalue.KeyFromPrivate(cd.privateName(keyV.AsString().Content))
	} else {
		var err error
		key, err = rt.ToPropertyKey(keyV)
		if err != nil {
			return err
		}
	}

	fnObj, _ := fnV.Ptr.(*object.Object)
	if fnObj == nil {
		return rt.typeError("malformed class member")
	}
	if fd, ok := fnObj.Extra.(*ScriptFuncData); ok {
		fd.HomeObject = target
		fd.Class = cd
	}

	if flags&classMemberField != 0 {
		if flags&classMemberStatic != 0 {
			// Static fields evaluate once, now, with `this` = ctor.
			v, err := fnObj.Call(ctorV, nil)
			if err != nil {
				return err
			}
			target.DefineOwnProperty(key, object.Property{
				Value: v, Writable: true, Enumerable: key.Kind != jsvalue.PropKeyPrivate, Configurable: true,
			})
			return nil
		}
		cd.FieldInits = append(cd.FieldInits, classField{key: key, init: fnObj})
		return nil
	}

	switch {
	case flags&classMemberGetter != 0:
		rt.defineAccessor(target, key, fnObj, true, false)
	case flags&classMemberSetter != 0:
		rt.defineAccessor(target, key, fnObj, false, false)
	default:
		target.DefineOwnProperty(key, object.Property{
			Value: fnV, Writable: true, Configurable: true,
		})
	}
	return nil
}

// superCall implements super(...): construct the parent class with the
// current new target, bind the result as this, and run the current
// class's field initializers (spec.md §4.2 derived-constructor path).
func (rt *Runtime) superCall(fr *frame, args []jsvalue.Value) (jsvalue.Value, error) {
	cd := fr.fnData.Class
	if cd == nil || !cd.Derived || cd.SuperCtor == nil {
		return jsvalue.Undefined, rt.typeError("'super' call outside derived constructor")
	}
	newTarget := fr.newTarget
	if newTarget == nil {
		newTarget = cd.Ctor
	}
	result, err := cd.SuperCtor.Construct(args, newTarget)
	if err != nil {
		return jsvalue.Undefined, err
	}
	fr.env.BindThis(result)
	if thisObj, _ := result.Ptr.(*object.Object); thisObj != nil {
		if err := rt.runFieldInits(cd, thisObj); err != nil {
			return jsvalue.Undefined, err
		}
	}
	return result, nil
}
