package vm

import (
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
	"github.com/nyxlang/nyx/internal/srcerr"
)

// getValueProperty reads key off any value: objects go through the
// essential methods, primitives resolve against their prototype
// intrinsics (no wrapper object is materialized), and nullish bases
// throw.
func (rt *Runtime) getValueProperty(base jsvalue.Value, key jsvalue.PropertyKey) (jsvalue.Value, error) {
	switch base.Kind {
	case jsvalue.KindObject:
		o, _ := base.Ptr.(*object.Object)
		v, err := o.Get(key, base)
		if err != nil {
			return jsvalue.Undefined, rt.jsError(err)
		}
		return v, nil

	case jsvalue.KindString:
		s := base.AsString()
		if key.Kind == jsvalue.PropKeyString && key.Str.Content == "length" {
			return jsvalue.Number(float64(len(s.UTF16))), nil
		}
		if key.Kind == jsvalue.PropKeyIndex {
			if key.Index >= 0 && key.Index < int64(len(s.UTF16)) {
				return rt.str(string(rune(s.UTF16[key.Index]))), nil
			}
			return jsvalue.Undefined, nil
		}
		v, err := rt.Realm.StringProto.Get(key, base)
		if err != nil {
			return jsvalue.Undefined, rt.jsError(err)
		}
		return v, nil

	case jsvalue.KindNumber, jsvalue.KindBigInt:
		v, err := rt.Realm.NumberProto.Get(key, base)
		if err != nil {
			return jsvalue.Undefined, rt.jsError(err)
		}
		return v, nil

	case jsvalue.KindBool:
		v, err := rt.Realm.BooleanProto.Get(key, base)
		if err != nil {
			return jsvalue.Undefined, rt.jsError(err)
		}
		return v, nil

	case jsvalue.KindUndefined, jsvalue.KindNull:
		return jsvalue.Undefined, rt.typeError("cannot read properties of %s (reading '%s')", base.Kind, key.String())

	default:
		return jsvalue.Undefined, nil
	}
}

// setValueProperty writes key on a value. Writes to primitives are
// silently dropped (sloppy-mode semantics); nullish bases throw.
func (rt *Runtime) setValueProperty(base jsvalue.Value, key jsvalue.PropertyKey, value jsvalue.Value) error {
	switch base.Kind {
	case jsvalue.KindObject:
		o, _ := base.Ptr.(*object.Object)
		if _, err := o.Set(key, value, base); err != nil {
			return rt.jsError(err)
		}
		return nil
	case jsvalue.KindUndefined, jsvalue.KindNull:
		return rt.typeError("cannot set properties of %s", base.Kind)
	default:
		return nil
	}
}

// getPrivateField reads a `#name` field, resolving the private name
// through the running method's class (the captured private
// environment).
func (rt *Runtime) getPrivateField(fr *frame, base jsvalue.Value, name string) (jsvalue.Value, error) {
	pn, err := rt.resolvePrivate(fr, name)
	if err != nil {
		return jsvalue.Undefined, err
	}
	o, _ := base.Ptr.(*object.Object)
	if !base.IsObject() || o == nil {
		return jsvalue.Undefined, rt.typeError("cannot read private member #%s from a non-object", name)
	}
	key := jsvalue.KeyFromPrivate(pn)
	if !o.HasProperty(key) {
		return jsvalue.Undefined, rt.typeError("cannot read private member #%s from an object whose class did not declare it", name)
	}
	v, gerr := o.Get(key, base)
	if gerr != nil {
		return jsvalue.Undefined, rt.jsError(gerr)
	}
	return v, nil
}

func (rt *Runtime) setPrivateField(fr *frame, base jsvalue.Value, name string, value jsvalue.Value) error {
	pn, err := rt.resolvePrivate(fr, name)
	if err != nil {
		return err
	}
	o, _ := base.Ptr.(*object.Object)
	if !base.IsObject() || o == nil {
		return rt.typeError("cannot write private member #%s on a non-object", name)
	}
	o.DefineOwnProperty(jsvalue.KeyFromPrivate(pn), object.Property{Value: value, Writable: true})
	return nil
}

func (rt *Runtime) resolvePrivate(fr *frame, name string) (*jsvalue.PrivateName, error) {
	cd := fr.fnData.Class
	if cd == nil {
		return nil, rt.throwError(srcerr.SyntaxErrorKind, "private name #%s is not defined in this scope", name)
	}
	return cd.privateName(name), nil
}

// defineAccessor merges a getter or setter into an existing accessor
// property (so `get x` and `set x` pairs combine).
func (rt *Runtime) defineAccessor(on *object.Object, key jsvalue.PropertyKey, fn *object.Object, isGetter, enumerable bool) {
	desc := object.Property{IsAccessor: true, Enumerable: enumerable, Configurable: true}
	if existing, ok := on.GetOwnProperty(key); ok && existing.IsAccessor {
		desc.Getter, desc.Setter = existing.Getter, existing.Setter
	}
	if isGetter {
		desc.Getter = fn
	} else {
		desc.Setter = fn
	}
	on.DefineOwnProperty(key, desc)
}

// copyDataProperties copies src's own enumerable properties into
// target (allocated fresh when nil), skipping excluded keys — the
// engine half of object spread and destructuring rest.
func (rt *Runtime) copyDataProperties(target *object.Object, src jsvalue.Value, excluded []jsvalue.Value) (*object.Object, error) {
	if target == nil {
		target = rt.NewObject()
	}
	if src.IsNullish() {
		return target, nil
	}
	o, _ := src.Ptr.(*object.Object)
	if o == nil {
		// Primitive spread copies nothing observable except string
		// indices; strings are the one primitive with own entries.
		if src.IsString() {
			s := src.AsString()
			for i, u := range s.UTF16 {
				target.DefineOwnProperty(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: int64(i)},
					object.Property{Value: rt.str(string(rune(u))), Writable: true, Enumerable: true, Configurable: true})
			}
		}
		return target, nil
	}

	skip := make(map[string]bool, len(excluded))
	for _, ex := range excluded {
		if ex.IsString() {
			skip[ex.AsString().Content] = true
		}
	}

	for _, key := range o.OwnPropertyKeys() {
		if key.Kind == jsvalue.PropKeyPrivate {
			continue
		}
		if skip[key.String()] {
			continue
		}
		p, ok := o.GetOwnProperty(key)
		if !ok || !p.Enumerable {
			continue
		}
		v, err := o.Get(key, src)
		if err != nil {
			return nil, rt.jsError(err)
		}
		target.DefineOwnProperty(key, object.Property{Value: v, Writable: true, Enumerable: true, Configurable: true})
	}
	return target, nil
}

// newArrayFrom builds a dense array exotic object from vals.
func (rt *Runtime) newArrayFrom(vals []jsvalue.Value) *object.Object {
	arr := rt.NewArrayObject()
	for _, v := range vals {
		rt.arrayAppend(arr, v)
	}
	return arr
}

// arrayAppend defines the next index, letting the array's exotic
// DefineOwnProperty grow `length`.
func (rt *Runtime) arrayAppend(arr *object.Object, v jsvalue.Value) {
	idx := object.Length(arr)
	arr.DefineOwnProperty(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: idx},
		object.Property{Value: v, Writable: true, Enumerable: true, Configurable: true})
}
