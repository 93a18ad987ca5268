package object

import "github.com/nyxlang/nyx/internal/jsvalue"

// OrdinaryMethods implements the "Ordinary semantics" spec.md §4.2
// describes. Every exotic variant embeds this and overrides only the
// methods it needs (spec.md §4.2 "non-ordinary objects override only
// what they need and delegate the rest to the ordinary
// implementation").
type OrdinaryMethods struct{}

func (OrdinaryMethods) GetPrototypeOf(o *Object) *Object { return o.Proto }

func (OrdinaryMethods) SetPrototypeOf(o *Object, proto *Object) bool {
	if proto == o.Proto {
		return true
	}
	if !o.Extensible {
		return false
	}
	// Reject cycles in the prototype chain.
	for p := proto; p != nil; p = p.Proto {
		if p == o {
			return false
		}
	}
	o.Proto = proto
	return true
}

func (OrdinaryMethods) IsExtensible(o *Object) bool { return o.Extensible }

func (OrdinaryMethods) PreventExtensions(o *Object) bool {
	o.Extensible = false
	return true
}

func (OrdinaryMethods) GetOwnProperty(o *Object, key jsvalue.PropertyKey) (*Property, bool) {
	return o.rawGetOwn(key)
}

// DefineOwnProperty performs the classical validation spec.md §4.2
// names: a non-configurable non-writable data property cannot become
// an accessor, and a non-configurable property's attributes cannot
// change (except a writable->non-writable data-value narrowing).
func (OrdinaryMethods) DefineOwnProperty(o *Object, key jsvalue.PropertyKey, desc Property) bool {
	current, exists := o.rawGetOwn(key)
	if !exists {
		if !o.Extensible {
			return false
		}
		o.rawDefine(key, desc)
		return true
	}

	if !current.Configurable {
		if desc.Configurable {
			return false
		}
		if current.IsAccessor != desc.IsAccessor {
			return false
		}
		if current.IsAccessor {
			if current.Getter != desc.Getter || current.Setter != desc.Setter {
				return false
			}
		} else if !current.Writable {
			if desc.Writable {
				return false
			}
			if !jsvalue.SameValue(current.Value, desc.Value) {
				return false
			}
		}
	}

	o.rawDefine(key, desc)
	return true
}

func (m OrdinaryMethods) HasProperty(o *Object, key jsvalue.PropertyKey) bool {
	if _, ok := o.rawGetOwn(key); ok {
		return true
	}
	proto := o.GetPrototypeOf()
	if proto == nil {
		return false
	}
	return proto.HasProperty(key)
}

// Get walks the prototype chain until a property is found or the
// chain ends; data properties return their value, accessors invoke
// the getter with receiver as `this` (spec.md §4.2).
func (m OrdinaryMethods) Get(o *Object, key jsvalue.PropertyKey, receiver jsvalue.Value) (jsvalue.Value, error) {
	p, ok := o.rawGetOwn(key)
	if !ok {
		proto := o.GetPrototypeOf()
		if proto == nil {
			return jsvalue.Undefined, nil
		}
		return proto.Get(key, receiver)
	}
	if p.IsAccessor {
		if p.Getter == nil {
			return jsvalue.Undefined, nil
		}
		return p.Getter.Call(receiver, nil)
	}
	return p.Value, nil
}

// Set locates the own property on the receiver; if the property is an
// accessor found anywhere on the chain, the setter is invoked;
// otherwise a new own data property is created on the receiver if
// extensible (spec.md §4.2).
func (m OrdinaryMethods) Set(o *Object, key jsvalue.PropertyKey, value jsvalue.Value, receiver jsvalue.Value) (bool, error) {
	own, ok := o.rawGetOwn(key)
	if !ok {
		proto := o.GetPrototypeOf()
		if proto != nil {
			return proto.Set(key, value, receiver)
		}
		return m.createDataProperty(o, key, value, receiver)
	}
	if own.IsAccessor {
		if own.Setter == nil {
			return false, nil
		}
		_, err := own.Setter.Call(receiver, []jsvalue.Value{value})
		return err == nil, err
	}
	if !own.Writable {
		return false, nil
	}
	return m.createDataProperty(o, key, value, receiver)
}

func (m OrdinaryMethods) createDataProperty(o *Object, key jsvalue.PropertyKey, value, receiver jsvalue.Value) (bool, error) {
	recvObj, _ := receiver.Ptr.(*Object)
	if recvObj == nil {
		recvObj = o
	}
	existing, existed := recvObj.rawGetOwn(key)
	if existed {
		if existing.IsAccessor || !existing.Writable {
			return false, nil
		}
		ok := recvObj.DefineOwnProperty(key, Property{
			Value: value, Writable: existing.Writable,
			Enumerable: existing.Enumerable, Configurable: existing.Configurable,
		})
		return ok, nil
	}
	if !recvObj.Extensible {
		return false, nil
	}
	ok := recvObj.DefineOwnProperty(key, Property{Value: value, Writable: true, Enumerable: true, Configurable: true})
	return ok, nil
}

func (OrdinaryMethods) Delete(o *Object, key jsvalue.PropertyKey) (bool, error) {
	p, ok := o.rawGetOwn(key)
	if !ok {
		return true, nil
	}
	if !p.Configurable {
		return false, nil
	}
	o.rawDelete(key)
	return true, nil
}

func (OrdinaryMethods) OwnPropertyKeys(o *Object) []jsvalue.PropertyKey { return o.rawOwnKeys() }
