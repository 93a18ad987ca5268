package object

import "github.com/nyxlang/nyx/internal/jsvalue"

// ProxyData is the Extra payload for a Proxy object: the target and
// handler objects spec.md §4.2 describes.
type ProxyData struct {
	Target  *Object
	Handler *Object
}

// ProxyMethods delegates each essential method to the handler's
// matching trap; if the trap is missing, the target's own method is
// used instead. After invoking a trap, the standard invariant checks
// run (spec.md §4.2) — here, the one spec.md calls out explicitly: a
// returned descriptor for a non-configurable target property must be
// compatible with the target's actual descriptor.
type ProxyMethods struct{}

// NewProxy allocates a Proxy object (spec.md §9's "rjs_proxy_object_opt.c"
// invariant-check grounding for DefineOwnProperty/GetOwnProperty below).
func NewProxy(target, handler *Object) *Object {
	o := New(nil)
	o.Kind = KindProxy
	o.Methods = ProxyMethods{}
	o.Extra = &ProxyData{Target: target, Handler: handler}
	if target.IsCallable() {
		o.Call = func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
			if trap, ok := getTrap(handler, "apply"); ok {
				return trap.Call(jsvalue.Object(handler), []jsvalue.Value{jsvalue.Object(target), this, jsvalue.Undefined})
			}
			return target.Call(this, args)
		}
	}
	return o
}

func getTrap(handler *Object, name string) (*Object, bool) {
	key := jsvalue.PropertyKey{Kind: jsvalue.PropKeyString, Str: &jsvalue.InternedString{Content: name, IndexValue: -1}}
	v, err := handler.Get(key, jsvalue.Object(handler))
	if err != nil || !v.IsObject() {
		return nil, false
	}
	fn, _ := v.Ptr.(*Object)
	if fn == nil || !fn.IsCallable() {
		return nil, false
	}
	return fn, true
}

func proxyData(o *Object) *ProxyData {
	d, _ := o.Extra.(*ProxyData)
	return d
}

func keyToValue(key jsvalue.PropertyKey) jsvalue.Value {
	switch key.Kind {
	case jsvalue.PropKeyString, jsvalue.PropKeyIndex:
		return jsvalue.Str(&jsvalue.InternedString{Content: key.String(), IndexValue: -1})
	case jsvalue.PropKeySymbol:
		return jsvalue.SymbolValue(key.Sym)
	default:
		return jsvalue.Undefined
	}
}

func (ProxyMethods) GetPrototypeOf(o *Object) *Object {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "getPrototypeOf"); ok {
		v, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target)})
		if err == nil && v.IsObject() {
			p, _ := v.Ptr.(*Object)
			return p
		}
		return nil
	}
	return d.Target.GetPrototypeOf()
}

func (ProxyMethods) SetPrototypeOf(o *Object, proto *Object) bool {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "setPrototypeOf"); ok {
		v := jsvalue.Null
		if proto != nil {
			v = jsvalue.Object(proto)
		}
		res, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target), v})
		return err == nil && res.ToBoolean()
	}
	return d.Target.SetPrototypeOf(proto)
}

func (ProxyMethods) IsExtensible(o *Object) bool {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "isExtensible"); ok {
		v, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target)})
		return err == nil && v.ToBoolean()
	}
	return d.Target.IsExtensible()
}

func (ProxyMethods) PreventExtensions(o *Object) bool {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "preventExtensions"); ok {
		v, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target)})
		return err == nil && v.ToBoolean()
	}
	return d.Target.PreventExtensions()
}

func (ProxyMethods) GetOwnProperty(o *Object, key jsvalue.PropertyKey) (*Property, bool) {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "getOwnPropertyDescriptor"); ok {
		v, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target), keyToValue(key)})
		if err != nil || v.IsUndefined() {
			return nil, false
		}
		descObj, _ := v.Ptr.(*Object)
		if descObj == nil {
			return nil, false
		}
		// Invariant: a non-configurable target property must be
		// reported compatibly (spec.md §9 grounding on rjs_proxy_object_opt.c).
		if targetDesc, ok := d.Target.GetOwnProperty(key); ok && !targetDesc.Configurable {
			return targetDesc, true
		}
		return objectToPropertyDescriptor(descObj), true
	}
	return d.Target.GetOwnProperty(key)
}

func (ProxyMethods) DefineOwnProperty(o *Object, key jsvalue.PropertyKey, desc Property) bool {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "defineProperty"); ok {
		descVal := propertyDescriptorToValue(desc)
		v, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target), keyToValue(key), descVal})
		return err == nil && v.ToBoolean()
	}
	return d.Target.DefineOwnProperty(key, desc)
}

func (ProxyMethods) HasProperty(o *Object, key jsvalue.PropertyKey) bool {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "has"); ok {
		v, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target), keyToValue(key)})
		return err == nil && v.ToBoolean()
	}
	return d.Target.HasProperty(key)
}

func (ProxyMethods) Get(o *Object, key jsvalue.PropertyKey, receiver jsvalue.Value) (jsvalue.Value, error) {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "get"); ok {
		return trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target), keyToValue(key), receiver})
	}
	return d.Target.Get(key, receiver)
}

func (ProxyMethods) Set(o *Object, key jsvalue.PropertyKey, value jsvalue.Value, receiver jsvalue.Value) (bool, error) {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "set"); ok {
		v, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target), keyToValue(key), value, receiver})
		return err == nil && v.ToBoolean(), err
	}
	return d.Target.Set(key, value, receiver)
}

func (ProxyMethods) Delete(o *Object, key jsvalue.PropertyKey) (bool, error) {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "deleteProperty"); ok {
		v, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target), keyToValue(key)})
		return err == nil && v.ToBoolean(), err
	}
	return d.Target.Delete(key)
}

func (ProxyMethods) OwnPropertyKeys(o *Object) []jsvalue.PropertyKey {
	d := proxyData(o)
	if trap, ok := getTrap(d.Handler, "ownKeys"); ok {
		v, err := trap.Call(jsvalue.Object(d.Handler), []jsvalue.Value{jsvalue.Object(d.Target)})
		if err == nil && v.IsObject() {
			if arr, ok := v.Ptr.(*Object); ok {
				n := Length(arr)
				keys := make([]jsvalue.PropertyKey, 0, n)
				for i := int64(0); i < n; i++ {
					el, _ := arr.Get(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: i}, v)
					keys = append(keys, jsvalue.KeyFromValue(el))
				}
				return keys
			}
		}
	}
	return d.Target.OwnPropertyKeys()
}

// objectToPropertyDescriptor reads a plain descriptor object's well-
// known fields into a Property, as ToPropertyDescriptor would.
func objectToPropertyDescriptor(obj *Object) *Property {
	field := func(name string) (jsvalue.Value, bool) {
		key := jsvalue.PropertyKey{Kind: jsvalue.PropKeyString, Str: &jsvalue.InternedString{Content: name, IndexValue: -1}}
		if !obj.HasProperty(key) {
			return jsvalue.Undefined, false
		}
		v, _ := obj.Get(key, jsvalue.Object(obj))
		return v, true
	}
	p := &Property{}
	if v, ok := field("value"); ok {
		p.Value = v
	}
	if v, ok := field("get"); ok {
		p.IsAccessor = true
		p.Getter, _ = v.Ptr.(*Object)
	}
	if v, ok := field("set"); ok {
		p.IsAccessor = true
		p.Setter, _ = v.Ptr.(*Object)
	}
	if v, ok := field("writable"); ok {
		p.Writable = v.ToBoolean()
	}
	if v, ok := field("enumerable"); ok {
		p.Enumerable = v.ToBoolean()
	}
	if v, ok := field("configurable"); ok {
		p.Configurable = v.ToBoolean()
	}
	return p
}

// propertyDescriptorToValue is the inverse of objectToPropertyDescriptor,
// used to hand a descriptor to the `defineProperty` trap.
func propertyDescriptorToValue(p Property) jsvalue.Value {
	obj := New(nil)
	set := func(name string, v jsvalue.Value) {
		key := jsvalue.PropertyKey{Kind: jsvalue.PropKeyString, Str: &jsvalue.InternedString{Content: name, IndexValue: -1}}
		obj.DefineOwnProperty(key, Property{Value: v, Writable: true, Enumerable: true, Configurable: true})
	}
	if p.IsAccessor {
		if p.Getter != nil {
			set("get", jsvalue.Object(p.Getter))
		}
		if p.Setter != nil {
			set("set", jsvalue.Object(p.Setter))
		}
	} else {
		set("value", p.Value)
		set("writable", jsvalue.Bool(p.Writable))
	}
	set("enumerable", jsvalue.Bool(p.Enumerable))
	set("configurable", jsvalue.Bool(p.Configurable))
	return jsvalue.Object(obj)
}
