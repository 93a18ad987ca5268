package object

import "github.com/nyxlang/nyx/internal/jsvalue"

const lengthPropName = "length"

// ArrayMethods overrides DefineOwnProperty to enforce the `length`
// invariant spec.md §4.2 describes: writing length may delete indices
// in descending order and fails if a non-configurable indexed
// property blocks truncation; writing an integer-index key extends
// length.
type ArrayMethods struct{ OrdinaryMethods }

// NewArray allocates an empty array exotic object with the given
// array prototype.
func NewArray(proto *Object) *Object {
	o := New(proto)
	o.Kind = KindArray
	o.Methods = ArrayMethods{}
	o.rawDefine(jsvalue.PropertyKey{Kind: jsvalue.PropKeyString, Str: &jsvalue.InternedString{Content: lengthPropName, IndexValue: -1}},
		Property{Value: jsvalue.Number(0), Writable: true})
	return o
}

func (m ArrayMethods) DefineOwnProperty(o *Object, key jsvalue.PropertyKey, desc Property) bool {
	if key.Kind == jsvalue.PropKeyString && key.Str.Content == lengthPropName {
		return m.setLength(o, desc)
	}

	if key.Kind == jsvalue.PropKeyIndex {
		lengthProp, _ := o.rawGetOwn(jsvalue.PropertyKey{Kind: jsvalue.PropKeyString, Str: lengthKey(o)})
		oldLen := int64(0)
		if lengthProp != nil {
			oldLen = int64(lengthProp.Value.Num())
		}
		if key.Index >= oldLen {
			if lengthProp != nil && !lengthProp.Writable {
				return false
			}
			if !m.OrdinaryMethods.DefineOwnProperty(o, key, desc) {
				return false
			}
			if lengthProp != nil {
				lengthProp.Value = jsvalue.Number(float64(key.Index + 1))
			}
			return true
		}
	}

	return m.OrdinaryMethods.DefineOwnProperty(o, key, desc)
}

// setLength implements the length-write algorithm: truncating indices
// in descending order, stopping (and reporting failure) at the first
// non-configurable index that blocks further truncation.
func (m ArrayMethods) setLength(o *Object, desc Property) bool {
	newLen := int64(desc.Value.Num())
	lengthKeyStr := jsvalue.PropertyKey{Kind: jsvalue.PropKeyString, Str: lengthKey(o)}
	current, _ := o.rawGetOwn(lengthKeyStr)
	oldLen := int64(0)
	if current != nil {
		oldLen = int64(current.Value.Num())
	}

	if newLen >= oldLen {
		o.rawDefine(lengthKeyStr, Property{Value: jsvalue.Number(float64(newLen)), Writable: current == nil || current.Writable})
		return true
	}

	for idx := oldLen - 1; idx >= newLen; idx-- {
		p, ok := o.getIndex(idx)
		if !ok {
			continue
		}
		if !p.Configurable {
			// Can't truncate past this index; length settles here.
			o.rawDefine(lengthKeyStr, Property{Value: jsvalue.Number(float64(idx + 1)), Writable: current == nil || current.Writable})
			return false
		}
		o.rawDelete(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: idx})
	}
	o.rawDefine(lengthKeyStr, Property{Value: jsvalue.Number(float64(newLen)), Writable: current == nil || current.Writable})
	return true
}

// lengthKey returns an InternedString denoting "length"; rawGetOwn
// only ever inspects Content for string keys, so a fresh instance
// compares equal to whatever "length" string the property was
// originally defined with.
func lengthKey(o *Object) *jsvalue.InternedString {
	return &jsvalue.InternedString{Content: lengthPropName, IndexValue: -1}
}

// Length reads the current `length` value as an int64 convenience for
// callers (the compiler/VM array-literal and spread paths).
func Length(o *Object) int64 {
	p, ok := o.rawGetOwn(jsvalue.PropertyKey{Kind: jsvalue.PropKeyString, Str: lengthKey(o)})
	if !ok {
		return 0
	}
	return int64(p.Value.Num())
}
