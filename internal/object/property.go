package object

import (
	"sort"

	"github.com/nyxlang/nyx/internal/jsvalue"
)

// sparsityThreshold mirrors spec.md §3: the array part becomes sparse
// once max-index exceeds 16 and the capacity/count ratio exceeds 4x.
const sparsityMinIndex = 16
const sparsityRatio = 4

// rawGetOwn looks up a property directly on o's own bag, without
// walking the prototype chain and without any exotic-object override.
// Every variant's GetOwnProperty ultimately bottoms out here.
func (o *Object) rawGetOwn(key jsvalue.PropertyKey) (*Property, bool) {
	switch key.Kind {
	case jsvalue.PropKeyIndex:
		return o.getIndex(key.Index)
	case jsvalue.PropKeyString:
		p, ok := o.stringProps[key.Str.Content]
		return p, ok
	case jsvalue.PropKeySymbol:
		p, ok := o.symbolProps[key.Sym]
		return p, ok
	case jsvalue.PropKeyPrivate:
		if o.privateProps == nil {
			return nil, false
		}
		p, ok := o.privateProps[key.Private]
		return p, ok
	}
	return nil, false
}

func (o *Object) getIndex(idx int64) (*Property, bool) {
	if !o.isSparse && idx >= 0 && idx < int64(len(o.arrayDense)) {
		p := o.arrayDense[idx]
		return p, p != nil
	}
	p, ok := o.arraySparse[idx]
	return p, ok
}

// rawDefine installs or overwrites a property in o's own bag, handling
// the dense<->sparse array-part transition (spec.md §8 "Array
// sparsity transition").
func (o *Object) rawDefine(key jsvalue.PropertyKey, desc Property) {
	switch key.Kind {
	case jsvalue.PropKeyIndex:
		o.setIndex(key.Index, &desc)
	case jsvalue.PropKeyString:
		if _, existed := o.stringProps[key.Str.Content]; !existed {
			o.stringOrder = append(o.stringOrder, key.Str)
		}
		o.stringProps[key.Str.Content] = &desc
	case jsvalue.PropKeySymbol:
		if _, existed := o.symbolProps[key.Sym]; !existed {
			o.symbolOrder = append(o.symbolOrder, key.Sym)
		}
		o.symbolProps[key.Sym] = &desc
	case jsvalue.PropKeyPrivate:
		if o.privateProps == nil {
			o.privateProps = make(map[*jsvalue.PrivateName]*Property)
		}
		o.privateProps[key.Private] = &desc
	}
}

func (o *Object) setIndex(idx int64, desc *Property) {
	if idx > o.maxIndex {
		o.maxIndex = idx
	}

	if o.isSparse {
		o.arraySparse[idx] = desc
		o.maybeDensify()
		return
	}

	if idx < int64(len(o.arrayDense)) {
		o.arrayDense[idx] = desc
	} else if idx == int64(len(o.arrayDense)) || shouldGrowDense(o, idx) {
		for int64(len(o.arrayDense)) <= idx {
			o.arrayDense = append(o.arrayDense, nil)
		}
		o.arrayDense[idx] = desc
	} else {
		o.goSparse()
		o.arraySparse[idx] = desc
	}
}

func shouldGrowDense(o *Object, idx int64) bool {
	if idx < sparsityMinIndex {
		return true
	}
	count := int64(o.denseCount()) + 1
	return idx+1 <= count*sparsityRatio
}

func (o *Object) denseCount() int {
	n := 0
	for _, p := range o.arrayDense {
		if p != nil {
			n++
		}
	}
	return n
}

// goSparse migrates the dense array part into the sparse map.
func (o *Object) goSparse() {
	for i, p := range o.arrayDense {
		if p != nil {
			o.arraySparse[int64(i)] = p
		}
	}
	o.arrayDense = nil
	o.isSparse = true
}

// maybeDensify migrates back to a dense representation if the sparse
// map's fill ratio rises enough to justify it. Not required by
// spec.md, but keeps long-lived arrays from staying sparse forever
// after a transient spike.
func (o *Object) maybeDensify() {
	if o.maxIndex < 0 || o.maxIndex >= sparsityMinIndex*sparsityRatio {
		return
	}
	count := int64(len(o.arraySparse))
	if o.maxIndex+1 > count*sparsityRatio {
		return
	}
	dense := make([]*Property, o.maxIndex+1)
	for idx, p := range o.arraySparse {
		dense[idx] = p
	}
	o.arrayDense = dense
	o.arraySparse = make(map[int64]*Property)
	o.isSparse = false
}

// rawDelete removes a property from o's own bag.
func (o *Object) rawDelete(key jsvalue.PropertyKey) {
	switch key.Kind {
	case jsvalue.PropKeyIndex:
		if o.isSparse {
			delete(o.arraySparse, key.Index)
		} else if key.Index >= 0 && key.Index < int64(len(o.arrayDense)) {
			o.arrayDense[key.Index] = nil
		}
	case jsvalue.PropKeyString:
		delete(o.stringProps, key.Str.Content)
		for i, s := range o.stringOrder {
			if s == key.Str {
				o.stringOrder = append(o.stringOrder[:i], o.stringOrder[i+1:]...)
				break
			}
		}
	case jsvalue.PropKeySymbol:
		delete(o.symbolProps, key.Sym)
		for i, s := range o.symbolOrder {
			if s == key.Sym {
				o.symbolOrder = append(o.symbolOrder[:i], o.symbolOrder[i+1:]...)
				break
			}
		}
	case jsvalue.PropKeyPrivate:
		if o.privateProps != nil {
			delete(o.privateProps, key.Private)
		}
	}
}

// rawOwnKeys enumerates own keys in spec.md §4.2's mandated order:
// integer indices ascending, then strings in insertion order, then
// symbols in insertion order. Private names are never enumerable via
// own-keys (spec.md treats them as a distinct key class entirely).
func (o *Object) rawOwnKeys() []jsvalue.PropertyKey {
	var keys []jsvalue.PropertyKey

	if o.isSparse {
		indices := make([]int64, 0, len(o.arraySparse))
		for idx := range o.arraySparse {
			indices = append(indices, idx)
		}
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
		for _, idx := range indices {
			keys = append(keys, jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: idx})
		}
	} else {
		for i, p := range o.arrayDense {
			if p != nil {
				keys = append(keys, jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: int64(i)})
			}
		}
	}

	for _, s := range o.stringOrder {
		if _, ok := o.stringProps[s.Content]; ok {
			keys = append(keys, jsvalue.KeyFromString(s))
		}
	}
	for _, s := range o.symbolOrder {
		if _, ok := o.symbolProps[s]; ok {
			keys = append(keys, jsvalue.KeyFromSymbol(s))
		}
	}
	return keys
}
