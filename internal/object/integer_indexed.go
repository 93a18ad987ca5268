package object

import (
	"encoding/binary"
	"math"

	"github.com/nyxlang/nyx/internal/heap"
	"github.com/nyxlang/nyx/internal/jsvalue"
)

// ElementType names a typed array's backing element format.
type ElementType byte

const (
	ElemInt8 ElementType = iota
	ElemUint8
	ElemUint8Clamped
	ElemInt16
	ElemUint16
	ElemInt32
	ElemUint32
	ElemFloat32
	ElemFloat64
)

var elementSize = [...]int{
	ElemInt8: 1, ElemUint8: 1, ElemUint8Clamped: 1,
	ElemInt16: 2, ElemUint16: 2,
	ElemInt32: 4, ElemUint32: 4, ElemFloat32: 4, ElemFloat64: 8,
}

// IntegerIndexedData is the Extra payload for a typed array: the
// backing data block, the element type/stride, and a byte offset into
// the block (spec.md §4.2 "canonicalises numeric keys into valid index
// checks that honour the underlying buffer's detach state, element
// type, and byte offset/stride").
type IntegerIndexedData struct {
	Block      *heap.Block
	Elem       ElementType
	ByteOffset int
	Length     int // element count
}

// IntegerIndexedMethods overrides property access so that numeric
// index reads/writes go straight to the backing buffer; numeric
// out-of-range sets are silently ignored; string keys fall through to
// ordinary behavior (spec.md §4.2).
type IntegerIndexedMethods struct{ OrdinaryMethods }

// NewTypedArray allocates an integer-indexed object over an existing
// data block.
func NewTypedArray(proto *Object, block *heap.Block, elem ElementType, byteOffset, length int) *Object {
	o := New(proto)
	o.Kind = KindIntegerIndexed
	o.Methods = IntegerIndexedMethods{}
	o.Extra = &IntegerIndexedData{Block: block, Elem: elem, ByteOffset: byteOffset, Length: length}
	return o
}

func (m IntegerIndexedMethods) data(o *Object) *IntegerIndexedData {
	d, _ := o.Extra.(*IntegerIndexedData)
	return d
}

func (m IntegerIndexedMethods) HasProperty(o *Object, key jsvalue.PropertyKey) bool {
	if key.Kind == jsvalue.PropKeyIndex {
		d := m.data(o)
		return d != nil && !d.Block.IsDetached() && key.Index >= 0 && key.Index < int64(d.Length)
	}
	return m.OrdinaryMethods.HasProperty(o, key)
}

func (m IntegerIndexedMethods) Get(o *Object, key jsvalue.PropertyKey, receiver jsvalue.Value) (jsvalue.Value, error) {
	if key.Kind == jsvalue.PropKeyIndex {
		d := m.data(o)
		if d == nil || d.Block.IsDetached() || key.Index < 0 || key.Index >= int64(d.Length) {
			return jsvalue.Undefined, nil
		}
		return jsvalue.Number(readElement(d, int(key.Index))), nil
	}
	return m.OrdinaryMethods.Get(o, key, receiver)
}

func (m IntegerIndexedMethods) Set(o *Object, key jsvalue.PropertyKey, value jsvalue.Value, receiver jsvalue.Value) (bool, error) {
	if key.Kind == jsvalue.PropKeyIndex {
		d := m.data(o)
		if d == nil || d.Block.IsDetached() || key.Index < 0 || key.Index >= int64(d.Length) {
			return true, nil // silently ignored per spec.md §4.2
		}
		writeElement(d, int(key.Index), value.Num())
		return true, nil
	}
	return m.OrdinaryMethods.Set(o, key, value, receiver)
}

func (m IntegerIndexedMethods) DefineOwnProperty(o *Object, key jsvalue.PropertyKey, desc Property) bool {
	if key.Kind == jsvalue.PropKeyIndex {
		ok, _ := m.Set(o, key, desc.Value, jsvalue.Object(o))
		return ok
	}
	return m.OrdinaryMethods.DefineOwnProperty(o, key, desc)
}

func (m IntegerIndexedMethods) OwnPropertyKeys(o *Object) []jsvalue.PropertyKey {
	d := m.data(o)
	keys := make([]jsvalue.PropertyKey, 0, d.Length)
	if d != nil && !d.Block.IsDetached() {
		for i := 0; i < d.Length; i++ {
			keys = append(keys, jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: int64(i)})
		}
	}
	return append(keys, m.OrdinaryMethods.OwnPropertyKeys(o)...)
}

func readElement(d *IntegerIndexedData, idx int) float64 {
	bytes := d.Block.Bytes()
	off := d.ByteOffset + idx*elementSize[d.Elem]
	switch d.Elem {
	case ElemInt8:
		return float64(int8(bytes[off]))
	case ElemUint8, ElemUint8Clamped:
		return float64(bytes[off])
	case ElemInt16:
		return float64(int16(binary.LittleEndian.Uint16(bytes[off:])))
	case ElemUint16:
		return float64(binary.LittleEndian.Uint16(bytes[off:]))
	case ElemInt32:
		return float64(int32(binary.LittleEndian.Uint32(bytes[off:])))
	case ElemUint32:
		return float64(binary.LittleEndian.Uint32(bytes[off:]))
	case ElemFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(bytes[off:])))
	case ElemFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(bytes[off:]))
	}
	return 0
}

func writeElement(d *IntegerIndexedData, idx int, v float64) {
	bytes := d.Block.Bytes()
	off := d.ByteOffset + idx*elementSize[d.Elem]
	switch d.Elem {
	case ElemInt8:
		bytes[off] = byte(int8(v))
	case ElemUint8:
		bytes[off] = byte(uint8(v))
	case ElemUint8Clamped:
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		bytes[off] = byte(uint8(v + 0.5))
	case ElemInt16:
		binary.LittleEndian.PutUint16(bytes[off:], uint16(int16(v)))
	case ElemUint16:
		binary.LittleEndian.PutUint16(bytes[off:], uint16(v))
	case ElemInt32:
		binary.LittleEndian.PutUint32(bytes[off:], uint32(int32(v)))
	case ElemUint32:
		binary.LittleEndian.PutUint32(bytes[off:], uint32(v))
	case ElemFloat32:
		binary.LittleEndian.PutUint32(bytes[off:], math.Float32bits(float32(v)))
	case ElemFloat64:
		binary.LittleEndian.PutUint64(bytes[off:], math.Float64bits(v))
	}
}
