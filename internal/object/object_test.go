package object

import (
	"strconv"
	"testing"

	"github.com/nyxlang/nyx/internal/jsvalue"
)

func strKey(table *jsvalue.StringTable, s string) jsvalue.PropertyKey {
	return jsvalue.KeyFromString(table.Intern(s))
}

func TestPropertyKeyCanonicalization(t *testing.T) {
	table := jsvalue.NewStringTable()
	o := New(nil)

	o.DefineOwnProperty(strKey(table, "42"), Property{Value: jsvalue.Number(7), Writable: true, Enumerable: true, Configurable: true})

	byString, ok := o.GetOwnProperty(strKey(table, "42"))
	if !ok || byString.Value.Num() != 7 {
		t.Fatalf("GetOwnProperty(\"42\") = %v, %v", byString, ok)
	}

	byIndex, ok := o.GetOwnProperty(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: 42})
	if !ok || byIndex.Value.Num() != 7 {
		t.Fatalf("obj[42] should equal obj[\"42\"], got %v, %v", byIndex, ok)
	}
}

func TestArraySparsityTransition(t *testing.T) {
	arr := NewArray(nil)

	arr.DefineOwnProperty(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: 0}, Property{Value: jsvalue.Number(1), Writable: true, Enumerable: true, Configurable: true})
	arr.DefineOwnProperty(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: 100000}, Property{Value: jsvalue.Number(2), Writable: true, Enumerable: true, Configurable: true})
	arr.Delete(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: 0})

	keys := arr.OwnPropertyKeys()
	var indexKeys []string
	for _, k := range keys {
		if k.Kind == jsvalue.PropKeyIndex {
			indexKeys = append(indexKeys, strconv.FormatInt(k.Index, 10))
		}
	}
	if len(indexKeys) != 1 || indexKeys[0] != "100000" {
		t.Errorf("enumerated index keys = %v, want [\"100000\"]", indexKeys)
	}
	if !arr.isSparse {
		t.Error("array should be sparse after inserting index 100000")
	}
}

func TestArrayDenseFill(t *testing.T) {
	arr := NewArray(nil)
	for i := int64(0); i < 100; i++ {
		arr.DefineOwnProperty(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: i}, Property{Value: jsvalue.Number(float64(i)), Writable: true, Enumerable: true, Configurable: true})
	}
	if arr.isSparse {
		t.Error("array filling 0..99 densely should not be sparse")
	}
	if Length(arr) != 100 {
		t.Errorf("Length() = %d, want 100", Length(arr))
	}
}

func TestOwnPropertyKeysOrdering(t *testing.T) {
	table := jsvalue.NewStringTable()
	o := New(nil)
	sym := jsvalue.NewSymbol("s")

	o.DefineOwnProperty(strKey(table, "b"), Property{Value: jsvalue.Number(1), Enumerable: true, Configurable: true, Writable: true})
	o.DefineOwnProperty(jsvalue.KeyFromSymbol(sym), Property{Value: jsvalue.Number(2), Enumerable: true, Configurable: true, Writable: true})
	o.DefineOwnProperty(strKey(table, "2"), Property{Value: jsvalue.Number(3), Enumerable: true, Configurable: true, Writable: true})
	o.DefineOwnProperty(strKey(table, "a"), Property{Value: jsvalue.Number(4), Enumerable: true, Configurable: true, Writable: true})

	keys := o.OwnPropertyKeys()
	if len(keys) != 4 {
		t.Fatalf("got %d keys, want 4", len(keys))
	}
	if keys[0].Kind != jsvalue.PropKeyIndex || keys[0].Index != 2 {
		t.Errorf("first key should be index 2, got %+v", keys[0])
	}
	if keys[1].Kind != jsvalue.PropKeyString || keys[1].Str.Content != "b" {
		t.Errorf("second key should be string \"b\" (insertion order), got %+v", keys[1])
	}
	if keys[2].Str.Content != "a" {
		t.Errorf("third key should be string \"a\", got %+v", keys[2])
	}
	if keys[3].Kind != jsvalue.PropKeySymbol {
		t.Errorf("last key should be the symbol, got %+v", keys[3])
	}
}

func TestProxyGetTrap(t *testing.T) {
	table := jsvalue.NewStringTable()
	target := New(nil)
	handler := New(nil)

	handler.Call = nil
	getFn := New(nil)
	getFn.Call = func(this jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
		// args: target, key, receiver -- return key upper-cased.
		key := args[1].AsString()
		upper := ""
		for _, r := range key.Content {
			if r >= 'a' && r <= 'z' {
				r -= 32
			}
			upper += string(r)
		}
		return jsvalue.Str(table.Intern(upper)), nil
	}
	handler.DefineOwnProperty(strKey(table, "get"), Property{Value: jsvalue.Object(getFn), Writable: true, Enumerable: true, Configurable: true})

	proxy := NewProxy(target, handler)
	v, err := proxy.Get(strKey(table, "hello"), jsvalue.Object(proxy))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if v.AsString().Content != "HELLO" {
		t.Errorf("proxy get trap = %q, want \"HELLO\"", v.AsString().Content)
	}
}

func TestOrdinaryDefineOwnProperty_NonConfigurable(t *testing.T) {
	table := jsvalue.NewStringTable()
	o := New(nil)
	key := strKey(table, "x")
	o.DefineOwnProperty(key, Property{Value: jsvalue.Number(1), Writable: false, Enumerable: true, Configurable: false})

	ok := o.DefineOwnProperty(key, Property{Value: jsvalue.Number(2), Writable: false, Enumerable: true, Configurable: false})
	if ok {
		t.Error("redefining a non-configurable, non-writable property's value should fail")
	}
	p, _ := o.GetOwnProperty(key)
	if p.Value.Num() != 1 {
		t.Errorf("value should remain 1, got %v", p.Value.Num())
	}
}
