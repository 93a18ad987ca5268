package vm

import (
	"math"
	"testing"

	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
)

func TestNumberToString(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{42, "42"},
		{-7, "-7"},
		{0.1, "0.1"},
		{-3.25, "-3.25"},
		{1e21, "1e+21"},
		{5e-7, "5e-7"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := NumberToString(tt.in); got != tt.want {
			t.Errorf("NumberToString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStrictEquals(t *testing.T) {
	rt := NewRuntime()
	o := rt.NewObject()

	if !strictEquals(jsvalue.Number(0), jsvalue.Number(math.Copysign(0, -1))) {
		t.Error("+0 === -0 must hold")
	}
	if strictEquals(jsvalue.Number(math.NaN()), jsvalue.Number(math.NaN())) {
		t.Error("NaN === NaN must not hold")
	}
	if !strictEquals(jsvalue.Object(o), jsvalue.Object(o)) {
		t.Error("object identity must hold")
	}
	if strictEquals(jsvalue.Number(1), rt.str("1")) {
		t.Error("cross-kind strict equality must not hold")
	}
}

func TestLooseEquals(t *testing.T) {
	rt := NewRuntime()
	eq := func(a, b jsvalue.Value) bool {
		got, err := rt.looseEquals(a, b)
		if err != nil {
			t.Fatalf("looseEquals: %v", err)
		}
		return got
	}
	if !eq(jsvalue.Null, jsvalue.Undefined) {
		t.Error("null == undefined must hold")
	}
	if !eq(jsvalue.Number(1), rt.str("1")) {
		t.Error("1 == \"1\" must hold")
	}
	if !eq(jsvalue.Bool(true), jsvalue.Number(1)) {
		t.Error("true == 1 must hold")
	}
	if eq(jsvalue.Null, jsvalue.Number(0)) {
		t.Error("null == 0 must not hold")
	}
}

func TestToInt32Wrapping(t *testing.T) {
	if got := toInt32(math.Pow(2, 31)); got != math.MinInt32 {
		t.Errorf("toInt32(2^31) = %d, want %d", got, math.MinInt32)
	}
	if got := toInt32(math.NaN()); got != 0 {
		t.Errorf("toInt32(NaN) = %d, want 0", got)
	}
}

// TestWeakMapEntryClearedByCollection covers the spec law: an entry
// whose key has no strong reference disappears after a collection; a
// rooted key keeps its entry.
func TestWeakMapEntryClearedByCollection(t *testing.T) {
	rt := NewRuntime()

	ctorV, err := rt.Realm.GlobalObject.Get(rt.key("WeakMap"), jsvalue.Object(rt.Realm.GlobalObject))
	if err != nil {
		t.Fatalf("WeakMap lookup: %v", err)
	}
	ctor, _ := ctorV.Ptr.(*object.Object)
	wmV, err := ctor.Construct(nil, nil)
	if err != nil {
		t.Fatalf("WeakMap construct: %v", err)
	}
	wm, _ := wmV.Ptr.(*object.Object)
	setV, _ := wm.Get(rt.key("set"), wmV)
	set, _ := setV.Ptr.(*object.Object)

	deadKey := rt.NewObject()
	liveKey := rt.NewObject()

	// Root the live key (and the map itself) on the global object so
	// marking reaches them.
	rt.Realm.GlobalObject.DefineOwnProperty(rt.key("liveKey"), object.Property{Value: jsvalue.Object(liveKey), Writable: true, Configurable: true})
	rt.Realm.GlobalObject.DefineOwnProperty(rt.key("wm"), object.Property{Value: wmV, Writable: true, Configurable: true})

	if _, err := set.Call(wmV, []jsvalue.Value{jsvalue.Object(deadKey), jsvalue.Number(1)}); err != nil {
		t.Fatalf("set dead key: %v", err)
	}
	if _, err := set.Call(wmV, []jsvalue.Value{jsvalue.Object(liveKey), jsvalue.Number(2)}); err != nil {
		t.Fatalf("set live key: %v", err)
	}

	data, _ := wm.Extra.(*weakMapData)
	if len(data.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(data.entries))
	}

	rt.Heap.Collect()

	if _, alive := data.entries[liveKey]; !alive {
		t.Error("rooted key's entry must survive collection")
	}
	if _, dead := data.entries[deadKey]; dead {
		t.Error("unreferenced key's entry must be cleared by collection")
	}
}

// TestCollectFreesUnreachableObjects checks the arena actually sheds
// unreachable allocations.
func TestCollectFreesUnreachableObjects(t *testing.T) {
	rt := NewRuntime()
	before := rt.Heap.LiveCount()
	for i := 0; i < 100; i++ {
		rt.NewObject()
	}
	if rt.Heap.LiveCount() != before+100 {
		t.Fatalf("expected 100 tracked allocations")
	}
	rt.Heap.Collect()
	if got := rt.Heap.LiveCount(); got > before {
		t.Errorf("collection left %d objects, want <= %d", got, before)
	}
}
