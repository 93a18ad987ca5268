package heap

import (
	"testing"

	"github.com/nyxlang/nyx/internal/jsvalue"
)

// node is a minimal Scannable used to exercise cyclic marking without
// pulling in the full object package.
type node struct {
	Header
	refs []jsvalue.Value
}

func (*node) HeapThing() {}
func (n *node) Scan(visit func(jsvalue.Value)) {
	for _, v := range n.refs {
		visit(v)
	}
}

func TestCollect_FreesUnreachable(t *testing.T) {
	h := New(nil)
	a := &node{}
	h.Alloc(a)
	if h.LiveCount() != 1 {
		t.Fatalf("LiveCount() = %d, want 1", h.LiveCount())
	}
	h.Collect()
	if h.LiveCount() != 0 {
		t.Errorf("LiveCount() after collect = %d, want 0 (nothing rooted)", h.LiveCount())
	}
}

func TestCollect_CyclicGraphSurvivesWhenRooted(t *testing.T) {
	h := New(nil)
	a := &node{}
	b := &node{}
	a.refs = []jsvalue.Value{jsvalue.Object(b)}
	b.refs = []jsvalue.Value{jsvalue.Object(a)} // cycle
	h.Alloc(a)
	h.Alloc(b)

	h.AddRoot(func(visit func(jsvalue.Value)) { visit(jsvalue.Object(a)) })
	h.Collect()

	if h.LiveCount() != 2 {
		t.Errorf("LiveCount() = %d, want 2 (cycle kept alive by one root)", h.LiveCount())
	}
}

func TestCollect_CyclicGraphDiesWhenUnrooted(t *testing.T) {
	h := New(nil)
	a := &node{}
	b := &node{}
	a.refs = []jsvalue.Value{jsvalue.Object(b)}
	b.refs = []jsvalue.Value{jsvalue.Object(a)}
	h.Alloc(a)
	h.Alloc(b)

	h.Collect()

	if h.LiveCount() != 0 {
		t.Errorf("LiveCount() = %d, want 0 (unrooted cycle must be collected)", h.LiveCount())
	}
}

func TestWeakTable_ClearsOnSweep(t *testing.T) {
	h := New(nil)
	key := &node{}
	h.Alloc(key)

	cleared := false
	h.Weak().RegisterWeakMapEntry(key, jsvalue.Str(nil), func() { cleared = true })

	h.Collect() // key has no strong root, so it dies and the entry clears

	if !cleared {
		t.Error("weak map entry should be cleared when key is unreachable")
	}
}

func TestWeakTable_SurvivesWithStrongRef(t *testing.T) {
	h := New(nil)
	key := &node{}
	h.Alloc(key)
	h.AddRoot(func(visit func(jsvalue.Value)) { visit(jsvalue.Object(key)) })

	cleared := false
	h.Weak().RegisterWeakMapEntry(key, jsvalue.Str(nil), func() { cleared = true })

	h.Collect()

	if cleared {
		t.Error("weak map entry should not clear while key has a strong reference")
	}
}
