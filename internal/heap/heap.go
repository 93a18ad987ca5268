// Package heap implements the tracing garbage collector spec.md §4.1
// describes: a classic tri-colour mark-sweep over GC "heap things"
// (spec.md §3), run at interpreter safe points between bytecode
// instructions. Grounded on the teacher's internal/interp/runtime/
// pool.go (arena-allocation idiom) and refcount.go (object lifecycle
// bookkeeping), adapted from refcounting to tracing GC because
// spec.md §9 calls out cyclic object graphs (prototype ↔ derived
// class, proxy ↔ handler) that refcounting alone cannot collect.
package heap

import "github.com/nyxlang/nyx/internal/jsvalue"

// Color is a heap thing's tri-colour mark bit (spec.md §3 "GC colour
// bits").
type Color byte

const (
	White Color = iota // candidate for collection
	Gray               // reached, children not yet scanned
	Black              // reached, children scanned
)

// Scannable is the per-tag "operation-table pointer" spec.md §3
// requires every heap thing to carry: a Scan method the collector
// calls to walk outgoing references, plus the tri-colour bits the
// collector flips in place.
type Scannable interface {
	jsvalue.HeapRef
	// Scan invokes visit once for every jsvalue.Value this heap thing
	// holds a strong reference to.
	Scan(visit func(jsvalue.Value))
	gcHeader() *Header
}

// Header is embedded by every heap thing to carry its GC colour bit
// and finalizer hook, letting the collector stay agnostic of the
// concrete tag.
type Header struct {
	color    Color
	finalize func()
}

func (h *Header) gcHeader() *Header { return h }

// RootScanner lets an external owner (the value stack, the context
// stack, a string/symbol registry) hand the collector its live
// values without the heap package knowing the owner's shape (spec.md
// §4.1 roots (a)-(e)).
type RootScanner func(visit func(jsvalue.Value))

// Heap is the per-runtime GC arena. One Heap belongs to exactly one
// Runtime (spec.md §9 "each runtime owns its own heap... no
// process-wide globals").
type Heap struct {
	things    []Scannable
	roots     []RootScanner
	weak      *WeakTable
	liveBytes int64
	threshold int64
	bytesOf   func(Scannable) int64
}

// New creates an empty heap. bytesOf estimates a heap thing's size
// for the allocation-threshold heuristic; a nil bytesOf defaults to a
// flat per-object estimate.
func New(bytesOf func(Scannable) int64) *Heap {
	if bytesOf == nil {
		bytesOf = func(Scannable) int64 { return 64 }
	}
	h := &Heap{threshold: 1 << 20, bytesOf: bytesOf}
	h.weak = newWeakTable(h)
	return h
}

// Weak returns the heap's weak-reference side table.
func (h *Heap) Weak() *WeakTable { return h.weak }

// AddRoot registers an external root-scan callback (spec.md §4.1
// roots (a) value-stack, (b) context stack, (c) intrinsics, (d)
// string/symbol registries, (e) externally registered roots).
func (h *Heap) AddRoot(scan RootScanner) { h.roots = append(h.roots, scan) }

// Alloc registers a freshly allocated heap thing with the arena and
// schedules a collection if the live-byte threshold is crossed. The
// caller already holds the only reference; Alloc does not itself
// retain liveness — that's the mark phase's job on the next GC.
func (h *Heap) Alloc(s Scannable) {
	h.things = append(h.things, s)
	h.liveBytes += h.bytesOf(s)
}

// SetFinalizer attaches a native-resource release hook invoked when
// this heap thing is swept (spec.md §4.1 "Sweeping invokes per-tag
// finalisers that release native buffers").
func SetFinalizer(s Scannable, fn func()) { s.gcHeader().finalize = fn }

// NeedsCollection reports whether the allocator's threshold has been
// crossed (spec.md §4.1 "crossing a threshold schedules a collection
// at the next safe point").
func (h *Heap) NeedsCollection() bool { return h.liveBytes >= h.threshold }

// Collect runs one full stop-the-world mark-sweep cycle (spec.md §9's
// documented open-question resolution: stop-the-world at interpreter
// safe points, the simpler option the spec explicitly allows).
func (h *Heap) Collect() {
	for _, t := range h.things {
		t.gcHeader().color = White
	}

	var gray []Scannable
	markValue := func(v jsvalue.Value) {
		if ref, ok := v.Ptr.(Scannable); ok && ref != nil {
			if ref.gcHeader().color == White {
				ref.gcHeader().color = Gray
				gray = append(gray, ref)
			}
		}
	}

	for _, root := range h.roots {
		root(markValue)
	}

	for len(gray) > 0 {
		t := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		t.gcHeader().color = Black
		t.Scan(markValue)
	}

	h.weak.sweep(func(s Scannable) bool { return s.gcHeader().color != White })

	survivors := h.things[:0]
	var freedBytes int64
	for _, t := range h.things {
		if t.gcHeader().color == White {
			if fn := t.gcHeader().finalize; fn != nil {
				fn()
			}
			freedBytes += h.bytesOf(t)
			continue
		}
		survivors = append(survivors, t)
	}
	h.things = survivors
	h.liveBytes -= freedBytes
	if h.liveBytes < 0 {
		h.liveBytes = 0
	}
}

// LiveCount reports how many heap things currently survive, used by
// tests asserting collection actually freed something.
func (h *Heap) LiveCount() int { return len(h.things) }
