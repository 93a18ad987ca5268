package heap

import "github.com/nyxlang/nyx/internal/jsvalue"

// WeakTable is the side table spec.md §4.1 describes for weak
// references: keyed by the held value's identity, consulted only
// during sweep (never as GC roots). It backs WeakMap/WeakSet/WeakRef/
// FinalizationRegistry, all of which are built-ins (spec.md §1 out of
// scope) layered on this core mechanism.
type WeakTable struct {
	heap     *Heap
	mapEntry map[Scannable][]weakMapEntry
	refs     map[Scannable][]*weakRefSlot
	finalize map[Scannable][]finalizationJob
}

type weakMapEntry struct {
	key   Scannable
	value jsvalue.Value
	clear func()
}

type weakRefSlot struct {
	target Scannable
	clear  func()
}

type finalizationJob struct {
	target   Scannable
	heldInfo jsvalue.Value
	schedule func(jsvalue.Value)
}

func newWeakTable(h *Heap) *WeakTable {
	return &WeakTable{
		heap:     h,
		mapEntry: make(map[Scannable][]weakMapEntry),
		refs:     make(map[Scannable][]*weakRefSlot),
		finalize: make(map[Scannable][]finalizationJob),
	}
}

// RegisterWeakMapEntry records that key->value should be dropped when
// key becomes unreachable. clear is called to let the concrete
// WeakMap built-in remove its own bookkeeping.
func (w *WeakTable) RegisterWeakMapEntry(key Scannable, value jsvalue.Value, clear func()) {
	w.mapEntry[key] = append(w.mapEntry[key], weakMapEntry{key: key, value: value, clear: clear})
}

// RegisterWeakRef records a WeakRef wrapper whose target slot must be
// cleared when the target becomes unreachable.
func (w *WeakTable) RegisterWeakRef(target Scannable, clear func()) {
	w.refs[target] = append(w.refs[target], &weakRefSlot{target: target, clear: clear})
}

// RegisterFinalizer schedules a FinalizationRegistry callback to run
// as a host-job microtask once target is swept (spec.md §4.1 (iii)).
func (w *WeakTable) RegisterFinalizer(target Scannable, heldInfo jsvalue.Value, schedule func(jsvalue.Value)) {
	w.finalize[target] = append(w.finalize[target], finalizationJob{target: target, heldInfo: heldInfo, schedule: schedule})
}

// sweep is called by Heap.Collect with a predicate reporting whether a
// heap thing survived marking. Anything dead has its weak-ref
// wrappers cleared, its weak-map/set entries removed, and its
// finalization callbacks scheduled (spec.md §4.1 (i)-(iii)).
func (w *WeakTable) sweep(alive func(Scannable) bool) {
	for key, entries := range w.mapEntry {
		if alive(key) {
			continue
		}
		for _, e := range entries {
			if e.clear != nil {
				e.clear()
			}
		}
		delete(w.mapEntry, key)
	}

	for target, slots := range w.refs {
		if alive(target) {
			continue
		}
		for _, s := range slots {
			if s.clear != nil {
				s.clear()
			}
		}
		delete(w.refs, target)
	}

	for target, jobs := range w.finalize {
		if alive(target) {
			continue
		}
		for _, j := range jobs {
			if j.schedule != nil {
				j.schedule(j.heldInfo)
			}
		}
		delete(w.finalize, target)
	}
}
