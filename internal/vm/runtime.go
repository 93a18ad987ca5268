// Package vm implements the bytecode interpreter spec.md §4.5
// describes, structured after the teacher's internal/bytecode VM (a
// dispatch loop over a 32-bit instruction word, a value stack, and a
// frame per activation) and generalized to JavaScript semantics:
// property access flows through internal/object's essential methods,
// variable access through internal/lexenv's chain, and suspension
// points hand the running frame to internal/coroutine.
package vm

import (
	"io"
	"sync/atomic"

	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/coroutine"
	"github.com/nyxlang/nyx/internal/heap"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/lexenv"
	"github.com/nyxlang/nyx/internal/object"
)

// gcCheckInterval is how many instructions run between allocator
// threshold checks (the safe points spec.md §4.1 requires).
const gcCheckInterval = 256

// Runtime is one isolated engine instance: its own heap, string
// table, job queue, and realm. Runtimes share nothing; multiple may
// run on different goroutines concurrently (spec.md §5).
type Runtime struct {
	Heap    *heap.Heap
	Strings *jsvalue.StringTable
	Jobs    *coroutine.JobQueue
	Realm   *Realm

	// Output receives console.log writes; nil discards them.
	Output io.Writer

	// CanBlock gates Atomics.wait for this agent (spec.md §5).
	CanBlock bool

	interrupted atomic.Bool
	instrCount  int

	fibers     map[*fiber]struct{}
	propCaches map[*bytecode.Module][]jsvalue.PropertyKey
}

// NewRuntime creates a fully initialized runtime with its realm's
// intrinsics installed.
func NewRuntime() *Runtime {
	rt := &Runtime{
		Heap:       heap.New(nil),
		Strings:    jsvalue.NewStringTable(),
		Jobs:       coroutine.NewJobQueue(),
		fibers:     make(map[*fiber]struct{}),
		propCaches: make(map[*bytecode.Module][]jsvalue.PropertyKey),
	}
	rt.Realm = rt.newRealm()

	rt.Heap.AddRoot(func(visit func(jsvalue.Value)) {
		rt.Realm.scan(visit)
	})
	rt.Heap.AddRoot(func(visit func(jsvalue.Value)) {
		for f := range rt.fibers {
			f.scan(visit)
		}
	})
	return rt
}

// Interrupt asks the interpreter to stop at the next instruction
// boundary (spec.md §5 "the host may interrupt between instructions").
func (rt *Runtime) Interrupt() { rt.interrupted.Store(true) }

// ClearInterrupt rearms the runtime after an interrupt fired.
func (rt *Runtime) ClearInterrupt() { rt.interrupted.Store(false) }

// track registers a freshly created object with the GC arena.
func (rt *Runtime) track(o *object.Object) *object.Object {
	rt.Heap.Alloc(o)
	return o
}

// NewObject allocates an ordinary object with the realm's Object
// prototype.
func (rt *Runtime) NewObject() *object.Object {
	return rt.track(object.New(rt.Realm.ObjectProto))
}

// NewArrayObject allocates an array exotic object.
func (rt *Runtime) NewArrayObject() *object.Object {
	return rt.track(object.NewArray(rt.Realm.ArrayProto))
}

// str interns a Go string into a string value.
func (rt *Runtime) str(s string) jsvalue.Value {
	return jsvalue.Str(rt.Strings.Intern(s))
}

// key interns a Go string into a canonical property key.
func (rt *Runtime) key(s string) jsvalue.PropertyKey {
	return jsvalue.KeyFromString(rt.Strings.Intern(s))
}

// stringKey builds a transient string key without touching a runtime's
// intern table; used where no Runtime is in reach.
func stringKey(s string) jsvalue.PropertyKey {
	return jsvalue.KeyFromString(&jsvalue.InternedString{Content: s, IndexValue: -1})
}

// maybeCollect runs a GC cycle at a safe point if the allocator asked
// for one.
func (rt *Runtime) maybeCollect() {
	rt.instrCount++
	if rt.instrCount%gcCheckInterval != 0 {
		return
	}
	if rt.Heap.NeedsCollection() {
		rt.Heap.Collect()
	}
}

// propKeyFor resolves a property-reference operand to its canonical
// key, caching per reference slot (spec.md §4.5's inline cache: the
// serialized form carries only the name; the runtime fills the slot
// lazily on first use).
func (rt *Runtime) propKeyFor(m *bytecode.Module, ref int) jsvalue.PropertyKey {
	cache, ok := rt.propCaches[m]
	if !ok {
		cache = make([]jsvalue.PropertyKey, len(m.PropertyRefs))
		rt.propCaches[m] = cache
	}
	if ref >= len(cache) {
		grown := make([]jsvalue.PropertyKey, len(m.PropertyRefs))
		copy(grown, cache)
		cache = grown
		rt.propCaches[m] = cache
	}
	k := cache[ref]
	// An empty slot has no payload pointer; integer-index keys (also
	// pointer-free) just re-canonicalize, which is cheap and keeps the
	// zero value unambiguous.
	if k.Str == nil && k.Sym == nil && k.Private == nil {
		name := m.Constants[m.PropertyRefs[ref].KeyConstant]
		k = jsvalue.KeyFromString(name.AsString())
		cache[ref] = k
	}
	return k
}

// RunTopLevel runs a compiled script's entry function directly in env
// (normally the global environment the loader prepared) and returns
// the script's completion value.
func (rt *Runtime) RunTopLevel(m *bytecode.Module, env *lexenv.Env) (jsvalue.Value, error) {
	d := &ScriptFuncData{Fn: m.TopLevel(), Module: m, Env: env, Rt: rt, TopLevel: true}
	return rt.invoke(d, jsvalue.Object(rt.Realm.GlobalObject), nil, nil, nil)
}

// RunTopLevelAsync runs a module's entry function as a suspendable
// context so top-level await is legal (spec.md §4.7); the returned
// promise settles with the module body's completion.
func (rt *Runtime) RunTopLevelAsync(m *bytecode.Module, env *lexenv.Env) *coroutine.Promise {
	d := &ScriptFuncData{Fn: m.TopLevel(), Module: m, Env: env, Rt: rt, TopLevel: true}
	p := coroutine.NewPromise(rt.Jobs)
	co := coroutine.New(func(co *coroutine.Coroutine) (jsvalue.Value, error) {
		return rt.invoke(d, jsvalue.Object(rt.Realm.GlobalObject), nil, co, nil)
	})
	rt.driveAsync(co, p, coroutine.ReceiveNext, jsvalue.Undefined)
	return p
}
