package vm

import (
	"github.com/nyxlang/nyx/internal/coroutine"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
)

// GeneratorData is the Extra payload of a generator instance: the
// paused context (spec.md §4.6 "owning the paused context and a
// received-type + received-value slot" — both live inside the
// coroutine's rendezvous).
type GeneratorData struct {
	Co *coroutine.Coroutine
	Rt *Runtime
}

func (*GeneratorData) ScanExtra(func(jsvalue.Value)) {}

// PromiseData wraps the core promise capability as an object payload.
type PromiseData struct {
	P *coroutine.Promise
}

func (pd *PromiseData) ScanExtra(visit func(jsvalue.Value)) {
	visit(pd.P.Value())
}

// AsyncGenData is an async generator instance: its coroutine plus the
// strictly-FIFO request queue.
type AsyncGenData struct {
	Co    *coroutine.Coroutine
	Queue coroutine.RequestQueue
	Rt    *Runtime
}

func (ag *AsyncGenData) ScanExtra(func(jsvalue.Value)) {}

// newGeneratorObject creates the instance a generator function call
// returns: the body is parked in suspended-start and only runs when
// next() first arrives.
func (rt *Runtime) newGeneratorObject(d *ScriptFuncData, this jsvalue.Value, args []jsvalue.Value) jsvalue.Value {
	co := coroutine.New(func(co *coroutine.Coroutine) (jsvalue.Value, error) {
		return rt.invoke(d, this, args, co, nil)
	})
	o := object.New(rt.Realm.GeneratorProto)
	o.Extra = &GeneratorData{Co: co, Rt: rt}
	rt.track(o)
	return jsvalue.Object(o)
}

func generatorDataOf(v jsvalue.Value) *GeneratorData {
	o, _ := v.Ptr.(*object.Object)
	if o == nil {
		return nil
	}
	gd, _ := o.Extra.(*GeneratorData)
	return gd
}

// generatorResume implements the §4.6 state table for next/return/
// throw against a generator instance.
func (rt *Runtime) generatorResume(gd *GeneratorData, typ coroutine.ReceivedType, arg jsvalue.Value) (jsvalue.Value, error) {
	co := gd.Co
	switch co.State() {
	case coroutine.StateExecuting:
		return jsvalue.Undefined, rt.typeError("generator is already running")

	case coroutine.StateCompleted:
		switch typ {
		case coroutine.ReceiveThrow:
			return jsvalue.Undefined, &Thrown{Value: arg}
		case coroutine.ReceiveReturn:
			return rt.iterResult(arg, true), nil
		default:
			return rt.iterResult(jsvalue.Undefined, true), nil
		}

	case coroutine.StateSuspendedStart:
		switch typ {
		case coroutine.ReceiveReturn:
			co.Complete(arg)
			return rt.iterResult(arg, true), nil
		case coroutine.ReceiveThrow:
			co.Complete(jsvalue.Undefined)
			return jsvalue.Undefined, &Thrown{Value: arg}
		}
	}

	step := co.Resume(typ, arg)
	if !step.Done {
		return rt.iterResult(step.Value, false), nil
	}
	if step.Err != nil {
		if ar, ok := step.Err.(*abruptReturn); ok {
			return rt.iterResult(ar.value, true), nil
		}
		if step.Err == errTerminated {
			return rt.iterResult(jsvalue.Undefined, true), nil
		}
		return jsvalue.Undefined, step.Err
	}
	return rt.iterResult(step.Value, true), nil
}

// --- async functions ---

// callAsync starts an async function: the body runs synchronously up
// to its first await, and the returned promise settles when the body
// completes (spec.md §4.6 "Async functions").
func (rt *Runtime) callAsync(d *ScriptFuncData, this jsvalue.Value, args []jsvalue.Value) jsvalue.Value {
	p := coroutine.NewPromise(rt.Jobs)
	co := coroutine.New(func(co *coroutine.Coroutine) (jsvalue.Value, error) {
		return rt.invoke(d, this, args, co, nil)
	})
	rt.driveAsync(co, p, coroutine.ReceiveNext, jsvalue.Undefined)
	return jsvalue.Object(rt.NewPromiseObject(p))
}

// driveAsync resumes an async body one step. Awaits re-arm the driver
// through the awaited promise's reactions, so each resumption runs as
// a host job (spec.md §8: resumes in a subsequent microtask).
func (rt *Runtime) driveAsync(co *coroutine.Coroutine, p *coroutine.Promise, typ coroutine.ReceivedType, v jsvalue.Value) {
	if co.State() == coroutine.StateCompleted {
		return
	}
	step := co.Resume(typ, v)
	if step.Done {
		if step.Err == nil {
			rt.resolvePromise(p, step.Value)
			return
		}
		if th, ok := step.Err.(*Thrown); ok {
			p.Reject(th.Value)
			return
		}
		if ar, ok := step.Err.(*abruptReturn); ok {
			rt.resolvePromise(p, ar.value)
			return
		}
		if step.Err != errTerminated {
			p.Reject(rt.NewError("TypeError", step.Err.Error()))
		}
		return
	}
	// Both await and (for async generators reusing this path) yield
	// suspend on the awaited value's settlement.
	ap := rt.promiseOf(step.Value)
	ap.Then(
		func(res jsvalue.Value) { rt.driveAsync(co, p, coroutine.ReceiveNext, res) },
		func(res jsvalue.Value) { rt.driveAsync(co, p, coroutine.ReceiveThrow, res) },
	)
}

// NewPromiseObject wraps a core promise capability as a script-visible
// object.
func (rt *Runtime) NewPromiseObject(p *coroutine.Promise) *object.Object {
	o := object.New(rt.Realm.PromiseProto)
	o.Extra = &PromiseData{P: p}
	rt.track(o)
	return o
}

// PromiseOf exposes promise coercion to the loader (top-level await,
// dynamic import results).
func (rt *Runtime) PromiseOf(v jsvalue.Value) *coroutine.Promise { return rt.promiseOf(v) }

// promiseOf coerces any value to a core promise: promise objects
// unwrap, thenables adopt, everything else pre-fulfills (the
// `Promise.resolve(x)` bridging of spec.md §4.6).
func (rt *Runtime) promiseOf(v jsvalue.Value) *coroutine.Promise {
	if o, _ := v.Ptr.(*object.Object); o != nil {
		if pd, ok := o.Extra.(*PromiseData); ok {
			return pd.P
		}
		thenV, err := o.Get(rt.key("then"), v)
		if err == nil {
			if then, _ := thenV.Ptr.(*object.Object); then != nil && then.IsCallable() {
				p := coroutine.NewPromise(rt.Jobs)
				resolve := rt.NewNativeFunction("", 1, func(_ jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
					rt.resolvePromise(p, argAt(args, 0))
					return jsvalue.Undefined, nil
				})
				reject := rt.NewNativeFunction("", 1, func(_ jsvalue.Value, args []jsvalue.Value) (jsvalue.Value, error) {
					p.Reject(argAt(args, 0))
					return jsvalue.Undefined, nil
				})
				if _, err := then.Call(v, []jsvalue.Value{jsvalue.Object(resolve), jsvalue.Object(reject)}); err != nil {
					if th, ok := rt.jsError(err).(*Thrown); ok {
						p.Reject(th.Value)
					}
				}
				return p
			}
		}
	}
	p := coroutine.NewPromise(rt.Jobs)
	p.Resolve(v)
	return p
}

// resolvePromise settles p with v, adopting v's eventual state when v
// is itself a promise or thenable.
func (rt *Runtime) resolvePromise(p *coroutine.Promise, v jsvalue.Value) {
	if o, _ := v.Ptr.(*object.Object); o != nil {
		if pd, ok := o.Extra.(*PromiseData); ok {
			pd.P.Then(p.Resolve, p.Reject)
			return
		}
		thenV, err := o.Get(rt.key("then"), v)
		if err == nil {
			if then, _ := thenV.Ptr.(*object.Object); then != nil && then.IsCallable() {
				inner := rt.promiseOf(v)
				inner.Then(p.Resolve, p.Reject)
				return
			}
		}
	}
	p.Resolve(v)
}

// --- async generators ---

func (rt *Runtime) newAsyncGeneratorObject(d *ScriptFuncData, this jsvalue.Value, args []jsvalue.Value) jsvalue.Value {
	co := coroutine.New(func(co *coroutine.Coroutine) (jsvalue.Value, error) {
		return rt.invoke(d, this, args, co, nil)
	})
	o := object.New(rt.Realm.AsyncGeneratorProto)
	o.Extra = &AsyncGenData{Co: co, Rt: rt}
	rt.track(o)
	return jsvalue.Object(o)
}

func asyncGenDataOf(v jsvalue.Value) *AsyncGenData {
	o, _ := v.Ptr.(*object.Object)
	if o == nil {
		return nil
	}
	ag, _ := o.Extra.(*AsyncGenData)
	return ag
}

// asyncGenEnqueue queues one request and starts draining if the
// machine was idle (spec.md §4.6 async-generator request queue).
func (rt *Runtime) asyncGenEnqueue(ag *AsyncGenData, typ coroutine.ReceivedType, v jsvalue.Value) jsvalue.Value {
	capability := coroutine.NewPromise(rt.Jobs)
	first := ag.Queue.Enqueue(coroutine.AsyncRequest{Type: typ, Value: v, Capability: capability})
	if first {
		rt.asyncGenDrain(ag)
	}
	return jsvalue.Object(rt.NewPromiseObject(capability))
}

// asyncGenDrain serves queued requests head-first until the queue
// empties or the head parks on an await.
func (rt *Runtime) asyncGenDrain(ag *AsyncGenData) {
	for ag.Queue.Len() > 0 {
		req := ag.Queue.Head()
		co := ag.Co

		if co.State() == coroutine.StateCompleted {
			ag.Queue.Dequeue()
			switch req.Type {
			case coroutine.ReceiveThrow:
				req.Capability.Reject(req.Value)
			default:
				req.Capability.Resolve(rt.iterResult(req.Value, req.Type == coroutine.ReceiveReturn))
			}
			continue
		}

		if co.State() == coroutine.StateSuspendedStart && req.Type != coroutine.ReceiveNext {
			ag.Queue.Dequeue()
			if req.Type == coroutine.ReceiveThrow {
				co.Complete(jsvalue.Undefined)
				req.Capability.Reject(req.Value)
			} else {
				// await-return: bridge the return argument through the
				// host promise before completing (spec.md §4.6).
				co.SetAwaitingReturn()
				arg := req.Value
				capability := req.Capability
				rt.promiseOf(arg).Then(
					func(res jsvalue.Value) {
						co.Complete(res)
						capability.Resolve(rt.iterResult(res, true))
						rt.asyncGenDrain(ag)
					},
					func(res jsvalue.Value) {
						co.Complete(jsvalue.Undefined)
						capability.Reject(res)
						rt.asyncGenDrain(ag)
					},
				)
				return
			}
			continue
		}

		if !rt.asyncGenStep(ag, req.Type, req.Value) {
			return // parked on an await; a job will re-enter
		}
	}
}

// asyncGenStep resumes the body once. It reports false when the body
// parked on an await (a pending job continues the drain), true when
// the head request was settled.
func (rt *Runtime) asyncGenStep(ag *AsyncGenData, typ coroutine.ReceivedType, v jsvalue.Value) bool {
	req := ag.Queue.Head()
	step := ag.Co.Resume(typ, v)

	if step.Done {
		ag.Queue.Dequeue()
		if step.Err == nil {
			req.Capability.Resolve(rt.iterResult(step.Value, true))
		} else if ar, ok := step.Err.(*abruptReturn); ok {
			req.Capability.Resolve(rt.iterResult(ar.value, true))
		} else if th, ok := step.Err.(*Thrown); ok {
			req.Capability.Reject(th.Value)
		} else {
			req.Capability.Reject(rt.NewError("TypeError", step.Err.Error()))
		}
		return true
	}

	if step.Kind == coroutine.SuspendYield {
		ag.Queue.Dequeue()
		req.Capability.Resolve(rt.iterResult(step.Value, false))
		return true
	}

	// Await: park until the value settles, then continue the drain.
	rt.promiseOf(step.Value).Then(
		func(res jsvalue.Value) {
			if rt.asyncGenStep(ag, coroutine.ReceiveNext, res) {
				rt.asyncGenDrain(ag)
			}
		},
		func(res jsvalue.Value) {
			if rt.asyncGenStep(ag, coroutine.ReceiveThrow, res) {
				rt.asyncGenDrain(ag)
			}
		},
	)
	return false
}

func argAt(args []jsvalue.Value, i int) jsvalue.Value {
	if i < len(args) {
		return args[i]
	}
	return jsvalue.Undefined
}
