// Package coroutine implements the suspendable execution contexts
// spec.md §4.6/§4.7 describe: the generator state machine, the
// promise/reaction plumbing async functions resume through, the
// FIFO host-job queue, and the async-generator request queue. A
// suspended context is a parked goroutine rendezvousing over a pair of
// unbuffered channels; exactly one side runs at any moment, so the
// runtime stays single-threaded in effect (spec.md §5) while the Go
// scheduler carries the frozen stack for us — no explicit register
// snapshotting needed.
package coroutine

import "github.com/nyxlang/nyx/internal/jsvalue"

// ReceivedType is what a resumption delivers into the suspended
// context: the spec's {next, return, throw, end} received-type slot.
type ReceivedType byte

const (
	ReceiveNext ReceivedType = iota
	ReceiveReturn
	ReceiveThrow
	ReceiveEnd
)

// State is the generator state machine's current position (spec.md
// §4.6 table).
type State byte

const (
	StateUndefined State = iota
	StateSuspendedStart
	StateSuspendedYield
	StateExecuting
	StateAwaitingReturn
	StateCompleted
)

var stateNames = [...]string{
	StateUndefined:      "undefined",
	StateSuspendedStart: "suspended-start",
	StateSuspendedYield: "suspended-yield",
	StateExecuting:      "executing",
	StateAwaitingReturn: "awaiting-return",
	StateCompleted:      "completed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// SuspendKind tags what a suspension means to the driver: a generator
// yield (deliver {value, done:false} to the caller) or an await (park
// until the awaited promise settles).
type SuspendKind byte

const (
	SuspendYield SuspendKind = iota
	SuspendAwait
)

// Step is one observable stop of the coroutine: either a suspension
// (Kind/Value) or completion (Done with Value, or Err).
type Step struct {
	Kind  SuspendKind
	Value jsvalue.Value
	Done  bool
	Err   error
}

// Body is the coroutine's code: it runs on its own goroutine and calls
// Suspend at every yield/await point.
type Body func(co *Coroutine) (jsvalue.Value, error)

// Coroutine is one suspendable context. The zero value is not usable;
// construct with New.
type Coroutine struct {
	state   State
	body    Body
	resume  chan resumeMsg
	suspend chan Step
	started bool
	final   Step
}

type resumeMsg struct {
	typ   ReceivedType
	value jsvalue.Value
}

// New creates a coroutine in the suspended-start state. The body does
// not run until the first Resume.
func New(body Body) *Coroutine {
	return &Coroutine{
		state:   StateSuspendedStart,
		body:    body,
		resume:  make(chan resumeMsg),
		suspend: make(chan Step),
	}
}

// State reports the current state-machine position.
func (co *Coroutine) State() State { return co.state }

// SetAwaitingReturn marks the awaiting-return window an async
// generator enters while `.return(v)` bridges through the host
// promise (spec.md §4.6 "await-return").
func (co *Coroutine) SetAwaitingReturn() { co.state = StateAwaitingReturn }

// Suspend parks the body at a yield/await point and blocks until the
// driver resumes it, returning what the resumption delivered. Must be
// called from the body's goroutine only.
func (co *Coroutine) Suspend(kind SuspendKind, v jsvalue.Value) (ReceivedType, jsvalue.Value) {
	co.suspend <- Step{Kind: kind, Value: v}
	msg := <-co.resume
	return msg.typ, msg.value
}

// Resume drives the coroutine to its next suspension or completion.
// The first Resume starts the body; later ones deliver (typ, v) into
// the pending Suspend call. Calling Resume on a completed coroutine
// returns the cached final step; calling it while executing is the
// caller's reentrancy bug to prevent (the VM checks State first).
func (co *Coroutine) Resume(typ ReceivedType, v jsvalue.Value) Step {
	if co.state == StateCompleted {
		return co.final
	}
	co.state = StateExecuting
	if !co.started {
		co.started = true
		go func() {
			ret, err := co.body(co)
			co.suspend <- Step{Done: true, Value: ret, Err: err}
		}()
	} else {
		co.resume <- resumeMsg{typ: typ, value: v}
	}
	step := <-co.suspend
	if step.Done {
		co.state = StateCompleted
		co.final = step
	} else {
		co.state = StateSuspendedYield
	}
	return step
}

// Complete short-circuits a never-started or suspended coroutine to
// the completed state without running (more of) the body. Used for
// `.return()` on suspended-start and for teardown. A started body
// blocked in Suspend is released with ReceiveEnd so its goroutine can
// unwind and exit.
func (co *Coroutine) Complete(v jsvalue.Value) {
	if co.state == StateCompleted {
		return
	}
	if co.started && co.state == StateSuspendedYield {
		go func() {
			co.resume <- resumeMsg{typ: ReceiveEnd}
			<-co.suspend
		}()
	}
	co.state = StateCompleted
	co.final = Step{Done: true, Value: v}
}
