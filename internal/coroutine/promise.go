package coroutine

import "github.com/nyxlang/nyx/internal/jsvalue"

// PromiseState is a promise's settlement state.
type PromiseState byte

const (
	Pending PromiseState = iota
	Fulfilled
	Rejected
)

// Promise is the minimal capability async functions resolve through
// (spec.md §4.6). It is not the user-facing `Promise` built-in — that
// library is out of the core's scope — but the built-in wrapper object
// the realm exposes delegates to exactly this type. Reactions run as
// host jobs, never inline, so `await` of an already-settled promise
// still resumes in a later microtask (spec.md §8 "Async law").
type Promise struct {
	q     *JobQueue
	state PromiseState
	value jsvalue.Value

	fulfillReactions []func(jsvalue.Value)
	rejectReactions  []func(jsvalue.Value)
}

// NewPromise creates a pending promise whose reactions run on q.
func NewPromise(q *JobQueue) *Promise { return &Promise{q: q} }

// State reports the settlement state.
func (p *Promise) State() PromiseState { return p.state }

// Value returns the settled value (or rejection reason); only
// meaningful once State is not Pending.
func (p *Promise) Value() jsvalue.Value { return p.value }

// Resolve fulfills the promise. Settling twice is a no-op, matching
// the once-only capability contract. Thenable adoption (resolving with
// another promise) is the caller's concern; this layer treats every
// value as terminal.
func (p *Promise) Resolve(v jsvalue.Value) {
	if p.state != Pending {
		return
	}
	p.state = Fulfilled
	p.value = v
	for _, r := range p.fulfillReactions {
		p.scheduleReaction(r, v)
	}
	p.fulfillReactions, p.rejectReactions = nil, nil
}

// Reject settles the promise with a rejection reason.
func (p *Promise) Reject(v jsvalue.Value) {
	if p.state != Pending {
		return
	}
	p.state = Rejected
	p.value = v
	for _, r := range p.rejectReactions {
		p.scheduleReaction(r, v)
	}
	p.fulfillReactions, p.rejectReactions = nil, nil
}

// Then registers reactions. Reactions on one promise run in
// registration order (spec.md §5); a reaction added after settlement
// is scheduled immediately — as a job, never synchronously.
func (p *Promise) Then(onFulfilled, onRejected func(jsvalue.Value)) {
	switch p.state {
	case Pending:
		if onFulfilled != nil {
			p.fulfillReactions = append(p.fulfillReactions, onFulfilled)
		}
		if onRejected != nil {
			p.rejectReactions = append(p.rejectReactions, onRejected)
		}
	case Fulfilled:
		if onFulfilled != nil {
			p.scheduleReaction(onFulfilled, p.value)
		}
	case Rejected:
		if onRejected != nil {
			p.scheduleReaction(onRejected, p.value)
		}
	}
}

func (p *Promise) scheduleReaction(r func(jsvalue.Value), v jsvalue.Value) {
	p.q.Enqueue(func() { r(v) })
}
