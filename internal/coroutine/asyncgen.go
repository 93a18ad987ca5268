package coroutine

import "github.com/nyxlang/nyx/internal/jsvalue"

// AsyncRequest is one pending async-generator operation: the method
// kind, its argument, and the capability to settle with the resulting
// iterator-result (spec.md §4.6 "a FIFO of pending requests").
type AsyncRequest struct {
	Type       ReceivedType
	Value      jsvalue.Value
	Capability *Promise
}

// RequestQueue is the strictly-FIFO async-generator request queue
// (spec.md §5 "a generator's requests are served strictly in FIFO
// order").
type RequestQueue struct {
	items []AsyncRequest
}

// Enqueue appends a request and reports whether it is now the only
// one (meaning the caller should start draining).
func (q *RequestQueue) Enqueue(r AsyncRequest) bool {
	q.items = append(q.items, r)
	return len(q.items) == 1
}

// Head returns the front request without removing it.
func (q *RequestQueue) Head() AsyncRequest { return q.items[0] }

// Dequeue removes the front request.
func (q *RequestQueue) Dequeue() {
	q.items = q.items[1:]
}

// Len reports the number of pending requests.
func (q *RequestQueue) Len() int { return len(q.items) }
