package coroutine

import (
	"testing"

	"github.com/nyxlang/nyx/internal/jsvalue"
)

func TestCoroutineYieldResume(t *testing.T) {
	co := New(func(co *Coroutine) (jsvalue.Value, error) {
		typ, v := co.Suspend(SuspendYield, jsvalue.Number(1))
		if typ != ReceiveNext {
			t.Errorf("received type = %v, want next", typ)
		}
		return v, nil
	})

	if co.State() != StateSuspendedStart {
		t.Fatalf("initial state = %v, want suspended-start", co.State())
	}

	step := co.Resume(ReceiveNext, jsvalue.Undefined)
	if step.Done || !step.Value.IsNumber() || step.Value.Num() != 1 {
		t.Fatalf("first step = %+v, want yield of 1", step)
	}
	if co.State() != StateSuspendedYield {
		t.Fatalf("state = %v, want suspended-yield", co.State())
	}

	step = co.Resume(ReceiveNext, jsvalue.Number(7))
	if !step.Done || step.Value.Num() != 7 {
		t.Fatalf("final step = %+v, want completion with 7", step)
	}
	if co.State() != StateCompleted {
		t.Fatalf("state = %v, want completed", co.State())
	}

	// Resuming a completed coroutine replays the final step.
	again := co.Resume(ReceiveNext, jsvalue.Undefined)
	if !again.Done || again.Value.Num() != 7 {
		t.Fatalf("post-completion step = %+v", again)
	}
}

func TestCoroutineCompleteBeforeStart(t *testing.T) {
	ran := false
	co := New(func(co *Coroutine) (jsvalue.Value, error) {
		ran = true
		return jsvalue.Undefined, nil
	})
	co.Complete(jsvalue.Number(5))
	if co.State() != StateCompleted {
		t.Fatalf("state = %v, want completed", co.State())
	}
	if ran {
		t.Error("body must not run after Complete on suspended-start")
	}
	step := co.Resume(ReceiveNext, jsvalue.Undefined)
	if !step.Done || step.Value.Num() != 5 {
		t.Fatalf("step = %+v, want completion with 5", step)
	}
}

func TestCoroutineCompleteReleasesParkedBody(t *testing.T) {
	released := make(chan ReceivedType, 1)
	co := New(func(co *Coroutine) (jsvalue.Value, error) {
		typ, _ := co.Suspend(SuspendYield, jsvalue.Number(1))
		released <- typ
		return jsvalue.Undefined, nil
	})
	co.Resume(ReceiveNext, jsvalue.Undefined)
	co.Complete(jsvalue.Undefined)
	if typ := <-released; typ != ReceiveEnd {
		t.Fatalf("parked body received %v, want end", typ)
	}
}

func TestJobQueueFIFO(t *testing.T) {
	q := NewJobQueue()
	var order []int
	q.Enqueue(func() { order = append(order, 1) })
	q.Enqueue(func() {
		order = append(order, 2)
		q.Enqueue(func() { order = append(order, 3) })
	})
	q.Drain()
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("order = %v, want [1 2 3]", order)
	}
}

func TestPromiseReactionsRunAsJobsInOrder(t *testing.T) {
	q := NewJobQueue()
	p := NewPromise(q)

	var order []string
	p.Then(func(jsvalue.Value) { order = append(order, "first") }, nil)
	p.Then(func(jsvalue.Value) { order = append(order, "second") }, nil)

	p.Resolve(jsvalue.Number(1))
	if len(order) != 0 {
		t.Fatal("reactions must not run synchronously on settle")
	}
	q.Drain()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v, want [first second]", order)
	}

	// Late registration on a settled promise still goes through the
	// queue.
	ran := false
	p.Then(func(jsvalue.Value) { ran = true }, nil)
	if ran {
		t.Fatal("late reaction must not run synchronously")
	}
	q.Drain()
	if !ran {
		t.Fatal("late reaction never ran")
	}
}

func TestPromiseSettlesOnce(t *testing.T) {
	q := NewJobQueue()
	p := NewPromise(q)
	p.Resolve(jsvalue.Number(1))
	p.Reject(jsvalue.Number(2))
	if p.State() != Fulfilled || p.Value().Num() != 1 {
		t.Fatalf("state/value = %v/%v, want fulfilled/1", p.State(), p.Value())
	}
}

func TestRequestQueueFIFO(t *testing.T) {
	var q RequestQueue
	if !q.Enqueue(AsyncRequest{Type: ReceiveNext}) {
		t.Fatal("first enqueue must report queue start")
	}
	if q.Enqueue(AsyncRequest{Type: ReceiveReturn}) {
		t.Fatal("second enqueue must not report queue start")
	}
	if q.Head().Type != ReceiveNext {
		t.Fatal("head must be the first request")
	}
	q.Dequeue()
	if q.Head().Type != ReceiveReturn || q.Len() != 1 {
		t.Fatal("dequeue must advance to the second request")
	}
}
