package nyx_test

import (
	"testing"

	"github.com/nyxlang/nyx/internal/coroutine"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
	"github.com/nyxlang/nyx/internal/vm"
	"github.com/nyxlang/nyx/pkg/nyx"
)

func evalValue(t *testing.T, source string) jsvalue.Value {
	t.Helper()
	engine, err := nyx.New()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	v, err := engine.Eval(source)
	if err != nil {
		t.Fatalf("evaluation error: %v", err)
	}
	return v
}

func TestLoopAccumulation(t *testing.T) {
	v := evalValue(t, `let s=0;for(let i=1;i<=100;i++)s+=i;s`)
	if !v.IsNumber() || v.Num() != 5050 {
		t.Fatalf("got %v, want 5050", v)
	}
}

func TestGeneratorSpread(t *testing.T) {
	v := evalValue(t, `function*g(){yield 1;yield 2}let a=[...g()];a`)
	arr, _ := v.Ptr.(*object.Object)
	if !v.IsObject() || arr == nil {
		t.Fatalf("expected an array object, got %v", v.Kind)
	}
	if n := object.Length(arr); n != 2 {
		t.Fatalf("length = %d, want 2", n)
	}
	for i, want := range []float64{1, 2} {
		el, err := arr.Get(jsvalue.PropertyKey{Kind: jsvalue.PropKeyIndex, Index: int64(i)}, v)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if !el.IsNumber() || el.Num() != want {
			t.Errorf("a[%d] = %v, want %v", i, el, want)
		}
	}
}

func TestAsyncFunctionFulfillment(t *testing.T) {
	v := evalValue(t, `async function f(){return await 41+1} f()`)
	o, _ := v.Ptr.(*object.Object)
	if o == nil {
		t.Fatalf("expected a promise object, got %v", v.Kind)
	}
	pd, _ := o.Extra.(*vm.PromiseData)
	if pd == nil {
		t.Fatalf("expected a promise payload, got %T", o.Extra)
	}
	if pd.P.State() != coroutine.Fulfilled {
		t.Fatalf("promise state = %v, want fulfilled", pd.P.State())
	}
	if got := pd.P.Value(); !got.IsNumber() || got.Num() != 42 {
		t.Fatalf("fulfilled value = %v, want 42", got)
	}
}

func TestMapValuesJoin(t *testing.T) {
	v := evalValue(t, `const m=new Map([[1,'a'],[2,'b']]);[...m.values()].join(',')`)
	if !v.IsString() || v.AsString().Content != "a,b" {
		t.Fatalf("got %v, want \"a,b\"", v)
	}
}

func TestThrowCatchObjectProperty(t *testing.T) {
	v := evalValue(t, `try{throw {x:7}}catch(e){e.x}`)
	if !v.IsNumber() || v.Num() != 7 {
		t.Fatalf("got %v, want 7", v)
	}
}

func TestProxyGetTrap(t *testing.T) {
	v := evalValue(t, `const p=new Proxy({},{ get(_,k){return k.toUpperCase()}}); p.hello`)
	if !v.IsString() || v.AsString().Content != "HELLO" {
		t.Fatalf("got %v, want \"HELLO\"", v)
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf sinkBuffer
	engine, err := nyx.New(nyx.WithOutput(&buf))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if _, err := engine.Eval(`console.log("hello", 1+1)`); err != nil {
		t.Fatalf("evaluation error: %v", err)
	}
	if got := buf.String(); got != "hello 2\n" {
		t.Fatalf("console output = %q, want %q", got, "hello 2\n")
	}
}

type sinkBuffer struct{ data []byte }

func (b *sinkBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}
func (b *sinkBuffer) String() string { return string(b.data) }
