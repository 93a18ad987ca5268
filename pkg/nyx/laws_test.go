package nyx_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/pkg/nyx"
)

// TestValueStringRoundTrip checks that fromString(toString(v)) is
// SameValueZero(v) for every primitive kind.
func TestValueStringRoundTrip(t *testing.T) {
	values := []jsvalue.Value{
		nyx.Undefined,
		nyx.Null,
		nyx.FromBool(true),
		nyx.FromBool(false),
		nyx.FromFloat64(0),
		nyx.FromFloat64(-0.0),
		nyx.FromFloat64(42),
		nyx.FromFloat64(-3.25),
		nyx.FromFloat64(0.1),
		nyx.FromFloat64(1e21),
		nyx.FromFloat64(5e-7),
		nyx.FromFloat64(math.NaN()),
		nyx.FromFloat64(math.Inf(1)),
		nyx.FromBigInt(big.NewInt(1234567890)),
		nyx.FromString("hello"),
		nyx.FromString(""),
	}
	for _, v := range values {
		s := nyx.ToString(v)
		back := nyx.FromString(s)
		if !jsvalue.SameValueZero(v, back) {
			t.Errorf("round trip failed for %v: toString=%q, back=%v", v.Kind, s, back.Kind)
		}
	}
}

// TestPropertyKeyCanonicalisation: obj[s] === obj[i] when s is the
// canonical decimal of i.
func TestPropertyKeyCanonicalisation(t *testing.T) {
	v := evalValue(t, `const o={}; o["7"]=1; o[7]===o["7"] && o["007"]===undefined`)
	if !v.IsBool() || !v.AsBool() {
		t.Fatalf("canonicalisation law failed: %v", v)
	}
}

// TestArraySparsityKeyOrder: after inserting index 0 and 100000 and
// removing index 0, enumeration yields exactly ["100000"].
func TestArraySparsityKeyOrder(t *testing.T) {
	v := evalValue(t, `
		const o=[];
		o[0]=1; o[100000]=2;
		delete o[0];
		const ks=[];
		for (const k in o) ks.push(k);
		ks.join(",")`)
	if !v.IsString() || v.AsString().Content != "100000" {
		t.Fatalf("sparse enumeration = %v, want \"100000\"", v)
	}
}

// TestLetDeadZone: reading a let binding before its initializer
// throws ReferenceError; after it, the read succeeds.
func TestLetDeadZone(t *testing.T) {
	v := evalValue(t, `
		function probe() { return x }
		let caught;
		try { probe() } catch (e) { caught = e instanceof ReferenceError }
		let x = 10;
		caught && probe() === 10`)
	if !v.IsBool() || !v.AsBool() {
		t.Fatalf("dead-zone law failed: %v", v)
	}
}

// TestGeneratorReturnRunsFinallyOnce: a .return() at a yield point
// runs the pending finally exactly once, and a later .next() reports
// {value: undefined, done: true}.
func TestGeneratorReturnRunsFinallyOnce(t *testing.T) {
	v := evalValue(t, `
		let fin = 0;
		function* g() {
			try { yield 1; yield 2 } finally { fin = fin + 1 }
		}
		const it = g();
		it.next();
		it.return(5);
		const r = it.next();
		fin === 1 && r.done === true && r.value === undefined`)
	if !v.IsBool() || !v.AsBool() {
		t.Fatalf("generator return law failed: %v", v)
	}
}

// TestAwaitResumesInMicrotask: an await of an already-available value
// resumes strictly after synchronous code that follows the call.
func TestAwaitResumesInMicrotask(t *testing.T) {
	engine, err := nyx.New()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if _, err := engine.Eval(`
		let log = [];
		async function f() { log.push("start"); await null; log.push("resumed") }
		f();
		log.push("sync-after");`); err != nil {
		t.Fatalf("evaluation error: %v", err)
	}
	v, err := engine.Eval(`log.join(",")`)
	if err != nil {
		t.Fatalf("evaluation error: %v", err)
	}
	want := "start,sync-after,resumed"
	if !v.IsString() || v.AsString().Content != want {
		t.Fatalf("ordering = %v, want %q", v, want)
	}
}

// TestClassInheritance exercises classes, super calls, and field
// initializers together.
func TestClassInheritance(t *testing.T) {
	v := evalValue(t, `
		class Animal {
			constructor(name) { this.name = name }
			speak() { return this.name + " makes a sound" }
		}
		class Dog extends Animal {
			constructor(name) { super(name) }
			speak() { return super.speak() + ": woof" }
		}
		new Dog("rex").speak()`)
	want := "rex makes a sound: woof"
	if !v.IsString() || v.AsString().Content != want {
		t.Fatalf("got %v, want %q", v, want)
	}
}

// TestDestructuringAndSpread covers patterns, defaults, rest, and
// object spread in one pass.
func TestDestructuringAndSpread(t *testing.T) {
	v := evalValue(t, `
		const [a, b = 10, ...rest] = [1, undefined, 3, 4];
		const {x, y: z, ...others} = {x: 5, y: 6, w: 7};
		[a, b, rest.length, x, z, others.w].join(",")`)
	want := "1,10,2,5,6,7"
	if !v.IsString() || v.AsString().Content != want {
		t.Fatalf("got %v, want %q", v, want)
	}
}

// TestModuleLinking evaluates a two-module graph through an in-memory
// resolver.
func TestModuleLinking(t *testing.T) {
	sources := map[string]string{
		"math.js": `export const answer = 40; export function add2(n) { return n + 2 }`,
	}
	engine, err := nyx.New(nyx.WithModuleResolver(func(specifier, referrer string) (string, string, error) {
		src, ok := sources[specifier]
		if !ok {
			t.Fatalf("unexpected import %q", specifier)
		}
		return src, specifier, nil
	}))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	v, err := engine.RunModule(`
		import { answer, add2 } from "math.js";
		add2(answer)`, "main.js")
	if err != nil {
		t.Fatalf("module evaluation error: %v", err)
	}
	if !v.IsNumber() || v.Num() != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}

// TestTopLevelAwait: module evaluation suspends and resumes through
// the job queue.
func TestTopLevelAwait(t *testing.T) {
	engine, err := nyx.New()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	v, err := engine.RunModule(`const x = await 41; x + 1`, "main.js")
	if err != nil {
		t.Fatalf("module evaluation error: %v", err)
	}
	if !v.IsNumber() || v.Num() != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}

// TestUncaughtErrorSurfacesAsThrown: runtime errors reach the
// embedder as thrown values, not Go panics.
func TestUncaughtErrorSurfacesAsThrown(t *testing.T) {
	engine, err := nyx.New()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if _, err := engine.Eval(`null.x`); err == nil {
		t.Fatal("expected an uncaught TypeError")
	}
}

// TestSyntaxErrorIsSynchronous: parse errors come back from the
// compile entry point, never as thrown script values.
func TestSyntaxErrorIsSynchronous(t *testing.T) {
	engine, err := nyx.New()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	if _, err := engine.Compile(`let = = 3;`, "bad.js"); err == nil {
		t.Fatal("expected a syntax error")
	}
}
