package lexenv

import (
	"testing"

	"github.com/nyxlang/nyx/internal/jsvalue"
)

func TestDeadZone_ReadBeforeInitThrowsReferenceError(t *testing.T) {
	env := NewDeclarative(nil)
	env.CreateImmutableBinding("x", true)

	if _, err := env.GetBindingValue("x", true); err == nil {
		t.Fatal("expected TDZ error reading before initialisation")
	} else if _, ok := err.(*TDZError); !ok {
		t.Fatalf("expected *TDZError, got %T: %v", err, err)
	}

	env.InitialiseBinding("x", jsvalue.Number(42))
	v, err := env.GetBindingValue("x", true)
	if err != nil {
		t.Fatalf("unexpected error after initialisation: %v", err)
	}
	if v.Num() != 42 {
		t.Errorf("got %v, want 42", v.Num())
	}
}

func TestUndeclaredBinding_ReferenceError(t *testing.T) {
	env := NewDeclarative(nil)
	if _, err := env.GetBindingValue("missing", true); err == nil {
		t.Fatal("expected reference error for undeclared binding")
	} else if _, ok := err.(*ReferenceError); !ok {
		t.Fatalf("expected *ReferenceError, got %T", err)
	}
}

func TestConstAssignment_TypeError(t *testing.T) {
	env := NewDeclarative(nil)
	env.CreateImmutableBinding("c", true)
	env.InitialiseBinding("c", jsvalue.Number(1))

	err := env.SetMutableBinding("c", jsvalue.Number(2), true)
	if err == nil {
		t.Fatal("expected error assigning to const binding")
	}
	if _, ok := err.(*TypeErrorConstAssign); !ok {
		t.Fatalf("expected *TypeErrorConstAssign, got %T", err)
	}
}

func TestOuterChainLookupFallsThrough(t *testing.T) {
	outer := NewDeclarative(nil)
	outer.CreateMutableBinding("y", false)
	outer.InitialiseBinding("y", jsvalue.Number(7))

	inner := NewDeclarative(outer)
	if inner.HasBinding("y") {
		t.Fatal("HasBinding should only check the local record, not outer chain")
	}

	env := inner
	var found *Env
	for e := env; e != nil; e = e.Outer {
		if e.HasBinding("y") {
			found = e
			break
		}
	}
	if found != outer {
		t.Fatal("walking the outer chain should resolve 'y' in outer")
	}
}

func TestDeleteBinding_RespectsDeletableFlag(t *testing.T) {
	env := NewDeclarative(nil)
	env.CreateMutableBinding("perm", false)
	env.InitialiseBinding("perm", jsvalue.Undefined)
	if env.DeleteBinding("perm") {
		t.Error("non-deletable binding should not be deletable")
	}

	env.CreateMutableBinding("temp", true)
	env.InitialiseBinding("temp", jsvalue.Undefined)
	if !env.DeleteBinding("temp") {
		t.Error("deletable binding should be deletable")
	}
	if env.HasBinding("temp") {
		t.Error("deleted binding should no longer be present")
	}
}

func TestArrowFunctionThisDelegatesToOuter(t *testing.T) {
	outer := NewFunction(nil, ThisUninitialised, nil)
	outerThis := jsvalue.Number(99)
	outer.BindThis(outerThis)

	arrow := NewFunction(outer, ThisLexical, nil)
	if arrow.HasThisBinding() {
		t.Error("lexical (arrow) environment should not have its own this-binding")
	}

	v, err := arrow.GetThisBinding()
	if err != nil {
		t.Fatalf("unexpected error resolving this: %v", err)
	}
	if v.Num() != 99 {
		t.Errorf("arrow should inherit outer this = 99, got %v", v.Num())
	}
}
