// Package lexenv implements the lexical environment chain spec.md §3
// and §4.3 describe: declarative, object-backed, function, global, and
// module environment records, all represented as one Go struct with a
// kind tag and an outer-chain pointer, following the teacher's
// internal/interp/runtime/environment.go single-struct shape (there
// case-insensitive DWScript identifiers use an ident.Map; here JS
// identifiers are case-sensitive so a plain Go map suffices).
package lexenv

import (
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
)

// Kind discriminates the five environment-record variants spec.md §3
// names.
type Kind byte

const (
	KindDeclarative Kind = iota
	KindObjectBacked
	KindFunction
	KindGlobal
	KindModule
)

// ThisBindingStatus is a function environment's `this`-slot state
// machine (spec.md §3: "uninitialised/lexical/initialised").
type ThisBindingStatus byte

const (
	ThisUninitialised ThisBindingStatus = iota
	ThisLexical                         // arrow functions: no own `this`, delegate to outer
	ThisInitialised
)

// binding is one declarative-record entry with the flags spec.md §3
// lists: initialised, mutable, strict, deletable.
type binding struct {
	value       jsvalue.Value
	initialised bool
	mutable     bool
	strict      bool
	deletable   bool
}

// Env is a single environment record. Only the fields relevant to Kind
// are populated; this mirrors the teacher's single-struct-with-outer-
// chain shape rather than five separate Go types; the indirection cost
// of an interface-per-kind buys nothing here since every record needs
// the same outer-chain walk.
type Env struct {
	Kind  Kind
	Outer *Env

	bindings map[string]*binding
	order    []string // insertion order, for deterministic iteration in tests/disasm

	// Object-backed (`with`) records delegate to a binding object.
	BackingObject *object.Object
	WithEnv       bool

	// Function-environment fields.
	ThisValue      jsvalue.Value
	ThisStatus     ThisBindingStatus
	HomeObject     *object.Object
	NewTarget      *object.Object
	FunctionObject *object.Object

	// Global-environment fields: VarNames tracks every var name ever
	// declared globally, used by has-restricted-global-property checks.
	VarNames map[string]bool

	// Module-environment fields: indirect bindings resolve through
	// another module's export slot rather than a local value.
	indirect map[string]*indirectBinding
}

type indirectBinding struct {
	targetEnv  *Env
	targetName string
}

// NewDeclarative creates a declarative environment record chained to
// outer (spec.md §4.3, used for block/catch/module scopes).
func NewDeclarative(outer *Env) *Env {
	return &Env{Kind: KindDeclarative, Outer: outer, bindings: make(map[string]*binding)}
}

// NewObjectBacked creates an object-backed environment record (`with`
// statement), delegating bindings to obj.
func NewObjectBacked(outer *Env, obj *object.Object, withEnv bool) *Env {
	return &Env{Kind: KindObjectBacked, Outer: outer, BackingObject: obj, WithEnv: withEnv, bindings: make(map[string]*binding)}
}

// NewFunction creates a function environment record: declarative
// bindings plus a this-binding slot.
func NewFunction(outer *Env, thisStatus ThisBindingStatus, fn *object.Object) *Env {
	return &Env{Kind: KindFunction, Outer: outer, bindings: make(map[string]*binding), ThisStatus: thisStatus, FunctionObject: fn}
}

// NewGlobal creates the top-level global environment record: a
// declarative part for lexical bindings and an object-backed part
// (via BackingObject) for var/function bindings (spec.md §4.3).
func NewGlobal(globalObject *object.Object) *Env {
	return &Env{
		Kind:          KindGlobal,
		BackingObject: globalObject,
		bindings:      make(map[string]*binding),
		VarNames:      make(map[string]bool),
	}
}

// NewModule creates a module environment record.
func NewModule(outer *Env) *Env {
	return &Env{Kind: KindModule, Outer: outer, bindings: make(map[string]*binding), indirect: make(map[string]*indirectBinding)}
}

// HasBinding reports whether name is bound in this record (not outer
// records) — spec.md §4.3 operation 1.
func (e *Env) HasBinding(name string) bool {
	if e.Kind == KindObjectBacked {
		return e.BackingObject.HasProperty(stringKey(name))
	}
	_, ok := e.bindings[name]
	return ok
}

// CreateMutableBinding declares a new mutable binding, uninitialised
// unless deletable var semantics require otherwise.
func (e *Env) CreateMutableBinding(name string, deletable bool) {
	if e.Kind == KindObjectBacked {
		e.BackingObject.DefineOwnProperty(stringKey(name), object.Property{
			Value: jsvalue.Undefined, Writable: true, Enumerable: true, Configurable: deletable,
		})
		return
	}
	if _, ok := e.bindings[name]; !ok {
		e.order = append(e.order, name)
	}
	e.bindings[name] = &binding{mutable: true, deletable: deletable}
}

// CreateImmutableBinding declares a new immutable (`const`) binding,
// uninitialised until InitialiseBinding runs.
func (e *Env) CreateImmutableBinding(name string, strict bool) {
	if _, ok := e.bindings[name]; !ok {
		e.order = append(e.order, name)
	}
	e.bindings[name] = &binding{mutable: false, strict: strict}
}

// InitialiseBinding sets a previously-declared binding's initial value
// and marks it initialised, lifting the temporal-dead-zone.
func (e *Env) InitialiseBinding(name string, value jsvalue.Value) {
	if e.Kind == KindObjectBacked {
		e.BackingObject.Set(stringKey(name), value, jsvalue.Object(e.BackingObject))
		return
	}
	b := e.bindings[name]
	if b == nil {
		// Global var bindings live on the backing object, not the
		// declarative part (spec.md §3 "global (a pair: declarative for
		// lexical, object-backed for var)").
		if e.Kind == KindGlobal {
			e.BackingObject.Set(stringKey(name), value, jsvalue.Object(e.BackingObject))
			return
		}
		b = &binding{mutable: true}
		e.bindings[name] = b
		e.order = append(e.order, name)
	}
	b.value = value
	b.initialised = true
}

// ReferenceError is returned by GetBindingValue/SetMutableBinding for
// dead-zone and undeclared-name violations (spec.md §3 invariant: "An
// environment's binding is only readable after initialisation").
type ReferenceError struct{ Name string }

func (e *ReferenceError) Error() string { return "'" + e.Name + "' is not defined" }

// TDZError is returned when a binding is read before initialisation.
type TDZError struct{ Name string }

func (e *TDZError) Error() string {
	return "cannot access '" + e.Name + "' before initialization"
}

// GetBindingValue reads a binding's value, failing with a reference
// error if undeclared or a TDZ error if declared-but-uninitialised
// (spec.md §8 "Environment dead-zone").
func (e *Env) GetBindingValue(name string, strict bool) (jsvalue.Value, error) {
	if target, targetName, ok := e.resolveIndirect(name); ok {
		return target.GetBindingValue(targetName, strict)
	}
	if e.Kind == KindObjectBacked {
		key := stringKey(name)
		if !e.BackingObject.HasProperty(key) {
			return jsvalue.Undefined, &ReferenceError{Name: name}
		}
		return e.BackingObject.Get(key, jsvalue.Object(e.BackingObject))
	}
	b, ok := e.bindings[name]
	if !ok {
		// The global record's var part lives on the backing object.
		if e.Kind == KindGlobal {
			key := stringKey(name)
			if e.BackingObject.HasProperty(key) {
				return e.BackingObject.Get(key, jsvalue.Object(e.BackingObject))
			}
		}
		return jsvalue.Undefined, &ReferenceError{Name: name}
	}
	if !b.initialised {
		return jsvalue.Undefined, &TDZError{Name: name}
	}
	return b.value, nil
}

// SetMutableBinding assigns to an existing binding. In strict mode
// (or for `const`) writing an immutable binding is an error.
func (e *Env) SetMutableBinding(name string, value jsvalue.Value, strict bool) error {
	if e.Kind == KindObjectBacked {
		key := stringKey(name)
		if !e.BackingObject.HasProperty(key) {
			if strict {
				return &ReferenceError{Name: name}
			}
			e.BackingObject.DefineOwnProperty(key, object.Property{Value: value, Writable: true, Enumerable: true, Configurable: true})
			return nil
		}
		_, err := e.BackingObject.Set(key, value, jsvalue.Object(e.BackingObject))
		return err
	}
	b, ok := e.bindings[name]
	if !ok {
		if e.Kind == KindGlobal {
			key := stringKey(name)
			if e.BackingObject.HasProperty(key) || !strict {
				_, err := e.BackingObject.Set(key, value, jsvalue.Object(e.BackingObject))
				return err
			}
			return &ReferenceError{Name: name}
		}
		if strict {
			return &ReferenceError{Name: name}
		}
		e.bindings[name] = &binding{value: value, initialised: true, mutable: true}
		e.order = append(e.order, name)
		return nil
	}
	if !b.initialised {
		return &TDZError{Name: name}
	}
	if !b.mutable {
		return &TypeErrorConstAssign{Name: name}
	}
	b.value = value
	return nil
}

// TypeErrorConstAssign is returned when assigning to a `const`
// binding.
type TypeErrorConstAssign struct{ Name string }

func (e *TypeErrorConstAssign) Error() string {
	return "Assignment to constant variable '" + e.Name + "'"
}

// DeleteBinding removes a deletable binding; non-deletable bindings
// report failure rather than erroring (matches `delete` operator
// semantics, which evaluates to a boolean).
func (e *Env) DeleteBinding(name string) bool {
	if e.Kind == KindObjectBacked {
		ok, _ := e.BackingObject.Delete(stringKey(name))
		return ok
	}
	b, ok := e.bindings[name]
	if !ok {
		return true
	}
	if !b.deletable {
		return false
	}
	delete(e.bindings, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// HasThisBinding reports whether this environment (function records
// only, unless lexical) supplies its own `this`.
func (e *Env) HasThisBinding() bool {
	return e.Kind == KindFunction && e.ThisStatus != ThisLexical
}

// GetThisBinding resolves `this` by walking outward through any
// lexical (arrow) function environments to the nearest one that owns
// its own binding.
func (e *Env) GetThisBinding() (jsvalue.Value, error) {
	for env := e; env != nil; env = env.Outer {
		if env.Kind == KindFunction {
			if env.ThisStatus == ThisLexical {
				continue
			}
			if env.ThisStatus == ThisUninitialised {
				return jsvalue.Undefined, &ReferenceError{Name: "this"}
			}
			return env.ThisValue, nil
		}
		if env.Kind == KindGlobal {
			return jsvalue.Object(env.BackingObject), nil
		}
	}
	return jsvalue.Undefined, &ReferenceError{Name: "this"}
}

// BindThis initialises a function environment's this-binding (called
// once per ordinary-function invocation).
func (e *Env) BindThis(v jsvalue.Value) {
	e.ThisValue = v
	e.ThisStatus = ThisInitialised
}

func stringKey(name string) jsvalue.PropertyKey {
	return jsvalue.PropertyKey{Kind: jsvalue.PropKeyString, Str: &jsvalue.InternedString{Content: name, IndexValue: -1}}
}
