package lexenv

import (
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/object"
)

// The global environment's extra operations (spec.md §4.3): guards
// that protect the host object's non-configurable properties during
// Global Declaration Instantiation, and the creation operations the
// loader runs once the guards pass.

// HasLexicalDeclaration reports whether name is a lexical (let/const/
// class) binding in the global record's declarative part.
func (e *Env) HasLexicalDeclaration(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// HasVarDeclaration reports whether name was ever declared as a
// global var.
func (e *Env) HasVarDeclaration(name string) bool {
	return e.VarNames != nil && e.VarNames[name]
}

// HasRestrictedGlobalProperty reports whether name is an existing
// non-configurable property of the global object, which no lexical
// declaration may shadow.
func (e *Env) HasRestrictedGlobalProperty(name string) bool {
	p, ok := e.BackingObject.GetOwnProperty(stringKey(name))
	if !ok {
		return false
	}
	return !p.Configurable
}

// CanDeclareGlobalVar reports whether a global var binding for name
// may be created: always allowed when the property already exists or
// the global object is extensible.
func (e *Env) CanDeclareGlobalVar(name string) bool {
	if _, ok := e.BackingObject.GetOwnProperty(stringKey(name)); ok {
		return true
	}
	return e.BackingObject.IsExtensible()
}

// CanDeclareGlobalFunction reports whether a global function binding
// for name may be created: a missing property needs extensibility; an
// existing one must be configurable or a writable+enumerable data
// property.
func (e *Env) CanDeclareGlobalFunction(name string) bool {
	p, ok := e.BackingObject.GetOwnProperty(stringKey(name))
	if !ok {
		return e.BackingObject.IsExtensible()
	}
	if p.Configurable {
		return true
	}
	return !p.IsAccessor && p.Writable && p.Enumerable
}

// CreateGlobalVarBinding installs name as a global var: an own data
// property of the global object, recorded in the var-names set so
// later instantiations can distinguish it from plain host properties.
func (e *Env) CreateGlobalVarBinding(name string, deletable bool) {
	key := stringKey(name)
	if _, ok := e.BackingObject.GetOwnProperty(key); !ok && e.BackingObject.IsExtensible() {
		e.BackingObject.DefineOwnProperty(key, object.Property{
			Value: jsvalue.Undefined, Writable: true, Enumerable: true, Configurable: deletable,
		})
	}
	e.VarNames[name] = true
}

// CreateGlobalFunctionBinding installs a hoisted function declaration,
// replacing any existing data property with a configurable data
// property holding the function (spec.md §4.3 step 5).
func (e *Env) CreateGlobalFunctionBinding(name string, fn jsvalue.Value, deletable bool) {
	key := stringKey(name)
	p, exists := e.BackingObject.GetOwnProperty(key)
	if !exists || p.Configurable {
		e.BackingObject.DefineOwnProperty(key, object.Property{
			Value: fn, Writable: true, Enumerable: true, Configurable: deletable,
		})
	} else {
		e.BackingObject.Set(key, fn, jsvalue.Object(e.BackingObject))
	}
	e.VarNames[name] = true
}
