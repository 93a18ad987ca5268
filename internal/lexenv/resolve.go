package lexenv

import "github.com/nyxlang/nyx/internal/jsvalue"

// Resolve walks the environment chain outward and returns the first
// record that binds name, or nil when the chain ends (spec.md §4.3
// "lookup walks outward until a binding is found or the chain ends").
// The global record is checked both for its declarative (lexical) part
// and its backing object (var) part.
func Resolve(env *Env, name string) *Env {
	for e := env; e != nil; e = e.Outer {
		if e.Kind == KindModule && e.indirect != nil {
			if _, ok := e.indirect[name]; ok {
				return e
			}
		}
		if e.HasBinding(name) {
			return e
		}
		if e.Kind == KindGlobal && e.BackingObject.HasProperty(stringKey(name)) {
			return e
		}
	}
	return nil
}

// CreateImportBinding installs an indirect binding: reads of name in
// this module environment resolve through targetEnv's binding for
// targetName (spec.md §4.7 "bind each import name to the exporting
// module's export slot").
func (e *Env) CreateImportBinding(name string, targetEnv *Env, targetName string) {
	if e.indirect == nil {
		e.indirect = make(map[string]*indirectBinding)
	}
	e.indirect[name] = &indirectBinding{targetEnv: targetEnv, targetName: targetName}
}

// resolveIndirect follows an import binding, if name has one.
func (e *Env) resolveIndirect(name string) (*Env, string, bool) {
	if e.indirect == nil {
		return nil, "", false
	}
	ib, ok := e.indirect[name]
	if !ok {
		return nil, "", false
	}
	return ib.targetEnv, ib.targetName, true
}

// Scan visits every value this single record strongly holds, for the
// collector's root walk. Callers iterate the chain themselves; Outer
// is reachable through the context stack anyway.
func (e *Env) Scan(visit func(jsvalue.Value)) {
	for _, b := range e.bindings {
		visit(b.value)
	}
	if e.BackingObject != nil {
		visit(jsvalue.Object(e.BackingObject))
	}
	visit(e.ThisValue)
	if e.HomeObject != nil {
		visit(jsvalue.Object(e.HomeObject))
	}
	if e.NewTarget != nil {
		visit(jsvalue.Object(e.NewTarget))
	}
	if e.FunctionObject != nil {
		visit(jsvalue.Object(e.FunctionObject))
	}
}

// ScanChain visits this record and every outer record.
func ScanChain(env *Env, visit func(jsvalue.Value)) {
	for e := env; e != nil; e = e.Outer {
		e.Scan(visit)
	}
}
