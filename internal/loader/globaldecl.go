// Package loader glues compiled scripts and modules to a running
// runtime (spec.md §4.7): global declaration instantiation, module
// linking and topological evaluation, and the host-job drain between
// interpreter runs. Its pass-ordering shape follows the teacher's
// semantic analyzer pipeline (ordered passes, all checks before any
// mutation).
package loader

import (
	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/srcerr"
	"github.com/nyxlang/nyx/internal/token"
	"github.com/nyxlang/nyx/internal/vm"
)

// GlobalDeclarationInstantiation prepares the global environment for a
// script's top-level declarations, running every check before any
// binding is created so a failed check never leaves a partial state
// (spec.md §4.3 "a later step must not observe a binding a failed
// earlier check would have rejected").
func GlobalDeclarationInstantiation(rt *vm.Runtime, mod *bytecode.Module) error {
	env := rt.Realm.GlobalEnv
	top := mod.TopLevel()
	if top == nil {
		return nil
	}

	var lexical, vars []bytecode.BindingRef
	if top.TopBindingGroup >= 0 && top.TopBindingGroup < len(mod.BindingGroups) {
		for _, bi := range mod.BindingGroups[top.TopBindingGroup].Bindings {
			b := mod.Bindings[bi]
			switch b.Kind {
			case bytecode.BindingLet, bytecode.BindingConst:
				lexical = append(lexical, b)
			case bytecode.BindingVar:
				vars = append(vars, b)
			}
		}
	}

	syntaxErr := func(format string, name string) error {
		return srcerr.New(srcerr.SyntaxErrorKind, token.Position{Line: 1, Column: 1},
			format+" '"+name+"'", "", mod.SourceFile)
	}

	// Steps 1-2: no lexical name may shadow an existing var, lexical,
	// or restricted global; no var may collide with a lexical.
	for _, b := range lexical {
		if env.HasVarDeclaration(b.Name) || env.HasLexicalDeclaration(b.Name) {
			return syntaxErr("identifier has already been declared:", b.Name)
		}
		if env.HasRestrictedGlobalProperty(b.Name) {
			return syntaxErr("cannot shadow restricted global property", b.Name)
		}
	}
	for _, b := range vars {
		if env.HasLexicalDeclaration(b.Name) {
			return syntaxErr("identifier has already been declared:", b.Name)
		}
	}

	// Step 3: every hoisted function must be declarable as a global
	// function.
	for _, fd := range topLevelFunctionDecls(mod) {
		if !env.CanDeclareGlobalFunction(fd.Name) {
			return srcerr.New(srcerr.TypeErrorKind, token.Position{Line: 1, Column: 1},
				"cannot declare global function '"+fd.Name+"'", "", mod.SourceFile)
		}
	}

	// Step 4: lexical bindings, uninitialised (the dead zone lifts
	// when the declaration statement runs).
	for _, b := range lexical {
		if b.Kind == bytecode.BindingConst {
			env.CreateImmutableBinding(b.Name, true)
		} else {
			env.CreateMutableBinding(b.Name, false)
		}
	}

	// Step 5 runs at execution time: the entry function's
	// function-declaration-group instruction creates each global
	// function binding before any other top-level statement.

	// Step 6: global var bindings.
	for _, b := range vars {
		if env.CanDeclareGlobalVar(b.Name) {
			env.CreateGlobalVarBinding(b.Name, false)
		}
	}
	return nil
}

// topLevelFunctionDecls finds the entry function's hoisted group (its
// instantiation instruction is the first one the compiler emits).
func topLevelFunctionDecls(mod *bytecode.Module) []bytecode.FunctionDecl {
	top := mod.TopLevel()
	if top == nil || len(top.Code) == 0 {
		return nil
	}
	inst := top.Code[0]
	if inst.OpCode() != bytecode.OpInstantiateFuncDecls {
		return nil
	}
	group := int(inst.B())
	if group >= len(mod.FunctionDeclGroups) {
		return nil
	}
	var out []bytecode.FunctionDecl
	for _, di := range mod.FunctionDeclGroups[group].Decls {
		out = append(out, mod.FunctionDecls[di])
	}
	return out
}

// EvaluateScript runs a compiled script: instantiate globals, execute
// the entry function, then drain the host-job queue (promise
// reactions, finalization callbacks) to quiescence.
func EvaluateScript(rt *vm.Runtime, mod *bytecode.Module) (jsvalue.Value, error) {
	if err := GlobalDeclarationInstantiation(rt, mod); err != nil {
		return jsvalue.Undefined, err
	}
	v, err := rt.RunTopLevel(mod, rt.Realm.GlobalEnv)
	rt.Jobs.Drain()
	return v, err
}
