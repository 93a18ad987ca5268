package loader_test

import (
	"testing"

	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/compiler"
	"github.com/nyxlang/nyx/internal/lexer"
	"github.com/nyxlang/nyx/internal/loader"
	"github.com/nyxlang/nyx/internal/parser"
	"github.com/nyxlang/nyx/internal/srcerr"
	"github.com/nyxlang/nyx/internal/vm"
)

func compileScript(t *testing.T, src string) *bytecode.Module {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	mod, err := compiler.Compile(prog, src, compiler.CompileOptions{Filename: "test.js"})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return mod
}

func TestGlobalRedeclarationRejected(t *testing.T) {
	rt := vm.NewRuntime()

	if _, err := loader.EvaluateScript(rt, compileScript(t, `let x = 1;`)); err != nil {
		t.Fatalf("first script: %v", err)
	}

	// A second script redeclaring the same lexical name must fail the
	// instantiation checks before any code runs.
	_, err := loader.EvaluateScript(rt, compileScript(t, `let x = 2;`))
	if err == nil {
		t.Fatal("expected redeclaration to be rejected")
	}
	ee, ok := err.(*srcerr.EngineError)
	if !ok || ee.Kind != srcerr.SyntaxErrorKind {
		t.Fatalf("error = %v, want a SyntaxError", err)
	}
}

func TestGlobalVarLexicalConflictRejected(t *testing.T) {
	rt := vm.NewRuntime()
	if _, err := loader.EvaluateScript(rt, compileScript(t, `let y = 1;`)); err != nil {
		t.Fatalf("first script: %v", err)
	}
	if _, err := loader.EvaluateScript(rt, compileScript(t, `var y = 2;`)); err == nil {
		t.Fatal("var colliding with an existing lexical must be rejected")
	}
}

func TestFailedCheckLeavesNoBindings(t *testing.T) {
	rt := vm.NewRuntime()
	if _, err := loader.EvaluateScript(rt, compileScript(t, `let z = 1;`)); err != nil {
		t.Fatalf("first script: %v", err)
	}
	// `let ok` would be created in step 4, but the script also
	// redeclares z, so the whole instantiation must reject first.
	if _, err := loader.EvaluateScript(rt, compileScript(t, `let ok = 1; let z = 2;`)); err == nil {
		t.Fatal("expected rejection")
	}
	if rt.Realm.GlobalEnv.HasLexicalDeclaration("ok") {
		t.Error("a failed instantiation must not leave partial bindings behind")
	}
}

func TestVarPersistsOnGlobalObject(t *testing.T) {
	rt := vm.NewRuntime()
	if _, err := loader.EvaluateScript(rt, compileScript(t, `var counter = 41;`)); err != nil {
		t.Fatalf("first script: %v", err)
	}
	v, err := loader.EvaluateScript(rt, compileScript(t, `counter + 1`))
	if err != nil {
		t.Fatalf("second script: %v", err)
	}
	if !v.IsNumber() || v.Num() != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}
