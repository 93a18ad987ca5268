package compiler

import (
	"strings"
	"testing"

	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/lexer"
	"github.com/nyxlang/nyx/internal/parser"
)

func compileSource(t *testing.T, src string) *bytecode.Module {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	Fold(prog)
	mod, err := Compile(prog, src, CompileOptions{Filename: "test.js"})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return mod
}

func opcodes(fn *bytecode.Function) []bytecode.OpCode {
	out := make([]bytecode.OpCode, len(fn.Code))
	for i, inst := range fn.Code {
		out[i] = inst.OpCode()
	}
	return out
}

func containsOp(fn *bytecode.Function, op bytecode.OpCode) bool {
	for _, inst := range fn.Code {
		if inst.OpCode() == op {
			return true
		}
	}
	return false
}

func TestCompileLoopEmitsBackwardJump(t *testing.T) {
	mod := compileSource(t, `let s=0;for(let i=1;i<=100;i++)s+=i;s`)
	top := mod.TopLevel()
	if !containsOp(top, bytecode.OpLoop) {
		t.Errorf("loop body must emit OpLoop, got %v", opcodes(top))
	}
	if !containsOp(top, bytecode.OpPushScope) || !containsOp(top, bytecode.OpPopScope) {
		t.Error("let-scoped for loop must push and pop a scope")
	}
}

func TestCompileFunctionDeclarationsHoist(t *testing.T) {
	mod := compileSource(t, `function a(){return b()} function b(){return 1} a()`)
	if len(mod.Functions) != 3 {
		t.Fatalf("functions = %d, want 3 (top-level + a + b)", len(mod.Functions))
	}
	top := mod.TopLevel()
	if top.Code[0].OpCode() != bytecode.OpInstantiateFuncDecls {
		t.Errorf("hoisted functions must instantiate before statements, got %v first", top.Code[0].OpCode())
	}
	if len(mod.FunctionDeclGroups) == 0 || len(mod.FunctionDeclGroups[0].Decls) != 2 {
		t.Errorf("expected one group with two hoisted declarations, got %+v", mod.FunctionDeclGroups)
	}
}

func TestCompileTryRecordsRegions(t *testing.T) {
	mod := compileSource(t, `try { f() } catch (e) { g(e) } finally { h() }`)
	top := mod.TopLevel()
	if len(top.TryInfos) != 1 {
		t.Fatalf("try regions = %d, want 1", len(top.TryInfos))
	}
	for _, info := range top.TryInfos {
		if !info.HasCatch || !info.HasFinally {
			t.Errorf("region = %+v, want catch and finally", info)
		}
		if info.FinallyEnd <= info.FinallyTarget {
			t.Errorf("finally range [%d, %d) is empty", info.FinallyTarget, info.FinallyEnd)
		}
	}
}

func TestCompileGeneratorFlags(t *testing.T) {
	mod := compileSource(t, `function* g(){ yield 1 } async function f(){ await 1 }`)
	var sawGen, sawAsync bool
	for _, fn := range mod.Functions {
		if fn.IsGenerator {
			sawGen = true
			if !containsOp(fn, bytecode.OpYield) {
				t.Error("generator body must contain OpYield")
			}
		}
		if fn.IsAsync && !fn.IsGenerator {
			sawAsync = true
			if !containsOp(fn, bytecode.OpAwait) {
				t.Error("async body must contain OpAwait")
			}
		}
	}
	if !sawGen || !sawAsync {
		t.Errorf("flags: generator=%v async=%v, want both", sawGen, sawAsync)
	}
}

func TestCompileTailCall(t *testing.T) {
	mod := compileSource(t, `function f(n){ if (n === 0) return 0; return f(n - 1) }`)
	var f *bytecode.Function
	for _, fn := range mod.Functions {
		if fn.Name == "f" {
			f = fn
		}
	}
	if f == nil {
		t.Fatal("function f not compiled")
	}
	if !containsOp(f, bytecode.OpTailCall) {
		t.Errorf("return-position call must compile to OpTailCall, got %v", opcodes(f))
	}
}

func TestCompileRejectsBareBreak(t *testing.T) {
	p := parser.New(lexer.New(`break;`))
	prog := p.ParseProgram()
	_, err := Compile(prog, "break;", CompileOptions{})
	if err == nil {
		t.Fatal("break outside a loop must fail to compile")
	}
	if !strings.Contains(err.Error(), "break") {
		t.Errorf("error %q should mention break", err)
	}
}

func TestFoldConstants(t *testing.T) {
	mod := compileSource(t, `let x = 2 * 3 + 4;`)
	// The folded initializer is a single constant load.
	found := false
	for _, c := range mod.Constants {
		if c.IsNumber() && c.Num() == 10 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected folded constant 10 in pool")
	}
	top := mod.TopLevel()
	if containsOp(top, bytecode.OpMul) || containsOp(top, bytecode.OpAdd) {
		t.Errorf("folded expression must not emit arithmetic, got %v", opcodes(top))
	}
}

func TestCompileClassEmitsDefinitions(t *testing.T) {
	mod := compileSource(t, `class A { constructor(){ this.v = 1 } m(){ return this.v } static s(){ return 2 } }`)
	top := mod.TopLevel()
	if !containsOp(top, bytecode.OpNewClassStatic) {
		t.Error("class body must emit OpNewClassStatic")
	}
	count := 0
	for _, inst := range top.Code {
		if inst.OpCode() == bytecode.OpDefineMethod {
			count++
		}
	}
	if count != 2 {
		t.Errorf("OpDefineMethod count = %d, want 2 (m and s)", count)
	}
}

func TestCompileModuleExports(t *testing.T) {
	p := parser.New(lexer.New(`export const a = 1; export default a + 1;`))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	prog.Module = true
	mod, err := Compile(prog, "", CompileOptions{Module: true, Filename: "m.js"})
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	names := map[string]bool{}
	if g := mod.TopLevel().TopBindingGroup; g >= 0 {
		for _, bi := range mod.BindingGroups[g].Bindings {
			names[mod.Bindings[bi].Name] = true
		}
	}
	if !names["a"] || !names["*default*"] {
		t.Errorf("top bindings = %v, want a and *default*", names)
	}
}
