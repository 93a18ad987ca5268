package parser

import (
	"testing"

	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/lexer"
)

func parseOne(t *testing.T, src string) ast.Statement {
	t.Helper()
	p := New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parse errors for %q: %v", src, errs)
	}
	if len(prog.Body) == 0 {
		t.Fatalf("no statements parsed from %q", src)
	}
	return prog.Body[0]
}

func TestParseForClassicAfterBacktrack(t *testing.T) {
	// The for-header first speculates on a for-in/of binding and must
	// rewind the lexer cleanly before reparsing the classic form.
	stmt := parseOne(t, `for (let i = 1; i <= 100; i++) total += i;`)
	f, ok := stmt.(*ast.ForStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.ForStatement", stmt)
	}
	decl, ok := f.Init.(*ast.VarDeclStatement)
	if !ok || decl.Kind != "let" {
		t.Fatalf("init = %T (%v), want let declaration", f.Init, decl)
	}
	if decl.Decls[0].Init == nil {
		t.Fatal("loop variable initializer was lost during backtracking")
	}
	if f.Test == nil || f.Update == nil {
		t.Fatal("test/update clauses missing")
	}
}

func TestParseForOf(t *testing.T) {
	stmt := parseOne(t, `for (const x of xs) use(x);`)
	f, ok := stmt.(*ast.ForInOfStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.ForInOfStatement", stmt)
	}
	if !f.Of || f.Decl != "const" {
		t.Errorf("of=%v decl=%q, want of const", f.Of, f.Decl)
	}
}

func TestParseForAwait(t *testing.T) {
	stmt := parseOne(t, `for await (const chunk of stream) handle(chunk);`)
	f, ok := stmt.(*ast.ForInOfStatement)
	if !ok {
		t.Fatalf("got %T, want *ast.ForInOfStatement", stmt)
	}
	if !f.Await || !f.Of {
		t.Errorf("await=%v of=%v, want both", f.Await, f.Of)
	}
}

func TestParseArrowForms(t *testing.T) {
	for _, src := range []string{
		`x => x + 1`,
		`(a, b) => a * b`,
		`() => 42`,
		`async x => await x`,
	} {
		stmt := parseOne(t, src)
		es, ok := stmt.(*ast.ExpressionStatement)
		if !ok {
			t.Fatalf("%q: got %T, want expression statement", src, stmt)
		}
		if _, ok := es.Expr.(*ast.ArrowFunctionExpression); !ok {
			t.Errorf("%q: got %T, want arrow function", src, es.Expr)
		}
	}
}

func TestParseGeneratorAndAsyncFunctions(t *testing.T) {
	stmt := parseOne(t, `function* g() { yield* inner() }`)
	fd, ok := stmt.(*ast.FunctionDeclaration)
	if !ok || !fd.Fn.Generator {
		t.Fatalf("got %T, want generator declaration", stmt)
	}
	y := fd.Fn.Body.Body[0].(*ast.ExpressionStatement).Expr.(*ast.YieldExpression)
	if !y.Delegate {
		t.Error("yield* must set Delegate")
	}

	stmt = parseOne(t, `async function f() { return await p }`)
	fd, ok = stmt.(*ast.FunctionDeclaration)
	if !ok || !fd.Fn.Async {
		t.Fatalf("got %T, want async declaration", stmt)
	}
}

func TestParseClassMembers(t *testing.T) {
	stmt := parseOne(t, `class C extends B {
		constructor() { super() }
		#count = 0;
		get value() { return this.#count }
		static make() { return new C() }
	}`)
	cd, ok := stmt.(*ast.ClassDeclaration)
	if !ok {
		t.Fatalf("got %T, want class declaration", stmt)
	}
	if cd.Class.SuperClass == nil {
		t.Error("extends clause missing")
	}
	kinds := map[string]int{}
	for _, m := range cd.Class.Members {
		kinds[m.Kind]++
		if m.Kind == "field" && !m.Private {
			t.Error("#count must parse as a private field")
		}
	}
	if kinds["constructor"] != 1 || kinds["field"] != 1 || kinds["get"] != 1 || kinds["method"] != 1 {
		t.Errorf("member kinds = %v", kinds)
	}
}

func TestParseImportExport(t *testing.T) {
	stmt := parseOne(t, `import d, { a, b as c } from "mod";`)
	imp, ok := stmt.(*ast.ImportDeclaration)
	if !ok {
		t.Fatalf("got %T, want import declaration", stmt)
	}
	if imp.Source != "mod" || len(imp.Specifiers) != 3 {
		t.Fatalf("source=%q specifiers=%+v", imp.Source, imp.Specifiers)
	}
	if imp.Specifiers[0].Imported != "default" || imp.Specifiers[0].Local != "d" {
		t.Errorf("default import = %+v", imp.Specifiers[0])
	}
	if imp.Specifiers[2].Imported != "b" || imp.Specifiers[2].Local != "c" {
		t.Errorf("renamed import = %+v", imp.Specifiers[2])
	}

	stmt = parseOne(t, `export { a, b as c };`)
	exp, ok := stmt.(*ast.ExportDeclaration)
	if !ok {
		t.Fatalf("got %T, want export declaration", stmt)
	}
	if len(exp.Specifiers) != 2 || exp.Specifiers[1].Exported != "c" {
		t.Errorf("export specifiers = %+v", exp.Specifiers)
	}

	stmt = parseOne(t, `export default fn();`)
	exp, ok = stmt.(*ast.ExportDeclaration)
	if !ok || exp.Default == nil {
		t.Fatalf("export default not parsed: %T", stmt)
	}
}

func TestParseOptionalChainAndNullish(t *testing.T) {
	stmt := parseOne(t, `a?.b ?? c`)
	es := stmt.(*ast.ExpressionStatement)
	lg, ok := es.Expr.(*ast.LogicalExpression)
	if !ok || lg.Op != "??" {
		t.Fatalf("got %T, want ?? expression", es.Expr)
	}
	m, ok := lg.Left.(*ast.MemberExpression)
	if !ok || !m.Optional {
		t.Errorf("left = %T optional=%v, want optional member", lg.Left, m != nil && m.Optional)
	}
}
