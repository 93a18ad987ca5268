package loader

import (
	"fmt"

	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/compiler"
	"github.com/nyxlang/nyx/internal/coroutine"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/lexenv"
	"github.com/nyxlang/nyx/internal/lexer"
	"github.com/nyxlang/nyx/internal/object"
	"github.com/nyxlang/nyx/internal/parser"
	"github.com/nyxlang/nyx/internal/srcerr"
	"github.com/nyxlang/nyx/internal/vm"
)

// ModuleState tracks a record through the link/evaluate pipeline.
type ModuleState byte

const (
	ModuleUnlinked ModuleState = iota
	ModuleLinking
	ModuleLinked
	ModuleEvaluating
	ModuleEvaluated
)

// ModuleRecord is one loaded module: its parsed and compiled forms,
// its environment record, and the import/export shape the linker
// wires (spec.md §3 "module (declarative plus indirect/export
// bindings)").
type ModuleRecord struct {
	Specifier string
	Program   *ast.Program
	Compiled  *bytecode.Module
	Env       *lexenv.Env

	imports []*ast.ImportDeclaration
	// exports maps exported name -> local binding name.
	exports map[string]string

	state   ModuleState
	evalErr error
	value   jsvalue.Value
}

// Resolver turns an import specifier (relative to the importing
// module) into a source text and a canonical specifier. The host owns
// module resolution; the engine only consumes the result.
type Resolver func(specifier, referrer string) (source, resolved string, err error)

// Loader owns a runtime's module graph.
type Loader struct {
	rt       *vm.Runtime
	resolver Resolver
	modules  map[string]*ModuleRecord
}

// NewLoader creates a loader over rt. resolver may be nil when no
// imports are expected.
func NewLoader(rt *vm.Runtime, resolver Resolver) *Loader {
	return &Loader{rt: rt, resolver: resolver, modules: make(map[string]*ModuleRecord)}
}

// LoadModule parses and compiles source as a module-goal program and
// registers it under specifier.
func (l *Loader) LoadModule(specifier, source string) (*ModuleRecord, error) {
	if existing, ok := l.modules[specifier]; ok {
		return existing, nil
	}
	p := parser.New(lexer.New(source))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	prog.Module = true
	compiler.Fold(prog)
	mod, err := compiler.Compile(prog, source, compiler.CompileOptions{Module: true, Filename: specifier})
	if err != nil {
		return nil, err
	}

	rec := &ModuleRecord{
		Specifier: specifier,
		Program:   prog,
		Compiled:  mod,
		exports:   make(map[string]string),
	}
	l.collectModuleShape(rec)
	l.modules[specifier] = rec
	return rec, nil
}

// collectModuleShape extracts the import/export tables from the AST.
func (l *Loader) collectModuleShape(rec *ModuleRecord) {
	for _, stmt := range rec.Program.Body {
		switch s := stmt.(type) {
		case *ast.ImportDeclaration:
			rec.imports = append(rec.imports, s)
		case *ast.ExportDeclaration:
			switch {
			case s.Default != nil:
				rec.exports["default"] = "*default*"
			case s.Decl != nil:
				for _, name := range declaredNames(s.Decl) {
					rec.exports[name] = name
				}
			default:
				for _, spec := range s.Specifiers {
					rec.exports[spec.Exported] = spec.Local
				}
			}
		}
	}
}

func declaredNames(stmt ast.Statement) []string {
	switch s := stmt.(type) {
	case *ast.VarDeclStatement:
		var names []string
		for _, d := range s.Decls {
			if id, ok := d.ID.(*ast.Identifier); ok {
				names = append(names, id.Name)
			}
		}
		return names
	case *ast.FunctionDeclaration:
		return []string{s.Fn.Name}
	case *ast.ClassDeclaration:
		return []string{s.Class.Name}
	}
	return nil
}

// Link resolves rec's import graph depth-first and wires each import
// name to the exporting module's binding (spec.md §4.7 "bind each
// import name to the exporting module's export slot"). Cycles are
// tolerated: a module already linking is simply not revisited.
func (l *Loader) Link(rec *ModuleRecord) error {
	if rec.state >= ModuleLinking {
		return nil
	}
	rec.state = ModuleLinking

	rec.Env = lexenv.NewModule(l.rt.Realm.GlobalEnv)
	l.rt.SeedBindingGroup(rec.Env, rec.Compiled, rec.Compiled.TopLevel().TopBindingGroup)

	for _, imp := range rec.imports {
		dep, err := l.require(imp.Source, rec.Specifier)
		if err != nil {
			return err
		}
		if err := l.Link(dep); err != nil {
			return err
		}
		for _, spec := range imp.Specifiers {
			if spec.Imported == "*" {
				// Namespace imports materialize after evaluation.
				continue
			}
			local, ok := dep.exports[spec.Imported]
			if !ok {
				return srcerr.New(srcerr.SyntaxErrorKind, imp.Pos(),
					fmt.Sprintf("module %q does not export %q", imp.Source, spec.Imported), "", rec.Specifier)
			}
			rec.Env.CreateImportBinding(spec.Local, dep.Env, local)
		}
	}
	rec.state = ModuleLinked
	return nil
}

func (l *Loader) require(specifier, referrer string) (*ModuleRecord, error) {
	if l.resolver == nil {
		return nil, fmt.Errorf("loader: no module resolver configured (importing %q)", specifier)
	}
	source, resolved, err := l.resolver(specifier, referrer)
	if err != nil {
		return nil, err
	}
	return l.LoadModule(resolved, source)
}

// Evaluate runs rec and its dependencies in dependency-topological
// order (post-order DFS), each exactly once. Module bodies run as
// suspendable contexts so top-level await is legal; the job queue
// drains until the body's promise settles.
func (l *Loader) Evaluate(rec *ModuleRecord) (jsvalue.Value, error) {
	if rec.state == ModuleEvaluated {
		return rec.value, rec.evalErr
	}
	if rec.state == ModuleEvaluating {
		return jsvalue.Undefined, nil // cycle back-edge
	}
	if rec.state < ModuleLinked {
		if err := l.Link(rec); err != nil {
			return jsvalue.Undefined, err
		}
	}
	rec.state = ModuleEvaluating

	for _, imp := range rec.imports {
		dep, err := l.require(imp.Source, rec.Specifier)
		if err != nil {
			return jsvalue.Undefined, err
		}
		if _, err := l.Evaluate(dep); err != nil {
			rec.state = ModuleEvaluated
			rec.evalErr = err
			return jsvalue.Undefined, err
		}
		l.materializeNamespaces(rec, imp, dep)
	}

	p := l.rt.RunTopLevelAsync(rec.Compiled, rec.Env)
	l.rt.Jobs.Drain()
	rec.state = ModuleEvaluated
	switch p.State() {
	case coroutine.Fulfilled:
		rec.value = p.Value()
		return rec.value, nil
	case coroutine.Rejected:
		rec.evalErr = &vm.Thrown{Value: p.Value()}
		return jsvalue.Undefined, rec.evalErr
	default:
		rec.evalErr = fmt.Errorf("loader: module %q evaluation did not settle (pending host work)", rec.Specifier)
		return jsvalue.Undefined, rec.evalErr
	}
}

// materializeNamespaces fills `import * as ns` bindings with a
// snapshot object of the dependency's exports.
func (l *Loader) materializeNamespaces(rec *ModuleRecord, imp *ast.ImportDeclaration, dep *ModuleRecord) {
	for _, spec := range imp.Specifiers {
		if spec.Imported != "*" {
			continue
		}
		ns := l.rt.NewObject()
		for exported, local := range dep.exports {
			v, err := dep.Env.GetBindingValue(local, true)
			if err != nil {
				continue
			}
			ns.DefineOwnProperty(jsvalue.KeyFromString(l.rt.Strings.Intern(exported)), object.Property{
				Value: v, Enumerable: true,
			})
		}
		rec.Env.CreateMutableBinding(spec.Local, false)
		rec.Env.InitialiseBinding(spec.Local, jsvalue.Object(ns))
	}
}
