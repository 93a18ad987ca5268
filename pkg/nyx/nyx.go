// Package nyx is the embedder façade over the engine core: create a
// runtime, compile source to a bytecode module, evaluate scripts and
// modules, and convert values across the boundary (spec.md §6).
package nyx

import (
	"io"

	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/compiler"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/lexer"
	"github.com/nyxlang/nyx/internal/loader"
	"github.com/nyxlang/nyx/internal/parser"
	"github.com/nyxlang/nyx/internal/srcerr"
	"github.com/nyxlang/nyx/internal/token"
	"github.com/nyxlang/nyx/internal/vm"
)

// Engine is one isolated runtime instance plus its module loader.
// Engines share no state; each owns its heap, interned strings, and
// job queue (spec.md §5).
type Engine struct {
	rt       *vm.Runtime
	loader   *loader.Loader
	resolver loader.Resolver
}

// Option configures a new Engine.
type Option func(*Engine)

// WithOutput directs console.log output to w.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.rt.Output = w }
}

// WithCanBlock permits blocking waits (Atomics.wait) on this agent.
func WithCanBlock(canBlock bool) Option {
	return func(e *Engine) { e.rt.CanBlock = canBlock }
}

// WithModuleResolver installs the host's import resolution hook.
func WithModuleResolver(r loader.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// New creates an engine with its realm initialized.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{rt: vm.NewRuntime()}
	for _, opt := range opts {
		opt(e)
	}
	e.loader = loader.NewLoader(e.rt, e.resolver)
	return e, nil
}

// Runtime exposes the underlying runtime for advanced embedding
// (interrupts, direct heap access in tests).
func (e *Engine) Runtime() *vm.Runtime { return e.rt }

// Program is a compiled script or module, holding both the AST and
// the lowered bytecode module.
type Program struct {
	prog   *ast.Program
	module *bytecode.Module
	source string
}

// AST returns the parsed program.
func (p *Program) AST() *ast.Program { return p.prog }

// Module returns the compiled bytecode module.
func (p *Program) Module() *bytecode.Module { return p.module }

// Disassemble renders every function's bytecode listing.
func (p *Program) Disassemble() string {
	var sb stringsBuilder
	for _, fn := range p.module.Functions {
		d := bytecode.NewDisassembler(p.module, fn, &sb)
		d.Disassemble()
		sb.WriteString("\n")
	}
	return sb.String()
}

// Serialize encodes the compiled module in the engine's binary
// bytecode format.
func (p *Program) Serialize() ([]byte, error) {
	return bytecode.NewSerializer().Serialize(p.module)
}

// Compile parses and lowers source without running it. Parse errors
// come back synchronously (spec.md §7), never as thrown values.
func (e *Engine) Compile(source, filename string) (*Program, error) {
	return e.compile(source, filename, false)
}

func (e *Engine) compile(source, filename string, module bool) (*Program, error) {
	p := parser.New(lexer.New(source))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, srcerr.New(srcerr.SyntaxErrorKind, token.Position{Line: 1, Column: 1}, errs[0].Error(), source, filename)
	}
	prog.Module = module
	compiler.Fold(prog)
	mod, err := compiler.Compile(prog, source, compiler.CompileOptions{Module: module, Filename: filename})
	if err != nil {
		return nil, err
	}
	return &Program{prog: prog, module: mod, source: source}, nil
}

// Run compiles and evaluates source as a script, returning its
// completion value after the host-job queue drains.
func (e *Engine) Run(source, filename string) (jsvalue.Value, error) {
	p, err := e.Compile(source, filename)
	if err != nil {
		return jsvalue.Undefined, err
	}
	return loader.EvaluateScript(e.rt, p.module)
}

// Eval is shorthand for Run with an anonymous filename.
func (e *Engine) Eval(source string) (jsvalue.Value, error) {
	return e.Run(source, "<eval>")
}

// RunModule evaluates source as a module (imports linked through the
// configured resolver, top-level await allowed).
func (e *Engine) RunModule(source, filename string) (jsvalue.Value, error) {
	rec, err := e.loader.LoadModule(filename, source)
	if err != nil {
		return jsvalue.Undefined, err
	}
	if err := e.loader.Link(rec); err != nil {
		return jsvalue.Undefined, err
	}
	return e.loader.Evaluate(rec)
}

// DrainJobs runs queued host jobs to quiescence, for embedders that
// settle promises outside Run.
func (e *Engine) DrainJobs() { e.rt.Jobs.Drain() }

// stringsBuilder adapts strings.Builder to io.Writer without pulling
// strings into the public surface.
type stringsBuilder struct{ buf []byte }

func (b *stringsBuilder) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}
func (b *stringsBuilder) WriteString(s string) { b.buf = append(b.buf, s...) }
func (b *stringsBuilder) String() string       { return string(b.buf) }
