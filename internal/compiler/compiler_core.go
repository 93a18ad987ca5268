// Package compiler lowers internal/ast into an internal/bytecode.Module,
// following the teacher's one-file-per-AST-category split
// (compiler_core.go/compiler_expressions.go/compiler_statements.go/
// compiler_functions.go) and its scope/loop-context bookkeeping shape
// from compiler_core.go. Unlike the teacher, which resolves locals to
// fixed stack slots and upvalues to a captured-array index, this
// compiler resolves every binding by name through internal/lexenv's
// outer-chain environments: a closure captures the defining Env
// directly rather than an explicit upvalue array, which the name-based
// (rather than slot-based) environment model makes both simpler and
// correct by construction. Module.Bindings/UpvalueDefs are still
// populated for serialization parity and disassembly, but the VM does
// not need them to resolve a read or write.
package compiler

import (
	"fmt"

	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/srcerr"
	"github.com/nyxlang/nyx/internal/token"
)

// Compiler compiles one function body (the top-level script/module
// body, or a nested function/arrow/method) into a bytecode.Function,
// sharing a module-wide table set and string table with its parent.
type Compiler struct {
	module  *bytecode.Module
	fn      *bytecode.Function
	parent  *Compiler
	strings *jsvalue.StringTable

	scopeStack   []*scope
	loopStack    []*loopContext
	pendingLabel string
	openTries    int

	source   string
	filename string
	lastLine int
}

type scope struct {
	bindingIdx  []int // Module.Bindings indices declared directly in this scope
	funcDeclIdx []int
}

type loopContext struct {
	label          string
	breakJumps     []int
	continueJumps  []int
	continueTarget int // set once the loop's update/test point is known

	// tryDepth records how many try/catch regions were open when the
	// loop started; break/continue emit matching region pops before
	// jumping out of them.
	tryDepth int
}

// CompileOptions configures a top-level compilation.
type CompileOptions struct {
	Module   bool
	Filename string
}

// Compile lowers a parsed program into a bytecode.Module. source is
// kept only for error-context formatting (internal/srcerr).
func Compile(program *ast.Program, source string, opts CompileOptions) (*bytecode.Module, error) {
	mod := bytecode.NewModule(opts.Filename, opts.Module)
	c := &Compiler{
		module:   mod,
		strings:  jsvalue.NewStringTable(),
		source:   source,
		filename: opts.Filename,
	}
	c.fn = bytecode.NewFunction("<top-level>")
	mod.AddFunction(c.fn)

	c.beginScope()
	if err := c.hoist(program.Body, true); err != nil {
		return nil, err
	}
	c.emitFuncDeclGroup(1)
	if err := c.compileStatements(program.Body); err != nil {
		return nil, err
	}
	c.fn.TopBindingGroup = c.endScope()

	c.emit(bytecode.MakeSimpleInstruction(bytecode.OpHalt), c.lastLine)
	return mod, nil
}

func newChildCompiler(parent *Compiler, name string) *Compiler {
	fn := bytecode.NewFunction(name)
	parent.module.AddFunction(fn)
	return &Compiler{
		module:   parent.module,
		fn:       fn,
		parent:   parent,
		strings:  parent.strings,
		source:   parent.source,
		filename: parent.filename,
	}
}

func (c *Compiler) functionIndex() int {
	for i, fn := range c.module.Functions {
		if fn == c.fn {
			return i
		}
	}
	return -1
}

// --- emission helpers ---

func (c *Compiler) emit(inst bytecode.Instruction, line int) int {
	if line != c.lastLine {
		c.fn.Lines = append(c.fn.Lines, bytecode.LineInfo{Offset: len(c.fn.Code), Line: line})
		c.lastLine = line
	}
	c.fn.Code = append(c.fn.Code, inst)
	return len(c.fn.Code) - 1
}

func (c *Compiler) here() int { return len(c.fn.Code) }

// emitJump emits a forward jump with a placeholder offset and returns
// its instruction index for patchJump to fix up later.
func (c *Compiler) emitJump(op bytecode.OpCode, line int) int {
	return c.emit(bytecode.MakeInstruction(op, 0, 0), line)
}

// patchJump rewrites the jump at idx to land on the current offset.
func (c *Compiler) patchJump(idx int) {
	offset := c.here() - idx - 1
	inst := c.fn.Code[idx]
	c.fn.Code[idx] = bytecode.MakeInstruction(inst.OpCode(), inst.A(), uint16(int16(offset)))
}

// emitLoop emits a backward jump to loopStart.
func (c *Compiler) emitLoop(loopStart int, line int) {
	offset := c.here() - loopStart + 1
	c.emit(bytecode.MakeInstruction(bytecode.OpLoop, 0, uint16(int16(offset))), line)
}

func (c *Compiler) addConstant(v jsvalue.Value) int { return c.module.AddConstant(v) }

func (c *Compiler) loadConst(v jsvalue.Value, line int) {
	idx := c.addConstant(v)
	c.emit(bytecode.MakeInstruction(bytecode.OpLoadConst, 0, uint16(idx)), line)
}

func (c *Compiler) internString(s string) int {
	return c.addConstant(jsvalue.Str(c.strings.Intern(s)))
}

// --- binding declaration/resolution ---

func (c *Compiler) beginScope() { c.scopeStack = append(c.scopeStack, &scope{}) }

// endScope closes the innermost scope, registering its BindingGroup
// (and any hoisted FunctionDeclGroup) with the module. Returns the
// binding-group index, or -1 if the scope declared nothing (callers
// skip the OpPushScope/OpPopScope pair in that case).
func (c *Compiler) endScope() int {
	n := len(c.scopeStack)
	sc := c.scopeStack[n-1]
	c.scopeStack = c.scopeStack[:n-1]
	if len(sc.bindingIdx) == 0 && len(sc.funcDeclIdx) == 0 {
		return -1
	}
	return c.module.AddBindingGroup(sc.bindingIdx)
}

func (c *Compiler) currentScope() *scope { return c.scopeStack[len(c.scopeStack)-1] }

// declareBinding registers name in the innermost scope and returns its
// Module.Bindings index, used as the operand of OpGetBinding/
// OpSetBinding/OpInitBinding (the VM resolves these by name against
// the live lexenv.Env chain).
func (c *Compiler) declareBinding(name string, kind bytecode.BindingKind) int {
	idx := c.module.AddBinding(bytecode.BindingRef{Name: name, Kind: kind})
	c.currentScope().bindingIdx = append(c.currentScope().bindingIdx, idx)
	return idx
}

func (c *Compiler) errorf(node ast.Node, format string, args ...interface{}) error {
	pos := token.Position{Line: 1, Column: 1}
	if node != nil {
		pos = node.Pos()
	}
	return srcerr.New(srcerr.SyntaxErrorKind, pos, fmt.Sprintf(format, args...), c.source, c.filename)
}

// --- loop contexts ---

func (c *Compiler) pushLoop(label string) *loopContext {
	lc := &loopContext{label: label, tryDepth: c.openTries}
	c.loopStack = append(c.loopStack, lc)
	return lc
}

func (c *Compiler) popLoop() {
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

func (c *Compiler) findLoop(label string) *loopContext {
	for i := len(c.loopStack) - 1; i >= 0; i-- {
		if label == "" || c.loopStack[i].label == label {
			return c.loopStack[i]
		}
	}
	return nil
}

func (c *Compiler) patchLoopExits(lc *loopContext) {
	for _, idx := range lc.breakJumps {
		c.patchJump(idx)
	}
}

func (c *Compiler) patchLoopContinues(lc *loopContext, target int) {
	for _, idx := range lc.continueJumps {
		offset := target - idx - 1
		inst := c.fn.Code[idx]
		c.fn.Code[idx] = bytecode.MakeInstruction(inst.OpCode(), inst.A(), uint16(int16(offset)))
	}
}

func lineOf(n ast.Node) int {
	if n == nil {
		return 0
	}
	return n.Pos().Line
}
