package compiler

import (
	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/bytecode"
)

// hoist pre-declares every `var`/function declaration reachable without
// crossing a function boundary (Global/Function Declaration
// Instantiation, spec.md §4.3), plus the `let`/`const`/class bindings
// declared directly in stmts (block-level, not recursing into nested
// blocks). Function declarations are compiled here (into the module's
// function table) and registered as a FunctionDecl group so the VM can
// bind them before running the rest of the scope.
func (c *Compiler) hoist(stmts []ast.Statement, topLevel bool) error {
	c.collectVarNames(stmts, make(map[string]bool))
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.VarDeclStatement:
			if s.Kind != "var" {
				for _, d := range s.Decls {
					c.declarePatternNames(d.ID, bindingKindFor(s.Kind))
				}
			}
		case *ast.FunctionDeclaration:
			if err := c.hoistFunctionDecl(s.Fn); err != nil {
				return err
			}
		case *ast.ClassDeclaration:
			c.declareBinding(s.Class.Name, bytecode.BindingLet)
		case *ast.ExportDeclaration:
			if s.Decl != nil {
				if err := c.hoist([]ast.Statement{s.Decl}, topLevel); err != nil {
					return err
				}
			}
			if s.Default != nil {
				c.declareBinding(defaultExportName, bytecode.BindingConst)
			}
		}
	}
	return nil
}

// defaultExportName is the synthetic binding `export default` writes;
// it cannot collide with any source identifier.
const defaultExportName = "*default*"

func (c *Compiler) compileExport(s *ast.ExportDeclaration) error {
	if s.Decl != nil {
		return c.compileStatement(s.Decl)
	}
	if s.Default != nil {
		if err := c.compileExpression(s.Default); err != nil {
			return err
		}
		idx := c.resolveDeclared(defaultExportName)
		c.emit(bytecode.MakeInstruction(bytecode.OpInitBinding, 0, uint16(idx)), lineOf(s))
	}
	// Plain `export {a, b}` lists are link-time metadata; the loader
	// reads them off the AST.
	return nil
}

// hoistFunctionDecl compiles fn's body into the module's function
// table, declares its name in the current scope, and records the
// FunctionDecl so the scope's OpInstantiateFuncDecls can bind it.
func (c *Compiler) hoistFunctionDecl(fn *ast.Function) error {
	c.declareBinding(fn.Name, bytecode.BindingFunction)
	fnIdx, err := c.compileFunctionLiteral(fn, fn.Name)
	if err != nil {
		return err
	}
	declIdx := c.module.AddFunctionDecl(fn.Name, fnIdx)
	sc := c.currentScope()
	sc.funcDeclIdx = append(sc.funcDeclIdx, declIdx)
	return nil
}

// emitFuncDeclGroup registers the current scope's hoisted functions as
// a FunctionDeclGroup and emits the instantiation instruction, if the
// scope hoisted anything.
func (c *Compiler) emitFuncDeclGroup(line int) {
	sc := c.currentScope()
	if len(sc.funcDeclIdx) == 0 {
		return
	}
	group := c.module.AddFunctionDeclGroup(sc.funcDeclIdx)
	c.emit(bytecode.MakeInstruction(bytecode.OpInstantiateFuncDecls, 0, uint16(group)), line)
}

func bindingKindFor(kind string) bytecode.BindingKind {
	switch kind {
	case "const":
		return bytecode.BindingConst
	case "let":
		return bytecode.BindingLet
	default:
		return bytecode.BindingVar
	}
}

// collectVarNames walks stmts recursively, descending into blocks,
// if/for/while/try/switch/labeled bodies but never into a nested
// function's body, declaring every `var` name it finds as a var
// binding (spec.md's var hoisting is function-scoped, not block-
// scoped).
func (c *Compiler) collectVarNames(stmts []ast.Statement, seen map[string]bool) {
	var walk func(ast.Statement)
	walk = func(stmt ast.Statement) {
		switch s := stmt.(type) {
		case *ast.VarDeclStatement:
			if s.Kind == "var" {
				for _, d := range s.Decls {
					for _, name := range patternNames(d.ID) {
						if !seen[name] {
							seen[name] = true
							c.declareBinding(name, bytecode.BindingVar)
						}
					}
				}
			}
		case *ast.BlockStatement:
			for _, st := range s.Body {
				walk(st)
			}
		case *ast.IfStatement:
			walk(s.Cons)
			if s.Alt != nil {
				walk(s.Alt)
			}
		case *ast.ForStatement:
			if decl, ok := s.Init.(*ast.VarDeclStatement); ok {
				walk(decl)
			}
			walk(s.Body)
		case *ast.ForInOfStatement:
			walk(s.Body)
		case *ast.WhileStatement:
			walk(s.Body)
		case *ast.DoWhileStatement:
			walk(s.Body)
		case *ast.TryStatement:
			for _, st := range s.Block.Body {
				walk(st)
			}
			if s.Handler != nil {
				for _, st := range s.Handler.Body {
					walk(st)
				}
			}
			if s.Finalizer != nil {
				for _, st := range s.Finalizer.Body {
					walk(st)
				}
			}
		case *ast.SwitchStatement:
			for _, cs := range s.Cases {
				for _, st := range cs.Body {
					walk(st)
				}
			}
		case *ast.LabeledStatement:
			walk(s.Body)
		}
	}
	for _, stmt := range stmts {
		walk(stmt)
	}
}

func patternNames(p ast.Pattern) []string {
	switch pat := p.(type) {
	case *ast.Identifier:
		return []string{pat.Name}
	case *ast.ArrayPattern:
		var names []string
		for _, el := range pat.Elements {
			if el != nil {
				names = append(names, patternNames(el)...)
			}
		}
		return names
	case *ast.ObjectPattern:
		var names []string
		for _, prop := range pat.Props {
			names = append(names, patternNames(prop.Value)...)
		}
		if pat.Rest != nil {
			names = append(names, patternNames(pat.Rest)...)
		}
		return names
	case *ast.AssignPattern:
		return patternNames(pat.Target)
	case *ast.RestElement:
		return patternNames(pat.Arg)
	}
	return nil
}

func (c *Compiler) declarePatternNames(p ast.Pattern, kind bytecode.BindingKind) {
	for _, name := range patternNames(p) {
		c.declareBinding(name, kind)
	}
}

func (c *Compiler) compileStatements(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	line := lineOf(stmt)
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if err := c.compileExpression(s.Expr); err != nil {
			return err
		}
		// The statement's value becomes the frame's completion value,
		// which is what a script evaluation ultimately returns.
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpStoreCompletion), line)
		return nil

	case *ast.EmptyStatement:
		return nil

	case *ast.BlockStatement:
		return c.compileBlock(s.Body)

	case *ast.VarDeclStatement:
		return c.compileVarDecl(s)

	case *ast.IfStatement:
		return c.compileIf(s)

	case *ast.ForStatement:
		return c.compileFor(s, c.pendingLabelAndClear())

	case *ast.ForInOfStatement:
		return c.compileForInOf(s, c.pendingLabelAndClear())

	case *ast.WhileStatement:
		return c.compileWhile(s, c.pendingLabelAndClear())

	case *ast.DoWhileStatement:
		return c.compileDoWhile(s, c.pendingLabelAndClear())

	case *ast.ReturnStatement:
		if s.Arg != nil {
			if err := c.compileExpression(s.Arg); err != nil {
				return err
			}
			// A plain call in return position becomes a tail call.
			if _, isCall := s.Arg.(*ast.CallExpression); isCall && len(c.fn.Code) > 0 {
				last := c.fn.Code[len(c.fn.Code)-1]
				if last.OpCode() == bytecode.OpCall {
					c.fn.Code[len(c.fn.Code)-1] = bytecode.MakeInstruction(bytecode.OpTailCall, last.A(), last.B())
				}
			}
		} else {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpReturn), line)
		return nil

	case *ast.BreakStatement:
		lc := c.findLoop(s.Label)
		if lc == nil {
			return c.errorf(s, "illegal break statement")
		}
		c.emitTryPops(lc, line)
		idx := c.emitJump(bytecode.OpJump, line)
		lc.breakJumps = append(lc.breakJumps, idx)
		return nil

	case *ast.ContinueStatement:
		lc := c.findLoop(s.Label)
		if lc == nil {
			return c.errorf(s, "illegal continue statement")
		}
		c.emitTryPops(lc, line)
		idx := c.emitJump(bytecode.OpJump, line)
		lc.continueJumps = append(lc.continueJumps, idx)
		return nil

	case *ast.ThrowStatement:
		if err := c.compileExpression(s.Arg); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpThrow), line)
		return nil

	case *ast.TryStatement:
		return c.compileTry(s)

	case *ast.SwitchStatement:
		return c.compileSwitch(s)

	case *ast.LabeledStatement:
		c.pendingLabel = s.Label
		if err := c.compileStatement(s.Body); err != nil {
			return err
		}
		c.pendingLabel = ""
		return nil

	case *ast.FunctionDeclaration:
		// Already bound during hoist(); nothing to emit at this
		// position (the VM materializes hoisted functions when it
		// pushes the scope).
		return nil

	case *ast.ClassDeclaration:
		return c.compileClassDeclaration(s)

	case *ast.ImportDeclaration:
		// Imports are resolved at link time (the loader creates the
		// module environment's indirect bindings); no code is emitted.
		return nil

	case *ast.ExportDeclaration:
		return c.compileExport(s)

	default:
		return c.errorf(stmt, "compiler: unsupported statement %T", stmt)
	}
}

// emitTryPops closes try/catch regions a break/continue jumps out of,
// so the frame's region stack never holds stale handlers.
func (c *Compiler) emitTryPops(lc *loopContext, line int) {
	for n := c.openTries; n > lc.tryDepth; n-- {
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPopTry), line)
	}
}

func (c *Compiler) pendingLabelAndClear() string {
	l := c.pendingLabel
	c.pendingLabel = ""
	return l
}

// compileBlock compiles a nested block as its own lexical scope,
// pushing/popping a declarative environment only when the block
// actually declares lexical bindings.
func (c *Compiler) compileBlock(stmts []ast.Statement) error {
	c.beginScope()
	line := 0
	if len(stmts) > 0 {
		line = lineOf(stmts[0])
	}
	// Reserve the push instruction; patched once the group is known.
	pushIdx := c.emit(bytecode.MakeInstruction(bytecode.OpPushScope, 0, 0), line)
	if err := c.hoistBlockLexical(stmts); err != nil {
		return err
	}
	c.emitFuncDeclGroup(line)

	if err := c.compileStatements(stmts); err != nil {
		return err
	}

	group := c.endScope()
	if group < 0 {
		// No bindings after all; the scope still pushes (an empty
		// group) so every recorded jump and try-region offset stays
		// valid. Deleting the reserved instruction would shift them.
		group = c.module.AddBindingGroup(nil)
	}
	inst := c.fn.Code[pushIdx]
	c.fn.Code[pushIdx] = bytecode.MakeInstruction(inst.OpCode(), inst.A(), uint16(group))
	c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPopScope), line)
	return nil
}

func (c *Compiler) hoistBlockLexical(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.VarDeclStatement:
			if s.Kind != "var" {
				for _, d := range s.Decls {
					c.declarePatternNames(d.ID, bindingKindFor(s.Kind))
				}
			}
		case *ast.FunctionDeclaration:
			if err := c.hoistFunctionDecl(s.Fn); err != nil {
				return err
			}
		case *ast.ClassDeclaration:
			c.declareBinding(s.Class.Name, bytecode.BindingLet)
		}
	}
	return nil
}

func (c *Compiler) compileVarDecl(s *ast.VarDeclStatement) error {
	line := lineOf(s)
	kind := bindingKindFor(s.Kind)
	for _, decl := range s.Decls {
		if decl.Init != nil {
			if err := c.compileExpression(decl.Init); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
		}
		if err := c.compileBindingInit(decl.ID, kind); err != nil {
			return err
		}
	}
	return nil
}

// compileBindingInit pops the value on top of the stack and
// initializes each name the pattern binds. Simple identifiers are the
// common case; destructuring patterns recursively extract sub-values.
func (c *Compiler) compileBindingInit(p ast.Pattern, kind bytecode.BindingKind) error {
	switch pat := p.(type) {
	case *ast.Identifier:
		idx := c.resolveDeclared(pat.Name)
		c.emit(bytecode.MakeInstruction(bytecode.OpInitBinding, 0, uint16(idx)), lineOf(pat))
		return nil
	case *ast.AssignPattern:
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup), lineOf(pat))
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), lineOf(pat))
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpStrictEqual), lineOf(pat))
		elseJump := c.emitJump(bytecode.OpJumpIfFalse, lineOf(pat))
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), lineOf(pat))
		if err := c.compileExpression(pat.Default); err != nil {
			return err
		}
		c.patchJump(elseJump)
		return c.compileBindingInit(pat.Target, kind)
	case *ast.ArrayPattern:
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpGetIterator), lineOf(pat))
		for _, el := range pat.Elements {
			if rest, ok := el.(*ast.RestElement); ok {
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpRestElements), lineOf(pat))
				if err := c.compileBindingInit(rest.Arg, kind); err != nil {
					return err
				}
				continue
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpArrayDestructureElement), lineOf(pat))
			if el == nil {
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), lineOf(pat))
				continue
			}
			if err := c.compileBindingInit(el, kind); err != nil {
				return err
			}
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpIteratorClose), lineOf(pat))
		return nil
	case *ast.ObjectPattern:
		for _, prop := range pat.Props {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup), lineOf(pat))
			if err := c.emitPropertyGet(prop.Key, prop.Computed, lineOf(pat)); err != nil {
				return err
			}
			if err := c.compileBindingInit(prop.Value, kind); err != nil {
				return err
			}
		}
		if pat.Rest != nil {
			c.emitRestObject(pat, lineOf(pat))
			if err := c.compileBindingInit(pat.Rest, kind); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), lineOf(pat))
		}
		return nil
	default:
		return c.errorf(p, "compiler: unsupported binding pattern %T", p)
	}
}

// resolveDeclared finds the binding index most recently declared with
// this name, searching innermost scope outward within this function
// (a simplification: true shadowing across function boundaries is
// resolved at runtime by the lexenv chain regardless of which index
// the compiler picked, since OpGetBinding/OpSetBinding operate by
// name, not by slot identity).
func (c *Compiler) resolveDeclared(name string) int {
	for i := len(c.scopeStack) - 1; i >= 0; i-- {
		for j := len(c.scopeStack[i].bindingIdx) - 1; j >= 0; j-- {
			idx := c.scopeStack[i].bindingIdx[j]
			if c.module.Bindings[idx].Name == name {
				return idx
			}
		}
	}
	// Not declared in any open scope (an implicit global, or a name
	// from an enclosing function): register the name in the binding
	// table WITHOUT attaching it to any scope's group, so pushing this
	// scope never shadows the outer binding. The VM resolves it by
	// name through the live environment chain.
	return c.module.AddBinding(bytecode.BindingRef{Name: name, Kind: bytecode.BindingVar})
}

func (c *Compiler) compileIf(s *ast.IfStatement) error {
	line := lineOf(s)
	if err := c.compileExpression(s.Test); err != nil {
		return err
	}
	thenJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	if err := c.compileStatement(s.Cons); err != nil {
		return err
	}
	if s.Alt == nil {
		c.patchJump(thenJump)
		return nil
	}
	elseJump := c.emitJump(bytecode.OpJump, line)
	c.patchJump(thenJump)
	if err := c.compileStatement(s.Alt); err != nil {
		return err
	}
	c.patchJump(elseJump)
	return nil
}

func (c *Compiler) compileWhile(s *ast.WhileStatement, label string) error {
	line := lineOf(s)
	lc := c.pushLoop(label)
	loopStart := c.here()
	lc.continueTarget = loopStart
	if err := c.compileExpression(s.Test); err != nil {
		return err
	}
	exitJump := c.emitJump(bytecode.OpJumpIfFalse, line)
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	c.patchLoopContinues(lc, loopStart)
	c.emitLoop(loopStart, line)
	c.patchJump(exitJump)
	c.patchLoopExits(lc)
	c.popLoop()
	return nil
}

func (c *Compiler) compileDoWhile(s *ast.DoWhileStatement, label string) error {
	line := lineOf(s)
	lc := c.pushLoop(label)
	loopStart := c.here()
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	continueTarget := c.here()
	c.patchLoopContinues(lc, continueTarget)
	if err := c.compileExpression(s.Test); err != nil {
		return err
	}
	// Backward conditional jump: popping form, so the test value never
	// accumulates across iterations.
	idx := c.emit(bytecode.MakeInstruction(bytecode.OpJumpIfTrue, 0, 0), line)
	offset := idx - loopStart + 1
	c.fn.Code[idx] = bytecode.MakeInstruction(bytecode.OpJumpIfTrue, 0, uint16(int16(-offset)))
	c.patchLoopExits(lc)
	c.popLoop()
	return nil
}

func (c *Compiler) compileFor(s *ast.ForStatement, label string) error {
	line := lineOf(s)
	hasScope := false
	if decl, ok := s.Init.(*ast.VarDeclStatement); ok && decl.Kind != "var" {
		c.beginScope()
		hasScope = true
		pushIdx := c.emit(bytecode.MakeInstruction(bytecode.OpPushScope, 0, 0), line)
		for _, d := range decl.Decls {
			c.declarePatternNames(d.ID, bindingKindFor(decl.Kind))
		}
		if err := c.compileVarDecl(decl); err != nil {
			return err
		}
		group := c.endScope()
		inst := c.fn.Code[pushIdx]
		c.fn.Code[pushIdx] = bytecode.MakeInstruction(inst.OpCode(), inst.A(), uint16(group))
		c.beginScope() // reopen: per-iteration let bindings are re-declared each turn in a full implementation; simplified here to a single scope for the loop's lifetime
		c.currentScope().bindingIdx = nil
	} else if s.Init != nil {
		if decl, ok := s.Init.(*ast.VarDeclStatement); ok {
			if err := c.compileVarDecl(decl); err != nil {
				return err
			}
		} else if expr, ok := s.Init.(ast.Expression); ok {
			if err := c.compileExpression(expr); err != nil {
				return err
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		}
	}

	lc := c.pushLoop(label)
	loopStart := c.here()
	var exitJump int
	hasTest := s.Test != nil
	if hasTest {
		if err := c.compileExpression(s.Test); err != nil {
			return err
		}
		exitJump = c.emitJump(bytecode.OpJumpIfFalse, line)
	}
	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	continueTarget := c.here()
	c.patchLoopContinues(lc, continueTarget)
	if s.Update != nil {
		if err := c.compileExpression(s.Update); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
	}
	c.emitLoop(loopStart, line)
	if hasTest {
		c.patchJump(exitJump)
	}
	c.patchLoopExits(lc)
	c.popLoop()

	if hasScope {
		c.endScope()
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPopScope), line)
	}
	return nil
}

func (c *Compiler) compileForInOf(s *ast.ForInOfStatement, label string) error {
	line := lineOf(s)
	if err := c.compileExpression(s.Right); err != nil {
		return err
	}
	if s.Of {
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpGetIterator), line)
	} else {
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpForInStart), line)
	}

	c.beginScope()
	hasDecl := s.Decl != ""
	pushIdx := -1
	if hasDecl {
		pushIdx = c.emit(bytecode.MakeInstruction(bytecode.OpPushScope, 0, 0), line)
		c.declarePatternNames(s.Left, bindingKindFor(s.Decl))
	}

	lc := c.pushLoop(label)
	loopStart := c.here()
	var exitJump int
	switch {
	case s.Of && s.Await:
		// Advance the async iterator and await its result; jumps out
		// when done, otherwise pushes the step's value.
		exitJump = c.emitJump(bytecode.OpAsyncForStep, line)
	case s.Of:
		// Fused advance-or-exit: pushes the next value, or jumps by B
		// when the iterator reports done.
		exitJump = c.emitJump(bytecode.OpIteratorNext, line)
	default:
		exitJump = c.emitJump(bytecode.OpForInNext, line)
	}

	if hasDecl {
		if err := c.compileBindingInit(s.Left, bindingKindFor(s.Decl)); err != nil {
			return err
		}
	} else {
		switch left := s.Left.(type) {
		case *ast.ExpressionPattern:
			if err := c.compileAssignmentTarget(left.Expr, line); err != nil {
				return err
			}
		case *ast.Identifier:
			if err := c.compileAssignmentTarget(left, line); err != nil {
				return err
			}
		default:
			if err := c.compileBindingInit(s.Left, bytecode.BindingVar); err != nil {
				return err
			}
		}
	}

	if err := c.compileStatement(s.Body); err != nil {
		return err
	}
	continueTarget := c.here()
	c.patchLoopContinues(lc, continueTarget)
	c.emitLoop(loopStart, line)
	c.patchJump(exitJump)
	c.patchLoopExits(lc)
	c.popLoop()

	if hasDecl {
		group := c.endScope()
		inst := c.fn.Code[pushIdx]
		c.fn.Code[pushIdx] = bytecode.MakeInstruction(inst.OpCode(), inst.A(), uint16(group))
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPopScope), line)
	} else {
		c.endScope()
	}
	if s.Of {
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpIteratorClose), line)
	} else {
		// Drop the for-in enumerator.
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
	}
	return nil
}

// compileAssignmentTarget stores the value on top of the stack into an
// already-existing binding or property reference, consuming it (used
// by for-in/of loops over a plain assignment target and by
// destructuring assignment).
func (c *Compiler) compileAssignmentTarget(target ast.Expression, line int) error {
	switch t := target.(type) {
	case *ast.Identifier:
		idx := c.resolveDeclared(t.Name)
		c.emit(bytecode.MakeInstruction(bytecode.OpSetBinding, 0, uint16(idx)), line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		return nil
	case *ast.MemberExpression:
		if err := c.compileExpression(t.Object); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpSwap), line)
		if err := c.emitPropertySet(t.Property, t.Computed, line); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		return nil
	default:
		return c.errorf(target, "compiler: invalid assignment target %T", target)
	}
}

// emitRestObject collects the source object's remaining own enumerable
// properties into a fresh object, excluding the keys the pattern
// already bound (pushed as constants; B carries the count).
func (c *Compiler) emitRestObject(pat *ast.ObjectPattern, line int) {
	excluded := 0
	for _, prop := range pat.Props {
		switch k := prop.Key.(type) {
		case *ast.Identifier:
			if !prop.Computed {
				c.emit(bytecode.MakeInstruction(bytecode.OpLoadConst, 0, uint16(c.internString(k.Name))), line)
				excluded++
			}
		case *ast.StringLiteral:
			c.emit(bytecode.MakeInstruction(bytecode.OpLoadConst, 0, uint16(c.internString(k.Value))), line)
			excluded++
		}
	}
	c.emit(bytecode.MakeInstructionABC(bytecode.OpCopyDataProperties, 1, byte(excluded), 0), line)
}

func (c *Compiler) compileTry(s *ast.TryStatement) error {
	line := lineOf(s)
	tryIdx := c.emit(bytecode.MakeInstruction(bytecode.OpPushTry, 0, 0), line)
	c.openTries++
	if err := c.compileBlock(s.Block.Body); err != nil {
		return err
	}
	c.openTries--
	c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPopTry), line)
	endTryJump := c.emitJump(bytecode.OpJump, line)

	catchStart := c.here()
	info := bytecode.TryInfo{}
	if s.HasCatch {
		info.HasCatch = true
		info.CatchTarget = catchStart
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPushCatch), line)
		c.openTries++
		c.beginScope()
		pushIdx := -1
		if s.Param != nil {
			pushIdx = c.emit(bytecode.MakeInstruction(bytecode.OpPushScope, 0, 0), line)
			c.declarePatternNames(s.Param, bytecode.BindingLet)
			if err := c.compileBindingInit(s.Param, bytecode.BindingLet); err != nil {
				return err
			}
		} else {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		}
		if err := c.compileStatements(s.Handler.Body); err != nil {
			return err
		}
		if pushIdx >= 0 {
			group := c.endScope()
			inst := c.fn.Code[pushIdx]
			c.fn.Code[pushIdx] = bytecode.MakeInstruction(inst.OpCode(), inst.A(), uint16(group))
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPopScope), line)
		} else {
			c.endScope()
		}
		c.openTries--
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPopCatch), line)
	}
	c.patchJump(endTryJump)

	if s.Finalizer != nil {
		info.HasFinally = true
		info.FinallyTarget = c.here()
		if err := c.compileBlock(s.Finalizer.Body); err != nil {
			return err
		}
		info.FinallyEnd = c.here()
	}
	c.fn.TryInfos[tryIdx] = info
	return nil
}

// compileSwitch lays out a test section, a trampoline per arm (which
// pops the discriminant exactly once), then the arm bodies in source
// order so fall-through is plain sequential execution.
func (c *Compiler) compileSwitch(s *ast.SwitchStatement) error {
	line := lineOf(s)
	if err := c.compileExpression(s.Disc); err != nil {
		return err
	}
	lc := c.pushLoop("") // switch participates in break, not continue

	caseJumps := make([]int, len(s.Cases))
	defaultIdx := -1
	for i, cs := range s.Cases {
		if cs.Test == nil {
			defaultIdx = i
			continue
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup), line)
		if err := c.compileExpression(cs.Test); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpStrictEqual), line)
		caseJumps[i] = c.emitJump(bytecode.OpJumpIfTrue, line)
	}
	noMatchJump := c.emitJump(bytecode.OpJump, line)

	// Trampolines: each pops the discriminant and enters its body.
	bodyJumps := make([]int, len(s.Cases))
	for i, cs := range s.Cases {
		if cs.Test == nil {
			c.patchJump(noMatchJump)
		} else {
			c.patchJump(caseJumps[i])
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		bodyJumps[i] = c.emitJump(bytecode.OpJump, line)
	}
	if defaultIdx < 0 {
		// No default: the no-match path pops and exits the switch.
		c.patchJump(noMatchJump)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		lc.breakJumps = append(lc.breakJumps, c.emitJump(bytecode.OpJump, line))
	}

	for i, cs := range s.Cases {
		c.patchJump(bodyJumps[i])
		if err := c.compileStatements(cs.Body); err != nil {
			return err
		}
	}
	c.patchLoopExits(lc)
	c.popLoop()
	return nil
}
