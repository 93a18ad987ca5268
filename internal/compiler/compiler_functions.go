package compiler

import (
	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/bytecode"
)

// compileFunctionLiteral compiles fn's body into a fresh
// bytecode.Function and returns its function-table index (the
// OpClosure operand). The parameter prologue copies call-frame
// arguments into named bindings so the body only ever sees the
// environment chain.
func (c *Compiler) compileFunctionLiteral(fn *ast.Function, name string) (int, error) {
	if name == "" {
		name = fn.Name
	}
	if name == "" {
		name = "<anonymous>"
	}
	sub := newChildCompiler(c, name)
	sub.fn.IsArrow = fn.Arrow
	sub.fn.IsGenerator = fn.Generator
	sub.fn.IsAsync = fn.Async
	sub.fn.SourceFile = c.filename
	sub.fn.SourceLine = fn.Token.Pos.Line

	line := fn.Token.Pos.Line
	sub.beginScope()

	argPos := 0
	for _, p := range fn.Params {
		if rest, ok := p.(*ast.RestElement); ok {
			sub.fn.HasRestParam = true
			sub.declarePatternNames(rest.Arg, bytecode.BindingParam)
			continue
		}
		sub.declarePatternNames(p, bytecode.BindingParam)
		argPos++
	}
	sub.fn.ParamCount = argPos

	if fn.Body != nil {
		if err := sub.hoist(fn.Body.Body, true); err != nil {
			return 0, err
		}
	}

	// Parameter prologue: move arguments into their bindings, applying
	// defaults and destructuring through the shared pattern path.
	argPos = 0
	for _, p := range fn.Params {
		if rest, ok := p.(*ast.RestElement); ok {
			sub.emit(bytecode.MakeInstruction(bytecode.OpLoadRest, byte(argPos), 0), line)
			if err := sub.compileBindingInit(rest.Arg, bytecode.BindingParam); err != nil {
				return 0, err
			}
			continue
		}
		sub.emit(bytecode.MakeInstruction(bytecode.OpLoadArg, byte(argPos), 0), line)
		if err := sub.compileBindingInit(p, bytecode.BindingParam); err != nil {
			return 0, err
		}
		argPos++
	}

	sub.emitFuncDeclGroup(line)

	if fn.ExprBody != nil {
		if err := sub.compileExpression(fn.ExprBody); err != nil {
			return 0, err
		}
		sub.emit(bytecode.MakeSimpleInstruction(bytecode.OpReturn), sub.lastLine)
	} else if fn.Body != nil {
		if err := sub.compileStatements(fn.Body.Body); err != nil {
			return 0, err
		}
		sub.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), sub.lastLine)
		sub.emit(bytecode.MakeSimpleInstruction(bytecode.OpReturn), sub.lastLine)
	} else {
		sub.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
		sub.emit(bytecode.MakeSimpleInstruction(bytecode.OpReturn), line)
	}

	sub.fn.TopBindingGroup = sub.endScope()
	return sub.functionIndex(), nil
}

func (c *Compiler) compileClassDeclaration(s *ast.ClassDeclaration) error {
	if err := c.compileClassBody(s.Class); err != nil {
		return err
	}
	idx := c.resolveDeclared(s.Class.Name)
	c.emit(bytecode.MakeInstruction(bytecode.OpInitBinding, 0, uint16(idx)), lineOf(s))
	return nil
}

// Class-member definition flags carried in OpDefineMethod's A operand.
const (
	classMemberStatic  = 1 << 0
	classMemberGetter  = 1 << 1
	classMemberSetter  = 1 << 2
	classMemberPrivate = 1 << 3
	classMemberField   = 1 << 4
)

// compileClassBody evaluates a class definition, leaving the
// constructor on the stack. Layout: superclass (or undefined), the
// constructor closure, OpNewClassStatic (wires prototypes, pushes
// [ctor, proto]), one OpDefineMethod per member, then the prototype is
// dropped.
func (c *Compiler) compileClassBody(cb *ast.ClassBody) error {
	line := cb.Token.Pos.Line
	derived := cb.SuperClass != nil

	if derived {
		if err := c.compileExpression(cb.SuperClass); err != nil {
			return err
		}
	} else {
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
	}

	privEnv := c.registerPrivateEnv(cb)

	ctorIdx, err := c.compileClassConstructor(cb, derived, privEnv)
	if err != nil {
		return err
	}
	c.emit(bytecode.MakeInstruction(bytecode.OpClosure, 0, uint16(ctorIdx)), line)

	flag := byte(0)
	if derived {
		flag = 1
	}
	c.emit(bytecode.MakeInstruction(bytecode.OpNewClassStatic, flag, 0), line)

	for _, m := range cb.Members {
		if m.Kind == "constructor" {
			continue
		}
		if err := c.compileClassMember(cb, m, privEnv, line); err != nil {
			return err
		}
	}

	// Drop the prototype, leaving the constructor as the class value.
	c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
	return nil
}

// registerPrivateEnv records the class body's #names in the module's
// private-name and private-environment tables, returning the
// environment's index (-1 when the class declares none).
func (c *Compiler) registerPrivateEnv(cb *ast.ClassBody) int {
	var names []int
	for _, m := range cb.Members {
		if !m.Private {
			continue
		}
		pn, ok := m.Key.(*ast.PrivateName)
		if !ok {
			continue
		}
		kind := "field"
		switch m.Kind {
		case "method":
			kind = "method"
		case "get", "set":
			kind = "accessor"
		}
		c.module.PrivateNames = append(c.module.PrivateNames, bytecode.PrivateNameInfo{Description: pn.Name, Kind: kind})
		names = append(names, len(c.module.PrivateNames)-1)
	}
	if len(names) == 0 {
		return -1
	}
	outer := -1
	if c.fn.PrivateEnv >= 0 {
		outer = c.fn.PrivateEnv
	}
	c.module.PrivateEnvironments = append(c.module.PrivateEnvironments, bytecode.PrivateEnvironment{Names: names, Outer: outer})
	return len(c.module.PrivateEnvironments) - 1
}

func (c *Compiler) compileClassConstructor(cb *ast.ClassBody, derived bool, privEnv int) (int, error) {
	for _, m := range cb.Members {
		if m.Kind != "constructor" {
			continue
		}
		fe := m.Value.(*ast.FunctionExpression)
		idx, err := c.compileFunctionLiteral(fe.Fn, cb.Name)
		if err != nil {
			return 0, err
		}
		fn := c.module.Functions[idx]
		fn.IsClassConstructor = true
		fn.IsDerivedConstructor = derived
		fn.IsMethod = true
		fn.PrivateEnv = privEnv
		return idx, nil
	}
	return c.synthesizeDefaultConstructor(cb, derived, privEnv)
}

// synthesizeDefaultConstructor builds the implicit constructor: empty
// for a base class, `constructor(...args) { super(...args) }` for a
// derived one.
func (c *Compiler) synthesizeDefaultConstructor(cb *ast.ClassBody, derived bool, privEnv int) (int, error) {
	sub := newChildCompiler(c, cb.Name)
	sub.fn.IsClassConstructor = true
	sub.fn.IsDerivedConstructor = derived
	sub.fn.IsMethod = true
	sub.fn.PrivateEnv = privEnv
	line := cb.Token.Pos.Line

	sub.beginScope()
	if derived {
		sub.emit(bytecode.MakeInstruction(bytecode.OpLoadRest, 0, 0), line)
		sub.emit(bytecode.MakeSimpleInstruction(bytecode.OpSpread), line)
		sub.emit(bytecode.MakeInstruction(bytecode.OpSuperCall, 1, 0), line)
		sub.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
	}
	sub.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
	sub.emit(bytecode.MakeSimpleInstruction(bytecode.OpReturn), line)
	sub.fn.TopBindingGroup = sub.endScope()
	return sub.functionIndex(), nil
}

func (c *Compiler) compileClassMember(cb *ast.ClassBody, m ast.ClassMember, privEnv int, line int) error {
	flags := byte(0)
	if m.Static {
		flags |= classMemberStatic
	}
	if m.Private {
		flags |= classMemberPrivate
	}

	// Key.
	if m.Private {
		pn := m.Key.(*ast.PrivateName)
		c.emit(bytecode.MakeInstruction(bytecode.OpLoadConst, 0, uint16(c.internString(pn.Name))), line)
	} else if err := c.emitPropertyKeyPush(m.Key, m.Computed, line); err != nil {
		return err
	}

	switch m.Kind {
	case "method", "get", "set":
		if m.Kind == "get" {
			flags |= classMemberGetter
		}
		if m.Kind == "set" {
			flags |= classMemberSetter
		}
		fe := m.Value.(*ast.FunctionExpression)
		idx, err := c.compileFunctionLiteral(fe.Fn, memberName(m))
		if err != nil {
			return err
		}
		fn := c.module.Functions[idx]
		fn.IsMethod = true
		fn.PrivateEnv = privEnv
		c.emit(bytecode.MakeInstruction(bytecode.OpClosure, 0, uint16(idx)), line)
	case "field":
		flags |= classMemberField
		// Field initializers run per construction with `this` bound to
		// the new instance, so they compile to a thunk.
		thunk := &ast.Function{Token: cb.Token, Arrow: false}
		if m.Value != nil {
			thunk.ExprBody = m.Value
		} else {
			thunk.ExprBody = &ast.UndefinedLiteral{Token: cb.Token}
		}
		idx, err := c.compileFunctionLiteral(thunk, memberName(m))
		if err != nil {
			return err
		}
		fn := c.module.Functions[idx]
		fn.IsMethod = true
		fn.PrivateEnv = privEnv
		c.emit(bytecode.MakeInstruction(bytecode.OpClosure, 0, uint16(idx)), line)
	default:
		return c.errorf(m.Key, "compiler: unsupported class member kind %q", m.Kind)
	}

	c.emit(bytecode.MakeInstruction(bytecode.OpDefineMethod, flags, 0), line)
	return nil
}

func memberName(m ast.ClassMember) string {
	switch k := m.Key.(type) {
	case *ast.Identifier:
		return k.Name
	case *ast.StringLiteral:
		return k.Value
	case *ast.PrivateName:
		return "#" + k.Name
	}
	return "<computed>"
}
