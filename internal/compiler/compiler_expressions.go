package compiler

import (
	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/jsvalue"
)

func (c *Compiler) compileExpression(expr ast.Expression) error {
	if expr == nil {
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), c.lastLine)
		return nil
	}
	line := lineOf(expr)
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emitNumber(e.Value, line)
		return nil

	case *ast.StringLiteral:
		c.loadConst(jsvalue.Str(c.strings.Intern(e.Value)), line)
		return nil

	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadTrue), line)
		} else {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadFalse), line)
		}
		return nil

	case *ast.NullLiteral:
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadNull), line)
		return nil

	case *ast.UndefinedLiteral:
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
		return nil

	case *ast.ThisExpression:
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadThis), line)
		return nil

	case *ast.Identifier:
		c.emitBindingGet(e.Name, line)
		return nil

	case *ast.ArrayLiteral:
		return c.compileArrayLiteral(e)

	case *ast.ObjectLiteral:
		return c.compileObjectLiteral(e)

	case *ast.UnaryExpression:
		return c.compileUnary(e)

	case *ast.UpdateExpression:
		return c.compileUpdate(e)

	case *ast.BinaryExpression:
		return c.compileBinary(e)

	case *ast.LogicalExpression:
		return c.compileLogical(e)

	case *ast.AssignmentExpression:
		return c.compileAssignment(e)

	case *ast.ConditionalExpression:
		if err := c.compileExpression(e.Test); err != nil {
			return err
		}
		elseJump := c.emitJump(bytecode.OpJumpIfFalse, line)
		if err := c.compileExpression(e.Cons); err != nil {
			return err
		}
		endJump := c.emitJump(bytecode.OpJump, line)
		c.patchJump(elseJump)
		if err := c.compileExpression(e.Alt); err != nil {
			return err
		}
		c.patchJump(endJump)
		return nil

	case *ast.SequenceExpression:
		for i, sub := range e.Exprs {
			if err := c.compileExpression(sub); err != nil {
				return err
			}
			if i < len(e.Exprs)-1 {
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
			}
		}
		return nil

	case *ast.CallExpression:
		return c.compileCall(e)

	case *ast.NewExpression:
		return c.compileNew(e)

	case *ast.MemberExpression:
		return c.compileMemberGet(e)

	case *ast.FunctionExpression:
		idx, err := c.compileFunctionLiteral(e.Fn, e.Fn.Name)
		if err != nil {
			return err
		}
		c.emit(bytecode.MakeInstruction(bytecode.OpClosure, 0, uint16(idx)), line)
		return nil

	case *ast.ArrowFunctionExpression:
		idx, err := c.compileFunctionLiteral(e.Fn, "")
		if err != nil {
			return err
		}
		c.emit(bytecode.MakeInstruction(bytecode.OpClosure, 0, uint16(idx)), line)
		return nil

	case *ast.ClassExpression:
		return c.compileClassBody(e.Class)

	case *ast.YieldExpression:
		if err := c.compileExpression(e.Arg); err != nil {
			return err
		}
		if e.Delegate {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpYieldStar), line)
		} else {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpYield), line)
		}
		return nil

	case *ast.AwaitExpression:
		if err := c.compileExpression(e.Arg); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpAwait), line)
		return nil

	case *ast.SpreadElement:
		// Only valid inside call/literal positions, which intercept it
		// before reaching here.
		return c.errorf(e, "unexpected spread element")

	default:
		return c.errorf(expr, "compiler: unsupported expression %T", expr)
	}
}

// emitNumber loads a number, folding through the constant pool.
func (c *Compiler) emitNumber(f float64, line int) {
	c.loadConst(jsvalue.Number(f), line)
}

// emitBindingGet reads a name: a compile-time-known binding uses its
// table index, anything else falls back to a by-name chain lookup.
func (c *Compiler) emitBindingGet(name string, line int) {
	if idx, ok := c.lookupDeclared(name); ok {
		c.emit(bytecode.MakeInstruction(bytecode.OpGetBinding, 0, uint16(idx)), line)
		return
	}
	c.emit(bytecode.MakeInstruction(bytecode.OpGetBindingByName, 0, uint16(c.internString(name))), line)
}

// lookupDeclared searches the open scopes for name without declaring
// anything on miss (unlike resolveDeclared).
func (c *Compiler) lookupDeclared(name string) (int, bool) {
	for i := len(c.scopeStack) - 1; i >= 0; i-- {
		for j := len(c.scopeStack[i].bindingIdx) - 1; j >= 0; j-- {
			idx := c.scopeStack[i].bindingIdx[j]
			if c.module.Bindings[idx].Name == name {
				return idx, true
			}
		}
	}
	return 0, false
}

func (c *Compiler) compileArrayLiteral(e *ast.ArrayLiteral) error {
	line := lineOf(e)
	hasSpread := false
	for _, el := range e.Elements {
		if _, ok := el.(*ast.SpreadElement); ok {
			hasSpread = true
			break
		}
	}

	if !hasSpread && len(e.Elements) <= 255 {
		for _, el := range e.Elements {
			if el == nil {
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
				continue
			}
			if err := c.compileExpression(el); err != nil {
				return err
			}
		}
		c.emit(bytecode.MakeInstruction(bytecode.OpNewArray, byte(len(e.Elements)), 0), line)
		return nil
	}

	// Incremental build: empty array, then append each element (A=0)
	// or splice in a whole iterable (A=1).
	c.emit(bytecode.MakeInstruction(bytecode.OpNewArray, 0, 0), line)
	for _, el := range e.Elements {
		if sp, ok := el.(*ast.SpreadElement); ok {
			if err := c.compileExpression(sp.Arg); err != nil {
				return err
			}
			c.emit(bytecode.MakeInstruction(bytecode.OpNewArraySpread, 1, 0), line)
			continue
		}
		if el == nil {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
		} else if err := c.compileExpression(el); err != nil {
			return err
		}
		c.emit(bytecode.MakeInstruction(bytecode.OpNewArraySpread, 0, 0), line)
	}
	return nil
}

func (c *Compiler) compileObjectLiteral(e *ast.ObjectLiteral) error {
	line := lineOf(e)
	c.emit(bytecode.MakeSimpleInstruction(bytecode.OpNewObject), line)
	for _, prop := range e.Props {
		switch prop.Kind {
		case "spread":
			if err := c.compileExpression(prop.Value); err != nil {
				return err
			}
			c.emit(bytecode.MakeInstructionABC(bytecode.OpCopyDataProperties, 0, 0, 0), line)
		case "get", "set":
			if err := c.emitPropertyKeyPush(prop.Key, prop.Computed, line); err != nil {
				return err
			}
			if err := c.compileExpression(prop.Value); err != nil {
				return err
			}
			op := bytecode.OpDefineGetter
			if prop.Kind == "set" {
				op = bytecode.OpDefineSetter
			}
			c.emit(bytecode.MakeSimpleInstruction(op), line)
		default: // "init", "method"
			if err := c.emitPropertyKeyPush(prop.Key, prop.Computed, line); err != nil {
				return err
			}
			if err := c.compileExpression(prop.Value); err != nil {
				return err
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDefineProperty), line)
		}
	}
	return nil
}

// emitPropertyKeyPush pushes a literal key as a string constant, or
// compiles a computed key expression and canonicalizes it.
func (c *Compiler) emitPropertyKeyPush(key ast.Expression, computed bool, line int) error {
	if computed {
		if err := c.compileExpression(key); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpToPropertyKey), line)
		return nil
	}
	switch k := key.(type) {
	case *ast.Identifier:
		c.emit(bytecode.MakeInstruction(bytecode.OpLoadConst, 0, uint16(c.internString(k.Name))), line)
	case *ast.StringLiteral:
		c.emit(bytecode.MakeInstruction(bytecode.OpLoadConst, 0, uint16(c.internString(k.Value))), line)
	case *ast.NumberLiteral:
		c.emitNumber(k.Value, line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpToPropertyKey), line)
	default:
		return c.errorf(key, "compiler: invalid property key %T", key)
	}
	return nil
}

func (c *Compiler) compileUnary(e *ast.UnaryExpression) error {
	line := lineOf(e)
	switch e.Op {
	case "typeof":
		if id, ok := e.Arg.(*ast.Identifier); ok {
			if _, declared := c.lookupDeclared(id.Name); !declared {
				// typeof on a possibly-undeclared name must not throw;
				// A=1 requests the tolerant lookup.
				c.emit(bytecode.MakeInstruction(bytecode.OpGetBindingByName, 1, uint16(c.internString(id.Name))), line)
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpTypeof), line)
				return nil
			}
		}
		if err := c.compileExpression(e.Arg); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpTypeof), line)
		return nil

	case "void":
		if err := c.compileExpression(e.Arg); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
		return nil

	case "delete":
		if m, ok := e.Arg.(*ast.MemberExpression); ok {
			if err := c.compileExpression(m.Object); err != nil {
				return err
			}
			if m.Computed {
				if err := c.compileExpression(m.Property); err != nil {
					return err
				}
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDeletePropertyComputed), line)
				return nil
			}
			name := m.Property.(*ast.Identifier).Name
			ref := c.module.AddPropertyRef(c.internString(name))
			c.emit(bytecode.MakeInstruction(bytecode.OpDeleteProperty, 0, uint16(ref)), line)
			return nil
		}
		// `delete identifier` on a declared binding is false in
		// practice; evaluate nothing and report failure.
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadFalse), line)
		return nil
	}

	if err := c.compileExpression(e.Arg); err != nil {
		return err
	}
	switch e.Op {
	case "-":
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpNegate), line)
	case "+":
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpToNumber), line)
	case "!":
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpNot), line)
	case "~":
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpBitNot), line)
	default:
		return c.errorf(e, "compiler: unsupported unary operator %q", e.Op)
	}
	return nil
}

// compileUpdate lowers ++/-- as read, coerce, adjust, write. Postfix
// recovers the old value by applying the inverse operation to the
// written result, which is exact after the ToNumber coercion.
func (c *Compiler) compileUpdate(e *ast.UpdateExpression) error {
	line := lineOf(e)
	adjust := bytecode.OpIncrement
	inverse := bytecode.OpDecrement
	if e.Op == "--" {
		adjust, inverse = bytecode.OpDecrement, bytecode.OpIncrement
	}

	switch target := e.Arg.(type) {
	case *ast.Identifier:
		c.emitBindingGet(target.Name, line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpToNumber), line)
		c.emit(bytecode.MakeSimpleInstruction(adjust), line)
		c.emitBindingSet(target.Name, line)
	case *ast.MemberExpression:
		if err := c.compileExpression(target.Object); err != nil {
			return err
		}
		if target.Computed {
			if err := c.compileExpression(target.Property); err != nil {
				return err
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup2), line)
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpGetPropertyComputed), line)
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpToNumber), line)
			c.emit(bytecode.MakeSimpleInstruction(adjust), line)
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpSetPropertyComputed), line)
		} else {
			name := target.Property.(*ast.Identifier).Name
			ref := c.module.AddPropertyRef(c.internString(name))
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup), line)
			c.emit(bytecode.MakeInstruction(bytecode.OpGetProperty, 0, uint16(ref)), line)
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpToNumber), line)
			c.emit(bytecode.MakeSimpleInstruction(adjust), line)
			c.emit(bytecode.MakeInstruction(bytecode.OpSetProperty, 0, uint16(ref)), line)
		}
	default:
		return c.errorf(e, "compiler: invalid update target %T", e.Arg)
	}

	if !e.Prefix {
		c.emit(bytecode.MakeSimpleInstruction(inverse), line)
	}
	return nil
}

var binaryOps = map[string]bytecode.OpCode{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul,
	"/": bytecode.OpDiv, "%": bytecode.OpMod, "**": bytecode.OpPow,
	"&": bytecode.OpBitAnd, "|": bytecode.OpBitOr, "^": bytecode.OpBitXor,
	"<<": bytecode.OpShl, ">>": bytecode.OpShr, ">>>": bytecode.OpUShr,
	"==": bytecode.OpEqual, "!=": bytecode.OpNotEqual,
	"===": bytecode.OpStrictEqual, "!==": bytecode.OpStrictNotEqual,
	"<": bytecode.OpLess, "<=": bytecode.OpLessEqual,
	">": bytecode.OpGreater, ">=": bytecode.OpGreaterEqual,
	"instanceof": bytecode.OpInstanceOf, "in": bytecode.OpIn,
}

func (c *Compiler) compileBinary(e *ast.BinaryExpression) error {
	line := lineOf(e)
	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	if e.Op == "+" {
		// A statically known string operand makes `+` pure
		// concatenation; fold to the dedicated opcode.
		if isStringOperand(e.Left) || isStringOperand(e.Right) {
			c.emit(bytecode.MakeInstruction(bytecode.OpStringConcat, 2, 0), line)
			return nil
		}
	}
	op, ok := binaryOps[e.Op]
	if !ok {
		return c.errorf(e, "compiler: unsupported binary operator %q", e.Op)
	}
	c.emit(bytecode.MakeSimpleInstruction(op), line)
	return nil
}

func isStringOperand(e ast.Expression) bool {
	_, ok := e.(*ast.StringLiteral)
	return ok
}

func (c *Compiler) compileLogical(e *ast.LogicalExpression) error {
	line := lineOf(e)
	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	switch e.Op {
	case "&&":
		endJump := c.emitJump(bytecode.OpJumpIfFalseNoPop, line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.patchJump(endJump)
	case "||":
		endJump := c.emitJump(bytecode.OpJumpIfTrueNoPop, line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.patchJump(endJump)
	case "??":
		nullishJump := c.emitJump(bytecode.OpJumpIfNullish, line)
		endJump := c.emitJump(bytecode.OpJump, line)
		c.patchJump(nullishJump)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.patchJump(endJump)
	default:
		return c.errorf(e, "compiler: unsupported logical operator %q", e.Op)
	}
	return nil
}

// emitBindingSet writes the value on top of the stack to name, leaving
// the value in place (assignment is an expression).
func (c *Compiler) emitBindingSet(name string, line int) {
	idx := c.resolveDeclared(name)
	c.emit(bytecode.MakeInstruction(bytecode.OpSetBinding, 0, uint16(idx)), line)
}

func (c *Compiler) compileAssignment(e *ast.AssignmentExpression) error {
	line := lineOf(e)

	// Destructuring assignment: `[a, b] = v`, `({x} = v)`.
	if e.Op == "=" {
		if pat := literalToPattern(e.Left); pat != nil {
			if err := c.compileExpression(e.Right); err != nil {
				return err
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup), line)
			return c.compileDestructureAssign(pat, line)
		}
	}

	switch target := e.Left.(type) {
	case *ast.Identifier:
		switch e.Op {
		case "=":
			if err := c.compileExpression(e.Right); err != nil {
				return err
			}
		case "&&=", "||=", "??=":
			return c.compileLogicalAssign(target, e, line)
		default:
			c.emitBindingGet(target.Name, line)
			if err := c.compileExpression(e.Right); err != nil {
				return err
			}
			c.emit(bytecode.MakeSimpleInstruction(binaryOps[compoundOp(e.Op)]), line)
		}
		c.emitBindingSet(target.Name, line)
		return nil

	case *ast.MemberExpression:
		if e.Op != "=" {
			if _, known := binaryOps[compoundOp(e.Op)]; !known {
				return c.errorf(e, "compiler: unsupported compound assignment %q on property target", e.Op)
			}
		}
		if err := c.compileExpression(target.Object); err != nil {
			return err
		}
		if target.Computed {
			if err := c.compileExpression(target.Property); err != nil {
				return err
			}
			if e.Op != "=" {
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup2), line)
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpGetPropertyComputed), line)
				if err := c.compileExpression(e.Right); err != nil {
					return err
				}
				c.emit(bytecode.MakeSimpleInstruction(binaryOps[compoundOp(e.Op)]), line)
			} else if err := c.compileExpression(e.Right); err != nil {
				return err
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpSetPropertyComputed), line)
			return nil
		}
		if priv, ok := target.Property.(*ast.PrivateName); ok {
			if err := c.compileExpression(e.Right); err != nil {
				return err
			}
			c.emit(bytecode.MakeInstruction(bytecode.OpSetPrivateField, 0, uint16(c.internString(priv.Name))), line)
			return nil
		}
		name := target.Property.(*ast.Identifier).Name
		ref := c.module.AddPropertyRef(c.internString(name))
		if e.Op != "=" {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup), line)
			c.emit(bytecode.MakeInstruction(bytecode.OpGetProperty, 0, uint16(ref)), line)
			if err := c.compileExpression(e.Right); err != nil {
				return err
			}
			c.emit(bytecode.MakeSimpleInstruction(binaryOps[compoundOp(e.Op)]), line)
		} else if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.emit(bytecode.MakeInstruction(bytecode.OpSetProperty, 0, uint16(ref)), line)
		return nil

	default:
		return c.errorf(e, "compiler: invalid assignment target %T", e.Left)
	}
}

// compileLogicalAssign lowers `x &&= v` and friends: the write only
// happens when the short-circuit test passes, and the expression's
// value is the untouched left value otherwise.
func (c *Compiler) compileLogicalAssign(target *ast.Identifier, e *ast.AssignmentExpression, line int) error {
	c.emitBindingGet(target.Name, line)
	var skipJump int
	switch e.Op {
	case "&&=":
		skipJump = c.emitJump(bytecode.OpJumpIfFalseNoPop, line)
	case "||=":
		skipJump = c.emitJump(bytecode.OpJumpIfTrueNoPop, line)
	case "??=":
		nullish := c.emitJump(bytecode.OpJumpIfNullish, line)
		skipJump = c.emitJump(bytecode.OpJump, line)
		c.patchJump(nullish)
	}
	c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	c.emitBindingSet(target.Name, line)
	c.patchJump(skipJump)
	return nil
}

func compoundOp(op string) string { return op[:len(op)-1] }

// literalToPattern reinterprets an array/object literal parsed in
// assignment position as a destructuring pattern, or returns nil when
// the expression is a plain target.
func literalToPattern(n ast.Node) ast.Pattern {
	switch lit := n.(type) {
	case *ast.ArrayLiteral:
		pat := &ast.ArrayPattern{Token: lit.Token}
		for _, el := range lit.Elements {
			if el == nil {
				pat.Elements = append(pat.Elements, nil)
				continue
			}
			if sp, ok := el.(*ast.SpreadElement); ok {
				pat.Elements = append(pat.Elements, &ast.RestElement{Token: sp.Token, Arg: exprAsPattern(sp.Arg)})
				continue
			}
			pat.Elements = append(pat.Elements, exprAsPattern(el))
		}
		return pat
	case *ast.ObjectLiteral:
		pat := &ast.ObjectPattern{Token: lit.Token}
		for _, prop := range lit.Props {
			if prop.Kind == "spread" {
				pat.Rest = exprAsPattern(prop.Value)
				continue
			}
			pat.Props = append(pat.Props, ast.ObjectPatternProp{
				Key: prop.Key, Value: exprAsPattern(prop.Value), Computed: prop.Computed, Shorthand: prop.Shorthand,
			})
		}
		return pat
	}
	return nil
}

func exprAsPattern(e ast.Expression) ast.Pattern {
	switch t := e.(type) {
	case *ast.Identifier:
		return t
	case *ast.AssignmentExpression:
		if t.Op == "=" {
			if inner, ok := t.Left.(ast.Expression); ok {
				return &ast.AssignPattern{Token: t.Token, Target: exprAsPattern(inner), Default: t.Right}
			}
		}
	case *ast.ArrayLiteral, *ast.ObjectLiteral:
		return literalToPattern(t)
	}
	return &ast.ExpressionPattern{Expr: e}
}

// compileDestructureAssign consumes the value on top of the stack and
// assigns each bound position through existing bindings/properties
// (the assignment form of compileBindingInit).
func (c *Compiler) compileDestructureAssign(p ast.Pattern, line int) error {
	switch pat := p.(type) {
	case *ast.Identifier:
		c.emitBindingSet(pat.Name, line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		return nil
	case *ast.ExpressionPattern:
		if err := c.compileAssignmentTarget(pat.Expr, line); err != nil {
			return err
		}
		return nil
	case *ast.AssignPattern:
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup), line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpStrictEqual), line)
		elseJump := c.emitJump(bytecode.OpJumpIfFalse, line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		if err := c.compileExpression(pat.Default); err != nil {
			return err
		}
		c.patchJump(elseJump)
		return c.compileDestructureAssign(pat.Target, line)
	case *ast.ArrayPattern:
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpGetIterator), line)
		for _, el := range pat.Elements {
			if rest, ok := el.(*ast.RestElement); ok {
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpRestElements), line)
				if err := c.compileDestructureAssign(rest.Arg, line); err != nil {
					return err
				}
				continue
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpArrayDestructureElement), line)
			if el == nil {
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
				continue
			}
			if err := c.compileDestructureAssign(el, line); err != nil {
				return err
			}
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpIteratorClose), line)
		return nil
	case *ast.ObjectPattern:
		for _, prop := range pat.Props {
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup), line)
			if err := c.emitPropertyGet(prop.Key, prop.Computed, line); err != nil {
				return err
			}
			if err := c.compileDestructureAssign(prop.Value, line); err != nil {
				return err
			}
		}
		if pat.Rest != nil {
			c.emitRestObject(pat, line)
			return c.compileDestructureAssign(pat.Rest, line)
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		return nil
	}
	return c.errorf(p, "compiler: invalid destructuring assignment target %T", p)
}

// emitPropertyGet consumes the object on top of the stack and pushes
// the property's value.
func (c *Compiler) emitPropertyGet(key ast.Expression, computed bool, line int) error {
	if computed {
		if err := c.compileExpression(key); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpGetPropertyComputed), line)
		return nil
	}
	switch k := key.(type) {
	case *ast.Identifier:
		ref := c.module.AddPropertyRef(c.internString(k.Name))
		c.emit(bytecode.MakeInstruction(bytecode.OpGetProperty, 0, uint16(ref)), line)
	case *ast.StringLiteral:
		ref := c.module.AddPropertyRef(c.internString(k.Value))
		c.emit(bytecode.MakeInstruction(bytecode.OpGetProperty, 0, uint16(ref)), line)
	case *ast.NumberLiteral:
		c.emitNumber(k.Value, line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpGetPropertyComputed), line)
	case *ast.PrivateName:
		c.emit(bytecode.MakeInstruction(bytecode.OpGetPrivateField, 0, uint16(c.internString(k.Name))), line)
	default:
		return c.errorf(key, "compiler: invalid property key %T", key)
	}
	return nil
}

// emitPropertySet consumes [object, value] from the stack, writes the
// property, and pushes the assigned value back.
func (c *Compiler) emitPropertySet(key ast.Expression, computed bool, line int) error {
	if computed {
		// Value is on top; the key expression must sit between object
		// and value: [obj, value] -> [obj, key, value].
		if err := c.compileExpression(key); err != nil {
			return err
		}
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpSwap), line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpSetPropertyComputed), line)
		return nil
	}
	switch k := key.(type) {
	case *ast.Identifier:
		ref := c.module.AddPropertyRef(c.internString(k.Name))
		c.emit(bytecode.MakeInstruction(bytecode.OpSetProperty, 0, uint16(ref)), line)
	case *ast.StringLiteral:
		ref := c.module.AddPropertyRef(c.internString(k.Value))
		c.emit(bytecode.MakeInstruction(bytecode.OpSetProperty, 0, uint16(ref)), line)
	case *ast.PrivateName:
		c.emit(bytecode.MakeInstruction(bytecode.OpSetPrivateField, 0, uint16(c.internString(k.Name))), line)
	default:
		return c.errorf(key, "compiler: invalid property key %T", key)
	}
	return nil
}

func (c *Compiler) compileMemberGet(e *ast.MemberExpression) error {
	line := lineOf(e)

	if _, isSuper := e.Object.(*ast.SuperExpression); isSuper {
		name, ok := e.Property.(*ast.Identifier)
		if !ok || e.Computed {
			return c.errorf(e, "compiler: unsupported super property form")
		}
		ref := c.module.AddPropertyRef(c.internString(name.Name))
		c.emit(bytecode.MakeInstruction(bytecode.OpGetSuperProperty, 0, uint16(ref)), line)
		return nil
	}

	if err := c.compileExpression(e.Object); err != nil {
		return err
	}
	var nullishJump int
	if e.Optional {
		nullishJump = c.emitJump(bytecode.OpJumpIfNullish, line)
	}
	if err := c.emitPropertyGet(e.Property, e.Computed, line); err != nil {
		return err
	}
	if e.Optional {
		endJump := c.emitJump(bytecode.OpJump, line)
		c.patchJump(nullishJump)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
		c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
		c.patchJump(endJump)
	}
	return nil
}

// compileArgs compiles a call's arguments, returning the count and
// whether any were spread elements (spread arguments are wrapped into
// spread markers the VM flattens).
func (c *Compiler) compileArgs(args []ast.Expression, line int) (int, bool, error) {
	hasSpread := false
	for _, a := range args {
		if sp, ok := a.(*ast.SpreadElement); ok {
			hasSpread = true
			if err := c.compileExpression(sp.Arg); err != nil {
				return 0, false, err
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpSpread), line)
			continue
		}
		if err := c.compileExpression(a); err != nil {
			return 0, false, err
		}
	}
	return len(args), hasSpread, nil
}

func (c *Compiler) compileCall(e *ast.CallExpression) error {
	line := lineOf(e)

	// super(...) delegates construction to the parent class.
	if _, isSuper := e.Callee.(*ast.SuperExpression); isSuper {
		argc, _, err := c.compileArgs(e.Args, line)
		if err != nil {
			return err
		}
		c.emit(bytecode.MakeInstruction(bytecode.OpSuperCall, byte(argc), 0), line)
		return nil
	}

	// super.method(...) resolves through the home object but runs with
	// the current `this`.
	if m, ok := e.Callee.(*ast.MemberExpression); ok {
		if _, isSuper := m.Object.(*ast.SuperExpression); isSuper {
			if err := c.compileMemberGet(m); err != nil {
				return err
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadThis), line)
			argc, _, err := c.compileArgs(e.Args, line)
			if err != nil {
				return err
			}
			c.emit(bytecode.MakeInstruction(bytecode.OpCallMethod, byte(argc), 0), line)
			return nil
		}
	}

	// Method call: keep the receiver for `this`.
	if m, ok := e.Callee.(*ast.MemberExpression); ok {
		if _, isSuper := m.Object.(*ast.SuperExpression); !isSuper {
			if err := c.compileExpression(m.Object); err != nil {
				return err
			}
			var nullishJump = -1
			if m.Optional || e.Optional {
				nullishJump = c.emitJump(bytecode.OpJumpIfNullish, line)
			}
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpDup), line)
			if err := c.emitPropertyGet(m.Property, m.Computed, line); err != nil {
				return err
			}
			// [this, fn] -> [fn, this]
			c.emit(bytecode.MakeSimpleInstruction(bytecode.OpSwap), line)
			argc, spread, err := c.compileArgs(e.Args, line)
			if err != nil {
				return err
			}
			op := bytecode.OpCallMethod
			if spread {
				op = bytecode.OpCallSpread // spread form carries this; VM distinguishes by marker
			}
			c.emit(bytecode.MakeInstruction(op, byte(argc), 1), line)
			if nullishJump >= 0 {
				endJump := c.emitJump(bytecode.OpJump, line)
				c.patchJump(nullishJump)
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpPop), line)
				c.emit(bytecode.MakeSimpleInstruction(bytecode.OpLoadUndefined), line)
				c.patchJump(endJump)
			}
			return nil
		}
	}

	if err := c.compileExpression(e.Callee); err != nil {
		return err
	}
	argc, spread, err := c.compileArgs(e.Args, line)
	if err != nil {
		return err
	}
	if spread {
		c.emit(bytecode.MakeInstruction(bytecode.OpCallSpread, byte(argc), 0), line)
	} else {
		c.emit(bytecode.MakeInstruction(bytecode.OpCall, byte(argc), 0), line)
	}
	return nil
}

func (c *Compiler) compileNew(e *ast.NewExpression) error {
	line := lineOf(e)
	if err := c.compileExpression(e.Callee); err != nil {
		return err
	}
	argc, spread, err := c.compileArgs(e.Args, line)
	if err != nil {
		return err
	}
	if spread {
		c.emit(bytecode.MakeInstruction(bytecode.OpConstructSpread, byte(argc), 0), line)
	} else {
		c.emit(bytecode.MakeInstruction(bytecode.OpConstruct, byte(argc), 0), line)
	}
	return nil
}
