package compiler

import (
	"math"

	"github.com/nyxlang/nyx/internal/ast"
)

// Fold performs constant folding over the AST before lowering: literal
// arithmetic, literal string concatenation, boolean short-circuits
// with a known left side, and conditionals with a known test. Folding
// ahead of emission keeps every bytecode offset stable, so the
// try-region and line tables never need remapping.
func Fold(program *ast.Program) {
	for i, stmt := range program.Body {
		program.Body[i] = foldStatement(stmt)
	}
}

func foldStatement(stmt ast.Statement) ast.Statement {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		s.Expr = foldExpression(s.Expr)
	case *ast.VarDeclStatement:
		for i := range s.Decls {
			if s.Decls[i].Init != nil {
				s.Decls[i].Init = foldExpression(s.Decls[i].Init)
			}
		}
	case *ast.BlockStatement:
		for i, inner := range s.Body {
			s.Body[i] = foldStatement(inner)
		}
	case *ast.IfStatement:
		s.Test = foldExpression(s.Test)
		s.Cons = foldStatement(s.Cons)
		if s.Alt != nil {
			s.Alt = foldStatement(s.Alt)
		}
	case *ast.WhileStatement:
		s.Test = foldExpression(s.Test)
		s.Body = foldStatement(s.Body)
	case *ast.DoWhileStatement:
		s.Test = foldExpression(s.Test)
		s.Body = foldStatement(s.Body)
	case *ast.ForStatement:
		if s.Test != nil {
			s.Test = foldExpression(s.Test)
		}
		if s.Update != nil {
			s.Update = foldExpression(s.Update)
		}
		s.Body = foldStatement(s.Body)
	case *ast.ForInOfStatement:
		s.Right = foldExpression(s.Right)
		s.Body = foldStatement(s.Body)
	case *ast.ReturnStatement:
		if s.Arg != nil {
			s.Arg = foldExpression(s.Arg)
		}
	case *ast.ThrowStatement:
		s.Arg = foldExpression(s.Arg)
	case *ast.LabeledStatement:
		s.Body = foldStatement(s.Body)
	}
	return stmt
}

func foldExpression(expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case *ast.BinaryExpression:
		e.Left = foldExpression(e.Left)
		e.Right = foldExpression(e.Right)
		return foldBinary(e)
	case *ast.UnaryExpression:
		e.Arg = foldExpression(e.Arg)
		return foldUnary(e)
	case *ast.LogicalExpression:
		e.Left = foldExpression(e.Left)
		e.Right = foldExpression(e.Right)
		return foldLogical(e)
	case *ast.ConditionalExpression:
		e.Test = foldExpression(e.Test)
		e.Cons = foldExpression(e.Cons)
		e.Alt = foldExpression(e.Alt)
		if b, known := literalTruthiness(e.Test); known {
			if b {
				return e.Cons
			}
			return e.Alt
		}
		return e
	}
	return expr
}

func foldBinary(e *ast.BinaryExpression) ast.Expression {
	if ls, ok := e.Left.(*ast.StringLiteral); ok && e.Op == "+" {
		if rs, ok := e.Right.(*ast.StringLiteral); ok {
			return &ast.StringLiteral{Token: ls.Token, Value: ls.Value + rs.Value}
		}
	}

	ln, lok := e.Left.(*ast.NumberLiteral)
	rn, rok := e.Right.(*ast.NumberLiteral)
	if !lok || !rok {
		return e
	}
	l, r := ln.Value, rn.Value
	switch e.Op {
	case "+":
		return &ast.NumberLiteral{Token: ln.Token, Value: l + r}
	case "-":
		return &ast.NumberLiteral{Token: ln.Token, Value: l - r}
	case "*":
		return &ast.NumberLiteral{Token: ln.Token, Value: l * r}
	case "/":
		return &ast.NumberLiteral{Token: ln.Token, Value: l / r}
	case "%":
		return &ast.NumberLiteral{Token: ln.Token, Value: math.Mod(l, r)}
	case "**":
		return &ast.NumberLiteral{Token: ln.Token, Value: math.Pow(l, r)}
	case "<":
		return &ast.BooleanLiteral{Token: ln.Token, Value: l < r}
	case "<=":
		return &ast.BooleanLiteral{Token: ln.Token, Value: l <= r}
	case ">":
		return &ast.BooleanLiteral{Token: ln.Token, Value: l > r}
	case ">=":
		return &ast.BooleanLiteral{Token: ln.Token, Value: l >= r}
	case "===", "==":
		return &ast.BooleanLiteral{Token: ln.Token, Value: l == r}
	case "!==", "!=":
		return &ast.BooleanLiteral{Token: ln.Token, Value: l != r}
	}
	return e
}

func foldUnary(e *ast.UnaryExpression) ast.Expression {
	if n, ok := e.Arg.(*ast.NumberLiteral); ok {
		switch e.Op {
		case "-":
			return &ast.NumberLiteral{Token: n.Token, Value: -n.Value}
		case "+":
			return n
		}
	}
	if b, ok := e.Arg.(*ast.BooleanLiteral); ok && e.Op == "!" {
		return &ast.BooleanLiteral{Token: b.Token, Value: !b.Value}
	}
	return e
}

func foldLogical(e *ast.LogicalExpression) ast.Expression {
	b, known := literalTruthiness(e.Left)
	if !known {
		return e
	}
	switch e.Op {
	case "&&":
		if b {
			return e.Right
		}
		return e.Left
	case "||":
		if b {
			return e.Left
		}
		return e.Right
	case "??":
		if _, isNull := e.Left.(*ast.NullLiteral); isNull {
			return e.Right
		}
		if _, isUndef := e.Left.(*ast.UndefinedLiteral); isUndef {
			return e.Right
		}
		return e.Left
	}
	return e
}

// literalTruthiness reports a literal's boolean coercion, or
// known=false for anything non-literal.
func literalTruthiness(e ast.Expression) (value, known bool) {
	switch lit := e.(type) {
	case *ast.BooleanLiteral:
		return lit.Value, true
	case *ast.NumberLiteral:
		return lit.Value != 0 && !math.IsNaN(lit.Value), true
	case *ast.StringLiteral:
		return lit.Value != "", true
	case *ast.NullLiteral, *ast.UndefinedLiteral:
		return false, true
	}
	return false, false
}
