// Package ast defines the Abstract Syntax Tree node types the nyx
// compiler lowers into bytecode. The token grammar that produces these
// nodes is a well-known language standard and is out of this engine's
// core scope (spec.md §1); this package only needs to describe the
// finished tree shape the compiler consumes.
package ast

import "github.com/nyxlang/nyx/internal/token"

// Node is the base interface implemented by every AST node.
type Node interface {
	Pos() token.Position
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action.
type Statement interface {
	Node
	statementNode()
}

// Pattern is the left-hand side of a binding: an identifier or a
// destructuring shape.
type Pattern interface {
	Node
	patternNode()
}

// Program is the root of a parsed script or module body.
type Program struct {
	Body   []Statement
	Module bool
}

func (p *Program) Pos() token.Position {
	if len(p.Body) > 0 {
		return p.Body[0].Pos()
	}
	return token.Position{Line: 1, Column: 1}
}

// Identifier names a binding. It is both an Expression and a Pattern.
type Identifier struct {
	Token token.Token
	Name  string
}

func (i *Identifier) Pos() token.Position { return i.Token.Pos }
func (*Identifier) expressionNode()       {}
func (*Identifier) patternNode()          {}

// ExpressionPattern wraps an already-parsed assignment target (e.g. a
// MemberExpression in `for (obj.x of xs)`) so it can flow through a
// Pattern-typed AST field; the compiler type-switches on Expr.
type ExpressionPattern struct{ Expr Expression }

func (e *ExpressionPattern) Pos() token.Position { return e.Expr.Pos() }
func (*ExpressionPattern) patternNode()          {}

// PrivateName is a `#name` private field/method reference.
type PrivateName struct {
	Token token.Token
	Name  string
}

func (p *PrivateName) Pos() token.Position { return p.Token.Pos }
func (*PrivateName) expressionNode()       {}

// NumberLiteral is a numeric literal (IEEE-754 double).
type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (n *NumberLiteral) Pos() token.Position { return n.Token.Pos }
func (*NumberLiteral) expressionNode()       {}

// StringLiteral is a string literal.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (s *StringLiteral) Pos() token.Position { return s.Token.Pos }
func (*StringLiteral) expressionNode()       {}

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) Pos() token.Position { return b.Token.Pos }
func (*BooleanLiteral) expressionNode()       {}

// NullLiteral is the `null` literal.
type NullLiteral struct{ Token token.Token }

func (n *NullLiteral) Pos() token.Position { return n.Token.Pos }
func (*NullLiteral) expressionNode()       {}

// UndefinedLiteral is the `undefined` value, parsed as a literal rather
// than a mutable global binding lookup.
type UndefinedLiteral struct{ Token token.Token }

func (u *UndefinedLiteral) Pos() token.Position { return u.Token.Pos }
func (*UndefinedLiteral) expressionNode()       {}

// ThisExpression is the `this` keyword.
type ThisExpression struct{ Token token.Token }

func (t *ThisExpression) Pos() token.Position { return t.Token.Pos }
func (*ThisExpression) expressionNode()       {}

// SuperExpression is the `super` keyword used in member/call position.
type SuperExpression struct{ Token token.Token }

func (s *SuperExpression) Pos() token.Position { return s.Token.Pos }
func (*SuperExpression) expressionNode()       {}
