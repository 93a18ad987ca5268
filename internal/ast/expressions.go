package ast

import "github.com/nyxlang/nyx/internal/token"

// ArrayLiteral is `[a, , ...b]`. A nil element represents a hole.
type ArrayLiteral struct {
	Token    token.Token
	Elements []Expression
}

func (a *ArrayLiteral) Pos() token.Position { return a.Token.Pos }
func (*ArrayLiteral) expressionNode()       {}

// ObjectProperty is one entry of an ObjectLiteral.
type ObjectProperty struct {
	Key       Expression
	Value     Expression
	Computed  bool
	Shorthand bool
	Kind      string // "init", "get", "set", "spread", "method"
}

// ObjectLiteral is `{ a: 1, [k]: v, ...rest }`.
type ObjectLiteral struct {
	Token token.Token
	Props []ObjectProperty
}

func (o *ObjectLiteral) Pos() token.Position { return o.Token.Pos }
func (*ObjectLiteral) expressionNode()       {}

// SpreadElement is `...expr` inside an array/object literal or a call.
type SpreadElement struct {
	Token token.Token
	Arg   Expression
}

func (s *SpreadElement) Pos() token.Position { return s.Token.Pos }
func (*SpreadElement) expressionNode()       {}

// UnaryExpression is a prefix unary operator: `-x`, `!x`, `typeof x`,
// `void x`, `delete x`, `~x`.
type UnaryExpression struct {
	Token token.Token
	Op    string
	Arg   Expression
}

func (u *UnaryExpression) Pos() token.Position { return u.Token.Pos }
func (*UnaryExpression) expressionNode()       {}

// UpdateExpression is `++x`, `x++`, `--x`, `x--`.
type UpdateExpression struct {
	Token  token.Token
	Op     string
	Arg    Expression
	Prefix bool
}

func (u *UpdateExpression) Pos() token.Position { return u.Token.Pos }
func (*UpdateExpression) expressionNode()       {}

// BinaryExpression is an arithmetic/comparison/bitwise binary operator.
type BinaryExpression struct {
	Token       token.Token
	Op          string
	Left, Right Expression
}

func (b *BinaryExpression) Pos() token.Position { return b.Token.Pos }
func (*BinaryExpression) expressionNode()       {}

// LogicalExpression is `&&`, `||`, `??` (short-circuiting).
type LogicalExpression struct {
	Token       token.Token
	Op          string
	Left, Right Expression
}

func (l *LogicalExpression) Pos() token.Position { return l.Token.Pos }
func (*LogicalExpression) expressionNode()       {}

// AssignmentExpression is `x = v`, `x += v`, etc. Left may be an
// Identifier, a MemberExpression, or (for `=`) a destructuring Pattern.
type AssignmentExpression struct {
	Token token.Token
	Op    string
	Left  Node // Expression or Pattern
	Right Expression
}

func (a *AssignmentExpression) Pos() token.Position { return a.Token.Pos }
func (*AssignmentExpression) expressionNode()       {}

// ConditionalExpression is `test ? cons : alt`.
type ConditionalExpression struct {
	Token           token.Token
	Test, Cons, Alt Expression
}

func (c *ConditionalExpression) Pos() token.Position { return c.Token.Pos }
func (*ConditionalExpression) expressionNode()       {}

// CallExpression is `callee(args)`.
type CallExpression struct {
	Token    token.Token
	Callee   Expression
	Args     []Expression
	Optional bool
}

func (c *CallExpression) Pos() token.Position { return c.Token.Pos }
func (*CallExpression) expressionNode()       {}

// NewExpression is `new callee(args)`.
type NewExpression struct {
	Token  token.Token
	Callee Expression
	Args   []Expression
}

func (n *NewExpression) Pos() token.Position { return n.Token.Pos }
func (*NewExpression) expressionNode()       {}

// MemberExpression is `obj.prop` or `obj[prop]`, optionally optional
// chained (`obj?.prop`).
type MemberExpression struct {
	Token    token.Token
	Object   Expression
	Property Expression
	Computed bool
	Optional bool
}

func (m *MemberExpression) Pos() token.Position { return m.Token.Pos }
func (*MemberExpression) expressionNode()       {}

// SequenceExpression is `a, b, c`.
type SequenceExpression struct {
	Token token.Token
	Exprs []Expression
}

func (s *SequenceExpression) Pos() token.Position { return s.Token.Pos }
func (*SequenceExpression) expressionNode()       {}

// YieldExpression is `yield expr` or `yield* expr`.
type YieldExpression struct {
	Token    token.Token
	Arg      Expression // nil for bare `yield`
	Delegate bool
}

func (y *YieldExpression) Pos() token.Position { return y.Token.Pos }
func (*YieldExpression) expressionNode()       {}

// AwaitExpression is `await expr`.
type AwaitExpression struct {
	Token token.Token
	Arg   Expression
}

func (a *AwaitExpression) Pos() token.Position { return a.Token.Pos }
func (*AwaitExpression) expressionNode()       {}
