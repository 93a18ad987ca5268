package ast

import "github.com/nyxlang/nyx/internal/token"

// ExpressionStatement wraps an expression evaluated for effect.
type ExpressionStatement struct {
	Token token.Token
	Expr  Expression
}

func (e *ExpressionStatement) Pos() token.Position { return e.Token.Pos }
func (*ExpressionStatement) statementNode()        {}

// EmptyStatement is a bare `;`.
type EmptyStatement struct{ Token token.Token }

func (e *EmptyStatement) Pos() token.Position { return e.Token.Pos }
func (*EmptyStatement) statementNode()        {}

// BlockStatement is `{ ... }`, a lexical scope boundary (spec.md §4.5
// scope-push/scope-pop).
type BlockStatement struct {
	Token token.Token
	Body  []Statement
}

func (b *BlockStatement) Pos() token.Position { return b.Token.Pos }
func (*BlockStatement) statementNode()        {}

// VarDeclarator binds one pattern to an optional initializer.
type VarDeclarator struct {
	ID   Pattern
	Init Expression // nil if uninitialized
}

// VarDeclStatement is `var`/`let`/`const` declaration list.
type VarDeclStatement struct {
	Token token.Token
	Kind  string // "var", "let", "const"
	Decls []VarDeclarator
}

func (v *VarDeclStatement) Pos() token.Position { return v.Token.Pos }
func (*VarDeclStatement) statementNode()        {}

// IfStatement is `if (test) cons else alt`.
type IfStatement struct {
	Token token.Token
	Test  Expression
	Cons  Statement
	Alt   Statement // nil if no else
}

func (i *IfStatement) Pos() token.Position { return i.Token.Pos }
func (*IfStatement) statementNode()        {}

// ForStatement is the classic three-clause `for`.
type ForStatement struct {
	Token  token.Token
	Init   Node // *VarDeclStatement, Expression, or nil
	Test   Expression
	Update Expression
	Body   Statement
}

func (f *ForStatement) Pos() token.Position { return f.Token.Pos }
func (*ForStatement) statementNode()        {}

// ForInOfStatement is `for (left in/of right) body`.
type ForInOfStatement struct {
	Token token.Token
	Decl  string // "var"/"let"/"const", or "" if Left is a plain pattern
	Left  Pattern
	Right Expression
	Body  Statement
	Of    bool // true for for-of, false for for-in
	Await bool // true for for-await-of
}

func (f *ForInOfStatement) Pos() token.Position { return f.Token.Pos }
func (*ForInOfStatement) statementNode()        {}

// WhileStatement is `while (test) body`.
type WhileStatement struct {
	Token token.Token
	Test  Expression
	Body  Statement
}

func (w *WhileStatement) Pos() token.Position { return w.Token.Pos }
func (*WhileStatement) statementNode()        {}

// DoWhileStatement is `do body while (test);`.
type DoWhileStatement struct {
	Token token.Token
	Body  Statement
	Test  Expression
}

func (d *DoWhileStatement) Pos() token.Position { return d.Token.Pos }
func (*DoWhileStatement) statementNode()        {}

// ReturnStatement is `return expr;`.
type ReturnStatement struct {
	Token token.Token
	Arg   Expression // nil for bare `return`
}

func (r *ReturnStatement) Pos() token.Position { return r.Token.Pos }
func (*ReturnStatement) statementNode()        {}

// BreakStatement is `break;` or `break label;`.
type BreakStatement struct {
	Token token.Token
	Label string
}

func (b *BreakStatement) Pos() token.Position { return b.Token.Pos }
func (*BreakStatement) statementNode()        {}

// ContinueStatement is `continue;` or `continue label;`.
type ContinueStatement struct {
	Token token.Token
	Label string
}

func (c *ContinueStatement) Pos() token.Position { return c.Token.Pos }
func (*ContinueStatement) statementNode()        {}

// ThrowStatement is `throw expr;`.
type ThrowStatement struct {
	Token token.Token
	Arg   Expression
}

func (t *ThrowStatement) Pos() token.Position { return t.Token.Pos }
func (*ThrowStatement) statementNode()        {}

// TryStatement is `try block catch (param) handler finally finalizer`.
type TryStatement struct {
	Token     token.Token
	Block     *BlockStatement
	Param     Pattern // nil if catch has no binding, absent if no catch
	HasCatch  bool
	Handler   *BlockStatement
	Finalizer *BlockStatement // nil if no finally
}

func (t *TryStatement) Pos() token.Position { return t.Token.Pos }
func (*TryStatement) statementNode()        {}

// SwitchCase is one `case expr:`/`default:` arm.
type SwitchCase struct {
	Test Expression // nil for `default`
	Body []Statement
}

// SwitchStatement is `switch (disc) { cases }`.
type SwitchStatement struct {
	Token token.Token
	Disc  Expression
	Cases []SwitchCase
}

func (s *SwitchStatement) Pos() token.Position { return s.Token.Pos }
func (*SwitchStatement) statementNode()        {}

// LabeledStatement is `label: stmt`.
type LabeledStatement struct {
	Token token.Token
	Label string
	Body  Statement
}

func (l *LabeledStatement) Pos() token.Position { return l.Token.Pos }
func (*LabeledStatement) statementNode()        {}
