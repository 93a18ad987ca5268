package ast

import "github.com/nyxlang/nyx/internal/token"

// ArrayPattern is `[a, b, ...rest]` used as a binding target.
type ArrayPattern struct {
	Token    token.Token
	Elements []Pattern // nil entries are holes
}

func (a *ArrayPattern) Pos() token.Position { return a.Token.Pos }
func (*ArrayPattern) patternNode()          {}

// ObjectPatternProp is one `key: target` (or shorthand) binding.
type ObjectPatternProp struct {
	Key       Expression
	Value     Pattern
	Computed  bool
	Shorthand bool
}

// ObjectPattern is `{ a, b: c, ...rest }` used as a binding target.
type ObjectPattern struct {
	Token token.Token
	Props []ObjectPatternProp
	Rest  Pattern // nil if no rest binding
}

func (o *ObjectPattern) Pos() token.Position { return o.Token.Pos }
func (*ObjectPattern) patternNode()          {}

// AssignPattern is `pattern = default`, used for default parameter
// values and destructuring defaults.
type AssignPattern struct {
	Token   token.Token
	Target  Pattern
	Default Expression
}

func (a *AssignPattern) Pos() token.Position { return a.Token.Pos }
func (*AssignPattern) patternNode()          {}

// RestElement is `...pattern` in a parameter list or destructuring
// pattern.
type RestElement struct {
	Token token.Token
	Arg   Pattern
}

func (r *RestElement) Pos() token.Position { return r.Token.Pos }
func (*RestElement) patternNode()          {}

// Function holds the shared shape of function declarations,
// expressions, methods, and arrow functions (spec.md §3 "Script
// function metadata").
type Function struct {
	Token     token.Token
	Name      string // "" for anonymous
	Params    []Pattern
	Body      *BlockStatement
	ExprBody  Expression // non-nil for concise-body arrow functions
	Generator bool
	Async     bool
	Arrow     bool
}

// FunctionDeclaration is `function name(params) { body }`.
type FunctionDeclaration struct {
	Fn *Function
}

func (f *FunctionDeclaration) Pos() token.Position { return f.Fn.Token.Pos }
func (*FunctionDeclaration) statementNode()        {}

// FunctionExpression is a function literal used in expression position.
type FunctionExpression struct {
	Fn *Function
}

func (f *FunctionExpression) Pos() token.Position { return f.Fn.Token.Pos }
func (*FunctionExpression) expressionNode()       {}

// ArrowFunctionExpression is `(params) => body`.
type ArrowFunctionExpression struct {
	Fn *Function
}

func (a *ArrowFunctionExpression) Pos() token.Position { return a.Fn.Token.Pos }
func (*ArrowFunctionExpression) expressionNode()       {}

// ClassMember is one method/field/accessor of a class body.
type ClassMember struct {
	Key      Expression
	Computed bool
	Static   bool
	Kind     string     // "method", "get", "set", "constructor", "field"
	Value    Expression // *FunctionExpression for methods, initializer for fields
	Private  bool
}

// ClassBody is the shared shape of class declarations/expressions.
type ClassBody struct {
	Token      token.Token
	Name       string
	SuperClass Expression // nil if no `extends`
	Members    []ClassMember
}

// ClassDeclaration is `class Name extends Super { ... }`.
type ClassDeclaration struct {
	Class *ClassBody
}

func (c *ClassDeclaration) Pos() token.Position { return c.Class.Token.Pos }
func (*ClassDeclaration) statementNode()        {}

// ClassExpression is a class literal in expression position.
type ClassExpression struct {
	Class *ClassBody
}

func (c *ClassExpression) Pos() token.Position { return c.Class.Token.Pos }
func (*ClassExpression) expressionNode()       {}
