package ast

import "github.com/nyxlang/nyx/internal/token"

// ImportSpecifier binds one imported name: `{a}`, `{a as b}`, a default
// import (Imported == "default"), or a namespace import (Imported ==
// "*").
type ImportSpecifier struct {
	Imported string
	Local    string
}

// ImportDeclaration is `import ... from "source";`.
type ImportDeclaration struct {
	Token      token.Token
	Specifiers []ImportSpecifier
	Source     string
}

func (i *ImportDeclaration) Pos() token.Position { return i.Token.Pos }
func (*ImportDeclaration) statementNode()        {}

// ExportSpecifier maps a local name to its exported name.
type ExportSpecifier struct {
	Local    string
	Exported string
}

// ExportDeclaration covers `export <decl>`, `export {a, b as c}`, and
// `export default <expr>`. Exactly one of Decl, Specifiers, Default is
// populated.
type ExportDeclaration struct {
	Token      token.Token
	Decl       Statement
	Specifiers []ExportSpecifier
	Default    Expression
}

func (e *ExportDeclaration) Pos() token.Position { return e.Token.Pos }
func (*ExportDeclaration) statementNode()        {}
