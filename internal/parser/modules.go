package parser

import (
	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/token"
)

// parseImportDeclaration parses the import statement forms the loader
// links: `import d from "m"`, `import {a, b as c} from "m"`,
// `import * as ns from "m"`, and the bare `import "m"` side-effect
// form. `from` and `as` are contextual (matched by literal, not
// reserved), matching how the grammar treats them.
func (p *Parser) parseImportDeclaration() ast.Statement {
	tok := p.cur
	p.expect(token.IMPORT)
	decl := &ast.ImportDeclaration{Token: tok}

	if p.curIs(token.STRING) {
		decl.Source = p.cur.Literal
		p.advance()
		p.skipSemi()
		return decl
	}

	switch {
	case p.curIs(token.STAR):
		p.advance()
		p.expectContextual("as")
		local := p.cur.Literal
		p.expect(token.IDENT)
		decl.Specifiers = append(decl.Specifiers, ast.ImportSpecifier{Imported: "*", Local: local})
	case p.curIs(token.LBRACE):
		decl.Specifiers = append(decl.Specifiers, p.parseNamedImports()...)
	default:
		// Default import, optionally followed by named imports.
		local := p.cur.Literal
		p.expect(token.IDENT)
		decl.Specifiers = append(decl.Specifiers, ast.ImportSpecifier{Imported: "default", Local: local})
		if p.curIs(token.COMMA) {
			p.advance()
			decl.Specifiers = append(decl.Specifiers, p.parseNamedImports()...)
		}
	}

	p.expectContextual("from")
	decl.Source = p.cur.Literal
	p.expect(token.STRING)
	p.skipSemi()
	return decl
}

func (p *Parser) parseNamedImports() []ast.ImportSpecifier {
	p.expect(token.LBRACE)
	var specs []ast.ImportSpecifier
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		imported := p.cur.Literal
		p.advance()
		local := imported
		if p.curIs(token.IDENT) && p.cur.Literal == "as" {
			p.advance()
			local = p.cur.Literal
			p.expect(token.IDENT)
		}
		specs = append(specs, ast.ImportSpecifier{Imported: imported, Local: local})
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return specs
}

func (p *Parser) parseExportDeclaration() ast.Statement {
	tok := p.cur
	p.expect(token.EXPORT)
	decl := &ast.ExportDeclaration{Token: tok}

	switch p.cur.Kind {
	case token.DEFAULT:
		p.advance()
		decl.Default = p.parseExpression(ASSIGN)
		p.skipSemi()
	case token.LBRACE:
		p.advance()
		for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			local := p.cur.Literal
			p.advance()
			exported := local
			if p.curIs(token.IDENT) && p.cur.Literal == "as" {
				p.advance()
				exported = p.cur.Literal
				p.expect(token.IDENT)
			}
			decl.Specifiers = append(decl.Specifiers, ast.ExportSpecifier{Local: local, Exported: exported})
			if p.curIs(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RBRACE)
		p.skipSemi()
	default:
		decl.Decl = p.parseStatement()
	}
	return decl
}

// expectContextual consumes an identifier token whose literal must be
// word (`from`, `as`), which the lexer does not reserve.
func (p *Parser) expectContextual(word string) {
	if p.curIs(token.IDENT) && p.cur.Literal == word {
		p.advance()
		return
	}
	p.errorf("expected %q, got %q", word, p.cur.Literal)
}
