package parser

import (
	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/token"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Kind {
	case token.LBRACE:
		return p.parseBlockStatement()
	case token.VAR, token.LET, token.CONST:
		stmt := p.parseVarDeclStatement()
		p.skipSemi()
		return stmt
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.RETURN:
		stmt := p.parseReturnStatement()
		p.skipSemi()
		return stmt
	case token.BREAK:
		stmt := p.parseBreakStatement()
		p.skipSemi()
		return stmt
	case token.CONTINUE:
		stmt := p.parseContinueStatement()
		p.skipSemi()
		return stmt
	case token.THROW:
		stmt := p.parseThrowStatement()
		p.skipSemi()
		return stmt
	case token.TRY:
		return p.parseTryStatement()
	case token.SWITCH:
		return p.parseSwitchStatement()
	case token.FUNCTION:
		return p.parseFunctionDeclaration()
	case token.ASYNC:
		if p.peekIs(token.FUNCTION) {
			tok := p.cur
			p.advance()
			_ = tok
			return p.parseFunctionDeclarationAsync(true)
		}
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.IMPORT:
		return p.parseImportDeclaration()
	case token.EXPORT:
		return p.parseExportDeclaration()
	case token.SEMI:
		tok := p.cur
		p.advance()
		return &ast.EmptyStatement{Token: tok}
	}

	if p.curIs(token.IDENT) && p.peekIs(token.COLON) {
		tok := p.cur
		label := p.cur.Literal
		p.advance()
		p.advance()
		return &ast.LabeledStatement{Token: tok, Label: label, Body: p.parseStatement()}
	}

	expr := p.parseExpressionEntry()
	p.skipSemi()
	return &ast.ExpressionStatement{Token: p.cur, Expr: expr}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	tok := p.cur
	p.expect(token.LBRACE)
	block := &ast.BlockStatement{Token: tok}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Body = append(block.Body, stmt)
		}
	}
	p.expect(token.RBRACE)
	return block
}

func (p *Parser) parseVarDeclStatement() *ast.VarDeclStatement {
	tok := p.cur
	kind := tok.Literal
	p.advance()
	stmt := &ast.VarDeclStatement{Token: tok, Kind: kind}
	for {
		target := p.parseBindingTarget()
		var init ast.Expression
		if p.curIs(token.ASSIGN) {
			p.advance()
			init = p.parseExpression(ASSIGN)
		}
		stmt.Decls = append(stmt.Decls, ast.VarDeclarator{ID: target, Init: init})
		if p.curIs(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	tok := p.cur
	p.advance()
	p.expect(token.LPAREN)
	test := p.parseExpressionEntry()
	p.expect(token.RPAREN)
	cons := p.parseStatement()
	var alt ast.Statement
	if p.curIs(token.ELSE) {
		p.advance()
		alt = p.parseStatement()
	}
	return &ast.IfStatement{Token: tok, Test: test, Cons: cons, Alt: alt}
}

func (p *Parser) parseForStatement() ast.Statement {
	tok := p.cur
	p.advance()
	isAwait := false
	if p.curIs(token.AWAIT) {
		isAwait = true
		p.advance()
	}
	p.expect(token.LPAREN)

	if p.curIs(token.VAR) || p.curIs(token.LET) || p.curIs(token.CONST) {
		kind := p.cur.Literal
		saved := p.save()
		p.advance()
		target := p.parseBindingTarget()
		if p.curIs(token.IN) || p.curIs(token.OF) {
			of := p.curIs(token.OF)
			p.advance()
			right := p.parseExpressionEntry()
			p.expect(token.RPAREN)
			body := p.parseStatement()
			return &ast.ForInOfStatement{Token: tok, Decl: kind, Left: target, Right: right, Body: body, Of: of, Await: isAwait}
		}
		p.restore(saved)
	}

	var init ast.Node
	if !p.curIs(token.SEMI) {
		if p.curIs(token.VAR) || p.curIs(token.LET) || p.curIs(token.CONST) {
			init = p.parseVarDeclStatement()
		} else {
			left := p.parseExpressionEntry()
			if p.curIs(token.IN) || p.curIs(token.OF) {
				of := p.curIs(token.OF)
				p.advance()
				right := p.parseExpressionEntry()
				p.expect(token.RPAREN)
				body := p.parseStatement()
				return &ast.ForInOfStatement{Token: tok, Left: exprToPattern(left), Right: right, Body: body, Of: of, Await: isAwait}
			}
			init = &ast.ExpressionStatement{Token: tok, Expr: left}
		}
	}
	p.expect(token.SEMI)

	var test ast.Expression
	if !p.curIs(token.SEMI) {
		test = p.parseExpressionEntry()
	}
	p.expect(token.SEMI)

	var update ast.Expression
	if !p.curIs(token.RPAREN) {
		update = p.parseExpressionEntry()
	}
	p.expect(token.RPAREN)

	body := p.parseStatement()
	return &ast.ForStatement{Token: tok, Init: init, Test: test, Update: update, Body: body}
}

// exprToPattern narrows an already-parsed expression (identifier or
// member expression) down to an assignment-target Pattern for
// `for (x of xs)` where `x` isn't introduced by a declaration.
func exprToPattern(e ast.Expression) ast.Pattern {
	if id, ok := e.(*ast.Identifier); ok {
		return id
	}
	return &ast.ExpressionPattern{Expr: e}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	tok := p.cur
	p.advance()
	p.expect(token.LPAREN)
	test := p.parseExpressionEntry()
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return &ast.WhileStatement{Token: tok, Test: test, Body: body}
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	tok := p.cur
	p.advance()
	body := p.parseStatement()
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	test := p.parseExpressionEntry()
	p.expect(token.RPAREN)
	p.skipSemi()
	return &ast.DoWhileStatement{Token: tok, Body: body, Test: test}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	tok := p.cur
	p.advance()
	var arg ast.Expression
	if !p.curIs(token.SEMI) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		arg = p.parseExpressionEntry()
	}
	return &ast.ReturnStatement{Token: tok, Arg: arg}
}

func (p *Parser) parseBreakStatement() ast.Statement {
	tok := p.cur
	p.advance()
	label := ""
	if p.curIs(token.IDENT) {
		label = p.cur.Literal
		p.advance()
	}
	return &ast.BreakStatement{Token: tok, Label: label}
}

func (p *Parser) parseContinueStatement() ast.Statement {
	tok := p.cur
	p.advance()
	label := ""
	if p.curIs(token.IDENT) {
		label = p.cur.Literal
		p.advance()
	}
	return &ast.ContinueStatement{Token: tok, Label: label}
}

func (p *Parser) parseThrowStatement() ast.Statement {
	tok := p.cur
	p.advance()
	return &ast.ThrowStatement{Token: tok, Arg: p.parseExpressionEntry()}
}

func (p *Parser) parseTryStatement() ast.Statement {
	tok := p.cur
	p.advance()
	block := p.parseBlockStatement()
	stmt := &ast.TryStatement{Token: tok, Block: block}
	if p.curIs(token.CATCH) {
		stmt.HasCatch = true
		p.advance()
		if p.curIs(token.LPAREN) {
			p.advance()
			stmt.Param = p.parseBindingTarget()
			p.expect(token.RPAREN)
		}
		stmt.Handler = p.parseBlockStatement()
	}
	if p.curIs(token.FINALLY) {
		p.advance()
		stmt.Finalizer = p.parseBlockStatement()
	}
	return stmt
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	tok := p.cur
	p.advance()
	p.expect(token.LPAREN)
	disc := p.parseExpressionEntry()
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)
	stmt := &ast.SwitchStatement{Token: tok, Disc: disc}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		var c ast.SwitchCase
		if p.curIs(token.CASE) {
			p.advance()
			c.Test = p.parseExpressionEntry()
		} else {
			p.expect(token.DEFAULT)
		}
		p.expect(token.COLON)
		for !p.curIs(token.CASE) && !p.curIs(token.DEFAULT) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			c.Body = append(c.Body, p.parseStatement())
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.expect(token.RBRACE)
	return stmt
}
