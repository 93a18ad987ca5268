package parser

import (
	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/token"
)

func (p *Parser) parseFunctionExpression() ast.Expression {
	return p.parseFunctionExpressionAfterKeyword(false)
}

func (p *Parser) parseFunctionExpressionAfterKeyword(async bool) ast.Expression {
	tok := p.cur
	p.expect(token.FUNCTION)
	generator := false
	if p.curIs(token.STAR) {
		generator = true
		p.advance()
	}
	name := ""
	if p.curIs(token.IDENT) {
		name = p.cur.Literal
		p.advance()
	}
	fn := &ast.Function{Token: tok, Name: name, Async: async, Generator: generator}
	p.finishFunctionTail(fn)
	return &ast.FunctionExpression{Fn: fn}
}

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	return p.parseFunctionDeclarationAsync(false)
}

func (p *Parser) parseFunctionDeclarationAsync(async bool) ast.Statement {
	tok := p.cur
	p.expect(token.FUNCTION)
	generator := false
	if p.curIs(token.STAR) {
		generator = true
		p.advance()
	}
	name := p.cur.Literal
	p.expect(token.IDENT)
	fn := &ast.Function{Token: tok, Name: name, Async: async, Generator: generator}
	p.finishFunctionTail(fn)
	return &ast.FunctionDeclaration{Fn: fn}
}

// parseFunctionTail parses `(params) { body }` given a pre-populated
// Function header (used for object/class methods).
func (p *Parser) parseFunctionTail(fn *ast.Function) *ast.Function {
	if p.curIs(token.STAR) {
		fn.Generator = true
		p.advance()
	}
	p.finishFunctionTail(fn)
	return fn
}

func (p *Parser) finishFunctionTail(fn *ast.Function) {
	fn.Params = p.parseParamList()
	fn.Body = p.parseBlockStatement()
}

func (p *Parser) parseParamList() []ast.Pattern {
	p.expect(token.LPAREN)
	var params []ast.Pattern
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		params = append(params, p.parseParam())
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RPAREN)
	return params
}

func (p *Parser) parseParam() ast.Pattern {
	if p.curIs(token.DOTDOTDOT) {
		tok := p.cur
		p.advance()
		return &ast.RestElement{Token: tok, Arg: p.parseBindingTarget()}
	}
	target := p.parseBindingTarget()
	if p.curIs(token.ASSIGN) {
		tok := p.cur
		p.advance()
		def := p.parseExpression(ASSIGN)
		return &ast.AssignPattern{Token: tok, Target: target, Default: def}
	}
	return target
}

// parseBindingTarget parses an identifier or a destructuring pattern.
func (p *Parser) parseBindingTarget() ast.Pattern {
	switch p.cur.Kind {
	case token.LBRACK:
		return p.parseArrayPattern()
	case token.LBRACE:
		return p.parseObjectPattern()
	default:
		tok := p.cur
		p.advance()
		return &ast.Identifier{Token: tok, Name: tok.Literal}
	}
}

func (p *Parser) parseArrayPattern() ast.Pattern {
	tok := p.cur
	p.advance()
	var elems []ast.Pattern
	for !p.curIs(token.RBRACK) && !p.curIs(token.EOF) {
		if p.curIs(token.COMMA) {
			elems = append(elems, nil)
			p.advance()
			continue
		}
		if p.curIs(token.DOTDOTDOT) {
			rTok := p.cur
			p.advance()
			elems = append(elems, &ast.RestElement{Token: rTok, Arg: p.parseBindingTarget()})
		} else {
			elems = append(elems, p.parseParam())
		}
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RBRACK)
	return &ast.ArrayPattern{Token: tok, Elements: elems}
}

func (p *Parser) parseObjectPattern() ast.Pattern {
	tok := p.cur
	p.advance()
	pat := &ast.ObjectPattern{Token: tok}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.DOTDOTDOT) {
			p.advance()
			pat.Rest = p.parseBindingTarget()
		} else {
			key, computed := p.parsePropertyKey()
			var value ast.Pattern
			shorthand := false
			if p.curIs(token.COLON) {
				p.advance()
				value = p.parseParam()
			} else {
				shorthand = true
				if ident, ok := key.(*ast.Identifier); ok {
					value = &ast.Identifier{Token: ident.Token, Name: ident.Name}
				}
				if p.curIs(token.ASSIGN) {
					aTok := p.cur
					p.advance()
					value = &ast.AssignPattern{Token: aTok, Target: value, Default: p.parseExpression(ASSIGN)}
				}
			}
			pat.Props = append(pat.Props, ast.ObjectPatternProp{Key: key, Value: value, Computed: computed, Shorthand: shorthand})
		}
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return pat
}

// tryParseArrowFunction speculatively parses `(params) => body`. Returns
// nil (without consuming input, via lexer/parser snapshot) if the
// upcoming tokens are not an arrow function.
func (p *Parser) tryParseArrowFunction(async bool) ast.Expression {
	if p.curIs(token.IDENT) && p.peekIs(token.ARROW) {
		tok := p.cur
		param := &ast.Identifier{Token: tok, Name: tok.Literal}
		p.advance() // ident
		p.advance() // =>
		return p.buildArrow([]ast.Pattern{param}, async, tok)
	}
	if !p.curIs(token.LPAREN) {
		return nil
	}
	snapshot := p.save()
	params, ok := p.tryParseParenParamList()
	if !ok || !p.curIs(token.ARROW) {
		p.restore(snapshot)
		return nil
	}
	tok := p.cur
	p.advance() // consume =>
	return p.buildArrow(params, async, tok)
}

func (p *Parser) tryParseParenParamList() ([]ast.Pattern, bool) {
	errsBefore := len(p.errors)
	params := p.parseParamList()
	if len(p.errors) > errsBefore {
		p.errors = p.errors[:errsBefore]
		return nil, false
	}
	return params, true
}

func (p *Parser) finishArrowFromExpr(expr ast.Expression, async bool) ast.Expression {
	tok := p.cur
	p.expect(token.ARROW)
	var params []ast.Pattern
	if ident, isIdent := expr.(*ast.Identifier); isIdent {
		params = []ast.Pattern{ident}
	} else if seq, isSeq := expr.(*ast.SequenceExpression); isSeq {
		for _, e := range seq.Exprs {
			if id, ok := e.(*ast.Identifier); ok {
				params = append(params, id)
			}
		}
	}
	return p.buildArrow(params, async, tok)
}

func (p *Parser) buildArrow(params []ast.Pattern, async bool, tok token.Token) ast.Expression {
	fn := &ast.Function{Token: tok, Arrow: true, Async: async, Params: params}
	if p.curIs(token.LBRACE) {
		fn.Body = p.parseBlockStatement()
	} else {
		fn.ExprBody = p.parseExpression(ASSIGN)
	}
	return &ast.ArrowFunctionExpression{Fn: fn}
}

func (p *Parser) parseClassExpression() ast.Expression {
	return &ast.ClassExpression{Class: p.parseClassBody()}
}

func (p *Parser) parseClassDeclaration() ast.Statement {
	return &ast.ClassDeclaration{Class: p.parseClassBody()}
}

func (p *Parser) parseClassBody() *ast.ClassBody {
	tok := p.cur
	p.expect(token.CLASS)
	cb := &ast.ClassBody{Token: tok}
	if p.curIs(token.IDENT) {
		cb.Name = p.cur.Literal
		p.advance()
	}
	if p.curIs(token.EXTENDS) {
		p.advance()
		cb.SuperClass = p.parseExpression(MEMBER)
	}
	p.expect(token.LBRACE)
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.SEMI) {
			p.advance()
			continue
		}
		cb.Members = append(cb.Members, p.parseClassMember())
	}
	p.expect(token.RBRACE)
	return cb
}

func (p *Parser) parseClassMember() ast.ClassMember {
	static := false
	if p.curIs(token.STATIC) {
		static = true
		p.advance()
	}
	kind := "method"
	if (p.curIs(token.GET) || p.curIs(token.SET)) && !p.peekIs(token.LPAREN) && !p.peekIs(token.ASSIGN) {
		if p.curIs(token.GET) {
			kind = "get"
		} else {
			kind = "set"
		}
		p.advance()
	}

	var key ast.Expression
	computed := false
	private := false
	if p.curIs(token.PRIVATE_NAME) {
		private = true
		key = p.parsePrivateName()
	} else {
		key, computed = p.parsePropertyKey()
	}
	if ident, ok := key.(*ast.Identifier); ok && ident.Name == "constructor" && kind == "method" {
		kind = "constructor"
	}

	if p.curIs(token.LPAREN) {
		fn := p.parseFunctionTail(&ast.Function{Token: p.cur})
		return ast.ClassMember{Key: key, Computed: computed, Static: static, Kind: kind,
			Value: &ast.FunctionExpression{Fn: fn}, Private: private}
	}

	// field
	var init ast.Expression
	if p.curIs(token.ASSIGN) {
		p.advance()
		init = p.parseExpression(ASSIGN)
	}
	p.skipSemi()
	return ast.ClassMember{Key: key, Computed: computed, Static: static, Kind: "field", Value: init, Private: private}
}
