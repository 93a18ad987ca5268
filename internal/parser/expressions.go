package parser

import (
	"strconv"

	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/token"
)

func (p *Parser) registerExpressionParsers() {
	p.prefixFns[token.IDENT] = p.parseIdentifier
	p.prefixFns[token.NUMBER] = p.parseNumberLiteral
	p.prefixFns[token.STRING] = p.parseStringLiteral
	p.prefixFns[token.TEMPLATE_STRING] = p.parseStringLiteral
	p.prefixFns[token.TRUE] = p.parseBooleanLiteral
	p.prefixFns[token.FALSE] = p.parseBooleanLiteral
	p.prefixFns[token.NULL] = p.parseNullLiteral
	p.prefixFns[token.UNDEFINED] = p.parseUndefinedLiteral
	p.prefixFns[token.THIS] = p.parseThisExpression
	p.prefixFns[token.SUPER] = p.parseSuperExpression
	p.prefixFns[token.LPAREN] = p.parseGroupedOrArrow
	p.prefixFns[token.LBRACK] = p.parseArrayLiteral
	p.prefixFns[token.LBRACE] = p.parseObjectLiteral
	p.prefixFns[token.FUNCTION] = p.parseFunctionExpression
	p.prefixFns[token.ASYNC] = p.parseAsyncPrefixed
	p.prefixFns[token.CLASS] = p.parseClassExpression
	p.prefixFns[token.NEW] = p.parseNewExpression
	p.prefixFns[token.YIELD] = p.parseYieldExpression
	p.prefixFns[token.AWAIT] = p.parseAwaitExpression
	p.prefixFns[token.PRIVATE_NAME] = p.parsePrivateName
	for _, k := range []token.Kind{token.MINUS, token.PLUS, token.LNOT, token.NOT,
		token.TYPEOF, token.VOID, token.DELETE} {
		p.prefixFns[k] = p.parseUnaryExpression
	}
	for _, k := range []token.Kind{token.INC, token.DEC} {
		p.prefixFns[k] = p.parsePrefixUpdate
	}

	binOps := []token.Kind{token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.STAR_STAR, token.EQ, token.NOT_EQ, token.STRICT_EQ, token.STRICT_NOT_EQ,
		token.LT, token.GT, token.LE, token.GE, token.SHL, token.SHR, token.USHR,
		token.AND, token.OR, token.XOR, token.INSTANCEOF, token.IN}
	for _, k := range binOps {
		p.infixFns[k] = p.parseBinaryExpression
	}
	p.infixFns[token.LAND] = p.parseLogicalExpression
	p.infixFns[token.LOR] = p.parseLogicalExpression
	p.infixFns[token.QUESTION_QUESTION] = p.parseLogicalExpression
	p.infixFns[token.LPAREN] = p.parseCallExpression
	p.infixFns[token.DOT] = p.parseMemberExpression
	p.infixFns[token.QUESTION_DOT] = p.parseMemberExpression
	p.infixFns[token.LBRACK] = p.parseMemberExpression
	p.infixFns[token.QUESTION] = p.parseConditionalExpression
	for _, k := range []token.Kind{token.ASSIGN, token.PLUS_ASSIGN, token.MINUS_ASSIGN,
		token.STAR_ASSIGN, token.SLASH_ASSIGN, token.PERCENT_ASSIGN, token.STAR_STAR_ASSIGN,
		token.AND_ASSIGN, token.OR_ASSIGN, token.XOR_ASSIGN, token.SHL_ASSIGN, token.SHR_ASSIGN,
		token.USHR_ASSIGN, token.LAND_ASSIGN, token.LOR_ASSIGN, token.QQ_ASSIGN} {
		p.infixFns[k] = p.parseAssignmentExpression
	}
	for _, k := range []token.Kind{token.INC, token.DEC} {
		p.infixFns[k] = p.parsePostfixUpdate
	}
}

// parseExpression is the Pratt-parsing entry point.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix, ok := p.prefixFns[p.cur.Kind]
	if !ok {
		p.errorf("no prefix parse function for token %d (%q)", p.cur.Kind, p.cur.Literal)
		return nil
	}
	left := prefix()

	for !p.curIs(token.SEMI) && precedence < p.curPrecedence() {
		infix, ok := p.infixFns[p.cur.Kind]
		if !ok {
			return left
		}
		left = infix(left)
	}
	return left
}

func (p *Parser) parseExpressionEntry() ast.Expression {
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseIdentifier() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.Identifier{Token: tok, Name: tok.Literal}
}

func (p *Parser) parsePrivateName() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.PrivateName{Token: tok, Name: tok.Literal}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	tok := p.cur
	val, err := parseNumber(tok.Literal)
	if err != nil {
		p.errorf("invalid number literal %q", tok.Literal)
	}
	p.advance()
	return &ast.NumberLiteral{Token: tok, Value: val}
}

func parseNumber(lit string) (float64, error) {
	if len(lit) > 1 && lit[0] == '0' && (lit[1] == 'x' || lit[1] == 'X') {
		n, err := strconv.ParseInt(lit[2:], 16, 64)
		return float64(n), err
	}
	return strconv.ParseFloat(lit, 64)
}

func (p *Parser) parseStringLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.StringLiteral{Token: tok, Value: tok.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.BooleanLiteral{Token: tok, Value: tok.Kind == token.TRUE}
}

func (p *Parser) parseNullLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.NullLiteral{Token: tok}
}

func (p *Parser) parseUndefinedLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.UndefinedLiteral{Token: tok}
}

func (p *Parser) parseThisExpression() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.ThisExpression{Token: tok}
}

func (p *Parser) parseSuperExpression() ast.Expression {
	tok := p.cur
	p.advance()
	return &ast.SuperExpression{Token: tok}
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	tok := p.cur
	op := opText(tok)
	p.advance()
	arg := p.parseExpression(UNARY)
	return &ast.UnaryExpression{Token: tok, Op: op, Arg: arg}
}

func (p *Parser) parsePrefixUpdate() ast.Expression {
	tok := p.cur
	op := opText(tok)
	p.advance()
	arg := p.parseExpression(UNARY)
	return &ast.UpdateExpression{Token: tok, Op: op, Arg: arg, Prefix: true}
}

func (p *Parser) parsePostfixUpdate(left ast.Expression) ast.Expression {
	tok := p.cur
	op := opText(tok)
	p.advance()
	return &ast.UpdateExpression{Token: tok, Op: op, Arg: left, Prefix: false}
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	tok := p.cur
	op := opText(tok)
	precedence := p.curPrecedence()
	p.advance()
	right := p.parseExpression(precedence)
	return &ast.BinaryExpression{Token: tok, Op: op, Left: left, Right: right}
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	tok := p.cur
	op := opText(tok)
	precedence := p.curPrecedence()
	p.advance()
	right := p.parseExpression(precedence)
	return &ast.LogicalExpression{Token: tok, Op: op, Left: left, Right: right}
}

func (p *Parser) parseAssignmentExpression(left ast.Expression) ast.Expression {
	tok := p.cur
	op := opText(tok)
	p.advance()
	right := p.parseExpression(ASSIGN - 1)
	return &ast.AssignmentExpression{Token: tok, Op: op, Left: left, Right: right}
}

func (p *Parser) parseConditionalExpression(test ast.Expression) ast.Expression {
	tok := p.cur
	p.advance()
	cons := p.parseExpression(ASSIGN)
	p.expect(token.COLON)
	alt := p.parseExpression(ASSIGN)
	return &ast.ConditionalExpression{Token: tok, Test: test, Cons: cons, Alt: alt}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	tok := p.cur
	args := p.parseArgumentList()
	return &ast.CallExpression{Token: tok, Callee: callee, Args: args}
}

func (p *Parser) parseArgumentList() []ast.Expression {
	p.expect(token.LPAREN)
	var args []ast.Expression
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		if p.curIs(token.DOTDOTDOT) {
			tok := p.cur
			p.advance()
			args = append(args, &ast.SpreadElement{Token: tok, Arg: p.parseExpression(ASSIGN)})
		} else {
			args = append(args, p.parseExpression(ASSIGN))
		}
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RPAREN)
	return args
}

func (p *Parser) parseMemberExpression(obj ast.Expression) ast.Expression {
	tok := p.cur
	optional := tok.Kind == token.QUESTION_DOT
	computed := tok.Kind == token.LBRACK
	p.advance()
	var prop ast.Expression
	if computed {
		prop = p.parseExpressionEntry()
		p.expect(token.RBRACK)
	} else if p.curIs(token.PRIVATE_NAME) {
		prop = p.parsePrivateName()
	} else {
		nameTok := p.cur
		p.advance()
		prop = &ast.Identifier{Token: nameTok, Name: nameTok.Literal}
	}
	return &ast.MemberExpression{Token: tok, Object: obj, Property: prop, Computed: computed, Optional: optional}
}

func (p *Parser) parseNewExpression() ast.Expression {
	tok := p.cur
	p.advance()
	callee := p.parseExpression(MEMBER)
	var args []ast.Expression
	if p.curIs(token.LPAREN) {
		args = p.parseArgumentList()
	}
	return &ast.NewExpression{Token: tok, Callee: callee, Args: args}
}

func (p *Parser) parseYieldExpression() ast.Expression {
	tok := p.cur
	p.advance()
	delegate := false
	if p.curIs(token.STAR) {
		delegate = true
		p.advance()
	}
	var arg ast.Expression
	if !p.curIs(token.SEMI) && !p.curIs(token.RPAREN) && !p.curIs(token.RBRACE) &&
		!p.curIs(token.RBRACK) && !p.curIs(token.COMMA) && !p.curIs(token.EOF) {
		arg = p.parseExpression(ASSIGN)
	}
	return &ast.YieldExpression{Token: tok, Arg: arg, Delegate: delegate}
}

func (p *Parser) parseAwaitExpression() ast.Expression {
	tok := p.cur
	p.advance()
	arg := p.parseExpression(UNARY)
	return &ast.AwaitExpression{Token: tok, Arg: arg}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	var elems []ast.Expression
	for !p.curIs(token.RBRACK) && !p.curIs(token.EOF) {
		if p.curIs(token.COMMA) {
			elems = append(elems, nil) // hole
			p.advance()
			continue
		}
		if p.curIs(token.DOTDOTDOT) {
			sTok := p.cur
			p.advance()
			elems = append(elems, &ast.SpreadElement{Token: sTok, Arg: p.parseExpression(ASSIGN)})
		} else {
			elems = append(elems, p.parseExpression(ASSIGN))
		}
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RBRACK)
	return &ast.ArrayLiteral{Token: tok, Elements: elems}
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	tok := p.cur
	p.advance()
	var props []ast.ObjectProperty
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		if p.curIs(token.DOTDOTDOT) {
			p.advance()
			props = append(props, ast.ObjectProperty{Kind: "spread", Value: p.parseExpression(ASSIGN)})
		} else {
			props = append(props, p.parseObjectProperty())
		}
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return &ast.ObjectLiteral{Token: tok, Props: props}
}

func (p *Parser) parseObjectProperty() ast.ObjectProperty {
	if (p.curIs(token.GET) || p.curIs(token.SET)) &&
		!p.peekIs(token.COLON) && !p.peekIs(token.COMMA) && !p.peekIs(token.RBRACE) && !p.peekIs(token.LPAREN) {
		kind := "get"
		if p.curIs(token.SET) {
			kind = "set"
		}
		p.advance()
		key, computed := p.parsePropertyKey()
		fn := p.parseFunctionTail(&ast.Function{Token: p.cur})
		return ast.ObjectProperty{Key: key, Computed: computed, Kind: kind, Value: &ast.FunctionExpression{Fn: fn}}
	}

	key, computed := p.parsePropertyKey()
	if p.curIs(token.LPAREN) { // method shorthand
		fn := p.parseFunctionTail(&ast.Function{Token: p.cur})
		return ast.ObjectProperty{Key: key, Computed: computed, Kind: "method", Value: &ast.FunctionExpression{Fn: fn}}
	}
	if p.curIs(token.COLON) {
		p.advance()
		val := p.parseExpression(ASSIGN)
		return ast.ObjectProperty{Key: key, Computed: computed, Kind: "init", Value: val}
	}
	// shorthand { x }
	if ident, ok := key.(*ast.Identifier); ok {
		return ast.ObjectProperty{Key: key, Kind: "init", Shorthand: true, Value: ident}
	}
	p.errorf("invalid shorthand property")
	return ast.ObjectProperty{Key: key, Kind: "init", Value: key}
}

func (p *Parser) parsePropertyKey() (ast.Expression, bool) {
	if p.curIs(token.LBRACK) {
		p.advance()
		k := p.parseExpression(ASSIGN)
		p.expect(token.RBRACK)
		return k, true
	}
	if p.curIs(token.STRING) {
		return p.parseStringLiteral(), false
	}
	if p.curIs(token.NUMBER) {
		return p.parseNumberLiteral(), false
	}
	tok := p.cur
	p.advance()
	return &ast.Identifier{Token: tok, Name: tok.Literal}, false
}

func (p *Parser) parseGroupedOrArrow() ast.Expression {
	if arrow := p.tryParseArrowFunction(false); arrow != nil {
		return arrow
	}
	p.expect(token.LPAREN)
	expr := p.parseExpressionEntry()
	for p.curIs(token.COMMA) {
		p.advance()
		expr = &ast.SequenceExpression{Exprs: []ast.Expression{expr, p.parseExpressionEntry()}}
	}
	p.expect(token.RPAREN)
	if p.curIs(token.ARROW) {
		// `(x) => ...` where x parsed as a plain grouped expr; convert.
		return p.finishArrowFromExpr(expr, false)
	}
	return expr
}

func (p *Parser) parseAsyncPrefixed() ast.Expression {
	// `async function`, `async (params) =>`, `async x =>`
	save := p.cur
	p.advance()
	if p.curIs(token.FUNCTION) {
		fn := p.parseFunctionExpressionAfterKeyword(true)
		return fn
	}
	if arrow := p.tryParseArrowFunction(true); arrow != nil {
		return arrow
	}
	// Not actually async-prefixed; treat `async` as a plain identifier.
	return &ast.Identifier{Token: save, Name: save.Literal}
}

func opText(tok token.Token) string {
	switch tok.Kind {
	case token.PLUS:
		return "+"
	case token.MINUS:
		return "-"
	case token.STAR:
		return "*"
	case token.SLASH:
		return "/"
	case token.PERCENT:
		return "%"
	case token.STAR_STAR:
		return "**"
	case token.EQ:
		return "=="
	case token.NOT_EQ:
		return "!="
	case token.STRICT_EQ:
		return "==="
	case token.STRICT_NOT_EQ:
		return "!=="
	case token.LT:
		return "<"
	case token.GT:
		return ">"
	case token.LE:
		return "<="
	case token.GE:
		return ">="
	case token.SHL:
		return "<<"
	case token.SHR:
		return ">>"
	case token.USHR:
		return ">>>"
	case token.AND:
		return "&"
	case token.OR:
		return "|"
	case token.XOR:
		return "^"
	case token.LAND:
		return "&&"
	case token.LOR:
		return "||"
	case token.QUESTION_QUESTION:
		return "??"
	case token.LNOT:
		return "!"
	case token.NOT:
		return "~"
	case token.TYPEOF:
		return "typeof"
	case token.VOID:
		return "void"
	case token.DELETE:
		return "delete"
	case token.INSTANCEOF:
		return "instanceof"
	case token.IN:
		return "in"
	case token.INC:
		return "++"
	case token.DEC:
		return "--"
	case token.ASSIGN:
		return "="
	case token.PLUS_ASSIGN:
		return "+="
	case token.MINUS_ASSIGN:
		return "-="
	case token.STAR_ASSIGN:
		return "*="
	case token.SLASH_ASSIGN:
		return "/="
	case token.PERCENT_ASSIGN:
		return "%="
	case token.STAR_STAR_ASSIGN:
		return "**="
	case token.AND_ASSIGN:
		return "&="
	case token.OR_ASSIGN:
		return "|="
	case token.XOR_ASSIGN:
		return "^="
	case token.SHL_ASSIGN:
		return "<<="
	case token.SHR_ASSIGN:
		return ">>="
	case token.USHR_ASSIGN:
		return ">>>="
	case token.LAND_ASSIGN:
		return "&&="
	case token.LOR_ASSIGN:
		return "||="
	case token.QQ_ASSIGN:
		return "??="
	}
	return tok.Literal
}
