// Package parser implements a Pratt (precedence-climbing) parser that
// turns a token stream into an internal/ast.Program. The grammar this
// package accepts is a practical JavaScript subset sufficient to drive
// internal/compiler; spec.md §1 places full lexical-grammar fidelity
// out of the core's scope, so this front end favors the constructs the
// core's bytecode/VM/coroutine machinery needs to exercise over
// exhaustive syntax coverage (no regex literals, no full template
// interpolation, no decorators).
package parser

import (
	"fmt"

	"github.com/nyxlang/nyx/internal/ast"
	"github.com/nyxlang/nyx/internal/lexer"
	"github.com/nyxlang/nyx/internal/token"
)

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	ASSIGN
	COND     // ?:
	NULLISH  // ??
	LOR      // ||
	LAND     // &&
	BOR      // |
	BXOR     // ^
	BAND     // &
	EQUALS   // == != === !==
	RELATION // < > <= >= instanceof in
	SHIFT    // << >> >>>
	SUM      // + -
	PRODUCT  // * / %
	EXP      // **
	UNARY    // ! ~ typeof void delete ++x --x
	POSTFIX  // x++ x--
	CALL     // f(x)
	MEMBER   // x.y x[y]
)

var precedences = map[token.Kind]int{
	token.ASSIGN: ASSIGN, token.PLUS_ASSIGN: ASSIGN, token.MINUS_ASSIGN: ASSIGN,
	token.STAR_ASSIGN: ASSIGN, token.SLASH_ASSIGN: ASSIGN, token.PERCENT_ASSIGN: ASSIGN,
	token.STAR_STAR_ASSIGN: ASSIGN, token.AND_ASSIGN: ASSIGN, token.OR_ASSIGN: ASSIGN,
	token.XOR_ASSIGN: ASSIGN, token.SHL_ASSIGN: ASSIGN, token.SHR_ASSIGN: ASSIGN,
	token.USHR_ASSIGN: ASSIGN, token.LAND_ASSIGN: ASSIGN, token.LOR_ASSIGN: ASSIGN,
	token.QQ_ASSIGN:         ASSIGN,
	token.QUESTION:          COND,
	token.QUESTION_QUESTION: NULLISH,
	token.LOR:               LOR,
	token.LAND:              LAND,
	token.OR:                BOR, token.XOR: BXOR, token.AND: BAND,
	token.EQ: EQUALS, token.NOT_EQ: EQUALS, token.STRICT_EQ: EQUALS, token.STRICT_NOT_EQ: EQUALS,
	token.LT: RELATION, token.GT: RELATION, token.LE: RELATION, token.GE: RELATION,
	token.INSTANCEOF: RELATION, token.IN: RELATION,
	token.SHL: SHIFT, token.SHR: SHIFT, token.USHR: SHIFT,
	token.PLUS: SUM, token.MINUS: SUM,
	token.STAR: PRODUCT, token.SLASH: PRODUCT, token.PERCENT: PRODUCT,
	token.STAR_STAR: EXP,
	token.LPAREN:    CALL,
	token.LBRACK:    MEMBER, token.DOT: MEMBER, token.QUESTION_DOT: MEMBER,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser consumes tokens from a Lexer and builds an ast.Program.
type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token

	prefixFns map[token.Kind]prefixParseFn
	infixFns  map[token.Kind]infixParseFn

	errors []error
}

// New creates a Parser over the given Lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.prefixFns = map[token.Kind]prefixParseFn{}
	p.infixFns = map[token.Kind]infixParseFn{}
	p.registerExpressionParsers()

	p.advance()
	p.advance()
	return p
}

// Errors returns parse errors accumulated so far.
func (p *Parser) Errors() []error { return p.errors }

// parserState snapshots both the parser's token window and the
// lexer's scan position, so speculative productions can rewind
// completely.
type parserState struct {
	p   Parser
	lex lexer.State
}

func (p *Parser) save() parserState {
	return parserState{p: *p, lex: p.l.Save()}
}

func (p *Parser) restore(s parserState) {
	lex := p.l
	*p = s.p
	p.l = lex
	p.l.Restore(s.lex)
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Errorf("%s:%d:%d: %s",
		"<source>", p.cur.Pos.Line, p.cur.Pos.Column, fmt.Sprintf(format, args...)))
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.Next()
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k token.Kind) token.Token {
	if !p.curIs(k) {
		p.errorf("expected token %d, got %d (%q)", k, p.cur.Kind, p.cur.Literal)
		return p.cur
	}
	t := p.cur
	p.advance()
	return t
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Kind]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.cur.Kind]; ok {
		return pr
	}
	return LOWEST
}

// skipSemi consumes an optional statement-terminating semicolon
// (automatic semicolon insertion is approximated permissively: a
// missing `;` before `}`/EOF/newline-starting-token is tolerated).
func (p *Parser) skipSemi() {
	if p.curIs(token.SEMI) {
		p.advance()
	}
}

// ParseProgram parses the entire token stream into a Program.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		} else {
			// Avoid infinite loops on unrecoverable input.
			p.advance()
		}
	}
	return prog
}
