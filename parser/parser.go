// Package parser implements a recursive-descent parser for the
// FormCalc formula language, turning a token stream into an ast.Block,
// using a current/peek token pair (advance-then-check loops) and a
// precedence-climbing expression grammar.
package parser

import (
	"fmt"

	"github.com/nexuscrm/formcalc/ast"
	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/lexer"
	"github.com/nexuscrm/formcalc/token"
)

// Parser holds the parsing state for one formula's source text.
type Parser struct {
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token
}

// Parse parses src into a Block (the formula body) or returns a
// *errors.FormulaError (ParseError or LexError).
func Parse(src string) (ast.Block, error) {
	p := &Parser{lex: lexer.New(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	block, err := p.parseBlock(isBlockEnd)
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.EOF {
		return nil, p.errorf("unexpected trailing input %q", p.cur.Lexeme)
	}
	return block, nil
}

func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

func (p *Parser) isKeyword(lexeme string) bool {
	return p.cur.Type == token.KEYWORD && lower(p.cur.Lexeme) == lexeme
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return errors.NewAt(errors.ParseError, "", p.cur.Offset, fmt.Sprintf(format, args...))
}

// isBlockEnd reports whether the parser has reached a token that ends
// a block in every context blocks appear in (else/end/EOF).
func isBlockEnd(p *Parser) bool {
	if p.cur.Type == token.EOF {
		return true
	}
	if p.isKeyword("else") || p.isKeyword("end") {
		return true
	}
	return false
}

func (p *Parser) parseBlock(stop func(*Parser) bool) (ast.Block, error) {
	var block ast.Block
	for !stop(p) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block = append(block, stmt)
	}
	if len(block) == 0 {
		return nil, p.errorf("empty block: expected at least one statement")
	}
	return block, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.isKeyword("return"):
		return p.parseReturn()
	case p.isKeyword("if"):
		return p.parseIf()
	default:
		return nil, p.errorf("expected 'return' or 'if', got %q", p.cur.Lexeme)
	}
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume 'return'
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.Return{Expr: expr}, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	stmt, err := p.parseIfChain()
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("end") {
		return nil, p.errorf("expected 'end' to close if-statement, got %q", p.cur.Lexeme)
	}
	if err := p.advance(); err != nil { // consume 'end'
		return nil, err
	}
	return stmt, nil
}

// parseIfChain parses 'if' '(' expr ')' 'then' block
// ('else' 'if' ... )* ('else' block)?, without consuming the trailing
// 'end' (shared across the whole chain, consumed by parseIf).
func (p *Parser) parseIfChain() (ast.Stmt, error) {
	if err := p.advance(); err != nil { // consume 'if'
		return nil, err
	}
	if p.cur.Type != token.LPAREN {
		return nil, p.errorf("expected '(' after 'if', got %q", p.cur.Lexeme)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Type != token.RPAREN {
		return nil, p.errorf("expected ')' after if-condition, got %q", p.cur.Lexeme)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if !p.isKeyword("then") {
		return nil, p.errorf("expected 'then', got %q", p.cur.Lexeme)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock(isBlockEnd)
	if err != nil {
		return nil, err
	}

	var elseBlock ast.Block
	if p.isKeyword("else") {
		if err := p.advance(); err != nil { // consume 'else'
			return nil, err
		}
		if p.isKeyword("if") {
			nested, err := p.parseIfChain()
			if err != nil {
				return nil, err
			}
			elseBlock = ast.Block{nested}
		} else {
			elseBlock, err = p.parseBlock(isBlockEnd)
			if err != nil {
				return nil, err
			}
		}
	}

	return ast.If{Cond: cond, Then: thenBlock, Else: elseBlock}, nil
}
