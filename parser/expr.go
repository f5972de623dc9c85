package parser

import (
	"strconv"

	"github.com/nexuscrm/formcalc/ast"
	"github.com/nexuscrm/formcalc/token"
)

// parseExpr is the grammar's `expr` entry point.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = ast.Binary{Op: ast.Or, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	lhs, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		lhs = ast.Binary{Op: ast.And, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.cur.Type == token.BANG {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.UnaryNot, Expr: operand}, nil
	}
	return p.parseCmp()
}

var cmpOps = map[token.Type]ast.BinaryOp{
	token.EQ:  ast.Eq,
	token.NEQ: ast.Neq,
	token.LT:  ast.Lt,
	token.GT:  ast.Gt,
	token.LTE: ast.Lte,
	token.GTE: ast.Gte,
}

// parseCmp implements the grammar's non-associative comparison level:
// at most one comparison operator may appear at this precedence tier.
func (p *Parser) parseCmp() (ast.Expr, error) {
	lhs, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.cur.Type]; ok {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		result := ast.Expr(ast.Binary{Op: op, LHS: lhs, RHS: rhs})
		if _, chained := cmpOps[p.cur.Type]; chained {
			return nil, p.errorf("comparison operators do not chain")
		}
		return result, nil
	}
	return lhs, nil
}

func (p *Parser) parseAdd() (ast.Expr, error) {
	lhs, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.PLUS || p.cur.Type == token.MINUS {
		op := ast.Add
		if p.cur.Type == token.MINUS {
			op = ast.Sub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		lhs = ast.Binary{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

func (p *Parser) parseMul() (ast.Expr, error) {
	lhs, err := p.parsePow()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == token.STAR || p.cur.Type == token.SLASH || p.isKeyword("mod") {
		var op ast.BinaryOp
		switch {
		case p.cur.Type == token.STAR:
			op = ast.Mul
		case p.cur.Type == token.SLASH:
			op = ast.Div
		default:
			op = ast.Mod
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parsePow()
		if err != nil {
			return nil, err
		}
		lhs = ast.Binary{Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs, nil
}

// parsePow is right-associative: a^b^c == a^(b^c).
func (p *Parser) parsePow() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.cur.Type == token.CARET {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parsePow()
		if err != nil {
			return nil, err
		}
		return ast.Binary{Op: ast.Pow, LHS: lhs, RHS: rhs}, nil
	}
	return lhs, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.cur.Type {
	case token.MINUS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.UnaryNeg, Expr: operand}, nil
	case token.PLUS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.UnaryPos, Expr: operand}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch p.cur.Type {
	case token.NUMBER:
		f, err := strconv.ParseFloat(p.cur.Lexeme, 64)
		if err != nil {
			return nil, p.errorf("malformed number %q", p.cur.Lexeme)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NumberLit{Value: f}, nil

	case token.STRING:
		s := p.cur.Lexeme
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.StringLit{Value: s}, nil

	case token.KEYWORD:
		switch lower(p.cur.Lexeme) {
		case "true":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return ast.BoolLit{Value: true}, nil
		case "false":
			if err := p.advance(); err != nil {
				return nil, err
			}
			return ast.BoolLit{Value: false}, nil
		default:
			return nil, p.errorf("unexpected keyword %q in expression", p.cur.Lexeme)
		}

	case token.IDENT:
		name := p.cur.Lexeme
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.Type == token.LPAREN {
			return p.parseCall(name)
		}
		return ast.VarRef{Name: name}, nil

	case token.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != token.RPAREN {
			return nil, p.errorf("expected ')', got %q", p.cur.Lexeme)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil

	default:
		return nil, p.errorf("unexpected token %q", p.cur.Lexeme)
	}
}

func (p *Parser) parseCall(name string) (ast.Expr, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	var args []ast.Expr
	if p.cur.Type != token.RPAREN {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.Type != token.COMMA {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if p.cur.Type != token.RPAREN {
		return nil, p.errorf("expected ')' to close call to %q, got %q", name, p.cur.Lexeme)
	}
	if err := p.advance(); err != nil { // consume ')'
		return nil, err
	}
	return ast.Call{Name: name, Args: args}, nil
}
