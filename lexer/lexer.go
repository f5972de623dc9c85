// Package lexer turns FormCalc source text into a token stream using
// a hand-rolled scanner (rune slice, position/readPosition/ch,
// readChar/peekChar); the token set and escaping rules are FormCalc's
// own.
package lexer

import (
	"fmt"
	"strings"

	"github.com/nexuscrm/formcalc/errors"
	"github.com/nexuscrm/formcalc/token"
)

// Lexer scans a single formula's source text into tokens on demand.
type Lexer struct {
	src          []rune
	position     int
	readPosition int
	ch           rune
}

func New(src string) *Lexer {
	l := &Lexer{src: []rune(src)}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.src) {
		l.ch = 0
	} else {
		l.ch = l.src[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.src) {
		return 0
	}
	return l.src[l.readPosition]
}

// Next returns the next token, or a *errors.FormulaError (Kind
// LexError) if the source cannot be scanned further.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()

	start := l.position

	switch {
	case l.ch == 0:
		return token.Token{Type: token.EOF, Offset: start}, nil

	case l.ch == '\'':
		return l.readString()

	case isDigit(l.ch):
		return l.readNumber()

	case isIdentStart(l.ch):
		return l.readIdentifier()

	case l.ch == '<':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.LTE, Lexeme: "<=", Offset: start}, nil
		}
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.NEQ, Lexeme: "<>", Offset: start}, nil
		}
		l.readChar()
		return token.Token{Type: token.LT, Lexeme: "<", Offset: start}, nil

	case l.ch == '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.GTE, Lexeme: ">=", Offset: start}, nil
		}
		l.readChar()
		return token.Token{Type: token.GT, Lexeme: ">", Offset: start}, nil

	case l.ch == '=':
		l.readChar()
		return token.Token{Type: token.EQ, Lexeme: "=", Offset: start}, nil

	case l.ch == '!':
		l.readChar()
		return token.Token{Type: token.BANG, Lexeme: "!", Offset: start}, nil

	case l.ch == '+':
		l.readChar()
		return token.Token{Type: token.PLUS, Lexeme: "+", Offset: start}, nil

	case l.ch == '-':
		l.readChar()
		return token.Token{Type: token.MINUS, Lexeme: "-", Offset: start}, nil

	case l.ch == '*':
		l.readChar()
		return token.Token{Type: token.STAR, Lexeme: "*", Offset: start}, nil

	case l.ch == '/':
		l.readChar()
		return token.Token{Type: token.SLASH, Lexeme: "/", Offset: start}, nil

	case l.ch == '^':
		l.readChar()
		return token.Token{Type: token.CARET, Lexeme: "^", Offset: start}, nil

	case l.ch == '(':
		l.readChar()
		return token.Token{Type: token.LPAREN, Lexeme: "(", Offset: start}, nil

	case l.ch == ')':
		l.readChar()
		return token.Token{Type: token.RPAREN, Lexeme: ")", Offset: start}, nil

	case l.ch == ',':
		l.readChar()
		return token.Token{Type: token.COMMA, Lexeme: ",", Offset: start}, nil

	default:
		ch := l.ch
		l.readChar()
		return token.Token{}, errors.NewAt(errors.LexError, "", start, fmt.Sprintf("unknown character %q", ch))
	}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

func (l *Lexer) readNumber() (token.Token, error) {
	start := l.position
	var sb strings.Builder
	for isDigit(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == '.' {
		if !isDigit(l.peekChar()) {
			return token.Token{}, errors.NewAt(errors.LexError, "", start, "malformed number: trailing '.'")
		}
		sb.WriteRune('.')
		l.readChar()
		for isDigit(l.ch) {
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
	return token.Token{Type: token.NUMBER, Lexeme: sb.String(), Offset: start}, nil
}

func (l *Lexer) readIdentifier() (token.Token, error) {
	start := l.position
	var sb strings.Builder
	for isIdentPart(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	lexeme := sb.String()
	if token.Keywords[strings.ToLower(lexeme)] {
		return token.Token{Type: token.KEYWORD, Lexeme: lexeme, Offset: start}, nil
	}
	return token.Token{Type: token.IDENT, Lexeme: lexeme, Offset: start}, nil
}

func (l *Lexer) readString() (token.Token, error) {
	start := l.position
	l.readChar() // consume opening quote
	var sb strings.Builder
	for {
		if l.ch == 0 {
			return token.Token{}, errors.NewAt(errors.LexError, "", start, "unterminated string literal")
		}
		if l.ch == '\'' {
			l.readChar()
			break
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case '\\':
				sb.WriteRune('\\')
			case '\'':
				sb.WriteRune('\'')
			case 'n':
				sb.WriteRune('\n')
			default:
				return token.Token{}, errors.NewAt(errors.LexError, "", start, fmt.Sprintf("unknown escape sequence \\%c", l.ch))
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	return token.Token{Type: token.STRING, Lexeme: sb.String(), Offset: start}, nil
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// Tokenize scans the entire source into a slice terminated by an EOF
// token, for callers (and tests) that prefer eager tokenization over
// the lazy Next() interface.
func Tokenize(src string) ([]token.Token, error) {
	l := New(src)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks, nil
}
