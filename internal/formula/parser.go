package formula

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseError reports a malformed formula with the offending position.
type ParseError struct {
	Formula string
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed formula %q at offset %d: %s", e.Formula, e.Pos, e.Message)
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenOp
	tokenLParen
	tokenRParen
	tokenIf
	tokenElse
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse compiles a formula into an expression tree.
func Parse(src string) (Expr, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, tokens: tokens}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, p.errorf(tok, "unexpected %q", tok.text)
	}
	return expr, nil
}

// MustParse is a test helper; it panics on malformed formulas.
func MustParse(src string) Expr {
	expr, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return expr
}

func lex(src string) ([]token, error) {
	var tokens []token

	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && src[i] >= '0' && src[i] <= '9' {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && src[i] >= '0' && src[i] <= '9' {
					i++
				}
			}
			tokens = append(tokens, token{tokenNumber, src[start:i], start})
		case isIdentStart(rune(c)):
			start := i
			for i < len(src) && isIdentPart(rune(src[i])) {
				i++
			}
			word := src[start:i]
			switch word {
			case "if":
				tokens = append(tokens, token{tokenIf, word, start})
			case "else":
				tokens = append(tokens, token{tokenElse, word, start})
			default:
				tokens = append(tokens, token{tokenIdent, word, start})
			}
		case strings.ContainsRune("+-*/", rune(c)):
			tokens = append(tokens, token{tokenOp, string(c), i})
			i++
		case c == '(':
			tokens = append(tokens, token{tokenLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokenRParen, ")", i})
			i++
		case c == '<' || c == '>':
			op := string(c)
			if i+1 < len(src) && src[i+1] == '=' {
				op += "="
				i++
			}
			tokens = append(tokens, token{tokenOp, op, i - len(op) + 1})
			i++
		case c == '=' || c == '!':
			if i+1 >= len(src) || src[i+1] != '=' {
				return nil, &ParseError{src, i, fmt.Sprintf("unexpected character %q", c)}
			}
			tokens = append(tokens, token{tokenOp, string(c) + "=", i})
			i += 2
		default:
			return nil, &ParseError{src, i, fmt.Sprintf("unexpected character %q", c)}
		}
	}

	tokens = append(tokens, token{tokenEOF, "", len(src)})
	return tokens, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

type parser struct {
	src    string
	tokens []token
	next   int
}

func (p *parser) peek() token {
	return p.tokens[p.next]
}

func (p *parser) advance() token {
	tok := p.tokens[p.next]
	if tok.kind != tokenEOF {
		p.next++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &ParseError{p.src, tok.pos, fmt.Sprintf(format, args...)}
}

// expr := comparison ("if" comparison "else" expr)?
func (p *parser) parseExpr() (Expr, error) {
	then, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	if p.peek().kind != tokenIf {
		return then, nil
	}
	p.advance()

	cond, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokenElse {
		return nil, p.errorf(tok, "expected else, got %q", tok.text)
	}
	p.advance()

	alt, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return Conditional{Cond: cond, Then: then, Else: alt}, nil
}

// comparison := additive (("<"|"<="|">"|">="|"=="|"!=") additive)?
func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.kind == tokenOp && isComparisonOp(tok.text) {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return Binary{Op: tok.text, Left: left, Right: right}, nil
	}

	return left, nil
}

func isComparisonOp(op string) bool {
	switch op {
	case "<", "<=", ">", ">=", "==", "!=":
		return true
	}
	return false
}

// additive := multiplicative (("+"|"-") multiplicative)*
func (p *parser) parseAdditive() (Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokenOp || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.advance()

		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: tok.text, Left: left, Right: right}
	}
}

// multiplicative := unary (("*"|"/") unary)*
func (p *parser) parseMultiplicative() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokenOp || (tok.text != "*" && tok.text != "/") {
			return left, nil
		}
		p.advance()

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: tok.text, Left: left, Right: right}
	}
}

// unary := "-" unary | primary
func (p *parser) parseUnary() (Expr, error) {
	if tok := p.peek(); tok.kind == tokenOp && tok.text == "-" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Operand: operand}, nil
	}
	return p.parsePrimary()
}

// primary := NUMBER | IDENT | "(" expr ")"
func (p *parser) parsePrimary() (Expr, error) {
	tok := p.advance()
	switch tok.kind {
	case tokenNumber:
		value, err := decimal.NewFromString(tok.text)
		if err != nil {
			return nil, p.errorf(tok, "invalid number %q", tok.text)
		}
		return Literal{Value: value}, nil
	case tokenIdent:
		return Ref{Name: tok.text}, nil
	case tokenLParen:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.peek(); closing.kind != tokenRParen {
			return nil, p.errorf(closing, "expected ), got %q", closing.text)
		}
		p.advance()
		return expr, nil
	case tokenEOF:
		return nil, p.errorf(tok, "unexpected end of formula")
	default:
		return nil, p.errorf(tok, "unexpected %q", tok.text)
	}
}
