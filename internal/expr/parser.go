package expr

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind enumerates lexer token types.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent
	tokenNumber
	tokenString
	tokenOp
	tokenLParen
	tokenRParen
	tokenComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// lexer splits an expression into tokens.
type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '(':
		l.pos++
		return token{kind: tokenLParen, text: "(", pos: start}, nil
	case ch == ')':
		l.pos++
		return token{kind: tokenRParen, text: ")", pos: start}, nil
	case ch == ',':
		l.pos++
		return token{kind: tokenComma, text: ",", pos: start}, nil
	case strings.ContainsRune("+-*/%", rune(ch)):
		l.pos++
		return token{kind: tokenOp, text: string(ch), pos: start}, nil
	case ch == '\'' || ch == '"':
		quote := ch
		l.pos++
		var sb strings.Builder
		for l.pos < len(l.input) && l.input[l.pos] != quote {
			sb.WriteByte(l.input[l.pos])
			l.pos++
		}
		if l.pos >= len(l.input) {
			return token{}, fmt.Errorf("unterminated string literal at position %d", start)
		}
		l.pos++ // closing quote
		return token{kind: tokenString, text: sb.String(), pos: start}, nil
	case ch >= '0' && ch <= '9' || ch == '.':
		for l.pos < len(l.input) && (l.input[l.pos] >= '0' && l.input[l.pos] <= '9' || l.input[l.pos] == '.') {
			l.pos++
		}
		return token{kind: tokenNumber, text: l.input[start:l.pos], pos: start}, nil
	case unicode.IsLetter(rune(ch)) || ch == '_':
		for l.pos < len(l.input) {
			r := rune(l.input[l.pos])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			l.pos++
		}
		return token{kind: tokenIdent, text: l.input[start:l.pos], pos: start}, nil
	default:
		return token{}, fmt.Errorf("unexpected character %q at position %d", ch, start)
	}
}

// parser is a recursive-descent parser over the grammar:
//
//	expr    := term (('+'|'-') term)*
//	term    := factor (('*'|'/'|'%') factor)*
//	factor  := '-' factor | primary
//	primary := NUMBER | STRING | IDENT | IDENT '(' args ')' | '(' expr ')'
type parser struct {
	lex  *lexer
	tok  token
	err  error
}

// Parse parses an expression string into an AST.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	p := &parser{lex: &lexer{input: input}}
	p.advance()
	if p.err != nil {
		return nil, p.err
	}

	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokenEOF {
		return nil, fmt.Errorf("unexpected %q at position %d", p.tok.text, p.tok.pos)
	}
	return e, nil
}

func (p *parser) advance() {
	p.tok, p.err = p.lex.next()
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokenOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := OpAdd
		if p.tok.text == "-" {
			op = OpSub
		}
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = Bin(left, op, right)
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokenOp && (p.tok.text == "*" || p.tok.text == "/" || p.tok.text == "%") {
		var op BinaryOp
		switch p.tok.text {
		case "*":
			op = OpMul
		case "/":
			op = OpDiv
		default:
			op = OpMod
		}
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = Bin(left, op, right)
	}
	return left, nil
}

func (p *parser) parseFactor() (Expr, error) {
	if p.tok.kind == tokenOp && p.tok.text == "-" {
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return Neg(operand), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.tok
	switch tok.kind {
	case tokenNumber:
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		return numberLit(tok.text)
	case tokenString:
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		return Lit(tok.text), nil
	case tokenIdent:
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		if p.tok.kind != tokenLParen {
			return Col(tok.text), nil
		}
		return p.parseCall(tok.text)
	case tokenLParen:
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokenRParen {
			return nil, fmt.Errorf("expected ')' at position %d", p.tok.pos)
		}
		p.advance()
		if p.err != nil {
			return nil, p.err
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("unexpected %q at position %d", tok.text, tok.pos)
	}
}

func (p *parser) parseCall(name string) (Expr, error) {
	// current token is '('
	p.advance()
	if p.err != nil {
		return nil, p.err
	}

	var args []Expr
	if p.tok.kind != tokenRParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.kind != tokenComma {
				break
			}
			p.advance()
			if p.err != nil {
				return nil, p.err
			}
		}
	}
	if p.tok.kind != tokenRParen {
		return nil, fmt.Errorf("expected ')' after arguments of %s", name)
	}
	p.advance()
	if p.err != nil {
		return nil, p.err
	}
	return Call(name, args...), nil
}
