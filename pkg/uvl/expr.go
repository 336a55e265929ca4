package uvl

import (
	"strings"

	"github.com/uvlkit/uvlkit/pkg/errors"
	"github.com/uvlkit/uvlkit/pkg/fm"
)

// Constraint expressions are parsed by a small recursive-descent parser over
// a hand-rolled token stream. Precedence, loosest first:
//
//	equiv   ::= implies { '<=>' implies }
//	implies ::= or [ '=>' implies ]          (right-associative)
//	or      ::= and { '|' and }
//	and     ::= unary { '&' unary }
//	unary   ::= '!' unary | '(' equiv ')' | name
type tokenKind int

const (
	tokName tokenKind = iota
	tokNot
	tokAnd
	tokOr
	tokImplies
	tokEquiv
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string // feature name for tokName
}

// lexer tokenizes one line of UVL (a constraint or a feature declaration).
type lexer struct {
	s    string
	pos  int
	line int
}

func newLexer(s string, line int) *lexer {
	return &lexer{s: s, line: line}
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.s) && (lx.s[lx.pos] == ' ' || lx.s[lx.pos] == '\t') {
		lx.pos++
	}
}

// rest returns the unconsumed remainder of the line.
func (lx *lexer) rest() string { return lx.s[lx.pos:] }

// bareNameEnd characters terminate an unquoted name.
const bareNameEnd = " \t(){}[]!&|=<>"

// name consumes a feature name, quoted or bare.
func (lx *lexer) name() (string, error) {
	lx.skipSpace()
	if lx.pos >= len(lx.s) {
		return "", errors.New(errors.ErrCodeMalformedModel,
			"line %d: expected feature name", lx.line)
	}

	if lx.s[lx.pos] == '"' {
		end := strings.IndexByte(lx.s[lx.pos+1:], '"')
		if end < 0 {
			return "", errors.New(errors.ErrCodeMalformedModel,
				"line %d: unterminated quoted name", lx.line)
		}
		name := lx.s[lx.pos+1 : lx.pos+1+end]
		lx.pos += end + 2
		if name == "" {
			return "", errors.New(errors.ErrCodeMalformedModel,
				"line %d: empty quoted name", lx.line)
		}
		return name, nil
	}

	start := lx.pos
	for lx.pos < len(lx.s) && !strings.ContainsRune(bareNameEnd, rune(lx.s[lx.pos])) {
		lx.pos++
	}
	if lx.pos == start {
		return "", errors.New(errors.ErrCodeMalformedModel,
			"line %d: expected feature name at %q", lx.line, lx.rest())
	}
	return lx.s[start:lx.pos], nil
}

// next consumes and returns the next token.
func (lx *lexer) next() (token, error) {
	lx.skipSpace()
	if lx.pos >= len(lx.s) {
		return token{kind: tokEOF}, nil
	}

	switch c := lx.s[lx.pos]; c {
	case '(':
		lx.pos++
		return token{kind: tokLParen}, nil
	case ')':
		lx.pos++
		return token{kind: tokRParen}, nil
	case '!':
		lx.pos++
		return token{kind: tokNot}, nil
	case '&':
		lx.pos++
		return token{kind: tokAnd}, nil
	case '|':
		lx.pos++
		return token{kind: tokOr}, nil
	case '=':
		if strings.HasPrefix(lx.rest(), "=>") {
			lx.pos += 2
			return token{kind: tokImplies}, nil
		}
		return token{}, errors.New(errors.ErrCodeMalformedModel,
			"line %d: unexpected %q (did you mean \"=>\"?)", lx.line, lx.rest())
	case '<':
		if strings.HasPrefix(lx.rest(), "<=>") {
			lx.pos += 3
			return token{kind: tokEquiv}, nil
		}
		return token{}, errors.New(errors.ErrCodeMalformedModel,
			"line %d: unexpected %q (did you mean \"<=>\"?)", lx.line, lx.rest())
	default:
		name, err := lx.name()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokName, text: name}, nil
	}
}

// exprParser holds one token of lookahead over the lexer.
type exprParser struct {
	lx   *lexer
	cur  token
	line int
}

// parseExpr parses a full constraint line into an expression.
func parseExpr(text string, line int) (fm.Expr, error) {
	p := &exprParser{lx: newLexer(text, line), line: line}
	if err := p.advance(); err != nil {
		return nil, err
	}

	e, err := p.equiv()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, errors.New(errors.ErrCodeMalformedModel,
			"line %d: unexpected trailing input in constraint", line)
	}
	return e, nil
}

func (p *exprParser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *exprParser) equiv() (fm.Expr, error) {
	l, err := p.implies()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokEquiv {
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.implies()
		if err != nil {
			return nil, err
		}
		l = fm.Equiv{L: l, R: r}
	}
	return l, nil
}

func (p *exprParser) implies() (fm.Expr, error) {
	l, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.cur.kind == tokImplies {
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.implies()
		if err != nil {
			return nil, err
		}
		return fm.Implies{L: l, R: r}, nil
	}
	return l, nil
}

func (p *exprParser) or() (fm.Expr, error) {
	l, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.and()
		if err != nil {
			return nil, err
		}
		l = fm.Or{L: l, R: r}
	}
	return l, nil
}

func (p *exprParser) and() (fm.Expr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = fm.And{L: l, R: r}
	}
	return l, nil
}

func (p *exprParser) unary() (fm.Expr, error) {
	switch p.cur.kind {
	case tokNot:
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return fm.Not{X: x}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.equiv()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, errors.New(errors.ErrCodeMalformedModel,
				"line %d: missing closing parenthesis", p.line)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return e, nil

	case tokName:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return fm.Var(name), nil

	default:
		return nil, errors.New(errors.ErrCodeMalformedModel,
			"line %d: unexpected token in constraint", p.line)
	}
}
