package asm

import (
	"fmt"
	"strconv"

	"github.com/japanoise/numparse"
)

// UndefinedSymbolError reports a reference to a symbol with no recorded
// value. During pass 1 callers may substitute 0 for it; during pass 2 it
// is always fatal.
type UndefinedSymbolError struct {
	Name string
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("undefined symbol: %s", e.Name)
}

// symbolGetter is the environment an expression evaluates against.
// *SymbolTable satisfies it directly.
type symbolGetter interface {
	Get(name string) (int, bool)
}

// Expr is a parsed arithmetic expression, evaluated against a symbol
// environment.
type Expr interface {
	Eval(sg symbolGetter) (int, error)
}

type numExpr int

func (n numExpr) Eval(symbolGetter) (int, error) {
	return int(n), nil
}

type symExpr string

func (s symExpr) Eval(sg symbolGetter) (int, error) {
	v, ok := sg.Get(string(s))
	if !ok {
		return 0, &UndefinedSymbolError{Name: string(s)}
	}
	return v, nil
}

type unaryExpr struct {
	op byte
	x  Expr
}

func (u *unaryExpr) Eval(sg symbolGetter) (int, error) {
	v, err := u.x.Eval(sg)
	if err != nil {
		return 0, err
	}
	switch u.op {
	case '-':
		return -v, nil
	case '~':
		return ^v, nil
	}
	panic("unknown unary operator")
}

type binaryExpr struct {
	op       string
	lhs, rhs Expr
}

func (b *binaryExpr) Eval(sg symbolGetter) (int, error) {
	l, err := b.lhs.Eval(sg)
	if err != nil {
		return 0, err
	}
	r, err := b.rhs.Eval(sg)
	if err != nil {
		return 0, err
	}
	switch b.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l % r, nil
	case "<<":
		return l << uint(r), nil
	case ">>":
		return l >> uint(r), nil
	case "&":
		return l & r, nil
	case "|":
		return l | r, nil
	case "^":
		return l ^ r, nil
	}
	panic("unknown binary operator")
}

type exprParser struct {
	input string
	pos   int
}

// ParseExpr parses an arithmetic expression. Malformed input is an
// expression syntax error, fatal in both passes.
func ParseExpr(s string) (Expr, error) {
	if s == "" {
		return nil, fmt.Errorf("empty expression")
	}
	p := &exprParser{input: s}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected character '%c' in expression: %s",
			p.input[p.pos], s)
	}
	return e, nil
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *exprParser) peekTwo() string {
	if p.pos+1 < len(p.input) {
		return p.input[p.pos : p.pos+2]
	}
	return ""
}

func (p *exprParser) parseOr() (Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.peek() == '|' {
		p.pos++
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: "|", lhs: left, rhs: right}
	}
	return left, nil
}

func (p *exprParser) parseXor() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek() == '^' {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: "^", lhs: left, rhs: right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for p.peek() == '&' {
		p.pos++
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: "&", lhs: left, rhs: right}
	}
	return left, nil
}

func (p *exprParser) parseShift() (Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		tw := p.peekTwo()
		if tw != "<<" && tw != ">>" {
			return left, nil
		}
		p.pos += 2
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: tw, lhs: left, rhs: right}
	}
}

func (p *exprParser) parseAdd() (Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		c := p.peek()
		if c != '+' && c != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: string(c), lhs: left, rhs: right}
	}
}

func (p *exprParser) parseMul() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		c := p.peek()
		if c != '*' && c != '/' && c != '%' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: string(c), lhs: left, rhs: right}
	}
}

func (p *exprParser) parseUnary() (Expr, error) {
	c := p.peek()
	if c == '-' || c == '~' {
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: c, x: x}, nil
	}
	return p.parseAtom()
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || isDigit(c) || c == '?' || c == '_' || c == '@'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func (p *exprParser) parseAtom() (Expr, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, fmt.Errorf("missing ')' in expression: %s", p.input)
		}
		p.pos++
		return e, nil
	case c == '$':
		p.pos++
		return symExpr(LocationSymbol), nil
	case isDigit(c):
		start := p.pos
		for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
			p.pos++
		}
		tok := p.input[start:p.pos]
		if allDigits(tok) {
			// plain decimal; numparse would read the leading 0 of "0"
			// itself as an octal prefix and choke on the empty rest
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("bad number: %s", tok)
			}
			return numExpr(v), nil
		}
		v, err := numparse.UNumParse(tok)
		if err != nil {
			return nil, fmt.Errorf("bad number: %s", tok)
		}
		return numExpr(int(v)), nil
	case isIdentChar(c):
		start := p.pos
		for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
			p.pos++
		}
		return symExpr(p.input[start:p.pos]), nil
	}
	return nil, fmt.Errorf("expected operand in expression: %s", p.input)
}
