package asm

import (
	"errors"
	"regexp"
	"strings"

	"io89/i89"
)

// memory reference: [base](+ix[+])?(.offset)?
// The base register alternatives belong to the instruction set.
var memRefRe = regexp.MustCompile(
	`^\[(` + strings.Join(i89.PtrNames(), "|") + `)\](\+ix(\+)?)?(\.(.+))?$`)

// parseOperand classifies one raw operand substring. Memory references
// are recognized first (they always start with '['), then plain
// register names, then everything else falls through to expression
// evaluation. tolerant allows undefined symbols to stand in as 0, which
// is only ever permitted during pass 1.
func (a *Assembler) parseOperand(raw string, tolerant bool) (i89.Operand, error) {
	if m := memRefRe.FindStringSubmatch(raw); m != nil {
		base, _ := i89.LookupPtr(m[1])
		op := i89.Operand{
			Kind: i89.MemOperand,
			Mem: i89.Mem{
				Base:    base,
				Indexed: m[2] != "",
				AutoInc: m[3] == "+",
			},
		}
		if m[4] != "" {
			v, undef, err := a.evalOperandExpr(m[5], tolerant)
			if err != nil {
				return i89.Operand{}, err
			}
			op.Mem.HasOffset = true
			op.Mem.Offset = v
			op.Undefined = undef
		}
		return op, nil
	}

	if r, ok := i89.LookupReg(raw); ok {
		return i89.Operand{Kind: i89.RegOperand, Reg: r}, nil
	}

	v, undef, err := a.evalOperandExpr(raw, tolerant)
	if err != nil {
		return i89.Operand{}, err
	}
	return i89.Operand{Kind: i89.ImmOperand, Value: v, Undefined: undef}, nil
}

// tolerantLookup substitutes 0 for undefined symbols and remembers
// whether any substitution happened.
type tolerantLookup struct {
	symbols *SymbolTable
	missed  bool
}

func (l *tolerantLookup) Get(name string) (int, bool) {
	v, ok := l.symbols.Get(name)
	if !ok {
		l.missed = true
		return 0, true
	}
	return v, true
}

// evalOperandExpr parses and evaluates an expression operand. The
// returned flag marks a pass-1 placeholder value computed with
// still-undefined symbols standing in as 0.
func (a *Assembler) evalOperandExpr(text string, tolerant bool) (int, bool, error) {
	e, err := ParseExpr(text)
	if err != nil {
		return 0, false, errorf(a.lineNum, SyntaxError, "%v", err)
	}
	if tolerant {
		lk := &tolerantLookup{symbols: a.Symbols}
		v, err := e.Eval(lk)
		if err != nil {
			return 0, false, errorf(a.lineNum, SyntaxError, "%v", err)
		}
		return v, lk.missed, nil
	}
	v, err := e.Eval(a.Symbols)
	if err != nil {
		var undef *UndefinedSymbolError
		if errors.As(err, &undef) {
			return 0, false, errorf(a.lineNum, ResolutionError, "%v", err)
		}
		return 0, false, errorf(a.lineNum, SyntaxError, "%v", err)
	}
	return v, false, nil
}
