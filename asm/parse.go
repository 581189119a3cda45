package asm

import "io89/i89"

// ParsedLine is the resolved form of a scanned line: a directive or an
// instruction (or neither, for blank and label-only lines) plus parsed
// operand values. Rebuilt every line on every pass, since operand
// values may differ between passes.
type ParsedLine struct {
	dir  *directive
	ins  *i89.Instruction
	name string
	ops  []i89.Operand
}

func (a *Assembler) defineLabel(line int, name string) error {
	if err := a.Symbols.Set(name, a.Symbols.Loc(), a.pass == 2); err != nil {
		return errorf(line, PhaseError, "%v", err)
	}
	return nil
}

// parseLine resolves the mnemonic against the directive table first and
// the instruction set second, applies the label/name placement rule and
// parses the operands.
func (a *Assembler) parseLine(s *ScannedLine) (*ParsedLine, error) {
	if s.Mnemonic == "" {
		if s.Label == "" {
			return nil, nil
		}
		if !s.Colon {
			return nil, errorf(s.Line, StructuralError, "label without colon: %s", s.Label)
		}
		if err := a.defineLabel(s.Line, s.Label); err != nil {
			return nil, err
		}
		return nil, nil
	}

	p := &ParsedLine{}
	nameRequired := false
	labelAllowed := true
	if d, ok := directives[s.Mnemonic]; ok {
		p.dir = d
		nameRequired = d.nameRequired
		labelAllowed = d.labelAllowed
	} else if ins, ok := i89.Lookup(s.Mnemonic); ok {
		p.ins = ins
	} else {
		return nil, errorf(s.Line, StructuralError, "unknown mnemonic: %s", s.Mnemonic)
	}

	switch {
	case s.Label != "" && s.Colon:
		if !labelAllowed {
			return nil, errorf(s.Line, StructuralError, "label not allowed before %s", s.Mnemonic)
		}
		if err := a.defineLabel(s.Line, s.Label); err != nil {
			return nil, err
		}
	case s.Label != "":
		if !nameRequired {
			return nil, errorf(s.Line, StructuralError, "label without colon: %s", s.Label)
		}
		p.name = s.Label
	default:
		if nameRequired {
			return nil, errorf(s.Line, StructuralError, "%s requires a name", s.Mnemonic)
		}
	}

	tolerant := a.pass == 1 && (p.dir == nil || !p.dir.staticExpr)
	for _, raw := range s.Operands {
		op, err := a.parseOperand(raw, tolerant)
		if err != nil {
			return nil, err
		}
		p.ops = append(p.ops, op)
	}
	return p, nil
}
