package asm

import "io89/i89"

// directive is one entry of the closed directive table. nameRequired
// demands a name argument (a first-column identifier without a colon),
// labelAllowed permits an ordinary label definition, and staticExpr
// forbids forward references in the operands even during pass 1.
type directive struct {
	name         string
	nameRequired bool
	labelAllowed bool
	staticExpr   bool
	process      func(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error)
}

var directives = map[string]*directive{}

// populated here rather than in the literal: the process functions look
// their own entries up, which would otherwise cycle at initialization
func init() {
	for _, d := range []*directive{
		{name: "equ", nameRequired: true, process: processEqu},
		{name: "org", staticExpr: true, process: processOrg},
		{name: "ds", labelAllowed: true, process: processDs},
		{name: "db", labelAllowed: true, process: processDb},
		{name: "dw", labelAllowed: true, process: processDw},
		{name: "struc", nameRequired: true, process: processStruc},
		{name: "ends", nameRequired: true, process: processEnds},
		{name: "fill", labelAllowed: true, staticExpr: true, process: processFill},

		// recognized but unimplemented: accepted by the grammar, but
		// any line that reaches process fails
		{name: "dd", labelAllowed: true, process: processUnimplemented},
		{name: "end", process: processUnimplemented},
		{name: "even", labelAllowed: true, process: processUnimplemented},
		{name: "extrn", process: processUnimplemented},
		{name: "name", process: processUnimplemented},
		{name: "public", process: processUnimplemented},
		{name: "segment", nameRequired: true, process: processUnimplemented},
	} {
		directives[d.name] = d
	}
}

func (a *Assembler) wantOperands(s *ScannedLine, d *directive, ops []i89.Operand, min, max int) error {
	if len(ops) < min || (max >= 0 && len(ops) > max) {
		return errorf(s.Line, StructuralError, "wrong operand count for %s", d.name)
	}
	for _, op := range ops {
		if op.Kind != i89.ImmOperand {
			return errorf(s.Line, StructuralError, "%s operand must be an expression", d.name)
		}
	}
	return nil
}

func processEqu(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error) {
	if err := a.wantOperands(s, directives["equ"], ops, 1, 1); err != nil {
		return nil, err
	}
	if err := a.Symbols.Set(name, ops[0].Value, a.pass == 2); err != nil {
		return nil, errorf(s.Line, PhaseError, "%v", err)
	}
	return nil, nil
}

func processOrg(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error) {
	if err := a.wantOperands(s, directives["org"], ops, 1, 1); err != nil {
		return nil, err
	}
	// no phase check: only the pass-2 address is ever emitted against
	a.Symbols.SetLoc(ops[0].Value)
	return nil, nil
}

func processDs(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error) {
	if err := a.wantOperands(s, directives["ds"], ops, 1, 1); err != nil {
		return nil, err
	}
	a.Symbols.SetLoc(a.Symbols.Loc() + ops[0].Value)
	return nil, nil
}

func processDb(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error) {
	if err := a.wantOperands(s, directives["db"], ops, 1, -1); err != nil {
		return nil, err
	}
	data := make([]byte, len(ops))
	for i, op := range ops {
		data[i] = byte(op.Value)
	}
	return data, nil
}

func processDw(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error) {
	if err := a.wantOperands(s, directives["dw"], ops, 1, -1); err != nil {
		return nil, err
	}
	data := make([]byte, 2*len(ops))
	for i, op := range ops {
		// undefined data check disabled: pass-2 expression evaluation
		// already rejects undefined symbols before reaching here, so a
		// placeholder can only carry through pass 1, where nothing is
		// written anyway
		// if a.pass == 2 && op.Undefined {
		// 	return nil, errorf(s.Line, ResolutionError, "undefined data in dw")
		// }
		data[2*i] = byte(op.Value)
		data[2*i+1] = byte(op.Value >> 8)
	}
	return data, nil
}

func processStruc(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error) {
	if err := a.wantOperands(s, directives["struc"], ops, 0, 0); err != nil {
		return nil, err
	}
	if a.strucOpen {
		return nil, errorf(s.Line, StructuralError,
			"invalid struc nesting: %s opened inside %s", name, a.strucName)
	}
	a.strucOpen = true
	a.strucName = name
	a.strucSaved = a.Symbols.Loc()
	// member offsets are computed from 0
	a.Symbols.SetLoc(0)
	return nil, nil
}

func processEnds(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error) {
	if err := a.wantOperands(s, directives["ends"], ops, 0, 0); err != nil {
		return nil, err
	}
	if !a.strucOpen {
		return nil, errorf(s.Line, StructuralError, "invalid struc nesting: %s was never opened", name)
	}
	if name != a.strucName {
		return nil, errorf(s.Line, StructuralError,
			"invalid struc nesting: ends %s does not match struc %s", name, a.strucName)
	}
	a.strucOpen = false
	a.Symbols.SetLoc(a.strucSaved)
	return nil, nil
}

func processFill(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error) {
	if err := a.wantOperands(s, directives["fill"], ops, 2, 2); err != nil {
		return nil, err
	}
	count := ops[0].Value - a.Symbols.Loc()
	if count < 0 {
		return nil, errorf(s.Line, StructuralError,
			"fill target %04xh is behind current address %04xh", ops[0].Value, a.Symbols.Loc())
	}
	data := make([]byte, count)
	for i := range data {
		data[i] = byte(ops[1].Value)
	}
	return data, nil
}

func processUnimplemented(a *Assembler, s *ScannedLine, name string, ops []i89.Operand) ([]byte, error) {
	return nil, errorf(s.Line, StructuralError, "unimplemented directive: %s", s.Mnemonic)
}
