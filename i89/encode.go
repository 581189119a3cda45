package i89

import (
	"errors"
	"fmt"
)

var (
	ErrNoMatchingForm    = errors.New("no matching form")
	ErrOperandOutOfRange = errors.New("operand out of range")
)

// argKind describes one slot of an instruction form.
type argKind int

const (
	argReg  argKind = iota // general register
	argMem                 // memory reference
	argImm                 // immediate expression
	argBit                 // bit number 0-7, goes in the register field
	argDisp                // branch target, encoded as a signed displacement
)

// form is one legal operand shape of an instruction. The first byte of
// every encoding is reg<<5 | wb<<3 | aa<<1 | w and the second is
// opcode<<2 | mm, followed by an optional offset byte and wb literal
// bytes, all little-endian. Displacement literals are one byte each;
// the remaining literal bytes are divided among the immediates.
type form struct {
	args   []argKind
	opcode byte // six bits
	w      byte // 0 = byte operation, 1 = word operation
	wb     byte // literal bytes following the base instruction
}

// Instruction is a mnemonic and its legal forms.
type Instruction struct {
	Name  string
	Forms []form
}

var mnemonics = map[string]*Instruction{}

func def(name string, w byte, forms ...form) {
	for i := range forms {
		forms[i].w = w
	}
	mnemonics[name] = &Instruction{Name: name, Forms: forms}
}

func init() {
	// control
	def("nop", 0, form{args: nil, opcode: 0x00})
	def("hlt", 0, form{args: nil, opcode: 0x01})
	def("sintr", 0, form{args: nil, opcode: 0x02})
	def("xfer", 0, form{args: nil, opcode: 0x03})
	def("wid", 0, form{args: []argKind{argImm, argImm}, opcode: 0x04, wb: 2})

	// data transfer
	def("mov", 1,
		form{args: []argKind{argReg, argMem}, opcode: 0x08},
		form{args: []argKind{argMem, argReg}, opcode: 0x09})
	def("movb", 0,
		form{args: []argKind{argReg, argMem}, opcode: 0x08},
		form{args: []argKind{argMem, argReg}, opcode: 0x09})
	def("movi", 1,
		form{args: []argKind{argReg, argImm}, opcode: 0x0c, wb: 2},
		form{args: []argKind{argMem, argImm}, opcode: 0x0d, wb: 2})
	def("movbi", 0,
		form{args: []argKind{argReg, argImm}, opcode: 0x0c, wb: 1},
		form{args: []argKind{argMem, argImm}, opcode: 0x0d, wb: 1})
	def("lpd", 1, form{args: []argKind{argReg, argMem}, opcode: 0x10})
	def("lpdi", 1, form{args: []argKind{argReg, argImm}, opcode: 0x11, wb: 2})

	// arithmetic and logic
	defALU := func(word, byteOp string, base byte) {
		def(word, 1,
			form{args: []argKind{argReg, argMem}, opcode: base},
			form{args: []argKind{argMem, argReg}, opcode: base + 1})
		def(byteOp, 0,
			form{args: []argKind{argReg, argMem}, opcode: base},
			form{args: []argKind{argMem, argReg}, opcode: base + 1})
		def(word+"i", 1,
			form{args: []argKind{argReg, argImm}, opcode: base + 2, wb: 2},
			form{args: []argKind{argMem, argImm}, opcode: base + 3, wb: 2})
		def(byteOp+"i", 0,
			form{args: []argKind{argReg, argImm}, opcode: base + 2, wb: 1},
			form{args: []argKind{argMem, argImm}, opcode: base + 3, wb: 1})
	}
	defALU("add", "addb", 0x14)
	defALU("and", "andb", 0x18)
	defALU("or", "orb", 0x1c)
	def("not", 1,
		form{args: []argKind{argReg}, opcode: 0x20},
		form{args: []argKind{argMem}, opcode: 0x21})
	def("notb", 0,
		form{args: []argKind{argReg}, opcode: 0x20},
		form{args: []argKind{argMem}, opcode: 0x21})
	def("inc", 1,
		form{args: []argKind{argReg}, opcode: 0x22},
		form{args: []argKind{argMem}, opcode: 0x23})
	def("incb", 0,
		form{args: []argKind{argMem}, opcode: 0x23})
	def("dec", 1,
		form{args: []argKind{argReg}, opcode: 0x24},
		form{args: []argKind{argMem}, opcode: 0x25})
	def("decb", 0,
		form{args: []argKind{argMem}, opcode: 0x25})

	// bit manipulation
	def("setb", 0, form{args: []argKind{argMem, argBit}, opcode: 0x26})
	def("clr", 0, form{args: []argKind{argMem, argBit}, opcode: 0x27})

	// transfers of control
	def("jmp", 0, form{args: []argKind{argDisp}, opcode: 0x28, wb: 1})
	def("call", 1, form{args: []argKind{argMem, argDisp}, opcode: 0x29, wb: 1})
	def("jz", 1,
		form{args: []argKind{argReg, argDisp}, opcode: 0x2a, wb: 1},
		form{args: []argKind{argMem, argDisp}, opcode: 0x2b, wb: 1})
	def("jnz", 1,
		form{args: []argKind{argReg, argDisp}, opcode: 0x2c, wb: 1},
		form{args: []argKind{argMem, argDisp}, opcode: 0x2d, wb: 1})
	def("jbt", 0, form{args: []argKind{argMem, argBit, argDisp}, opcode: 0x2e, wb: 1})
	def("jnbt", 0, form{args: []argKind{argMem, argBit, argDisp}, opcode: 0x2f, wb: 1})
	def("tsl", 0, form{args: []argKind{argMem, argImm, argDisp}, opcode: 0x30, wb: 2})
}

// Lookup resolves a mnemonic by its lower-case name.
func Lookup(name string) (*Instruction, bool) {
	ins, ok := mnemonics[name]
	return ins, ok
}

func (f *form) matches(ops []Operand) bool {
	if len(ops) != len(f.args) {
		return false
	}
	for i, a := range f.args {
		switch a {
		case argReg:
			if ops[i].Kind != RegOperand {
				return false
			}
		case argMem:
			if ops[i].Kind != MemOperand {
				return false
			}
		case argImm, argBit, argDisp:
			if ops[i].Kind != ImmOperand {
				return false
			}
		}
	}
	return true
}

// immWidth is the literal width of each immediate slot in the form.
func (f *form) immWidth() int {
	imms, disps := 0, 0
	for _, a := range f.args {
		switch a {
		case argImm:
			imms++
		case argDisp:
			disps++
		}
	}
	if imms == 0 {
		return 0
	}
	return (int(f.wb) - disps) / imms
}

func (f *form) size(ops []Operand) int {
	n := 2 + int(f.wb)
	for i, a := range f.args {
		if a == argMem && ops[i].Mem.HasOffset {
			n++
		}
	}
	return n
}

// Encode produces the byte sequence for ins at addr given already-parsed
// operands. Branch displacements are relative to the end of the
// instruction. It fails with ErrNoMatchingForm when no legal operand
// shape matches and ErrOperandOutOfRange when a value exceeds its field.
func Encode(addr int, ins *Instruction, ops []Operand) ([]byte, error) {
	var f *form
	for i := range ins.Forms {
		if ins.Forms[i].matches(ops) {
			f = &ins.Forms[i]
			break
		}
	}
	if f == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoMatchingForm, ins.Name)
	}

	size := f.size(ops)
	immWidth := f.immWidth()

	var regField, aa, mm, offset byte
	hasOffset := false
	var literal []byte

	for i, a := range f.args {
		op := ops[i]
		switch a {
		case argReg:
			regField = byte(op.Reg)
		case argBit:
			if op.Value < 0 || op.Value > 7 {
				return nil, fmt.Errorf("%w: bit number %d", ErrOperandOutOfRange, op.Value)
			}
			regField = byte(op.Value)
		case argMem:
			m := op.Mem
			if m.HasOffset && m.Indexed {
				return nil, fmt.Errorf("%w: offset and index cannot be combined", ErrNoMatchingForm)
			}
			aa = m.aa()
			mm = byte(m.Base)
			if m.HasOffset {
				if m.Offset < 0 || m.Offset > 0xff {
					return nil, fmt.Errorf("%w: offset %d", ErrOperandOutOfRange, m.Offset)
				}
				offset = byte(m.Offset)
				hasOffset = true
			}
		case argImm:
			if immWidth == 1 {
				if op.Value < -0x80 || op.Value > 0xff {
					return nil, fmt.Errorf("%w: %d does not fit in a byte", ErrOperandOutOfRange, op.Value)
				}
				literal = append(literal, byte(op.Value))
			} else {
				if op.Value < -0x8000 || op.Value > 0xffff {
					return nil, fmt.Errorf("%w: %d does not fit in a word", ErrOperandOutOfRange, op.Value)
				}
				literal = append(literal, byte(op.Value), byte(op.Value>>8))
			}
		case argDisp:
			if op.Undefined {
				// pass-1 placeholder for a forward target; pass 2
				// re-encodes with the real value and range-checks it
				literal = append(literal, 0)
				break
			}
			delta := op.Value - (addr + size)
			if delta < -128 || delta > 127 {
				return nil, fmt.Errorf("%w: branch target %d bytes away", ErrOperandOutOfRange, delta)
			}
			literal = append(literal, byte(delta))
		}
	}

	out := make([]byte, 0, size)
	out = append(out, regField<<5|f.wb<<3|aa<<1|f.w)
	out = append(out, f.opcode<<2|mm)
	if hasOffset {
		out = append(out, offset)
	}
	out = append(out, literal...)
	return out, nil
}
