// Package i89 holds the instruction set of the 8089-style I/O channel
// processor: register enumerations, the mnemonic table, and the encoder
// that turns a mnemonic plus parsed operands into machine bytes.
package i89

// Reg is a general register, encoded in the three-bit register field.
type Reg int

const (
	GA Reg = iota
	GB
	GC
	BC
	TP
	IX
	CC
	MC
)

var regNames = map[string]Reg{
	"ga": GA,
	"gb": GB,
	"gc": GC,
	"bc": BC,
	"tp": TP,
	"ix": IX,
	"cc": CC,
	"mc": MC,
}

var regStrings = [...]string{"ga", "gb", "gc", "bc", "tp", "ix", "cc", "mc"}

func (r Reg) String() string {
	return regStrings[r]
}

// LookupReg resolves a general register by its lower-case name.
func LookupReg(name string) (Reg, bool) {
	r, ok := regNames[name]
	return r, ok
}

// Ptr is a base (pointer) register usable inside a memory reference,
// encoded in the two-bit mm field.
type Ptr int

const (
	PtrGA Ptr = iota
	PtrGB
	PtrGC
	PtrPP
)

var ptrNames = map[string]Ptr{
	"ga": PtrGA,
	"gb": PtrGB,
	"gc": PtrGC,
	"pp": PtrPP,
}

var ptrStrings = [...]string{"ga", "gb", "gc", "pp"}

func (p Ptr) String() string {
	return ptrStrings[p]
}

// LookupPtr resolves a pointer register by its lower-case name.
func LookupPtr(name string) (Ptr, bool) {
	p, ok := ptrNames[name]
	return p, ok
}

// PtrNames returns the pointer register names in field-encoding order.
func PtrNames() []string {
	return ptrStrings[:]
}

// OperandKind tags an Operand.
type OperandKind int

const (
	ImmOperand OperandKind = iota
	RegOperand
	MemOperand
)

// Mem is a memory reference: [base], [base].off, [base+ix], [base+ix+],
// each optionally carrying an offset expression value.
type Mem struct {
	Base      Ptr
	Indexed   bool
	AutoInc   bool
	HasOffset bool
	Offset    int
}

// Operand is the tagged union produced by operand parsing. An immediate
// with Undefined set is a pass-1 placeholder for a forward reference.
type Operand struct {
	Kind      OperandKind
	Value     int
	Undefined bool
	Reg       Reg
	Mem       Mem
}

// aa field values for the memory addressing modes
const (
	aaBase    = 0 // [p]
	aaOffset  = 1 // [p].off
	aaIndexed = 2 // [p+ix]
	aaAutoInc = 3 // [p+ix+]
)

func (m Mem) aa() byte {
	switch {
	case m.HasOffset:
		return aaOffset
	case m.AutoInc:
		return aaAutoInc
	case m.Indexed:
		return aaIndexed
	}
	return aaBase
}
