package asm

import (
	"fmt"
	"sort"
)

// LocationSymbol is the reserved symbol holding the current output
// address. It is reset to 0 at the start of each pass and advanced by
// every emitting directive or instruction.
const LocationSymbol = "$"

// SymbolTable maps symbol names to integer values. User symbols persist
// across passes: pass 1 establishes candidate values, pass 2 validates
// them against what was recorded.
type SymbolTable struct {
	values map[string]int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{values: map[string]int{LocationSymbol: 0}}
}

// Get looks a symbol up. A missing symbol is reported distinctly so
// callers can decide whether undefined is tolerable.
func (t *SymbolTable) Get(name string) (int, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Set stores a symbol value. With phaseCheck set, a previously recorded
// value that disagrees is a phase error: the source cannot be resolved
// consistently in two passes.
func (t *SymbolTable) Set(name string, value int, phaseCheck bool) error {
	if phaseCheck {
		if prev, ok := t.values[name]; ok && prev != value {
			return fmt.Errorf("phase error: %s was %04xh in pass 1 but %04xh in pass 2",
				name, prev, value)
		}
	}
	t.values[name] = value
	return nil
}

// Loc returns the current output address.
func (t *SymbolTable) Loc() int {
	return t.values[LocationSymbol]
}

// SetLoc moves the current output address. Never phase-checked: the
// location counter is rewritten on every emission.
func (t *SymbolTable) SetLoc(addr int) {
	t.values[LocationSymbol] = addr
}

// Names returns every user symbol name in sorted order, excluding the
// location counter.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.values))
	for name := range t.values {
		if name == LocationSymbol {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
