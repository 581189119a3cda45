// Package asm implements a two-pass assembler for the 8089-style I/O
// channel processor. Pass 1 establishes symbol values and layout, pass
// 2 validates them against what pass 1 recorded and writes the output
// image; any disagreement is a phase error.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"

	"io89/i89"
	"io89/ihex"
)

type Assembler struct {
	Symbols *SymbolTable
	Image   *Image

	// Listing enables collection of the pass-2 listing.
	Listing bool

	lines   []string
	listing []string

	pass    int
	lineNum int

	// struc nesting state, depth is at most one
	strucOpen  bool
	strucName  string
	strucSaved int
}

func New() *Assembler {
	return &Assembler{
		Symbols: NewSymbolTable(),
		Image:   NewImage(),
	}
}

// AssembleFile runs both passes over the named source file.
func (a *Assembler) AssembleFile(path string) error {
	fd, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fd.Close()
	return a.Assemble(fd)
}

// Assemble reads the whole source and runs both passes over it. It
// stops at the first error.
func (a *Assembler) Assemble(r io.Reader) error {
	a.lines = nil
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		a.lines = append(a.lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for pass := 1; pass <= 2; pass++ {
		if err := a.runPass(pass); err != nil {
			return err
		}
		glog.V(1).Infof("pass %d: %d lines, %d symbols, address %04xh",
			pass, len(a.lines), len(a.Symbols.Names()), a.Symbols.Loc())
	}
	return nil
}

func (a *Assembler) runPass(pass int) error {
	a.pass = pass
	a.lineNum = 0
	a.strucOpen = false
	a.Symbols.SetLoc(0)
	if pass == 2 {
		a.listing = nil
	}

	for _, raw := range a.lines {
		a.lineNum++
		if err := a.step(raw); err != nil {
			return err
		}
	}

	if a.strucOpen {
		return errorf(a.lineNum, StructuralError,
			"invalid struc nesting: %s left open at end of pass", a.strucName)
	}
	return nil
}

// step assembles one source line.
func (a *Assembler) step(raw string) error {
	text := normalize(raw)
	scanned, err := Scan(a.lineNum, text)
	if err != nil {
		return err
	}
	parsed, err := a.parseLine(scanned)
	if err != nil {
		return err
	}

	addr := a.Symbols.Loc()
	var data []byte
	switch {
	case parsed == nil:
		// blank or label-only line
	case parsed.dir != nil:
		data, err = parsed.dir.process(a, scanned, parsed.name, parsed.ops)
		if err != nil {
			return err
		}
	default:
		data, err = i89.Encode(a.Symbols.Loc(), parsed.ins, parsed.ops)
		if err != nil {
			return errorf(a.lineNum, EncodingError, "%v", err)
		}
	}

	if a.pass == 2 && a.Listing {
		a.addListing(addr, data, raw)
	}
	a.emit(data)
	return nil
}

// emit places bytes at the current address. The image is only written
// during pass 2; the address advances in both passes.
func (a *Assembler) emit(data []byte) {
	if len(data) == 0 {
		return
	}
	loc := a.Symbols.Loc()
	if a.pass == 2 {
		a.Image.Write(loc, data)
	}
	a.Symbols.SetLoc(loc + len(data))
}

// listingBytes is the most bytes shown on one listing line.
const listingBytes = 6

func (a *Assembler) addListing(addr int, data []byte, source string) {
	if len(data) > listingBytes {
		data = data[:listingBytes]
	}
	var hex strings.Builder
	for _, b := range data {
		fmt.Fprintf(&hex, "%02x ", b)
	}
	a.listing = append(a.listing,
		fmt.Sprintf("%04x  %-*s%s", addr, 3*listingBytes+2, hex.String(), source))
}

// WriteListing writes the pass-2 listing followed by the sorted symbol
// table.
func (a *Assembler) WriteListing(w io.Writer) error {
	for _, line := range a.listing {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, name := range a.Symbols.Names() {
		v, _ := a.Symbols.Get(name)
		if _, err := fmt.Fprintf(w, "%04x %s\n", v, name); err != nil {
			return err
		}
	}
	return nil
}

// WriteHex serializes the output image as Intel-HEX records.
func (a *Assembler) WriteHex(w io.Writer) error {
	chunks := a.Image.Chunks()
	out := make([]ihex.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = ihex.Chunk{Addr: c.Addr, Data: c.Data}
	}
	return ihex.Write(w, out)
}
