package asm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func assembleString(t *testing.T, src string) *Assembler {
	t.Helper()
	a := New()
	if err := a.Assemble(strings.NewReader(src)); err != nil {
		t.Fatalf("assembly failed: %v", err)
	}
	return a
}

func assembleExpectError(t *testing.T, src string) *Error {
	t.Helper()
	a := New()
	err := a.Assemble(strings.NewReader(src))
	if err == nil {
		t.Fatal("expected assembly error, got nil")
	}
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("error %v is not an assembly error", err)
	}
	return ae
}

func imageBytes(t *testing.T, a *Assembler, addr, n int) []byte {
	t.Helper()
	out := make([]byte, n)
	for i := range out {
		b, ok := a.Image.ReadByte(addr + i)
		if !ok {
			t.Fatalf("address %04x never written", addr+i)
		}
		out[i] = b
	}
	return out
}

func TestDbBytes(t *testing.T) {
	a := assembleString(t, " db 1,2,0xff\n")
	got := imageBytes(t, a, 0, 3)
	if !bytes.Equal(got, []byte{1, 2, 0xff}) {
		t.Errorf("db emitted % x", got)
	}
}

func TestDwLittleEndian(t *testing.T) {
	a := assembleString(t, " dw 0x1234\n")
	got := imageBytes(t, a, 0, 2)
	if !bytes.Equal(got, []byte{0x34, 0x12}) {
		t.Errorf("dw 0x1234 emitted % x, want 34 12", got)
	}
}

func TestDwInterleave(t *testing.T) {
	a := assembleString(t, " dw 0x0102,0x0304\n")
	got := imageBytes(t, a, 0, 4)
	if !bytes.Equal(got, []byte{0x02, 0x01, 0x04, 0x03}) {
		t.Errorf("dw emitted % x, want 02 01 04 03", got)
	}
}

func TestDsReservesWithoutWriting(t *testing.T) {
	a := assembleString(t, " db 1\n ds 4\nafter: db 2\n")
	if v, _ := a.Symbols.Get("after"); v != 5 {
		t.Errorf("after = %d, want 5", v)
	}
	if _, ok := a.Image.ReadByte(2); ok {
		t.Error("ds wrote into the image")
	}
}

func TestFill(t *testing.T) {
	a := assembleString(t, " org 0x10\n fill 0x20,0xff\n")
	got := imageBytes(t, a, 0x10, 16)
	for _, b := range got {
		if b != 0xff {
			t.Fatalf("fill emitted % x", got)
		}
	}
	if _, ok := a.Image.ReadByte(0x20); ok {
		t.Error("fill wrote past its target")
	}
	if a.Symbols.Loc() != 0x20 {
		t.Errorf("address after fill = %04x, want 0020", a.Symbols.Loc())
	}
}

func TestEquBackwardReference(t *testing.T) {
	a := assembleString(t, "base equ 0x10\nlimit equ 0x40\nsize equ limit-base\n db size\n")
	if v, _ := a.Symbols.Get("size"); v != 0x30 {
		t.Errorf("size = %02x, want 30", v)
	}
	if got := imageBytes(t, a, 0, 1); got[0] != 0x30 {
		t.Errorf("emitted %02x", got[0])
	}
}

func TestEquForwardReferencePhaseError(t *testing.T) {
	// pass 1 substitutes 0 for the forward reference, pass 2 computes
	// the real value and the two disagree
	err := assembleExpectError(t, "a equ b\nb equ 1\n")
	if err.Kind != PhaseError {
		t.Errorf("kind = %d, want PhaseError", err.Kind)
	}
	if err.Line != 1 {
		t.Errorf("line = %d, want 1", err.Line)
	}
}

func TestEquRedefinitionPhaseError(t *testing.T) {
	// pass 1 silently takes the second value; pass 2 phase-checks
	err := assembleExpectError(t, "foo equ 1\nfoo equ 2\n")
	if err.Kind != PhaseError {
		t.Errorf("kind = %d, want PhaseError", err.Kind)
	}
	if err.Line != 1 {
		t.Errorf("line = %d, want 1", err.Line)
	}
}

func TestSelfReferentialDsPhaseError(t *testing.T) {
	err := assembleExpectError(t, " ds label+1-$\nlabel: db 1\n")
	if err.Kind != PhaseError {
		t.Errorf("kind = %d, want PhaseError", err.Kind)
	}
}

func TestUndefinedSymbolFatalInPass2(t *testing.T) {
	err := assembleExpectError(t, " db missing\n")
	if err.Kind != ResolutionError {
		t.Errorf("kind = %d, want ResolutionError", err.Kind)
	}
	if !strings.Contains(err.Message, "missing") {
		t.Errorf("message %q does not name the symbol", err.Message)
	}
}

func TestOrgForbidsForwardReference(t *testing.T) {
	err := assembleExpectError(t, " org later\nlater equ 0x10\n")
	if err.Kind != ResolutionError {
		t.Errorf("kind = %d, want ResolutionError", err.Kind)
	}
	if err.Line != 1 {
		t.Errorf("line = %d, want 1", err.Line)
	}
}

func TestStrucOffsets(t *testing.T) {
	a := assembleString(t, strings.Join([]string{
		" org 0x100",
		"point struc",
		"x: ds 2",
		"y: ds 2",
		"point ends",
		"here: db 0xaa",
		"",
	}, "\n"))
	for name, want := range map[string]int{"x": 0, "y": 2, "here": 0x100} {
		if v, _ := a.Symbols.Get(name); v != want {
			t.Errorf("%s = %04x, want %04x", name, v, want)
		}
	}
	if got := imageBytes(t, a, 0x100, 1); got[0] != 0xaa {
		t.Errorf("byte after ends emitted at wrong address")
	}
}

func TestStrucNestingErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"nested", "a struc\nb struc\nb ends\na ends\n"},
		{"mismatch", "a struc\nb ends\n"},
		{"close without open", "a ends\n"},
		{"unclosed", "a struc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assembleExpectError(t, tt.src)
			if err.Kind != StructuralError {
				t.Errorf("kind = %d, want StructuralError", err.Kind)
			}
			if !strings.Contains(err.Message, "nesting") {
				t.Errorf("message %q", err.Message)
			}
		})
	}
}

func TestDirectivePlacementRules(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"equ without name", " equ 5\n"},
		{"equ with label", "foo: equ 5\n"},
		{"org with label", "foo: org 0\n"},
		{"org operand count", " org 1,2\n"},
		{"label without colon", "foo\n"},
		{"name before instruction", "foo nop\n"},
		{"unknown mnemonic", " frob ga\n"},
		{"unimplemented directive", " even\n"},
		{"segment without name", " segment\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assembleExpectError(t, tt.src)
			if err.Kind != StructuralError {
				t.Errorf("kind = %d, want StructuralError", err.Kind)
			}
		})
	}
}

func TestInstructionEncoding(t *testing.T) {
	a := assembleString(t, " movi ga,0x1234\n mov ga,[gb].4\n")
	got := imageBytes(t, a, 0, 7)
	want := []byte{0x11, 0x30, 0x34, 0x12, 0x03, 0x21, 0x04}
	if !bytes.Equal(got, want) {
		t.Errorf("encoded % x, want % x", got, want)
	}
}

func TestBranchBackward(t *testing.T) {
	a := assembleString(t, " org 0x10\nstart: movi ga,0x1234\n jmp start\n")
	got := imageBytes(t, a, 0x14, 3)
	// displacement from the end of the jmp back to start
	want := []byte{0x08, 0xa0, 0xf9}
	if !bytes.Equal(got, want) {
		t.Errorf("jmp encoded % x, want % x", got, want)
	}
}

func TestBranchForward(t *testing.T) {
	a := assembleString(t, " jz ga,done\n nop\ndone: hlt\n")
	// jz is 3 bytes, nop is 2: displacement 2
	got := imageBytes(t, a, 0, 3)
	want := []byte{0x09, 0xa8, 0x02}
	if !bytes.Equal(got, want) {
		t.Errorf("jz encoded % x, want % x", got, want)
	}
}

func TestForwardBranchHighOrigin(t *testing.T) {
	// the pass-1 placeholder for fwd must not be range-checked as a
	// real displacement from 0x200
	a := assembleString(t, " org 0x200\n jmp fwd\nfwd: nop\n")
	got := imageBytes(t, a, 0x200, 3)
	want := []byte{0x08, 0xa0, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("jmp encoded % x, want % x", got, want)
	}
}

func TestEncodingErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no matching form", " mov 1,2\n"},
		{"immediate out of range", " movbi ga,0x1234\n"},
		{"offset out of range", " mov ga,[gb].0x200\n"},
		{"branch out of range", "start: nop\n ds 0x100\n jmp start\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assembleExpectError(t, tt.src)
			if err.Kind != EncodingError {
				t.Errorf("kind = %d, want EncodingError", err.Kind)
			}
		})
	}
}

func TestListingTruncatesAtSixBytes(t *testing.T) {
	a := New()
	a.Listing = true
	src := " db 1,2,3,4,5,6,7,8\n"
	if err := a.Assemble(strings.NewReader(src)); err != nil {
		t.Fatal(err)
	}
	if len(a.listing) != 1 {
		t.Fatalf("listing has %d lines", len(a.listing))
	}
	line := a.listing[0]
	if !strings.HasPrefix(line, "0000  01 02 03 04 05 06") {
		t.Errorf("listing line %q", line)
	}
	if strings.Contains(line, "07") {
		t.Errorf("listing line shows more than six bytes: %q", line)
	}
}

func TestListingSymbolTable(t *testing.T) {
	a := New()
	a.Listing = true
	if err := a.Assemble(strings.NewReader("beta equ 2\nalpha equ 1\nstart: nop\n")); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := a.WriteListing(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	alpha := strings.Index(out, "0001 alpha")
	beta := strings.Index(out, "0002 beta")
	start := strings.Index(out, "0000 start")
	if alpha < 0 || beta < 0 || start < 0 {
		t.Fatalf("symbol table missing entries:\n%s", out)
	}
	if !(alpha < beta && beta < start) {
		t.Errorf("symbols not sorted by name:\n%s", out)
	}
	if strings.Contains(out, " $") {
		t.Errorf("location counter leaked into the symbol table:\n%s", out)
	}
}

func TestHexOutput(t *testing.T) {
	a := assembleString(t, " org 0x10\nstart: movi ga,0x1234\n jmp start\n")
	var buf bytes.Buffer
	if err := a.WriteHex(&buf); err != nil {
		t.Fatal(err)
	}
	want := ":070010001130341208A0F9C1\n:00000001FF\n"
	if buf.String() != want {
		t.Errorf("hex output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestDeterministicOutput(t *testing.T) {
	src := strings.Join([]string{
		"base equ 0x20",
		" org base",
		"start: movi ga,table",
		"loop: jnz ga,loop",
		" hlt",
		"table: dw 0x0102,0x0304",
		" db 1,2,3",
		"",
	}, "\n")
	var first, second bytes.Buffer
	if err := assembleString(t, src).WriteHex(&first); err != nil {
		t.Fatal(err)
	}
	if err := assembleString(t, src).WriteHex(&second); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Errorf("output differs between runs:\n%s\n%s", first.String(), second.String())
	}
}

func TestNoForwardReferencesNoPhaseError(t *testing.T) {
	assembleString(t, strings.Join([]string{
		"one equ 1",
		" org 0x40",
		"start: movi ga,one",
		" jmp start",
		"data: db one,2",
		"",
	}, "\n"))
}

func TestCommentAndBlankLines(t *testing.T) {
	a := assembleString(t, "; header\n\n   ; indented\n db 7\n")
	if got := imageBytes(t, a, 0, 1); got[0] != 7 {
		t.Errorf("emitted %02x", got[0])
	}
}
