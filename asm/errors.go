package asm

import "fmt"

// ErrorKind classifies an assembly failure. Every kind is fatal; the
// assembler stops at the first error.
type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	StructuralError
	ResolutionError
	PhaseError
	EncodingError
)

// Error is an assembly failure tied to a source line.
type Error struct {
	Line    int
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Message)
}

func errorf(line int, kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Line: line, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
