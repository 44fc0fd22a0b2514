// Package util holds the concerns shared by every phase of the toolchain:
// the PhaseError type that unifies lex/parse/semantic/codegen/runtime
// failures (spec.md §7) and the stage-trace Writer the driver's --verbose
// flag uses (writer.go).
package util

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind differentiates the five fatal, synchronous error kinds a compile-and-
// run pipeline can raise.
type Kind int

const (
	LexError Kind = iota
	ParseError
	SemanticError
	CodegenError
	RuntimeError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case SemanticError:
		return "semantic error"
	case CodegenError:
		return "codegen error"
	case RuntimeError:
		return "runtime error"
	default:
		return "error"
	}
}

// PhaseError is the single error type returned across every phase boundary.
// Row and Col are 0 when the failure has no single source position (e.g. a
// codegen failure that spans a whole function).
type PhaseError struct {
	Kind    Kind
	Row     int
	Col     int
	Message string
}

func (e *PhaseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Row, e.Col, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// newError builds a PhaseError and attaches a stack trace via
// github.com/pkg/errors so phase failures keep their origin even once
// reported several call frames up the pipeline (grounded: the same
// layered-compiler-error idiom used by ccuetoh-maqui-lang and
// sentra-language-sentra in the example corpus). errors.As still reaches
// the *PhaseError beneath the trace.
func newError(kind Kind, row, col int, format string, args ...interface{}) error {
	pe := &PhaseError{Kind: kind, Row: row, Col: col, Message: fmt.Sprintf(format, args...)}
	return errors.WithStack(pe)
}

// NewLexError reports a lexical failure at (row, col).
func NewLexError(row, col int, format string, args ...interface{}) error {
	return newError(LexError, row, col, format, args...)
}

// NewParseError reports a grammar failure at (row, col).
func NewParseError(row, col int, format string, args ...interface{}) error {
	return newError(ParseError, row, col, format, args...)
}

// NewSemanticError reports a name-resolution failure (undefined or
// duplicate symbol) at (row, col).
func NewSemanticError(row, col int, format string, args ...interface{}) error {
	return newError(SemanticError, row, col, format, args...)
}

// NewCodegenError reports a code generation failure with no single source
// position (entry point lookup, malformed tree, wrong-kind symbol).
func NewCodegenError(format string, args ...interface{}) error {
	return newError(CodegenError, 0, 0, format, args...)
}

// NewRuntimeError reports a VM failure at instruction pointer ip.
func NewRuntimeError(ip int32, format string, args ...interface{}) error {
	return newError(RuntimeError, 0, 0, "[ip=%d] %s", ip, fmt.Sprintf(format, args...))
}
