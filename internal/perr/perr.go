// Package perr defines the structured error kinds surfaced by lrforge.
//
// The core never attempts recovery: every failure described here is fatal to
// the in-progress operation (lex, parse, or build). Lexer and parser errors
// surface to the Parse caller; generator errors surface at Build time.
package perr

import (
	"fmt"
	"strings"
)

// Position locates a byte offset within source text, plus its derived
// line/column for human-facing messages.
type Position struct {
	Offset int
	Line   int
	Col    int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// UnknownToken is LexerFailure/UnknownToken: no rule matched at the current
// position.
type UnknownToken struct {
	Pos     Position
	Snippet string
}

func (e *UnknownToken) Error() string {
	return fmt.Sprintf("lexer: unknown token at %v: %q", e.Pos, e.Snippet)
}

// ZeroLengthMatch is LexerFailure/ZeroLength: a rule matched without
// advancing the read position, which would otherwise loop forever.
type ZeroLengthMatch struct {
	Pos      Position
	RuleName string
}

func (e *ZeroLengthMatch) Error() string {
	return fmt.Sprintf("lexer: rule %q matched zero-length input at %v", e.RuleName, e.Pos)
}

// SeekOutOfRange is raised when a seek would place the lexer's cursor before
// the start of the input.
type SeekOutOfRange struct {
	Requested int
}

func (e *SeekOutOfRange) Error() string {
	return fmt.Sprintf("lexer: seek to %d is out of range", e.Requested)
}

// UnexpectedToken is ParseFailure/UnexpectedToken (or UnexpectedEOF when
// TokenName is empty): the ACTION cell for (state, terminal) was
// empty or an explicit Error action.
type UnexpectedToken struct {
	TokenName string
	Lexeme    string
	Pos       Position
	State     int
	Expected  []string
}

func (e *UnexpectedToken) Error() string {
	var b strings.Builder
	if e.TokenName == "" {
		fmt.Fprintf(&b, "parse: unexpected EOF at %v (state %d)", e.Pos, e.State)
	} else {
		fmt.Fprintf(&b, "parse: unexpected token %s %q at %v (state %d)", e.TokenName, e.Lexeme, e.Pos, e.State)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, "; expected one of: %s", strings.Join(e.Expected, ", "))
	}
	return b.String()
}

// IsEOF reports whether this is the UnexpectedEOF variant.
func (e *UnexpectedToken) IsEOF() bool {
	return e.TokenName == ""
}

// ConflictKind distinguishes the three ways two actions can land on one
// (state, terminal) cell.
type ConflictKind string

const (
	ConflictShiftShift   = ConflictKind("shift/shift")
	ConflictReduceReduce = ConflictKind("reduce/reduce")
	ConflictShiftReduce  = ConflictKind("shift/reduce")
)

// Conflict is GeneratorFailure/Conflict.
type Conflict struct {
	Kind     ConflictKind
	State    int
	Terminal string
	// ItemA and ItemB describe the two competing items in human-readable form.
	ItemA string
	ItemB string
	// Reason is set for an unresolved shift/reduce (e.g. "non-associative" or
	// "no operator precedence declared and shiftReduce policy is error").
	Reason string
}

func (e *Conflict) Error() string {
	msg := fmt.Sprintf("grammar: %s conflict in state %d on %q: %s vs %s", e.Kind, e.State, e.Terminal, e.ItemA, e.ItemB)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// InvalidProductionIndex is GeneratorFailure/InvalidProductionIndex: an
// internal invariant was violated during LALR kernel merging. It should never
// occur for grammars built through grammar.Builder; seeing it means a bug in
// the generator itself.
type InvalidProductionIndex struct {
	Index int
	Where string
}

func (e *InvalidProductionIndex) Error() string {
	return fmt.Sprintf("grammar: internal invariant violated: invalid production index %d (%s)", e.Index, e.Where)
}

// SerializationFailure covers a missing built-in id, a non-function
// deserialization result, or an unparseable handler source.
type SerializationFailure struct {
	Reason string
}

func (e *SerializationFailure) Error() string {
	return fmt.Sprintf("serialize: %s", e.Reason)
}

// NotationError wraps a tokenizer/parser failure in one of the BNF/EBNF/ABNF
// front-ends, naming the offending token and position.
type NotationError struct {
	Dialect string
	Pos     Position
	Message string
}

func (e *NotationError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Dialect, e.Pos, e.Message)
}
