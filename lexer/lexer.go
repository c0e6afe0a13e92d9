// Package lexer implements the runtime regex-sticky lexer engine: an ordered
// list of (name, pattern, handler, nameSelector) rules dispatched in
// first-match-wins order over a byte-offset cursor into a full input string.
//
// Row/column tracking (row on LF, column over leading UTF-8 bytes only) is
// grounded on the teacher's driver/lexer/lexer.go byte-at-a-time Lexer.read;
// here the whole lexeme a rule matched is folded through the same byte
// classification in one pass rather than one byte per Lexer.Next call, since
// matching itself is delegated to strings.HasPrefix / regexp instead of a
// hand-rolled per-byte DFA.
package lexer

import (
	"regexp"
	"strings"

	"github.com/parsekit/lrforge/internal/perr"
)

// HandlerFunc turns a matched lexeme (plus its regex submatches, nil for a
// literal pattern) into the token's value.
type HandlerFunc func(lexeme string, groups []string) (any, error)

// NameSelectorFunc may rename a match's token name, or discard it entirely by
// returning ok == false (dispatch then resumes scanning from just past the
// discarded match — the whitespace-skipping idiom).
type NameSelectorFunc func(value any, lexeme string) (name string, ok bool)

// Record is one lexical rule.
type Record struct {
	Name         string
	Pattern      string
	IsRegexp     bool
	Handler      HandlerFunc
	NameSelector NameSelectorFunc

	re *regexp.Regexp
}

// Token is one lexeme the engine produced (or the EOF sentinel).
type Token struct {
	Name   string
	Lexeme string
	Value  any
	Pos    perr.Position
	EOF    bool
}

// SeekWhence selects how Lexer.Seek interprets its offset argument.
type SeekWhence int

const (
	SeekAbsolute SeekWhence = iota
	SeekRelative
	SeekFromEnd
)

type cursor struct {
	pos int
	row int
	col int
}

// Lexer scans one input string against an ordered Record list.
type Lexer struct {
	src        string
	records    []Record
	eofName    string
	eofValue   any
	lineStarts []int
	cur        cursor
}

// Builder fluently assembles a Lexer's rule list before Build compiles every
// regex pattern once.
type Builder struct {
	records  []Record
	eofName  string
	eofValue any
}

func NewBuilder() *Builder { return &Builder{eofName: "$"} }

// AddRule appends one dispatch-order rule. A nil NameSelector keeps every
// match under Name unconditionally.
func (b *Builder) AddRule(name, pattern string, isRegexp bool, handler HandlerFunc, sel NameSelectorFunc) *Builder {
	b.records = append(b.records, Record{Name: name, Pattern: pattern, IsRegexp: isRegexp, Handler: handler, NameSelector: sel})
	return b
}

// SetEOF overrides the sentinel token's name and value (defaults to "$" and
// nil).
func (b *Builder) SetEOF(name string, value any) *Builder {
	b.eofName = name
	b.eofValue = value
	return b
}

// Records returns a copy of b's rule list, in dispatch order, for callers
// (the serialize package) that need to introspect it without being able to
// add to it.
func (b *Builder) Records() []Record { return append([]Record(nil), b.records...) }

// EOFName returns the configured EOF sentinel token name.
func (b *Builder) EOFName() string { return b.eofName }

// EOFValue returns the configured EOF sentinel token value.
func (b *Builder) EOFValue() any { return b.eofValue }

// NewLexer compiles b's rules — anchoring every regex pattern to the start of
// whatever substring it is matched against (`\A`) so a match is sticky to the
// lexer's current position rather than searching ahead — and returns a Lexer
// positioned at the start of src.
func (b *Builder) NewLexer(src string) (*Lexer, error) {
	compiled := make([]Record, len(b.records))
	for i, r := range b.records {
		if r.IsRegexp {
			re, err := regexp.Compile(`\A(?:` + r.Pattern + `)`)
			if err != nil {
				return nil, &perr.NotationError{Dialect: "lexer", Message: "rule " + r.Name + ": " + err.Error()}
			}
			r.re = re
		}
		compiled[i] = r
	}
	l := &Lexer{src: src, records: compiled, eofName: b.eofName, eofValue: b.eofValue, lineStarts: []int{0}}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			l.lineStarts = append(l.lineStarts, i+1)
		}
	}
	return l, nil
}

func advanceByte(row, col int, b byte) (int, int) {
	if b < 128 {
		if b == '\n' {
			return row + 1, 0
		}
		return row, col + 1
	}
	if b>>5 == 6 || b>>4 == 14 || b>>3 == 30 {
		return row, col + 1
	}
	return row, col
}

func (l *Lexer) position(c cursor) perr.Position {
	return perr.Position{Offset: c.pos, Line: c.row + 1, Col: c.col + 1}
}

// Next returns and consumes the next token. EOF repeats once reached.
func (l *Lexer) Next() (Token, error) {
	tok, next, err := l.scan(l.cur)
	if err != nil {
		return Token{}, err
	}
	l.cur = next
	return tok, nil
}

// Peek reports the next token without committing the position.
func (l *Lexer) Peek() (Token, error) {
	tok, _, err := l.scan(l.cur)
	return tok, err
}

// Pos returns the current byte offset, for error reporting and Seek(relative).
func (l *Lexer) Pos() int { return l.cur.pos }

// Seek repositions the cursor; row/col are recomputed by re-scanning the
// line table up to the new offset. A resulting negative offset is fatal.
func (l *Lexer) Seek(offset int, whence SeekWhence) error {
	var target int
	switch whence {
	case SeekAbsolute:
		target = offset
	case SeekRelative:
		target = l.cur.pos + offset
	case SeekFromEnd:
		target = len(l.src) + offset
	}
	if target < 0 {
		return &perr.SeekOutOfRange{Requested: target}
	}
	if target > len(l.src) {
		target = len(l.src)
	}
	line := 0
	for i, start := range l.lineStarts {
		if start <= target {
			line = i
		} else {
			break
		}
	}
	l.cur = cursor{pos: target, row: line, col: target - l.lineStarts[line]}
	return nil
}

// scan performs the discard-skipping dispatch loop from a given cursor,
// returning the first kept token (or EOF) and the cursor just past it.
func (l *Lexer) scan(from cursor) (Token, cursor, error) {
	c := from
	for {
		if c.pos >= len(l.src) {
			return Token{Name: l.eofName, Value: l.eofValue, Pos: l.position(c), EOF: true}, c, nil
		}

		idx, lexeme, groups, matched := l.dispatch(c.pos)
		if !matched {
			snippet := l.src[c.pos:]
			if len(snippet) > 16 {
				snippet = snippet[:16]
			}
			return Token{}, from, &perr.UnknownToken{Pos: l.position(c), Snippet: snippet}
		}
		rec := &l.records[idx]
		if len(lexeme) == 0 {
			return Token{}, from, &perr.ZeroLengthMatch{Pos: l.position(c), RuleName: rec.Name}
		}

		value, err := rec.Handler(lexeme, groups)
		if err != nil {
			return Token{}, from, err
		}

		startPos := l.position(c)
		nc := c
		for i := 0; i < len(lexeme); i++ {
			nc.row, nc.col = advanceByte(nc.row, nc.col, lexeme[i])
		}
		nc.pos += len(lexeme)

		finalName := rec.Name
		if rec.NameSelector != nil {
			sel, ok := rec.NameSelector(value, lexeme)
			if !ok {
				c = nc
				continue
			}
			finalName = sel
		}
		return Token{Name: finalName, Lexeme: lexeme, Value: value, Pos: startPos}, nc, nil
	}
}

// dispatch tries every record in order at pos and returns the first match's
// index into l.records.
func (l *Lexer) dispatch(pos int) (idx int, lexeme string, groups []string, matched bool) {
	for i, r := range l.records {
		if !r.IsRegexp {
			if strings.HasPrefix(l.src[pos:], r.Pattern) {
				return i, r.Pattern, nil, true
			}
			continue
		}
		loc := r.re.FindStringSubmatchIndex(l.src[pos:])
		if loc == nil {
			continue
		}
		lex := l.src[pos+loc[0] : pos+loc[1]]
		var grp []string
		for j := 2; j+1 < len(loc); j += 2 {
			if loc[j] < 0 {
				grp = append(grp, "")
				continue
			}
			grp = append(grp, l.src[pos+loc[j]:pos+loc[j+1]])
		}
		return i, lex, grp, true
	}
	return 0, "", nil, false
}
