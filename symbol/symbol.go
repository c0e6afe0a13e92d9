// Package symbol implements the grammar's tagged Terminal | NonTerminal |
// Epsilon variant and the per-generator interning table that assigns each
// symbol a stable small integer.
package symbol

import (
	"fmt"
	"sort"
)

// Kind distinguishes terminal from non-terminal symbols. Epsilon is not a
// Kind: it is represented by the distinguished Nil symbol and matched
// separately (see Symbol.IsEpsilon).
type Kind string

const (
	KindTerminal    = Kind("terminal")
	KindNonTerminal = Kind("non-terminal")
)

// Symbol is a packed tagged variant: bit 15 selects terminal/non-terminal,
// bit 14 flags the distinguished start symbol (non-terminal) or EOF terminal,
// and the low 14 bits hold a per-kind small integer. Index 0 (Nil) is never
// assigned and doubles as the Epsilon marker and the "no symbol" zero value.
type Symbol uint16

const (
	maskKind  = uint16(0x8000)
	maskSpecial = uint16(0x4000)
	maskNum   = uint16(0x3fff)

	numStart = uint16(1)
	numEOF   = uint16(1)

	// Nil is the zero Symbol: absent, and also stands for Epsilon in a
	// production body, since an empty body is represented as a zero-length
	// slice and a body element is never Nil in well-formed productions.
	Nil = Symbol(0)

	// Start is the declared start symbol once registered by RegisterStart
	// (the synthesized augmenting non-terminal is an ordinary one); EOF is
	// the distinguished terminal with number 1 and text "$". Number 0 of
	// either kind is the Nil slot and is never assigned.
	Start = Symbol(maskSpecial | numStart)
	EOF   = Symbol(maskKind | maskSpecial | numEOF)

	NameEOF = "$"

	NonTerminalNumMin = uint16(2)
	TerminalNumMin    = uint16(2)
	NumMax            = uint16(0x3fff)
)

func newSymbol(kind Kind, special bool, num uint16) (Symbol, error) {
	if num > NumMax {
		return Nil, fmt.Errorf("symbol: number %d exceeds limit %d", num, NumMax)
	}
	var bits uint16
	if kind == KindTerminal {
		bits |= maskKind
	}
	if special {
		bits |= maskSpecial
	}
	return Symbol(bits | num), nil
}

func (s Symbol) describe() (kind Kind, special bool, num uint16) {
	kind = KindNonTerminal
	if uint16(s)&maskKind != 0 {
		kind = KindTerminal
	}
	special = uint16(s)&maskSpecial != 0
	num = uint16(s) & maskNum
	return
}

// IsNil reports whether s is the zero/absent symbol.
func (s Symbol) IsNil() bool { return s == Nil }

// IsEpsilon is an alias for IsNil: epsilon is never stored as a production
// body element, only tested for by callers scanning an empty body.
func (s Symbol) IsEpsilon() bool { return s.IsNil() }

// IsTerminal reports whether s is a terminal symbol (including EOF).
func (s Symbol) IsTerminal() bool {
	if s.IsNil() {
		return false
	}
	kind, _, _ := s.describe()
	return kind == KindTerminal
}

// IsNonTerminal reports whether s is a non-terminal symbol (including Start).
func (s Symbol) IsNonTerminal() bool {
	return !s.IsNil() && !s.IsTerminal()
}

// IsStart reports whether s is the declared start symbol (Start), not the
// synthesized augmenting non-terminal.
func (s Symbol) IsStart() bool {
	if s.IsNil() || s.IsTerminal() {
		return false
	}
	_, special, _ := s.describe()
	return special
}

// IsEOF reports whether s is the distinguished EOF terminal.
func (s Symbol) IsEOF() bool {
	if s.IsNil() || !s.IsTerminal() {
		return false
	}
	_, special, _ := s.describe()
	return special
}

// Num returns the symbol's small integer, unique within its kind.
func (s Symbol) Num() int {
	_, _, num := s.describe()
	return int(num)
}

func (s Symbol) String() string {
	switch {
	case s.IsNil():
		return "ε"
	case s.IsStart():
		return fmt.Sprintf("S(%d)", s.Num())
	case s.IsEOF():
		return "$"
	case s.IsTerminal():
		return fmt.Sprintf("t(%d)", s.Num())
	default:
		return fmt.Sprintf("n(%d)", s.Num())
	}
}

// Table interns symbol names to small integers, scoped to one generator
// instance. Intern and RegisterStart are its only mutators; nothing in the
// Table itself stops them from being called after Build.
type Table struct {
	text2Sym map[string]Symbol
	sym2Text map[Symbol]string

	nonTermTexts []string
	termTexts    []string

	nonTermNum uint16
	termNum    uint16
}

// NewTable returns an empty table pre-seeded with the EOF terminal.
func NewTable() *Table {
	return &Table{
		text2Sym: map[string]Symbol{NameEOF: EOF},
		sym2Text: map[Symbol]string{EOF: NameEOF},
		termTexts: []string{
			"",      // Nil
			NameEOF, // EOF
		},
		nonTermTexts: []string{
			"", // Nil
			"", // Start, filled in by RegisterStart
		},
		nonTermNum: NonTerminalNumMin,
		termNum:    TerminalNumMin,
	}
}

// RegisterStart assigns the distinguished Start symbol to name.
func (t *Table) RegisterStart(name string) Symbol {
	t.text2Sym[name] = Start
	t.sym2Text[Start] = name
	t.nonTermTexts[Start.Num()] = name
	return Start
}

// Intern assigns (or reuses) a symbol for name of the given kind.
func (t *Table) Intern(kind Kind, name string) (Symbol, error) {
	if sym, ok := t.text2Sym[name]; ok {
		return sym, nil
	}
	var sym Symbol
	var err error
	if kind == KindTerminal {
		sym, err = newSymbol(KindTerminal, false, t.termNum)
		if err != nil {
			return Nil, err
		}
		t.termNum++
		t.termTexts = append(t.termTexts, name)
	} else {
		sym, err = newSymbol(KindNonTerminal, false, t.nonTermNum)
		if err != nil {
			return Nil, err
		}
		t.nonTermNum++
		t.nonTermTexts = append(t.nonTermTexts, name)
	}
	t.text2Sym[name] = sym
	t.sym2Text[sym] = name
	return sym, nil
}

// Lookup returns the symbol registered for name, if any.
func (t *Table) Lookup(name string) (Symbol, bool) {
	sym, ok := t.text2Sym[name]
	return sym, ok
}

// Text returns the name a symbol was registered under.
func (t *Table) Text(sym Symbol) (string, bool) {
	text, ok := t.sym2Text[sym]
	return text, ok
}

// NumTerminals returns the number of interned terminals, including EOF but
// not the reserved Nil slot.
func (t *Table) NumTerminals() int { return int(t.termNum) - 1 }

// NumNonTerminals returns the number of interned non-terminals, including
// Start but not the reserved Nil slot.
func (t *Table) NumNonTerminals() int { return int(t.nonTermNum) - 1 }

// NonTerminalText returns the name registered for non-terminal index num
// (as returned by Symbol.Num on a non-terminal), for callers that only have
// the bare table index (e.g. a GOTO table's head column) and not the packed
// Symbol itself.
func (t *Table) NonTerminalText(num int) (string, bool) {
	if num < 0 || num >= len(t.nonTermTexts) || t.nonTermTexts[num] == "" {
		return "", false
	}
	return t.nonTermTexts[num], true
}

// TerminalText is NonTerminalText for terminal indices.
func (t *Table) TerminalText(num int) (string, bool) {
	if num < 0 || num >= len(t.termTexts) || t.termTexts[num] == "" {
		return "", false
	}
	return t.termTexts[num], true
}

// Terminals returns every interned terminal symbol, sorted by index.
func (t *Table) Terminals() []Symbol {
	return sortedSymbols(t.sym2Text, func(s Symbol) bool { return s.IsTerminal() })
}

// NonTerminals returns every interned non-terminal symbol, sorted by index.
func (t *Table) NonTerminals() []Symbol {
	return sortedSymbols(t.sym2Text, func(s Symbol) bool { return s.IsNonTerminal() })
}

func sortedSymbols(m map[Symbol]string, keep func(Symbol) bool) []Symbol {
	out := make([]Symbol, 0, len(m))
	for s := range m {
		if s.IsNil() || !keep(s) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FreshName returns a name derived from base that collides with neither an
// interned symbol name nor any name in extra, by appending or incrementing a
// "_k" suffix. Used by EBNF lowering to synthesize non-terminals and by the
// LR generator to synthesize the augmenting start symbol.
func (t *Table) FreshName(base string, extra map[string]struct{}) string {
	candidate := base
	k := 0
	for {
		if _, taken := t.text2Sym[candidate]; !taken {
			if extra == nil {
				return candidate
			}
			if _, taken := extra[candidate]; !taken {
				return candidate
			}
		}
		k++
		candidate = fmt.Sprintf("%s_%d", base, k)
	}
}
