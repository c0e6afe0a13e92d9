// Package notation defines the dialect-neutral intermediate representation
// that the BNF, EBNF and ABNF front-ends (see the bnf, ebnf and abnf
// sub-packages) all normalize grammar text into. The lowering package turns
// this IR's EBNF-only constructs (group/optional/repeat/mult) into plain
// BNF productions.
package notation

import "fmt"

// ElementKind tags one body element of a production's alternative.
type ElementKind string

const (
	// ElemSymbol is a bare reference to a terminal or non-terminal by name.
	ElemSymbol = ElementKind("symbol")
	// ElemGroup is EBNF `( X | Y | ... )`: a Cartesian choice among
	// Alternatives, each itself a sequence of Elements.
	ElemGroup = ElementKind("group")
	// ElemOptional is EBNF `[ X ]`, optionally followed by `* N`.
	ElemOptional = ElementKind("optional")
	// ElemRepeat is EBNF `{ X }`: zero or more repetitions.
	ElemRepeat = ElementKind("repeat")
	// ElemMult is EBNF `X * N` applied to any element other than an optional
	// (whose `* N` is kept in its own Mult): exactly N repetitions.
	ElemMult = ElementKind("mult")
)

// Element is one unit inside a production's body. Exactly one of Name
// (ElemSymbol) or Alternatives (everything else) is meaningful, selected by
// Kind.
type Element struct {
	Kind ElementKind

	// Name is the referenced symbol's textual name, for ElemSymbol.
	Name string
	// IsLiteral marks Name as having come from a quoted string (BNF/EBNF,
	// unescaped with strconv.Unquote) or, in ABNF, from any token other than
	// a rulename (string, prose, %-value, number or punctuation, kept
	// verbatim). grammar.Builder does not read it: a name is a non-terminal
	// there whenever some production has it as head.
	IsLiteral bool

	// Alternatives holds one sequence per `|`-separated choice. ElemOptional
	// and ElemRepeat always have exactly one alternative (their single
	// bracketed body); ElemGroup may have several; ElemMult wraps a single
	// element's sequence of length 1.
	Alternatives [][]*Element

	// Mult is the `* N` multiplicity: 0 means "not specified" (the plain
	// `[X]` / `{X}` case), otherwise the N that followed `*`.
	Mult int
}

func Symbol(name string, literal bool) *Element {
	return &Element{Kind: ElemSymbol, Name: name, IsLiteral: literal}
}

func Group(alts [][]*Element) *Element {
	return &Element{Kind: ElemGroup, Alternatives: alts}
}

func Optional(body []*Element, mult int) *Element {
	return &Element{Kind: ElemOptional, Alternatives: [][]*Element{body}, Mult: mult}
}

func Repeat(body []*Element) *Element {
	return &Element{Kind: ElemRepeat, Alternatives: [][]*Element{body}}
}

func Mult(body []*Element, n int) *Element {
	return &Element{Kind: ElemMult, Alternatives: [][]*Element{body}, Mult: n}
}

// IsComplex reports whether e needs EBNF lowering before it can become a
// plain BNF body element.
func (e *Element) IsComplex() bool { return e.Kind != ElemSymbol }

func (e *Element) String() string {
	switch e.Kind {
	case ElemSymbol:
		if e.IsLiteral {
			return fmt.Sprintf("%q", e.Name)
		}
		return e.Name
	case ElemGroup:
		return "(...)"
	case ElemOptional:
		if e.Mult > 0 {
			return fmt.Sprintf("[...]*%d", e.Mult)
		}
		return "[...]"
	case ElemRepeat:
		return "{...}"
	case ElemMult:
		return fmt.Sprintf("...*%d", e.Mult)
	default:
		return "?"
	}
}

// Production is one dialect-neutral rewrite rule: Head with one or more
// alternative bodies (Alts), each a sequence of Elements.
type Production struct {
	Head string
	Alts [][]*Element

	// HandlerIndex addresses the caller-supplied handler array in source
	// order (the order Productions appear in); -1 means no handler was
	// associated with this rule by the caller.
	HandlerIndex int

	// Incremental marks an ABNF `=/` clause: its Alts are meant to extend an
	// existing Head's alternatives rather than redeclare it.
	Incremental bool
}

// IsComplex reports whether any alternative contains an Element needing
// EBNF lowering.
func (p *Production) IsComplex() bool {
	for _, alt := range p.Alts {
		for _, e := range alt {
			if e.IsComplex() {
				return true
			}
		}
	}
	return false
}

// Grammar is a dialect-neutral grammar: an ordered list of Productions and
// an optional explicit start symbol (else the head of the first production).
type Grammar struct {
	Start       string
	Productions []*Production
}

// Validate reports structural problems ahead of lowering and
// table-building: no productions at all, an undeclared start symbol, use of
// the reserved "error" name as a non-terminal head, and productions with an
// empty head (duplicate productions are not checked) —
// the same class of check the teacher runs (grammar/grammar.go's semantic
// checks) before a grammar ever reaches the generator.
func (g *Grammar) Validate() error {
	if len(g.Productions) == 0 {
		return fmt.Errorf("notation: grammar has no productions")
	}
	heads := map[string]struct{}{}
	for _, p := range g.Productions {
		if p.Head == "" {
			return fmt.Errorf("notation: production has an empty head")
		}
		if p.Head == "error" {
			return fmt.Errorf("notation: %q is a reserved symbol name", "error")
		}
		heads[p.Head] = struct{}{}
	}
	if g.Start != "" {
		if _, ok := heads[g.Start]; !ok {
			return fmt.Errorf("notation: declared start symbol %q has no production", g.Start)
		}
	}
	return nil
}
