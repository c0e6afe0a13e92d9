// Package lower rewrites the EBNF-only constructs in a notation.Grammar —
// grouping, optionality, repetition and multiplicity — into plain BNF
// productions on a grammar.Builder.
//
// group, optional and mult are spliced directly into the production that
// contains them: a group's alternatives Cartesian-product against the rest
// of that production's body, a plain (unbounded) optional becomes exactly
// two productions (absent, present), and a mult splices N copies of its body
// in place. Only repeat synthesizes a fresh non-terminal — "zero or more"
// can't be inlined into a finite set of alternatives the way the other three
// can.
//
// Each resulting production carries a grammar.HandlerModifier chain (see
// grammar/modifier.go), compiled once here into the AdapterFunc the
// production runs at reduce time, reconstructing the argument vector the
// body would have carried had every complex element reduced to one value on
// its own. A production whose body has no complex element at all gets a nil
// Adapter — it is indistinguishable from a hand-written BNF production.
package lower

import (
	"github.com/parsekit/lrforge/grammar"
	"github.com/parsekit/lrforge/notation"
	"github.com/parsekit/lrforge/symbol"
)

// Lower flattens g into b, registering one grammar.AddProduction /
// AddIncrementalProduction call per Cartesian combination of each
// notation.Production alternative's complex elements.
func Lower(g *notation.Grammar, b *grammar.Builder) error {
	l := &lowering{b: b, fresh: freshNames(g)}
	if g.Start != "" {
		b.SetStart(g.Start)
	} else if len(g.Productions) > 0 {
		// lowerRepeat adds its helper productions ahead of the production
		// that contains the repeat, so the builder's own first-head default
		// could otherwise pick a synthesized non-terminal.
		b.SetStart(g.Productions[0].Head)
	}
	for _, p := range g.Productions {
		for _, alt := range p.Alts {
			combos, err := l.lowerSequence(alt)
			if err != nil {
				return err
			}
			for _, c := range combos {
				adapter := c.modifier.Compile()
				if p.Incremental {
					b.AddIncrementalProduction(p.Head, c.body, p.HandlerIndex, adapter)
				} else {
					b.AddProduction(p.Head, c.body, p.HandlerIndex, adapter)
				}
			}
		}
	}
	return nil
}

// freshNames seeds a throwaway symbol.Table with every non-terminal name the
// source grammar already uses, purely so Table.FreshName can steer clear of
// them when lowering synthesizes a repeat non-terminal.
func freshNames(g *notation.Grammar) *symbol.Table {
	t := symbol.NewTable()
	var walk func(e *notation.Element)
	walk = func(e *notation.Element) {
		if e.Kind == notation.ElemSymbol {
			if !e.IsLiteral {
				t.Intern(symbol.KindNonTerminal, e.Name)
			}
			return
		}
		for _, alt := range e.Alternatives {
			for _, child := range alt {
				walk(child)
			}
		}
	}
	for _, p := range g.Productions {
		t.Intern(symbol.KindNonTerminal, p.Head)
		for _, alt := range p.Alts {
			for _, e := range alt {
				walk(e)
			}
		}
	}
	return t
}

type lowering struct {
	b     *grammar.Builder
	fresh *symbol.Table
}

func (l *lowering) freshName(base string) string {
	name := l.fresh.FreshName(base, nil)
	l.fresh.Intern(symbol.KindNonTerminal, name)
	return name
}

// combo is one candidate lowering of a sequence of notation.Elements: body
// is the flat list of grammar symbol names the production would carry, and
// modifier (possibly nil) reconstructs the sequence's original per-element
// argument vector from body's raw reduce values. modifier's Slot values are
// local to this combo's own span — callers re-base them with
// grammar.ShiftSlot before splicing into a larger sequence.
type combo struct {
	body     []string
	modifier *grammar.HandlerModifier
}

// lowerSequence returns every Cartesian combination of elems' own element
// expansions. A plain run of symbols (no group/optional/mult/repeat among
// elems) produces exactly one combo with a nil modifier: since every element
// kind collapses to exactly one logical value once its own modifier (if any)
// has run, element i's own ops always land at absolute slot i by the time
// they're replayed — regardless of how many raw symbols an earlier element
// contributed to the body.
func (l *lowering) lowerSequence(elems []*notation.Element) ([]combo, error) {
	combos := []combo{{}}
	for i, e := range elems {
		opts, err := l.lowerElement(e)
		if err != nil {
			return nil, err
		}
		next := make([]combo, 0, len(combos)*len(opts))
		for _, c := range combos {
			for _, opt := range opts {
				next = append(next, combo{
					body:     append(append([]string{}, c.body...), opt.body...),
					modifier: grammar.ChainModifiers(c.modifier, grammar.ShiftSlot(opt.modifier, i)),
				})
			}
		}
		combos = next
	}
	return combos, nil
}

func (l *lowering) lowerElement(e *notation.Element) ([]combo, error) {
	switch e.Kind {
	case notation.ElemSymbol:
		return []combo{{body: []string{e.Name}}}, nil
	case notation.ElemGroup:
		return l.lowerGroup(e)
	case notation.ElemOptional:
		return l.lowerOptional(e)
	case notation.ElemRepeat:
		return l.lowerRepeat(e)
	case notation.ElemMult:
		return l.lowerMult(e)
	default:
		return nil, &lowerError{"unknown element kind " + string(e.Kind)}
	}
}

type lowerError struct{ msg string }

func (e *lowerError) Error() string { return "lower: " + e.msg }

// repeated builds the modifier for k back-to-back occurrences of one's
// (body, modifier) shape: one's own modifier runs once per copy (each
// re-based to that copy's own offset), then the k*width resulting values
// merge into a single slot — unless there is exactly one copy of a
// single-element body, which needs no reshaping at all.
func repeated(one combo, width, k int) *grammar.HandlerModifier {
	var chain *grammar.HandlerModifier
	for i := 0; i < k; i++ {
		chain = grammar.ChainModifiers(chain, grammar.ShiftSlot(one.modifier, i*width))
	}
	if k > 1 || width > 1 {
		chain = grammar.ChainModifiers(chain, &grammar.HandlerModifier{Op: grammar.OpMerge, Slot: 0, N: k * width})
	}
	return chain
}

// lowerGroup Cartesian-products each alternative's own lowering into the
// group's set of options — one production per inner alternative, no
// synthesized non-terminal.
func (l *lowering) lowerGroup(e *notation.Element) ([]combo, error) {
	var out []combo
	for _, alt := range e.Alternatives {
		inner, err := l.lowerSequence(alt)
		if err != nil {
			return nil, err
		}
		for _, c := range inner {
			out = append(out, combo{body: c.body, modifier: repeated(c, len(alt), 1)})
		}
	}
	return out, nil
}

// lowerOptional returns the absent option (epsilon; reconstructs to nil)
// plus one present option per (inner-lowering, copy-count) pair. With no
// `* N` suffix that is exactly one inner lowering times one copy, plus the
// absent option — two productions total for a plain `[X]`.
func (l *lowering) lowerOptional(e *notation.Element) ([]combo, error) {
	n := e.Mult
	if n == 0 {
		n = 1
	}
	inner := e.Alternatives[0]
	width := len(inner)
	innerCombos, err := l.lowerSequence(inner)
	if err != nil {
		return nil, err
	}

	out := []combo{{modifier: &grammar.HandlerModifier{Op: grammar.OpEpsilon, Slot: 0}}}
	for _, c := range innerCombos {
		for k := 1; k <= n; k++ {
			out = append(out, combo{body: repeatBody(c.body, k), modifier: repeated(c, width, k)})
		}
	}
	return out, nil
}

// lowerRepeat is the one construct still licensed to synthesize a fresh
// non-terminal: NT -> ε | NT X, reducing to a []any built up one element at
// a time. The epsilon production seeds the accumulator (collect); each
// Cartesian combination of the body gets its own cons production (append).
func (l *lowering) lowerRepeat(e *notation.Element) ([]combo, error) {
	name := l.freshName("__rep")
	inner := e.Alternatives[0]
	width := len(inner)
	items, err := l.lowerSequence(inner)
	if err != nil {
		return nil, err
	}

	l.b.AddProduction(name, nil, -1, (&grammar.HandlerModifier{Op: grammar.OpCollect}).Compile())
	for _, item := range items {
		body := append([]string{name}, item.body...)
		// The accumulator occupies slot 0 ahead of the item. repeated(item,
		// width, 1) collapses a multi-element item body into one value the
		// same way a group or bounded-optional copy would; re-based by one
		// so OpAppend sees (accumulator, item) at slots 0 and 1.
		itemModifier := grammar.ShiftSlot(repeated(item, width, 1), 1)
		modifier := grammar.ChainModifiers(itemModifier, &grammar.HandlerModifier{Op: grammar.OpAppend, Slot: 0})
		l.b.AddProduction(name, body, -1, modifier.Compile())
	}
	return []combo{{body: []string{name}}}, nil
}

// lowerMult splices exactly N copies of its body into the containing
// production — no choice, no synthesized non-terminal.
func (l *lowering) lowerMult(e *notation.Element) ([]combo, error) {
	inner := e.Alternatives[0]
	width := len(inner)
	innerCombos, err := l.lowerSequence(inner)
	if err != nil {
		return nil, err
	}
	out := make([]combo, 0, len(innerCombos))
	for _, c := range innerCombos {
		out = append(out, combo{body: repeatBody(c.body, e.Mult), modifier: repeated(c, width, e.Mult)})
	}
	return out, nil
}

func repeatBody(body []string, n int) []string {
	out := make([]string, 0, len(body)*n)
	for i := 0; i < n; i++ {
		out = append(out, body...)
	}
	return out
}
