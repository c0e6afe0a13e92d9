package lower

import (
	"testing"

	"github.com/parsekit/lrforge/grammar"
	"github.com/parsekit/lrforge/notation"
)

// findByHead returns every production in g whose head, once built, textually
// matches name.
func findByHead(t *testing.T, g *grammar.Grammar, name string) []*grammar.Production {
	t.Helper()
	symTab := g.SymbolTable()
	sym, ok := symTab.Lookup(name)
	if !ok {
		t.Fatalf("symbol %q was never interned", name)
	}
	var out []*grammar.Production
	for i := 0; i < g.ProductionCount(); i++ {
		p, ok := g.Production(grammar.ProductionID(i))
		if ok && p.Head == sym {
			out = append(out, p)
		}
	}
	return out
}

func buildLowered(t *testing.T, g *notation.Grammar) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder("test")
	if err := Lower(g, b); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	built, err := b.Build(grammar.ModeLALR)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return built
}

// TestLowerOptional_SingleElementPassesThrough covers the plain `[A] B` case:
// the optional splices directly into S's own production rather than
// synthesizing a helper non-terminal, so S must have exactly two productions
// (absent, present), and the single-symbol present alternative must carry no
// adapter at all (the driver's own passthrough handles it unassisted).
func TestLowerOptional_SingleElementPassesThrough(t *testing.T) {
	g := &notation.Grammar{
		Start: "S",
		Productions: []*notation.Production{
			{Head: "S", HandlerIndex: -1, Alts: [][]*notation.Element{{
				notation.Optional([]*notation.Element{notation.Symbol("A", false)}, 0),
				notation.Symbol("B", false),
			}}},
			{Head: "A", HandlerIndex: -1, Alts: [][]*notation.Element{{notation.Symbol("a", true)}}},
			{Head: "B", HandlerIndex: -1, Alts: [][]*notation.Element{{notation.Symbol("b", true)}}},
		},
	}
	built := buildLowered(t, g)

	alts := findByHead(t, built, "S")
	if len(alts) != 2 {
		t.Fatalf("want 2 productions for S (absent + present), got %d", len(alts))
	}
	for _, p := range alts {
		switch len(p.Body) {
		case 1: // absent: body is just B
			if p.Adapter == nil {
				t.Fatalf("absent alternative must carry an adapter (inserts the missing slot)")
			}
			got := p.Adapter([]any{"vb"})
			if len(got) != 2 || got[0] != nil || got[1] != "vb" {
				t.Errorf("absent adapter([vb]) = %#v, want [nil vb]", got)
			}
		case 2: // present: body is A B
			if p.Adapter != nil {
				t.Errorf("present alternative with two single-value symbols must have no adapter (passthrough)")
			}
		default:
			t.Errorf("unexpected body length %d", len(p.Body))
		}
	}
}

// TestLowerOptional_MultiElementBodyAlwaysWraps is the regression case for
// the k==1-but-multi-symbol-body bug: `[A B]` (one copy of a two-element
// body) must still merge its two raw values into a single []any at the
// optional's own slot, never leave it flattened across the production.
func TestLowerOptional_MultiElementBodyAlwaysWraps(t *testing.T) {
	g := &notation.Grammar{
		Start: "S",
		Productions: []*notation.Production{
			{Head: "S", HandlerIndex: -1, Alts: [][]*notation.Element{{
				notation.Optional([]*notation.Element{
					notation.Symbol("A", false),
					notation.Symbol("B", false),
				}, 0),
			}}},
			{Head: "A", HandlerIndex: -1, Alts: [][]*notation.Element{{notation.Symbol("a", true)}}},
			{Head: "B", HandlerIndex: -1, Alts: [][]*notation.Element{{notation.Symbol("b", true)}}},
		},
	}
	built := buildLowered(t, g)

	alts := findByHead(t, built, "S")
	var present *grammar.Production
	for _, p := range alts {
		if len(p.Body) == 2 {
			present = p
		}
	}
	if present == nil {
		t.Fatalf("expected a 2-symbol present alternative among %d productions", len(alts))
	}
	if present.Adapter == nil {
		t.Fatalf("a multi-element body must carry a wrapping adapter even at one copy")
	}
	got := present.Adapter([]any{"va", "vb"})
	if len(got) != 1 {
		t.Fatalf("wrapped result has %d elements, want 1", len(got))
	}
	inner, ok := got[0].([]any)
	if !ok || len(inner) != 2 || inner[0] != "va" || inner[1] != "vb" {
		t.Errorf("wrapped result = %#v, want [][]any{\"va\",\"vb\"}", got)
	}
}

// TestLowerRepeat_AccumulatesList checks the left-recursive NT -> ε | NT X
// cons adapter builds up a list in encounter order. repeat is still the one
// construct licensed to synthesize a fresh non-terminal.
func TestLowerRepeat_AccumulatesList(t *testing.T) {
	g := &notation.Grammar{
		Start: "S",
		Productions: []*notation.Production{
			{Head: "S", HandlerIndex: -1, Alts: [][]*notation.Element{{
				notation.Repeat([]*notation.Element{notation.Symbol("A", false)}),
			}}},
			{Head: "A", HandlerIndex: -1, Alts: [][]*notation.Element{{notation.Symbol("a", true)}}},
		},
	}
	built := buildLowered(t, g)

	reps := findByHead(t, built, "__rep")
	if len(reps) != 2 {
		t.Fatalf("want 2 __rep productions (epsilon + cons), got %d", len(reps))
	}

	var epsilon, cons *grammar.Production
	for _, p := range reps {
		if len(p.Body) == 0 {
			epsilon = p
		} else {
			cons = p
		}
	}
	if epsilon == nil || cons == nil {
		t.Fatalf("missing epsilon or cons production")
	}

	seed := epsilon.Adapter(nil)
	if len(seed) != 1 {
		t.Fatalf("epsilon seed = %#v, want a 1-element []any wrapping an empty list", seed)
	}
	list1 := cons.Adapter([]any{seed[0], "v1"})
	list2 := cons.Adapter([]any{list1[0], "v2"})

	final, ok := list2[0].([]any)
	if !ok || len(final) != 2 || final[0] != "v1" || final[1] != "v2" {
		t.Errorf("accumulated list = %#v, want [v1 v2]", list2[0])
	}
}

// TestLowerRepeat_MultiElementBodyCollapsesToOnePair checks a repeat whose
// body has more than one element (`{ "," A }`) collapses each occurrence
// into a single pair value before appending it, matching the accumulator
// shape handlers are written against (one list entry per occurrence, not one
// per raw symbol).
func TestLowerRepeat_MultiElementBodyCollapsesToOnePair(t *testing.T) {
	g := &notation.Grammar{
		Start: "S",
		Productions: []*notation.Production{
			{Head: "S", HandlerIndex: -1, Alts: [][]*notation.Element{{
				notation.Symbol("A", false),
				notation.Repeat([]*notation.Element{notation.Symbol("comma", true), notation.Symbol("A", false)}),
			}}},
			{Head: "A", HandlerIndex: -1, Alts: [][]*notation.Element{{notation.Symbol("a", true)}}},
		},
	}
	built := buildLowered(t, g)

	reps := findByHead(t, built, "__rep")
	var epsilon, cons *grammar.Production
	for _, p := range reps {
		if len(p.Body) == 0 {
			epsilon = p
		} else {
			cons = p
		}
	}
	if epsilon == nil || cons == nil {
		t.Fatalf("missing epsilon or cons production")
	}
	if len(cons.Body) != 3 { // __rep, comma, A
		t.Fatalf("cons production body = %v, want 3 symbols", cons.Body)
	}

	seed := epsilon.Adapter(nil)
	list1 := cons.Adapter([]any{seed[0], ",", "v1"})
	pair, ok := list1[0].([]any)
	if !ok || len(pair) != 1 {
		t.Fatalf("list1[0] = %#v, want a 1-element list holding one merged pair", list1[0])
	}
	item, ok := pair[0].([]any)
	if !ok || len(item) != 2 || item[0] != "," || item[1] != "v1" {
		t.Errorf("accumulated item = %#v, want [, v1]", pair[0])
	}
}

// TestLowerGroup_SingleAltPassesThroughMultiWraps checks lowerGroup's two
// branches splice directly into S's own production set rather than
// synthesizing a helper non-terminal: a one-symbol alternative passes
// through, a multi-symbol one wraps, and S ends up with exactly two
// productions (one per group alternative).
func TestLowerGroup_SingleAltPassesThroughMultiWraps(t *testing.T) {
	g := &notation.Grammar{
		Start: "S",
		Productions: []*notation.Production{
			{Head: "S", HandlerIndex: -1, Alts: [][]*notation.Element{{
				notation.Group([][]*notation.Element{
					{notation.Symbol("A", false)},
					{notation.Symbol("A", false), notation.Symbol("B", false)},
				}),
			}}},
			{Head: "A", HandlerIndex: -1, Alts: [][]*notation.Element{{notation.Symbol("a", true)}}},
			{Head: "B", HandlerIndex: -1, Alts: [][]*notation.Element{{notation.Symbol("b", true)}}},
		},
	}
	built := buildLowered(t, g)

	alts := findByHead(t, built, "S")
	if len(alts) != 2 {
		t.Fatalf("want 2 productions for S (one per group alternative), got %d", len(alts))
	}
	for _, p := range alts {
		if len(p.Body) == 1 && p.Adapter != nil {
			t.Errorf("single-symbol alternative must pass through (no adapter)")
		}
		if len(p.Body) == 2 && p.Adapter == nil {
			t.Errorf("two-symbol alternative must wrap")
		}
	}
}

// TestLowerMult_SplicesNCopiesInPlace checks `A*3` splices three copies of A
// directly into the containing production (no synthesized non-terminal) and
// merges the three resulting values into the mult's own slot.
func TestLowerMult_SplicesNCopiesInPlace(t *testing.T) {
	g := &notation.Grammar{
		Start: "S",
		Productions: []*notation.Production{
			{Head: "S", HandlerIndex: -1, Alts: [][]*notation.Element{{
				notation.Mult([]*notation.Element{notation.Symbol("A", false)}, 3),
			}}},
			{Head: "A", HandlerIndex: -1, Alts: [][]*notation.Element{{notation.Symbol("a", true)}}},
		},
	}
	built := buildLowered(t, g)

	alts := findByHead(t, built, "S")
	if len(alts) != 1 {
		t.Fatalf("want exactly 1 production for S, got %d", len(alts))
	}
	p := alts[0]
	if len(p.Body) != 3 {
		t.Fatalf("S body = %v, want 3 copies of A", p.Body)
	}
	if p.Adapter == nil {
		t.Fatalf("three copies must carry a merging adapter")
	}
	got := p.Adapter([]any{"v1", "v2", "v3"})
	if len(got) != 1 {
		t.Fatalf("merged result has %d elements, want 1", len(got))
	}
	merged, ok := got[0].([]any)
	if !ok || len(merged) != 3 || merged[0] != "v1" || merged[1] != "v2" || merged[2] != "v3" {
		t.Errorf("merged result = %#v, want [v1 v2 v3]", got[0])
	}
}
