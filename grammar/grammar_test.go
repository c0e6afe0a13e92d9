package grammar

import (
	"strings"
	"testing"
)

// buildArithmetic assembles the classic ambiguous E -> E+E | E*E | NUM
// grammar, relying on declared operator precedence/associativity (rather
// than grammar restructuring) to resolve its shift/reduce conflicts — the
// case operator declarations exist for.
func buildArithmetic(t *testing.T, mode Mode) *Grammar {
	t.Helper()
	b := NewBuilder("arithmetic")
	b.SetStart("E")
	b.AddProduction("E", []string{"E", "+", "E"}, 0, nil)
	b.AddProduction("E", []string{"E", "*", "E"}, 1, nil)
	b.AddProduction("E", []string{"NUM"}, 2, nil)
	b.DeclareOperators(AssocLeft, "+")
	b.DeclareOperators(AssocLeft, "*")
	b.SetHandlers([]HandlerFunc{
		func(args []any, ctx any) (any, error) { return args[0].(int) + args[2].(int), nil },
		func(args []any, ctx any) (any, error) { return args[0].(int) * args[2].(int), nil },
		func(args []any, ctx any) (any, error) { return args[0], nil },
	})

	g, err := b.Build(mode)
	if err != nil {
		t.Fatalf("Build(%s): %v", mode, err)
	}
	return g
}

func TestBuild_ArithmeticPrecedence(t *testing.T) {
	for _, mode := range []Mode{ModeSLR, ModeLALR, ModeLR1, ModeAuto} {
		g := buildArithmetic(t, mode)
		if g.Table == nil {
			t.Fatalf("%s: Table is nil", mode)
		}
		if g.ResolvedMode == "" {
			t.Errorf("%s: ResolvedMode not set", mode)
		}
	}
}

func TestBuild_NoProductions(t *testing.T) {
	b := NewBuilder("empty")
	if _, err := b.Build(ModeLALR); err == nil {
		t.Errorf("Build with no productions should fail")
	}
}

func TestBuild_UnresolvedShiftReduce(t *testing.T) {
	// An ambiguous E+E grammar with no operator declarations and the
	// default error policy: the E+E ambiguity must surface as a reported
	// conflict instead of being silently resolved.
	b := NewBuilder("ambiguous")
	b.SetStart("E")
	b.AddProduction("E", []string{"E", "+", "E"}, -1, nil)
	b.AddProduction("E", []string{"NUM"}, -1, nil)

	_, err := b.Build(ModeLALR)
	if err == nil {
		t.Fatalf("expected a shift/reduce conflict error, got none")
	}
	if !strings.Contains(err.Error(), "conflict") {
		t.Errorf("error %q does not mention a conflict", err.Error())
	}
}

func TestBuild_ShiftReducePolicyShift(t *testing.T) {
	b := NewBuilder("dangling-else-ish")
	b.SetStart("E")
	b.AddProduction("E", []string{"E", "+", "E"}, -1, nil)
	b.AddProduction("E", []string{"NUM"}, -1, nil)
	b.SetShiftReducePolicy(PolicyShift)

	g, err := b.Build(ModeLALR)
	if err != nil {
		t.Fatalf("Build with PolicyShift: %v", err)
	}
	if g.Table == nil {
		t.Fatal("Table is nil")
	}
}

func TestGrammar_ProductionCountAndAccessors(t *testing.T) {
	g := buildArithmetic(t, ModeLALR)
	// +1 for the synthesized augmenting production.
	if g.ProductionCount() != 4 {
		t.Errorf("ProductionCount() = %d, want 4", g.ProductionCount())
	}
	if g.AugStartSymbol().IsNil() {
		t.Errorf("AugStartSymbol must not be nil")
	}
	if g.StartSymbol().IsNil() {
		t.Errorf("StartSymbol must not be nil")
	}
	if _, ok := g.Production(NoProduction); ok {
		t.Errorf("Production(NoProduction) should report not-found")
	}
}

func TestGrammar_Describe(t *testing.T) {
	g := buildArithmetic(t, ModeLALR)
	out := g.Describe()
	if !strings.Contains(out, "arithmetic") {
		t.Errorf("Describe() missing grammar name: %q", out)
	}
	if !strings.Contains(out, "states:") {
		t.Errorf("Describe() missing state summary: %q", out)
	}
}
