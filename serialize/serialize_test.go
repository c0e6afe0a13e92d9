package serialize

import (
	"strconv"
	"testing"

	"github.com/parsekit/lrforge/driver"
	"github.com/parsekit/lrforge/grammar"
	"github.com/parsekit/lrforge/lexer"
)

func buildRoundTripGrammar(t *testing.T, reg *Registry) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder("arithmetic")
	b.SetStart("E")
	b.AddProduction("E", []string{"E", "+", "E"}, 0, nil)
	b.AddProduction("E", []string{"E", "*", "E"}, 1, nil)
	b.AddProduction("E", []string{"NUM"}, 2, nil)
	b.DeclareOperators(grammar.AssocLeft, "+")
	b.DeclareOperators(grammar.AssocLeft, "*")
	add := func(args []any, ctx any) (any, error) { return args[0].(int) + args[2].(int), nil }
	mul := func(args []any, ctx any) (any, error) { return args[0].(int) * args[2].(int), nil }
	ident := func(args []any, ctx any) (any, error) { return args[0], nil }
	b.SetHandlers([]grammar.HandlerFunc{add, mul, ident})
	reg.RegisterGrammarHandler("add", add)
	reg.RegisterGrammarHandler("mul", mul)
	reg.RegisterGrammarHandler("ident", ident)

	g, err := b.Build(grammar.ModeLALR)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func buildRoundTripLexer(t *testing.T, reg *Registry) *lexer.Builder {
	t.Helper()
	discardWS := func(value any, lexeme string) (string, bool) { return "", false }
	discardHandler := func(lexeme string, groups []string) (any, error) { return nil, nil }
	numHandler := func(lexeme string, groups []string) (any, error) {
		n, err := strconv.Atoi(lexeme)
		return n, err
	}
	echo := func(lexeme string, groups []string) (any, error) { return lexeme, nil }

	reg.RegisterLexerHandler("discard", discardHandler)
	reg.RegisterLexerHandler("num", numHandler)
	reg.RegisterLexerHandler("echo", echo)
	reg.RegisterNameSelector("discardSel", discardWS)

	lb := lexer.NewBuilder()
	lb.AddRule("WS", `[ \t]+`, true, discardHandler, discardWS)
	lb.AddRule("NUM", `[0-9]+`, true, numHandler, nil)
	lb.AddRule("+", "+", false, echo, nil)
	lb.AddRule("*", "*", false, echo, nil)
	return lb
}

func TestGrammarRoundTrip_DrivesIdenticalParse(t *testing.T) {
	reg := NewRegistry()
	g := buildRoundTripGrammar(t, reg)
	lb := buildRoundTripLexer(t, reg)

	data, err := GrammarToYAML(g, []string{"", "add", "mul", "ident"})
	if err != nil {
		t.Fatalf("GrammarToYAML: %v", err)
	}
	g2, err := GrammarFromYAML(data, reg)
	if err != nil {
		t.Fatalf("GrammarFromYAML: %v", err)
	}

	lx1, err := lb.NewLexer("2 + 3 * 4")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	want, err := driver.New(g).Parse(lx1, nil)
	if err != nil {
		t.Fatalf("Parse(original): %v", err)
	}

	lx2, err := lb.NewLexer("2 + 3 * 4")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	got, err := driver.New(g2).Parse(lx2, nil)
	if err != nil {
		t.Fatalf("Parse(deserialized): %v", err)
	}

	if got != want {
		t.Errorf("Parse(deserialized) = %v, want %v (same as the original grammar)", got, want)
	}
	if want != 14 {
		t.Fatalf("sanity: want = %v, expected 14", want)
	}
}

func TestGrammarRoundTrip_UnknownBuiltinIDFails(t *testing.T) {
	reg := NewRegistry()
	g := buildRoundTripGrammar(t, reg)

	data, err := GrammarToYAML(g, []string{"", "add", "mul", "ident"})
	if err != nil {
		t.Fatalf("GrammarToYAML: %v", err)
	}

	emptyReg := NewRegistry()
	if _, err := GrammarFromYAML(data, emptyReg); err == nil {
		t.Fatalf("expected a SerializationFailure for an unregistered builtin id")
	}
}

func TestLexerRoundTrip_ProducesEquivalentTokens(t *testing.T) {
	reg := NewRegistry()
	lb := buildRoundTripLexer(t, reg)

	data, err := LexerToYAML(lb, []string{"discard", "num", "echo", "echo"}, []string{"discardSel", "", "", ""})
	if err != nil {
		t.Fatalf("LexerToYAML: %v", err)
	}
	lb2, err := LexerFromYAML(data, reg)
	if err != nil {
		t.Fatalf("LexerFromYAML: %v", err)
	}

	lx1, err := lb.NewLexer("12 + 3")
	if err != nil {
		t.Fatalf("NewLexer(original): %v", err)
	}
	lx2, err := lb2.NewLexer("12 + 3")
	if err != nil {
		t.Fatalf("NewLexer(deserialized): %v", err)
	}

	for {
		tok1, err1 := lx1.Next()
		tok2, err2 := lx2.Next()
		if err1 != nil || err2 != nil {
			t.Fatalf("Next errors: %v, %v", err1, err2)
		}
		if tok1.Name != tok2.Name || tok1.Lexeme != tok2.Lexeme {
			t.Fatalf("token mismatch: %+v vs %+v", tok1, tok2)
		}
		if tok1.EOF {
			break
		}
	}
}

func TestScanPurity_FlagsKnownImpureSinks(t *testing.T) {
	if !ScanPurity("return a + b") {
		t.Errorf("a pure-looking handler must not be flagged")
	}
	if ScanPurity("return time.Now().Unix()") {
		t.Errorf("a handler referencing time.Now must be flagged impure")
	}
}

func TestRegistry_ResolveGrammarHandler_SourceKindAlwaysFails(t *testing.T) {
	reg := NewRegistry()
	h := SourceHandler("return args[0], nil")
	if _, err := reg.ResolveGrammarHandler(h); err == nil {
		t.Fatalf("a Source-kind handler must never resolve to a callable")
	}
}
