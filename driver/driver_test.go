package driver

import (
	"strconv"
	"testing"

	"github.com/parsekit/lrforge/grammar"
	"github.com/parsekit/lrforge/internal/perr"
	"github.com/parsekit/lrforge/lexer"
)

func buildArithmeticGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder("arithmetic")
	b.SetStart("E")
	b.AddProduction("E", []string{"E", "+", "E"}, 0, nil)
	b.AddProduction("E", []string{"E", "*", "E"}, 1, nil)
	b.AddProduction("E", []string{"NUM"}, 2, nil)
	b.DeclareOperators(grammar.AssocLeft, "+")
	b.DeclareOperators(grammar.AssocLeft, "*")
	b.SetHandlers([]grammar.HandlerFunc{
		func(args []any, ctx any) (any, error) { return args[0].(int) + args[2].(int), nil },
		func(args []any, ctx any) (any, error) { return args[0].(int) * args[2].(int), nil },
		func(args []any, ctx any) (any, error) { return args[0], nil },
	})
	g, err := b.Build(grammar.ModeLALR)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func buildArithmeticLexer(t *testing.T) *lexer.Builder {
	t.Helper()
	lb := lexer.NewBuilder()
	lb.AddRule("WS", `[ \t]+`, true, func(lexeme string, groups []string) (any, error) {
		return nil, nil
	}, func(value any, lexeme string) (string, bool) { return "", false })
	lb.AddRule("NUM", `[0-9]+`, true, func(lexeme string, groups []string) (any, error) {
		n, err := strconv.Atoi(lexeme)
		return n, err
	}, nil)
	lb.AddRule("+", "+", false, func(lexeme string, groups []string) (any, error) { return lexeme, nil }, nil)
	lb.AddRule("*", "*", false, func(lexeme string, groups []string) (any, error) { return lexeme, nil }, nil)
	return lb
}

func TestParser_Parse_RespectsPrecedence(t *testing.T) {
	g := buildArithmeticGrammar(t)
	lb := buildArithmeticLexer(t)

	lx, err := lb.NewLexer("2 + 3 * 4")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}

	result, err := New(g).Parse(lx, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result != 14 {
		t.Errorf("Parse(2 + 3 * 4) = %v, want 14 (* must bind tighter than +)", result)
	}
}

func TestParser_Parse_LeftAssociativity(t *testing.T) {
	g := buildArithmeticGrammar(t)
	lb := buildArithmeticLexer(t)

	lx, err := lb.NewLexer("10 + 3 + 2")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	result, err := New(g).Parse(lx, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result != 15 {
		t.Errorf("Parse(10 + 3 + 2) = %v, want 15", result)
	}
}

func TestParser_Parse_WithCST(t *testing.T) {
	g := buildArithmeticGrammar(t)
	lb := buildArithmeticLexer(t)

	lx, err := lb.NewLexer("2 + 3")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	result, err := New(g, WithCST()).Parse(lx, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	node, ok := result.(*Node)
	if !ok {
		t.Fatalf("result is %T, want *Node", result)
	}
	if node.Value != 5 {
		t.Errorf("node.Value = %v, want 5", node.Value)
	}
	if len(node.Children) != 3 {
		t.Fatalf("len(node.Children) = %d, want 3 (E + E)", len(node.Children))
	}
	if node.Children[1].Lexeme != "+" {
		t.Errorf("middle child lexeme = %q, want \"+\"", node.Children[1].Lexeme)
	}
}

func TestParser_Parse_UnexpectedTokenReportsExpected(t *testing.T) {
	g := buildArithmeticGrammar(t)
	lb := buildArithmeticLexer(t)

	lx, err := lb.NewLexer("2 +")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	_, err = New(g).Parse(lx, nil)
	if err == nil {
		t.Fatalf("expected an UnexpectedToken error for a dangling '+'")
	}
	uerr, ok := err.(*perr.UnexpectedToken)
	if !ok {
		t.Fatalf("error is %T, want *perr.UnexpectedToken", err)
	}
	if !uerr.IsEOF() {
		t.Errorf("want the EOF variant, got TokenName=%q", uerr.TokenName)
	}
	if len(uerr.Expected) == 0 {
		t.Errorf("Expected list should not be empty")
	}
}
