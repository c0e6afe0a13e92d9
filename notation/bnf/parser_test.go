package bnf

import "testing"

func TestParse_SimpleProduction(t *testing.T) {
	g, err := Parse(`<expr> ::= <expr> "+" <expr> | NUM ;`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(g.Productions) != 1 {
		t.Fatalf("len(Productions) = %d, want 1", len(g.Productions))
	}
	p := g.Productions[0]
	if p.Head != "expr" {
		t.Errorf("Head = %q, want expr", p.Head)
	}
	if len(p.Alts) != 2 {
		t.Fatalf("len(Alts) = %d, want 2", len(p.Alts))
	}
	if len(p.Alts[0]) != 3 {
		t.Fatalf("len(Alts[0]) = %d, want 3", len(p.Alts[0]))
	}
	if p.Alts[0][1].Name != "+" || !p.Alts[0][1].IsLiteral {
		t.Errorf("Alts[0][1] = %+v, want literal +", p.Alts[0][1])
	}
	if p.Alts[1][0].Name != "NUM" || p.Alts[1][0].IsLiteral {
		t.Errorf("Alts[1][0] = %+v, want bare NUM", p.Alts[1][0])
	}
}

func TestParse_MultipleProductionsAssignSequentialHandlerIndex(t *testing.T) {
	g, err := Parse(`
		S = A ;
		A = "a" ;
	`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(g.Productions) != 2 {
		t.Fatalf("len(Productions) = %d, want 2", len(g.Productions))
	}
	if g.Productions[0].HandlerIndex != 0 || g.Productions[1].HandlerIndex != 1 {
		t.Errorf("HandlerIndex = %d,%d, want 0,1", g.Productions[0].HandlerIndex, g.Productions[1].HandlerIndex)
	}
}

func TestParse_SingleQuotedLiteralDecodesEscapes(t *testing.T) {
	g, err := Parse(`S : 'a\'b' ;`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lit := g.Productions[0].Alts[0][0]
	if !lit.IsLiteral || lit.Name != "a'b" {
		t.Errorf("literal = %+v, want a'b", lit)
	}
}

func TestParse_MissingSemicolonIsAnError(t *testing.T) {
	_, err := Parse(`S = "a"`)
	if err == nil {
		t.Fatalf("expected an error for a missing terminating ';'")
	}
}

func TestParse_UnterminatedAngleIdentifierIsAnError(t *testing.T) {
	_, err := Parse(`<S ::= "a" ;`)
	if err == nil {
		t.Fatalf("expected an error for an unterminated angle-bracket identifier")
	}
}

func TestParse_EmptyGrammarIsAnError(t *testing.T) {
	_, err := Parse(``)
	if err == nil {
		t.Fatalf("expected an error for a grammar with no productions")
	}
}
