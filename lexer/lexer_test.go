package lexer

import (
	"testing"
)

func echoHandler(lexeme string, groups []string) (any, error) { return lexeme, nil }

func discardWhitespace(value any, lexeme string) (string, bool) { return "", false }

// TestLexer_StickyDispatchFirstMatchWins demonstrates that dispatch is
// purely rule-order-driven, not longest-match: a literal rule listed ahead
// of a regex rule wins on any shared prefix, even mid-identifier. Keyword
// recognition is expected to be done the other way around — put the
// identifier rule first and let its NameSelector remap "if" to the IF
// token — which TestLexer_NameSelectorRemapsKeyword exercises.
func TestLexer_StickyDispatchFirstMatchWins(t *testing.T) {
	b := NewBuilder()
	b.AddRule("WS", `[ \t]+`, true, echoHandler, discardWhitespace)
	b.AddRule("IF", "if", false, echoHandler, nil)
	b.AddRule("ID", `[a-zA-Z_][a-zA-Z0-9_]*`, true, echoHandler, nil)

	lx, err := b.NewLexer("iffy")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	tok, err := lx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Name != "IF" || tok.Lexeme != "if" {
		t.Errorf("tok = %+v, want IF \"if\" (a preceding literal rule shadows any shared prefix)", tok)
	}
	tok, err = lx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Name != "ID" || tok.Lexeme != "fy" {
		t.Errorf("tok = %+v, want the remaining \"fy\" as ID", tok)
	}
}

func TestLexer_NameSelectorRemapsKeyword(t *testing.T) {
	b := NewBuilder()
	b.AddRule("WS", `[ \t]+`, true, echoHandler, discardWhitespace)
	b.AddRule("ID", `[a-zA-Z_][a-zA-Z0-9_]*`, true, echoHandler, func(value any, lexeme string) (string, bool) {
		if lexeme == "if" {
			return "IF", true
		}
		return "ID", true
	})

	lx, err := b.NewLexer("if iffy")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	tok, err := lx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Name != "IF" || tok.Lexeme != "if" {
		t.Errorf("tok1 = %+v, want IF \"if\"", tok)
	}
	tok, err = lx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Name != "ID" || tok.Lexeme != "iffy" {
		t.Errorf("tok2 = %+v, want ID \"iffy\" (regex matching is greedy, not prefix-limited)", tok)
	}
	tok, err = lx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !tok.EOF {
		t.Errorf("tok3 = %+v, want EOF", tok)
	}
}

func TestLexer_UnknownTokenError(t *testing.T) {
	b := NewBuilder()
	b.AddRule("ID", `[a-z]+`, true, echoHandler, nil)

	lx, err := b.NewLexer("abc!def")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	if _, err := lx.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if _, err := lx.Next(); err == nil {
		t.Errorf("expected an UnknownToken error at '!'")
	}
}

func TestLexer_ZeroLengthMatchIsFatal(t *testing.T) {
	b := NewBuilder()
	b.AddRule("EMPTY", `a*`, true, echoHandler, nil)

	lx, err := b.NewLexer("bbb")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	if _, err := lx.Next(); err == nil {
		t.Errorf("expected a ZeroLengthMatch error")
	}
}

func TestLexer_NameSelectorDiscardsAndRenames(t *testing.T) {
	b := NewBuilder()
	b.AddRule("NUM", `[0-9]+`, true, func(lexeme string, groups []string) (any, error) {
		return lexeme, nil
	}, func(value any, lexeme string) (string, bool) {
		if lexeme == "0" {
			return "", false // discard literal zero
		}
		return "NUM", true
	})
	b.AddRule("WS", `\s+`, true, echoHandler, discardWhitespace)

	lx, err := b.NewLexer("0 42")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	tok, err := lx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Name != "NUM" || tok.Lexeme != "42" {
		t.Errorf("tok = %+v, want NUM \"42\" (the discarded 0 and whitespace must be skipped)", tok)
	}
}

func TestLexer_SeekAndPos(t *testing.T) {
	b := NewBuilder()
	b.AddRule("CH", `.`, true, echoHandler, nil)

	lx, err := b.NewLexer("abcde")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	if _, err := lx.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if lx.Pos() != 1 {
		t.Fatalf("Pos() = %d, want 1", lx.Pos())
	}

	if err := lx.Seek(3, SeekAbsolute); err != nil {
		t.Fatalf("Seek absolute: %v", err)
	}
	tok, err := lx.Next()
	if err != nil || tok.Lexeme != "d" {
		t.Errorf("after seek(3): tok = %+v, err = %v; want \"d\"", tok, err)
	}

	if err := lx.Seek(-1, SeekRelative); err != nil {
		t.Fatalf("Seek relative: %v", err)
	}
	tok, err = lx.Next()
	if err != nil || tok.Lexeme != "d" {
		t.Errorf("after seek(-1,relative): tok = %+v, err = %v; want \"d\"", tok, err)
	}

	if err := lx.Seek(0, SeekFromEnd); err != nil {
		t.Fatalf("Seek from end: %v", err)
	}
	tok, err = lx.Next()
	if err != nil || !tok.EOF {
		t.Errorf("after seek(0,fromEnd): tok = %+v, err = %v; want EOF", tok, err)
	}

	if err := lx.Seek(-100, SeekAbsolute); err == nil {
		t.Errorf("seeking before start must be a fatal error")
	}
}

func TestLexer_Peek_DoesNotConsume(t *testing.T) {
	b := NewBuilder()
	b.AddRule("CH", `.`, true, echoHandler, nil)

	lx, err := b.NewLexer("xy")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	peeked, err := lx.Peek()
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	next, err := lx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if peeked.Lexeme != next.Lexeme {
		t.Errorf("Peek() = %q, Next() = %q; want equal", peeked.Lexeme, next.Lexeme)
	}
}

func TestLexer_RowColTracking(t *testing.T) {
	b := NewBuilder()
	b.AddRule("WORD", `[a-z]+`, true, echoHandler, nil)
	b.AddRule("WS", `[ \n]+`, true, echoHandler, discardWhitespace)

	lx, err := b.NewLexer("ab\ncd")
	if err != nil {
		t.Fatalf("NewLexer: %v", err)
	}
	tok, err := lx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Pos.Line != 1 || tok.Pos.Col != 1 {
		t.Errorf("first token pos = %+v, want line 1 col 1", tok.Pos)
	}
	tok, err = lx.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if tok.Pos.Line != 2 || tok.Pos.Col != 1 {
		t.Errorf("second token pos = %+v, want line 2 col 1", tok.Pos)
	}
}
