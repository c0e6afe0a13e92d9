package abnf

import (
	"strconv"

	"github.com/parsekit/lrforge/internal/perr"
	"github.com/parsekit/lrforge/notation"
)

// Parse reads ABNF grammar text into a dialect-neutral notation.Grammar.
// A `=/` clause produces a notation.Production with Incremental set, which
// the grammar.Builder merges into the existing rule of the same name rather
// than treating as a redeclaration.
//
// This front-end only extracts rulename/STRING/PROSE/NUMBER tokens as
// literal RHS elements: grouping (`(...)`), optionality (`[...]`), and
// repeat-count punctuation are carried through as their own literal
// elements in source order rather than restructuring the grammar the way
// the ebnf front-end's Group/Optional/Repeat do.
func Parse(src string) (*notation.Grammar, error) {
	p := &parser{lex: newLexer(src)}
	return p.parseGrammar()
}

type parser struct {
	lex     *lexer
	peeked  *token
	handler int
}

func (p *parser) advance() (*token, error) {
	if p.peeked != nil {
		t := p.peeked
		p.peeked = nil
		return t, nil
	}
	return p.lex.next()
}

func (p *parser) peek() (*token, error) {
	if p.peeked == nil {
		t, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		p.peeked = t
	}
	return p.peeked, nil
}

func (p *parser) expect(kind tokenKind) (*token, error) {
	t, err := p.advance()
	if err != nil {
		return nil, err
	}
	if t.kind == tokInvalid {
		return nil, &perr.NotationError{Dialect: "abnf", Pos: t.pos, Message: "unknown character " + t.text}
	}
	if t.kind != kind {
		return nil, &perr.NotationError{Dialect: "abnf", Pos: t.pos, Message: "expected " + kind.String() + ", found " + t.kind.String()}
	}
	return t, nil
}

func (p *parser) skipNewlines() error {
	for {
		t, err := p.peek()
		if err != nil {
			return err
		}
		if t.kind != tokNewline {
			return nil
		}
		if _, err := p.advance(); err != nil {
			return err
		}
	}
}

func (p *parser) parseGrammar() (*notation.Grammar, error) {
	g := &notation.Grammar{}
	if err := p.skipNewlines(); err != nil {
		return nil, err
	}
	for {
		peeked, err := p.peek()
		if err != nil {
			return nil, err
		}
		if peeked.kind == tokEOF {
			break
		}
		prod, err := p.parseProduction()
		if err != nil {
			return nil, err
		}
		g.Productions = append(g.Productions, prod)
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (p *parser) parseProduction() (*notation.Production, error) {
	head, err := p.expect(tokID)
	if err != nil {
		return nil, err
	}
	defTok, err := p.advance()
	if err != nil {
		return nil, err
	}
	incremental := false
	switch defTok.kind {
	case tokDefine:
	case tokIncremental:
		incremental = true
	default:
		return nil, &perr.NotationError{Dialect: "abnf", Pos: defTok.pos, Message: "expected = or =/, found " + defTok.kind.String()}
	}

	alts, err := p.parseAlternatives()
	if err != nil {
		return nil, err
	}

	idx := p.handler
	p.handler++
	return &notation.Production{Head: head.text, Alts: alts, HandlerIndex: idx, Incremental: incremental}, nil
}

func isAltStop(k tokenKind) bool { return k == tokNewline || k == tokEOF }

// parseAlternatives splits on top-level `/`: alternation is the one piece of
// structure this front-end acts on; grouping, optionality and numeric
// semantics stay as uninterpreted literal tokens.
func (p *parser) parseAlternatives() ([][]*notation.Element, error) {
	first, err := p.parseAlternative()
	if err != nil {
		return nil, err
	}
	alts := [][]*notation.Element{first}
	for {
		peeked, err := p.peek()
		if err != nil {
			return nil, err
		}
		if peeked.kind != tokSlash {
			break
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		alt, err := p.parseAlternative()
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
	}
	return alts, nil
}

// parseAlternative consumes one flat run of literal RHS elements up to the
// next `/`, newline, or EOF. `(`, `)`, `[`, `]`, `*` and repeat counts are
// never recursed into or unrolled: each becomes its own literal element in
// source order.
func (p *parser) parseAlternative() ([]*notation.Element, error) {
	var elems []*notation.Element
	for {
		peeked, err := p.peek()
		if err != nil {
			return nil, err
		}
		if isAltStop(peeked.kind) || peeked.kind == tokSlash {
			return elems, nil
		}
		elem, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
}

// parseElement consumes exactly one token and turns it into one literal RHS
// element: a rulename becomes a non-literal symbol reference, everything
// else (STRING, PROSE, the %b/%d/%x numeric-value notation, NUMBER, and the
// grouping/optionality/repeat-count punctuation) becomes a literal element
// carrying that token's own text.
func (p *parser) parseElement() (*notation.Element, error) {
	t, err := p.advance()
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case tokID:
		return notation.Symbol(t.text, false), nil
	case tokString, tokPercentValue, tokProse:
		return notation.Symbol(t.text, true), nil
	case tokNumber:
		return notation.Symbol(strconv.Itoa(t.num), true), nil
	case tokLParen, tokRParen, tokLBracket, tokRBracket, tokStar:
		return notation.Symbol(t.kind.String(), true), nil
	case tokInvalid:
		return nil, &perr.NotationError{Dialect: "abnf", Pos: t.pos, Message: "unknown character " + t.text}
	default:
		return nil, &perr.NotationError{Dialect: "abnf", Pos: t.pos, Message: "unexpected token " + t.kind.String()}
	}
}
