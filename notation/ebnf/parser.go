package ebnf

import (
	"github.com/parsekit/lrforge/internal/perr"
	"github.com/parsekit/lrforge/notation"
)

// Parse reads EBNF grammar text (BNF plus `(...)` grouping, `[...]`
// optionality with an optional `* N` multiplicity, and `{...}` repetition)
// into a dialect-neutral notation.Grammar.
//
// `?` is tokenized (spec.md §4.1 documents this as never parsed in the
// source dialect) but this front-end resolves the Open Question by treating
// a trailing `?` on an element as sugar for wrapping that element in
// `[...]` — see DESIGN.md.
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
		return nil, &perr.NotationError{Dialect: "ebnf", Pos: t.pos, Message: "unknown character " + t.text}
	}
	if t.kind != kind {
		return nil, &perr.NotationError{Dialect: "ebnf", Pos: t.pos, Message: "expected " + kind.String() + ", found " + t.kind.String()}
	}
	return t, nil
}

func (p *parser) parseGrammar() (*notation.Grammar, error) {
	g := &notation.Grammar{}
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
	if _, err := p.expect(tokDefine); err != nil {
		return nil, err
	}
	alts, err := p.parseAlternatives(isTopStop)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi); err != nil {
		return nil, err
	}
	idx := p.handler
	p.handler++
	return &notation.Production{Head: head.text, Alts: alts, HandlerIndex: idx}, nil
}

func isTopStop(k tokenKind) bool  { return k == tokSemi || k == tokEOF }
func isParenStop(k tokenKind) bool { return k == tokRParen }
func isBracketStop(k tokenKind) bool { return k == tokRBracket }
func isBraceStop(k tokenKind) bool { return k == tokRBrace }

func (p *parser) parseAlternatives(stop func(tokenKind) bool) ([][]*notation.Element, error) {
	first, err := p.parseAlternative(stop)
	if err != nil {
		return nil, err
	}
	alts := [][]*notation.Element{first}
	for {
		peeked, err := p.peek()
		if err != nil {
			return nil, err
		}
		if peeked.kind != tokPipe {
			break
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		alt, err := p.parseAlternative(stop)
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
	}
	return alts, nil
}

func (p *parser) parseAlternative(stop func(tokenKind) bool) ([]*notation.Element, error) {
	var elems []*notation.Element
	for {
		peeked, err := p.peek()
		if err != nil {
			return nil, err
		}
		if stop(peeked.kind) || peeked.kind == tokPipe {
			return elems, nil
		}
		elem, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
	}
}

func toSingleBody(alts [][]*notation.Element) []*notation.Element {
	if len(alts) == 1 {
		return alts[0]
	}
	return []*notation.Element{notation.Group(alts)}
}

func (p *parser) parseElement() (*notation.Element, error) {
	elem, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		peeked, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch peeked.kind {
		case tokStar:
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			n, err := p.expect(tokNumber)
			if err != nil {
				return nil, err
			}
			if elem.Kind == notation.ElemOptional {
				elem.Mult = n.num
			} else {
				elem = notation.Mult([]*notation.Element{elem}, n.num)
			}
		case tokQuestion:
			if _, err := p.advance(); err != nil {
				return nil, err
			}
			elem = notation.Optional([]*notation.Element{elem}, 0)
		default:
			return elem, nil
		}
	}
}

func (p *parser) parsePrimary() (*notation.Element, error) {
	t, err := p.advance()
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case tokID:
		return notation.Symbol(t.text, false), nil
	case tokString:
		return notation.Symbol(t.text, true), nil
	case tokLParen:
		alts, err := p.parseAlternatives(isParenStop)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return notation.Group(alts), nil
	case tokLBracket:
		alts, err := p.parseAlternatives(isBracketStop)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
		return notation.Optional(toSingleBody(alts), 0), nil
	case tokLBrace:
		alts, err := p.parseAlternatives(isBraceStop)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRBrace); err != nil {
			return nil, err
		}
		return notation.Repeat(toSingleBody(alts)), nil
	case tokInvalid:
		return nil, &perr.NotationError{Dialect: "ebnf", Pos: t.pos, Message: "unknown character " + t.text}
	default:
		return nil, &perr.NotationError{Dialect: "ebnf", Pos: t.pos, Message: "unexpected token " + t.kind.String()}
	}
}
