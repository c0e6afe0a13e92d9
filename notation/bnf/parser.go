package bnf

import (
	"github.com/parsekit/lrforge/internal/perr"
	"github.com/parsekit/lrforge/notation"
)

// Parse reads BNF grammar text (identifiers, angle-bracket identifiers,
// quoted string terminals, `::=`/`=`/`:` definitions, `|` alternation, `;`
// terminated productions) into a dialect-neutral notation.Grammar.
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
		return nil, &perr.NotationError{Dialect: "bnf", Pos: t.pos, Message: "unknown character " + t.text}
	}
	if t.kind != kind {
		return nil, &perr.NotationError{Dialect: "bnf", Pos: t.pos, Message: "expected " + kind.String() + ", found " + t.kind.String()}
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

	alts, err := p.parseAlternatives()
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
		if peeked.kind != tokPipe {
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

func (p *parser) parseAlternative() ([]*notation.Element, error) {
	var elems []*notation.Element
	for {
		peeked, err := p.peek()
		if err != nil {
			return nil, err
		}
		switch peeked.kind {
		case tokID:
			t, _ := p.advance()
			elems = append(elems, notation.Symbol(t.text, false))
		case tokString:
			t, _ := p.advance()
			elems = append(elems, notation.Symbol(t.text, true))
		default:
			return elems, nil
		}
	}
}
