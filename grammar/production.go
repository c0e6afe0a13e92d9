package grammar

import (
	"fmt"

	"github.com/parsekit/lrforge/symbol"
)

// ProductionID identifies a production by its insertion order; it is also
// the production's identifier inside the ACTION table's Reduce entries.
type ProductionID int

const NoProduction = ProductionID(-1)

// AdapterFunc reshapes a reduce's argument vector before the user handler (or
// identity, if HandlerIndex is -1) sees it. EBNF lowering builds a
// HandlerModifier chain and compiles it into one of these (see modifier.go);
// plain BNF productions carry nil.
type AdapterFunc func(args []any) []any

// Production is a single rewrite rule Head -> Body. Body may be empty
// (epsilon production). HandlerIndex indexes into the owning grammar's
// handler array; -1 means "no user handler" (identity).
type Production struct {
	ID           ProductionID
	Head         symbol.Symbol
	Body         []symbol.Symbol
	HandlerIndex int
	Adapter      AdapterFunc

	// Incremental marks a production synthesized from an ABNF "=/" clause;
	// it is folded into an existing head rather than starting a fresh one.
	Incremental bool
}

func (p *Production) IsEmpty() bool { return len(p.Body) == 0 }

// SymbolAt returns the body symbol the dot would be on if it sat at index i,
// or symbol.Nil if i is at or past the end of the body.
func (p *Production) SymbolAt(i int) symbol.Symbol {
	if i < 0 || i >= len(p.Body) {
		return symbol.Nil
	}
	return p.Body[i]
}

func (p *Production) String() string {
	return fmt.Sprintf("%v -> %v", p.Head, p.Body)
}

// productionKey identifies a production by structural content, used to
// deduplicate productions synthesized by EBNF lowering.
type productionKey struct {
	head string
	body string
}

func keyOf(head symbol.Symbol, body []symbol.Symbol, names func(symbol.Symbol) string) productionKey {
	b := make([]byte, 0, len(body)*3)
	for _, s := range body {
		b = append(b, []byte(names(s))...)
		b = append(b, 0)
	}
	return productionKey{head: names(head), body: string(b)}
}

// productionSet stores productions in insertion order, indexed both by ID and
// by head symbol.
type productionSet struct {
	all    []*Production
	byHead map[symbol.Symbol][]*Production
}

func newProductionSet() *productionSet {
	return &productionSet{byHead: map[symbol.Symbol][]*Production{}}
}

func (ps *productionSet) add(p *Production) {
	p.ID = ProductionID(len(ps.all))
	ps.all = append(ps.all, p)
	ps.byHead[p.Head] = append(ps.byHead[p.Head], p)
}

func (ps *productionSet) byID(id ProductionID) (*Production, bool) {
	if id < 0 || int(id) >= len(ps.all) {
		return nil, false
	}
	return ps.all[id], true
}

func (ps *productionSet) byLHS(head symbol.Symbol) []*Production {
	return ps.byHead[head]
}

func (ps *productionSet) count() int { return len(ps.all) }
