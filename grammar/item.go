package grammar

import (
	"fmt"

	"github.com/parsekit/lrforge/symbol"
)

// lrItem is a bare LR(0) item: a production with a dot position.
// dot == len(body) means reducible; dot == 0 means at start.
type lrItem struct {
	prod ProductionID
	dot  int
}

func (it lrItem) dottedSymbol(ps *productionSet) symbol.Symbol {
	p, ok := ps.byID(it.prod)
	if !ok {
		return symbol.Nil
	}
	return p.SymbolAt(it.dot)
}

func (it lrItem) reducible(ps *productionSet) bool {
	p, ok := ps.byID(it.prod)
	if !ok {
		return false
	}
	return it.dot == len(p.Body)
}

func (it lrItem) advance() lrItem {
	return lrItem{prod: it.prod, dot: it.dot + 1}
}

func (it lrItem) isInitial(ps *productionSet) bool {
	p, ok := ps.byID(it.prod)
	if !ok {
		return false
	}
	return p.Head.IsStart() && it.dot == 0
}

func (it lrItem) String() string {
	return fmt.Sprintf("[%d,%d]", it.prod, it.dot)
}

// lr1Item is an LR(1) item: a bare item plus a single lookahead terminal.
// An item with several lookaheads is represented as several lr1Items
// sharing the same lrItem, one per lookahead — this is the textbook
// Cartesian expansion and keeps set membership a plain map key.
type lr1Item struct {
	lrItem
	la symbol.Symbol
}

func (it lr1Item) String() string {
	return fmt.Sprintf("[%d,%d,%v]", it.prod, it.dot, it.la)
}
