package grammar

import "github.com/parsekit/lrforge/symbol"

// Assoc is a production/terminal's associativity, used to break
// shift/reduce ties of equal precedence.
type Assoc string

const (
	AssocNone  = Assoc("none")
	AssocLeft  = Assoc("left")
	AssocRight = Assoc("right")
)

// Operator is a declared (name, associativity, precedence) triple, keyed by
// terminal name in the grammar builder. Precedence increases with each later
// DeclareOperators call.
type Operator struct {
	Name  string
	Assoc Assoc
	Prec  int
}

// OperatorFilter picks which terminal in a production's body is "the"
// operator used to resolve a shift/reduce conflict against that production's
// reduce action. The default (see defaultOperatorFilter) is the last body
// terminal present in the operator table; Builder.SetOperatorFilter
// overrides it.
type OperatorFilter func(body []symbol.Symbol, text func(symbol.Symbol) string, table map[string]*Operator) (symbol.Symbol, bool)

func defaultOperatorFilter(body []symbol.Symbol, text func(symbol.Symbol) string, table map[string]*Operator) (symbol.Symbol, bool) {
	for i := len(body) - 1; i >= 0; i-- {
		s := body[i]
		if !s.IsTerminal() {
			continue
		}
		if _, ok := table[text(s)]; ok {
			return s, true
		}
	}
	return symbol.Nil, false
}

// precAndAssoc resolves a symbol or production to its declared precedence
// and associativity, defaulting to (0, none) when nothing was declared.
type precAndAssoc struct {
	byTermName map[string]*Operator
	// prodOperator[id] is the symbol chosen by the operator filter for
	// production id, or symbol.Nil if none applies.
	prodOperator map[ProductionID]symbol.Symbol
}

func (pa *precAndAssoc) terminal(sym symbol.Symbol, text func(symbol.Symbol) string) (int, Assoc) {
	op, ok := pa.byTermName[text(sym)]
	if !ok {
		return 0, AssocNone
	}
	return op.Prec, op.Assoc
}

func (pa *precAndAssoc) production(id ProductionID, text func(symbol.Symbol) string) (int, Assoc, bool) {
	sym, ok := pa.prodOperator[id]
	if !ok || sym.IsNil() {
		return 0, AssocNone, false
	}
	prec, assoc := pa.terminal(sym, text)
	return prec, assoc, true
}
