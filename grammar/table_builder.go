package grammar

import (
	"fmt"
	"sort"

	"github.com/parsekit/lrforge/internal/perr"
	"github.com/parsekit/lrforge/symbol"
)

// ShiftReducePolicy picks the fallback when a shift/reduce conflict has no
// applicable operator declaration.
type ShiftReducePolicy string

const (
	PolicyError  = ShiftReducePolicy("error")
	PolicyShift  = ShiftReducePolicy("shift")
	PolicyReduce = ShiftReducePolicy("reduce")
)

// stateView is the mode-agnostic shape the table builder consumes: every
// outgoing edge, and every (lookahead, production) reduce obligation. LR(0)
// and SLR(1) automatons project to this from bare items (all-terminals or
// FOLLOW-restricted respectively); LALR(1) and canonical LR(1) project from
// lookahead-bearing items directly.
type stateView struct {
	num     int
	shifts  map[symbol.Symbol]int
	gotos   map[symbol.Symbol]int
	reduces map[symbol.Symbol][]ProductionID
}

func lr0ToViews(aut *lr0Automaton, prods *productionSet, flw *followSet, restrictToFollow bool, allTerminals []symbol.Symbol) []stateView {
	views := make([]stateView, len(aut.states))
	for _, key := range aut.order {
		st := aut.states[key]
		v := stateView{num: int(st.num), shifts: map[symbol.Symbol]int{}, gotos: map[symbol.Symbol]int{}, reduces: map[symbol.Symbol][]ProductionID{}}
		for sym, tgtKey := range st.next {
			tgt := int(aut.states[tgtKey].num)
			if sym.IsTerminal() {
				v.shifts[sym] = tgt
			} else {
				v.gotos[sym] = tgt
			}
		}
		for prodID := range st.reducible {
			p, _ := prods.byID(prodID)
			var las []symbol.Symbol
			if restrictToFollow {
				for s := range flw.of(p.Head) {
					las = append(las, s)
				}
			} else {
				las = allTerminals
			}
			for _, a := range las {
				v.reduces[a] = append(v.reduces[a], prodID)
			}
		}
		views[int(st.num)] = v
	}
	return views
}

func lr1ToViews(aut *lr1Automaton, prods *productionSet) []stateView {
	views := make([]stateView, len(aut.states))
	for _, key := range aut.order {
		st := aut.states[key]
		v := stateView{num: int(st.num), shifts: map[symbol.Symbol]int{}, gotos: map[symbol.Symbol]int{}, reduces: map[symbol.Symbol][]ProductionID{}}
		for sym, tgtKey := range st.next {
			tgt := int(aut.states[tgtKey].num)
			if sym.IsTerminal() {
				v.shifts[sym] = tgt
			} else {
				v.gotos[sym] = tgt
			}
		}
		for _, it := range st.closure {
			if !it.reducible(prods) {
				continue
			}
			v.reduces[it.la] = append(v.reduces[it.la], it.prod)
		}
		views[int(st.num)] = v
	}
	return views
}

func (g *Grammar) buildTable(views []stateView, initial int, policy ShiftReducePolicy) (*ParsingTable, []error) {
	termCount := g.symTab.NumTerminals()
	nonTermCount := g.symTab.NumNonTerminals()
	t := newParsingTable(len(views), termCount, nonTermCount)
	t.InitialState = initial

	text := func(s symbol.Symbol) string {
		name, _ := g.symTab.Text(s)
		return name
	}

	var errs []error
	for _, v := range views {
		var expected []int
		for sym, tgt := range v.gotos {
			t.setGoTo(v.num, sym.Num(), tgt)
		}
		for sym, tgt := range v.shifts {
			expected = append(expected, sym.Num())
			t.setAction(v.num, sym.Num(), Action{Type: ActionShift, Next: tgt})
		}
		for la, prodIDs := range v.reduces {
			prodIDs = dedupProdIDs(prodIDs)
			if len(prodIDs) > 1 {
				p1, _ := g.prods.byID(prodIDs[0])
				p2, _ := g.prods.byID(prodIDs[1])
				errs = append(errs, &perr.Conflict{
					Kind: perr.ConflictReduceReduce, State: v.num, Terminal: text(la),
					ItemA: p1.String(), ItemB: p2.String(),
				})
				continue
			}
			prodID := prodIDs[0]
			p, _ := g.prods.byID(prodID)

			if p.Head == g.augStart && la.IsEOF() {
				expected = append(expected, la.Num())
				t.setAction(v.num, la.Num(), Action{Type: ActionAccept})
				continue
			}

			existing := t.Action(v.num, la.Num())
			switch existing.Type {
			case ActionError:
				expected = append(expected, la.Num())
				t.setAction(v.num, la.Num(), Action{Type: ActionReduce, Head: p.Head.Num(), Len: len(p.Body), ProdID: prodID})
			case ActionShift:
				resolved, err := g.resolveShiftReduce(v.num, la, existing.Next, prodID, policy, text)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				t.setAction(v.num, la.Num(), resolved)
			case ActionReduce:
				if existing.ProdID != prodID {
					p2, _ := g.prods.byID(existing.ProdID)
					errs = append(errs, &perr.Conflict{
						Kind: perr.ConflictReduceReduce, State: v.num, Terminal: text(la),
						ItemA: p.String(), ItemB: p2.String(),
					})
				}
			}
		}
		sort.Ints(expected)
		t.ExpectedTerminals[v.num] = expected
	}
	return t, errs
}

func dedupProdIDs(ids []ProductionID) []ProductionID {
	seen := map[ProductionID]struct{}{}
	var out []ProductionID
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// resolveShiftReduce implements spec.md §4.3's operator-precedence policy.
func (g *Grammar) resolveShiftReduce(state int, la symbol.Symbol, shiftTarget int, prodID ProductionID, policy ShiftReducePolicy, text func(symbol.Symbol) string) (Action, error) {
	p, _ := g.prods.byID(prodID)

	shiftPrec, _ := g.precAndAssoc.terminal(la, text)
	hasShiftOp := shiftPrec != 0 || g.precAndAssoc.byTermName[text(la)] != nil

	redPrec, redAssoc, hasRedOp := g.precAndAssoc.production(prodID, text)

	if !hasShiftOp || !hasRedOp {
		switch policy {
		case PolicyShift:
			return Action{Type: ActionShift, Next: shiftTarget}, nil
		case PolicyReduce:
			return Action{Type: ActionReduce, Head: p.Head.Num(), Len: len(p.Body), ProdID: prodID}, nil
		default:
			return Action{}, &perr.Conflict{
				Kind: perr.ConflictShiftReduce, State: state, Terminal: text(la),
				ItemA: fmt.Sprintf("shift to %d", shiftTarget), ItemB: p.String(),
				Reason: "no operator precedence declared and shiftReduce policy is error",
			}
		}
	}

	switch {
	case shiftPrec > redPrec:
		return Action{Type: ActionShift, Next: shiftTarget}, nil
	case shiftPrec < redPrec:
		return Action{Type: ActionReduce, Head: p.Head.Num(), Len: len(p.Body), ProdID: prodID}, nil
	default:
		switch redAssoc {
		case AssocLeft:
			return Action{Type: ActionReduce, Head: p.Head.Num(), Len: len(p.Body), ProdID: prodID}, nil
		case AssocRight:
			return Action{Type: ActionShift, Next: shiftTarget}, nil
		default:
			return Action{}, &perr.Conflict{
				Kind: perr.ConflictShiftReduce, State: state, Terminal: text(la),
				ItemA: fmt.Sprintf("shift to %d", shiftTarget), ItemB: p.String(),
				Reason: "non-associative",
			}
		}
	}
}
