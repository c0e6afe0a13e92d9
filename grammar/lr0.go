package grammar

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/parsekit/lrforge/symbol"
)

var errNoStartProduction = fmt.Errorf("grammar: no production for start symbol")

type stateNum int

func (n stateNum) String() string { return strconv.Itoa(int(n)) }

// kernelKey canonically identifies a set of items (a state's kernel) by
// sorting them on (production, dot) and concatenating. This replaces the
// teacher's SHA-256 item/kernel IDs with a plain comparable string: the
// grammars this generator handles are small enough that collision-resistant
// hashing buys nothing, and a string key lets states live directly in a Go
// map without a digest step.
type kernelKey string

func keyOfItems(items []lrItem) kernelKey {
	sorted := append([]lrItem(nil), items...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].prod != sorted[j].prod {
			return sorted[i].prod < sorted[j].prod
		}
		return sorted[i].dot < sorted[j].dot
	})
	b := make([]byte, 0, len(sorted)*8)
	for _, it := range sorted {
		b = append(b, []byte(fmt.Sprintf("%d:%d,", it.prod, it.dot))...)
	}
	return kernelKey(b)
}

// lr0State is one automaton state built from bare LR(0) items: a kernel plus
// its closure, and the transition function to neighbouring kernels.
type lr0State struct {
	id        kernelKey
	kernel    []lrItem
	closure   []lrItem
	num       stateNum
	next      map[symbol.Symbol]kernelKey
	reducible map[ProductionID]struct{}
}

type lr0Automaton struct {
	initial kernelKey
	states  map[kernelKey]*lr0State
	order   []kernelKey // states in construction order, num == index
}

func closeLR0(kernel []lrItem, prods *productionSet) []lrItem {
	items := append([]lrItem(nil), kernel...)
	known := map[lrItem]struct{}{}
	for _, it := range items {
		known[it] = struct{}{}
	}
	worklist := append([]lrItem(nil), kernel...)
	for len(worklist) > 0 {
		var next []lrItem
		for _, it := range worklist {
			sym := it.dottedSymbol(prods)
			if !sym.IsNonTerminal() {
				continue
			}
			for _, p := range prods.byLHS(sym) {
				cand := lrItem{prod: p.ID, dot: 0}
				if _, ok := known[cand]; ok {
					continue
				}
				known[cand] = struct{}{}
				items = append(items, cand)
				next = append(next, cand)
			}
		}
		worklist = next
	}
	return items
}

// gotoLR0 advances every item in items whose dotted symbol is sym, returning
// the resulting kernel (unclosed).
func gotoLR0(items []lrItem, sym symbol.Symbol, prods *productionSet) []lrItem {
	var out []lrItem
	seen := map[lrItem]struct{}{}
	for _, it := range items {
		if it.dottedSymbol(prods) != sym {
			continue
		}
		adv := it.advance()
		if _, ok := seen[adv]; ok {
			continue
		}
		seen[adv] = struct{}{}
		out = append(out, adv)
	}
	return out
}

func neighbourSymbols(items []lrItem, prods *productionSet) []symbol.Symbol {
	set := map[symbol.Symbol]struct{}{}
	for _, it := range items {
		s := it.dottedSymbol(prods)
		if s.IsNil() {
			continue
		}
		set[s] = struct{}{}
	}
	out := make([]symbol.Symbol, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// buildLR0Automaton is the shared pre-pass for LR(0) and SLR(1): it builds
// the state graph from bare items; SLR restricts reduce actions to FOLLOW
// sets on top of this, while plain LR(0) reduces unconditionally.
func buildLR0Automaton(prods *productionSet, start symbol.Symbol) (*lr0Automaton, error) {
	startProds := prods.byLHS(start)
	if len(startProds) == 0 {
		return nil, errNoStartProduction
	}
	iniKernel := []lrItem{{prod: startProds[0].ID, dot: 0}}
	iniKey := keyOfItems(iniKernel)

	aut := &lr0Automaton{initial: iniKey, states: map[kernelKey]*lr0State{}}
	known := map[kernelKey]struct{}{iniKey: {}}
	pending := []kernelKey{iniKey}
	kernels := map[kernelKey][]lrItem{iniKey: iniKernel}

	num := stateNum(0)
	for len(pending) > 0 {
		var nextPending []kernelKey
		for _, key := range pending {
			kernel := kernels[key]
			closure := closeLR0(kernel, prods)

			next := map[symbol.Symbol]kernelKey{}
			reducible := map[ProductionID]struct{}{}
			for _, it := range closure {
				if it.reducible(prods) {
					reducible[it.prod] = struct{}{}
				}
			}
			for _, sym := range neighbourSymbols(closure, prods) {
				tgtKernel := gotoLR0(closure, sym, prods)
				tgtKey := keyOfItems(tgtKernel)
				next[sym] = tgtKey
				if _, ok := known[tgtKey]; !ok {
					known[tgtKey] = struct{}{}
					kernels[tgtKey] = tgtKernel
					nextPending = append(nextPending, tgtKey)
				}
			}

			aut.states[key] = &lr0State{
				id:        key,
				kernel:    kernel,
				closure:   closure,
				num:       num,
				next:      next,
				reducible: reducible,
			}
			aut.order = append(aut.order, key)
			num++
		}
		pending = nextPending
	}
	return aut, nil
}
