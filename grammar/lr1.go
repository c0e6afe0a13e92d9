package grammar

import (
	"sort"

	"github.com/parsekit/lrforge/symbol"
)

// lr1State is one automaton state built from LR(1) items: a kernel of
// (item, lookahead) pairs, its closure, and the transition function.
// For LALR(1), multiple canonical-LR(1) states that share an LR(0) kernel
// are merged into one lr1State as construction proceeds, and the union of
// their lookaheads can generate reduce actions that were not visible when
// either contributing state was first discovered — callers must keep
// reprocessing a state whose kernel grows. See buildLR1Automaton.
type lr1State struct {
	groupKey string
	kernel   []lr1Item
	closure  []lr1Item
	num      stateNum
	next     map[symbol.Symbol]string
}

type lr1Automaton struct {
	initial string
	states  map[string]*lr1State
	order   []string
}

func closeLR1(kernel []lr1Item, prods *productionSet, fst *firstSet) []lr1Item {
	items := append([]lr1Item(nil), kernel...)
	known := map[lr1Item]struct{}{}
	for _, it := range items {
		known[it] = struct{}{}
	}
	worklist := append([]lr1Item(nil), kernel...)
	for len(worklist) > 0 {
		var next []lr1Item
		for _, it := range worklist {
			sym := it.dottedSymbol(prods)
			if !sym.IsNonTerminal() {
				continue
			}
			p, ok := prods.byID(it.prod)
			if !ok {
				continue
			}
			rest := fst.firstOfBody(p.Body, it.dot+1)
			las := make([]symbol.Symbol, 0, len(rest.syms)+1)
			for a := range rest.syms {
				las = append(las, a)
			}
			if rest.empty {
				las = append(las, it.la)
			}
			for _, prod := range prods.byLHS(sym) {
				for _, a := range las {
					cand := lr1Item{lrItem{prod: prod.ID, dot: 0}, a}
					if _, ok := known[cand]; ok {
						continue
					}
					known[cand] = struct{}{}
					items = append(items, cand)
					next = append(next, cand)
				}
			}
		}
		worklist = next
	}
	return items
}

func gotoLR1(items []lr1Item, sym symbol.Symbol, prods *productionSet) []lr1Item {
	var out []lr1Item
	seen := map[lr1Item]struct{}{}
	for _, it := range items {
		if it.dottedSymbol(prods) != sym {
			continue
		}
		adv := lr1Item{it.advance(), it.la}
		if _, ok := seen[adv]; ok {
			continue
		}
		seen[adv] = struct{}{}
		out = append(out, adv)
	}
	return out
}

func neighbourSymbolsLR1(items []lr1Item, prods *productionSet) []symbol.Symbol {
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

func lr0ProjectionKey(items []lr1Item) kernelKey {
	bare := make([]lrItem, len(items))
	for i, it := range items {
		bare[i] = it.lrItem
	}
	return keyOfItems(bare)
}

func lr1KernelKey(items []lr1Item) kernelKey {
	sorted := append([]lr1Item(nil), items...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.prod != b.prod {
			return a.prod < b.prod
		}
		if a.dot != b.dot {
			return a.dot < b.dot
		}
		return a.la < b.la
	})
	b := make([]byte, 0, len(sorted)*10)
	for _, it := range sorted {
		b = append(b, []byte(it.String())...)
		b = append(b, ',')
	}
	return kernelKey(b)
}

func unionLR1Items(existing, incoming []lr1Item) ([]lr1Item, bool) {
	set := map[lr1Item]struct{}{}
	for _, it := range existing {
		set[it] = struct{}{}
	}
	changed := false
	out := append([]lr1Item(nil), existing...)
	for _, it := range incoming {
		if _, ok := set[it]; ok {
			continue
		}
		set[it] = struct{}{}
		out = append(out, it)
		changed = true
	}
	return out, changed
}

// buildLR1Automaton builds the canonical LR(1) automaton (merge=false) or the
// LALR(1) automaton (merge=true), per spec.md §4.3: states are keyed by full
// LR(1) kernel for canonical LR(1), or by bare LR(0) kernel for LALR(1) so
// that states sharing a kernel are merged and their item lookaheads unioned.
func buildLR1Automaton(prods *productionSet, start symbol.Symbol, fst *firstSet, merge bool) (*lr1Automaton, error) {
	startProds := prods.byLHS(start)
	if len(startProds) == 0 {
		return nil, errNoStartProduction
	}

	groupKeyOf := func(items []lr1Item) string {
		if merge {
			return string(lr0ProjectionKey(items))
		}
		return string(lr1KernelKey(items))
	}

	iniKernel := []lr1Item{{lrItem{prod: startProds[0].ID, dot: 0}, symbol.EOF}}
	iniKey := groupKeyOf(iniKernel)

	kernels := map[string][]lr1Item{iniKey: iniKernel}
	allKeys := map[string]struct{}{iniKey: {}}
	dirty := []string{iniKey}

	for len(dirty) > 0 {
		key := dirty[0]
		dirty = dirty[1:]
		allKeys[key] = struct{}{}

		closure := closeLR1(kernels[key], prods, fst)
		for _, sym := range neighbourSymbolsLR1(closure, prods) {
			tgt := gotoLR1(closure, sym, prods)
			gkey := groupKeyOf(tgt)
			if existing, ok := kernels[gkey]; ok {
				merged, changed := unionLR1Items(existing, tgt)
				if changed {
					kernels[gkey] = merged
					dirty = append(dirty, gkey)
				}
			} else {
				kernels[gkey] = tgt
				dirty = append(dirty, gkey)
			}
		}
	}

	aut := &lr1Automaton{initial: iniKey, states: map[string]*lr1State{}}

	// Deterministic BFS re-numbering over the now-stable kernel graph.
	num := stateNum(0)
	visited := map[string]struct{}{}
	queue := []string{iniKey}
	visited[iniKey] = struct{}{}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]

		kernel := kernels[key]
		closure := closeLR1(kernel, prods, fst)
		next := map[symbol.Symbol]string{}
		for _, sym := range neighbourSymbolsLR1(closure, prods) {
			tgt := gotoLR1(closure, sym, prods)
			gkey := groupKeyOf(tgt)
			next[sym] = gkey
			if _, ok := visited[gkey]; !ok {
				visited[gkey] = struct{}{}
				queue = append(queue, gkey)
			}
		}

		aut.states[key] = &lr1State{
			groupKey: key,
			kernel:   kernel,
			closure:  closure,
			num:      num,
			next:     next,
		}
		aut.order = append(aut.order, key)
		num++
	}

	return aut, nil
}
