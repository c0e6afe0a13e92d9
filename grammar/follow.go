package grammar

import "github.com/parsekit/lrforge/symbol"

// followSet is FOLLOW(A) for every non-terminal A, computed by fixpoint
// iteration per spec.md §4.3 step 4.
type followSet struct {
	set map[symbol.Symbol]map[symbol.Symbol]struct{}
}

func computeFollow(prods *productionSet, fst *firstSet, start symbol.Symbol) *followSet {
	flw := &followSet{set: map[symbol.Symbol]map[symbol.Symbol]struct{}{}}
	for _, p := range prods.all {
		if _, ok := flw.set[p.Head]; !ok {
			flw.set[p.Head] = map[symbol.Symbol]struct{}{}
		}
	}
	flw.set[start][symbol.EOF] = struct{}{}

	for {
		changed := false
		for _, p := range prods.all {
			for i, b := range p.Body {
				if !b.IsNonTerminal() {
					continue
				}
				rest := fst.firstOfBody(p.Body, i+1)
				dest := flw.set[b]
				for s := range rest.syms {
					if _, ok := dest[s]; !ok {
						dest[s] = struct{}{}
						changed = true
					}
				}
				if rest.empty {
					for s := range flw.set[p.Head] {
						if _, ok := dest[s]; !ok {
							dest[s] = struct{}{}
							changed = true
						}
					}
				}
			}
		}
		if !changed {
			break
		}
	}
	return flw
}

func (flw *followSet) of(s symbol.Symbol) map[symbol.Symbol]struct{} {
	return flw.set[s]
}
