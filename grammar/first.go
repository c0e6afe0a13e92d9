package grammar

import "github.com/parsekit/lrforge/symbol"

// firstEntry is FIRST(X) for some symbol or body suffix: a set of terminals,
// plus whether the derivation can also produce epsilon.
type firstEntry struct {
	syms  map[symbol.Symbol]struct{}
	empty bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{syms: map[symbol.Symbol]struct{}{}}
}

func (e *firstEntry) add(s symbol.Symbol) bool {
	if _, ok := e.syms[s]; ok {
		return false
	}
	e.syms[s] = struct{}{}
	return true
}

func (e *firstEntry) addEmpty() bool {
	if e.empty {
		return false
	}
	e.empty = true
	return true
}

func (e *firstEntry) mergeTerminals(o *firstEntry) bool {
	changed := false
	for s := range o.syms {
		if e.add(s) {
			changed = true
		}
	}
	return changed
}

// firstSet is FIRST(A) for every non-terminal A in a grammar, computed by
// fixpoint iteration per spec.md §4.3 step 3.
type firstSet struct {
	set map[symbol.Symbol]*firstEntry
}

func computeFirst(prods *productionSet) *firstSet {
	fst := &firstSet{set: map[symbol.Symbol]*firstEntry{}}
	for _, p := range prods.all {
		if _, ok := fst.set[p.Head]; !ok {
			fst.set[p.Head] = newFirstEntry()
		}
	}

	for {
		changed := false
		for _, p := range prods.all {
			entry := fst.firstOfBody(p.Body, 0)
			head := fst.set[p.Head]
			if head.mergeTerminals(entry) {
				changed = true
			}
			if entry.empty && head.addEmpty() {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return fst
}

// firstOfBody computes FIRST(body[from:]) given the current (possibly
// partial, mid-fixpoint) non-terminal FIRST sets.
func (fst *firstSet) firstOfBody(body []symbol.Symbol, from int) *firstEntry {
	entry := newFirstEntry()
	if from >= len(body) {
		entry.addEmpty()
		return entry
	}
	for _, s := range body[from:] {
		if s.IsTerminal() {
			entry.add(s)
			return entry
		}
		sub, ok := fst.set[s]
		if !ok {
			// Unknown non-terminal mid-fixpoint: contributes nothing yet.
			return entry
		}
		entry.mergeTerminals(sub)
		if !sub.empty {
			return entry
		}
	}
	entry.addEmpty()
	return entry
}

// of returns the raw terminal set and emptiness flag of FIRST(A) for a
// non-terminal A.
func (fst *firstSet) of(s symbol.Symbol) (map[symbol.Symbol]struct{}, bool) {
	e, ok := fst.set[s]
	if !ok {
		return nil, false
	}
	return e.syms, e.empty
}
