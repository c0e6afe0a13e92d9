// Package grammar implements the LR(0)/SLR(1)/LALR(1)/canonical-LR(1) table
// generator: from a Builder's accumulated productions, operators and
// handlers, Build computes FIRST/FOLLOW, the item-set automaton, and the
// frozen ACTION/GOTO tables a parse driver runs on.
package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parsekit/lrforge/symbol"
)

// HandlerFunc is invoked on every reduce with the body's collected values
// (left to right) and the caller-supplied parse context. A production
// without a declared handler defaults to identity: a single value comes back
// as itself, several values as a []any.
type HandlerFunc func(args []any, ctx any) (any, error)

// Mode selects which automaton construction Build runs.
type Mode string

const (
	ModeLR0  = Mode("lr0")
	ModeSLR  = Mode("slr")
	ModeLALR = Mode("lalr1")
	ModeLR1  = Mode("lr1")
	// ModeAuto tries SLR, then LALR(1), then canonical LR(1), and keeps the
	// first one that builds without conflicts (spec.md §4.3 "Auto mode").
	ModeAuto = Mode("auto")
)

// Grammar is the frozen, tabular result of Build: productions, operators and
// handlers are fixed, and only the ACTION/GOTO tables plus the symbol table
// are consulted at parse time.
type Grammar struct {
	name         string
	symTab       *symbol.Table
	prods        *productionSet
	augStart     symbol.Symbol
	startSym     symbol.Symbol
	precAndAssoc *precAndAssoc
	handlers     []HandlerFunc

	Table        *ParsingTable
	ResolvedMode Mode
}

func (g *Grammar) Name() string            { return g.name }
func (g *Grammar) SymbolTable() *symbol.Table { return g.symTab }
func (g *Grammar) Handler(i int) HandlerFunc {
	if i < 0 || i >= len(g.handlers) {
		return nil
	}
	return g.handlers[i]
}

func (g *Grammar) Production(id ProductionID) (*Production, bool) { return g.prods.byID(id) }

func (g *Grammar) StartSymbol() symbol.Symbol { return g.startSym }

// AugStartSymbol returns the synthesized augmenting non-terminal Build adds
// above the declared start symbol (its sole production is what Accept
// fires on).
func (g *Grammar) AugStartSymbol() symbol.Symbol { return g.augStart }

// ProductionCount returns the number of productions, including the
// synthesized augmenting production at ID 0.
func (g *Grammar) ProductionCount() int { return g.prods.count() }

type rawProduction struct {
	head        string
	body        []string
	handlerIdx  int
	adapter     AdapterFunc
	incremental bool
}

type operatorDecl struct {
	names []string
	assoc Assoc
}

// Builder fluently accumulates a grammar's productions, operators and
// handlers before Build freezes them into tables.
type Builder struct {
	name      string
	startName string
	prods     []rawProduction
	operators []operatorDecl
	handlers  []HandlerFunc

	operatorFilter    OperatorFilter
	shiftReducePolicy ShiftReducePolicy
}

func NewBuilder(name string) *Builder {
	return &Builder{name: name, shiftReducePolicy: PolicyError}
}

// SetStart declares the start symbol explicitly; otherwise Build uses the
// head of the first production added.
func (b *Builder) SetStart(name string) *Builder {
	b.startName = name
	return b
}

// AddProduction appends one rewrite rule. handlerIdx is -1 for "no handler".
func (b *Builder) AddProduction(head string, body []string, handlerIdx int, adapter AdapterFunc) *Builder {
	b.prods = append(b.prods, rawProduction{head: head, body: body, handlerIdx: handlerIdx, adapter: adapter})
	return b
}

// AddIncrementalProduction is AddProduction for an ABNF "=/" alternative: it
// is folded into head's existing alternatives rather than starting a new
// rule set.
func (b *Builder) AddIncrementalProduction(head string, body []string, handlerIdx int, adapter AdapterFunc) *Builder {
	b.prods = append(b.prods, rawProduction{head: head, body: body, handlerIdx: handlerIdx, adapter: adapter, incremental: true})
	return b
}

// DeclareOperators registers one precedence level (like a single `opr left
// + -;` clause): every name in names shares the given associativity and a
// precedence one higher than the previous DeclareOperators call.
func (b *Builder) DeclareOperators(assoc Assoc, names ...string) *Builder {
	b.operators = append(b.operators, operatorDecl{names: names, assoc: assoc})
	return b
}

func (b *Builder) SetOperatorFilter(fn OperatorFilter) *Builder {
	b.operatorFilter = fn
	return b
}

func (b *Builder) SetShiftReducePolicy(p ShiftReducePolicy) *Builder {
	b.shiftReducePolicy = p
	return b
}

// SetHandlers installs the full handler array addressed by production
// handler indices.
func (b *Builder) SetHandlers(handlers []HandlerFunc) *Builder {
	b.handlers = handlers
	return b
}

// Build computes FIRST/FOLLOW, the requested automaton, and the ACTION/GOTO
// tables. mode == ModeAuto tries SLR, then LALR(1), then canonical LR(1).
func (b *Builder) Build(mode Mode) (*Grammar, error) {
	if len(b.prods) == 0 {
		return nil, fmt.Errorf("grammar: no productions")
	}

	startName := b.startName
	if startName == "" {
		startName = b.prods[0].head
	}

	heads := map[string]struct{}{}
	for _, p := range b.prods {
		heads[p.head] = struct{}{}
	}
	heads[startName] = struct{}{}

	symTab := symbol.NewTable()
	symTab.RegisterStart(startName)
	nameToSym := map[string]symbol.Symbol{startName: symbol.Start}
	internName := func(name string) (symbol.Symbol, error) {
		if s, ok := nameToSym[name]; ok {
			return s, nil
		}
		kind := symbol.KindTerminal
		if _, ok := heads[name]; ok {
			kind = symbol.KindNonTerminal
		}
		s, err := symTab.Intern(kind, name)
		if err != nil {
			return symbol.Nil, err
		}
		nameToSym[name] = s
		return s, nil
	}

	prods := newProductionSet()

	startSym := symbol.Start
	augName := symTab.FreshName("__GLOBAL", nil)
	augSym, err := symTab.Intern(symbol.KindNonTerminal, augName)
	if err != nil {
		return nil, err
	}
	prods.add(&Production{Head: augSym, Body: []symbol.Symbol{startSym}, HandlerIndex: -1})

	text := func(s symbol.Symbol) string {
		n, _ := symTab.Text(s)
		return n
	}
	seen := map[productionKey]struct{}{}
	for _, rp := range b.prods {
		head, err := internName(rp.head)
		if err != nil {
			return nil, err
		}
		body := make([]symbol.Symbol, 0, len(rp.body))
		for _, tok := range rp.body {
			s, err := internName(tok)
			if err != nil {
				return nil, err
			}
			body = append(body, s)
		}
		// Lowering can legitimately synthesize the same head+body twice (e.g.
		// two independent optional elements whose bodies happen to coincide);
		// skip the literal duplicate rather than feeding the generator a
		// redundant alternative that can only manifest as a spurious
		// reduce/reduce conflict.
		key := keyOf(head, body, text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		prods.add(&Production{
			Head: head, Body: body, HandlerIndex: rp.handlerIdx, Adapter: rp.adapter,
			Incremental: rp.incremental,
		})
	}

	pa, err := b.buildPrecAndAssoc(symTab, prods, nameToSym)
	if err != nil {
		return nil, err
	}

	g := &Grammar{
		name:         b.name,
		symTab:       symTab,
		prods:        prods,
		augStart:     augSym,
		startSym:     startSym,
		precAndAssoc: pa,
		handlers:     b.handlers,
	}

	policy := b.shiftReducePolicy
	if policy == "" {
		policy = PolicyError
	}

	switch mode {
	case ModeLR0, ModeSLR:
		lr0, err := buildLR0Automaton(prods, augSym)
		if err != nil {
			return nil, err
		}
		var flw *followSet
		if mode == ModeSLR {
			fst := computeFirst(prods)
			flw = computeFollow(prods, fst, augSym)
		}
		views := lr0ToViews(lr0, prods, flw, mode == ModeSLR, symTab.Terminals())
		table, errs := g.buildTable(views, int(lr0.states[lr0.initial].num), policy)
		if len(errs) > 0 {
			return nil, combineErrors(errs)
		}
		g.Table = table
		g.ResolvedMode = mode
		return g, nil

	case ModeLALR, ModeLR1:
		fst := computeFirst(prods)
		aut, err := buildLR1Automaton(prods, augSym, fst, mode == ModeLALR)
		if err != nil {
			return nil, err
		}
		views := lr1ToViews(aut, prods)
		table, errs := g.buildTable(views, int(aut.states[aut.initial].num), policy)
		if len(errs) > 0 {
			return nil, combineErrors(errs)
		}
		g.Table = table
		g.ResolvedMode = mode
		return g, nil

	case ModeAuto, "":
		var combined []error
		for _, m := range []Mode{ModeSLR, ModeLALR, ModeLR1} {
			candidate, err := b.Build(m)
			if err == nil {
				return candidate, nil
			}
			combined = append(combined, fmt.Errorf("%s: %w", m, err))
		}
		return nil, fmt.Errorf("grammar: auto mode exhausted SLR, LALR(1) and LR(1): %v", combined)

	default:
		return nil, fmt.Errorf("grammar: unknown mode %q", mode)
	}
}

// Load reconstructs a frozen Grammar directly from a previously-built
// tabular representation — the symbol table, production list (ID order
// must equal slice order), handler array and ACTION/GOTO tables — without
// running Build's FIRST/FOLLOW/automaton pipeline again. This is the
// serialize package's deserialization target: a SerializedParser already
// carries everything Build would otherwise have to recompute.
func Load(name string, symTab *symbol.Table, prods []*Production, handlers []HandlerFunc, table *ParsingTable, startSym, augStart symbol.Symbol, mode Mode) *Grammar {
	ps := newProductionSet()
	for _, p := range prods {
		ps.all = append(ps.all, p)
		ps.byHead[p.Head] = append(ps.byHead[p.Head], p)
	}
	return &Grammar{
		name: name, symTab: symTab, prods: ps,
		augStart: augStart, startSym: startSym,
		precAndAssoc: &precAndAssoc{byTermName: map[string]*Operator{}, prodOperator: map[ProductionID]symbol.Symbol{}},
		handlers:     handlers,
		Table:        table,
		ResolvedMode: mode,
	}
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d conflicts:", len(errs))
	for _, e := range errs {
		fmt.Fprintf(&b, "\n  - %v", e)
	}
	return fmt.Errorf("%s", b.String())
}

func (b *Builder) buildPrecAndAssoc(symTab *symbol.Table, prods *productionSet, nameToSym map[string]symbol.Symbol) (*precAndAssoc, error) {
	byName := map[string]*Operator{}
	for level, decl := range b.operators {
		for _, name := range decl.names {
			byName[name] = &Operator{Name: name, Assoc: decl.assoc, Prec: level + 1}
		}
	}

	filter := b.operatorFilter
	if filter == nil {
		filter = defaultOperatorFilter
	}
	text := func(s symbol.Symbol) string {
		n, _ := symTab.Text(s)
		return n
	}

	prodOperator := map[ProductionID]symbol.Symbol{}
	for _, p := range prods.all {
		if sym, ok := filter(p.Body, text, byName); ok {
			prodOperator[p.ID] = sym
		}
	}

	return &precAndAssoc{byTermName: byName, prodOperator: prodOperator}, nil
}

// Describe renders the grammar's name and resolved mode, its numbered
// productions, and (once tables exist) the state, terminal and non-terminal
// counts as text. It does not print FIRST/FOLLOW sets, item sets, conflicts
// or the ACTION/GOTO cells.
func (g *Grammar) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "grammar %q (%s)\n", g.name, g.ResolvedMode)
	fmt.Fprintf(&b, "productions:\n")
	for _, p := range g.prods.all {
		head, _ := g.symTab.Text(p.Head)
		var body []string
		for _, s := range p.Body {
			n, _ := g.symTab.Text(s)
			body = append(body, n)
		}
		fmt.Fprintf(&b, "  %d: %s -> %s\n", p.ID, head, strings.Join(body, " "))
	}
	if g.Table != nil {
		fmt.Fprintf(&b, "states: %d, terminals: %d, non-terminals: %d\n", g.Table.StateCount(), g.Table.TerminalCount(), g.Table.NonTerminalCount())
	}
	return b.String()
}

// Operators returns the declared operators sorted by ascending precedence,
// for diagnostics.
func (g *Grammar) Operators() []*Operator {
	out := make([]*Operator, 0, len(g.precAndAssoc.byTermName))
	for _, op := range g.precAndAssoc.byTermName {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prec < out[j].Prec })
	return out
}
