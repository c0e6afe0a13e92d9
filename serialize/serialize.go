// Package serialize implements the on-wire shapes for a built lexer and
// parser (spec.md §6's SerializedLexer/SerializedParser), plus the handler
// carrier and registry that stand in for the original's "compile a callable
// from source" path.
//
// Go cannot eval a function body out of a string the way the original
// serializes a handler's source text and reconstructs a closure at load
// time: a Handler here is a closed sum of {Builtin(id)} — resolved against
// a Registry (from NewRegistry) that the caller populates and passes to the
// deserializing functions — or
// {Source(text)} — carried for inspection/shipping alongside the tables,
// but reported as a SerializationFailure if Resolve is asked to turn it
// into a callable, since there is nothing in the standard toolchain to
// compile it with. Production use is expected to ship Builtin references
// only; Source exists so a round-trip through serialize/deserialize still
// preserves what the original handler's text was for a human or an
// out-of-band compiler to consult.
package serialize

import (
	"strings"

	"github.com/parsekit/lrforge/grammar"
	"github.com/parsekit/lrforge/internal/perr"
	"github.com/parsekit/lrforge/lexer"
	"github.com/parsekit/lrforge/symbol"
	"gopkg.in/yaml.v3"
)

// HandlerKind tags a Handler's shape.
type HandlerKind string

const (
	HandlerBuiltin = HandlerKind("builtin")
	HandlerSource  = HandlerKind("source")
)

// Handler is the serialized stand-in for a callback that cannot itself be
// marshaled.
type Handler struct {
	Kind      HandlerKind `yaml:"kind"`
	BuiltinID string      `yaml:"builtinId,omitempty"`
	Source    string      `yaml:"source,omitempty"`
	// Pure records ScanPurity's verdict at the time Source was captured, so
	// a strict-mode caller can reject known-impure handlers without
	// re-scanning.
	Pure bool `yaml:"pure,omitempty"`
}

// Builtin names a handler registered under id in whatever Registry the
// embedding program builds at startup.
func Builtin(id string) *Handler { return &Handler{Kind: HandlerBuiltin, BuiltinID: id} }

// SourceHandler carries a handler's original source text for inspection;
// Registry.Resolve* always fails on it (see the package doc).
func SourceHandler(src string) *Handler {
	return &Handler{Kind: HandlerSource, Source: src, Pure: ScanPurity(src)}
}

// impureSinks is the conservative, textual-only purity heuristic spec.md §9
// calls for: known clock/random/global-I/O entry points. It has no notion of
// scope, so it can only ever be used to flag handlers as "looks impure",
// never to certify one pure.
var impureSinks = []string{
	"time.Now", "rand.", "math/rand",
	"os.", "net.", "syscall.", "exec.Command",
	"Getenv", "ReadFile", "WriteFile", "http.",
}

// ScanPurity reports whether source's text contains none of the known
// impure sinks. A true result is not a guarantee of purity, only the
// absence of an obvious red flag; a false result should be treated as
// "impure" by strict-mode callers.
func ScanPurity(source string) bool {
	for _, sink := range impureSinks {
		if strings.Contains(source, sink) {
			return false
		}
	}
	return true
}

// Registry resolves Handler values back into callable functions. It is the
// only place in this package that holds live Go closures; everything else
// here is plain data.
type Registry struct {
	grammarHandlers map[string]grammar.HandlerFunc
	lexerHandlers   map[string]lexer.HandlerFunc
	nameSelectors   map[string]lexer.NameSelectorFunc
}

func NewRegistry() *Registry {
	return &Registry{
		grammarHandlers: map[string]grammar.HandlerFunc{},
		lexerHandlers:   map[string]lexer.HandlerFunc{},
		nameSelectors:   map[string]lexer.NameSelectorFunc{},
	}
}

func (r *Registry) RegisterGrammarHandler(id string, fn grammar.HandlerFunc) {
	r.grammarHandlers[id] = fn
}

func (r *Registry) RegisterLexerHandler(id string, fn lexer.HandlerFunc) {
	r.lexerHandlers[id] = fn
}

func (r *Registry) RegisterNameSelector(id string, fn lexer.NameSelectorFunc) {
	r.nameSelectors[id] = fn
}

func (r *Registry) ResolveGrammarHandler(h *Handler) (grammar.HandlerFunc, error) {
	if h == nil {
		return nil, nil
	}
	if h.Kind != HandlerBuiltin {
		return nil, &perr.SerializationFailure{Reason: "source-coded handlers cannot be compiled to a callable; register the equivalent function as a builtin and reference it by id"}
	}
	fn, ok := r.grammarHandlers[h.BuiltinID]
	if !ok {
		return nil, &perr.SerializationFailure{Reason: "unknown built-in grammar handler id " + h.BuiltinID}
	}
	return fn, nil
}

func (r *Registry) ResolveLexerHandler(h *Handler) (lexer.HandlerFunc, error) {
	if h == nil {
		return nil, &perr.SerializationFailure{Reason: "lexer record has no handler"}
	}
	if h.Kind != HandlerBuiltin {
		return nil, &perr.SerializationFailure{Reason: "source-coded handlers cannot be compiled to a callable; register the equivalent function as a builtin and reference it by id"}
	}
	fn, ok := r.lexerHandlers[h.BuiltinID]
	if !ok {
		return nil, &perr.SerializationFailure{Reason: "unknown built-in lexer handler id " + h.BuiltinID}
	}
	return fn, nil
}

func (r *Registry) ResolveNameSelector(h *Handler) (lexer.NameSelectorFunc, error) {
	if h == nil {
		return nil, nil
	}
	if h.Kind != HandlerBuiltin {
		return nil, &perr.SerializationFailure{Reason: "source-coded name selectors cannot be compiled to a callable; register the equivalent function as a builtin and reference it by id"}
	}
	fn, ok := r.nameSelectors[h.BuiltinID]
	if !ok {
		return nil, &perr.SerializationFailure{Reason: "unknown built-in name selector id " + h.BuiltinID}
	}
	return fn, nil
}

// SerializedRecord is one lexer.Record, with its Handler/NameSelector
// closures replaced by named references into a Registry.
type SerializedRecord struct {
	Name         string   `yaml:"name"`
	Pattern      string   `yaml:"pattern"`
	IsRegexp     bool     `yaml:"isRegexp,omitempty"`
	Handler      *Handler `yaml:"handler"`
	NameSelector *Handler `yaml:"nameSelector,omitempty"`
}

// SerializedLexer is spec.md §6's SerializedLexer shape.
type SerializedLexer struct {
	Records  []SerializedRecord `yaml:"records"`
	EOFName  string             `yaml:"eofName"`
	EOFValue any                `yaml:"eofValue,omitempty"`
}

// LexerToYAML serializes b as YAML. handlerIDs parallels a lexer.Builder's
// Records(): handlerIDs[i] (and
// the optional selectorIDs[i]) names the Registry entry that record's
// Handler (and NameSelector, if any) were registered under.
func LexerToYAML(b *lexer.Builder, handlerIDs []string, selectorIDs []string) ([]byte, error) {
	sl, err := LexerToSerialized(b, handlerIDs, selectorIDs)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(sl)
}

func LexerToSerialized(b *lexer.Builder, handlerIDs []string, selectorIDs []string) (*SerializedLexer, error) {
	records := b.Records()
	if len(handlerIDs) != len(records) {
		return nil, &perr.SerializationFailure{Reason: "handlerIDs length does not match the lexer's record count"}
	}
	sl := &SerializedLexer{EOFName: b.EOFName(), EOFValue: b.EOFValue()}
	for i, r := range records {
		sr := SerializedRecord{Name: r.Name, Pattern: r.Pattern, IsRegexp: r.IsRegexp, Handler: Builtin(handlerIDs[i])}
		if selectorIDs != nil && selectorIDs[i] != "" {
			sr.NameSelector = Builtin(selectorIDs[i])
		}
		sl.Records = append(sl.Records, sr)
	}
	return sl, nil
}

// LexerFromYAML resolves every record's handler (and name selector) against
// reg and returns a ready-to-use lexer.Builder.
func LexerFromYAML(data []byte, reg *Registry) (*lexer.Builder, error) {
	var sl SerializedLexer
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, &perr.SerializationFailure{Reason: "malformed SerializedLexer YAML: " + err.Error()}
	}
	return LexerFromSerialized(&sl, reg)
}

func LexerFromSerialized(sl *SerializedLexer, reg *Registry) (*lexer.Builder, error) {
	b := lexer.NewBuilder().SetEOF(sl.EOFName, sl.EOFValue)
	for _, sr := range sl.Records {
		handler, err := reg.ResolveLexerHandler(sr.Handler)
		if err != nil {
			return nil, err
		}
		sel, err := reg.ResolveNameSelector(sr.NameSelector)
		if err != nil {
			return nil, err
		}
		b.AddRule(sr.Name, sr.Pattern, sr.IsRegexp, handler, sel)
	}
	return b, nil
}

// ActionRecord is one ACTION[state][terminal] cell.
type ActionRecord struct {
	Kind    string `yaml:"kind"` // "shift" | "reduce" | "accept" | "error"
	Shift   int    `yaml:"shift,omitempty"`
	Head    int    `yaml:"head,omitempty"`
	Len     int    `yaml:"len,omitempty"`
	ProdID  int    `yaml:"prodId,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// SerializedSymbolEntry is one row of a SerializedParser's symbol table.
type SerializedSymbolEntry struct {
	Name string `yaml:"name"`
	IsNT bool   `yaml:"isNT"`
	Num  int    `yaml:"num"`
}

// SerializedParser is spec.md §6's SerializedParser shape, adapted to a
// nested-map encoding of the two tables instead of the original's
// object-keyed-by-stringified-integer convention.
type SerializedParser struct {
	Name       string                  `yaml:"name"`
	ActionMode string                  `yaml:"actionMode"`
	StartState int                     `yaml:"startState"`
	StartSym   int                     `yaml:"startSym"`
	AugStart   int                     `yaml:"augStart"`
	Symbols    []SerializedSymbolEntry `yaml:"symbols"`
	Action     map[int]map[int]ActionRecord `yaml:"action"`
	Goto       map[int]map[int]int         `yaml:"goto"`
	Actions    []*Handler                   `yaml:"actions"`
}

// GrammarToSerialized flattens a built Grammar's tables into a
// SerializedParser. handlerIDs[pid] names the Registry entry for the
// production at that id's handler (empty/nil if the production has none).
func GrammarToSerialized(g *grammar.Grammar, handlerIDs []string) (*SerializedParser, error) {
	table := g.Table
	if table == nil {
		return nil, &perr.SerializationFailure{Reason: "grammar has not been built"}
	}
	symTab := g.SymbolTable()

	sp := &SerializedParser{
		Name:       g.Name(),
		ActionMode: string(g.ResolvedMode),
		StartState: table.InitialState,
		StartSym:   g.StartSymbol().Num(),
		AugStart:   g.AugStartSymbol().Num(),
		Action:     map[int]map[int]ActionRecord{},
		Goto:       map[int]map[int]int{},
	}

	for _, s := range symTab.Terminals() {
		name, _ := symTab.Text(s)
		sp.Symbols = append(sp.Symbols, SerializedSymbolEntry{Name: name, IsNT: false, Num: s.Num()})
	}
	for _, s := range symTab.NonTerminals() {
		name, _ := symTab.Text(s)
		sp.Symbols = append(sp.Symbols, SerializedSymbolEntry{Name: name, IsNT: true, Num: s.Num()})
	}

	for state := 0; state < table.StateCount(); state++ {
		for term := 0; term <= table.TerminalCount(); term++ {
			a := table.Action(state, term)
			if a.Type == grammar.ActionError {
				continue
			}
			rec := ActionRecord{}
			switch a.Type {
			case grammar.ActionShift:
				rec.Kind = "shift"
				rec.Shift = a.Next
			case grammar.ActionReduce:
				rec.Kind = "reduce"
				rec.Head, rec.Len, rec.ProdID = a.Head, a.Len, int(a.ProdID)
			case grammar.ActionAccept:
				rec.Kind = "accept"
			}
			if sp.Action[state] == nil {
				sp.Action[state] = map[int]ActionRecord{}
			}
			sp.Action[state][term] = rec
		}
		for nt := 0; nt <= table.NonTerminalCount(); nt++ {
			next, ok := table.GoTo(state, nt)
			if !ok {
				continue
			}
			if sp.Goto[state] == nil {
				sp.Goto[state] = map[int]int{}
			}
			sp.Goto[state][nt] = next
		}
	}

	if len(handlerIDs) != g.ProductionCount() {
		return nil, &perr.SerializationFailure{Reason: "handlerIDs length does not match the grammar's production count"}
	}
	for _, id := range handlerIDs {
		if id == "" {
			sp.Actions = append(sp.Actions, nil)
			continue
		}
		sp.Actions = append(sp.Actions, Builtin(id))
	}
	return sp, nil
}

func GrammarToYAML(g *grammar.Grammar, handlerIDs []string) ([]byte, error) {
	sp, err := GrammarToSerialized(g, handlerIDs)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(sp)
}

// GrammarFromYAML reconstructs a ready-to-drive *grammar.Grammar straight
// from tables, bypassing FIRST/FOLLOW/automaton construction entirely —
// the whole point of shipping a SerializedParser is never re-deriving what
// build already paid for once.
//
// Per-production Adapter closures are not serialized: an adapter is purely
// an artifact of EBNF lowering, never user-authored, so a grammar built
// from source and then round-tripped through serialize must be re-lowered
// by the lower package if its original productions needed adapters. This
// function is for shipping already-flattened (BNF-only) production sets.
func GrammarFromYAML(data []byte, reg *Registry) (*grammar.Grammar, error) {
	var sp SerializedParser
	if err := yaml.Unmarshal(data, &sp); err != nil {
		return nil, &perr.SerializationFailure{Reason: "malformed SerializedParser YAML: " + err.Error()}
	}
	return GrammarFromSerialized(&sp, reg)
}

func GrammarFromSerialized(sp *SerializedParser, reg *Registry) (*grammar.Grammar, error) {
	symTab := symbol.NewTable()
	var startName string
	for _, e := range sp.Symbols {
		if e.Num == sp.StartSym && e.IsNT {
			startName = e.Name
		}
	}
	if startName == "" {
		return nil, &perr.SerializationFailure{Reason: "serialized symbol table has no entry for the start symbol"}
	}
	symTab.RegisterStart(startName)
	for _, e := range sp.Symbols {
		if e.Num == sp.StartSym && e.IsNT {
			continue
		}
		kind := symbol.KindTerminal
		if e.IsNT {
			kind = symbol.KindNonTerminal
		}
		if _, err := symTab.Intern(kind, e.Name); err != nil {
			return nil, err
		}
	}

	maxState := -1
	for state := range sp.Action {
		if state > maxState {
			maxState = state
		}
	}
	for state := range sp.Goto {
		if state > maxState {
			maxState = state
		}
	}
	stateCount := maxState + 1

	startSym, ok := symTab.Lookup(startName)
	if !ok {
		return nil, &perr.SerializationFailure{Reason: "internal: start symbol not interned"}
	}

	prods := make([]*grammar.Production, len(sp.Actions))
	handlers := make([]grammar.HandlerFunc, 0, len(sp.Actions))
	for pid, h := range sp.Actions {
		handlerIdx := -1
		if h != nil {
			fn, err := reg.ResolveGrammarHandler(h)
			if err != nil {
				return nil, err
			}
			handlerIdx = len(handlers)
			handlers = append(handlers, fn)
		}
		prods[pid] = &grammar.Production{ID: grammar.ProductionID(pid), HandlerIndex: handlerIdx}
	}
	// Body is left as a same-length slice of Nil symbols: the driver only
	// ever consults action.Head/action.Len from the table (see driver.go),
	// never prod.Body, so a deserialized grammar's productions carry enough
	// to drive a parse but not enough to pretty-print a rule the way
	// Grammar.Describe does for one built from source.
	for _, row := range sp.Action {
		for _, rec := range row {
			if rec.Kind != "reduce" {
				continue
			}
			p := prods[rec.ProdID]
			p.Head = headByNum(symTab, rec.Head)
			p.Body = make([]symbol.Symbol, rec.Len)
		}
	}

	table := grammar.NewParsingTable(stateCount, symTab.NumTerminals(), symTab.NumNonTerminals(), sp.StartState)
	for state, row := range sp.Action {
		for term, rec := range row {
			switch rec.Kind {
			case "shift":
				table.SetAction(state, term, grammar.Action{Type: grammar.ActionShift, Next: rec.Shift})
			case "reduce":
				table.SetAction(state, term, grammar.Action{Type: grammar.ActionReduce, Head: rec.Head, Len: rec.Len, ProdID: grammar.ProductionID(rec.ProdID)})
			case "accept":
				table.SetAction(state, term, grammar.Action{Type: grammar.ActionAccept})
			}
		}
	}
	for state, row := range sp.Goto {
		for nt, next := range row {
			table.SetGoTo(state, nt, next)
		}
	}

	augStart := headByNum(symTab, sp.AugStart)
	return grammar.Load(sp.Name, symTab, prods, handlers, table, startSym, augStart, grammar.Mode(sp.ActionMode)), nil
}

func headByNum(symTab *symbol.Table, num int) symbol.Symbol {
	for _, s := range symTab.NonTerminals() {
		if s.Num() == num {
			return s
		}
	}
	return symbol.Nil
}
