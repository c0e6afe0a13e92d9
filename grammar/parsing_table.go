package grammar

// ActionType is the tag of an ACTION table cell.
type ActionType int

const (
	ActionError ActionType = iota
	ActionShift
	ActionReduce
	ActionAccept
)

// Action is one ACTION[state][terminal] cell, per spec.md §3.
type Action struct {
	Type    ActionType
	Next    int // ActionShift: target state
	Head    int // ActionReduce: production head symbol number
	Len     int // ActionReduce: production body length
	ProdID  ProductionID
	Message string // ActionError: human-readable reason
}

// ParsingTable is the frozen ACTION/GOTO pair a built grammar exposes to the
// parse driver, laid out as flat arrays indexed by state*width+symbol, as in
// the teacher's own parsing_table.go.
type ParsingTable struct {
	action       []Action
	goTo         []int // -1 means "no entry"
	stateCount   int
	termCount    int
	nonTermCount int

	InitialState int
	// ExpectedTerminals[state] lists the terminal symbol numbers that have an
	// ACTION entry in that state, for building "expected one of: ..." error
	// messages.
	ExpectedTerminals [][]int
}

// newParsingTable allocates a table sized for terms/nonTerms distinct
// terminal/non-terminal symbols, counting the EOF and Start slots that
// NumTerminals/NumNonTerminals fold in. Symbol.Num() is 1-based within its
// kind (index 0 is the reserved Nil slot), so the column width must be
// terms+1/nonTerms+1 to hold the highest assigned number.
func newParsingTable(states, terms, nonTerms int) *ParsingTable {
	t := &ParsingTable{
		action:            make([]Action, states*(terms+1)),
		goTo:              make([]int, states*(nonTerms+1)),
		stateCount:        states,
		termCount:         terms,
		nonTermCount:      nonTerms,
		ExpectedTerminals: make([][]int, states),
	}
	for i := range t.goTo {
		t.goTo[i] = -1
	}
	return t
}

func (t *ParsingTable) Action(state, term int) Action {
	return t.action[state*(t.termCount+1)+term]
}

func (t *ParsingTable) setAction(state, term int, a Action) {
	t.action[state*(t.termCount+1)+term] = a
}

func (t *ParsingTable) GoTo(state, nonTerm int) (int, bool) {
	v := t.goTo[state*(t.nonTermCount+1)+nonTerm]
	return v, v >= 0
}

func (t *ParsingTable) setGoTo(state, nonTerm, next int) {
	t.goTo[state*(t.nonTermCount+1)+nonTerm] = next
}

func (t *ParsingTable) StateCount() int       { return t.stateCount }
func (t *ParsingTable) TerminalCount() int    { return t.termCount }
func (t *ParsingTable) NonTerminalCount() int { return t.nonTermCount }

// NewParsingTable allocates an empty table of the given shape for a caller
// (the serialize package) reconstructing one cell-by-cell from a serialized
// form, bypassing the LR automaton construction in table_builder.go entirely.
func NewParsingTable(states, terms, nonTerms, initialState int) *ParsingTable {
	t := newParsingTable(states, terms, nonTerms)
	t.InitialState = initialState
	return t
}

// SetAction is the exported form of setAction, for NewParsingTable callers
// outside this package.
func (t *ParsingTable) SetAction(state, term int, a Action) {
	t.setAction(state, term, a)
	found := false
	for _, n := range t.ExpectedTerminals[state] {
		if n == term {
			found = true
			break
		}
	}
	if !found && a.Type != ActionError {
		t.ExpectedTerminals[state] = append(t.ExpectedTerminals[state], term)
	}
}

// SetGoTo is the exported form of setGoTo.
func (t *ParsingTable) SetGoTo(state, nonTerm, next int) {
	t.setGoTo(state, nonTerm, next)
}
