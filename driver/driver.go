// Package driver implements the shift-reduce parse loop: a stack of
// (state, value) frames driven by a built grammar's ACTION/GOTO tables,
// consuming tokens from a lexer.Lexer (or anything shaped like one).
//
// Grounded on the teacher's driver/parser.go stack machine, generalized from
// vartan's fixed CST/AST node model to a caller-supplied handler contract:
// a reduce's value is whatever handlers[pid] returns (identity — the
// argument list, collapsed to its sole element when there is exactly one —
// if no handler is registered), optionally wrapped as a Node when
// WithCST is set.
package driver

import (
	"github.com/parsekit/lrforge/grammar"
	"github.com/parsekit/lrforge/internal/perr"
	"github.com/parsekit/lrforge/lexer"
	"github.com/parsekit/lrforge/symbol"
)

// TokenSource is anything that yields tokens the way lexer.Lexer does;
// *lexer.Lexer satisfies it directly.
type TokenSource interface {
	Next() (lexer.Token, error)
}

// Node is one CST node built when WithCST is set: a leaf for each shifted
// token, an interior node for each reduce, holding the handler's (or
// identity's) value alongside the children that produced it.
type Node struct {
	// Name is the producing terminal's or non-terminal's name.
	Name string
	// Lexeme is set for a leaf (shifted) node, empty for an interior one.
	Lexeme string
	// Value is the handler's return value (or, with no handler, the
	// argument list / sole argument) for an interior node; for a leaf it is
	// the token's own Value.
	Value any
	// Pos is the node's starting position.
	Pos perr.Position
	// Children holds one entry per symbol in the production body that
	// produced this node, present only when WithCST is set.
	Children []*Node
}

// Option configures a Parser.
type Option func(*Parser)

// WithCST builds a *Node carrying its children alongside every reduce's
// value, and makes Parse return the root *Node instead of just the
// handler's return value. Handlers still receive plain values.
func WithCST() Option {
	return func(p *Parser) { p.cst = true }
}

// Parser drives one built grammar's ACTION/GOTO tables over a token stream.
type Parser struct {
	g   *grammar.Grammar
	cst bool
}

func New(g *grammar.Grammar, opts ...Option) *Parser {
	p := &Parser{g: g}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type frame struct {
	state int
	value any
	node  *Node
}

// Parse runs the shift-reduce loop to completion, invoking each reduced
// production's handler (identity if none) with ctx as its second argument,
// and returns the accepted start symbol's value (or, with WithCST, its
// *Node).
func (p *Parser) Parse(src TokenSource, ctx any) (any, error) {
	table := p.g.Table
	symTab := p.g.SymbolTable()

	stack := []frame{{state: table.InitialState}}
	a, err := src.Next()
	if err != nil {
		return nil, err
	}

	for {
		top := stack[len(stack)-1]

		an := symbol.EOF.Num()
		if !a.EOF {
			sym, ok := symTab.Lookup(a.Name)
			if !ok || !sym.IsTerminal() {
				return nil, p.unexpected(top.state, a)
			}
			an = sym.Num()
		}

		action := table.Action(top.state, an)
		switch action.Type {
		case grammar.ActionShift:
			node := (*Node)(nil)
			if p.cst {
				node = &Node{Name: a.Name, Lexeme: a.Lexeme, Value: a.Value, Pos: a.Pos}
			}
			stack = append(stack, frame{state: action.Next, value: a.Value, node: node})
			a, err = src.Next()
			if err != nil {
				return nil, err
			}

		case grammar.ActionReduce:
			n := action.Len
			base := len(stack) - n
			args := make([]any, n)
			var children []*Node
			if p.cst {
				children = make([]*Node, n)
			}
			for i := 0; i < n; i++ {
				args[i] = stack[base+i].value
				if p.cst {
					children[i] = stack[base+i].node
				}
			}
			stack = stack[:base]

			prod, _ := p.g.Production(action.ProdID)
			if prod.Adapter != nil {
				args = prod.Adapter(args)
			}

			value, err := p.reduceValue(prod, args, ctx)
			if err != nil {
				return nil, err
			}

			headName, _ := symTab.NonTerminalText(action.Head)
			newTop := stack[len(stack)-1]
			nextState, ok := table.GoTo(newTop.state, action.Head)
			if !ok {
				return nil, &perr.UnexpectedToken{TokenName: headName, Pos: a.Pos, State: newTop.state}
			}

			node := (*Node)(nil)
			if p.cst {
				node = &Node{Name: headName, Value: value, Children: children}
				if len(children) > 0 {
					node.Pos = children[0].Pos
				}
			}
			stack = append(stack, frame{state: nextState, value: value, node: node})

		case grammar.ActionAccept:
			if p.cst {
				return stack[len(stack)-1].node, nil
			}
			result := stack[len(stack)-1].value
			return result, nil

		default:
			return nil, p.unexpected(top.state, a)
		}
	}
}

func (p *Parser) reduceValue(prod *grammar.Production, args []any, ctx any) (any, error) {
	h := p.g.Handler(prod.HandlerIndex)
	if h == nil {
		if len(args) == 1 {
			return args[0], nil
		}
		// A nil []any (an adapter that returns no argument vector at all)
		// must come out as a true nil interface value, not a typed-nil []any
		// boxed into a non-nil any.
		if args == nil {
			return nil, nil
		}
		return args, nil
	}
	return h(args, ctx)
}

func (p *Parser) unexpected(state int, a lexer.Token) error {
	var expected []string
	symTab := p.g.SymbolTable()
	for _, num := range p.g.Table.ExpectedTerminals[state] {
		if name, ok := symTab.TerminalText(num); ok {
			expected = append(expected, name)
		}
	}
	if a.EOF {
		return &perr.UnexpectedToken{Pos: a.Pos, State: state, Expected: expected}
	}
	return &perr.UnexpectedToken{TokenName: a.Name, Lexeme: a.Lexeme, Pos: a.Pos, State: state, Expected: expected}
}
