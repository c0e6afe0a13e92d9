package main

import (
	"fmt"
	"io"
	"os"

	"github.com/parsekit/lrforge/grammar"
	"github.com/parsekit/lrforge/lower"
	"github.com/parsekit/lrforge/notation"
	"github.com/parsekit/lrforge/notation/abnf"
	"github.com/parsekit/lrforge/notation/bnf"
	"github.com/parsekit/lrforge/notation/ebnf"
)

// parseNotation runs the front-end named by dialect ("bnf", "ebnf" or
// "abnf") over src.
func parseNotation(dialect, src string) (*notation.Grammar, error) {
	switch dialect {
	case "", "bnf":
		return bnf.Parse(src)
	case "ebnf":
		return ebnf.Parse(src)
	case "abnf":
		return abnf.Parse(src)
	default:
		return nil, fmt.Errorf("unknown dialect %q (want bnf, ebnf or abnf)", dialect)
	}
}

// modeByName maps a CLI --mode flag to a grammar.Mode, defaulting to auto.
func modeByName(name string) (grammar.Mode, error) {
	switch name {
	case "", "auto":
		return grammar.ModeAuto, nil
	case "lr0":
		return grammar.ModeLR0, nil
	case "slr":
		return grammar.ModeSLR, nil
	case "lalr1":
		return grammar.ModeLALR, nil
	case "lr1":
		return grammar.ModeLR1, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want auto, lr0, slr, lalr1 or lr1)", name)
	}
}

// buildFromSource reads path (or stdin, if path is empty), parses it with
// the named dialect, lowers any EBNF-only constructs to plain BNF, and
// builds the requested automaton. A CLI-compiled grammar carries no
// handlers: it exists for structural smoke-testing, not for wiring
// application callbacks, so no handler array is installed, Grammar.Handler
// returns nil for every index, and every production reduces by identity.
func buildFromSource(path, name, dialect, modeName, start string) (*grammar.Grammar, error) {
	src, err := readSource(path)
	if err != nil {
		return nil, err
	}

	g, err := parseNotation(dialect, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if start != "" {
		g.Start = start
	}

	b := grammar.NewBuilder(name)
	if err := lower.Lower(g, b); err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}

	mode, err := modeByName(modeName)
	if err != nil {
		return nil, err
	}

	built, err := b.Build(mode)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	return built, nil
}

func readSource(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
