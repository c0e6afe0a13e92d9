package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parsekit/lrforge/serialize"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	dialect *string
	mode    *string
	start   *string
	output  *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile <grammar file path>",
		Short:   "Compile a grammar into a portable ACTION/GOTO table",
		Example: `  lrforge compile grammar.bnf -o grammar.yaml`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.dialect = cmd.Flags().StringP("dialect", "d", "bnf", "grammar notation: bnf, ebnf or abnf")
	compileFlags.mode = cmd.Flags().StringP("mode", "m", "auto", "table construction: auto, lr0, slr, lalr1 or lr1")
	compileFlags.start = cmd.Flags().String("start", "", "start symbol (default: head of the first production)")
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}

	name := "grammar"
	if path != "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	g, err := buildFromSource(path, name, *compileFlags.dialect, *compileFlags.mode, *compileFlags.start)
	if err != nil {
		return err
	}

	handlerIDs := make([]string, g.ProductionCount())
	data, err := serialize.GrammarToYAML(g, handlerIDs)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	if *compileFlags.output == "" {
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}
	if err := os.WriteFile(*compileFlags.output, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", *compileFlags.output, err)
	}
	return nil
}
