package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var describeFlags = struct {
	dialect *string
	mode    *string
	start   *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "describe <grammar file path>",
		Short:   "Print a grammar's productions, states and ACTION/GOTO table summary",
		Example: `  lrforge describe grammar.ebnf -d ebnf`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runDescribe,
	}
	describeFlags.dialect = cmd.Flags().StringP("dialect", "d", "bnf", "grammar notation: bnf, ebnf or abnf")
	describeFlags.mode = cmd.Flags().StringP("mode", "m", "auto", "table construction: auto, lr0, slr, lalr1 or lr1")
	describeFlags.start = cmd.Flags().String("start", "", "start symbol (default: head of the first production)")
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}

	g, err := buildFromSource(path, "grammar", *describeFlags.dialect, *describeFlags.mode, *describeFlags.start)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, g.Describe())
	return nil
}
