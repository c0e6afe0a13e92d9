package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lrforge",
	Short: "Compile a BNF/EBNF/ABNF grammar into an LR parsing table",
	Long: `lrforge provides three features:
- Compiles a grammar into a portable ACTION/GOTO table.
- Describes a grammar's productions and its state and symbol counts.
- Drives a compiled table over a text stream, for manual smoke-testing.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
