package main

import (
	"fmt"
	"io"
	"os"

	"github.com/parsekit/lrforge/driver"
	"github.com/parsekit/lrforge/grammar"
	"github.com/parsekit/lrforge/lexer"
	"github.com/parsekit/lrforge/serialize"
	"github.com/parsekit/lrforge/symbol"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source *string
	cst    *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <compiled grammar path>",
		Short:   "Drive a compiled table over a whitespace-separated token stream",
		Example: `  cat src | lrforge parse grammar.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.cst = cmd.Flags().Bool("cst", false, "build and print the concrete syntax tree")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	g, err := serialize.GrammarFromYAML(data, serialize.NewRegistry())
	if err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}

	src := os.Stdin
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("opening %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}
	text, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	lx, err := wordLexer(g).NewLexer(string(text))
	if err != nil {
		return fmt.Errorf("lexer: %w", err)
	}

	var opts []driver.Option
	if *parseFlags.cst {
		opts = append(opts, driver.WithCST())
	}
	result, err := driver.New(g, opts...).Parse(lx, nil)
	if err != nil {
		return err
	}

	if *parseFlags.cst {
		if node, ok := result.(*driver.Node); ok {
			printNode(os.Stdout, node, 0)
			return nil
		}
	}
	fmt.Fprintf(os.Stdout, "%#v\n", result)
	return nil
}

// wordLexer synthesizes a whitespace-splitting lexer straight from g's
// terminal names: lrforge has no grammar-embedded lexical spec the way the
// teacher's vartan notation does, so `lrforge parse` can only exercise a
// compiled table by treating each input word as one terminal's literal
// text. Building an actual lexer.Builder belongs to the program embedding
// lrforge as a library; this is a smoke-test stand-in only.
func wordLexer(g *grammar.Grammar) *lexer.Builder {
	b := lexer.NewBuilder()
	b.AddRule("_ws", `[ \t\r\n]+`, true, func(lexeme string, groups []string) (any, error) {
		return nil, nil
	}, func(value any, lexeme string) (string, bool) {
		return "", false
	})
	symTab := g.SymbolTable()
	for _, s := range symTab.Terminals() {
		if s == symbol.EOF {
			continue
		}
		name, _ := symTab.Text(s)
		b.AddRule(name, name, false, func(lexeme string, groups []string) (any, error) {
			return lexeme, nil
		}, nil)
	}
	return b
}

func printNode(w io.Writer, n *driver.Node, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "  ")
	}
	if n.Lexeme != "" || len(n.Children) == 0 {
		fmt.Fprintf(w, "%s %q\n", n.Name, n.Lexeme)
	} else {
		fmt.Fprintf(w, "%s\n", n.Name)
	}
	for _, c := range n.Children {
		printNode(w, c, depth+1)
	}
}
