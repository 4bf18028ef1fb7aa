package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/lispui/internal/lexer"
)

// TokenView is the JSON form of one token.
type TokenView struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <template-file>",
		Short: "Print the tokens of a template",
		Long: `Tokenize a template file and print one token per line with its
kind and position. Useful for checking how a template is split before
it is compiled.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(rootOpts, args[0], cmd)
		},
	}
}

func runTokens(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	src, err := os.ReadFile(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Sprintf("reading template: %v", err))
	}

	tokens := lexer.Tokenize(string(src))
	formatter.VerboseLog("%d token(s) in %s", len(tokens), path)

	if formatter.Format == "json" {
		views := make([]TokenView, len(tokens))
		for i, t := range tokens {
			views[i] = TokenView{Kind: t.Kind.String(), Text: t.Text, Line: t.Pos.Line, Col: t.Pos.Col}
		}
		return formatter.Success(views)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	for _, t := range tokens {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Pos, t.Kind, t.Text)
	}
	return tw.Flush()
}
