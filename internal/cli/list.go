package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/probe/internal/harness"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the registered suites and cases without running them",
		Long: `Print the registered tree in declaration order. Suites show the
lifecycle hooks registered on them.

Examples:
  probe list
  probe list --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			outline := rootOpts.Registry().Outline()
			if rootOpts.Format == "json" {
				out := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
				return out.Success(outline)
			}
			writeOutline(cmd.OutOrStdout(), outline, 0)
			return nil
		},
	}
}

func writeOutline(w io.Writer, n harness.OutlineNode, depth int) {
	indent := strings.Repeat("  ", depth)
	if depth == 0 && len(n.Hooks) > 0 {
		fmt.Fprintf(w, "%s\n", dim("global hooks: "+strings.Join(n.Hooks, ", ")))
	}
	for _, child := range n.Children {
		if child.Kind == "case" {
			fmt.Fprintf(w, "%s%s\n", indent, child.Name)
			continue
		}
		line := indent + bold(child.Name)
		if len(child.Hooks) > 0 {
			line += " " + dim("["+strings.Join(child.Hooks, ", ")+"]")
		}
		fmt.Fprintln(w, line)
		writeOutline(w, child, depth+1)
	}
}
