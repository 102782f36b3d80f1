package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/nodechain/pkg/recipe"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// Output is returned unchanged when stdout is not a terminal.
func NewRenderer() func(string) (string, error) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// SummaryMarkdown formats the result of a recipe build as a markdown table.
func SummaryMarkdown(created []recipe.Created) string {
	var sb strings.Builder
	sb.WriteString("# Build summary\n\n")
	if len(created) == 0 {
		sb.WriteString("_Nothing was materialized._\n")
		return sb.String()
	}

	total := 0
	sb.WriteString("| Target | Nodes | Last |\n|---|---|---|\n")
	for _, c := range created {
		last := "-"
		if len(c.Paths) > 0 {
			last = "`" + c.Paths[len(c.Paths)-1] + "`"
		}
		fmt.Fprintf(&sb, "| %s | %d | %s |\n", c.Target, len(c.Paths), last)
		total += len(c.Paths)
	}
	fmt.Fprintf(&sb, "\n**%d** targets, **%d** nodes.\n", len(created), total)
	return sb.String()
}
