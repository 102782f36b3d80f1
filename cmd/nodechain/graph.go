package main

import (
	"fmt"

	"github.com/aretw0/nodechain/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <recipe.yaml>",
	Short: "Export the recipe graph visualization",
	Long:  `Builds the definitions of a recipe without touching a host and outputs a Mermaid diagram (graph LR) of nodes, inputs and chain wiring.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		created, _ := cmd.Flags().GetStringSlice("created")
		output, err := cli.Graph(args[0], created)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringSlice("created", nil, "Paths to highlight as already created")
}
