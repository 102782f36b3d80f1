package main

import (
	"os"

	"github.com/aretw0/nodechain/internal/cli"
	"github.com/aretw0/nodechain/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var buildCmd = &cobra.Command{
	Use:   "build <recipe.yaml>",
	Short: "Materialize a recipe into the scene host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")

		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		pretty := term.IsTerminal(int(os.Stdout.Fd()))
		if pretty && !quiet {
			tui.PrintBanner(os.Stdout)
		}
		_, err = cli.Build(ctx, rt, args[0], cmd.OutOrStdout(), pretty)
		return err
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
