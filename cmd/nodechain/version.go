package main

import (
	"fmt"

	"github.com/aretw0/nodechain"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nodechain",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nodechain version %s\n", nodechain.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
