package main

import (
	"os"

	"github.com/aretw0/nodechain/internal/cli"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <module> <function> [args...]",
	Short: "Call a dispatch function in the process that owns the scene",
	Long: `call is the client side of the bridge. It runs "<binary> exec <module> <function> <args...>"
as configured in the bridge file and prints the result line.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("bridge")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		ok, err := cli.Call(ctx, cfgPath, args[0], args[1], args[2:], cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !ok {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().String("bridge", "bridge.yaml", "Bridge configuration file")
	callCmd.Flags().SetInterspersed(false)
}
