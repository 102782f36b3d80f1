package main

import (
	"fmt"
	"os"

	"github.com/aretw0/nodechain/internal/cli"
	"github.com/aretw0/nodechain/pkg/registry"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <module> <function> [args...]",
	Short: "Run one dispatch function and print its result as a JSON line",
	Long: `exec is the subprocess side of the bridge. Whatever happens, exactly one JSON line
{success, result, error, traceback} is printed to stdout. The exit status is 1 when the call failed.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := openRuntime(cmd)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), registry.Result{Success: false, Error: err.Error()}.Line())
			os.Exit(1)
		}
		ok := cli.Exec(cmd.Context(), rt, args[0], args[1], args[2:], cmd.OutOrStdout())
		rt.Close()
		if !ok {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
	// Function arguments may look like flags.
	execCmd.Flags().SetInterspersed(false)
}
