package main

import (
	"github.com/aretw0/nodechain/internal/cli"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server over stdio",
	Long: `Exposes every dispatch function as an MCP tool named module.function, taking a
string array argument "args". Logs go to stderr; stdout carries JSON-RPC only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.ServeMCP(rt)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
