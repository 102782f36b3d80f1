package main

import (
	"fmt"
	"os"

	"github.com/aretw0/nodechain/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nodechain",
	Short: "nodechain builds graphs of scene nodes from declarative definitions",
	Long: `nodechain materializes node and chain definitions into a scene host.
Definitions are created lazily and at most once, so shared upstream work is built a single time.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("host", cli.HostMemory, "Scene host backend (memory or redis)")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address for --host redis")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database")
	rootCmd.PersistentFlags().String("redis-prefix", "nodechain:", "Key prefix shared by every process driving the same scene")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}

// runtimeOptions reads the persistent flags.
func runtimeOptions(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	host, _ := flags.GetString("host")
	addr, _ := flags.GetString("redis-addr")
	password, _ := flags.GetString("redis-password")
	db, _ := flags.GetInt("redis-db")
	prefix, _ := flags.GetString("redis-prefix")
	debug, _ := flags.GetBool("debug")
	return cli.Options{
		Host:          host,
		RedisAddr:     addr,
		RedisPassword: password,
		RedisDB:       db,
		RedisPrefix:   prefix,
		Debug:         debug,
	}
}

// openRuntime builds the runtime for cmd. Callers must Close it.
func openRuntime(cmd *cobra.Command) (*cli.Runtime, error) {
	opts := runtimeOptions(cmd)
	return cli.NewRuntime(cmd.Context(), opts, cli.CreateLogger(opts.Debug))
}
