package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vkoehler/memtrace/cmd/client"
	"github.com/vkoehler/memtrace/cmd/serve"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "memtrace",
		Short: "memory snapshot recorder",
		Long: fmt.Sprintf(`memtrace (v%s)

A memory snapshot recorder written in Go. It periodically measures the
memory dominated by the attributes of an application's registered
modules and stores the snapshots in an evictable shared cache.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of memtrace",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("memtrace v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(client.ClientCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
