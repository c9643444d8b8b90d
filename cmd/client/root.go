package client

import (
	"github.com/spf13/cobra"

	"github.com/vkoehler/memtrace/cmd/util"
)

var (
	// ClientCommands represents the client command group
	ClientCommands = &cobra.Command{
		Use:               "client",
		Short:             "Interact with a running memtrace server",
		PersistentPreRunE: setupClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common connection flags to the client command
	util.SetupClientFlags(ClientCommands)

	// Add subcommands
	ClientCommands.AddCommand(traceCmd)
	ClientCommands.AddCommand(recordsCmd)
	ClientCommands.AddCommand(healthCmd)
}

// setupClient binds the connection flags to viper
func setupClient(cmd *cobra.Command, _ []string) error {
	return util.BindCommandFlags(cmd)
}
