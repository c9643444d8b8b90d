package client

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vkoehler/memtrace/cmd/util"
)

var (
	traceCmd = &cobra.Command{
		Use:   "trace",
		Short: "Capture one snapshot on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := util.GetClient().Trace()
			if err != nil {
				return err
			}
			fmt.Printf("captured snapshot %d\n", index)
			return nil
		},
	}
	recordsCmd = &cobra.Command{
		Use:   "records",
		Short: "Fetch the most recent snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetUint64("limit")
			offset, _ := cmd.Flags().GetUint64("offset")

			records, err := util.GetClient().Records(limit, offset)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("no snapshots stored")
				return nil
			}

			for _, pos := range records {
				if pos.Missing {
					fmt.Printf("snapshot %d: evicted\n", pos.Index)
					continue
				}
				fmt.Printf("snapshot %d (%d entries):\n", pos.Index, len(pos.Record.Entries))
				for _, entry := range pos.Record.Entries {
					fmt.Printf("  %s.%s (%s) = %d bytes\n",
						entry.ModuleName, entry.Name, entry.ObjType, entry.DominatedSize)
				}
			}
			return nil
		},
	}
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check whether the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := util.GetClient().Health(); err != nil {
				return err
			}
			fmt.Println("server is healthy")
			return nil
		},
	}
)

func init() {
	recordsCmd.Flags().Uint64("limit", 10, util.WrapString("Maximum number of snapshots to fetch"))
	recordsCmd.Flags().Uint64("offset", 0, util.WrapString("Number of most recent snapshots to skip"))
}
