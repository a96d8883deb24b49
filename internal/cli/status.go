package cli

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/carjohnson/annosync/internal/ports/primary"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the engine's current session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			client := newDaemonClient(addr)

			var status primary.EngineStatus
			if err := client.call(http.MethodGet, "/v1/status", nil, &status); err != nil {
				return err
			}

			bold := color.New(color.Bold)
			bold.Printf("Study %s\n", status.StudyUID)
			if status.ActiveSeriesUID != "" {
				fmt.Printf("  active series:  %s\n", status.ActiveSeriesUID)
			}
			if status.StudyCompleted {
				color.Green("  study: completed")
			} else {
				fmt.Println("  study: open")
			}
			if len(status.CompletedSeries) > 0 {
				sort.Strings(status.CompletedSeries)
				fmt.Printf("  completed series: %v\n", status.CompletedSeries)
			}
			fmt.Printf("  records: %d total, %d syncable, %d invalid\n",
				status.RecordCount, status.SyncableCount, status.InvalidCount)
			if status.PendingEvaluation {
				color.Yellow("  evaluation pending (settle window open)")
			}
			if status.LastEmittedCount > 0 {
				fmt.Printf("  last snapshot: %d records\n", status.LastEmittedCount)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", defaultDaemonAddr, "daemon address")
	return cmd
}
