package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/carjohnson/annosync/internal/config"
	"github.com/carjohnson/annosync/internal/ports/primary"
)

// CompleteCmd returns the complete command group
func CompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Mark a series or study as completed",
	}
	cmd.PersistentFlags().String("addr", defaultDaemonAddr, "daemon address")
	cmd.AddCommand(completeSeriesCmd())
	cmd.AddCommand(completeStudyCmd())
	cmd.AddCommand(activateSeriesCmd())
	return cmd
}

func completeSeriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "series <uid>",
		Short: "Validate and complete a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			client := newDaemonClient(addr)

			var resp primary.CompleteSeriesResponse
			if err := client.call(http.MethodPost, "/v1/series/"+args[0]+"/complete", nil, &resp); err != nil {
				return err
			}
			switch {
			case resp.Completed:
				fmt.Printf("✓ Series %s completed\n", args[0])
			case resp.AlreadyCompleted:
				fmt.Printf("Series %s was already completed\n", args[0])
			case resp.Stale:
				fmt.Println("Active scope changed during the validity check; nothing was locked")
			case resp.NotValidated:
				fmt.Printf("Series %s is not validated by the worklist yet\n", args[0])
			}
			return nil
		},
	}
}

func completeStudyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Complete the whole study (administrator only)",
		Long:  `Complete the study and seal every member series. Requires --confirm.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			confirmed, _ := cmd.Flags().GetBool("confirm")
			client := newDaemonClient(addr)

			// The daemon enforces this too; failing here saves a round
			// trip when the workspace identity is known.
			if client.role != "" && !config.IsAdministrator(client.role) {
				return fmt.Errorf("completing a study requires the administrator role (workspace role: %s)", client.role)
			}

			var resp primary.CompleteStudyResponse
			if err := client.call(http.MethodPost, "/v1/study/complete", primary.CompleteStudyRequest{
				Confirmed: confirmed,
			}, &resp); err != nil {
				return err
			}
			switch {
			case resp.Completed:
				fmt.Println("✓ Study completed")
				if len(resp.PendingSeries) > 0 {
					fmt.Printf("  note: %d series still in progress: %v\n", len(resp.PendingSeries), resp.PendingSeries)
				}
			case resp.AlreadyCompleted:
				fmt.Println("Study was already completed")
			}
			return nil
		},
	}
	cmd.Flags().Bool("confirm", false, "confirm the one-directional study completion")
	return cmd
}

func activateSeriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <uid>",
		Short: "Switch the active series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			client := newDaemonClient(addr)
			if err := client.call(http.MethodPost, "/v1/series/"+args[0]+"/activate", nil, nil); err != nil {
				return err
			}
			fmt.Printf("✓ Active series is now %s\n", args[0])
			return nil
		},
	}
}
