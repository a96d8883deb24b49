package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/carjohnson/annosync/internal/ports/primary"
)

// EventCmd returns the event command group
func EventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Send change notifications to the daemon",
	}
	cmd.PersistentFlags().String("addr", defaultDaemonAddr, "daemon address")
	cmd.AddCommand(eventSendCmd())
	cmd.AddCommand(eventDeleteCmd())
	cmd.AddCommand(eventFlushCmd())
	return cmd
}

func eventSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <uid>",
		Short: "Send a create/update notification for an annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			seriesUID, _ := cmd.Flags().GetString("series")
			label, _ := cmd.Flags().GetString("label")
			statsJSON, _ := cmd.Flags().GetString("stats")
			scoreStr, _ := cmd.Flags().GetString("score")

			change := primary.ChangeNotification{
				UID:       args[0],
				SeriesUID: seriesUID,
				Label:     label,
			}
			if statsJSON != "" {
				var stats map[string]any
				if err := json.Unmarshal([]byte(statsJSON), &stats); err != nil {
					return fmt.Errorf("invalid --stats JSON: %w", err)
				}
				change.Stats = stats
			}
			if scoreStr != "" {
				score, err := strconv.Atoi(scoreStr)
				if err != nil {
					return fmt.Errorf("invalid --score: %w", err)
				}
				change.Score = &score
			}

			client := newDaemonClient(addr)
			var resp map[string]int
			if err := client.call(http.MethodPost, "/v1/events", map[string]any{
				"changes": []primary.ChangeNotification{change},
			}, &resp); err != nil {
				return err
			}
			fmt.Printf("✓ Sent change for %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("series", "", "series UID owning the annotation")
	cmd.Flags().String("label", "", "annotation label")
	cmd.Flags().String("stats", "", "statistics payload as JSON (empty means unmeasured)")
	cmd.Flags().String("score", "", "score in [1,5]")
	return cmd
}

func eventDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <uid>",
		Short: "Send a delete notification for an annotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			client := newDaemonClient(addr)
			if err := client.call(http.MethodPost, "/v1/events", map[string]any{
				"changes": []primary.ChangeNotification{{UID: args[0], Deleted: true}},
			}, nil); err != nil {
				return err
			}
			fmt.Printf("✓ Sent delete for %s\n", args[0])
			return nil
		},
	}
}

func eventFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Force an immediate pipeline evaluation",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			client := newDaemonClient(addr)
			if err := client.call(http.MethodPost, "/v1/flush", nil, nil); err != nil {
				return err
			}
			fmt.Println("✓ Flushed")
			return nil
		},
	}
}
