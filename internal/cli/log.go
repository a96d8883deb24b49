package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/carjohnson/annosync/internal/ports/primary"
)

// LogCmd returns the log command
func LogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent activity (audit trail)",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			limit, _ := cmd.Flags().GetInt("limit")
			client := newDaemonClient(addr)

			var records []*primary.ActivityRecord
			path := fmt.Sprintf("/v1/activity?limit=%d", limit)
			if err := client.call(http.MethodGet, path, nil, &records); err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No activity recorded yet")
				return nil
			}
			for _, r := range records {
				line := fmt.Sprintf("%s  %-8s %s/%s", r.CreatedAt, r.Action, r.EntityType, r.EntityID)
				if r.Actor != "" {
					line += fmt.Sprintf(" by %s", r.Actor)
				}
				if r.Action == "update" && r.FieldName != "" {
					line += fmt.Sprintf(" (%s: %q -> %q)", r.FieldName, r.OldValue, r.NewValue)
				}
				if r.Action == "notice" && r.NewValue != "" {
					line += fmt.Sprintf(": %s", r.NewValue)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", defaultDaemonAddr, "daemon address")
	cmd.Flags().Int("limit", 50, "number of entries to show")
	return cmd
}
