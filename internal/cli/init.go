package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carjohnson/annosync/internal/config"
	"github.com/carjohnson/annosync/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an annosync workspace",
		Long:  `Create the workspace config in .annosync/ and initialize the session database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			role, _ := cmd.Flags().GetString("role")
			studyUID, _ := cmd.Flags().GetString("study")
			seriesUID, _ := cmd.Flags().GetString("series")
			patientTag, _ := cmd.Flags().GetString("patient-tag")

			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if !config.ValidRole(role) {
				return fmt.Errorf("invalid role %q (must be %q or %q)", role, config.RoleReader, config.RoleAdministrator)
			}
			if studyUID == "" {
				return fmt.Errorf("--study is required")
			}

			cfg := &config.Config{
				Username:   username,
				Role:       role,
				StudyUID:   studyUID,
				SeriesUID:  seriesUID,
				PatientTag: patientTag,
			}
			if err := config.SaveConfig(".", cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Println("✓ Workspace config created at .annosync/config.json")

			if _, err := db.GetDB(""); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			fmt.Println("✓ Session database initialized")
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  annosync serve")
			fmt.Println("  annosync status")

			return nil
		},
	}

	cmd.Flags().String("username", "", "caller username")
	cmd.Flags().String("role", config.RoleReader, "caller role (reader or administrator)")
	cmd.Flags().String("study", "", "study UID for this session")
	cmd.Flags().String("series", "", "initially active series UID")
	cmd.Flags().String("patient-tag", "", "opaque scope identity forwarded in snapshots")
	return cmd
}
