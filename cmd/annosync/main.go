package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carjohnson/annosync/internal/cli"
	"github.com/carjohnson/annosync/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "annosync",
		Short:   "annosync - annotation synchronization and validation engine",
		Version: version.String(),
		Long: `annosync keeps a reading session's annotations deduplicated, validated
and synchronized to a downstream consumer, and tracks series/study
completion with role-based locking.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.EventCmd())
	rootCmd.AddCommand(cli.CompleteCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.LogCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
