package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/carjohnson/annosync/internal/config"
	"github.com/carjohnson/annosync/internal/httpapi"
	"github.com/carjohnson/annosync/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the annotation sync daemon",
		Long:  `Run the HTTP daemon that ingests change notifications, synchronizes snapshots and tracks completion state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			workspaceCfg, err := config.LoadConfig(".")
			if err != nil {
				return fmt.Errorf("workspace is not initialized, run 'annosync init' first: %w", err)
			}
			daemonCfg, err := config.LoadDaemonConfig(configPath)
			if err != nil {
				return err
			}

			if err := wire.Init(daemonCfg, workspaceCfg); err != nil {
				return err
			}
			engine := wire.Engine()
			defer engine.Close()

			if err := engine.Restore(cmd.Context()); err != nil {
				return fmt.Errorf("failed to restore session: %w", err)
			}
			if workspaceCfg.SeriesUID != "" {
				if err := wire.CompletionService().SetActiveSeries(cmd.Context(), workspaceCfg.SeriesUID); err != nil {
					return err
				}
			}

			handler := httpapi.NewRouter(
				wire.SyncService(),
				wire.CompletionService(),
				wire.ActivityService(),
				daemonCfg.Server.AllowedOrigins,
			)
			srv := &http.Server{
				Addr:         daemonCfg.Server.Addr,
				Handler:      handler,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				fmt.Printf("annosync daemon listening on %s (study %s)\n", daemonCfg.Server.Addr, workspaceCfg.StudyUID)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-stop:
			}

			fmt.Println("shutting down...")
			// Flush the pending evaluation before closing so the last batch
			// is not lost to the settle window.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := wire.SyncService().Flush(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "flush on shutdown failed: %v\n", err)
			}
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("config", "annosync.yaml", "path to the daemon config file")
	return cmd
}
