// ABOUTME: Charm sync CLI commands
// ABOUTME: Manual sync, sync status, and local wipe for the charm storage backend
package cli

import (
	"fmt"

	"github.com/harperreed/workly/config"
	"github.com/spf13/cobra"
)

func newSyncCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "sync", Short: "Sync with the charm server"}
	cmd.AddCommand(newSyncNowCmd(opts), newSyncStatusCmd(opts), newSyncWipeCmd(opts))
	return cmd
}

func charmApp(opts *globalOptions, fn func(*App) error) error {
	return withApp(opts, func(app *App) error {
		if app.Charm == nil {
			return fmt.Errorf("sync needs the %s backend (got %s)", config.BackendCharm, app.Config.Storage.Backend)
		}
		return fn(app)
	})
}

func newSyncNowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Push and pull changes now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return charmApp(opts, func(app *App) error {
				if err := app.Charm.Sync(); err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✓ synced")
				return nil
			})
		},
	}
}

func newSyncStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show charm account and sync settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return charmApp(opts, func(app *App) error {
				w := cmd.OutOrStdout()
				cfg := app.Charm.Config()
				printField(w, "Server", cfg.Host)
				printField(w, "Auto sync", cfg.AutoSync)
				printField(w, "Stale after", cfg.StaleThreshold)

				id, err := app.Charm.ID()
				if err != nil {
					printField(w, "Account", errorStyle.Render(err.Error()))
				} else {
					printField(w, "Account", id)
				}

				keys, err := app.Charm.Keys()
				if err != nil {
					return fmt.Errorf("failed to list keys: %w", err)
				}
				printField(w, "Stored keys", len(keys))
				return nil
			})
		},
	}
}

func newSyncWipeCmd(opts *globalOptions) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all local sessions, visits, and CRM data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			if !confirm {
				_, _ = fmt.Fprintln(w, errorStyle.Render("WARNING: This will delete ALL local data!"))
				_, _ = fmt.Fprintln(w, "To confirm, run:")
				_, _ = fmt.Fprintln(w, "  workly sync wipe --confirm")
				return nil
			}
			return charmApp(opts, func(app *App) error {
				// Stop tracking before the store goes away under the tracker.
				app.Service.StopTracking()
				if err := app.Charm.Reset(); err != nil {
					return fmt.Errorf("failed to reset KV store: %w", err)
				}
				_, _ = fmt.Fprintln(w, "✓ All data wiped")
				_, _ = fmt.Fprintln(w, "Your Charm account is still linked.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm data wipe")
	return cmd
}
