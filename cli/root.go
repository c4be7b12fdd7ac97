// ABOUTME: Root cobra command for the workly CLI
// ABOUTME: Declares persistent flags and attaches every subcommand
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the full command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "workly",
		Short:         "Field sales tracker for door-to-door driveway work",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/workly/config.yaml)")
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "storage backend: sqlite|charm|memory")
	root.PersistentFlags().StringVar(&opts.salesperson, "salesperson", "", "salesperson name (default: sales.salesperson or $USER)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug|info|warn|error")

	root.AddCommand(newSessionCmd(opts))
	root.AddCommand(newVisitCmd(opts))
	root.AddCommand(newHangerCmd(opts))
	root.AddCommand(newQuoteCmd())
	root.AddCommand(newCRMCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newSyncCmd(opts))
	root.AddCommand(newMCPCmd(opts, version))
	return root
}

// withApp loads the app for one command run and closes it afterwards.
func withApp(opts *globalOptions, fn func(*App) error, extra ...appOption) error {
	app, err := loadApp(opts, extra...)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}
