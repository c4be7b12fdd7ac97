// ABOUTME: Spreadsheet export CLI command
// ABOUTME: Writes the salesperson's sessions and their visits to an xlsx workbook
package cli

import (
	"fmt"

	"github.com/harperreed/workly/models"
	"github.com/harperreed/workly/report"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions and visits to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				sessions := app.Service.Tracker().SessionsForUser(app.Salesperson())

				var visits []models.Visit
				for _, s := range sessions {
					visits = append(visits, app.Service.Visits().ForSession(s.Base().SessionID)...)
				}

				if err := report.ExportSessionsFile(output, sessions, visits); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ exported %d sessions and %d visits to %s\n", len(sessions), len(visits), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "workly.xlsx", "output file")
	return cmd
}
