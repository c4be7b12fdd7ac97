// ABOUTME: Visit, door hanger, and quote CLI commands
// ABOUTME: Logs customer interactions against the running session
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/workly/fieldwork"
	"github.com/harperreed/workly/models"
	"github.com/harperreed/workly/pricing"
	"github.com/spf13/cobra"
)

func newVisitCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "visit", Short: "Log and list customer visits"}
	cmd.AddCommand(newVisitLogCmd(opts), newVisitListCmd(opts))
	return cmd
}

func newVisitLogCmd(opts *globalOptions) *cobra.Command {
	var in fieldwork.VisitInput
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a visit (starts or converts a session as needed)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
				in.Latitude, in.Longitude = &lat, &lng
			}
			return withApp(opts, func(app *App) error {
				res, err := app.Service.LogVisit(cmd.Context(), app.Salesperson(), in)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				switch {
				case res.Started:
					_, _ = fmt.Fprintf(w, "✓ visit session started: %s\n", res.Session.SessionID)
				case res.Converted:
					_, _ = fmt.Fprintf(w, "✓ canvassing session converted: %s\n", res.Session.SessionID)
				}
				_, _ = fmt.Fprintf(w, "✓ visit logged: %s (%s)\n", res.Visit.Street, res.Visit.SalesStatus)
				if res.Visit.TotalQuoted > 0 {
					printPrice(w, res.Visit.PriceBreakdown)
				}
				_, _ = fmt.Fprintf(w, "  contact: %s\n", res.ContactID)
				if res.Deal != nil {
					_, _ = fmt.Fprintf(w, "  deal: %s %s\n", res.Deal.Title, money(res.Deal.QuotedPrice))
				}
				_, _ = fmt.Fprintf(w, "  session: %d visits, %s est. commission\n",
					res.Session.TotalVisits, money(res.Session.EstimatedCommission))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first-name", "", "customer first name")
	f.StringVar(&in.LastName, "last-name", "", "customer last name")
	f.StringVar(&in.Email, "email", "", "customer email")
	f.StringVar(&in.Phone, "phone", "", "customer phone")
	f.StringVar(&in.Street, "street", "", "street address (looked up from GPS when empty)")
	f.StringVar(&in.City, "city", "", "city")
	f.StringVar(&in.State, "state", "", "state")
	f.StringVar(&in.Zip, "zip", "", "ZIP code")
	f.StringVar(&in.County, "county", "", "county")
	f.Float64Var(&lat, "lat", 0, "latitude of the property")
	f.Float64Var(&lng, "lng", 0, "longitude of the property")
	f.StringVar(&in.SalesStatus, "status", "", "outcome: "+strings.Join(models.DoorToDoorStatuses, ", "))
	f.Float64Var(&in.Sqft, "sqft", 0, "driveway square feet")
	f.Float64Var(&in.CrackFeet, "crack-feet", 0, "crack repair linear feet")
	f.Float64Var(&in.AsphaltRepair, "asphalt-sqft", 0, "asphalt repair square feet")
	f.StringVar(&in.Notes, "notes", "", "notes")
	return cmd
}

func newVisitListCmd(opts *globalOptions) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visits for a session (default: the running session)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				id := sessionID
				if id == "" {
					active, ok := app.Service.Tracker().ActiveSession()
					if !ok {
						return fmt.Errorf("no active session; pass --session")
					}
					id = active.Base().SessionID
				}

				visits := app.Service.Visits().ForSession(id)
				if len(visits) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no visits")
					return nil
				}
				printVisitTable(cmd.OutOrStdout(), visits)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id")
	return cmd
}

func newHangerCmd(opts *globalOptions) *cobra.Command {
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "hanger",
		Short: "Record a door hanger on the running canvassing session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lng") {
					app.Service.SetPosition(lat, lng)
				}
				v, err := app.Service.PlaceDoorHanger(cmd.Context())
				if errors.Is(err, fieldwork.ErrNoPosition) {
					return fmt.Errorf("%w; pass --lat and --lng", err)
				}
				if err != nil {
					return err
				}
				active, _ := app.Service.Tracker().ActiveSession()
				count := 0
				if active.Canvassing != nil {
					count = active.Canvassing.DoorHangersPlaced
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ door hanger placed at %s (%d this session)\n", v.Street, count)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude (default: last recorded point)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude (default: last recorded point)")
	return cmd
}

func newQuoteCmd() *cobra.Command {
	var sqft, crackFeet, asphaltSqft float64

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a driveway job without logging a visit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			printPrice(cmd.OutOrStdout(), pricing.CalculateAll(sqft, crackFeet, asphaltSqft))
			return nil
		},
	}
	cmd.Flags().Float64Var(&sqft, "sqft", 0, "driveway square feet")
	cmd.Flags().Float64Var(&crackFeet, "crack-feet", 0, "crack repair linear feet")
	cmd.Flags().Float64Var(&asphaltSqft, "asphalt-sqft", 0, "asphalt repair square feet")
	return cmd
}
