// ABOUTME: Session CLI commands
// ABOUTME: start, end, status, list, show, point, convert, and track for field sessions
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/workly/models"
	"github.com/spf13/cobra"
)

func newSessionCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "session", Short: "Field session lifecycle"}
	cmd.AddCommand(
		newSessionStartCmd(opts),
		newSessionEndCmd(opts),
		newSessionStatusCmd(opts),
		newSessionListCmd(opts),
		newSessionShowCmd(opts),
		newSessionPointCmd(opts),
		newSessionConvertCmd(opts),
		newSessionTrackCmd(opts),
	)
	return cmd
}

func newSessionStartCmd(opts *globalOptions) *cobra.Command {
	var kind, track string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a visit or canvassing session (ends any running session)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				salesperson := app.Salesperson()
				if salesperson == "" {
					return fmt.Errorf("--salesperson is required")
				}

				ctx := cmd.Context()
				var sessionID string
				switch models.SessionKind(kind) {
				case models.KindVisit:
					sessionID = app.Service.StartVisitSession(ctx, salesperson).SessionID
				case models.KindCanvassing:
					sessionID = app.Service.StartCanvassingSession(ctx, salesperson).SessionID
				default:
					return fmt.Errorf("--kind must be %q or %q", models.KindVisit, models.KindCanvassing)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s session started: %s\n", kind, sessionID)

				if app.Config.Location.Track != "" {
					return followTrack(ctx, cmd.OutOrStdout(), app)
				}
				return nil
			}, withTrack(track))
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.KindVisit), "session type: visit|canvassing")
	cmd.Flags().StringVar(&track, "track", "", "JSON GPS track to replay into the session")
	return cmd
}

func newSessionTrackCmd(opts *globalOptions) *cobra.Command {
	var track string

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Replay a GPS track into the running session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				if app.Config.Location.Track == "" {
					return fmt.Errorf("--track is required (or set location.track)")
				}
				if !app.Service.ResumeTracking(cmd.Context()) {
					return fmt.Errorf("no active session")
				}
				return followTrack(cmd.Context(), cmd.OutOrStdout(), app)
			}, withTrack(track))
		},
	}
	cmd.Flags().StringVar(&track, "track", "", "JSON GPS track to replay")
	return cmd
}

// followTrack blocks until the track is exhausted or the user interrupts,
// then prints where the session stands.
func followTrack(ctx context.Context, w io.Writer, app *App) error {
	done := app.Service.TrackingDone()
	if done == nil {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintln(w, "Tracking location (Ctrl+C to stop)...")
	select {
	case <-done:
	case <-ctx.Done():
	}
	app.Service.StopTracking()

	if err := app.Service.LocationError(); err != nil {
		_, _ = fmt.Fprintln(w, errorStyle.Render("location error: "+err.Error()))
	}
	if active, ok := app.Service.Tracker().ActiveSession(); ok {
		printSession(w, active, app.Service.Elapsed())
	}
	return nil
}

func newSessionEndCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the running session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				ended, ok := app.Service.EndSession()
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
					return nil
				}
				printSession(cmd.OutOrStdout(), ended, "")
				return nil
			})
		},
	}
}

func newSessionStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				st := app.Service.Status()
				if st.Session == nil {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
					return nil
				}
				printSession(cmd.OutOrStdout(), *st.Session, st.Elapsed)
				return nil
			})
		},
	}
}

func newSessionListCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the salesperson's sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				sessions := app.Service.Tracker().SessionsForUser(app.Salesperson())
				if len(sessions) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
					return nil
				}
				if limit > 0 && len(sessions) > limit {
					sessions = sessions[:limit]
				}
				printSessionTable(cmd.OutOrStdout(), sessions)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to show (0 for all)")
	return cmd
}

func newSessionShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session and its visits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(app *App) error {
				s, ok := app.Service.Tracker().SessionByID(args[0])
				if !ok {
					return fmt.Errorf("session not found: %s", args[0])
				}
				w := cmd.OutOrStdout()
				printSession(w, s, app.Service.Elapsed())

				visits := app.Service.Visits().ForSession(args[0])
				if len(visits) > 0 {
					_, _ = fmt.Fprintln(w)
					printVisitTable(w, visits)
				}
				return nil
			})
		},
	}
}

func newSessionPointCmd(opts *globalOptions) *cobra.Command {
	var lat, lng float64

	cmd := &cobra.Command{
		Use:   "point --lat <lat> --lng <lng>",
		Short: "Record a GPS point on the running session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
				return fmt.Errorf("coordinates out of range: %f,%f", lat, lng)
			}
			return withApp(opts, func(app *App) error {
				if !app.Service.Tracker().HasActiveSession() {
					return fmt.Errorf("no active session")
				}
				app.Service.SetPosition(lat, lng)
				active, _ := app.Service.Tracker().ActiveSession()
				b := active.Base()
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ point %d recorded, %.2f miles walked\n", len(b.Polyline), b.MilesWalked)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newSessionConvertCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert",
		Short: "Turn the running canvassing session into a visit session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				vs, ok := app.Service.ConvertToVisitSession()
				if !ok {
					return fmt.Errorf("no active canvassing session")
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ converted %s to a visit session (%d door hangers carried over)\n",
					vs.SessionID, vs.TotalVisits)
				return nil
			})
		},
	}
}
