// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server on stdio for assistant integration
package cli

import (
	"github.com/harperreed/workly/fieldwork"
	"github.com/harperreed/workly/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *globalOptions, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(app *App) error {
				app.Logger.Info("starting workly MCP server")
				server := NewMCPServer(app.Service, app.Salesperson(), version)
				err := server.Run(cmd.Context(), &mcp.StdioTransport{})
				// Tracking started by a tool call outlives the request; end it with the server.
				app.Service.StopTracking()
				return err
			})
		},
	}
}

// NewMCPServer registers every workly tool, resource, and prompt.
func NewMCPServer(svc *fieldwork.Service, salesperson, version string) *mcp.Server {
	sessionHandlers := handlers.NewSessionHandlers(svc, salesperson)
	visitHandlers := handlers.NewVisitHandlers(svc, salesperson)
	crmHandlers := handlers.NewCRMHandlers(svc.CRM())

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "workly",
		Version: version,
	}, nil)

	// Sessions
	mcp.AddTool(server, &mcp.Tool{
		Name:        "start_session",
		Description: "Start a visit or canvassing session; any running session is ended first",
	}, sessionHandlers.StartSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "end_session",
		Description: "End the running session and report its final stats",
	}, sessionHandlers.EndSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_status",
		Description: "Show the running session, elapsed time, and last known position",
	}, sessionHandlers.SessionStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_location",
		Description: "Record a GPS reading as the current position and the next point on the session path",
	}, sessionHandlers.RecordLocation)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_session",
		Description: "Convert the running canvassing session into a visit session",
	}, sessionHandlers.ConvertSession)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List a salesperson's sessions, newest first",
	}, sessionHandlers.ListSessions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_session",
		Description: "Get one session with its visits",
	}, sessionHandlers.GetSession)

	// Visits
	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_visit",
		Description: "Log a customer visit: prices the job, updates session stats, and records the contact and any deal",
	}, visitHandlers.LogVisit)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "place_door_hanger",
		Description: "Record a door hanger at the current position on the running canvassing session",
	}, visitHandlers.PlaceDoorHanger)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_visits",
		Description: "List visits for a session (defaults to the running session)",
	}, visitHandlers.ListVisits)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quote_price",
		Description: "Price driveway sealing, crack repair, and asphalt repair without logging anything",
	}, visitHandlers.QuotePrice)

	// CRM
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search contacts by name, email, phone, or street",
	}, crmHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_contact",
		Description: "Get a contact with their deals and activity history",
	}, crmHandlers.GetContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_deals",
		Description: "List deals, optionally for one contact or status",
	}, crmHandlers.ListDeals)

	handlers.NewResourceHandlers(svc).Register(server)
	handlers.NewPromptHandlers(svc).Register(server)
	return server
}
