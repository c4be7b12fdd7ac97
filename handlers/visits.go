// ABOUTME: Visit MCP tool handlers
// ABOUTME: Implements log_visit, place_door_hanger, and quote_price tools
package handlers

import (
	"context"

	"github.com/harperreed/workly/fieldwork"
	"github.com/harperreed/workly/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VisitHandlers struct {
	svc         *fieldwork.Service
	salesperson string
}

func NewVisitHandlers(svc *fieldwork.Service, salesperson string) *VisitHandlers {
	return &VisitHandlers{svc: svc, salesperson: salesperson}
}

type LogVisitInput struct {
	Salesperson   string   `json:"salesperson,omitempty" jsonschema:"Salesperson, used when a new session has to be started"`
	FirstName     string   `json:"first_name,omitempty" jsonschema:"Customer first name"`
	LastName      string   `json:"last_name,omitempty" jsonschema:"Customer last name"`
	Email         string   `json:"email,omitempty" jsonschema:"Customer email address"`
	Phone         string   `json:"phone,omitempty" jsonschema:"Customer phone number"`
	Street        string   `json:"street,omitempty" jsonschema:"Street address (looked up from the current position when empty)"`
	City          string   `json:"city,omitempty" jsonschema:"City"`
	State         string   `json:"state,omitempty" jsonschema:"State"`
	Zip           string   `json:"zip,omitempty" jsonschema:"ZIP code"`
	County        string   `json:"county,omitempty" jsonschema:"County"`
	Latitude      *float64 `json:"latitude,omitempty" jsonschema:"Latitude of the property"`
	Longitude     *float64 `json:"longitude,omitempty" jsonschema:"Longitude of the property"`
	SalesStatus   string   `json:"sales_status,omitempty" jsonschema:"Outcome, e.g. Opportunity, Lead, Not Interested, Left Door Hanger"`
	Sqft          float64  `json:"sqft,omitempty" jsonschema:"Driveway area in square feet"`
	CrackFeet     float64  `json:"crack_feet,omitempty" jsonschema:"Crack length in feet"`
	AsphaltRepair float64  `json:"asphalt_repair,omitempty" jsonschema:"Asphalt patch area in square feet"`
	Notes         string   `json:"notes,omitempty" jsonschema:"Free-form notes"`
}

type LogVisitOutput struct {
	Visit     VisitOutput   `json:"visit"`
	Session   SessionOutput `json:"session"`
	ContactID string        `json:"contact_id"`
	Deal      *DealOutput   `json:"deal,omitempty"`
	Converted bool          `json:"converted"`
	Started   bool          `json:"started"`
}

func (h *VisitHandlers) LogVisit(ctx context.Context, _ *mcp.CallToolRequest, input LogVisitInput) (*mcp.CallToolResult, LogVisitOutput, error) {
	salesperson := input.Salesperson
	if salesperson == "" {
		salesperson = h.salesperson
	}

	res, err := h.svc.LogVisit(ctx, salesperson, fieldwork.VisitInput{
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Email:         input.Email,
		Phone:         input.Phone,
		Street:        input.Street,
		City:          input.City,
		State:         input.State,
		Zip:           input.Zip,
		County:        input.County,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		SalesStatus:   input.SalesStatus,
		Sqft:          input.Sqft,
		CrackFeet:     input.CrackFeet,
		AsphaltRepair: input.AsphaltRepair,
		Notes:         input.Notes,
	})
	if err != nil {
		return nil, LogVisitOutput{}, err
	}

	out := LogVisitOutput{
		Visit:     visitToOutput(res.Visit),
		ContactID: res.ContactID.String(),
		Converted: res.Converted,
		Started:   res.Started,
	}
	out.Session = sessionToOutput(models.NewVisitVariant(res.Session))
	if res.Deal != nil {
		d := dealToOutput(*res.Deal)
		out.Deal = &d
	}
	return nil, out, nil
}

type PlaceDoorHangerInput struct {
	Lat *float64 `json:"lat,omitempty" jsonschema:"Latitude; defaults to the last recorded position"`
	Lng *float64 `json:"lng,omitempty" jsonschema:"Longitude; defaults to the last recorded position"`
}

func (h *VisitHandlers) PlaceDoorHanger(ctx context.Context, _ *mcp.CallToolRequest, input PlaceDoorHangerInput) (*mcp.CallToolResult, VisitOutput, error) {
	if input.Lat != nil && input.Lng != nil {
		h.svc.SetPosition(*input.Lat, *input.Lng)
	}
	v, err := h.svc.PlaceDoorHanger(ctx)
	if err != nil {
		return nil, VisitOutput{}, err
	}
	return nil, visitToOutput(v), nil
}

type QuotePriceInput struct {
	Sqft        float64 `json:"sqft,omitempty" jsonschema:"Driveway area in square feet"`
	CrackFeet   float64 `json:"crack_feet,omitempty" jsonschema:"Crack length in feet"`
	AsphaltSqft float64 `json:"asphalt_sqft,omitempty" jsonschema:"Asphalt patch area in square feet"`
}

func (h *VisitHandlers) QuotePrice(_ context.Context, _ *mcp.CallToolRequest, input QuotePriceInput) (*mcp.CallToolResult, PriceOutput, error) {
	return nil, priceToOutput(h.svc.Quote(input.Sqft, input.CrackFeet, input.AsphaltSqft)), nil
}

type ListVisitsInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"Session ID (defaults to the active session)"`
}

type ListVisitsOutput struct {
	SessionID string        `json:"session_id"`
	Visits    []VisitOutput `json:"visits"`
}

func (h *VisitHandlers) ListVisits(_ context.Context, _ *mcp.CallToolRequest, input ListVisitsInput) (*mcp.CallToolResult, ListVisitsOutput, error) {
	sessionID := input.SessionID
	if sessionID == "" {
		active, ok := h.svc.Tracker().ActiveSession()
		if !ok {
			return nil, ListVisitsOutput{}, fieldwork.ErrNoActiveSession
		}
		sessionID = active.Base().SessionID
	}

	visits := h.svc.Visits().ForSession(sessionID)
	out := ListVisitsOutput{SessionID: sessionID, Visits: make([]VisitOutput, len(visits))}
	for i, v := range visits {
		out.Visits[i] = visitToOutput(v)
	}
	return nil, out, nil
}
