// ABOUTME: MCP resource handlers for exposing field and CRM data
// ABOUTME: Provides read-only access to sessions, contacts, deals, and the pipeline via workly:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/workly/fieldwork"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "workly://"

type ResourceHandlers struct {
	svc *fieldwork.Service
}

func NewResourceHandlers(svc *fieldwork.Service) *ResourceHandlers {
	return &ResourceHandlers{svc: svc}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(_ context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "sessions":
		if len(parts) == 1 || parts[1] == "active" {
			return h.readActiveSession(uri)
		}
		return h.readSession(uri, parts[1])

	case "contacts":
		if len(parts) == 1 {
			return h.readAllContacts(uri)
		}
		return h.readContact(uri, parts[1])

	case "deals":
		return h.readAllDeals(uri)

	case "pipeline":
		return h.readPipeline(uri)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readActiveSession(uri string) (*mcp.ReadResourceResult, error) {
	active, ok := h.svc.Tracker().ActiveSession()
	if !ok {
		return jsonResource(uri, struct {
			Active bool `json:"active"`
		}{})
	}
	return h.readSession(uri, active.Base().SessionID)
}

func (h *ResourceHandlers) readSession(uri, id string) (*mcp.ReadResourceResult, error) {
	s, ok := h.svc.Tracker().SessionByID(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	visits := h.svc.Visits().ForSession(id)
	out := GetSessionOutput{Session: sessionToOutput(s), Visits: make([]VisitOutput, len(visits))}
	for i, v := range visits {
		out.Visits[i] = visitToOutput(v)
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readAllContacts(uri string) (*mcp.ReadResourceResult, error) {
	contacts := h.svc.CRM().Contacts()
	out := make([]ContactOutput, len(contacts))
	for i, c := range contacts {
		out[i] = contactToOutput(c)
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readContact(uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid contact ID: %w", err)
	}

	contact, ok := h.svc.CRM().Contact(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	deals := h.svc.CRM().DealsForContact(id)
	activities := h.svc.CRM().ActivitiesForContact(id)
	out := GetContactOutput{
		Contact:    contactToOutput(contact),
		Deals:      make([]DealOutput, len(deals)),
		Activities: make([]ActivityOutput, len(activities)),
	}
	for i, d := range deals {
		out.Deals[i] = dealToOutput(d)
	}
	for i, a := range activities {
		out.Activities[i] = activityToOutput(a)
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readAllDeals(uri string) (*mcp.ReadResourceResult, error) {
	deals := h.svc.CRM().Deals()
	out := make([]DealOutput, len(deals))
	for i, d := range deals {
		out[i] = dealToOutput(d)
	}
	return jsonResource(uri, out)
}

type pipelineStage struct {
	Count       int     `json:"count"`
	TotalQuoted float64 `json:"total_quoted"`
}

func (h *ResourceHandlers) readPipeline(uri string) (*mcp.ReadResourceResult, error) {
	// Group by status and calculate totals
	pipeline := make(map[string]pipelineStage)
	for _, deal := range h.svc.CRM().Deals() {
		status := deal.Status
		if status == "" {
			status = "unknown"
		}
		p := pipeline[status]
		p.Count++
		p.TotalQuoted += deal.QuotedPrice
		pipeline[status] = p
	}
	return jsonResource(uri, pipeline)
}

// Register adds every workly resource and template to server.
func (h *ResourceHandlers) Register(server *mcp.Server) {
	for _, r := range []*mcp.Resource{
		{URI: "workly://sessions/active", Name: "active-session", Description: "The running session with its visits", MIMEType: "application/json"},
		{URI: "workly://contacts", Name: "contacts", Description: "All CRM contacts", MIMEType: "application/json"},
		{URI: "workly://deals", Name: "deals", Description: "All CRM deals", MIMEType: "application/json"},
		{URI: "workly://pipeline", Name: "pipeline", Description: "Deal counts and quoted totals by status", MIMEType: "application/json"},
	} {
		server.AddResource(r, h.ReadResource)
	}

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "workly://sessions/{id}",
		Name:        "session",
		Description: "One session with its visits",
		MIMEType:    "application/json",
	}, h.ReadResource)
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "workly://contacts/{id}",
		Name:        "contact",
		Description: "One contact with deals and activity history",
		MIMEType:    "application/json",
	}, h.ReadResource)
}
