// ABOUTME: MCP prompt handlers for reusable field sales workflow templates
// ABOUTME: Provides session debrief, contact follow-up, and pipeline review prompts
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/workly/fieldwork"
	"github.com/harperreed/workly/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	svc *fieldwork.Service
}

func NewPromptHandlers(svc *fieldwork.Service) *PromptHandlers {
	return &PromptHandlers{svc: svc}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(_ context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "session-debrief":
		return h.getSessionDebriefPrompt(arguments)
	case "contact-follow-up":
		return h.getContactFollowUpPrompt(arguments)
	case "pipeline-review":
		return h.getPipelineReviewPrompt()
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

// Register adds every workly prompt to server.
func (h *PromptHandlers) Register(server *mcp.Server) {
	server.AddPrompt(&mcp.Prompt{
		Name:        "session-debrief",
		Description: "Review a session's route, visits, and outcomes",
		Arguments: []*mcp.PromptArgument{
			{Name: "session_id", Description: "Session to review (defaults to the active session)"},
		},
	}, h.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "contact-follow-up",
		Description: "Plan the next touch with a contact met in the field",
		Arguments: []*mcp.PromptArgument{
			{Name: "contact_id", Description: "Contact ID", Required: true},
		},
	}, h.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "pipeline-review",
		Description: "Analyze open driveway quotes",
	}, h.GetPrompt)
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) getSessionDebriefPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	sessionID := args["session_id"]
	if sessionID == "" {
		active, ok := h.svc.Tracker().ActiveSession()
		if !ok {
			return nil, fmt.Errorf("session_id is required when no session is active")
		}
		sessionID = active.Base().SessionID
	}

	s, ok := h.svc.Tracker().SessionByID(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	b := s.Base()

	var promptText strings.Builder
	fmt.Fprintf(&promptText, "Please debrief this %s session:\n\n", s.Kind)
	fmt.Fprintf(&promptText, "Session: %s\n", b.SessionID)
	fmt.Fprintf(&promptText, "Salesperson: %s\n", b.Salesperson)
	fmt.Fprintf(&promptText, "Started: %s\n", b.StartTime.Format("2006-01-02 15:04"))
	if b.Duration != nil {
		fmt.Fprintf(&promptText, "Duration: %s\n", *b.Duration)
	}
	fmt.Fprintf(&promptText, "Miles Walked: %.2f\n", b.MilesWalked)

	switch {
	case s.Visit != nil:
		fmt.Fprintf(&promptText, "Total Visits: %d\n", s.Visit.TotalVisits)
		fmt.Fprintf(&promptText, "Opportunities: %d ($%.2f quoted)\n", s.Visit.OpportunityCount, s.Visit.OpportunityTotal)
		fmt.Fprintf(&promptText, "Estimated Commission: $%.2f\n", s.Visit.EstimatedCommission)
		if len(s.Visit.SalesOutcomes) > 0 {
			promptText.WriteString("\nOutcomes:\n")
			statuses := make([]string, 0, len(s.Visit.SalesOutcomes))
			for status := range s.Visit.SalesOutcomes {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)
			for _, status := range statuses {
				fmt.Fprintf(&promptText, "  - %s: %d\n", status, s.Visit.SalesOutcomes[status])
			}
		}
	case s.Canvassing != nil:
		fmt.Fprintf(&promptText, "Door Hangers Placed: %d\n", s.Canvassing.DoorHangersPlaced)
	}

	visits := h.svc.Visits().ForSession(sessionID)
	if len(visits) > 0 {
		promptText.WriteString("\nVisits:\n")
		for _, v := range visits {
			fmt.Fprintf(&promptText, "  - %s %s: %s", v.CreatedAt.Format("15:04"), v.Street, v.SalesStatus)
			if v.TotalQuoted > 0 {
				fmt.Fprintf(&promptText, " ($%.2f)", v.TotalQuoted)
			}
			promptText.WriteString("\n")
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. How productive this session was")
	promptText.WriteString("\n2. Which addresses deserve a return visit")
	promptText.WriteString("\n3. Suggestions for the next route")

	return userPrompt(fmt.Sprintf("Debrief for session %s", sessionID), promptText.String()), nil
}

func (h *PromptHandlers) getContactFollowUpPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	contactIDStr, ok := args["contact_id"]
	if !ok {
		return nil, fmt.Errorf("contact_id is required")
	}

	contactID, err := uuid.Parse(contactIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid contact_id: %w", err)
	}

	contact, ok := h.svc.CRM().Contact(contactID)
	if !ok {
		return nil, fmt.Errorf("contact not found: %s", contactIDStr)
	}

	var promptText strings.Builder
	promptText.WriteString("Please plan a follow-up with this homeowner:\n\n")
	fmt.Fprintf(&promptText, "Name: %s\n", contact.Name())
	if contact.Street != "" {
		fmt.Fprintf(&promptText, "Address: %s, %s, %s %s\n", contact.Street, contact.City, contact.State, contact.Zip)
	}
	if contact.Email != "" {
		fmt.Fprintf(&promptText, "Email: %s\n", contact.Email)
	}
	if contact.Phone != "" {
		fmt.Fprintf(&promptText, "Phone: %s\n", contact.Phone)
	}
	if contact.LeadStatus != "" {
		fmt.Fprintf(&promptText, "Lead Status: %s\n", contact.LeadStatus)
	}

	deals := h.svc.CRM().DealsForContact(contactID)
	if len(deals) > 0 {
		promptText.WriteString("\nQuotes:\n")
		for _, d := range deals {
			fmt.Fprintf(&promptText, "  - %s: $%.2f (%s, %s)\n", d.Title, d.QuotedPrice, d.Status, d.QuoteDate.Format("2006-01-02"))
		}
	}

	activities := h.svc.CRM().ActivitiesForContact(contactID)
	if len(activities) > 0 {
		promptText.WriteString("\nHistory:\n")
		for _, a := range activities {
			fmt.Fprintf(&promptText, "  - %s %s\n", a.Timestamp.Format("2006-01-02"), a.Title)
		}
	}

	if contact.Notes != "" {
		fmt.Fprintf(&promptText, "\nNotes: %s\n", contact.Notes)
	}

	promptText.WriteString("\nPlease suggest:")
	promptText.WriteString("\n1. When and how to reach out")
	promptText.WriteString("\n2. Talking points based on the quote and notes")

	return userPrompt(fmt.Sprintf("Follow-up plan for %s", contact.Name()), promptText.String()), nil
}

func (h *PromptHandlers) getPipelineReviewPrompt() (*mcp.GetPromptResult, error) {
	deals := h.svc.CRM().Deals()

	var open []models.Deal
	var totalOpen float64
	for _, d := range deals {
		if d.Status == models.DealStatusOpen {
			open = append(open, d)
			totalOpen += d.QuotedPrice
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].QuotedPrice > open[j].QuotedPrice })

	var promptText strings.Builder
	promptText.WriteString("Please review the open driveway quote pipeline:\n\n")
	fmt.Fprintf(&promptText, "Total Deals: %d\n", len(deals))
	fmt.Fprintf(&promptText, "Open Deals: %d\n", len(open))
	fmt.Fprintf(&promptText, "Open Value: $%.2f\n", totalOpen)

	if len(open) > 0 {
		promptText.WriteString("\nOpen Quotes:\n")
		for _, d := range open {
			name := "Unknown"
			if c, ok := h.svc.CRM().Contact(d.ContactID); ok && c.Name() != "" {
				name = c.Name()
			}
			fmt.Fprintf(&promptText, "  - %s (%s): $%.2f quoted %s\n", d.Title, name, d.QuotedPrice, d.QuoteDate.Format("2006-01-02"))
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Which quotes are most likely to close")
	promptText.WriteString("\n2. Quotes that are going stale and need a call")

	return userPrompt("Pipeline review", promptText.String()), nil
}
