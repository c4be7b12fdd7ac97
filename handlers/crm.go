// ABOUTME: CRM MCP tool handlers
// ABOUTME: Read-side tools over contacts, deals, and activities created from visits
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/workly/crm"
	"github.com/harperreed/workly/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CRMHandlers struct {
	crm *crm.Resolver
}

func NewCRMHandlers(resolver *crm.Resolver) *CRMHandlers {
	return &CRMHandlers{crm: resolver}
}

type FindContactsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search name, email, phone, or street (case-insensitive)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
	Count    int             `json:"count"`
}

func (h *CRMHandlers) FindContacts(_ context.Context, _ *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 10
	}

	contacts := searchContacts(h.crm.Contacts(), input.Query)
	if len(contacts) > input.Limit {
		contacts = contacts[:input.Limit]
	}

	out := FindContactsOutput{Contacts: make([]ContactOutput, len(contacts)), Count: len(contacts)}
	for i, c := range contacts {
		out.Contacts[i] = contactToOutput(c)
	}
	return nil, out, nil
}

func searchContacts(contacts []models.Contact, query string) []models.Contact {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return contacts
	}

	var matched []models.Contact
	for _, c := range contacts {
		for _, field := range []string{c.Name(), c.Email, c.Phone, c.Street} {
			if field != "" && strings.Contains(strings.ToLower(field), query) {
				matched = append(matched, c)
				break
			}
		}
	}
	return matched
}

type GetContactInput struct {
	ContactID string `json:"contact_id" jsonschema:"Contact ID (required)"`
}

type GetContactOutput struct {
	Contact    ContactOutput    `json:"contact"`
	Deals      []DealOutput     `json:"deals"`
	Activities []ActivityOutput `json:"activities"`
}

func (h *CRMHandlers) GetContact(_ context.Context, _ *mcp.CallToolRequest, input GetContactInput) (*mcp.CallToolResult, GetContactOutput, error) {
	id, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, GetContactOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}

	contact, ok := h.crm.Contact(id)
	if !ok {
		return nil, GetContactOutput{}, fmt.Errorf("contact not found: %s", input.ContactID)
	}

	deals := h.crm.DealsForContact(id)
	activities := h.crm.ActivitiesForContact(id)
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
	return nil, out, nil
}

type ListDealsInput struct {
	ContactID string `json:"contact_id,omitempty" jsonschema:"Only deals for this contact"`
	Status    string `json:"status,omitempty" jsonschema:"Only deals with this status (Open, Won, Lost)"`
}

type ListDealsOutput struct {
	Deals       []DealOutput `json:"deals"`
	Count       int          `json:"count"`
	TotalQuoted float64      `json:"total_quoted"`
}

func (h *CRMHandlers) ListDeals(_ context.Context, _ *mcp.CallToolRequest, input ListDealsInput) (*mcp.CallToolResult, ListDealsOutput, error) {
	var deals []models.Deal
	if input.ContactID != "" {
		id, err := uuid.Parse(input.ContactID)
		if err != nil {
			return nil, ListDealsOutput{}, fmt.Errorf("invalid contact_id: %w", err)
		}
		deals = h.crm.DealsForContact(id)
	} else {
		deals = h.crm.Deals()
	}

	out := ListDealsOutput{Deals: []DealOutput{}}
	for _, d := range deals {
		if input.Status != "" && !strings.EqualFold(d.Status, input.Status) {
			continue
		}
		out.Deals = append(out.Deals, dealToOutput(d))
		out.TotalQuoted += d.QuotedPrice
	}
	out.Count = len(out.Deals)
	return nil, out, nil
}
