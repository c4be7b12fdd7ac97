// ABOUTME: JSON output shapes for MCP tools and resources
// ABOUTME: Converts domain models into flat structs with string ids and timestamps
package handlers

import (
	"time"

	"github.com/harperreed/workly/models"
)

type SessionOutput struct {
	SessionID           string         `json:"session_id"`
	Kind                string         `json:"kind"`
	Salesperson         string         `json:"salesperson"`
	StartTime           string         `json:"start_time"`
	EndTime             string         `json:"end_time,omitempty"`
	Duration            string         `json:"duration,omitempty"`
	Active              bool           `json:"active"`
	MilesWalked         float64        `json:"miles_walked"`
	Points              int            `json:"points"`
	TotalVisits         int            `json:"total_visits,omitempty"`
	SalesOutcomes       map[string]int `json:"sales_outcomes,omitempty"`
	OpportunityCount    int            `json:"opportunity_count,omitempty"`
	OpportunityTotal    float64        `json:"opportunity_total,omitempty"`
	EstimatedCommission float64        `json:"estimated_commission,omitempty"`
	DoorHangersPlaced   int            `json:"door_hangers_placed,omitempty"`
}

type PriceOutput struct {
	DrivewayUndiscounted float64 `json:"driveway_undiscounted"`
	DrivewayQuoted       float64 `json:"driveway_quoted"`
	CrackUndiscounted    float64 `json:"crack_undiscounted"`
	CrackQuoted          float64 `json:"crack_quoted"`
	Asphalt              float64 `json:"asphalt"`
	TotalUndiscounted    float64 `json:"total_undiscounted"`
	TotalQuoted          float64 `json:"total_quoted"`
	TotalDiscount        float64 `json:"total_discount"`
}

type VisitOutput struct {
	ID            string      `json:"id"`
	SessionID     string      `json:"session_id"`
	Salesperson   string      `json:"salesperson"`
	SalesStatus   string      `json:"sales_status"`
	Name          string      `json:"name,omitempty"`
	Email         string      `json:"email,omitempty"`
	Phone         string      `json:"phone,omitempty"`
	Street        string      `json:"street,omitempty"`
	City          string      `json:"city,omitempty"`
	State         string      `json:"state,omitempty"`
	Zip           string      `json:"zip,omitempty"`
	County        string      `json:"county,omitempty"`
	Latitude      *float64    `json:"latitude,omitempty"`
	Longitude     *float64    `json:"longitude,omitempty"`
	Sqft          float64     `json:"sqft,omitempty"`
	CrackFeet     float64     `json:"crack_feet,omitempty"`
	AsphaltRepair float64     `json:"asphalt_repair,omitempty"`
	Pricing       PriceOutput `json:"pricing"`
	Notes         string      `json:"notes,omitempty"`
	CreatedAt     string      `json:"created_at"`
}

type ContactOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Zip        string `json:"zip,omitempty"`
	LeadSource string `json:"lead_source,omitempty"`
	LeadStatus string `json:"lead_status,omitempty"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type DealOutput struct {
	ID          string  `json:"id"`
	ContactID   string  `json:"contact_id"`
	VisitID     string  `json:"visit_id,omitempty"`
	SessionID   string  `json:"session_id,omitempty"`
	Title       string  `json:"title"`
	Status      string  `json:"status"`
	QuotedPrice float64 `json:"quoted_price"`
	QuoteDate   string  `json:"quote_date"`
	CreatedAt   string  `json:"created_at"`
}

type ActivityOutput struct {
	ID           string                 `json:"id"`
	ContactID    string                 `json:"contact_id"`
	DealID       string                 `json:"deal_id,omitempty"`
	ActivityType string                 `json:"activity_type"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Timestamp    string                 `json:"timestamp"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func sessionToOutput(s models.Session) SessionOutput {
	b := s.Base()
	out := SessionOutput{
		SessionID:   b.SessionID,
		Kind:        string(s.Kind),
		Salesperson: b.Salesperson,
		StartTime:   formatTime(b.StartTime),
		Active:      b.Active,
		MilesWalked: b.MilesWalked,
		Points:      len(b.Polyline),
	}
	if b.EndTime != nil {
		out.EndTime = formatTime(*b.EndTime)
	}
	if b.Duration != nil {
		out.Duration = *b.Duration
	}
	switch {
	case s.Visit != nil:
		out.TotalVisits = s.Visit.TotalVisits
		out.SalesOutcomes = s.Visit.SalesOutcomes
		out.OpportunityCount = s.Visit.OpportunityCount
		out.OpportunityTotal = s.Visit.OpportunityTotal
		out.EstimatedCommission = s.Visit.EstimatedCommission
	case s.Canvassing != nil:
		out.DoorHangersPlaced = s.Canvassing.DoorHangersPlaced
	}
	return out
}

func priceToOutput(p models.PriceBreakdown) PriceOutput {
	return PriceOutput(p)
}

func visitToOutput(v models.Visit) VisitOutput {
	return VisitOutput{
		ID:            v.ID.String(),
		SessionID:     v.SessionID,
		Salesperson:   v.Salesperson,
		SalesStatus:   v.SalesStatus,
		Name:          models.Contact{FirstName: v.FirstName, LastName: v.LastName}.Name(),
		Email:         v.Email,
		Phone:         v.Phone,
		Street:        v.Street,
		City:          v.City,
		State:         v.State,
		Zip:           v.Zip,
		County:        v.County,
		Latitude:      v.Latitude,
		Longitude:     v.Longitude,
		Sqft:          v.Sqft,
		CrackFeet:     v.CrackFeet,
		AsphaltRepair: v.AsphaltRepair,
		Pricing:       priceToOutput(v.PriceBreakdown),
		Notes:         v.Notes,
		CreatedAt:     formatTime(v.CreatedAt),
	}
}

func contactToOutput(c models.Contact) ContactOutput {
	return ContactOutput{
		ID:         c.ID.String(),
		Name:       c.Name(),
		Email:      c.Email,
		Phone:      c.Phone,
		Street:     c.Street,
		City:       c.City,
		State:      c.State,
		Zip:        c.Zip,
		LeadSource: c.LeadSource,
		LeadStatus: c.LeadStatus,
		Notes:      c.Notes,
		CreatedAt:  formatTime(c.CreatedAt),
		UpdatedAt:  formatTime(c.UpdatedAt),
	}
}

func dealToOutput(d models.Deal) DealOutput {
	out := DealOutput{
		ID:          d.ID.String(),
		ContactID:   d.ContactID.String(),
		SessionID:   d.SessionID,
		Title:       d.Title,
		Status:      d.Status,
		QuotedPrice: d.QuotedPrice,
		QuoteDate:   formatTime(d.QuoteDate),
		CreatedAt:   formatTime(d.CreatedAt),
	}
	if d.VisitID != nil {
		out.VisitID = d.VisitID.String()
	}
	return out
}

func activityToOutput(a models.Activity) ActivityOutput {
	out := ActivityOutput{
		ID:           a.ID.String(),
		ContactID:    a.ContactID.String(),
		ActivityType: a.ActivityType,
		Title:        a.Title,
		Description:  a.Description,
		Timestamp:    formatTime(a.Timestamp),
		Metadata:     a.Metadata,
	}
	if a.DealID != nil {
		out.DealID = a.DealID.String()
	}
	return out
}
