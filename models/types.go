// ABOUTME: Data models for field sessions, visits, and CRM entities
// ABOUTME: Defines the session variants, Visit, Contact, Deal, and Activity structs
package models

import (
	"time"

	"github.com/google/uuid"
)

// Point is one GPS sample on a session's path.
type Point struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionKind discriminates the two session variants.
type SessionKind string

const (
	KindVisit      SessionKind = "visit"
	KindCanvassing SessionKind = "canvassing"
)

// Session id prefixes by variant.
const (
	VisitSessionPrefix      = "V-"
	CanvassingSessionPrefix = "C-"
)

// BaseSession holds the fields shared by both session variants.
type BaseSession struct {
	SessionID   string     `json:"session_id"`
	Salesperson string     `json:"salesperson"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Duration    *string    `json:"duration"`
	MilesWalked float64    `json:"miles_walked"`
	Polyline    []Point    `json:"polyline"`
	Zipcodes    []string   `json:"zipcodes"`
	CreatedAt   time.Time  `json:"created_at"`
	Active      bool       `json:"active"`
	Synced      bool       `json:"synced"`
}

func (b BaseSession) clone() BaseSession {
	out := b
	out.Polyline = append([]Point{}, b.Polyline...)
	out.Zipcodes = append([]string{}, b.Zipcodes...)
	if b.EndTime != nil {
		t := *b.EndTime
		out.EndTime = &t
	}
	if b.Duration != nil {
		d := *b.Duration
		out.Duration = &d
	}
	return out
}

// VisitSession is door-to-door work with full outcome tracking.
type VisitSession struct {
	BaseSession
	SalesOutcomes       map[string]int `json:"sales_outcomes"`
	TotalVisits         int            `json:"total_visits"`
	OpportunityCount    int            `json:"opportunity_count"`
	OpportunityTotal    float64        `json:"opportunity_total"`
	EstimatedCommission float64        `json:"estimated_commission"`
}

// Clone returns a deep copy safe to hand outside the owning tracker.
func (s VisitSession) Clone() VisitSession {
	out := s
	out.BaseSession = s.BaseSession.clone()
	out.SalesOutcomes = make(map[string]int, len(s.SalesOutcomes))
	for k, v := range s.SalesOutcomes {
		out.SalesOutcomes[k] = v
	}
	return out
}

// CanvassingSession only counts door hangers.
type CanvassingSession struct {
	BaseSession
	DoorHangersPlaced int `json:"door_hangers_placed"`
}

// Clone returns a deep copy safe to hand outside the owning tracker.
func (s CanvassingSession) Clone() CanvassingSession {
	out := s
	out.BaseSession = s.BaseSession.clone()
	return out
}

// Session is a variant-tagged snapshot. Exactly one of Visit or Canvassing
// is set, matching Kind.
type Session struct {
	Kind       SessionKind        `json:"kind"`
	Visit      *VisitSession      `json:"visit,omitempty"`
	Canvassing *CanvassingSession `json:"canvassing,omitempty"`
}

// NewVisitVariant wraps a visit session.
func NewVisitVariant(s VisitSession) Session {
	c := s.Clone()
	return Session{Kind: KindVisit, Visit: &c}
}

// NewCanvassingVariant wraps a canvassing session.
func NewCanvassingVariant(s CanvassingSession) Session {
	c := s.Clone()
	return Session{Kind: KindCanvassing, Canvassing: &c}
}

// Base returns the shared fields of whichever variant is set.
func (s Session) Base() BaseSession {
	switch s.Kind {
	case KindVisit:
		if s.Visit != nil {
			return s.Visit.BaseSession
		}
	case KindCanvassing:
		if s.Canvassing != nil {
			return s.Canvassing.BaseSession
		}
	}
	return BaseSession{}
}

// PriceBreakdown is the output of the pricing engine attached to a visit.
type PriceBreakdown struct {
	DrivewayUndiscounted float64 `json:"driveway_undiscounted"`
	DrivewayQuoted       float64 `json:"driveway_quoted"`
	CrackUndiscounted    float64 `json:"crack_undiscounted"`
	CrackQuoted          float64 `json:"crack_quoted"`
	Asphalt              float64 `json:"asphalt"`
	TotalUndiscounted    float64 `json:"total_undiscounted"`
	TotalQuoted          float64 `json:"total_quoted"`
	TotalDiscount        float64 `json:"total_discount"`
}

// Visit is one logged customer interaction. Immutable once stored.
type Visit struct {
	ID            uuid.UUID `json:"id"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Street        string    `json:"street,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	Zip           string    `json:"zip,omitempty"`
	County        string    `json:"county,omitempty"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	SalesStatus   string    `json:"sales_status"`
	SessionID     string    `json:"session_id"`
	Salesperson   string    `json:"salesperson"`
	Sqft          float64   `json:"sqft,omitempty"`
	CrackFeet     float64   `json:"crack_feet,omitempty"`
	AsphaltRepair float64   `json:"asphalt_repair,omitempty"`
	PriceBreakdown
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Synced    bool      `json:"synced"`
}

type Contact struct {
	ID         uuid.UUID `json:"id"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Street     string    `json:"street,omitempty"`
	City       string    `json:"city,omitempty"`
	State      string    `json:"state,omitempty"`
	Zip        string    `json:"zip,omitempty"`
	County     string    `json:"county,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	LeadSource string    `json:"lead_source,omitempty"`
	LeadStatus string    `json:"lead_status,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a copy that shares no pointers with c.
func (c Contact) Clone() Contact {
	out := c
	out.Latitude = cloneFloat(c.Latitude)
	out.Longitude = cloneFloat(c.Longitude)
	return out
}

// Name joins first and last name.
func (c Contact) Name() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Deal struct {
	ID          uuid.UUID  `json:"id"`
	ContactID   uuid.UUID  `json:"contact_id"`
	VisitID     *uuid.UUID `json:"visit_id,omitempty"`
	SessionID   string     `json:"session_id,omitempty"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	QuotedPrice float64    `json:"quoted_price"`
	FinalPrice  *float64   `json:"final_price,omitempty"`
	QuoteDate   time.Time  `json:"quote_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Notes       string     `json:"notes,omitempty"`

	// Quote breakdown copied from the visit
	DrivewaySqft  float64 `json:"driveway_sqft,omitempty"`
	DrivewayPrice float64 `json:"driveway_price,omitempty"`
	CrackFeet     float64 `json:"crack_feet,omitempty"`
	CrackPrice    float64 `json:"crack_price,omitempty"`
	AsphaltSqft   float64 `json:"asphalt_sqft,omitempty"`
	AsphaltPrice  float64 `json:"asphalt_price,omitempty"`
}

// Clone returns a copy that shares no pointers with d.
func (d Deal) Clone() Deal {
	out := d
	out.VisitID = cloneUUID(d.VisitID)
	out.FinalPrice = cloneFloat(d.FinalPrice)
	return out
}

const (
	DealStatusOpen = "Open"
	DealStatusWon  = "Won"
	DealStatusLost = "Lost"
)

type Activity struct {
	ID           uuid.UUID              `json:"id"`
	ContactID    uuid.UUID              `json:"contact_id"`
	DealID       *uuid.UUID             `json:"deal_id,omitempty"`
	ActivityType string                 `json:"activity_type"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Timestamp    time.Time              `json:"timestamp"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// Clone returns a copy with its own metadata map. Metadata values are
// scalars, so a shallow map copy is enough.
func (a Activity) Clone() Activity {
	out := a
	out.DealID = cloneUUID(a.DealID)
	if a.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// ActivityType constants.
const (
	ActivityVisit       = "visit"
	ActivityDealCreated = "deal_created"
	ActivityNote        = "note"
	ActivityCall        = "call"
	ActivityEmail       = "email"
)

// LeadSourceDoorToDoor marks contacts created from a field visit.
const LeadSourceDoorToDoor = "door_to_door"
