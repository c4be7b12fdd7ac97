// ABOUTME: Promotes logged visits into contacts, deals, and activity history
// ABOUTME: Owns the contact, deal, and activity collections and their persistence
package crm

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/workly/models"
	"github.com/harperreed/workly/store"
	"go.uber.org/zap"
)

// Resolver is not idempotent: call each operation once per logged visit.
type Resolver struct {
	mu     sync.Mutex
	kv     store.KV
	logger *zap.Logger
	now    func() time.Time

	contacts   []models.Contact
	deals      []models.Deal
	activities []models.Activity
}

type Option func(*Resolver)

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func NewResolver(kv store.KV, opts ...Option) *Resolver {
	r := &Resolver{
		kv:     kv,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	store.LoadJSON(r.kv, store.KeyContacts, &r.contacts, r.logger)
	store.LoadJSON(r.kv, store.KeyDeals, &r.deals, r.logger)
	store.LoadJSON(r.kv, store.KeyActivities, &r.activities, r.logger)
	return r
}

func (r *Resolver) save() {
	if r.kv == nil {
		return
	}
	if err := store.SaveJSON(r.kv, store.KeyContacts, r.contacts); err != nil {
		r.logger.Warn("failed to persist contacts", zap.Error(err))
	}
	if err := store.SaveJSON(r.kv, store.KeyDeals, r.deals); err != nil {
		r.logger.Warn("failed to persist deals", zap.Error(err))
	}
	if err := store.SaveJSON(r.kv, store.KeyActivities, r.activities); err != nil {
		r.logger.Warn("failed to persist activities", zap.Error(err))
	}
}

func (r *Resolver) addActivity(a models.Activity) {
	a.ID = uuid.New()
	r.activities = append(r.activities, a)
}

func visitMetadata(v models.Visit) map[string]interface{} {
	return map[string]interface{}{
		"visitId":   v.ID.String(),
		"sessionId": v.SessionID,
	}
}

// UpsertContactFromVisit matches v to an existing contact (email, then phone,
// then street/city/state/zip) and refreshes it, or creates a new contact.
// Either way a visit activity is recorded. Returns the contact id.
func (r *Resolver) UpsertContactFromVisit(v models.Visit) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	timestamp := v.CreatedAt
	if timestamp.IsZero() {
		timestamp = now
	}

	if i := findMatch(r.contacts, v); i >= 0 {
		c := &r.contacts[i]
		c.FirstName = firstNonEmpty(v.FirstName, c.FirstName)
		c.LastName = firstNonEmpty(v.LastName, c.LastName)
		c.Email = firstNonEmpty(v.Email, c.Email)
		c.Phone = firstNonEmpty(v.Phone, c.Phone)
		c.LeadStatus = firstNonEmpty(v.SalesStatus, c.LeadStatus)
		c.Notes = firstNonEmpty(v.Notes, c.Notes)
		c.UpdatedAt = now

		r.addActivity(models.Activity{
			ContactID:    c.ID,
			ActivityType: models.ActivityVisit,
			Title:        fmt.Sprintf("New Visit: %s", v.SalesStatus),
			Description:  fmt.Sprintf("A new visit was logged for this contact at %s. Quote: $%s", v.Street, formatMoney(v.TotalQuoted)),
			Timestamp:    timestamp,
			Metadata:     visitMetadata(v),
		})
		r.save()

		r.logger.Info("visit matched existing contact",
			zap.String("contact_id", c.ID.String()),
			zap.String("visit_id", v.ID.String()))
		return c.ID
	}

	notes := v.Notes
	if notes == "" {
		notes = "N/A"
	}
	c := models.Contact{
		ID:         uuid.New(),
		FirstName:  v.FirstName,
		LastName:   v.LastName,
		Email:      v.Email,
		Phone:      v.Phone,
		Street:     v.Street,
		City:       v.City,
		State:      v.State,
		Zip:        v.Zip,
		County:     v.County,
		Latitude:   v.Latitude,
		Longitude:  v.Longitude,
		LeadSource: models.LeadSourceDoorToDoor,
		LeadStatus: v.SalesStatus,
		Notes:      fmt.Sprintf("Contact created from visit on %s. Notes: %s", timestamp.Format("2006-01-02"), notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	// The visit's coordinate pointers stay with the caller.
	c = c.Clone()
	r.contacts = append(r.contacts, c)

	r.addActivity(models.Activity{
		ContactID:    c.ID,
		ActivityType: models.ActivityVisit,
		Title:        fmt.Sprintf("Initial Visit: %s", v.SalesStatus),
		Description:  fmt.Sprintf("Contact created from initial visit at %s. Quote: $%s", v.Street, formatMoney(v.TotalQuoted)),
		Timestamp:    timestamp,
		Metadata:     visitMetadata(v),
	})
	r.save()

	r.logger.Info("contact created from visit",
		zap.String("contact_id", c.ID.String()),
		zap.String("visit_id", v.ID.String()))
	return c.ID
}

// CreateDealForVisit opens a deal when v is an Opportunity with a positive
// quote. Otherwise it returns nil and records nothing.
func (r *Resolver) CreateDealForVisit(v models.Visit, contactID uuid.UUID) *models.Deal {
	if !models.IsOpportunity(v.SalesStatus) || !(v.TotalQuoted > 0) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	quoteDate := v.CreatedAt
	if quoteDate.IsZero() {
		quoteDate = now
	}

	d := models.Deal{
		ID:            uuid.New(),
		ContactID:     contactID,
		SessionID:     v.SessionID,
		Title:         fmt.Sprintf("Driveway Quote - %s", v.Street),
		Status:        models.DealStatusOpen,
		QuotedPrice:   v.TotalQuoted,
		QuoteDate:     quoteDate,
		CreatedAt:     now,
		UpdatedAt:     now,
		Notes:         v.Notes,
		DrivewaySqft:  v.Sqft,
		DrivewayPrice: v.DrivewayQuoted,
		CrackFeet:     v.CrackFeet,
		CrackPrice:    v.CrackQuoted,
		AsphaltSqft:   v.AsphaltRepair,
		AsphaltPrice:  v.Asphalt,
	}
	if v.ID != uuid.Nil {
		visitID := v.ID
		d.VisitID = &visitID
	}
	r.deals = append(r.deals, d)

	dealID := d.ID
	r.addActivity(models.Activity{
		ContactID:    contactID,
		DealID:       &dealID,
		ActivityType: models.ActivityDealCreated,
		Title:        "Deal Created from Visit",
		Description:  fmt.Sprintf("An opportunity was identified and a deal was created with a quote of $%s.", formatMoney(d.QuotedPrice)),
		Timestamp:    now,
		Metadata: map[string]interface{}{
			"visitId":     v.ID.String(),
			"autoCreated": true,
		},
	})
	r.save()

	r.logger.Info("deal created from visit",
		zap.String("deal_id", d.ID.String()),
		zap.String("contact_id", contactID.String()),
		zap.Float64("quoted_price", d.QuotedPrice))
	out := d.Clone()
	return &out
}

func (r *Resolver) Contacts() []models.Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Contact, len(r.contacts))
	for i, c := range r.contacts {
		out[i] = c.Clone()
	}
	return out
}

func (r *Resolver) Contact(id uuid.UUID) (models.Contact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contacts {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return models.Contact{}, false
}

func (r *Resolver) Deals() []models.Deal {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Deal, len(r.deals))
	for i, d := range r.deals {
		out[i] = d.Clone()
	}
	return out
}

func (r *Resolver) Deal(id uuid.UUID) (models.Deal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deals {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return models.Deal{}, false
}

func (r *Resolver) DealsForContact(contactID uuid.UUID) []models.Deal {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Deal
	for _, d := range r.deals {
		if d.ContactID == contactID {
			out = append(out, d.Clone())
		}
	}
	return out
}

// ActivitiesForContact returns the contact's timeline, newest first.
func (r *Resolver) ActivitiesForContact(contactID uuid.UUID) []models.Activity {
	return r.filterActivities(func(a models.Activity) bool {
		return a.ContactID == contactID
	})
}

// ActivitiesForDeal returns the deal's timeline, newest first.
func (r *Resolver) ActivitiesForDeal(dealID uuid.UUID) []models.Activity {
	return r.filterActivities(func(a models.Activity) bool {
		return a.DealID != nil && *a.DealID == dealID
	})
}

func (r *Resolver) filterActivities(keep func(models.Activity) bool) []models.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Activity
	for _, a := range r.activities {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func firstNonEmpty(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}

// formatMoney drops the cents when the amount is whole.
func formatMoney(amount float64) string {
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("%d", int64(amount))
	}
	return fmt.Sprintf("%.2f", amount)
}
