// ABOUTME: Orchestrates a salesperson's working day across sessions, visits, and CRM
// ABOUTME: Swaps location subscriptions with sessions and forwards each visit to the CRM
package fieldwork

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/harperreed/workly/crm"
	"github.com/harperreed/workly/geocode"
	"github.com/harperreed/workly/location"
	"github.com/harperreed/workly/models"
	"github.com/harperreed/workly/pricing"
	"github.com/harperreed/workly/session"
	"github.com/harperreed/workly/visit"
	"go.uber.org/zap"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrInvalidVisit    = errors.New("invalid visit")
	ErrNoPosition      = errors.New("current position unknown")
)

// VisitInput is what a salesperson enters for one customer interaction.
// Measurements that are missing or negative price as zero.
type VisitInput struct {
	FirstName     string   `json:"first_name,omitempty"`
	LastName      string   `json:"last_name,omitempty"`
	Email         string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string   `json:"phone,omitempty"`
	Street        string   `json:"street,omitempty"`
	City          string   `json:"city,omitempty"`
	State         string   `json:"state,omitempty"`
	Zip           string   `json:"zip,omitempty"`
	County        string   `json:"county,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	SalesStatus   string   `json:"sales_status,omitempty" validate:"omitempty,sales_status"`
	Sqft          float64  `json:"sqft,omitempty"`
	CrackFeet     float64  `json:"crack_feet,omitempty"`
	AsphaltRepair float64  `json:"asphalt_repair,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// VisitResult reports everything LogVisit touched.
type VisitResult struct {
	Visit     models.Visit        `json:"visit"`
	Session   models.VisitSession `json:"session"`
	ContactID uuid.UUID           `json:"contact_id"`
	Deal      *models.Deal        `json:"deal,omitempty"`
	Converted bool                `json:"converted"`
	Started   bool                `json:"started"`
}

// Status is a point-in-time view of the working day.
type Status struct {
	Session  *models.Session  `json:"session,omitempty"`
	Elapsed  string           `json:"elapsed"`
	Position *location.Sample `json:"position,omitempty"`
	Tracking bool             `json:"tracking"`
}

type Service struct {
	tracker  *session.Tracker
	visits   *visit.Store
	crm      *crm.Resolver
	geocoder geocode.Geocoder
	source   location.Source
	watcher  *location.Watcher
	logger   *zap.Logger
	now      func() time.Time
	validate *validator.Validate

	mu       sync.Mutex
	position *location.Sample
	lastErr  error
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGeocoder fills in visit addresses from coordinates.
func WithGeocoder(g geocode.Geocoder) Option {
	return func(s *Service) {
		s.geocoder = g
	}
}

// WithLocationSource subscribes to src while a session is running.
func WithLocationSource(src location.Source) Option {
	return func(s *Service) {
		s.source = src
	}
}

func NewService(tracker *session.Tracker, visits *visit.Store, resolver *crm.Resolver, opts ...Option) *Service {
	s := &Service{
		tracker:  tracker,
		visits:   visits,
		crm:      resolver,
		logger:   zap.NewNop(),
		now:      time.Now,
		validate: mustValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source != nil {
		s.watcher = location.NewWatcher(s.source, s.logger)
	}
	return s
}

func (s *Service) Tracker() *session.Tracker { return s.tracker }
func (s *Service) Visits() *visit.Store      { return s.visits }
func (s *Service) CRM() *crm.Resolver        { return s.crm }

// StartVisitSession starts (or returns the running) visit session and
// restarts location tracking for it.
func (s *Service) StartVisitSession(ctx context.Context, salesperson string) models.VisitSession {
	s.stopTracking()
	vs := s.tracker.StartVisitSession(salesperson)
	s.startTracking(ctx)
	return vs
}

// StartCanvassingSession mirrors StartVisitSession for canvassing.
func (s *Service) StartCanvassingSession(ctx context.Context, salesperson string) models.CanvassingSession {
	s.stopTracking()
	cs := s.tracker.StartCanvassingSession(salesperson)
	s.startTracking(ctx)
	return cs
}

// ConvertToVisitSession turns the running canvassing session into a visit
// session. Location tracking carries on under the same session id.
func (s *Service) ConvertToVisitSession() (models.VisitSession, bool) {
	return s.tracker.ConvertActiveCanvassingToVisitSession()
}

// EndSession stops location tracking, then closes the active session.
func (s *Service) EndSession() (models.Session, bool) {
	s.stopTracking()
	return s.tracker.EndSession()
}

// ResumeTracking restarts the location subscription for a session that was
// left running by a previous process.
func (s *Service) ResumeTracking(ctx context.Context) bool {
	if !s.tracker.HasActiveSession() {
		return false
	}
	s.stopTracking()
	s.startTracking(ctx)
	return s.watcher != nil
}

// StopTracking ends the location subscription and leaves the session running.
func (s *Service) StopTracking() {
	s.stopTracking()
}

// TrackingDone is closed when the location source runs dry.
func (s *Service) TrackingDone() <-chan struct{} {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Done()
}

func (s *Service) startTracking(ctx context.Context) {
	if s.watcher == nil {
		return
	}
	// The subscription outlives the call that started it and ends with the session.
	s.watcher.Start(context.WithoutCancel(ctx), s.HandleSample, s.handleLocationError)
}

func (s *Service) stopTracking() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

// HandleSample records a location reading as the current position and as
// the next point on the active session's path.
func (s *Service) HandleSample(sample location.Sample) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.now()
	}

	s.mu.Lock()
	pos := sample
	s.position = &pos
	s.lastErr = nil
	s.mu.Unlock()

	s.tracker.AddPoint(models.Point{Lat: sample.Lat, Lng: sample.Lng, Timestamp: sample.Timestamp})
}

// SetPosition is HandleSample for a manually entered reading.
func (s *Service) SetPosition(lat, lng float64) {
	s.HandleSample(location.Sample{Lat: lat, Lng: lng, Timestamp: s.now()})
}

func (s *Service) handleLocationError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Position returns the most recent location reading.
func (s *Service) Position() (location.Sample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.position == nil {
		return location.Sample{}, false
	}
	return *s.position, true
}

// LocationError is the last error from the location source since the last
// good sample.
func (s *Service) LocationError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Quote prices a job without recording anything.
func (s *Service) Quote(sqft, crackFeet, asphaltSqft float64) models.PriceBreakdown {
	return pricing.CalculateAll(sqft, crackFeet, asphaltSqft)
}

// Elapsed is the live HH:MM:SS of the active session.
func (s *Service) Elapsed() string {
	return s.tracker.Elapsed()
}

func (s *Service) Status() Status {
	st := Status{Elapsed: s.tracker.Elapsed()}
	if active, ok := s.tracker.ActiveSession(); ok {
		st.Session = &active
	}
	if pos, ok := s.Position(); ok {
		st.Position = &pos
	}
	if s.watcher != nil {
		st.Tracking = s.watcher.Running()
	}
	return st
}

// LogVisit records one customer interaction. A running canvassing session
// is converted to a visit session first; with nothing running a visit
// session is started for salesperson. The visit is priced, stored, counted,
// and forwarded to the CRM.
func (s *Service) LogVisit(ctx context.Context, salesperson string, in VisitInput) (VisitResult, error) {
	var result VisitResult
	if err := s.validate.Struct(in); err != nil {
		return result, fmt.Errorf("%w: %v", ErrInvalidVisit, err)
	}
	if status, ok := models.CanonicalStatus(in.SalesStatus); ok {
		in.SalesStatus = status
	}

	active, ok := s.tracker.ActiveSession()
	switch {
	case !ok:
		s.StartVisitSession(ctx, salesperson)
		result.Started = true
	case active.Kind == models.KindCanvassing:
		if _, converted := s.tracker.ConvertActiveCanvassingToVisitSession(); !converted {
			return result, ErrNoActiveSession
		}
		result.Converted = true
	}

	active, ok = s.tracker.ActiveSession()
	if !ok || active.Visit == nil {
		return result, ErrNoActiveSession
	}
	vs := active.Visit

	v := models.Visit{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Street:         in.Street,
		City:           in.City,
		State:          in.State,
		Zip:            in.Zip,
		County:         in.County,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		SalesStatus:    in.SalesStatus,
		SessionID:      vs.SessionID,
		Salesperson:    vs.Salesperson,
		Sqft:           pricing.Coerce(in.Sqft),
		CrackFeet:      pricing.Coerce(in.CrackFeet),
		AsphaltRepair:  pricing.Coerce(in.AsphaltRepair),
		PriceBreakdown: pricing.CalculateAll(in.Sqft, in.CrackFeet, in.AsphaltRepair),
		Notes:          in.Notes,
		CreatedAt:      s.now(),
	}
	s.fillLocation(ctx, &v)

	v = s.visits.Add(v)
	s.tracker.UpdateStatsForNewVisit(v)
	result.Visit = v
	result.ContactID = s.crm.UpsertContactFromVisit(v)
	result.Deal = s.crm.CreateDealForVisit(v, result.ContactID)

	if updated, ok := s.tracker.SessionByID(v.SessionID); ok && updated.Visit != nil {
		result.Session = *updated.Visit
	}

	s.logger.Info("visit logged",
		zap.String("visit_id", v.ID.String()),
		zap.String("session_id", v.SessionID),
		zap.String("status", v.SalesStatus),
		zap.Float64("total_quoted", v.TotalQuoted),
		zap.Bool("deal_created", result.Deal != nil))
	return result, nil
}

// fillLocation defaults the coordinates to the current position and, when
// no street was entered, fills blank address fields from the geocoder.
func (s *Service) fillLocation(ctx context.Context, v *models.Visit) {
	if v.Latitude == nil || v.Longitude == nil {
		if pos, ok := s.Position(); ok {
			lat, lng := pos.Lat, pos.Lng
			v.Latitude, v.Longitude = &lat, &lng
		}
	}
	if v.Street != "" || s.geocoder == nil || v.Latitude == nil || v.Longitude == nil {
		return
	}

	addr, err := s.geocoder.ReverseGeocode(ctx, *v.Latitude, *v.Longitude)
	if err != nil {
		s.logger.Warn("reverse geocoding failed", zap.Error(err))
		return
	}
	v.Street = addr.Street
	v.City = firstNonEmpty(v.City, addr.City)
	v.State = firstNonEmpty(v.State, addr.State)
	v.Zip = firstNonEmpty(v.Zip, addr.Zip)
	v.County = firstNonEmpty(v.County, addr.County)
}

// PlaceDoorHanger records a "Left Door Hanger" visit at the current position
// and counts it on the running canvassing session. Door hangers do not
// reach the CRM.
func (s *Service) PlaceDoorHanger(ctx context.Context) (models.Visit, error) {
	active, ok := s.tracker.ActiveSession()
	if !ok || active.Canvassing == nil {
		return models.Visit{}, fmt.Errorf("%w: door hangers need a canvassing session", ErrNoActiveSession)
	}
	pos, ok := s.Position()
	if !ok {
		return models.Visit{}, ErrNoPosition
	}

	lat, lng := pos.Lat, pos.Lng
	v := models.Visit{
		Latitude:    &lat,
		Longitude:   &lng,
		SalesStatus: models.StatusLeftDoorHanger,
		SessionID:   active.Canvassing.SessionID,
		Salesperson: active.Canvassing.Salesperson,
		CreatedAt:   s.now(),
	}

	if s.geocoder != nil {
		addr, err := s.geocoder.ReverseGeocode(ctx, lat, lng)
		if err != nil {
			s.logger.Warn("reverse geocoding failed", zap.Error(err))
		} else {
			v.Street = addr.Street
			v.City = addr.City
			v.State = addr.State
			v.Zip = addr.Zip
			v.County = addr.County
		}
	}
	if v.Street == "" {
		v.Street = fmt.Sprintf("Visit at %.4f, %.4f", lat, lng)
	}

	v = s.visits.Add(v)
	s.tracker.IncrementDoorHangers()

	s.logger.Info("door hanger placed",
		zap.String("session_id", v.SessionID),
		zap.String("street", v.Street))
	return v, nil
}

func firstNonEmpty(preferred, fallback string) string {
	if preferred != "" {
		return preferred
	}
	return fallback
}
