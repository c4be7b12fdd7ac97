// ABOUTME: Session state machine for visit and canvassing sessions
// ABOUTME: Owns session collections, the active pointer, path distance, and live stats
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/harperreed/workly/geo"
	"github.com/harperreed/workly/models"
	"github.com/harperreed/workly/store"
	"go.uber.org/zap"
)

// DefaultCommissionRate is applied to the opportunity total.
// Product has not settled between 10% and 0.45*0.15; see WithCommissionRate.
const DefaultCommissionRate = 0.10

// Tracker holds all sessions and at most one active session.
// Every mutation is followed by an explicit save of both session collections
// and the active pointer.
type Tracker struct {
	mu sync.Mutex

	kv             store.KV
	logger         *zap.Logger
	now            func() time.Time
	ids            *idGenerator
	commissionRate float64

	visitSessions      []models.VisitSession
	canvassingSessions []models.CanvassingSession
	activeID           string
}

// Option configures a Tracker.
type Option func(*Tracker)

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithCommissionRate overrides DefaultCommissionRate.
func WithCommissionRate(rate float64) Option {
	return func(t *Tracker) {
		if rate >= 0 {
			t.commissionRate = rate
		}
	}
}

// NewTracker loads persisted sessions from kv (which may be nil for a
// memory-only tracker).
func NewTracker(kv store.KV, opts ...Option) *Tracker {
	t := &Tracker{
		kv:             kv,
		logger:         zap.NewNop(),
		now:            time.Now,
		ids:            newIDGenerator(),
		commissionRate: DefaultCommissionRate,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.load()
	return t
}

func (t *Tracker) load() {
	store.LoadJSON(t.kv, store.KeyVisitSessions, &t.visitSessions, t.logger)
	store.LoadJSON(t.kv, store.KeyCanvassingSessions, &t.canvassingSessions, t.logger)

	id, err := store.LoadString(t.kv, store.KeyActiveSessionID)
	if err != nil {
		t.logger.Warn("failed to read active session pointer", zap.Error(err))
		return
	}
	if id == "" {
		return
	}

	// Only trust the pointer if it names a session that is still active.
	if v := t.findVisit(id); v != nil && v.Active {
		t.activeID = id
		return
	}
	if c := t.findCanvassing(id); c != nil && c.Active {
		t.activeID = id
		return
	}
	t.logger.Warn("clearing stale active session pointer", zap.String("session_id", id))
	t.save()
}

// save writes all session state. Failures are logged, never returned.
func (t *Tracker) save() {
	if t.kv == nil {
		return
	}
	if err := store.SaveJSON(t.kv, store.KeyVisitSessions, t.visitSessions); err != nil {
		t.logger.Warn("failed to persist visit sessions", zap.Error(err))
	}
	if err := store.SaveJSON(t.kv, store.KeyCanvassingSessions, t.canvassingSessions); err != nil {
		t.logger.Warn("failed to persist canvassing sessions", zap.Error(err))
	}
	if err := store.SaveString(t.kv, store.KeyActiveSessionID, t.activeID); err != nil {
		t.logger.Warn("failed to persist active session pointer", zap.Error(err))
	}
}

func (t *Tracker) findVisit(id string) *models.VisitSession {
	for i := range t.visitSessions {
		if t.visitSessions[i].SessionID == id {
			return &t.visitSessions[i]
		}
	}
	return nil
}

func (t *Tracker) findCanvassing(id string) *models.CanvassingSession {
	for i := range t.canvassingSessions {
		if t.canvassingSessions[i].SessionID == id {
			return &t.canvassingSessions[i]
		}
	}
	return nil
}

func (t *Tracker) activeVisit() *models.VisitSession {
	if t.activeID == "" {
		return nil
	}
	return t.findVisit(t.activeID)
}

func (t *Tracker) activeCanvassing() *models.CanvassingSession {
	if t.activeID == "" {
		return nil
	}
	return t.findCanvassing(t.activeID)
}

// activeBase returns the shared fields of the active session, if any.
func (t *Tracker) activeBase() *models.BaseSession {
	if v := t.activeVisit(); v != nil {
		return &v.BaseSession
	}
	if c := t.activeCanvassing(); c != nil {
		return &c.BaseSession
	}
	return nil
}

func (t *Tracker) newBase(prefix, salesperson string) models.BaseSession {
	now := t.now()
	return models.BaseSession{
		SessionID:   t.ids.next(prefix, now),
		Salesperson: salesperson,
		StartTime:   now,
		Polyline:    []models.Point{},
		Zipcodes:    []string{},
		CreatedAt:   now,
		Active:      true,
	}
}

// StartVisitSession returns the active visit session if there is one, and
// otherwise starts a new one. An active canvassing session is ended first.
func (t *Tracker) StartVisitSession(salesperson string) models.VisitSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	if v := t.activeVisit(); v != nil {
		return v.Clone()
	}
	if t.activeCanvassing() != nil {
		t.endActiveLocked()
	}

	s := models.VisitSession{
		BaseSession:   t.newBase(models.VisitSessionPrefix, salesperson),
		SalesOutcomes: map[string]int{},
	}
	t.visitSessions = append(t.visitSessions, s)
	t.activeID = s.SessionID
	t.save()

	t.logger.Info("visit session started",
		zap.String("session_id", s.SessionID),
		zap.String("salesperson", salesperson))
	return s.Clone()
}

// StartCanvassingSession mirrors StartVisitSession for canvassing.
func (t *Tracker) StartCanvassingSession(salesperson string) models.CanvassingSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c := t.activeCanvassing(); c != nil {
		return c.Clone()
	}
	if t.activeVisit() != nil {
		t.endActiveLocked()
	}

	s := models.CanvassingSession{
		BaseSession: t.newBase(models.CanvassingSessionPrefix, salesperson),
	}
	t.canvassingSessions = append(t.canvassingSessions, s)
	t.activeID = s.SessionID
	t.save()

	t.logger.Info("canvassing session started",
		zap.String("session_id", s.SessionID),
		zap.String("salesperson", salesperson))
	return s.Clone()
}

// ConvertActiveCanvassingToVisitSession replaces the active canvassing
// session with a visit session carrying the same id, path, and distance.
// Placed door hangers become "Left Door Hanger" outcomes. Reports false when
// the active session is not a canvassing session.
func (t *Tracker) ConvertActiveCanvassingToVisitSession() (models.VisitSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.activeCanvassing()
	if c == nil || !c.Active {
		return models.VisitSession{}, false
	}

	base := c.Clone().BaseSession
	base.EndTime = nil
	base.Duration = nil
	base.Active = true

	converted := models.VisitSession{
		BaseSession: base,
		SalesOutcomes: map[string]int{
			models.StatusLeftDoorHanger: c.DoorHangersPlaced,
		},
		TotalVisits: c.DoorHangersPlaced,
	}

	kept := t.canvassingSessions[:0]
	for _, s := range t.canvassingSessions {
		if s.SessionID != converted.SessionID {
			kept = append(kept, s)
		}
	}
	t.canvassingSessions = kept
	t.visitSessions = append(t.visitSessions, converted)
	t.activeID = converted.SessionID
	t.save()

	t.logger.Info("canvassing session converted to visit session",
		zap.String("session_id", converted.SessionID),
		zap.Int("door_hangers", converted.TotalVisits))
	return converted.Clone(), true
}

// AddPoint appends p to the active session's path and adds the distance from
// the previous point. It does nothing without an active session.
func (t *Tracker) AddPoint(p models.Point) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.activeBase()
	if b == nil || !b.Active {
		return
	}
	if n := len(b.Polyline); n > 0 {
		b.MilesWalked += geo.Haversine(b.Polyline[n-1], p)
	}
	b.Polyline = append(b.Polyline, p)
	t.save()
}

// UpdateStatsForNewVisit folds a logged visit into the active visit session.
// Reports false when no visit session is active.
func (t *Tracker) UpdateStatsForNewVisit(v models.Visit) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.activeVisit()
	if s == nil || !s.Active {
		return false
	}

	status := v.SalesStatus
	if status == "" {
		status = models.StatusUnknown
	}
	if s.SalesOutcomes == nil {
		s.SalesOutcomes = map[string]int{}
	}
	s.TotalVisits++
	s.SalesOutcomes[status]++

	if models.IsOpportunity(status) {
		s.OpportunityCount++
		s.OpportunityTotal += v.TotalQuoted
		s.EstimatedCommission = s.OpportunityTotal * t.commissionRate
	}
	t.save()

	t.logger.Debug("visit counted",
		zap.String("session_id", s.SessionID),
		zap.String("status", status),
		zap.Int("total_visits", s.TotalVisits))
	return true
}

// IncrementDoorHangers counts one hanger on the active canvassing session.
func (t *Tracker) IncrementDoorHangers() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := t.activeCanvassing()
	if c == nil || !c.Active {
		return false
	}
	c.DoorHangersPlaced++
	t.save()
	return true
}

// EndSession closes the active session and returns its final state.
func (t *Tracker) EndSession() (models.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.endActiveLocked()
}

func (t *Tracker) endActiveLocked() (models.Session, bool) {
	var out models.Session
	b := t.activeBase()
	if b == nil {
		return out, false
	}

	end := t.now()
	duration := FormatDuration(end.Sub(b.StartTime))
	b.EndTime = &end
	b.Duration = &duration
	b.Active = false

	if v := t.activeVisit(); v != nil {
		out = models.NewVisitVariant(*v)
	} else if c := t.activeCanvassing(); c != nil {
		out = models.NewCanvassingVariant(*c)
	}

	t.logger.Info("session ended",
		zap.String("session_id", b.SessionID),
		zap.String("duration", duration),
		zap.Float64("miles_walked", b.MilesWalked))

	t.activeID = ""
	t.save()
	return out, true
}

// HasActiveSession reports whether a session is currently running.
func (t *Tracker) HasActiveSession() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.activeBase()
	return b != nil && b.Active
}

// ActiveSession returns a snapshot of the running session.
func (t *Tracker) ActiveSession() (models.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v := t.activeVisit(); v != nil {
		return models.NewVisitVariant(*v), true
	}
	if c := t.activeCanvassing(); c != nil {
		return models.NewCanvassingVariant(*c), true
	}
	return models.Session{}, false
}

// SessionByID looks up a session of either variant.
func (t *Tracker) SessionByID(id string) (models.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v := t.findVisit(id); v != nil {
		return models.NewVisitVariant(*v), true
	}
	if c := t.findCanvassing(id); c != nil {
		return models.NewCanvassingVariant(*c), true
	}
	return models.Session{}, false
}

// SessionsForUser returns both variants for salesperson, newest first.
func (t *Tracker) SessionsForUser(salesperson string) []models.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []models.Session
	for _, s := range t.visitSessions {
		if s.Salesperson == salesperson {
			out = append(out, models.NewVisitVariant(s))
		}
	}
	for _, s := range t.canvassingSessions {
		if s.Salesperson == salesperson {
			out = append(out, models.NewCanvassingVariant(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Base().StartTime.After(out[j].Base().StartTime)
	})
	return out
}

// Elapsed is the live HH:MM:SS for the active session, or "00:00:00".
func (t *Tracker) Elapsed() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := t.activeBase()
	if b == nil || !b.Active {
		return FormatDuration(0)
	}
	return FormatDuration(t.now().Sub(b.StartTime))
}
