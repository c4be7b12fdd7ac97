package fieldwork

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harperreed/workly/crm"
	"github.com/harperreed/workly/geo"
	"github.com/harperreed/workly/geocode"
	"github.com/harperreed/workly/location"
	"github.com/harperreed/workly/models"
	"github.com/harperreed/workly/session"
	"github.com/harperreed/workly/store"
	"github.com/harperreed/workly/visit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dayStart = time.Date(2024, 7, 9, 9, 0, 0, 0, time.UTC)

type fakeGeocoder struct {
	addr  geocode.Address
	err   error
	calls int
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (geocode.Address, error) {
	f.calls++
	return f.addr, f.err
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	kv := store.NewMemory()
	clock := func() time.Time { return dayStart }
	tracker := session.NewTracker(kv, session.WithClock(clock))
	visits := visit.NewStore(kv, visit.WithClock(clock))
	resolver := crm.NewResolver(kv, crm.WithClock(clock))
	return NewService(tracker, visits, resolver, append([]Option{WithClock(clock)}, opts...)...)
}

func TestLogVisitStartsSessionAndCreatesDeal(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.LogVisit(context.Background(), "rep", VisitInput{
		FirstName:   "Dana",
		Email:       "dana@example.com",
		Street:      "12 Oak St",
		SalesStatus: models.StatusOpportunity,
		Sqft:        2500,
	})
	require.NoError(t, err)

	assert.True(t, res.Started)
	assert.False(t, res.Converted)
	assert.Equal(t, 635.0, res.Visit.TotalQuoted)
	assert.Equal(t, "rep", res.Visit.Salesperson)
	assert.Equal(t, dayStart, res.Visit.CreatedAt)

	assert.Equal(t, 1, res.Session.TotalVisits)
	assert.Equal(t, 1, res.Session.OpportunityCount)
	assert.Equal(t, 635.0, res.Session.OpportunityTotal)
	assert.InDelta(t, 63.5, res.Session.EstimatedCommission, 1e-9)

	require.NotNil(t, res.Deal)
	assert.Equal(t, res.ContactID, res.Deal.ContactID)
	assert.Equal(t, "Driveway Quote - 12 Oak St", res.Deal.Title)

	stored := svc.Visits().ForSession(res.Session.SessionID)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Visit.ID, stored[0].ID)
}

func TestLogVisitAcceptsStatusInAnyCase(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.LogVisit(context.Background(), "ann", VisitInput{
		Street:      "1 Main",
		SalesStatus: "opportunity",
		Sqft:        1000,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusOpportunity, res.Visit.SalesStatus)
	require.NotNil(t, res.Deal)
	assert.Equal(t, res.Visit.TotalQuoted, res.Deal.QuotedPrice)
	assert.Equal(t, 1, res.Session.OpportunityCount)
	assert.Equal(t, 1, res.Session.SalesOutcomes[models.StatusOpportunity])
	assert.Zero(t, res.Session.SalesOutcomes["opportunity"])

	res, err = svc.LogVisit(context.Background(), "ann", VisitInput{
		Street:      "2 Main",
		SalesStatus: "NOT INTERESTED",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotInterested, res.Visit.SalesStatus)
}

func TestValidatorRegistersSalesStatus(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Struct(VisitInput{SalesStatus: "lead"}))
	assert.Error(t, v.Struct(VisitInput{SalesStatus: "Maybe"}))
	assert.NotPanics(t, func() { mustValidator() })
}

func TestLogVisitLeadHasNoDeal(t *testing.T) {
	svc := newTestService(t)
	svc.StartVisitSession(context.Background(), "rep")

	res, err := svc.LogVisit(context.Background(), "rep", VisitInput{
		Phone:       "555-0101",
		SalesStatus: models.StatusLead,
		Sqft:        2500,
	})
	require.NoError(t, err)
	assert.False(t, res.Started)
	assert.Nil(t, res.Deal)
	assert.Empty(t, svc.CRM().Deals())
	assert.Equal(t, 1, res.Session.SalesOutcomes[models.StatusLead])
}

func TestLogVisitCoercesNegativeMeasurements(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.LogVisit(context.Background(), "rep", VisitInput{Sqft: -40, CrackFeet: -1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Visit.Sqft)
	assert.Equal(t, 0.0, res.Visit.TotalQuoted)
	assert.Equal(t, 1, res.Session.SalesOutcomes[models.StatusUnknown])
}

func TestLogVisitRejectsInvalidInput(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.LogVisit(context.Background(), "rep", VisitInput{Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidVisit)

	_, err = svc.LogVisit(context.Background(), "rep", VisitInput{SalesStatus: "Maybe Later"})
	assert.ErrorIs(t, err, ErrInvalidVisit)

	lat := 123.0
	_, err = svc.LogVisit(context.Background(), "rep", VisitInput{Latitude: &lat})
	assert.ErrorIs(t, err, ErrInvalidVisit)

	assert.False(t, svc.Tracker().HasActiveSession(), "rejected input must not start a session")
}

func TestLogVisitConvertsCanvassingSession(t *testing.T) {
	svc := newTestService(t)
	cs := svc.StartCanvassingSession(context.Background(), "rep")
	svc.SetPosition(41.0, -87.0)
	_, err := svc.PlaceDoorHanger(context.Background())
	require.NoError(t, err)
	_, err = svc.PlaceDoorHanger(context.Background())
	require.NoError(t, err)

	res, err := svc.LogVisit(context.Background(), "rep", VisitInput{
		Street:      "5 Elm",
		SalesStatus: models.StatusOpportunity,
		Sqft:        1000,
	})
	require.NoError(t, err)
	assert.True(t, res.Converted)
	assert.Equal(t, cs.SessionID, res.Session.SessionID)
	assert.Equal(t, 2, res.Session.SalesOutcomes[models.StatusLeftDoorHanger])
	assert.Equal(t, 3, res.Session.TotalVisits)
	assert.Equal(t, 1, res.Session.OpportunityCount)

	active, ok := svc.Tracker().ActiveSession()
	require.True(t, ok)
	assert.Equal(t, models.KindVisit, active.Kind)
}

func TestLogVisitGeocodesMissingAddress(t *testing.T) {
	g := &fakeGeocoder{addr: geocode.Address{Street: "12 Oak Street", City: "Springfield", State: "IL", Zip: "62701", County: "Sangamon"}}
	svc := newTestService(t, WithGeocoder(g))
	svc.SetPosition(39.78, -89.65)

	res, err := svc.LogVisit(context.Background(), "rep", VisitInput{City: "Chatham"})
	require.NoError(t, err)
	assert.Equal(t, 1, g.calls)
	assert.Equal(t, "12 Oak Street", res.Visit.Street)
	assert.Equal(t, "Chatham", res.Visit.City, "entered fields win over geocoded ones")
	assert.Equal(t, "62701", res.Visit.Zip)
	require.NotNil(t, res.Visit.Latitude)
	assert.Equal(t, 39.78, *res.Visit.Latitude)

	// An entered street skips the lookup.
	_, err = svc.LogVisit(context.Background(), "rep", VisitInput{Street: "1 Main"})
	require.NoError(t, err)
	assert.Equal(t, 1, g.calls)
}

func TestLogVisitToleratesGeocoderFailure(t *testing.T) {
	g := &fakeGeocoder{err: errors.New("quota exceeded")}
	svc := newTestService(t, WithGeocoder(g))
	svc.SetPosition(39.78, -89.65)

	res, err := svc.LogVisit(context.Background(), "rep", VisitInput{SalesStatus: models.StatusNotInterested})
	require.NoError(t, err)
	assert.Empty(t, res.Visit.Street)
}

func TestPlaceDoorHangerPreconditions(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.PlaceDoorHanger(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveSession)

	svc.StartVisitSession(context.Background(), "rep")
	_, err = svc.PlaceDoorHanger(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveSession)

	svc.StartCanvassingSession(context.Background(), "rep")
	_, err = svc.PlaceDoorHanger(context.Background())
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestPlaceDoorHangerFallsBackToCoordinates(t *testing.T) {
	g := &fakeGeocoder{err: geocode.ErrNoResults}
	svc := newTestService(t, WithGeocoder(g))
	cs := svc.StartCanvassingSession(context.Background(), "rep")
	svc.SetPosition(41.878113, -87.629799)

	v, err := svc.PlaceDoorHanger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Visit at 41.8781, -87.6298", v.Street)
	assert.Equal(t, models.StatusLeftDoorHanger, v.SalesStatus)
	assert.Equal(t, cs.SessionID, v.SessionID)

	active, _ := svc.Tracker().ActiveSession()
	require.NotNil(t, active.Canvassing)
	assert.Equal(t, 1, active.Canvassing.DoorHangersPlaced)
	assert.Empty(t, svc.CRM().Contacts(), "door hangers stay out of the CRM")
}

func TestPlaceDoorHangerUsesGeocodedAddress(t *testing.T) {
	g := &fakeGeocoder{addr: geocode.Address{Street: "7 Pine Rd", City: "Evanston", State: "IL"}}
	svc := newTestService(t, WithGeocoder(g))
	svc.StartCanvassingSession(context.Background(), "rep")
	svc.SetPosition(42.04, -87.68)

	v, err := svc.PlaceDoorHanger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7 Pine Rd", v.Street)
	assert.Equal(t, "Evanston", v.City)
}

func TestLocationSourceFeedsSessionPath(t *testing.T) {
	track := []location.Sample{
		{Lat: 41.8781, Lng: -87.6298},
		{Lat: 41.8791, Lng: -87.6298},
		{Lat: 41.8801, Lng: -87.6308},
	}
	svc := newTestService(t, WithLocationSource(&location.Replay{Samples: track}))
	vs := svc.StartVisitSession(context.Background(), "rep")

	select {
	case <-svc.TrackingDone():
	case <-time.After(time.Second):
		t.Fatal("replay did not finish")
	}

	got, ok := svc.Tracker().SessionByID(vs.SessionID)
	require.True(t, ok)
	base := got.Base()
	require.Len(t, base.Polyline, 3)

	points := make([]models.Point, len(track))
	for i, s := range track {
		points[i] = models.Point{Lat: s.Lat, Lng: s.Lng}
	}
	assert.InDelta(t, geo.PathDistance(points), base.MilesWalked, 1e-9)

	pos, ok := svc.Position()
	require.True(t, ok)
	assert.Equal(t, 41.8801, pos.Lat)
}

// pushSource delivers samples pushed by the test until cancelled.
type pushSource struct{ ch chan location.Sample }

func (p *pushSource) Watch(ctx context.Context, onSample func(location.Sample), _ func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-p.ch:
			onSample(s)
		}
	}
}

func TestEndSessionStopsTracking(t *testing.T) {
	src := &pushSource{ch: make(chan location.Sample)}
	svc := newTestService(t, WithLocationSource(src))
	svc.StartCanvassingSession(context.Background(), "rep")

	src.ch <- location.Sample{Lat: 1, Lng: 1}
	require.Eventually(t, func() bool {
		_, ok := svc.Position()
		return ok
	}, time.Second, 5*time.Millisecond)
	assert.True(t, svc.Status().Tracking)

	ended, ok := svc.EndSession()
	require.True(t, ok)
	assert.False(t, ended.Base().Active)
	assert.False(t, svc.Status().Tracking)

	// Nobody is subscribed any more.
	select {
	case src.ch <- location.Sample{Lat: 2, Lng: 2}:
		t.Fatal("sample delivered after the session ended")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStatus(t *testing.T) {
	svc := newTestService(t)
	st := svc.Status()
	assert.Nil(t, st.Session)
	assert.Equal(t, "00:00:00", st.Elapsed)

	svc.StartVisitSession(context.Background(), "rep")
	svc.SetPosition(1, 2)
	st = svc.Status()
	require.NotNil(t, st.Session)
	assert.Equal(t, models.KindVisit, st.Session.Kind)
	require.NotNil(t, st.Position)
	assert.Equal(t, 2.0, st.Position.Lng)
	assert.False(t, st.Tracking)
}

func TestQuote(t *testing.T) {
	svc := newTestService(t)
	q := svc.Quote(1000, 200, 10)
	assert.Equal(t, 884.0, q.TotalQuoted)
}

func TestResumeAndStopTracking(t *testing.T) {
	src := &pushSource{ch: make(chan location.Sample)}
	svc := newTestService(t, WithLocationSource(src))
	assert.False(t, svc.ResumeTracking(context.Background()), "nothing to resume without a session")

	svc.StartVisitSession(context.Background(), "rep")
	svc.StopTracking()
	assert.False(t, svc.Status().Tracking)
	assert.True(t, svc.Tracker().HasActiveSession())

	require.True(t, svc.ResumeTracking(context.Background()))
	src.ch <- location.Sample{Lat: 3, Lng: 4}
	require.Eventually(t, func() bool {
		pos, ok := svc.Position()
		return ok && pos.Lat == 3
	}, time.Second, 5*time.Millisecond)

	svc.StopTracking()
	assert.False(t, svc.Status().Tracking)
}
