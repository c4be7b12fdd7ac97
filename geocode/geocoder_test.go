package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okResponse = `{
  "status": "OK",
  "results": [
    {
      "types": ["route"],
      "formatted_address": "Oak St, Springfield, IL",
      "address_components": [
        {"long_name": "Oak Street", "short_name": "Oak St", "types": ["route"]}
      ]
    },
    {
      "types": ["street_address"],
      "formatted_address": "12 Oak St, Springfield, IL 62701, USA",
      "address_components": [
        {"long_name": "12", "short_name": "12", "types": ["street_number"]},
        {"long_name": "Oak Street", "short_name": "Oak St", "types": ["route"]},
        {"long_name": "Springfield", "short_name": "Springfield", "types": ["locality", "political"]},
        {"long_name": "Sangamon County", "short_name": "Sangamon County", "types": ["administrative_area_level_2", "political"]},
        {"long_name": "Illinois", "short_name": "IL", "types": ["administrative_area_level_1", "political"]},
        {"long_name": "62701", "short_name": "62701", "types": ["postal_code"]}
      ]
    }
  ]
}`

func newTestServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "/maps/api/geocode/json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "39.781700,-89.650100", r.URL.Query().Get("latlng"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReverseGeocodePrefersStreetAddress(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, okResponse, nil)
	g := NewGoogleGeocoder("test-key", WithBaseURL(srv.URL))

	addr, err := g.ReverseGeocode(context.Background(), 39.7817, -89.6501)
	require.NoError(t, err)
	assert.Equal(t, Address{
		Street: "12 Oak Street",
		City:   "Springfield",
		State:  "IL",
		Zip:    "62701",
		County: "Sangamon",
	}, addr)
}

func TestReverseGeocodeZeroResults(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`, nil)
	g := NewGoogleGeocoder("test-key", WithBaseURL(srv.URL))

	_, err := g.ReverseGeocode(context.Background(), 39.7817, -89.6501)
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestReverseGeocodeAPIError(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key"}`, nil)
	g := NewGoogleGeocoder("test-key", WithBaseURL(srv.URL))

	_, err := g.ReverseGeocode(context.Background(), 39.7817, -89.6501)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
	assert.NotErrorIs(t, err, ErrNoResults)
}

func TestReverseGeocodeHTTPError(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest, `{}`, nil)
	g := NewGoogleGeocoder("test-key", WithBaseURL(srv.URL))

	_, err := g.ReverseGeocode(context.Background(), 39.7817, -89.6501)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestParseComponentsFallbacks(t *testing.T) {
	addr := parseComponents([]addressComponent{
		{LongName: "Main St", Types: []string{"route"}},
		{LongName: "Cook county", Types: []string{"administrative_area_level_2"}},
	})
	assert.Equal(t, "Main St", addr.Street)
	assert.Equal(t, "Cook", addr.County)

	assert.Equal(t, "County Line", trimCounty("County Line"))
	assert.Equal(t, "", parseComponents(nil).Street)
}

func TestCachedReusesNearbyAnswers(t *testing.T) {
	var hits int32
	srv := newTestServer(t, http.StatusOK, okResponse, &hits)
	g := NewCached(NewGoogleGeocoder("test-key", WithBaseURL(srv.URL)), time.Minute)

	first, err := g.ReverseGeocode(context.Background(), 39.7817, -89.6501)
	require.NoError(t, err)
	second, err := g.ReverseGeocode(context.Background(), 39.78171, -89.65009)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
