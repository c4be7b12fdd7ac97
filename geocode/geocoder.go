// ABOUTME: Reverse geocoding of coordinates into postal address fields
// ABOUTME: Google Geocoding REST client plus a short-lived result cache
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://maps.googleapis.com"

// ErrNoResults means the geocoder found no address for the coordinates.
var ErrNoResults = errors.New("no geocoding results")

// Address holds the fields copied onto a visit.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
	County string `json:"county"`
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (Address, error)
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type geocodeResult struct {
	Types             []string           `json:"types"`
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []addressComponent `json:"address_components"`
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

// GoogleGeocoder calls the Google Maps Geocoding API.
type GoogleGeocoder struct {
	httpClient *resty.Client
	apiKey     string
	logger     *zap.Logger
}

type Option func(*GoogleGeocoder)

func WithBaseURL(url string) Option {
	return func(g *GoogleGeocoder) {
		if url != "" {
			g.httpClient.SetBaseURL(url)
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *GoogleGeocoder) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewGoogleGeocoder(apiKey string, opts ...Option) *GoogleGeocoder {
	client := resty.New().
		SetBaseURL(DefaultBaseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")

	g := &GoogleGeocoder{
		httpClient: client,
		apiKey:     apiKey,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (Address, error) {
	var response geocodeResponse
	resp, err := g.httpClient.R().
		SetContext(ctx).
		SetQueryParam("latlng", fmt.Sprintf("%f,%f", lat, lng)).
		SetQueryParam("key", g.apiKey).
		SetResult(&response).
		Get("/maps/api/geocode/json")
	if err != nil {
		return Address{}, fmt.Errorf("failed to call geocoding API: %w", err)
	}
	if resp.IsError() {
		return Address{}, fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode())
	}

	switch response.Status {
	case "OK":
	case "ZERO_RESULTS":
		return Address{}, ErrNoResults
	default:
		g.logger.Warn("geocoding API error",
			zap.String("status", response.Status),
			zap.String("message", response.ErrorMessage))
		return Address{}, fmt.Errorf("geocoding API error: %s %s", response.Status, response.ErrorMessage)
	}
	if len(response.Results) == 0 {
		return Address{}, ErrNoResults
	}

	best := bestResult(response.Results)
	addr := parseComponents(best.AddressComponents)
	g.logger.Debug("reverse geocoded",
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
		zap.String("address", best.FormattedAddress))
	return addr, nil
}

// bestResult prefers a precise street address or premise over area results.
func bestResult(results []geocodeResult) geocodeResult {
	for _, r := range results {
		if hasType(r.Types, "street_address") || hasType(r.Types, "premise") {
			return r
		}
	}
	return results[0]
}

func parseComponents(components []addressComponent) Address {
	var addr Address
	var streetNumber, route string

	for _, c := range components {
		switch {
		case hasType(c.Types, "street_number"):
			streetNumber = c.LongName
		case hasType(c.Types, "route"):
			route = c.LongName
		case hasType(c.Types, "locality"):
			addr.City = c.LongName
		case hasType(c.Types, "administrative_area_level_1"):
			addr.State = c.ShortName
		case hasType(c.Types, "postal_code"):
			addr.Zip = c.LongName
		case hasType(c.Types, "administrative_area_level_2"):
			addr.County = trimCounty(c.LongName)
		}
	}
	addr.Street = strings.TrimSpace(streetNumber + " " + route)
	return addr
}

func trimCounty(name string) string {
	const suffix = " county"
	if len(name) >= len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix) {
		return name[:len(name)-len(suffix)]
	}
	return name
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// Cached wraps a Geocoder and remembers answers for nearby coordinates.
// Coordinates are bucketed to 4 decimal places (roughly 10 metres).
type Cached struct {
	next  Geocoder
	cache *cache.Cache
}

func NewCached(next Geocoder, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *Cached) ReverseGeocode(ctx context.Context, lat, lng float64) (Address, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lng)
	if v, ok := c.cache.Get(key); ok {
		return v.(Address), nil
	}
	addr, err := c.next.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return Address{}, err
	}
	c.cache.SetDefault(key, addr)
	return addr, nil
}
