package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
	"CrisisMonitor/internal/resilience"
)

const DefaultMapboxURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Mapbox queries the Mapbox forward geocoding API.
type Mapbox struct {
	client   *http.Client
	token    string
	opts     Options
	limiter  *rate.Limiter
	executor *resilience.Executor
}

var _ ports.Geocoder = (*Mapbox)(nil)

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	PlaceName  string    `json:"place_name"`
	Center     []float64 `json:"center"`
	Properties struct {
		ShortCode string `json:"short_code"`
	} `json:"properties"`
	Context []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		ShortCode string `json:"short_code"`
	} `json:"context"`
}

// NewMapbox builds the client for an access token.
func NewMapbox(client *http.Client, token string, exec *resilience.Executor, opts Options) *Mapbox {
	if client == nil {
		client = &http.Client{}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultMapboxURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Mapbox{
		client:   client,
		token:    token,
		opts:     opts,
		limiter:  newLimiter(opts.Interval),
		executor: exec,
	}
}

// Geocode returns the first feature or domain.ErrNotFound.
func (m *Mapbox) Geocode(ctx context.Context, name string) (domain.GeoPoint, error) {
	var point domain.GeoPoint
	call := func(ctx context.Context) error {
		p, err := m.lookup(ctx, name)
		if err != nil {
			return err
		}
		point = p
		return nil
	}
	if err := execute(ctx, m.executor, "geocode:mapbox", call); err != nil {
		return domain.GeoPoint{}, err
	}
	return point, nil
}

func (m *Mapbox) lookup(ctx context.Context, name string) (domain.GeoPoint, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return domain.GeoPoint{}, err
	}

	endpoint, err := url.Parse(strings.TrimRight(m.opts.BaseURL, "/") + "/" + url.PathEscape(name) + ".json")
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("invalid mapbox url: %w", err)
	}
	query := endpoint.Query()
	query.Set("access_token", m.token)
	query.Set("limit", "1")
	query.Set("language", "en")
	endpoint.RawQuery = query.Encode()

	callCtx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", m.opts.UserAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("request mapbox: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeoPoint{}, &resilience.HTTPStatusError{Operation: "mapbox", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var payload mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("decode mapbox: %w", err)
	}
	if len(payload.Features) == 0 || len(payload.Features[0].Center) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("mapbox %q: %w", name, domain.ErrNotFound)
	}

	feature := payload.Features[0]
	point := domain.GeoPoint{
		Name:      feature.Text,
		Latitude:  feature.Center[1],
		Longitude: feature.Center[0],
	}
	if point.Name == "" {
		point.Name = feature.PlaceName
	}
	if strings.HasPrefix(feature.ID, "country.") {
		point.Country = feature.Text
		point.CountryISO2 = strings.ToUpper(feature.Properties.ShortCode)
	}
	for _, c := range feature.Context {
		if strings.HasPrefix(c.ID, "country.") {
			point.Country = c.Text
			point.CountryISO2 = strings.ToUpper(c.ShortCode)
		}
	}
	return point, nil
}
