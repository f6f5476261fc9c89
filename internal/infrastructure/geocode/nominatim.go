package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"CrisisMonitor/internal/domain"
	"CrisisMonitor/internal/ports"
	"CrisisMonitor/internal/resilience"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent    = "CrisisMonitor/1.0"
	defaultTimeout      = 10 * time.Second
)

// Options configures an HTTP geocoder.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Interval is the minimum spacing between outbound requests.
	Interval time.Duration
}

// Nominatim queries the OpenStreetMap search API.
type Nominatim struct {
	client   *http.Client
	opts     Options
	limiter  *rate.Limiter
	executor *resilience.Executor
}

var _ ports.Geocoder = (*Nominatim)(nil)

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// NewNominatim builds the client. The limiter is shared by every call made
// through this instance.
func NewNominatim(client *http.Client, exec *resilience.Executor, opts Options) *Nominatim {
	if client == nil {
		client = &http.Client{}
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNominatimURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Nominatim{
		client:   client,
		opts:     opts,
		limiter:  newLimiter(opts.Interval),
		executor: exec,
	}
}

// Geocode returns the best match or domain.ErrNotFound.
func (n *Nominatim) Geocode(ctx context.Context, name string) (domain.GeoPoint, error) {
	var point domain.GeoPoint
	call := func(ctx context.Context) error {
		p, err := n.lookup(ctx, name)
		if err != nil {
			return err
		}
		point = p
		return nil
	}
	if err := execute(ctx, n.executor, "geocode:nominatim", call); err != nil {
		return domain.GeoPoint{}, err
	}
	return point, nil
}

func (n *Nominatim) lookup(ctx context.Context, name string) (domain.GeoPoint, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return domain.GeoPoint{}, err
	}

	endpoint, err := url.Parse(strings.TrimRight(n.opts.BaseURL, "/") + "/search")
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("invalid nominatim url: %w", err)
	}
	query := endpoint.Query()
	query.Set("q", name)
	query.Set("format", "jsonv2")
	query.Set("limit", "1")
	query.Set("addressdetails", "1")
	endpoint.RawQuery = query.Encode()

	callCtx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", n.opts.UserAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := n.client.Do(req)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("request nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeoPoint{}, &resilience.HTTPStatusError{Operation: "nominatim", StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("decode nominatim: %w", err)
	}
	if len(places) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("nominatim %q: %w", name, domain.ErrNotFound)
	}

	place := places[0]
	lat, errLat := strconv.ParseFloat(place.Lat, 64)
	lon, errLon := strconv.ParseFloat(place.Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.GeoPoint{}, fmt.Errorf("nominatim %q: bad coordinates: %w", name, domain.ErrNotFound)
	}

	label := place.Name
	if label == "" {
		label = place.DisplayName
	}
	return domain.GeoPoint{
		Name:        label,
		Country:     place.Address.Country,
		CountryISO2: strings.ToUpper(place.Address.CountryCode),
		Latitude:    lat,
		Longitude:   lon,
	}, nil
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func execute(ctx context.Context, exec *resilience.Executor, op string, fn func(context.Context) error) error {
	if exec == nil {
		return fn(ctx)
	}
	return exec.Execute(ctx, op, fn, resilience.ClassifyHTTPError)
}
