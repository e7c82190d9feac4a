package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"iss-tracker/pkg/logger"
	"iss-tracker/pkg/observe"
)

const (
	// NominatimBaseURL is the OSM reverse-geocoding endpoint.
	NominatimBaseURL = "https://nominatim.openstreetmap.org/reverse"

	// nominatimZoom keeps results at country/ocean granularity, which is
	// all that makes sense for a craft 400 km up.
	nominatimZoom = "2"
)

// NominatimGeocoder resolves geodetic coordinates to a display name using
// the public Nominatim API.
type NominatimGeocoder struct {
	BaseURL    string
	userAgent  string
	httpClient HTTPClient
	metrics    *observe.Metrics
	l          *logger.Logger
}

func NewNominatimGeocoder(userAgent string, metrics *observe.Metrics, l *logger.Logger, httpClient HTTPClient) *NominatimGeocoder {
	return &NominatimGeocoder{
		BaseURL:    NominatimBaseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		metrics:    metrics,
		l:          l,
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// ReverseGeocode returns a place name for the coordinates, or an empty
// string when nothing resolves (open ocean).
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{
		"lat":             {fmt.Sprintf("%.6f", lat)},
		"lon":             {fmt.Sprintf("%.6f", lon)},
		"format":          {"json"},
		"zoom":            {nominatimZoom},
		"accept-language": {"en"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	// Nominatim's usage policy requires an identifying user agent.
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("HTTP error (status %d): %s", resp.StatusCode, resp.Status)
	}

	var response nominatimResponse
	if err := json.Unmarshal(body, &response); err != nil {
		g.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to parse JSON response: %w", err)
	}

	// Nominatim reports "Unable to geocode" as a 200 with an error field;
	// over open water that is the expected answer, not a failure.
	if response.Error != "" || response.DisplayName == "" {
		g.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return "", nil
	}

	g.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return response.DisplayName, nil
}

// CachedGeocoder decorates a Geocoder with a TTL cache so repeated lookups
// of the same epoch do not hammer the upstream API.
type CachedGeocoder struct {
	inner   Geocoder
	cache   BlobCache
	ttl     time.Duration
	metrics *observe.Metrics
}

func NewCachedGeocoder(inner Geocoder, cache BlobCache, ttl time.Duration, metrics *observe.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	key := fmt.Sprintf("rev:%.4f,%.4f", lat, lon)
	if blob, found, err := c.cache.Get(ctx, key); err == nil && found {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return string(blob), nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	name, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return "", err
	}
	// Empty results are cached too: the ocean does not move between polls.
	_ = c.cache.Set(ctx, key, []byte(name), c.ttl)
	return name, nil
}
