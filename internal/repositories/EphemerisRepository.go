package repositories

import (
	"context"
	"net/http"
	"time"

	"iss-tracker/internal/models"
)

// EphemerisRepository provides the parsed ISS ephemeris dataset.
type EphemerisRepository interface {
	FetchEphemeris(ctx context.Context) (models.Ephemeris, error)
}

// CacheInspector is implemented by repositories that can report and refresh
// their cached dataset without consulting the origin implicitly.
type CacheInspector interface {
	Cached(ctx context.Context) (models.Ephemeris, bool, error)
	Refresh(ctx context.Context) (models.Ephemeris, error)
}

// BlobCache is a flat key-value store for opaque payloads with a TTL.
// The second return value of Get reports whether the key was present.
type BlobCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Geocoder resolves coordinates to a human-readable place name. An empty
// string with a nil error means nothing resolved (open ocean).
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// HTTPClient abstracts *http.Client so repositories can be tested with
// canned transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
