package repositories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iss-tracker/pkg/logger"
	"iss-tracker/pkg/observe"
)

func newTestGeocoder(baseURL string) *NominatimGeocoder {
	l := logger.NewZapLogger("test-app", "test")
	g := NewNominatimGeocoder("iss-tracker-test", observe.NewMetricsForTesting(), l, http.DefaultClient)
	g.BaseURL = baseURL
	return g
}

func TestNominatimGeocoder_ReverseGeocode_Success(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "iss-tracker-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "2", r.URL.Query().Get("zoom"))
		assert.Equal(t, "en", r.URL.Query().Get("accept-language"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"display_name": "Amapá, Brazil"}`))
	}))
	defer mockServer.Close()

	geocoder := newTestGeocoder(mockServer.URL)

	name, err := geocoder.ReverseGeocode(context.Background(), 8.3252, -52.1459)
	require.NoError(t, err)
	assert.Equal(t, "Amapá, Brazil", name)
}

func TestNominatimGeocoder_ReverseGeocode_Ocean(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "Unable to geocode"}`))
	}))
	defer mockServer.Close()

	geocoder := newTestGeocoder(mockServer.URL)

	name, err := geocoder.ReverseGeocode(context.Background(), -42.0, -32.0)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestNominatimGeocoder_ReverseGeocode_HTTPError(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer mockServer.Close()

	geocoder := newTestGeocoder(mockServer.URL)

	_, err := geocoder.ReverseGeocode(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestNominatimGeocoder_ReverseGeocode_InvalidJSON(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer mockServer.Close()

	geocoder := newTestGeocoder(mockServer.URL)

	_, err := geocoder.ReverseGeocode(context.Background(), 0, 0)
	require.Error(t, err)
}

type stubGeocoder struct {
	name  string
	err   error
	calls int
}

func (s *stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	s.calls++
	return s.name, s.err
}

func TestCachedGeocoder_SecondLookupIsCached(t *testing.T) {
	inner := &stubGeocoder{name: "Pacific Ocean rim"}
	cached := NewCachedGeocoder(inner, NewMemoryCache(), time.Minute, observe.NewMetricsForTesting())

	ctx := context.Background()

	name, err := cached.ReverseGeocode(ctx, 10.12345, 20.54321)
	require.NoError(t, err)
	assert.Equal(t, "Pacific Ocean rim", name)

	name, err = cached.ReverseGeocode(ctx, 10.12345, 20.54321)
	require.NoError(t, err)
	assert.Equal(t, "Pacific Ocean rim", name)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_EmptyResultIsCached(t *testing.T) {
	inner := &stubGeocoder{name: ""}
	cached := NewCachedGeocoder(inner, NewMemoryCache(), time.Minute, observe.NewMetricsForTesting())

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		name, err := cached.ReverseGeocode(ctx, -40.0, -130.0)
		require.NoError(t, err)
		assert.Empty(t, name)
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_DistinctCoordinatesMiss(t *testing.T) {
	inner := &stubGeocoder{name: "somewhere"}
	cached := NewCachedGeocoder(inner, NewMemoryCache(), time.Minute, observe.NewMetricsForTesting())

	ctx := context.Background()

	_, err := cached.ReverseGeocode(ctx, 10.0, 20.0)
	require.NoError(t, err)
	_, err = cached.ReverseGeocode(ctx, 11.0, 21.0)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &stubGeocoder{err: assert.AnError}
	cached := NewCachedGeocoder(inner, NewMemoryCache(), time.Minute, observe.NewMetricsForTesting())

	ctx := context.Background()

	_, err := cached.ReverseGeocode(ctx, 1.0, 2.0)
	require.Error(t, err)
	_, err = cached.ReverseGeocode(ctx, 1.0, 2.0)
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}
