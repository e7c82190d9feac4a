package tracker_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iss-tracker/internal/models"
	"iss-tracker/internal/repositories"
	"iss-tracker/internal/services/tracker"
	"iss-tracker/pkg/logger"
	"iss-tracker/pkg/observe"
)

type stubRepository struct {
	ephemeris models.Ephemeris
	err       error
}

func (s *stubRepository) FetchEphemeris(_ context.Context) (models.Ephemeris, error) {
	if s.err != nil {
		return models.Ephemeris{}, s.err
	}
	return s.ephemeris, nil
}

type stubGeocoder struct {
	name string
	err  error
}

func (s *stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (string, error) {
	return s.name, s.err
}

func testEphemeris() models.Ephemeris {
	return models.Ephemeris{
		Metadata: models.Metadata{
			ObjectName: "ISS",
			ObjectID:   "1998-067-A",
			RefFrame:   "EME2000",
			StartTime:  "2025-047T12:00:00.000Z",
			StopTime:   "2025-047T12:08:00.000Z",
		},
		StateVectors: []models.StateVector{
			{Epoch: "2025-047T12:00:00.000Z", X: -4945.2766642, Y: -3625.9704454, Z: -2944.7433196, XDot: 3.9220001, YDot: -0.0008501, ZDot: -6.5798019},
			{Epoch: "2025-047T12:04:00.000Z", X: -4082.9967214, Y: -3611.3234423, Z: -4177.9834823, XDot: 4.8574035, YDot: 0.1514921, ZDot: -5.9210822},
			{Epoch: "2025-047T12:08:00.000Z", X: -3069.1189087, Y: -3555.0908294, Z: -5172.7655291, XDot: 5.8814545, YDot: 0.3457070, ZDot: -4.8953115},
		},
	}
}

func newService(repo repositories.EphemerisRepository, geo repositories.Geocoder, clock clockwork.Clock) *tracker.TrackerService {
	l := logger.NewZapLogger("test-app", "test")
	return tracker.NewTrackerService(repo, geo, observe.NewMetricsForTesting(), clock, l)
}

func TestStateVectors_FullDataset(t *testing.T) {
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, nil)

	svs, total, err := service.StateVectors(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, svs, 3)
}

func TestStateVectors_Pagination(t *testing.T) {
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, nil)
	ctx := context.Background()

	svs, total, err := service.StateVectors(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, svs, 1)
	assert.Equal(t, "2025-047T12:04:00.000Z", svs[0].Epoch)

	svs, _, err = service.StateVectors(ctx, 5, 2)
	require.NoError(t, err)
	require.Len(t, svs, 1)
	assert.Equal(t, "2025-047T12:08:00.000Z", svs[0].Epoch)
}

func TestStateVectors_OffsetBeyondDataset(t *testing.T) {
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, nil)

	svs, total, err := service.StateVectors(context.Background(), 10, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, svs)
}

func TestStateVectors_NegativeOffsetClamped(t *testing.T) {
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, nil)

	svs, _, err := service.StateVectors(context.Background(), 2, -5)
	require.NoError(t, err)
	require.Len(t, svs, 2)
	assert.Equal(t, "2025-047T12:00:00.000Z", svs[0].Epoch)
}

func TestStateVectors_RepositoryError(t *testing.T) {
	service := newService(&stubRepository{err: assert.AnError}, nil, nil)

	_, _, err := service.StateVectors(context.Background(), 0, 0)
	require.Error(t, err)
}

func TestStateVector_Found(t *testing.T) {
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, nil)

	sv, err := service.StateVector(context.Background(), "2025-047T12:04:00.000Z")
	require.NoError(t, err)
	assert.InDelta(t, -4082.9967214, sv.X, 1e-9)
}

func TestStateVector_NotFound(t *testing.T) {
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, nil)

	_, err := service.StateVector(context.Background(), "2025-047T23:59:00.000Z")
	require.Error(t, err)
	assert.True(t, errors.Is(err, tracker.ErrEpochNotFound))
}

func TestSpeed(t *testing.T) {
	ephemeris := testEphemeris()
	ephemeris.StateVectors = append(ephemeris.StateVectors, models.StateVector{
		Epoch: "2025-047T12:12:00.000Z", XDot: 1, YDot: 2, ZDot: 3,
	})
	service := newService(&stubRepository{ephemeris: ephemeris}, nil, nil)

	sv, speed, err := service.Speed(context.Background(), "2025-047T12:12:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-047T12:12:00.000Z", sv.Epoch)
	assert.InDelta(t, 3.7416574, speed, 1e-6)
}

func TestLocation_DefaultsToOcean(t *testing.T) {
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, nil)

	location, err := service.Location(context.Background(), "2025-047T12:00:00.000Z")
	require.NoError(t, err)

	assert.Equal(t, tracker.OverOcean, location.Geoposition)
	assert.GreaterOrEqual(t, location.Latitude, -90.0)
	assert.LessOrEqual(t, location.Latitude, 90.0)
	assert.Greater(t, location.Altitude, 350.0)
	assert.Less(t, location.Altitude, 480.0)
}

func TestLocation_GeocoderResolves(t *testing.T) {
	geo := &stubGeocoder{name: "Amapá, Brazil"}
	service := newService(&stubRepository{ephemeris: testEphemeris()}, geo, nil)

	location, err := service.Location(context.Background(), "2025-047T12:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "Amapá, Brazil", location.Geoposition)
}

func TestLocation_GeocoderErrorDegrades(t *testing.T) {
	geo := &stubGeocoder{err: assert.AnError}
	service := newService(&stubRepository{ephemeris: testEphemeris()}, geo, nil)

	location, err := service.Location(context.Background(), "2025-047T12:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, tracker.OverOcean, location.Geoposition)
}

func TestLocation_InvalidEpochFormat(t *testing.T) {
	ephemeris := models.Ephemeris{
		StateVectors: []models.StateVector{{Epoch: "garbage", X: 6778}},
	}
	service := newService(&stubRepository{ephemeris: ephemeris}, nil, nil)

	_, err := service.Location(context.Background(), "garbage")
	require.Error(t, err)
}

func TestNow_PicksClosestEpoch(t *testing.T) {
	// 12:03 sits between the 12:00 and 12:04 records, one minute from the
	// latter.
	clock := clockwork.NewFakeClockAt(time.Date(2025, 2, 16, 12, 3, 0, 0, time.UTC))
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, clock)

	status, err := service.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-047T12:04:00.000Z", status.StateVector.Epoch)
	assert.InDelta(t, 60.0, status.DeltaSeconds, 1e-9)
	assert.Greater(t, status.Speed, 0.0)
	assert.Equal(t, tracker.OverOcean, status.Location.Geoposition)
}

func TestNow_SkipsUnparseableEpochs(t *testing.T) {
	ephemeris := testEphemeris()
	ephemeris.StateVectors = append([]models.StateVector{
		{Epoch: "not-an-epoch", X: 1, Y: 2, Z: 3},
	}, ephemeris.StateVectors...)

	clock := clockwork.NewFakeClockAt(time.Date(2025, 2, 16, 11, 0, 0, 0, time.UTC))
	service := newService(&stubRepository{ephemeris: ephemeris}, nil, clock)

	status, err := service.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-047T12:00:00.000Z", status.StateVector.Epoch)
}

func TestNow_NoValidEpochs(t *testing.T) {
	ephemeris := models.Ephemeris{
		StateVectors: []models.StateVector{{Epoch: "bad"}, {Epoch: "worse"}},
	}
	service := newService(&stubRepository{ephemeris: ephemeris}, nil, nil)

	_, err := service.Now(context.Background())
	require.Error(t, err)
}

func TestMetadata(t *testing.T) {
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, nil)

	metadata, summary, err := service.Metadata(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ISS", metadata.ObjectName)
	assert.Equal(t, 3, summary.StateVectorCount)
	assert.Equal(t, "2025-047T12:00:00.000Z", summary.FirstEpoch)
	assert.Equal(t, "2025-047T12:08:00.000Z", summary.LastEpoch)
	assert.InDelta(t, 7.66, summary.AverageSpeed, 0.01)
}

func TestMetadata_EmptyDataset(t *testing.T) {
	service := newService(&stubRepository{ephemeris: models.Ephemeris{}}, nil, nil)

	_, summary, err := service.Metadata(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.StateVectorCount)
	assert.Empty(t, summary.FirstEpoch)
}

func TestDebugCache_MissTriggersFetch(t *testing.T) {
	l := logger.NewZapLogger("test-app", "test")
	origin := &stubRepository{ephemeris: testEphemeris()}
	cached := repositories.NewCachedEphemerisRepository(
		origin, repositories.NewMemoryCache(), "iss_state_vector_data", time.Hour,
		observe.NewMetricsForTesting(), l,
	)
	service := newService(cached, nil, nil)

	ctx := context.Background()

	_, found, err := service.DebugCache(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	ephemeris, found, err := service.DebugCache(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, ephemeris.StateVectors, 3)
	assert.Equal(t, "ISS", ephemeris.Metadata.ObjectName)
}

func TestDebugCache_UninspectableRepository(t *testing.T) {
	service := newService(&stubRepository{ephemeris: testEphemeris()}, nil, nil)

	_, _, err := service.DebugCache(context.Background())
	require.Error(t, err)
}
