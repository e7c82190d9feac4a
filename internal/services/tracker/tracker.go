package tracker

import (
	"context"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"iss-tracker/internal/models"
	"iss-tracker/internal/repositories"
	"iss-tracker/pkg/logger"
	"iss-tracker/pkg/observe"
)

// ErrEpochNotFound is returned when no state vector matches the requested
// epoch string.
var ErrEpochNotFound = errors.New("epoch not found")

// OverOcean is reported when reverse geocoding resolves nothing.
const OverOcean = "ISS is over the ocean"

// TrackerService answers queries over the cached ephemeris dataset.
type TrackerService struct {
	repo    repositories.EphemerisRepository
	geo     repositories.Geocoder
	metrics *observe.Metrics
	clock   clockwork.Clock
	l       *logger.Logger
}

// NewTrackerService wires the service. geo may be nil when reverse
// geocoding is disabled; clock may be nil to use real time.
func NewTrackerService(
	repo repositories.EphemerisRepository,
	geo repositories.Geocoder,
	metrics *observe.Metrics,
	clock clockwork.Clock,
	l *logger.Logger,
) *TrackerService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TrackerService{
		repo:    repo,
		geo:     geo,
		metrics: metrics,
		clock:   clock,
		l:       l,
	}
}

// StateVectors returns one page of the dataset plus the total record count.
// offset skips records from the start; limit caps the page size, with zero
// or negative meaning "the rest".
func (s *TrackerService) StateVectors(ctx context.Context, limit, offset int) ([]models.StateVector, int, error) {
	ephemeris, err := s.repo.FetchEphemeris(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "fetch ephemeris")
	}

	svs := ephemeris.StateVectors
	total := len(svs)

	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []models.StateVector{}, total, nil
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	return svs[offset:end], total, nil
}

// StateVector returns the record whose epoch string matches exactly.
func (s *TrackerService) StateVector(ctx context.Context, epoch string) (models.StateVector, error) {
	ephemeris, err := s.repo.FetchEphemeris(ctx)
	if err != nil {
		return models.StateVector{}, errors.Wrap(err, "fetch ephemeris")
	}

	for i := range ephemeris.StateVectors {
		if ephemeris.StateVectors[i].Epoch == epoch {
			s.metrics.EpochLookups.WithLabelValues("found").Inc()
			return ephemeris.StateVectors[i], nil
		}
	}

	s.metrics.EpochLookups.WithLabelValues("not_found").Inc()
	return models.StateVector{}, errors.Wrapf(ErrEpochNotFound, "epoch %q", epoch)
}

// Speed returns the matching record and its instantaneous speed in km/s.
func (s *TrackerService) Speed(ctx context.Context, epoch string) (models.StateVector, float64, error) {
	sv, err := s.StateVector(ctx, epoch)
	if err != nil {
		return models.StateVector{}, 0, err
	}
	return sv, sv.Speed(), nil
}

// Location derives the geodetic position for the matching epoch and, when a
// geocoder is configured, a human-readable geoposition.
func (s *TrackerService) Location(ctx context.Context, epoch string) (models.Location, error) {
	sv, err := s.StateVector(ctx, epoch)
	if err != nil {
		return models.Location{}, err
	}
	return s.locate(ctx, sv)
}

// Now finds the state vector closest in time to the current clock and
// reports it with speed and location. Records with unparseable epochs are
// skipped.
func (s *TrackerService) Now(ctx context.Context) (models.NowStatus, error) {
	ephemeris, err := s.repo.FetchEphemeris(ctx)
	if err != nil {
		return models.NowStatus{}, errors.Wrap(err, "fetch ephemeris")
	}

	now := s.clock.Now().UTC()
	closest, delta, found := s.closestTo(now, ephemeris.StateVectors)
	if !found {
		return models.NowStatus{}, errors.New("no state vector with a valid epoch")
	}

	location, err := s.locate(ctx, closest)
	if err != nil {
		return models.NowStatus{}, err
	}

	return models.NowStatus{
		StateVector:  closest,
		Speed:        closest.Speed(),
		Location:     location,
		DeltaSeconds: delta.Seconds(),
	}, nil
}

// Metadata returns the OEM segment header and a dataset summary.
func (s *TrackerService) Metadata(ctx context.Context) (models.Metadata, models.Summary, error) {
	ephemeris, err := s.repo.FetchEphemeris(ctx)
	if err != nil {
		return models.Metadata{}, models.Summary{}, errors.Wrap(err, "fetch ephemeris")
	}

	summary := models.Summary{
		StateVectorCount: len(ephemeris.StateVectors),
	}
	if n := len(ephemeris.StateVectors); n > 0 {
		summary.FirstEpoch = ephemeris.StateVectors[0].Epoch
		summary.LastEpoch = ephemeris.StateVectors[n-1].Epoch

		var sum float64
		for i := range ephemeris.StateVectors {
			sum += ephemeris.StateVectors[i].Speed()
		}
		summary.AverageSpeed = sum / float64(n)
	}

	return ephemeris.Metadata, summary, nil
}

// DebugCache reports whether the dataset blob is cached. On a miss it
// triggers a refresh so the next call finds the data.
func (s *TrackerService) DebugCache(ctx context.Context) (models.Ephemeris, bool, error) {
	inspector, ok := s.repo.(repositories.CacheInspector)
	if !ok {
		return models.Ephemeris{}, false, errors.New("repository has no inspectable cache")
	}

	ephemeris, found, err := inspector.Cached(ctx)
	if err != nil {
		return models.Ephemeris{}, false, err
	}
	if found {
		return ephemeris, true, nil
	}

	s.l.Info("dataset not cached, fetching")
	if _, err := inspector.Refresh(ctx); err != nil {
		s.l.Warning("cache refresh failed", map[string]any{"err": err})
	}
	return models.Ephemeris{}, false, nil
}

func (s *TrackerService) locate(ctx context.Context, sv models.StateVector) (models.Location, error) {
	epochTime, err := sv.EpochTime()
	if err != nil {
		return models.Location{}, errors.Wrapf(err, "invalid epoch %q", sv.Epoch)
	}

	lat, lon, alt := eciToGeodetic(epochTime, sv.X, sv.Y, sv.Z)

	location := models.Location{
		Epoch:       sv.Epoch,
		Latitude:    lat,
		Longitude:   lon,
		Altitude:    alt,
		Geoposition: OverOcean,
	}

	if s.geo != nil {
		name, err := s.geo.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			// Location math is still good; degrade to the ocean marker.
			s.l.Warning("reverse geocode failed", map[string]any{
				"lat": lat,
				"lon": lon,
				"err": err,
			})
		} else if name != "" {
			location.Geoposition = name
		}
	}

	return location, nil
}

func (s *TrackerService) closestTo(now time.Time, svs []models.StateVector) (models.StateVector, time.Duration, bool) {
	var closest models.StateVector
	var best time.Duration = math.MaxInt64
	found := false

	for i := range svs {
		epochTime, err := svs[i].EpochTime()
		if err != nil {
			s.l.Warning("skipping state vector with invalid epoch", map[string]any{
				"epoch": svs[i].Epoch,
			})
			continue
		}

		delta := now.Sub(epochTime)
		if delta < 0 {
			delta = -delta
		}
		if delta < best {
			best = delta
			closest = svs[i]
			found = true
		}
	}

	return closest, best, found
}
