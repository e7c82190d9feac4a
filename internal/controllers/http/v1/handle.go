package http

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"iss-tracker/internal/models"
	"iss-tracker/internal/services/tracker"
)

// EpochsResponse is one page of the ephemeris dataset.
type EpochsResponse struct {
	Limit        int                  `json:"limit" example:"100"`
	Offset       int                  `json:"offset" example:"0"`
	Total        int                  `json:"total" example:"5000"`
	StateVectors []models.StateVector `json:"state_vectors"`
}

// SpeedResponse reports the instantaneous speed at one epoch.
type SpeedResponse struct {
	Epoch string  `json:"epoch" example:"2025-047T12:00:00.000Z"`
	Speed float64 `json:"speed" example:"7.6612"`
}

// NowResponse reports the state vector closest to the current time.
type NowResponse struct {
	Epoch        string  `json:"epoch" example:"2025-047T12:00:00.000Z"`
	DeltaSeconds float64 `json:"delta_seconds" example:"118.4"`
	Speed        float64 `json:"speed" example:"7.6612"`
	Latitude     float64 `json:"latitude" example:"8.3252"`
	Longitude    float64 `json:"longitude" example:"-52.1459"`
	Altitude     float64 `json:"altitude" example:"422.7541"`
	Geoposition  string  `json:"geoposition" example:"Amapá, Brazil"`
}

// MetadataResponse carries the OEM segment header plus a dataset summary.
type MetadataResponse struct {
	Metadata models.Metadata `json:"metadata"`
	Summary  models.Summary  `json:"summary"`
}

// DebugCacheResponse reports the cache state of the dataset blob.
type DebugCacheResponse struct {
	Status           string           `json:"status" example:"found"`
	StateVectorCount int              `json:"state_vector_count,omitempty" example:"5000"`
	Metadata         *models.Metadata `json:"metadata,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error" example:"epoch not found"`
}

// GetEpochs godoc
// @Summary List state vectors
// @Description Returns the ephemeris dataset, paginated with limit and offset
// @Tags Epochs
// @Produce json
// @Param limit query integer false "Maximum records to return (default: all)" minimum(1) example(100)
// @Param offset query integer false "Records to skip from the start" minimum(0) example(200)
// @Success 200 {object} EpochsResponse "Successful response"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /epochs [get]
func (r *routes) handleEpochs(c *fiber.Ctx) error {
	limit := r.intQuery(c, "limit", 0)
	offset := r.intQuery(c, "offset", 0)

	svs, total, err := r.service.StateVectors(c.Context(), limit, offset)
	if err != nil {
		r.l.Error(err, map[string]any{"limit": limit, "offset": offset})
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to fetch ephemeris data",
		})
	}

	return c.JSON(EpochsResponse{
		Limit:        limit,
		Offset:       offset,
		Total:        total,
		StateVectors: svs,
	})
}

// GetEpoch godoc
// @Summary Get a state vector
// @Description Returns the state vector for the given epoch
// @Tags Epochs
// @Produce json
// @Param epoch path string true "Epoch timestamp" example(2025-047T12:00:00.000Z)
// @Success 200 {object} models.StateVector "Successful response"
// @Failure 404 {object} ErrorResponse "Epoch not in the dataset"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /epochs/{epoch} [get]
func (r *routes) handleEpoch(c *fiber.Ctx) error {
	epoch := r.epochParam(c)

	sv, err := r.service.StateVector(c.Context(), epoch)
	if err != nil {
		return r.epochError(c, epoch, err)
	}

	return c.JSON(sv)
}

// GetEpochSpeed godoc
// @Summary Get instantaneous speed
// @Description Returns the magnitude of the velocity vector at the given epoch
// @Tags Epochs
// @Produce json
// @Param epoch path string true "Epoch timestamp" example(2025-047T12:00:00.000Z)
// @Success 200 {object} SpeedResponse "Successful response"
// @Failure 404 {object} ErrorResponse "Epoch not in the dataset"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /epochs/{epoch}/speed [get]
func (r *routes) handleSpeed(c *fiber.Ctx) error {
	epoch := r.epochParam(c)

	sv, speed, err := r.service.Speed(c.Context(), epoch)
	if err != nil {
		return r.epochError(c, epoch, err)
	}

	return c.JSON(SpeedResponse{
		Epoch: sv.Epoch,
		Speed: speed,
	})
}

// GetEpochLocation godoc
// @Summary Get geodetic location
// @Description Returns latitude, longitude, altitude and geoposition at the given epoch
// @Tags Epochs
// @Produce json
// @Param epoch path string true "Epoch timestamp" example(2025-047T12:00:00.000Z)
// @Success 200 {object} models.Location "Successful response"
// @Failure 404 {object} ErrorResponse "Epoch not in the dataset"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /epochs/{epoch}/location [get]
func (r *routes) handleLocation(c *fiber.Ctx) error {
	epoch := r.epochParam(c)

	location, err := r.service.Location(c.Context(), epoch)
	if err != nil {
		return r.epochError(c, epoch, err)
	}

	return c.JSON(location)
}

// GetNow godoc
// @Summary Get current position
// @Description Returns speed and location for the epoch closest to the current time
// @Tags Now
// @Produce json
// @Success 200 {object} NowResponse "Successful response"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /now [get]
func (r *routes) handleNow(c *fiber.Ctx) error {
	status, err := r.service.Now(c.Context())
	if err != nil {
		r.l.Error(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to determine current position",
		})
	}

	return c.JSON(NowResponse{
		Epoch:        status.StateVector.Epoch,
		DeltaSeconds: status.DeltaSeconds,
		Speed:        status.Speed,
		Latitude:     status.Location.Latitude,
		Longitude:    status.Location.Longitude,
		Altitude:     status.Location.Altitude,
		Geoposition:  status.Location.Geoposition,
	})
}

// GetMetadata godoc
// @Summary Get dataset metadata
// @Description Returns the OEM segment header and a summary of the dataset
// @Tags Metadata
// @Produce json
// @Success 200 {object} MetadataResponse "Successful response"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /metadata [get]
func (r *routes) handleMetadata(c *fiber.Ctx) error {
	metadata, summary, err := r.service.Metadata(c.Context())
	if err != nil {
		r.l.Error(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to fetch ephemeris data",
		})
	}

	return c.JSON(MetadataResponse{
		Metadata: metadata,
		Summary:  summary,
	})
}

// GetDebugCache godoc
// @Summary Inspect the dataset cache
// @Description Reports whether the dataset blob is cached; triggers a fetch on a miss
// @Tags Debug
// @Produce json
// @Success 200 {object} DebugCacheResponse "Dataset is cached"
// @Failure 404 {object} DebugCacheResponse "Dataset was not cached"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /debug-cache [get]
func (r *routes) handleDebugCache(c *fiber.Ctx) error {
	ephemeris, found, err := r.service.DebugCache(c.Context())
	if err != nil {
		r.l.Error(err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to inspect cache",
		})
	}

	if !found {
		return c.Status(fiber.StatusNotFound).JSON(DebugCacheResponse{
			Status: "not found",
		})
	}

	return c.JSON(DebugCacheResponse{
		Status:           "found",
		StateVectorCount: len(ephemeris.StateVectors),
		Metadata:         &ephemeris.Metadata,
	})
}

// epochParam extracts the epoch path parameter, unescaping the encoded
// colons browsers produce.
func (r *routes) epochParam(c *fiber.Ctx) string {
	epoch := c.Params("epoch")
	if decoded, err := url.PathUnescape(epoch); err == nil {
		return decoded
	}
	return epoch
}

// intQuery parses an optional non-negative integer query parameter, falling
// back to the default on bad input.
func (r *routes) intQuery(c *fiber.Ctx, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		r.l.Warning("invalid query parameter, using default", map[string]any{
			"param":    name,
			"provided": raw,
			"default":  fallback,
		})
		return fallback
	}
	return value
}

func (r *routes) epochError(c *fiber.Ctx, epoch string, err error) error {
	if errors.Is(err, tracker.ErrEpochNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "epoch not found",
		})
	}

	r.l.Error(err, map[string]any{"epoch": epoch})
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error: "Failed to fetch ephemeris data",
	})
}
