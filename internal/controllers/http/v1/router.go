package http

import (
	"os"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"iss-tracker/internal/services/tracker"
	"iss-tracker/pkg/logger"
)

type routes struct {
	service *tracker.TrackerService
	l       *logger.Logger
}

func NewRouter(
	app *fiber.App,
	trackerService *tracker.TrackerService,
	l *logger.Logger,
) {
	r := &routes{
		service: trackerService,
		l:       l,
	}

	// Swagger documentation
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		swaggerData, err := os.ReadFile("docs/swagger.json")
		if err != nil {
			return c.Status(fiber.ErrInternalServerError.Code).JSON(fiber.Map{"error": "Failed to read Swagger documentation"})
		}

		c.Set("Content-Type", "application/json")
		return c.Send(swaggerData)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	app.Get("/epochs", r.handleEpochs)
	app.Get("/epochs/:epoch", r.handleEpoch)
	app.Get("/epochs/:epoch/speed", r.handleSpeed)
	app.Get("/epochs/:epoch/location", r.handleLocation)
	app.Get("/now", r.handleNow)
	app.Get("/metadata", r.handleMetadata)
	app.Get("/debug-cache", r.handleDebugCache)
}
