package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"iss-tracker/config"
	v1 "iss-tracker/internal/controllers/http/v1"
	"iss-tracker/internal/repositories"
	"iss-tracker/internal/services/tracker"
	"iss-tracker/pkg/httpserver"
	"iss-tracker/pkg/logger"
	"iss-tracker/pkg/observe"
)

// @title ISS Tracker API
// @version 1.0.0
// @description Serves the public ISS OEM trajectory feed with cached lookups:
// @description state vectors by epoch, instantaneous speed, geodetic location, and the
// @description closest epoch to the current time.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @tag.name Epochs
// @tag.description State vector queries
// @tag.name Now
// @tag.description Closest epoch to the current time
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	_ = godotenv.Load()

	cnf := config.NewConfig()

	logWriters := []io.Writer{os.Stdout}
	if cnf.SentryDSN != "" {
		logWriters = append(logWriters, observe.NewSentryHook(cnf.AppZone, cnf.AppName, cnf.SentryDSN, false))
	}
	l := logger.NewZapLogger(cnf.AppName, cnf.AppZone, logWriters...)

	metrics := observe.NewMetrics()

	app := httpserver.InitFiberServer(cnf.AppName)

	var cache repositories.BlobCache
	if cnf.RedisAddr != "" {
		redisCache := NewRedisBlobCache(ctx, cnf, l)
		defer redisCache.Close()
		cache = redisCache
	} else {
		l.Info("no redis address configured, using in-process cache")
		cache = repositories.NewMemoryCache()
	}

	httpClient := &http.Client{Timeout: cnf.FetchTimeout}

	nasa := repositories.NewNASARepository(cnf.EphemerisURL, l, httpClient)
	repo := repositories.NewCachedEphemerisRepository(nasa, cache, cnf.CacheKey, cnf.CacheTTL, metrics, l)

	var geocoder repositories.Geocoder
	if cnf.Geocoder.Enabled {
		client := repositories.NewNominatimGeocoder(cnf.Geocoder.UserAgent, metrics, l, httpClient)
		geocoder = repositories.NewCachedGeocoder(client, repositories.NewMemoryCache(), cnf.Geocoder.CacheTTL, metrics)
	} else {
		l.Info("reverse geocoding disabled")
	}

	service := tracker.NewTrackerService(repo, geocoder, metrics, clockwork.NewRealClock(), l)

	v1.NewRouter(
		app,
		service,
		l,
	)

	// Warm the cache at boot so the first request does not pay for the
	// download.
	go func() {
		warmCtx, warmCancel := context.WithTimeout(ctx, cnf.FetchTimeout)
		defer warmCancel()
		if _, err := repo.FetchEphemeris(warmCtx); err != nil {
			l.Warning("cache warm-up failed", map[string]any{"err": err})
		}
	}()

	go func() {
		if err := app.Listen(":" + cnf.Port); err != nil {
			l.Fatal("cannot run the server", map[string]any{"err": err})
		}
	}()

	l.Info("application started successfully", map[string]any{"port": cnf.Port})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer func() {
		l.Warning("stopping application services")
		signal.Stop(sigCh)
		close(sigCh)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		_ = app.ShutdownWithContext(shutdownCtx)
		_ = l.Stop()
		cancel()
	}()

	select {
	case <-sigCh:
		fmt.Println("received shutdown signal")
	case <-ctx.Done():
		fmt.Println("context cancelled")
	}
}

// NewRedisBlobCache connects to Redis, logging whether it is reachable. An
// unreachable instance is not fatal: the cache degrades to misses and the
// feed is fetched per request until Redis recovers.
func NewRedisBlobCache(ctx context.Context, cnf *config.Config, l *logger.Logger) *repositories.RedisCache {
	cache := repositories.NewRedisCache(cnf.RedisAddr, cnf.RedisPassword, cnf.RedisDB)

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := cache.Ping(pingCtx); err != nil {
		l.Warning("redis unreachable at startup", map[string]any{
			"addr": cnf.RedisAddr,
			"err":  err,
		})
	} else {
		l.Info("connected to redis", map[string]any{"addr": cnf.RedisAddr})
	}

	return cache
}
