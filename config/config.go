package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings. String fields may come from the YAML
// file; durations are environment-only because yaml.v3 has no native
// duration decoding.
type Config struct {
	AppName    string `envconfig:"APP_NAME" default:"iss-tracker"`
	AppVersion string `envconfig:"APP_VERSION" default:"1.0.0"`
	AppZone    string `envconfig:"APP_ZONE" default:"local"`
	Port       string `envconfig:"PORT" default:"8080"`

	EphemerisURL string        `envconfig:"EPHEMERIS_URL" yaml:"ephemeris_url"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	CacheKey string        `envconfig:"CACHE_KEY" yaml:"cache_key"`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"1h"`

	// Redis is optional; when no address is set the service falls back to
	// an in-process cache.
	RedisAddr     string `envconfig:"REDIS_ADDR" yaml:"redis_addr"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" yaml:"redis_db"`

	Geocoder GeocoderConfig `yaml:"geocoder"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

type GeocoderConfig struct {
	Enabled   bool          `envconfig:"GEOCODER_ENABLED" yaml:"enabled"`
	UserAgent string        `envconfig:"GEOCODER_USER_AGENT" yaml:"user_agent"`
	CacheTTL  time.Duration `envconfig:"GEOCODER_CACHE_TTL" default:"15m"`
}

func NewConfig() *Config {
	return newConfig("config/config.yaml")
}

func newConfig(path string) *Config {
	var cnf Config

	// Read from YAML file first
	if yamlData, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(yamlData, &cnf); err != nil {
			panic(fmt.Sprintf("Warning: failed to parse YAML config: %v\n", err))
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", &cnf); err != nil {
		panic(fmt.Errorf("error environment variable parsing: %w", err))
	}

	// YAML-backed string fields have no struct-tag defaults (defaults would
	// clobber file values), so fall back here.
	if cnf.CacheKey == "" {
		cnf.CacheKey = "iss_state_vector_data"
	}
	if cnf.Geocoder.UserAgent == "" {
		cnf.Geocoder.UserAgent = "iss-tracker"
	}

	return &cnf
}
