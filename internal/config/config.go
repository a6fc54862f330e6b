package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const (
	defaultPort          = "8080"
	defaultCacheTTL      = 10 * time.Second
	defaultEntryLifetime = 1 * time.Hour
	defaultMaxProduction = 30 * time.Second
)

type Config struct {
	port               string
	upstreamURL        *url.URL
	sentryDSN          string
	cacheTTL           time.Duration
	cacheMaxWait       time.Duration
	cacheEntryLifetime time.Duration
	cacheMaxProduction time.Duration
	logFilePath        string
	otelEnabled        bool
	env                environment
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) UpstreamURL() *url.URL {
	copied := *c.upstreamURL
	return &copied
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

// How long a cached response is retained
func (c *Config) CacheTTL() time.Duration {
	return c.cacheTTL
}

// How long a request waits for a concurrent identical request before going upstream itself
func (c *Config) CacheMaxWait() time.Duration {
	return c.cacheMaxWait
}

// Upper bound on how long an entry may stay in the cache, also if its producer never finished
func (c *Config) CacheEntryLifetime() time.Duration {
	return c.cacheEntryLifetime
}

// How long a request that fills the cache may spend upstream. Zero means no limit.
func (c *Config) CacheMaxProduction() time.Duration {
	return c.cacheMaxProduction
}

func (c *Config) LogFilePath() string {
	return c.logFilePath
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) Environment() string {
	return string(c.env)
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, port: %s, upstream: %s, cacheTTL: %s, cacheMaxWait: %s, cacheEntryLifetime: %s, cacheMaxProduction: %s, otel: %t, ...}",
		string(c.env),
		c.port,
		c.upstreamURL.Redacted(),
		c.cacheTTL,
		c.cacheMaxWait,
		c.cacheEntryLifetime,
		c.cacheMaxProduction,
		c.otelEnabled,
	)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key, value string, err error) (Config, error) {
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s (%s): %w", ErrInvalidValue, key, value, err)
		}
		return Config{}, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, value)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("FLIGHTCACHE_ENVIRONMENT")
	if !ok {
		return missingKey("FLIGHTCACHE_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return invalidValue("FLIGHTCACHE_ENVIRONMENT", rawEnv, nil)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	rawUpstreamURL := os.Getenv("UPSTREAM_URL")
	if rawUpstreamURL == "" {
		return missingKey("UPSTREAM_URL")
	}
	upstreamURL, err := url.Parse(rawUpstreamURL)
	if err != nil {
		return invalidValue("UPSTREAM_URL", rawUpstreamURL, err)
	}
	if (upstreamURL.Scheme != "http" && upstreamURL.Scheme != "https") || upstreamURL.Host == "" {
		return invalidValue("UPSTREAM_URL", rawUpstreamURL, nil)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return invalidValue("PORT", port, err)
	}

	durationOrDefault := func(key string, fallback time.Duration) (time.Duration, error) {
		raw := os.Getenv(key)
		if raw == "" {
			return fallback, nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %s (%s): %w", ErrInvalidValue, key, raw, err)
		}
		if d < 0 {
			return 0, fmt.Errorf("%w: %s (%s): must not be negative", ErrInvalidValue, key, raw)
		}
		return d, nil
	}

	cacheTTL, err := durationOrDefault("CACHE_TTL", defaultCacheTTL)
	if err != nil {
		return Config{}, err
	}
	// Wait at most as long as the response would be cached by default
	cacheMaxWait, err := durationOrDefault("CACHE_MAX_WAIT", cacheTTL)
	if err != nil {
		return Config{}, err
	}
	cacheEntryLifetime, err := durationOrDefault("CACHE_ENTRY_LIFETIME", defaultEntryLifetime)
	if err != nil {
		return Config{}, err
	}
	cacheMaxProduction, err := durationOrDefault("CACHE_MAX_PRODUCTION", defaultMaxProduction)
	if err != nil {
		return Config{}, err
	}
	// The lifetime counts from when the entry is claimed, so it has to cover the
	// production as well as the TTL
	if cacheEntryLifetime != 0 {
		if cacheMaxProduction == 0 {
			return Config{}, fmt.Errorf("%w: CACHE_ENTRY_LIFETIME (%s) requires a CACHE_MAX_PRODUCTION", ErrInvalidValue, cacheEntryLifetime)
		}
		if cacheEntryLifetime <= cacheMaxProduction+cacheTTL {
			return Config{}, fmt.Errorf(
				"%w: CACHE_ENTRY_LIFETIME (%s) must be longer than CACHE_MAX_PRODUCTION (%s) + CACHE_TTL (%s)",
				ErrInvalidValue, cacheEntryLifetime, cacheMaxProduction, cacheTTL,
			)
		}
	}

	otelEnabled := false
	if rawOTelEnabled := os.Getenv("OTEL_ENABLED"); rawOTelEnabled != "" {
		otelEnabled, err = strconv.ParseBool(rawOTelEnabled)
		if err != nil {
			return invalidValue("OTEL_ENABLED", rawOTelEnabled, err)
		}
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logFilePath := os.Getenv("LOG_FILE_PATH")

	if env == production || env == staging {
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		port:               port,
		upstreamURL:        upstreamURL,
		sentryDSN:          sentryDSN,
		cacheTTL:           cacheTTL,
		cacheMaxWait:       cacheMaxWait,
		cacheEntryLifetime: cacheEntryLifetime,
		cacheMaxProduction: cacheMaxProduction,
		logFilePath:        logFilePath,
		otelEnabled:        otelEnabled,
		env:                env,
	}, nil
}
