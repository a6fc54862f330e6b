package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Amund211/flightcache/internal/adapters/cache"
	"github.com/Amund211/flightcache/internal/adapters/scheduler"
	"github.com/Amund211/flightcache/internal/app"
	"github.com/Amund211/flightcache/internal/config"
	"github.com/Amund211/flightcache/internal/logging"
	"github.com/Amund211/flightcache/internal/ports"
	"github.com/Amund211/flightcache/internal/reporting"
	"github.com/Amund211/flightcache/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	// Root certificates for upstream TLS when the image has none
	_ "golang.org/x/crypto/x509roots/fallback"
)

const serviceName = "flightcache"

func main() {
	instanceID := uuid.New().String()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("instanceID", instanceID)

	fail := func(msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	config, err := config.ConfigFromEnv()
	if err != nil {
		fail("Failed to load config", "error", err.Error())
	}

	output, err := logging.NewOutput(config.LogFilePath())
	if err != nil {
		fail("Failed to open log output", "error", err.Error())
	}
	logger = slog.New(logging.NewTracingLogHandler(slog.NewJSONHandler(output, nil))).With("instanceID", instanceID)
	slog.SetDefault(logger)
	logger.Info("Loaded config", "config", config.NonSensitiveString())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.OTelEnabled() {
		shutdownOTel, err := telemetry.SetupOTelSDK(ctx, serviceName)
		if err != nil {
			fail("Failed to initialize OpenTelemetry", "error", err.Error())
		}
		defer func() {
			err := shutdownOTel(context.Background())
			if err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(config)
	if err != nil {
		fail("Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	store := cache.NewTTLEntryStore(config.CacheEntryLifetime())
	defer store.Close()

	timers := scheduler.NewTimerScheduler()
	defer timers.Shutdown()

	coordinator := app.NewCoordinator(store)
	finalizer := app.NewFinalizer(store, timers)

	httpTransport := http.DefaultTransport.(*http.Transport).Clone()
	httpTransport.ResponseHeaderTimeout = config.CacheMaxProduction()
	proxy := ports.NewUpstreamProxy(config.UpstreamURL(), httpTransport, logger.With("component", "proxy"))

	cachedProxyHandler, stopRateLimiter := ports.MakeCachedProxyHandler(
		proxy,
		coordinator,
		finalizer,
		app.Policy{
			TTL:           config.CacheTTL(),
			MaxWait:       config.CacheMaxWait(),
			MaxProduction: config.CacheMaxProduction(),
		},
		logger.With("port", "proxy"),
		sentryMiddleware,
	)
	defer stopRateLimiter()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", cachedProxyHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port()),
		Handler:           otelhttp.NewHandler(mux, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	logger.Info("Init complete", "addr", server.Addr, "upstream", config.UpstreamURL().Redacted())

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			fail("Server error", "error", err.Error())
		}
	case <-ctx.Done():
		logger.Info("Shutting down", "cachedEntries", store.Len(), "pendingEvictions", timers.Pending())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			logger.Error("Failed to shut down server", "error", err.Error())
		}
	}

	logger.Info("Server shutdown")
}
