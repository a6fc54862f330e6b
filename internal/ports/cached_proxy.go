package ports

import (
	"log/slog"
	"net/http"

	"github.com/Amund211/flightcache/internal/app"
	"github.com/Amund211/flightcache/internal/logging"
	"github.com/Amund211/flightcache/internal/ratelimiting"
	"github.com/Amund211/flightcache/internal/reporting"
)

// Larger responses are proxied without being cached
const maxStoredBodySize = 16 << 20

// MakeCachedProxyHandler serves requests through the response cache, forwarding cache
// misses to upstream.
//
// The returned func stops the rate limiter.
func MakeCachedProxyHandler(
	upstream http.Handler,
	coordinator *app.Coordinator,
	finalizer *app.Finalizer,
	policy app.Policy,
	rootLogger *slog.Logger,
	sentryMiddleware func(http.HandlerFunc) http.HandlerFunc,
) (http.HandlerFunc, func()) {
	ipLimiter, stopLimiter := ratelimiting.NewTokenBucketRateLimiter(
		ratelimiting.RefillPerSecond(20),
		ratelimiting.BurstSize(600),
	)
	ipRateLimiter := ratelimiting.NewRequestBasedRateLimiter(
		ipLimiter,
		ratelimiting.IPKeyFunc,
	)

	middleware := ComposeMiddlewares(
		buildMetricsMiddleware("proxy"),
		logging.NewRequestLoggerMiddleware(rootLogger),
		sentryMiddleware,
		reporting.NewAddMetaMiddleware("proxy"),
		NewRateLimitMiddleware(ipRateLimiter, makeOnLimitExceeded(ipRateLimiter)),
		BuildResponseCacheMiddleware(coordinator, finalizer, policy, RequestFingerprint, maxStoredBodySize),
	)

	return middleware(upstream.ServeHTTP), stopLimiter
}
