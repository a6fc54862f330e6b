package ports

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Amund211/flightcache/internal/adapters/cache"
	"github.com/Amund211/flightcache/internal/adapters/scheduler"
	"github.com/Amund211/flightcache/internal/app"
	"github.com/Amund211/flightcache/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestCachedProxyHandler(t *testing.T) {
	t.Parallel()

	var upstreamCalls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(r.Method + " " + r.URL.Path))
	}))
	t.Cleanup(upstream.Close)

	upstreamURL, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := cache.NewTTLEntryStore(time.Hour)
	t.Cleanup(store.Close)
	s := scheduler.NewManual(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))

	noopSentryMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return next
	}

	handler, stop := MakeCachedProxyHandler(
		NewUpstreamProxy(upstreamURL, nil, logger),
		app.NewCoordinator(store),
		app.NewFinalizer(store, s),
		defaultPolicy,
		logger,
		noopSentryMiddleware,
	)
	t.Cleanup(stop)

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "http://flightcache.example.com/items", nil))
		return w
	}

	first := get()
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "GET /items", first.Body.String())
	require.Equal(t, cacheStatusMiss, first.Header().Get(CacheStatusHeader))
	require.NotEmpty(t, first.Header().Get(logging.CorrelationIDHeader))

	second := get()
	require.Equal(t, "GET /items", second.Body.String())
	require.Equal(t, cacheStatusHit, second.Header().Get(CacheStatusHeader))
	require.Equal(t, "text/plain", second.Header().Get("Content-Type"))
	require.NotEqual(t, first.Header().Get(logging.CorrelationIDHeader), second.Header().Get(logging.CorrelationIDHeader))
	require.EqualValues(t, 1, upstreamCalls.Load())

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "http://flightcache.example.com/items", nil))
	require.Equal(t, "POST /items", w.Body.String())
	require.Equal(t, cacheStatusBypass, w.Header().Get(CacheStatusHeader))
	require.EqualValues(t, 2, upstreamCalls.Load())

	s.Advance(defaultPolicy.TTL)
	third := get()
	require.Equal(t, cacheStatusMiss, third.Header().Get(CacheStatusHeader))
	require.EqualValues(t, 3, upstreamCalls.Load())
}
