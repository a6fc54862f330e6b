package ports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/Amund211/flightcache/internal/domain"
	"github.com/Amund211/flightcache/internal/logging"
	"github.com/Amund211/flightcache/internal/reporting"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewUpstreamProxy forwards requests to the origin server at upstream.
//
// A nil transport uses http.DefaultTransport.
func NewUpstreamProxy(upstream *url.URL, transport http.RoundTripper, logger *slog.Logger) *httputil.ReverseProxy {
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		Transport: otelhttp.NewTransport(transport),
		ErrorLog:  slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			ctx := r.Context()

			statusCode := http.StatusBadGateway

			if errors.Is(err, context.Canceled) {
				logging.FromContext(ctx).InfoContext(ctx, "Upstream request canceled", "error", err, "statusCode", statusCode)
			} else {
				reporting.Report(ctx, fmt.Errorf("%w: %w", domain.ErrUpstreamFailed, err), map[string]string{
					"upstream": upstream.Redacted(),
				})
			}

			http.Error(w, "Bad gateway", statusCode)
		},
	}
}
