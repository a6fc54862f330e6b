package ports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Amund211/flightcache/internal/app"
	"github.com/Amund211/flightcache/internal/domain"
	"github.com/Amund211/flightcache/internal/logging"
)

const CacheStatusHeader = "X-Cache"

const (
	cacheStatusHit    = "HIT"
	cacheStatusMiss   = "MISS"
	cacheStatusBypass = "BYPASS"
)

// Headers describing a single exchange, which are not replayed to other clients
var perRequestHeaders = []string{CacheStatusHeader, logging.CorrelationIDHeader}

var errHandlerDidNotReturn = errors.New("handler did not return")

// Range and conditional requests are answered relative to what the client already has
var clientSpecificRequestHeaders = []string{
	"Range",
	"If-Range",
	"If-Match",
	"If-None-Match",
	"If-Modified-Since",
	"If-Unmodified-Since",
}

func isCacheableRequest(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	for _, name := range clientSpecificRequestHeaders {
		if r.Header.Get(name) != "" {
			return false
		}
	}
	return !strings.Contains(strings.ToLower(r.Header.Get("Cache-Control")), "no-store")
}

// A response must not be shared if it failed or is specific to the client
func checkShareable(response domain.StoredResponse) error {
	if response.StatusCode() >= 500 {
		return fmt.Errorf("%w: status code %d", domain.ErrUpstreamFailed, response.StatusCode())
	}
	switch response.StatusCode() {
	case http.StatusPartialContent, http.StatusNotModified:
		return fmt.Errorf("%w: status code %d", domain.ErrUncacheableResponse, response.StatusCode())
	}

	header := response.Header()
	if len(header.Values("Set-Cookie")) > 0 {
		return fmt.Errorf("%w: response sets cookies", domain.ErrUncacheableResponse)
	}
	cacheControl := strings.ToLower(strings.Join(header.Values("Cache-Control"), ","))
	if strings.Contains(cacheControl, "no-store") || strings.Contains(cacheControl, "private") {
		return fmt.Errorf("%w: Cache-Control: %s", domain.ErrUncacheableResponse, cacheControl)
	}
	return nil
}

// BuildResponseCacheMiddleware serves concurrent identical requests from a single run of
// the wrapped handler.
//
// The first request for a fingerprint runs the handler as the producer, and its response
// is retained for policy.TTL. Concurrent and later requests are answered with the
// retained response. Requests that can't be answered from the cache within
// policy.MaxWait run the handler themselves.
//
// Responses with a body larger than maxBodySize are forwarded but not retained.
// maxBodySize <= 0 disables the limit.
func BuildResponseCacheMiddleware(
	coordinator *app.Coordinator,
	finalizer *app.Finalizer,
	policy app.Policy,
	keyFunc func(r *http.Request) string,
	maxBodySize int,
) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !isCacheableRequest(r) {
				w.Header().Set(CacheStatusHeader, cacheStatusBypass)
				next(w, r)
				return
			}

			fingerprint := keyFunc(r)
			ctx := logging.AddMetaToContext(r.Context(), slog.String(logging.FingerprintKey, fingerprint))

			decision := coordinator.Handle(ctx, fingerprint, policy)
			if response, ok := decision.ShortCircuit(); ok {
				w.Header().Set(CacheStatusHeader, cacheStatusHit)
				err := response.WriteTo(w)
				if err != nil {
					logging.FromContext(ctx).InfoContext(ctx, "Failed to write cached response", "error", err)
				}
				return
			}

			ticket := decision.Ticket()
			ctx = app.WithTicket(ctx, ticket)
			ctx = logging.AddMetaToContext(ctx, slog.String(logging.CacheRoleKey, ticket.Role().String()))
			w.Header().Set(CacheStatusHeader, cacheStatusMiss)

			if ticket.Role() != app.RoleProducer {
				next(w, r.WithContext(ctx))
				return
			}

			// Consumers are waiting for the response, so the production must outlive this client
			produceCtx := context.WithoutCancel(ctx)
			if policy.MaxProduction > 0 {
				var cancel context.CancelFunc
				produceCtx, cancel = context.WithTimeout(produceCtx, policy.MaxProduction)
				defer cancel()
			}
			recorder := newResponseRecorder(w, maxBodySize)

			settled := false
			defer func() {
				if !settled {
					finalizer.Fail(ctx, ticket, errHandlerDidNotReturn)
				}
			}()

			next(recorder, r.WithContext(produceCtx))
			settled = true

			if recorder.clientErr != nil {
				logging.FromContext(ctx).InfoContext(ctx, "Client went away during production", "error", recorder.clientErr)
			}

			if recorder.bodyTooLarge {
				finalizer.Fail(ctx, ticket, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrUncacheableResponse, maxBodySize))
				return
			}

			produced := recorder.stored()
			if err := checkShareable(produced); err != nil {
				finalizer.Fail(ctx, ticket, err)
				return
			}

			finalizer.Complete(ctx, ticket, produced)
		}
	}
}

// responseRecorder forwards the response to the client while keeping a copy.
//
// Failing writes to the client are not reported to the handler, so that the response
// is produced in full for the waiting consumers.
type responseRecorder struct {
	http.ResponseWriter

	statusCode   int
	header       http.Header
	body         bytes.Buffer
	maxBodySize  int
	bodyTooLarge bool
	wroteHeader  bool
	clientErr    error
}

func newResponseRecorder(w http.ResponseWriter, maxBodySize int) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, maxBodySize: maxBodySize}
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	// Informational responses are forwarded but not recorded
	if statusCode >= 100 && statusCode < 200 {
		r.ResponseWriter.WriteHeader(statusCode)
		return
	}

	r.wroteHeader = true
	r.statusCode = statusCode
	r.header = r.ResponseWriter.Header().Clone()
	for _, name := range perRequestHeaders {
		r.header.Del(name)
	}

	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}

	if !r.bodyTooLarge {
		if r.maxBodySize > 0 && r.body.Len()+len(p) > r.maxBodySize {
			// Keep forwarding, but stop retaining
			r.bodyTooLarge = true
			r.body = bytes.Buffer{}
		} else {
			r.body.Write(p)
		}
	}

	if r.clientErr == nil {
		_, r.clientErr = r.ResponseWriter.Write(p)
	}
	return len(p), nil
}

func (r *responseRecorder) Flush() {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if r.clientErr != nil {
		return
	}
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the client connection
func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *responseRecorder) stored() domain.StoredResponse {
	if !r.wroteHeader {
		// The handler returned without writing anything
		r.WriteHeader(http.StatusOK)
	}
	return domain.NewStoredResponse(r.statusCode, r.header, r.body.Bytes())
}
