package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Amund211/flightcache/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerMiddleware(t *testing.T) {
	t.Parallel()

	run := func(t *testing.T, request *http.Request) (map[string]any, *httptest.ResponseRecorder) {
		t.Helper()

		buf := &bytes.Buffer{}
		middleware := logging.NewRequestLoggerMiddleware(slog.New(slog.NewJSONHandler(buf, nil)))

		handler := middleware(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("test")
		})

		w := httptest.NewRecorder()
		handler(w, request)

		var logEntry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
		delete(logEntry, "time")

		return logEntry, w
	}

	t.Run("all props", func(t *testing.T) {
		t.Parallel()

		request := httptest.NewRequest(http.MethodGet, "http://example.com/cached/1?query=a", nil)
		request.Header.Set("User-Agent", "user-agent/1.0")
		request.Header.Set(logging.CorrelationIDHeader, "my-correlation-id")

		entry, w := run(t, request)
		require.Equal(t, map[string]any{
			"level":         "INFO",
			"msg":           "test",
			"correlationID": "my-correlation-id",
			"methodPath":    "GET /cached/1",
			"userAgent":     "user-agent/1.0",
		}, entry)
		require.Equal(t, "my-correlation-id", w.Header().Get(logging.CorrelationIDHeader))
	})

	t.Run("missing props", func(t *testing.T) {
		t.Parallel()

		request := httptest.NewRequest(http.MethodPost, "http://example.com/other", nil)
		request.Header.Del("User-Agent")

		entry, w := run(t, request)
		require.Equal(t, "<missing>", entry["userAgent"])
		require.Equal(t, "POST /other", entry["methodPath"])

		correlationID, ok := entry["correlationID"].(string)
		require.True(t, ok)
		_, err := uuid.Parse(correlationID)
		require.NoError(t, err)
		require.Equal(t, correlationID, w.Header().Get(logging.CorrelationIDHeader))
	})

	t.Run("without middleware", func(t *testing.T) {
		t.Parallel()

		logging.FromContext(context.Background()).Info("don't crash when no logger in context")
	})
}
