package app_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/Amund211/flightcache/internal/adapters/cache"
	"github.com/Amund211/flightcache/internal/app"
	"github.com/Amund211/flightcache/internal/domain"
	"github.com/Amund211/flightcache/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestFinalizerFail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		cause error
		level string
		msg   string
	}{
		{
			name:  "response that must not be shared is not reported",
			cause: fmt.Errorf("%w: status code 206", domain.ErrUncacheableResponse),
			level: "INFO",
			msg:   "Abandoned cache entry",
		},
		{
			// Without a Sentry hub in the context the report is downgraded to a warning
			name:  "upstream failure is reported",
			cause: fmt.Errorf("%w: status code 503", domain.ErrUpstreamFailed),
			level: "WARN",
			msg:   "Failed to get Sentry hub from context",
		},
		{
			name:  "unexpected failure is reported",
			cause: errors.New("handler did not return"),
			level: "WARN",
			msg:   "Failed to get Sentry hub from context",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(cache.NewBasicEntryStore())
			buf := &bytes.Buffer{}
			ctx := logging.AddToContext(t.Context(), slog.New(slog.NewJSONHandler(buf, nil)))
			policy := app.Policy{TTL: time.Minute, MaxWait: time.Second}

			ticket := requireProducer(t, h.coordinator.Handle(ctx, "req#fail", policy))
			buf.Reset()

			h.finalizer.Fail(ctx, ticket, c.cause)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			require.Equal(t, c.level, entry["level"])
			require.Equal(t, c.msg, entry["msg"])
			require.Equal(t, 0, h.store.Len())
		})
	}
}
