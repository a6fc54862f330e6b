package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/Amund211/flightcache/internal/logging"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestTracingLogHandler(t *testing.T) {
	t.Parallel()

	newLogger := func(buf *bytes.Buffer) *slog.Logger {
		return slog.New(logging.NewTracingLogHandler(slog.NewJSONHandler(buf, nil))).With("component", "test")
	}

	t.Run("adds span context", func(t *testing.T) {
		t.Parallel()

		traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		require.NoError(t, err)
		spanID, err := trace.SpanIDFromHex("0102030405060708")
		require.NoError(t, err)

		ctx := trace.ContextWithSpanContext(t.Context(), trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		}))

		buf := &bytes.Buffer{}
		newLogger(buf).InfoContext(ctx, "test")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.Equal(t, "0102030405060708090a0b0c0d0e0f10", entry["traceID"])
		require.Equal(t, "0102030405060708", entry["spanID"])
		require.Equal(t, true, entry["traceSampled"])
		require.Equal(t, "test", entry["component"])
	})

	t.Run("no span", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		newLogger(buf).InfoContext(t.Context(), "test")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		require.NotContains(t, entry, "traceID")
	})
}
