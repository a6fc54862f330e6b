package logging_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/Amund211/flightcache/internal/logging"
	"github.com/stretchr/testify/require"
)

// readEntries decodes every JSON log line written to buf, without the timestamp
func readEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var entries []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		require.Contains(t, entry, "time")
		delete(entry, "time")
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())

	return entries
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("request logger", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
		ctx := logging.AddToContext(t.Context(), logger)

		require.Same(t, logger, logging.FromContext(ctx))
	})

	t.Run("fallback", func(t *testing.T) {
		t.Parallel()

		require.NotNil(t, logging.FromContext(t.Context()))
	})
}

func TestAddMetaToContext(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	rootLogger := slog.New(slog.NewJSONHandler(buf, nil)).With(slog.String("instanceID", "instance-1"))
	ctx := logging.AddToContext(t.Context(), rootLogger)

	require.Equal(t, ctx, logging.AddMetaToContext(ctx))

	keyed := logging.AddMetaToContext(ctx, slog.String(logging.FingerprintKey, "3f2a"))
	produced := logging.AddMetaToContext(keyed, slog.String(logging.CacheRoleKey, "producer"))
	// The latest value wins when the line is decoded
	rekeyed := logging.AddMetaToContext(produced, slog.String(logging.FingerprintKey, "9bc1"))

	logging.FromContext(ctx).Info("received")
	logging.FromContext(keyed).Info("handling")
	logging.FromContext(produced).Info("published")
	logging.FromContext(rekeyed).Warn("retried")

	require.Equal(t, []map[string]any{
		{
			"level":      "INFO",
			"msg":        "received",
			"instanceID": "instance-1",
		},
		{
			"level":                "INFO",
			"msg":                  "handling",
			"instanceID":           "instance-1",
			logging.FingerprintKey: "3f2a",
		},
		{
			"level":                "INFO",
			"msg":                  "published",
			"instanceID":           "instance-1",
			logging.FingerprintKey: "3f2a",
			logging.CacheRoleKey:   "producer",
		},
		{
			"level":                "WARN",
			"msg":                  "retried",
			"instanceID":           "instance-1",
			logging.FingerprintKey: "9bc1",
			logging.CacheRoleKey:   "producer",
		},
	}, readEntries(t, buf))
}
