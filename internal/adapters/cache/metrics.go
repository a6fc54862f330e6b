package cache

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type cacheMetricsCollection struct {
	evictionCount metric.Int64Counter
}

var metrics cacheMetricsCollection

func init() {
	const name = "flightcache/cache"
	meter := otel.Meter(name)

	evictionCount, err := meter.Int64Counter(
		"cache/eviction_count",
		metric.WithDescription("Entries removed from the entry store"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create eviction count metric: %w", err))
	}

	metrics = cacheMetricsCollection{
		evictionCount: evictionCount,
	}
}

// A "lifetime_exceeded" eviction of a filling entry means its producer never finished
func recordEviction(ctx context.Context, reason string, state State) {
	metrics.evictionCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
		attribute.String("state", state.String()),
	))
}
