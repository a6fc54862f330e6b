package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "flightcache/app"

var tracer = otel.Tracer(instrumentationName)

type appMetricsCollection struct {
	decisionCount metric.Int64Counter
	waitDuration  metric.Float64Histogram
}

var metrics appMetricsCollection

func init() {
	meter := otel.Meter(instrumentationName)

	decisionCount, err := meter.Int64Counter(
		"app/cache_decision_count",
		metric.WithDescription("Cacheable operations by role and outcome"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create cache decision count metric: %w", err))
	}

	waitDuration, err := meter.Float64Histogram(
		"app/cache_wait_duration_seconds",
		metric.WithDescription("Time consumers spent waiting for a producer"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create cache wait duration metric: %w", err))
	}

	metrics = appMetricsCollection{
		decisionCount: decisionCount,
		waitDuration:  waitDuration,
	}
}

func recordDecision(ctx context.Context, role Role, outcome string) {
	metrics.decisionCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", role.String()),
		attribute.String("outcome", outcome),
	))
}

func recordWait(ctx context.Context, outcome string, waited time.Duration) {
	metrics.waitDuration.Record(ctx, waited.Seconds(), metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}
