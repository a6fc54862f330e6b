package app

import (
	"context"
	"time"

	"github.com/Amund211/flightcache/internal/adapters/cache"
	"github.com/Amund211/flightcache/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Coordinator decides, for a cacheable operation, whether the caller produces the
// response or consumes the response of a concurrent producer
type Coordinator struct {
	store cache.EntryStore
}

func NewCoordinator(store cache.EntryStore) *Coordinator {
	return &Coordinator{store: store}
}

// Handle never fails. When the response can't be served from the cache within
// policy.MaxWait the caller is told to proceed uncached as a consumer, which costs a
// duplicate computation instead of an error.
func (c *Coordinator) Handle(ctx context.Context, fingerprint string, policy Policy) Decision {
	ctx, span := tracer.Start(ctx, "Coordinator.Handle", trace.WithAttributes(
		attribute.String("cache.fingerprint", fingerprint),
	))
	defer span.End()

	logger := logging.FromContext(ctx)
	deadline := time.Now().Add(policy.MaxWait)

	proceed := func(role Role, entry *cache.Entry, outcome string) Decision {
		span.SetAttributes(
			attribute.String("cache.role", role.String()),
			attribute.String("cache.outcome", outcome),
		)
		recordDecision(ctx, role, outcome)
		return Decision{
			ticket: &Ticket{
				role:        role,
				fingerprint: fingerprint,
				entry:       entry,
				policy:      policy,
			},
		}
	}

	var abandoned *cache.Entry
	for {
		entry := c.store.GetOrCreate(fingerprint)

		if entry.Claim() {
			logger.InfoContext(ctx, "Handling cacheable request", "cache", "miss", "role", RoleProducer.String())
			return proceed(RoleProducer, entry, "claimed")
		}

		if entry == abandoned {
			// The failed producer has not unmapped its entry yet
			logger.InfoContext(ctx, "Cache entry abandoned by producer, proceeding uncached")
			return proceed(RoleConsumer, entry, cache.OutcomeAbandoned.String())
		}

		waitStart := time.Now()
		response, outcome := entry.AwaitReady(ctx, time.Until(deadline))
		recordWait(ctx, outcome.String(), time.Since(waitStart))

		switch outcome {
		case cache.OutcomeReady:
			logger.InfoContext(ctx, "Handling cacheable request", "cache", "hit", "role", RoleConsumer.String())
			decision := proceed(RoleConsumer, entry, outcome.String())
			decision.response = response
			decision.shortCircuit = true
			return decision
		case cache.OutcomeAbandoned:
			if time.Now().Before(deadline) {
				logger.InfoContext(ctx, "Cache entry abandoned by producer, retrying")
				abandoned = entry
				continue
			}
			logger.InfoContext(ctx, "Cache entry abandoned by producer, proceeding uncached")
		case cache.OutcomeInterrupted:
			logger.WarnContext(ctx, "Interrupted while waiting for cached response, proceeding uncached", "error", context.Cause(ctx))
		case cache.OutcomeTimedOut:
			logger.InfoContext(ctx, "Timed out waiting for cached response, proceeding uncached", "maxWait", policy.MaxWait.String())
		}

		return proceed(RoleConsumer, entry, outcome.String())
	}
}
