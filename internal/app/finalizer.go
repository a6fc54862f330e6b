package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amund211/flightcache/internal/adapters/cache"
	"github.com/Amund211/flightcache/internal/adapters/scheduler"
	"github.com/Amund211/flightcache/internal/domain"
	"github.com/Amund211/flightcache/internal/logging"
	"github.com/Amund211/flightcache/internal/reporting"
)

// Finalizer publishes the responses computed by producers and schedules their eviction
type Finalizer struct {
	store     cache.EntryStore
	scheduler scheduler.Scheduler
}

func NewFinalizer(store cache.EntryStore, scheduler scheduler.Scheduler) *Finalizer {
	return &Finalizer{
		store:     store,
		scheduler: scheduler,
	}
}

// Complete publishes produced for the waiting consumers and evicts it after the TTL.
// Tickets that are not producers are ignored.
// Completing the same ticket twice panics.
func (f *Finalizer) Complete(ctx context.Context, ticket *Ticket, produced domain.StoredResponse) {
	if ticket == nil || ticket.role != RoleProducer {
		return
	}

	ticket.entry.Publish(produced)
	recordDecision(ctx, RoleProducer, "published")

	fingerprint := ticket.fingerprint
	ttl := ticket.policy.TTL
	if ttl <= 0 {
		f.store.Invalidate(fingerprint)
		return
	}

	// NOTE: The task must not use ctx, it runs after the operation has ended
	f.scheduler.AfterFunc(ttl, func() {
		f.store.Invalidate(fingerprint)
	})

	logging.FromContext(ctx).InfoContext(ctx, "Published cached response", "ttl", ttl.String())
}

// Fail abandons the entry of a producer whose computation failed.
// Causes other than domain.ErrUncacheableResponse are reported.
//
// The fingerprint is unmapped before waking the consumers, so that they find a fresh
// entry when they retry and one of them can become the new producer.
func (f *Finalizer) Fail(ctx context.Context, ticket *Ticket, cause error) {
	if ticket == nil || ticket.role != RoleProducer {
		return
	}

	f.store.Invalidate(ticket.fingerprint)
	ticket.entry.Abandon()
	recordDecision(ctx, RoleProducer, "abandoned")

	if errors.Is(cause, domain.ErrUncacheableResponse) {
		logging.FromContext(ctx).InfoContext(ctx, "Abandoned cache entry", "reason", cause)
		return
	}

	reporting.Report(ctx, fmt.Errorf("abandoned cache entry: %w", cause), map[string]string{
		"fingerprint": ticket.fingerprint,
	})
}
