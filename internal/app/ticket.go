package app

import (
	"context"
	"time"

	"github.com/Amund211/flightcache/internal/adapters/cache"
	"github.com/Amund211/flightcache/internal/domain"
)

// Policy is the per-operation cache configuration supplied by the router
type Policy struct {
	// How long a published response is retained
	TTL time.Duration
	// How long a consumer waits for the producer before computing the response itself
	MaxWait time.Duration
	// How long the producer may take to compute the response. Zero means no limit.
	MaxProduction time.Duration
}

type Role int

const (
	RoleProducer Role = iota + 1
	RoleConsumer
)

func (r Role) String() string {
	switch r {
	case RoleProducer:
		return "producer"
	case RoleConsumer:
		return "consumer"
	}
	return "unknown"
}

// Ticket records the role an operation was given, so that the finalizer can act on
// it without re-deriving the fingerprint
type Ticket struct {
	role        Role
	fingerprint string
	entry       *cache.Entry
	policy      Policy
}

func (t *Ticket) Role() Role {
	return t.role
}

func (t *Ticket) Fingerprint() string {
	return t.fingerprint
}

func (t *Ticket) Policy() Policy {
	return t.policy
}

// Decision is the outcome of Coordinator.Handle.
//
// Either ShortCircuit returns a cached response, or the caller must compute the
// response itself and hand the Ticket to the Finalizer.
type Decision struct {
	response     domain.StoredResponse
	shortCircuit bool
	ticket       *Ticket
}

func (d Decision) ShortCircuit() (domain.StoredResponse, bool) {
	return d.response, d.shortCircuit
}

func (d Decision) Ticket() *Ticket {
	return d.ticket
}

type ticketContextKey struct{}

func WithTicket(ctx context.Context, ticket *Ticket) context.Context {
	return context.WithValue(ctx, ticketContextKey{}, ticket)
}

func TicketFromContext(ctx context.Context) (*Ticket, bool) {
	ticket, ok := ctx.Value(ticketContextKey{}).(*Ticket)
	if !ok || ticket == nil {
		return nil, false
	}
	return ticket, true
}
