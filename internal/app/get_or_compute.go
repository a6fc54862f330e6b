package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amund211/flightcache/internal/domain"
)

type Compute func(ctx context.Context) (domain.StoredResponse, error)

var errComputeDidNotReturn = errors.New("compute did not return")

// GetOrCompute serves the response for fingerprint from the cache, or computes it.
//
// Returns response, computed, error
func GetOrCompute(
	ctx context.Context,
	coordinator *Coordinator,
	finalizer *Finalizer,
	fingerprint string,
	policy Policy,
	compute Compute,
) (domain.StoredResponse, bool, error) {
	decision := coordinator.Handle(ctx, fingerprint, policy)
	if response, ok := decision.ShortCircuit(); ok {
		return response, false, nil
	}

	ticket := decision.Ticket()
	ctx = WithTicket(ctx, ticket)

	// Abandon the entry if compute panics, so that waiting consumers can retry
	settled := false
	defer func() {
		if !settled {
			finalizer.Fail(ctx, ticket, errComputeDidNotReturn)
		}
	}()

	computeCtx := ctx
	if policy.MaxProduction > 0 {
		var cancel context.CancelFunc
		computeCtx, cancel = context.WithTimeout(ctx, policy.MaxProduction)
		defer cancel()
	}

	response, err := compute(computeCtx)
	settled = true
	if err != nil {
		finalizer.Fail(ctx, ticket, err)
		return domain.StoredResponse{}, true, fmt.Errorf("failed to compute response: %w", err)
	}

	finalizer.Complete(ctx, ticket, response)
	return response, true, nil
}
