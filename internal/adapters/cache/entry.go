package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Amund211/flightcache/internal/domain"
)

// ErrContractViolation is the panic value (wrapped) for misuse of an Entry
var ErrContractViolation = errors.New("cache entry contract violation")

type State int

const (
	// No producer has claimed the entry yet
	StateEmpty State = iota
	// A producer has claimed the entry and is computing the result
	StateFilling
	// The result is stored and will never change
	StateReady
	// The producer gave up without a result
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFilling:
		return "filling"
	case StateReady:
		return "ready"
	case StateAbandoned:
		return "abandoned"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

type AwaitOutcome int

const (
	OutcomeReady AwaitOutcome = iota
	OutcomeTimedOut
	OutcomeInterrupted
	OutcomeAbandoned
)

func (o AwaitOutcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeAbandoned:
		return "abandoned"
	}
	return fmt.Sprintf("unknown(%d)", int(o))
}

// Entry holds the in-flight or cached response for one fingerprint.
//
// Every transition happens under mu. done is closed exactly once, when the entry
// leaves StateFilling, which wakes every goroutine blocked in AwaitReady.
type Entry struct {
	mu     sync.Mutex
	state  State
	result domain.StoredResponse
	done   chan struct{}
}

func NewEntry() *Entry {
	return &Entry{
		state: StateEmpty,
		done:  make(chan struct{}),
	}
}

// Claim moves the entry from empty to filling.
// Exactly one caller per entry gets true.
func (e *Entry) Claim() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateEmpty {
		return false
	}
	e.state = StateFilling
	return true
}

// AwaitReady blocks until the entry is published or abandoned, the timeout elapses
// or ctx is done.
//
// The state is re-checked after a timeout or interruption, so a publish that races
// the timer is still reported as OutcomeReady.
// Calling AwaitReady on an unclaimed entry panics, as nobody would ever wake us.
func (e *Entry) AwaitReady(ctx context.Context, timeout time.Duration) (domain.StoredResponse, AwaitOutcome) {
	e.mu.Lock()
	switch e.state {
	case StateEmpty:
		e.mu.Unlock()
		panic(fmt.Errorf("%w: AwaitReady called on an unclaimed entry", ErrContractViolation))
	case StateReady, StateAbandoned:
		e.mu.Unlock()
		return e.settle(OutcomeTimedOut)
	}
	done := e.done
	e.mu.Unlock()

	if timeout <= 0 {
		return e.settle(OutcomeTimedOut)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return e.settle(OutcomeTimedOut)
	case <-timer.C:
		return e.settle(OutcomeTimedOut)
	case <-ctx.Done():
		return e.settle(OutcomeInterrupted)
	}
}

func (e *Entry) settle(otherwise AwaitOutcome) (domain.StoredResponse, AwaitOutcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateReady:
		return e.result, OutcomeReady
	case StateAbandoned:
		return domain.StoredResponse{}, OutcomeAbandoned
	}
	return domain.StoredResponse{}, otherwise
}

// Publish stores the result and wakes all waiters.
// Publishing twice, or publishing an entry that was never claimed, panics.
func (e *Entry) Publish(result domain.StoredResponse) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateFilling {
		panic(fmt.Errorf("%w: Publish called in state %s", ErrContractViolation, e.state))
	}

	e.result = result
	e.state = StateReady
	close(e.done)
}

// Abandon marks a claimed entry as failed and wakes all waiters.
// The entry is terminal afterwards: it must be removed from the store so that a new
// producer can claim a fresh one.
func (e *Entry) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateFilling {
		panic(fmt.Errorf("%w: Abandon called in state %s", ErrContractViolation, e.state))
	}

	e.state = StateAbandoned
	close(e.done)
}

func (e *Entry) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Result returns the published response, if any
func (e *Entry) Result() (domain.StoredResponse, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, e.state == StateReady
}
