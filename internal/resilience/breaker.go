// Package resilience guards best-effort side effects such as event
// publication.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker's current mode.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker opens after maxFailures consecutive failures and rejects calls
// until timeout has elapsed. It then lets a single probe through; the probe's
// outcome closes or re-opens the circuit.
type Breaker struct {
	name        string
	maxFailures int
	timeout     time.Duration

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time // for testing
}

// NewBreaker creates a closed breaker. name appears in transition logs.
func NewBreaker(name string, maxFailures int, timeout time.Duration) *Breaker {
	return &Breaker{
		name:        name,
		maxFailures: maxFailures,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Do runs fn unless the circuit is open. A cancelled ctx is not counted as a
// failure of the protected dependency.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.allow() {
		return ErrCircuitOpen
	}

	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	switch {
	case err == nil:
		b.onSuccess()
	case ctx.Err() != nil:
		// caller gave up; leave the counters alone
	default:
		b.onFailure()
	}
	return err
}

// State returns the current state, moving an expired open circuit to
// half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.timeout {
		return StateHalfOpen
	}
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.timeout {
			return false
		}
		b.transition(StateHalfOpen)
		b.probing = true
		return true
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	}
	return false
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure() {
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.openedAt = b.now()
		b.transition(StateOpen)
	}
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess() {
	b.failures = 0
	b.transition(StateClosed)
}

// transition must be called with b.mu held.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	slog.Info("circuit breaker state change", "breaker", b.name, "from", b.state.String(), "to", to.String())
	b.state = to
}
