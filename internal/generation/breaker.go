package generation

import (
	"sync"
	"time"
)

// timeNow is a variable so tests can control breaker recovery.
var timeNow = time.Now

// BreakerState is the circuit breaker state.
type BreakerState int

const (
	// StateClosed passes requests through and counts failures.
	StateClosed BreakerState = iota
	// StateOpen rejects requests until the recovery timeout elapses.
	StateOpen
	// StateHalfOpen lets a single probe request through.
	StateHalfOpen
)

// String returns the state name for logs.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker is a circuit breaker over a failure-prone backend.
//
// Consecutive failures at or above the threshold open the circuit. After
// the recovery timeout the next Allow transitions to half-open and admits
// one probe; the probe's outcome either closes the circuit or re-opens it
// for another full timeout.
type Breaker struct {
	failureThreshold int
	recoveryTimeout  time.Duration

	mu            sync.Mutex
	state         BreakerState
	failures      int
	openedAt      time.Time
	probeInFlight bool
}

// NewBreaker creates a Breaker. Threshold and timeout must be positive.
func NewBreaker(failureThreshold int, recoveryTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = time.Minute
	}
	return &Breaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
	}
}

// Allow reports whether a request may proceed. In the open state it flips
// to half-open once the recovery timeout has elapsed and admits exactly
// one probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if timeNow().Sub(b.openedAt) < b.recoveryTimeout {
			return false
		}
		b.state = StateHalfOpen
		b.probeInFlight = true
		return true
	case StateHalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	default:
		return false
	}
}

// RecordSuccess resets the breaker after a successful request.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.probeInFlight = false
}

// RecordFailure counts a failure. In half-open it re-opens immediately;
// in closed it opens once the threshold is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
		b.openedAt = timeNow()
		b.probeInFlight = false
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
			b.openedAt = timeNow()
		}
	}
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
