package webchat

import (
	"sync"
	"time"
)

// CircuitState is one of the three states spec §4.7 names.
type CircuitState int

const (
	Closed CircuitState = iota
	Open
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker implements spec §4.7's poll-loop breaker: Closed
// trips to Open after FailureThreshold consecutive failures; Open
// refuses probes until Cooldown elapses, then allows exactly one
// HalfOpen probe; a successful probe closes the breaker and resets
// the cooldown, a failed one re-opens with the cooldown doubled up to
// MaxCooldown.
type CircuitBreaker struct {
	mu sync.Mutex

	FailureThreshold int
	BaseCooldown     time.Duration
	MaxCooldown      time.Duration

	state           CircuitState
	consecutiveFail int
	cooldown        time.Duration
	openedAt        time.Time
	halfOpenInFlight bool
}

// NewCircuitBreaker builds a breaker with the given threshold and
// cooldown bounds.
func NewCircuitBreaker(failureThreshold int, baseCooldown, maxCooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		FailureThreshold: failureThreshold,
		BaseCooldown:      baseCooldown,
		MaxCooldown:       maxCooldown,
		cooldown:          baseCooldown,
	}
}

// Allow reports whether the caller may attempt a request right now,
// transitioning Open -> HalfOpen once the cooldown has elapsed.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case HalfOpen:
		// A probe is already in flight; no second concurrent probe.
		return !b.halfOpenInFlight
	case Open:
		if time.Since(b.openedAt) < b.cooldown {
			return false
		}
		b.state = HalfOpen
		b.halfOpenInFlight = true
		return true
	default:
		return false
	}
}

// RecordSuccess closes the breaker and resets its failure count and
// cooldown.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.consecutiveFail = 0
	b.cooldown = b.BaseCooldown
	b.halfOpenInFlight = false
}

// RecordFailure increments the consecutive-failure count (Closed) or
// re-opens with a doubled cooldown (HalfOpen probe failure), tripping
// Closed -> Open once FailureThreshold is reached.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == HalfOpen {
		b.halfOpenInFlight = false
		b.cooldown *= 2
		if b.cooldown > b.MaxCooldown {
			b.cooldown = b.MaxCooldown
		}
		b.state = Open
		b.openedAt = time.Now()
		return
	}

	b.consecutiveFail++
	if b.consecutiveFail >= b.FailureThreshold {
		b.state = Open
		b.openedAt = time.Now()
	}
}

// State reports the breaker's current state.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
