package infra

// breaker.go — Circuit breaker guarding the SMTP relay (Closed → Open →
// Half-Open). Notification delivery is best-effort; when the relay is down we
// fast-fail sends instead of tying up worker goroutines on SMTP timeouts.

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the current breaker state.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // normal — requests flow
	BreakerOpen                         // tripped — fast-fail all requests
	BreakerHalfOpen                     // probing — one request allowed
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrBreakerOpen is returned when Execute is called while the breaker is open.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// Breaker implements the pattern with thread-safe state transitions.
type Breaker struct {
	mu               sync.Mutex
	state            BreakerState
	failureCount     int
	successCount     int
	lastFailure      time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
}

// NewBreaker creates a breaker in Closed state. Trips open after
// failureThreshold consecutive failures, probes again after openTimeout, and
// closes after successThreshold consecutive half-open successes.
func NewBreaker(failureThreshold, successThreshold int, openTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if successThreshold <= 0 {
		successThreshold = 2
	}
	if openTimeout <= 0 {
		openTimeout = 60 * time.Second
	}
	return &Breaker{
		state:            BreakerClosed,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		openTimeout:      openTimeout,
	}
}

// State returns the current state (for the health endpoint).
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState applies the open→half-open timeout transition. Caller holds mu.
func (b *Breaker) currentState() BreakerState {
	if b.state == BreakerOpen && time.Since(b.lastFailure) >= b.openTimeout {
		b.state = BreakerHalfOpen
		b.successCount = 0
	}
	return b.state
}

// Execute runs fn unless the breaker is open, recording the outcome.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.currentState() == BreakerOpen {
		b.mu.Unlock()
		return ErrBreakerOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failureCount++
		b.successCount = 0
		b.lastFailure = time.Now()
		if b.state == BreakerHalfOpen || b.failureCount >= b.failureThreshold {
			b.state = BreakerOpen
		}
		return err
	}
	b.failureCount = 0
	if b.state == BreakerHalfOpen {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = BreakerClosed
		}
	}
	return nil
}
