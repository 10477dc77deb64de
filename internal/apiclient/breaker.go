package apiclient

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitState represents the state of the circuit breaker
type CircuitState string

const (
	CircuitStateClosed   CircuitState = "CLOSED"
	CircuitStateOpen     CircuitState = "OPEN"
	CircuitStateHalfOpen CircuitState = "HALF_OPEN"
)

func (s CircuitState) String() string {
	return string(s)
}

// Breaker stops hammering a backend that keeps failing with network errors
// or 5xx answers. It never retries anything itself; while open, calls fail
// fast and the caller decides whether to try again.
type Breaker struct {
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	nextRetryTime    time.Time
	now              func() time.Time
	logger           *zap.Logger
	mu               sync.Mutex
}

func NewBreaker(failureThreshold int, resetTimeout time.Duration, logger *zap.Logger) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	return &Breaker{
		state:            CircuitStateClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		now:              time.Now,
		logger:           logger,
	}
}

// State returns the current state, moving OPEN to HALF_OPEN once the reset
// timeout has passed.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && !b.now().Before(b.nextRetryTime) {
		b.transitionTo(CircuitStateHalfOpen)
	}
	return b.state
}

func (b *Breaker) CanExecute() bool {
	return b.State() != CircuitStateOpen
}

// RetryAfter is how long an open circuit stays open.
func (b *Breaker) RetryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != CircuitStateOpen {
		return 0
	}
	return b.nextRetryTime.Sub(b.now())
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateHalfOpen {
		b.logger.Info("Circuit Breaker: backend recovered, transitioning to CLOSED")
		b.transitionTo(CircuitStateClosed)
	}
	b.failureCount = 0
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++

	b.logger.Warn("Circuit Breaker: failure recorded",
		zap.Int("count", b.failureCount),
		zap.Int("threshold", b.failureThreshold),
	)

	if b.state == CircuitStateHalfOpen || b.failureCount >= b.failureThreshold {
		b.nextRetryTime = b.now().Add(b.resetTimeout)
		b.transitionTo(CircuitStateOpen)
	}
}

// transitionTo must be called with the lock held.
func (b *Breaker) transitionTo(newState CircuitState) {
	oldState := b.state
	b.state = newState
	if newState == CircuitStateClosed {
		b.failureCount = 0
	}

	b.logger.Info("Circuit Breaker: state transition",
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failure_count", b.failureCount),
	)
}
