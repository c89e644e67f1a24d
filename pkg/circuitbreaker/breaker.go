package circuitbreaker

import (
	"sync"
	"time"
)

// State represents the state of the circuit breaker
type State int

const (
	StateClosed   State = iota // normal operation, requests allowed
	StateHalfOpen              // probing whether the dependency recovered
	StateOpen                  // requests are rejected outright
)

// String returns the state name for logs and metrics
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CircuitBreaker implements the circuit breaker pattern around an outbound
// dependency. All state transitions happen under one mutex.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            State
	failureThreshold int
	resetTimeout     time.Duration
	halfOpenMaxCalls int
	failureCount     int
	halfOpenCalls    int
	lastStateChange  time.Time
}

// Config configures a CircuitBreaker
type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	HalfOpenMaxCalls int
}

// New creates a new circuit breaker in the closed state
func New(config Config) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: config.FailureThreshold,
		resetTimeout:     config.ResetTimeout,
		halfOpenMaxCalls: config.HalfOpenMaxCalls,
		lastStateChange:  time.Now(),
	}
}

// Allow reports whether a request may proceed
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastStateChange) >= cb.resetTimeout {
			cb.transition(StateHalfOpen)
			cb.halfOpenCalls = 1
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenCalls < cb.halfOpenMaxCalls {
			cb.halfOpenCalls++
			return true
		}
		return false
	default:
		return false
	}
}

// Success reports a successful operation
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.transition(StateClosed)
		cb.failureCount = 0
	case StateClosed:
		cb.failureCount = 0
	}
}

// Failure reports a failed operation
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.transition(StateOpen)
		}
	case StateHalfOpen:
		cb.transition(StateOpen)
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// GetMetrics returns a snapshot of the breaker's internals
func (cb *CircuitBreaker) GetMetrics() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"state":             cb.state.String(),
		"failure_count":     cb.failureCount,
		"failure_threshold": cb.failureThreshold,
		"half_open_calls":   cb.halfOpenCalls,
		"reset_timeout":     cb.resetTimeout.String(),
		"last_state_change": cb.lastStateChange,
		"time_in_state":     time.Since(cb.lastStateChange).String(),
	}
}

func (cb *CircuitBreaker) transition(next State) {
	cb.state = next
	cb.lastStateChange = time.Now()
	if next != StateHalfOpen {
		cb.halfOpenCalls = 0
	}
}
