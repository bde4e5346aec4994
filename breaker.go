// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - breaker.go
// Three-state circuit breaker guarding a remote sink: closed -> open when
// consecutive failures reach the threshold; open -> half-open after the
// reset timeout elapses since the last failure; half-open -> closed on the
// next success, half-open -> open on failure.

package lumen

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker's state.
type BreakerState int32

const (
	// BreakerClosed admits sends normally.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects sends immediately, without a network attempt.
	BreakerOpen
	// BreakerHalfOpen admits a probe send after the reset timeout.
	BreakerHalfOpen
)

// String returns the state name.
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

// CircuitBreaker tracks consecutive failures against a remote sink.
type CircuitBreaker struct {
	mu            sync.Mutex
	state         BreakerState
	failures      int
	lastFailure   time.Time
	threshold     int
	resetTimeout  time.Duration
	clock         Clock
	onStateChange func(from, to BreakerState)
}

// NewCircuitBreaker builds a breaker. threshold is the consecutive-failure
// count that opens it; resetTimeout is how long it stays open before probing.
func NewCircuitBreaker(threshold int, resetTimeout time.Duration, clock Clock) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &CircuitBreaker{
		state:        BreakerClosed,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		clock:        clock,
	}
}

// OnStateChange registers an observer for transitions.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to BreakerState)) {
	cb.mu.Lock()
	cb.onStateChange = fn
	cb.mu.Unlock()
}

// Allow reports whether a send may proceed. While open it transitions to
// half-open once the reset timeout has elapsed since the last failure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case BreakerOpen:
		if cb.clock.Now().Sub(cb.lastFailure) >= cb.resetTimeout {
			cb.transition(BreakerHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

// Success records a successful send, closing a half-open breaker and
// clearing the failure count.
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	if cb.state != BreakerClosed {
		cb.transition(BreakerClosed)
	}
}

// Failure records a failed send. A half-open breaker reopens immediately;
// a closed breaker opens when consecutive failures reach the threshold.
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	cb.lastFailure = cb.clock.Now()
	switch cb.state {
	case BreakerHalfOpen:
		cb.transition(BreakerOpen)
	case BreakerClosed:
		if cb.failures >= cb.threshold {
			cb.transition(BreakerOpen)
		}
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// transition must be called with the mutex held.
func (cb *CircuitBreaker) transition(to BreakerState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.onStateChange != nil {
		fn, f, t := cb.onStateChange, from, to
		// Observers run outside the lock.
		go fn(f, t)
	}
}
