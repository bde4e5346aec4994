// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

package lumen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	clock := newFakeClock(time.Unix(1_700_000_000, 0))
	cb := NewCircuitBreaker(5, 30*time.Second, clock)

	for i := 0; i < 4; i++ {
		cb.Failure()
		require.Equal(t, BreakerClosed, cb.State(), "failure %d", i)
	}
	cb.Failure()
	require.Equal(t, BreakerOpen, cb.State())
	require.False(t, cb.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	clock := newFakeClock(time.Unix(1_700_000_000, 0))
	cb := NewCircuitBreaker(3, 30*time.Second, clock)

	cb.Failure()
	cb.Failure()
	cb.Success()
	cb.Failure()
	cb.Failure()
	require.Equal(t, BreakerClosed, cb.State())
	cb.Failure()
	require.Equal(t, BreakerOpen, cb.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := newFakeClock(time.Unix(1_700_000_000, 0))
	cb := NewCircuitBreaker(1, 30*time.Second, clock)

	cb.Failure()
	require.Equal(t, BreakerOpen, cb.State())
	require.False(t, cb.Allow())

	// Reset timeout elapses: one probe is admitted.
	clock.Advance(30 * time.Second)
	require.True(t, cb.Allow())
	require.Equal(t, BreakerHalfOpen, cb.State())

	// Probe succeeds: closed again.
	cb.Success()
	require.Equal(t, BreakerClosed, cb.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock(time.Unix(1_700_000_000, 0))
	cb := NewCircuitBreaker(1, 10*time.Second, clock)

	cb.Failure()
	clock.Advance(10 * time.Second)
	require.True(t, cb.Allow())
	require.Equal(t, BreakerHalfOpen, cb.State())

	cb.Failure()
	require.Equal(t, BreakerOpen, cb.State())
	require.False(t, cb.Allow())

	// The failed probe restarts the open period.
	clock.Advance(9 * time.Second)
	require.False(t, cb.Allow())
	clock.Advance(time.Second)
	require.True(t, cb.Allow())
}

func TestBreakerStateString(t *testing.T) {
	require.Equal(t, "closed", BreakerClosed.String())
	require.Equal(t, "open", BreakerOpen.String())
	require.Equal(t, "half-open", BreakerHalfOpen.String())
}
