// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - clock.go
// Injectable time and randomness sources. Both default to the system
// implementations; tests inject deterministic ones.

package lumen

import (
	"math/rand"
	"sync"
	"time"
)

// Clock supplies the current time. The file transport derives rotation
// periods from it and the rate limiters use it for window and refill math.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall-clock Clock.
func SystemClock() Clock { return systemClock{} }

// RandSource supplies uniform draws in [0,1) for the sampling gates.
type RandSource interface {
	Float64() float64
}

// systemRand is the default RandSource, a locked math/rand source.
type systemRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newSystemRand() *systemRand {
	return &systemRand{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *systemRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}
