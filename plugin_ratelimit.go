// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - plugin_ratelimit.go
// Rate limiting pipeline stage. Two algorithms: a fixed window that resets
// its counter when the window elapses (logging a drop summary on reset), and
// a token bucket refilled at a constant rate. A per-key variant keeps
// cardinality bounded by evicting the oldest key at capacity.

package lumen

import (
	"sync"
	"time"
)

// RateLimitMode selects the limiting algorithm.
type RateLimitMode int

const (
	// FixedWindow admits up to Limit records per Window.
	FixedWindow RateLimitMode = iota
	// TokenBucket admits a record per available token, refilled at RefillRate
	// tokens per second up to Capacity.
	TokenBucket
)

// RateLimitConfig configures a RateLimitPlugin.
type RateLimitConfig struct {
	// Order is the pipeline position. Defaults to 10.
	Order int
	// Mode selects fixed window or token bucket. Defaults to FixedWindow.
	Mode RateLimitMode
	// Limit is the fixed-window admission count. Defaults to 100.
	Limit int64
	// Window is the fixed-window length. Defaults to 1s.
	Window time.Duration
	// Capacity is the token bucket size. Defaults to 10.
	Capacity float64
	// RefillRate is tokens added per second. Defaults to Capacity.
	RefillRate float64
	// KeyFunc derives the limiter key from a record. Nil applies one global
	// limiter to everything.
	KeyFunc func(rec *Record) string
	// MaxKeys bounds per-key state; the oldest key is evicted at capacity.
	// Defaults to 1024.
	MaxKeys int
	// OnDrop receives a drop summary per key when a window resets or state is
	// evicted.
	OnDrop func(key string, dropped int64)
	// Clock is injectable for tests. Defaults to the system clock.
	Clock Clock
}

// limiterState holds either window or bucket state for one key.
type limiterState struct {
	// fixed window
	count       int64
	windowStart time.Time
	dropped     int64
	// token bucket
	tokens     float64
	lastRefill time.Time
}

// RateLimitPlugin drops records beyond the configured rate.
type RateLimitPlugin struct {
	BasePlugin
	cfg RateLimitConfig

	mu       sync.Mutex
	states   map[string]*limiterState
	keyOrder []string // insertion order, for bounded eviction
}

// NewRateLimitPlugin builds the stage, clamping config to safe defaults.
func NewRateLimitPlugin(cfg RateLimitConfig) *RateLimitPlugin {
	if cfg.Order == 0 {
		cfg.Order = 10
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10
	}
	if cfg.RefillRate <= 0 {
		cfg.RefillRate = cfg.Capacity
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 1024
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	return &RateLimitPlugin{
		BasePlugin: NewBasePlugin("rate-limit", cfg.Order),
		cfg:        cfg,
		states:     make(map[string]*limiterState),
	}
}

// OnRecord admits or drops the record. Never errors.
func (p *RateLimitPlugin) OnRecord(rec *Record) (*Record, error) {
	key := ""
	if p.cfg.KeyFunc != nil {
		key = p.cfg.KeyFunc(rec)
	}
	now := p.cfg.Clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.state(key, now)

	switch p.cfg.Mode {
	case TokenBucket:
		elapsed := now.Sub(st.lastRefill).Seconds()
		st.tokens = minF(p.cfg.Capacity, st.tokens+elapsed*p.cfg.RefillRate)
		st.lastRefill = now
		if st.tokens >= 1 {
			st.tokens--
			return rec, nil
		}
		st.dropped++
		return nil, nil
	default: // FixedWindow
		if now.Sub(st.windowStart) >= p.cfg.Window {
			if st.dropped > 0 && p.cfg.OnDrop != nil {
				p.cfg.OnDrop(key, st.dropped)
			}
			st.count = 0
			st.dropped = 0
			st.windowStart = now
		}
		if st.count < p.cfg.Limit {
			st.count++
			return rec, nil
		}
		st.dropped++
		return nil, nil
	}
}

// state fetches or creates per-key state, evicting the oldest key when the
// bound is hit. High-cardinality keys must not grow memory without limit.
func (p *RateLimitPlugin) state(key string, now time.Time) *limiterState {
	if st, ok := p.states[key]; ok {
		return st
	}
	if len(p.states) >= p.cfg.MaxKeys && len(p.keyOrder) > 0 {
		oldest := p.keyOrder[0]
		p.keyOrder = p.keyOrder[1:]
		if old, ok := p.states[oldest]; ok && old.dropped > 0 && p.cfg.OnDrop != nil {
			p.cfg.OnDrop(oldest, old.dropped)
		}
		delete(p.states, oldest)
	}
	st := &limiterState{
		windowStart: now,
		tokens:      p.cfg.Capacity,
		lastRefill:  now,
	}
	p.states[key] = st
	p.keyOrder = append(p.keyOrder, key)
	return st
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
