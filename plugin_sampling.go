// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - plugin_sampling.go
// Probabilistic sampling pipeline stage. Each level gets an independent keep
// rate in [0,1]; error and fatal records are always kept unless explicitly
// overridden. The deterministic variant hashes a chosen field so the same
// logical event is consistently kept or dropped across processes.

package lumen

import (
	"fmt"
	"hash/fnv"
)

// SamplingConfig configures a SamplingPlugin.
type SamplingConfig struct {
	// Order is the pipeline position. Defaults to 20.
	Order int
	// Rates maps a level to its keep probability. Levels without an entry
	// are always kept.
	Rates map[Level]float64
	// SampleErrors opts error/fatal records into sampling. Off by default.
	SampleErrors bool
	// DeterministicField selects hash-based sampling keyed on "msg" or
	// "traceId" instead of random draws.
	DeterministicField string
	// Rand is the random source for probabilistic draws. Injectable for
	// determinism in tests.
	Rand RandSource
}

// SamplingPlugin drops records probabilistically per level.
type SamplingPlugin struct {
	BasePlugin
	cfg SamplingConfig
}

// NewSamplingPlugin builds the stage. Rates outside [0,1] are a caller-input
// error.
func NewSamplingPlugin(cfg SamplingConfig) (*SamplingPlugin, error) {
	if cfg.Order == 0 {
		cfg.Order = 20
	}
	for lvl, rate := range cfg.Rates {
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("lumen: sampling rate for %s out of range: %v", lvl, rate)
		}
	}
	if cfg.Rand == nil {
		cfg.Rand = newSystemRand()
	}
	return &SamplingPlugin{BasePlugin: NewBasePlugin("sampling", cfg.Order), cfg: cfg}, nil
}

// OnRecord keeps or drops the record.
func (p *SamplingPlugin) OnRecord(rec *Record) (*Record, error) {
	if rec.Level >= ERROR && !p.cfg.SampleErrors {
		return rec, nil
	}
	rate, ok := p.cfg.Rates[rec.Level]
	if !ok {
		return rec, nil
	}
	if p.keep(rec, rate) {
		return rec, nil
	}
	return nil, nil
}

func (p *SamplingPlugin) keep(rec *Record, rate float64) bool {
	if p.cfg.DeterministicField != "" {
		return hashDraw(p.samplingKey(rec)) < rate
	}
	return p.cfg.Rand.Float64() < rate
}

func (p *SamplingPlugin) samplingKey(rec *Record) string {
	// Untraced records fall back to the message so they do not all share
	// one draw.
	if p.cfg.DeterministicField == "traceId" && rec.TraceID != "" {
		return rec.TraceID
	}
	return rec.Msg
}

// hashDraw maps a string to a stable draw in [0,1).
func hashDraw(s string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum64()%10000) / 10000
}
