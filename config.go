// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - config.go
// Logger construction. Config is validated once in New; defaults are applied
// here so the hot path never re-checks them.

package lumen

import (
	"fmt"
	"time"
)

// Config assembles a Logger.
type Config struct {
	// MinLevel is the initial severity gate. Defaults to INFO.
	MinLevel Level
	// Service, Env, and Version stamp every record.
	Service string
	Env     string
	Version string
	// Bindings are fields attached to every record from this logger.
	Bindings Fields
	// Transports receive every surviving record. Defaults to a console
	// transport when empty.
	Transports []Transport
	// Plugins form the record pipeline, ordered by their Order values.
	Plugins []Plugin
	// Adapters observe delivered records, fire-and-forget.
	Adapters []AdapterFunc
	// AdapterConfig tunes the adapter pool.
	AdapterConfig AdapterConfig
	// Redactor scrubs records before the pipeline. Nil disables redaction.
	Redactor *Redactor
	// Sampling maps a level to its keep rate in [0, 1]. Absent levels keep
	// everything; ERROR and FATAL bypass sampling regardless.
	Sampling map[Level]float64
	// Rand feeds the sampling gate. Injectable for tests.
	Rand RandSource
	// Clock stamps records. Injectable for tests.
	Clock Clock
	// TraceProvider fills trace and span IDs when the logging scope carries
	// none.
	TraceProvider TraceProvider
	// Formatter renders records. Defaults to JSONFormatter.
	Formatter Formatter
	// ErrorHook observes internal failures (transport writes, plugin errors,
	// redaction drops). source names the failing component.
	ErrorHook func(source string, err error)
	// CloseTimeout bounds Close's drain. Defaults to 5s.
	CloseTimeout time.Duration
}

// validate checks invariants and fills defaults in place.
func (c *Config) validate() error {
	if c.MinLevel == 0 {
		c.MinLevel = INFO
	}
	if !validLevel(c.MinLevel) {
		return fmt.Errorf("lumen: invalid minimum level %d", int(c.MinLevel))
	}
	for lvl, rate := range c.Sampling {
		if !validLevel(lvl) {
			return fmt.Errorf("lumen: sampling rate for invalid level %d", int(lvl))
		}
		if rate < 0 || rate > 1 {
			return fmt.Errorf("lumen: sampling rate for %s must be in [0, 1], got %v", lvl, rate)
		}
	}
	if len(c.Transports) == 0 {
		c.Transports = []Transport{NewConsoleTransport(ConsoleConfig{})}
	}
	for i, t := range c.Transports {
		if t == nil {
			return fmt.Errorf("lumen: transport %d is nil", i)
		}
	}
	for i, p := range c.Plugins {
		if p == nil {
			return fmt.Errorf("lumen: plugin %d is nil", i)
		}
	}
	if c.Formatter == nil {
		c.Formatter = &JSONFormatter{}
	}
	if c.Clock == nil {
		c.Clock = SystemClock()
	}
	if c.Rand == nil {
		c.Rand = newSystemRand()
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = 5 * time.Second
	}
	return nil
}
