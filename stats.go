// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - stats.go
// Runtime statistics for monitoring a logger's health: delivery counts, the
// various drop reasons, per-transport error counts, and the retained adapter
// error log.

package lumen

// Stats is a point-in-time snapshot of a logger core's counters. Children
// share their parent's counters.
type Stats struct {
	// Written counts records delivered to the transports.
	Written int64
	// Dropped counts records dropped by the plugin pipeline.
	Dropped int64
	// SampledOut counts records discarded by the sampling gate.
	SampledOut int64
	// RedactionDropped counts records dropped by a strict redactor.
	RedactionDropped int64
	// AdapterErrors counts adapter failures, timeouts, and panics.
	AdapterErrors int64
	// TransportErrors maps transport names to their write error counts.
	TransportErrors map[string]int64
	// RecentAdapterErrors is the bounded adapter error log, oldest first.
	RecentAdapterErrors []AdapterError
}

// Stats returns a snapshot of the shared core's counters. Safe for
// concurrent use.
func (l *Logger) Stats() Stats {
	core := l.core
	s := Stats{
		Written:             core.written.Load(),
		Dropped:             core.dropped.Load(),
		SampledOut:          core.sampledOut.Load(),
		RedactionDropped:    core.redactDropped.Load(),
		AdapterErrors:       core.adapters.errCount.Load(),
		TransportErrors:     make(map[string]int64),
		RecentAdapterErrors: core.adapters.errors(),
	}
	core.transportErrs.Range(func(key, value any) bool {
		s.TransportErrors[key.(string)] = value.(*atomicI64).Load()
		return true
	})
	return s
}
