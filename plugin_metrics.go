// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - plugin_metrics.go
// Metrics pipeline stage: timer-driven aggregation of per-level and
// per-error-type counts, flushed to an injected collector. Counters reset on
// every flush, so each snapshot carries deltas for its interval.

package lumen

import (
	"context"
	"sync"
	"time"
)

// MetricsSnapshot is one interval's worth of counts.
type MetricsSnapshot struct {
	Levels     map[Level]int64
	ErrorTypes map[string]int64
	Total      int64
}

// MetricsCollector receives periodic snapshots.
type MetricsCollector interface {
	Collect(s MetricsSnapshot)
}

// MetricsCollectorFunc adapts a function to the MetricsCollector interface.
type MetricsCollectorFunc func(s MetricsSnapshot)

func (f MetricsCollectorFunc) Collect(s MetricsSnapshot) { f(s) }

// MetricsPluginConfig configures a MetricsPlugin.
type MetricsPluginConfig struct {
	// Order is the pipeline position. Defaults to 90.
	Order int
	// Interval between automatic flushes. Defaults to 10s.
	Interval time.Duration
	// Collector is required; nil makes the plugin a no-op.
	Collector MetricsCollector
}

// MetricsPlugin counts surviving records.
type MetricsPlugin struct {
	BasePlugin
	cfg MetricsPluginConfig

	mu         sync.Mutex
	levels     map[Level]int64
	errorTypes map[string]int64
	total      int64

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMetricsPlugin builds the stage and starts its flush timer.
func NewMetricsPlugin(cfg MetricsPluginConfig) *MetricsPlugin {
	if cfg.Order == 0 {
		cfg.Order = 90
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	p := &MetricsPlugin{
		BasePlugin: NewBasePlugin("metrics", cfg.Order),
		cfg:        cfg,
		levels:     make(map[Level]int64),
		errorTypes: make(map[string]int64),
		done:       make(chan struct{}),
	}
	if cfg.Collector != nil {
		p.wg.Add(1)
		go p.loop()
	}
	return p
}

// OnWrite counts a record that survived the pipeline.
func (p *MetricsPlugin) OnWrite(rec *Record) {
	p.mu.Lock()
	p.levels[rec.Level]++
	p.total++
	if rec.Err != nil {
		p.errorTypes[rec.Err.Name]++
	}
	p.mu.Unlock()
}

// OnFlush emits the current snapshot immediately.
func (p *MetricsPlugin) OnFlush(context.Context) error {
	p.emit()
	return nil
}

// OnClose stops the timer and emits a final snapshot. Idempotent.
func (p *MetricsPlugin) OnClose(context.Context) error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.emit()
	})
	return nil
}

func (p *MetricsPlugin) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.emit()
		case <-p.done:
			return
		}
	}
}

// emit swaps out the counters and hands the deltas to the collector.
func (p *MetricsPlugin) emit() {
	if p.cfg.Collector == nil {
		return
	}
	p.mu.Lock()
	if p.total == 0 {
		p.mu.Unlock()
		return
	}
	snap := MetricsSnapshot{Levels: p.levels, ErrorTypes: p.errorTypes, Total: p.total}
	p.levels = make(map[Level]int64)
	p.errorTypes = make(map[string]int64)
	p.total = 0
	p.mu.Unlock()
	p.cfg.Collector.Collect(snap)
}
