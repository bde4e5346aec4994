// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - plugin.go
// The plugin pipeline: an ordered chain of record transforms. Each plugin may
// return a new record, pass the record through, or return nil to drop it and
// short-circuit the chain. A plugin that fails is skipped (fail-open) unless
// it declares itself strict, in which case its failure drops the record.

package lumen

import (
	"context"
	"fmt"
	"sort"
)

// Plugin is an ordered pipeline stage. Embed BasePlugin to get no-op
// defaults for the hooks you do not need.
type Plugin interface {
	// Name identifies the plugin in diagnostics and stats.
	Name() string
	// Order determines position in the chain; lower runs first. Ties are
	// broken by registration order.
	Order() int
	// OnRecord transforms a record. Returning (nil, nil) drops the record and
	// terminates the pipeline for it. Implementations must not mutate rec;
	// they return rec unchanged or a clone.
	OnRecord(rec *Record) (*Record, error)
	// OnWrite observes a record after it survived the pipeline and was
	// handed to the transports. Fire-and-forget; errors have nowhere to go.
	OnWrite(rec *Record)
	// OnFlush drains any pending work.
	OnFlush(ctx context.Context) error
	// OnClose releases resources. Called once, after a final flush.
	OnClose(ctx context.Context) error
}

// strictPlugin is implemented by plugins whose failure must drop the record
// instead of being skipped.
type strictPlugin interface {
	StrictPlugin() bool
}

// BasePlugin supplies the Plugin boilerplate: a name, an order, and no-op
// hooks.
type BasePlugin struct {
	name  string
	order int
}

// NewBasePlugin returns the embeddable plugin base.
func NewBasePlugin(name string, order int) BasePlugin {
	return BasePlugin{name: name, order: order}
}

func (p BasePlugin) Name() string                          { return p.name }
func (p BasePlugin) Order() int                            { return p.order }
func (p BasePlugin) OnRecord(rec *Record) (*Record, error) { return rec, nil }
func (p BasePlugin) OnWrite(*Record)                       {}
func (p BasePlugin) OnFlush(context.Context) error         { return nil }
func (p BasePlugin) OnClose(context.Context) error         { return nil }

// pipeline holds the ordered plugin chain. The slice is sorted once at
// construction; registration order breaks ties (stable sort).
type pipeline struct {
	plugins []Plugin
	errHook func(stage string, err error)

	droppedCount atomicI64
}

func newPipeline(plugins []Plugin, errHook func(stage string, err error)) *pipeline {
	sorted := make([]Plugin, len(plugins))
	copy(sorted, plugins)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order() < sorted[j].Order() })
	return &pipeline{plugins: sorted, errHook: errHook}
}

// run feeds a record through the chain. A nil return means the record was
// dropped. There is no mid-pipeline cancellation: a record runs to either
// survival or an explicit drop.
func (p *pipeline) run(rec *Record) *Record {
	for _, pl := range p.plugins {
		out, err := p.safeOnRecord(pl, rec)
		if err != nil {
			if isStrict(pl) {
				p.droppedCount.Add(1)
				p.report(pl.Name(), err)
				return nil
			}
			// Fail-open: the record proceeds to the next plugin untouched.
			p.report(pl.Name(), err)
			continue
		}
		if out == nil {
			p.droppedCount.Add(1)
			return nil
		}
		rec = out
	}
	return rec
}

// safeOnRecord converts a plugin panic into an error so one misbehaving
// stage cannot take down the caller.
func (p *pipeline) safeOnRecord(pl Plugin, rec *Record) (out *Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("plugin %s panicked: %v", pl.Name(), r)
		}
	}()
	return pl.OnRecord(rec)
}

// afterWrite invokes every OnWrite hook, swallowing panics.
func (p *pipeline) afterWrite(rec *Record) {
	for _, pl := range p.plugins {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.report(pl.Name(), fmt.Errorf("plugin %s panicked in OnWrite: %v", pl.Name(), r))
				}
			}()
			pl.OnWrite(rec)
		}()
	}
}

func (p *pipeline) flush(ctx context.Context) error {
	var first error
	for _, pl := range p.plugins {
		if err := pl.OnFlush(ctx); err != nil {
			p.report(pl.Name(), err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (p *pipeline) closeAll(ctx context.Context) error {
	var first error
	for _, pl := range p.plugins {
		if err := pl.OnClose(ctx); err != nil {
			p.report(pl.Name(), err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (p *pipeline) report(stage string, err error) {
	if p.errHook != nil {
		p.errHook(stage, err)
	}
}

func isStrict(pl Plugin) bool {
	s, ok := pl.(strictPlugin)
	return ok && s.StrictPlugin()
}
