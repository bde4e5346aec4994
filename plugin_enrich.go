// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - plugin_enrich.go
// Enrichment pipeline stage: merges static fields, lazily-computed dynamic
// fields, and process/host metadata into the record context. Existing keys
// are never overwritten unless the overwrite flag is set, and a dynamic
// field that panics is skipped rather than aborting the record.

package lumen

import (
	"os"
	"runtime"
	"strconv"
)

// EnrichConfig configures an EnrichPlugin.
type EnrichConfig struct {
	// Order is the pipeline position. Defaults to 40.
	Order int
	// Static fields are merged into every record.
	Static Fields
	// Dynamic fields are computed per record. A computation that panics is
	// skipped for that record.
	Dynamic map[string]func() interface{}
	// HostMetadata adds hostname, pid, and the Go runtime version, captured
	// once at construction.
	HostMetadata bool
	// Overwrite lets enrichment replace keys already present on the record.
	Overwrite bool
}

// EnrichPlugin adds fields to surviving records.
type EnrichPlugin struct {
	BasePlugin
	cfg  EnrichConfig
	host Fields
}

// NewEnrichPlugin builds the stage, capturing host metadata up front.
func NewEnrichPlugin(cfg EnrichConfig) *EnrichPlugin {
	if cfg.Order == 0 {
		cfg.Order = 40
	}
	p := &EnrichPlugin{BasePlugin: NewBasePlugin("enrich", cfg.Order), cfg: cfg}
	if cfg.HostMetadata {
		host, _ := os.Hostname()
		p.host = Fields{
			"host":      host,
			"pid":       strconv.Itoa(os.Getpid()),
			"goVersion": runtime.Version(),
		}
	}
	return p
}

// OnRecord returns an enriched clone of the record. Never errors.
func (p *EnrichPlugin) OnRecord(rec *Record) (*Record, error) {
	cp := rec.Clone()
	if cp.Context == nil {
		cp.Context = make(Fields)
	}
	for k, v := range p.cfg.Static {
		p.set(cp.Context, k, v)
	}
	for k, fn := range p.cfg.Dynamic {
		if v, ok := safeCompute(fn); ok {
			p.set(cp.Context, k, v)
		}
	}
	for k, v := range p.host {
		p.set(cp.Context, k, v)
	}
	return cp, nil
}

func (p *EnrichPlugin) set(ctx Fields, k string, v interface{}) {
	if _, exists := ctx[k]; exists && !p.cfg.Overwrite {
		return
	}
	ctx[k] = v
}

// safeCompute shields the record from a throwing field computation.
func safeCompute(fn func() interface{}) (v interface{}, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v, ok = nil, false
		}
	}()
	return fn(), true
}
