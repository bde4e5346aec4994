// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - plugin_redact.go
// Pipeline stage wrapping a Redactor, for deployments that want redaction
// positioned explicitly in the chain instead of (or in addition to) the
// logger's assembly-time pass.

package lumen

// RedactPluginConfig configures a RedactPlugin.
type RedactPluginConfig struct {
	// Order is the pipeline position. Defaults to 50.
	Order int
	// Redactor is required.
	Redactor *Redactor
}

// RedactPlugin scrubs surviving records through its Redactor. When the
// redactor is strict, a redaction failure drops the record.
type RedactPlugin struct {
	BasePlugin
	r *Redactor
}

// NewRedactPlugin builds the stage.
func NewRedactPlugin(cfg RedactPluginConfig) *RedactPlugin {
	if cfg.Order == 0 {
		cfg.Order = 50
	}
	return &RedactPlugin{BasePlugin: NewBasePlugin("redact", cfg.Order), r: cfg.Redactor}
}

// OnRecord returns a scrubbed clone, or (nil, error) under strict policy.
func (p *RedactPlugin) OnRecord(rec *Record) (*Record, error) {
	if p.r == nil {
		return rec, nil
	}
	return p.r.RedactRecord(rec)
}

// StrictPlugin makes the pipeline drop the record on error instead of
// failing open, matching the redactor's fail-closed posture.
func (p *RedactPlugin) StrictPlugin() bool {
	return p.r != nil && p.r.Strict()
}
