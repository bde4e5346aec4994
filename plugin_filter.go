// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - plugin_filter.go
// Filtering pipeline stage: allow/deny lists by level, message substring or
// regex, and required/forbidden context key-value pairs. A custom predicate
// is the escape hatch for anything the declarative lists cannot express.

package lumen

import (
	"reflect"
	"regexp"
	"strings"
)

// FilterConfig configures a FilterPlugin. Deny rules run before allow rules;
// empty allow lists admit everything.
type FilterConfig struct {
	// Order is the pipeline position. Defaults to 30.
	Order int

	AllowLevels []Level
	DenyLevels  []Level

	AllowSubstrings []string
	DenySubstrings  []string
	AllowPatterns   []*regexp.Regexp
	DenyPatterns    []*regexp.Regexp

	// RequireContext drops records missing any of these key-value pairs.
	RequireContext map[string]interface{}
	// ForbidContext drops records carrying any of these key-value pairs.
	ForbidContext map[string]interface{}

	// Predicate runs last; returning false drops the record.
	Predicate func(rec *Record) bool
}

// FilterPlugin drops records that fail the configured rules.
type FilterPlugin struct {
	BasePlugin
	cfg FilterConfig
}

// NewFilterPlugin builds the stage.
func NewFilterPlugin(cfg FilterConfig) *FilterPlugin {
	if cfg.Order == 0 {
		cfg.Order = 30
	}
	return &FilterPlugin{BasePlugin: NewBasePlugin("filter", cfg.Order), cfg: cfg}
}

// OnRecord admits or drops the record. Never errors.
func (p *FilterPlugin) OnRecord(rec *Record) (*Record, error) {
	if !p.admit(rec) {
		return nil, nil
	}
	return rec, nil
}

func (p *FilterPlugin) admit(rec *Record) bool {
	for _, lvl := range p.cfg.DenyLevels {
		if rec.Level == lvl {
			return false
		}
	}
	if len(p.cfg.AllowLevels) > 0 && !containsLevel(p.cfg.AllowLevels, rec.Level) {
		return false
	}

	for _, sub := range p.cfg.DenySubstrings {
		if strings.Contains(rec.Msg, sub) {
			return false
		}
	}
	for _, re := range p.cfg.DenyPatterns {
		if re.MatchString(rec.Msg) {
			return false
		}
	}
	if len(p.cfg.AllowSubstrings) > 0 || len(p.cfg.AllowPatterns) > 0 {
		matched := false
		for _, sub := range p.cfg.AllowSubstrings {
			if strings.Contains(rec.Msg, sub) {
				matched = true
				break
			}
		}
		if !matched {
			for _, re := range p.cfg.AllowPatterns {
				if re.MatchString(rec.Msg) {
					matched = true
					break
				}
			}
		}
		if !matched {
			return false
		}
	}

	for k, want := range p.cfg.RequireContext {
		got, ok := rec.Context[k]
		if !ok || !looseEqual(got, want) {
			return false
		}
	}
	for k, banned := range p.cfg.ForbidContext {
		if got, ok := rec.Context[k]; ok && looseEqual(got, banned) {
			return false
		}
	}

	if p.cfg.Predicate != nil && !p.cfg.Predicate(rec) {
		return false
	}
	return true
}

func containsLevel(levels []Level, lvl Level) bool {
	for _, l := range levels {
		if l == lvl {
			return true
		}
	}
	return false
}

// looseEqual compares context values without panicking on uncomparable
// types.
func looseEqual(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}
