// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - redact.go
// Irreversible substitution of sensitive values before a record leaves the
// pipeline. Two mechanisms compose: regex patterns scan free-text values, and
// a sensitive-path set replaces whole values by key, independent of type.
// The path check is pre-order: a hit on the key replaces the entire value
// before any descent.

package lumen

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
)

// RedactionPattern pairs a named regular expression with its replacement.
// Patterns are applied in registration order; overlap resolution beyond list
// order is inherited from the regexp engine, not re-sorted.
type RedactionPattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// RedactorFunc is an optional custom callback consulted before the default
// behavior. Returning a value different from the input overrides redaction
// for that field; returning the input unchanged means "no opinion".
type RedactorFunc func(value interface{}, key string) interface{}

// RedactorConfig configures a Redactor.
type RedactorConfig struct {
	// Patterns are additional regex rules, applied after the defaults.
	Patterns []RedactionPattern
	// SensitivePaths are additional field names redacted unconditionally by
	// key. Matching is case-insensitive, exact or substring.
	SensitivePaths []string
	// DisableDefaults drops the built-in pattern and path sets. The defaults
	// are otherwise only additive.
	DisableDefaults bool
	// Strict selects the fail-closed policy: a redaction failure drops the
	// whole record (and counts it) instead of passing the field unredacted.
	Strict bool
	// Marker replaces values at sensitive paths. Defaults to "[REDACTED]".
	Marker string
	// Custom runs first on every value and can override default behavior.
	Custom RedactorFunc
}

// Redactor scans strings and objects against patterns and sensitive paths.
// It is safe for concurrent use; patterns and paths may be added at runtime.
type Redactor struct {
	mu       sync.RWMutex
	patterns []RedactionPattern
	paths    []string // lowercased
	strict   bool
	marker   string
	custom   RedactorFunc

	droppedCount atomicI64
}

// NewRedactor builds a Redactor from cfg, including the default pattern and
// path sets unless disabled.
func NewRedactor(cfg RedactorConfig) *Redactor {
	r := &Redactor{
		strict: cfg.Strict,
		marker: cfg.Marker,
		custom: cfg.Custom,
	}
	if r.marker == "" {
		r.marker = "[REDACTED]"
	}
	if !cfg.DisableDefaults {
		r.patterns = append(r.patterns, defaultPatterns()...)
		r.paths = append(r.paths, defaultSensitivePaths()...)
	}
	r.patterns = append(r.patterns, cfg.Patterns...)
	for _, p := range cfg.SensitivePaths {
		r.paths = append(r.paths, strings.ToLower(p))
	}
	return r
}

// AddPattern appends a pattern at runtime. Adding to a shared redactor is
// visible to every logger holding it, children included.
func (r *Redactor) AddPattern(p RedactionPattern) {
	r.mu.Lock()
	r.patterns = append(r.patterns, p)
	r.mu.Unlock()
}

// AddSensitivePath appends a sensitive field name at runtime.
func (r *Redactor) AddSensitivePath(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, strings.ToLower(path))
	r.mu.Unlock()
}

// Strict reports whether the fail-closed policy is active.
func (r *Redactor) Strict() bool { return r.strict }

// DroppedCount returns how many records strict mode has dropped.
func (r *Redactor) DroppedCount() int64 { return r.droppedCount.Load() }

// Redact scrubs a value. key is the field name the value was found under
// ("" for top-level values such as the message). In strict mode a redaction
// failure returns an error; otherwise failures fall back to the unredacted
// field.
func (r *Redactor) Redact(value interface{}, key string) (out interface{}, err error) {
	r.mu.RLock()
	patterns := r.patterns
	paths := r.paths
	custom := r.custom
	marker := r.marker
	strict := r.strict
	r.mu.RUnlock()

	defer func() {
		if rec := recover(); rec != nil {
			if strict {
				r.droppedCount.Add(1)
				out, err = nil, fmt.Errorf("%w: %v", ErrRecordDropped, rec)
				return
			}
			// Fail-open: keep the original value.
			out, err = value, nil
		}
	}()
	return r.redactValue(value, key, patterns, paths, custom, marker, 0), nil
}

// maxRedactDepth bounds descent into nested containers.
const maxRedactDepth = 64

func (r *Redactor) redactValue(v interface{}, key string, patterns []RedactionPattern, paths []string, custom RedactorFunc, marker string, depth int) interface{} {
	if depth >= maxRedactDepth {
		return v
	}
	// The custom callback runs first and can override everything else.
	if custom != nil {
		if replaced := custom(v, key); !identical(replaced, v) {
			return replaced
		}
	}
	switch val := v.(type) {
	case string:
		if masked, ok := r.redactJSONString(val, patterns, paths, marker); ok {
			return masked
		}
		return applyPatterns(val, patterns)
	case Fields:
		return r.redactMap(map[string]interface{}(val), patterns, paths, custom, marker, depth)
	case map[string]interface{}:
		return r.redactMap(val, patterns, paths, custom, marker, depth)
	case []interface{}:
		// Indexable keys are not sensitive paths themselves.
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = r.redactValue(item, "", patterns, paths, custom, marker, depth+1)
		}
		return out
	default:
		return v
	}
}

func (r *Redactor) redactMap(m map[string]interface{}, patterns []RedactionPattern, paths []string, custom RedactorFunc, marker string, depth int) Fields {
	out := make(Fields, len(m))
	for k, v := range m {
		if sensitiveKey(k, paths) {
			// Pre-order: the whole value is replaced regardless of its type.
			out[k] = marker
			continue
		}
		out[k] = r.redactValue(v, k, patterns, paths, custom, marker, depth+1)
	}
	return out
}

// RedactRecord returns a scrubbed copy of rec. In strict mode a failure
// returns (nil, error) and the caller must drop the record.
func (r *Redactor) RedactRecord(rec *Record) (*Record, error) {
	cp := rec.Clone()
	msg, err := r.Redact(cp.Msg, "")
	if err != nil {
		return nil, err
	}
	if s, ok := msg.(string); ok {
		cp.Msg = s
	}
	if cp.Context != nil {
		scrubbed, err := r.Redact(cp.Context, "")
		if err != nil {
			return nil, err
		}
		if f, ok := scrubbed.(Fields); ok {
			cp.Context = f
		}
	}
	return cp, nil
}

// sensitiveKey reports whether a field name hits the sensitive-path set:
// case-insensitive exact match or substring match.
func sensitiveKey(key string, paths []string) bool {
	lk := strings.ToLower(key)
	for _, p := range paths {
		if lk == p || strings.Contains(lk, p) {
			return true
		}
	}
	return false
}

// applyPatterns runs every pattern over s in registration order.
func applyPatterns(s string, patterns []RedactionPattern) string {
	for _, p := range patterns {
		if p.Pattern != nil {
			s = p.Pattern.ReplaceAllString(s, p.Replacement)
		}
	}
	return s
}

// identical reports whether the callback returned its input unchanged. An
// identity return means "no opinion" and must not stop the descent, so
// uncomparable kinds (maps, slices, funcs) are compared by referent identity
// instead of ==, which would panic.
func identical(a, b interface{}) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil {
		return true // both nil
	}
	if ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	return false
}
