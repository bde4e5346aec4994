// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - redact_json.go
// JSON-aware redaction of string values. A message that is itself a JSON
// document gets field-level scrubbing against the sensitive-path set before
// the regex pass, instead of being treated as opaque text. Parsing is done
// with fastjson so the hot path avoids reflection round-trips; a string that
// fails to parse falls back to plain regex redaction.

package lumen

import (
	"strings"

	"github.com/valyala/fastjson"
)

// redactJSONString attempts field-level redaction of a JSON-shaped string.
// It returns (scrubbed, true) on success and ("", false) when the value is
// not parseable JSON.
func (r *Redactor) redactJSONString(s string, patterns []RedactionPattern, paths []string, marker string) (string, bool) {
	t := strings.TrimSpace(s)
	if len(t) == 0 || (t[0] != '{' && t[0] != '[') {
		return "", false
	}
	var p fastjson.Parser
	v, err := p.Parse(t)
	if err != nil {
		return "", false
	}
	var arena fastjson.Arena
	if nv := redactJSONValue(v, "", patterns, paths, marker, &arena); nv != nil {
		v = nv
	}
	return string(v.MarshalTo(nil)), true
}

// redactJSONValue scrubs one parsed value. A non-nil return value means
// "replace me in the parent"; containers are mutated in place and return nil.
func redactJSONValue(v *fastjson.Value, key string, patterns []RedactionPattern, paths []string, marker string, arena *fastjson.Arena) *fastjson.Value {
	switch v.Type() {
	case fastjson.TypeObject:
		obj := v.GetObject()
		type replacement struct {
			key string
			val *fastjson.Value
		}
		var repls []replacement
		obj.Visit(func(k []byte, item *fastjson.Value) {
			ks := string(k)
			if sensitiveKey(ks, paths) {
				repls = append(repls, replacement{ks, arena.NewString(marker)})
				return
			}
			if nv := redactJSONValue(item, ks, patterns, paths, marker, arena); nv != nil {
				repls = append(repls, replacement{ks, nv})
			}
		})
		for _, rp := range repls {
			v.Set(rp.key, rp.val)
		}
		return nil
	case fastjson.TypeArray:
		for i, item := range v.GetArray() {
			if nv := redactJSONValue(item, "", patterns, paths, marker, arena); nv != nil {
				v.SetArrayItem(i, nv)
			}
		}
		return nil
	case fastjson.TypeString:
		sb, err := v.StringBytes()
		if err != nil {
			return nil
		}
		orig := string(sb)
		masked := applyPatterns(orig, patterns)
		if masked != orig {
			return arena.NewString(masked)
		}
		return nil
	default:
		return nil
	}
}
