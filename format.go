// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - format.go
// The default formatters: a machine-readable JSON-lines formatter emitting
// the wire shape, and a human-readable text formatter for development
// consoles. A record is rendered exactly once per distinct representation
// need, never both.

package lumen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Formatter converts a record into a byte slice for output.
type Formatter interface {
	Format(rec *Record) ([]byte, error)
}

// JSONFormatter renders records as JSON lines in the wire shape:
// {time, level, msg, context?, err?, service?, env?, version?, traceId?, spanId?}.
// Context keys are encoded in sorted order, so output is deterministic.
type JSONFormatter struct{}

// Format marshals the record, newline-terminated.
func (f *JSONFormatter) Format(rec *Record) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("lumen: failed to encode record: %w", err)
	}
	// The encoder already appends the newline.
	return buf.Bytes(), nil
}

// TextFormatter renders records as a single human-readable line:
// "TIMESTAMP [LEVEL] MESSAGE key=value ... err=...".
type TextFormatter struct {
	// Location for timestamps. Defaults to UTC.
	Location *time.Location
}

// Format renders the record for console reading.
func (f *TextFormatter) Format(rec *Record) ([]byte, error) {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	var buf bytes.Buffer
	buf.WriteString(time.UnixMilli(rec.Time).In(loc).Format("2006-01-02T15:04:05.000Z07:00"))
	buf.WriteString(" [")
	buf.WriteString(rec.Level.String())
	buf.WriteString("] ")
	buf.WriteString(rec.Msg)

	if rec.Service != "" {
		fmt.Fprintf(&buf, " service=%s", rec.Service)
	}
	if rec.TraceID != "" {
		fmt.Fprintf(&buf, " trace=%s", rec.TraceID)
	}
	if rec.SpanID != "" {
		fmt.Fprintf(&buf, " span=%s", rec.SpanID)
	}
	if len(rec.Context) > 0 {
		keys := make([]string, 0, len(rec.Context))
		for k := range rec.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%v", k, rec.Context[k])
		}
	}
	if rec.Err != nil {
		fmt.Fprintf(&buf, " err=%q", rec.Err.Message)
		for cause := rec.Err.Cause; cause != nil; cause = cause.Cause {
			fmt.Fprintf(&buf, " cause=%q", cause.Message)
		}
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
