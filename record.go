// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - record.go
// Defines the immutable unit of work flowing through the pipeline: the log
// record, its structured fields, and the cycle-guarded error-cause chain.

package lumen

import (
	"errors"
	"fmt"
	"reflect"
)

// Fields is a map for adding structured, key-value data to a log record.
type Fields map[string]interface{}

// clone returns a shallow copy of the fields map. Values are shared; the map
// itself is independent.
func (f Fields) clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// mergeFields unions src onto dst, src keys winning. dst may be nil.
func mergeFields(dst, src Fields) Fields {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(Fields, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Record is one immutable unit of log data submitted to the pipeline.
// Once handed to a transport it must not be mutated; plugins that need to
// change a record produce a new one via Clone.
type Record struct {
	Time    int64      `json:"time"` // epoch milliseconds
	Level   Level      `json:"level"`
	Msg     string     `json:"msg"`
	Context Fields     `json:"context,omitempty"`
	Err     *ErrorInfo `json:"err,omitempty"`
	Service string     `json:"service,omitempty"`
	Env     string     `json:"env,omitempty"`
	Version string     `json:"version,omitempty"`
	TraceID string     `json:"traceId,omitempty"`
	SpanID  string     `json:"spanId,omitempty"`
}

// Clone returns a copy of the record with an independent context map.
// The error chain is shared; it is never mutated after extraction.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Context = r.Context.clone()
	return &cp
}

// ErrorInfo captures one error in a cause chain.
type ErrorInfo struct {
	Name    string     `json:"name"`
	Message string     `json:"message"`
	Stack   string     `json:"stack,omitempty"`
	Code    string     `json:"code,omitempty"`
	Cause   *ErrorInfo `json:"cause,omitempty"`
}

// errorCoder is implemented by errors that carry a machine-readable code.
type errorCoder interface {
	ErrorCode() string
}

// stackTracer is implemented by errors that carry a captured stack trace.
type stackTracer interface {
	StackTrace() string
}

// maxCauseDepth bounds cause-chain extraction. Chains deeper than this are
// truncated; real chains of this depth indicate a wrapping bug upstream.
const maxCauseDepth = 32

// NewErrorInfo extracts an ErrorInfo chain from a Go error, following
// Unwrap() edges. Extraction is cycle-guarded: an error whose cause points
// back at itself or an ancestor terminates the chain instead of recursing
// forever.
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	var seen []error
	return extractErrorInfo(err, seen, 0)
}

func extractErrorInfo(err error, seen []error, depth int) *ErrorInfo {
	if err == nil || depth >= maxCauseDepth {
		return nil
	}
	for _, s := range seen {
		if sameError(s, err) {
			return nil
		}
	}
	seen = append(seen, err)

	info := &ErrorInfo{
		Name:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}
	if c, ok := err.(errorCoder); ok {
		info.Code = c.ErrorCode()
	}
	if st, ok := err.(stackTracer); ok {
		info.Stack = st.StackTrace()
	}
	if cause := errors.Unwrap(err); cause != nil {
		info.Cause = extractErrorInfo(cause, seen, depth+1)
	}
	return info
}

// sameError reports identity between two errors. Comparison with == would
// panic for errors with uncomparable dynamic types, so those are compared by
// pointer identity when possible and otherwise treated as distinct.
func sameError(a, b error) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Ptr && vb.Kind() == reflect.Ptr {
		return va.Pointer() == vb.Pointer()
	}
	return false
}
