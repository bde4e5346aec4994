// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - trace.go
// Trace correlation. A TraceProvider pulls trace and span identifiers out of
// a context; the OpenTelemetry provider reads the active span so log records
// line up with distributed traces without the caller threading IDs by hand.

package lumen

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceProvider extracts trace and span IDs from a context. Either value may
// be empty when the context carries no trace.
type TraceProvider func(ctx context.Context) (traceID, spanID string)

// OTelTraceProvider returns a TraceProvider backed by the active
// OpenTelemetry span in the context.
func OTelTraceProvider() TraceProvider {
	return func(ctx context.Context) (string, string) {
		sc := trace.SpanFromContext(ctx).SpanContext()
		var tid, sid string
		if sc.HasTraceID() {
			tid = sc.TraceID().String()
		}
		if sc.HasSpanID() {
			sid = sc.SpanID().String()
		}
		return tid, sid
	}
}

// AttachOTelTrace copies the active OpenTelemetry trace and span IDs into the
// logging scope, so transports and plugins see them even when the logger is
// configured without a trace provider.
func AttachOTelTrace(ctx context.Context) context.Context {
	tid, sid := OTelTraceProvider()(ctx)
	if tid == "" {
		return ctx
	}
	if scopeFrom(ctx) != nil {
		Enter(ctx, ScopeFields{TraceID: tid, SpanID: sid})
		return ctx
	}
	return context.WithValue(ctx, scopeCtxKey{}, &scope{f: ScopeFields{TraceID: tid, SpanID: sid}})
}
