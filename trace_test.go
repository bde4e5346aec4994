// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

package lumen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func otelContext(t *testing.T) (context.Context, string, string) {
	t.Helper()
	tid, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	sid, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc), tid.String(), sid.String()
}

func TestOTelTraceProvider(t *testing.T) {
	ctx, wantTID, wantSID := otelContext(t)
	gotTID, gotSID := OTelTraceProvider()(ctx)
	require.Equal(t, wantTID, gotTID)
	require.Equal(t, wantSID, gotSID)

	// No span: both empty.
	emptyTID, emptySID := OTelTraceProvider()(context.Background())
	require.Empty(t, emptyTID)
	require.Empty(t, emptySID)
}

func TestAttachOTelTrace(t *testing.T) {
	ctx, wantTID, wantSID := otelContext(t)
	ctx = AttachOTelTrace(ctx)
	require.Equal(t, wantTID, TraceIDFrom(ctx))
	require.Equal(t, wantSID, SpanIDFrom(ctx))

	// Without a span the context is returned unchanged.
	base := context.Background()
	require.Equal(t, base, AttachOTelTrace(base))
}

func TestLoggerUsesTraceProvider(t *testing.T) {
	ctx, wantTID, wantSID := otelContext(t)
	l, mem := newTestLogger(t, Config{
		MinLevel:      INFO,
		TraceProvider: OTelTraceProvider(),
	})
	l.Info(ctx, "traced")

	recs := mem.records()
	require.Len(t, recs, 1)
	require.Equal(t, wantTID, recs[0].TraceID)
	require.Equal(t, wantSID, recs[0].SpanID)
}

func TestScopeTraceIDWinsOverProvider(t *testing.T) {
	ctx, _, _ := otelContext(t)
	l, mem := newTestLogger(t, Config{
		MinLevel:      INFO,
		TraceProvider: OTelTraceProvider(),
	})
	err := Run(ctx, ScopeFields{TraceID: "explicit-trace"}, func(ctx context.Context) error {
		l.Info(ctx, "x")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "explicit-trace", mem.records()[0].TraceID)
}
