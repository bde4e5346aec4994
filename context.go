// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - context.go
// Task-scoped context propagation. A scope carries correlation and identity
// fields plus an open bindings map, travels on context.Context, and is
// inherited by everything called (or spawned with that context) inside a
// scope. Crossing into code that does not thread contexts requires an
// explicit Bind or Snapshot/Restore capture.

package lumen

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ScopeFields is the value form of a propagation scope: the well-known
// correlation fields plus an open bindings map. The zero value is an empty
// scope. When used as an update, only non-empty fields take effect.
type ScopeFields struct {
	CorrelationID string
	TraceID       string
	SpanID        string
	UserID        string
	RequestID     string
	SessionID     string
	TenantID      string
	Bindings      Fields
}

// merge overlays an update onto the receiver field-wise: each well-known
// field is inherited unless the update sets it, and the bindings map is a
// shallow union with the update's keys winning.
func (f ScopeFields) merge(update ScopeFields) ScopeFields {
	out := f
	out.Bindings = f.Bindings.clone()
	if update.CorrelationID != "" {
		out.CorrelationID = update.CorrelationID
	}
	if update.TraceID != "" {
		out.TraceID = update.TraceID
	}
	if update.SpanID != "" {
		out.SpanID = update.SpanID
	}
	if update.UserID != "" {
		out.UserID = update.UserID
	}
	if update.RequestID != "" {
		out.RequestID = update.RequestID
	}
	if update.SessionID != "" {
		out.SessionID = update.SessionID
	}
	if update.TenantID != "" {
		out.TenantID = update.TenantID
	}
	out.Bindings = mergeFields(out.Bindings, update.Bindings)
	return out
}

// scope is the mutable holder stored on the context. Enter mutates it in
// place, so access is guarded: scopes are shared by every goroutine spawned
// with the same context.
type scope struct {
	mu sync.RWMutex
	f  ScopeFields
}

func (s *scope) snapshot() ScopeFields {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := s.f
	cp.Bindings = s.f.Bindings.clone()
	return cp
}

type scopeCtxKey struct{}

// scopeFrom returns the active scope holder, or nil.
func scopeFrom(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeCtxKey{}).(*scope)
	return s
}

// Run merges update onto the currently active scope and executes fn with the
// merged scope active for its entire dynamic extent, including any goroutines
// fn starts with the context it receives. It returns fn's error.
func Run(ctx context.Context, update ScopeFields, fn func(context.Context) error) error {
	parent := Snapshot(ctx)
	merged := parent.merge(update)
	child := &scope{f: merged}
	return fn(context.WithValue(ctx, scopeCtxKey{}, child))
}

// RunIsolated is Run without inheritance: the parent scope is discarded
// entirely. Use it for background work that must not leak request-scoped
// fields.
func RunIsolated(ctx context.Context, fields ScopeFields, fn func(context.Context) error) error {
	fields.Bindings = fields.Bindings.clone()
	child := &scope{f: fields}
	return fn(context.WithValue(ctx, scopeCtxKey{}, child))
}

// Enter mutates the current scope's fields going forward without creating a
// new scope. Sibling code running later in the same scope observes the
// change; code that already read the scope does not, retroactively.
// Enter on a context with no active scope is a no-op.
func Enter(ctx context.Context, update ScopeFields) {
	s := scopeFrom(ctx)
	if s == nil {
		return
	}
	s.mu.Lock()
	s.f = s.f.merge(update)
	s.mu.Unlock()
}

// Snapshot produces a deep copy of the active scope's fields, usable later
// via Restore. An absent scope yields the zero ScopeFields.
func Snapshot(ctx context.Context) ScopeFields {
	if s := scopeFrom(ctx); s != nil {
		return s.snapshot()
	}
	return ScopeFields{}
}

// Restore executes fn with a previously captured snapshot as the active
// scope, discarding whatever scope ctx currently carries.
func Restore(ctx context.Context, snap ScopeFields, fn func(context.Context) error) error {
	return RunIsolated(ctx, snap, fn)
}

// Bind captures a snapshot of the active scope at closure-creation time and
// returns a function that restores it on every invocation. It is the bridge
// for callbacks crossing into code that does not preserve propagation.
func Bind(ctx context.Context, fn func(context.Context)) func() {
	snap := Snapshot(ctx)
	return func() {
		_ = Restore(context.Background(), snap, func(c context.Context) error {
			fn(c)
			return nil
		})
	}
}

// EnsureCorrelationID returns a context whose active scope carries a
// correlation id, minting one when absent. Without an active scope a new
// scope is created.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if s := scopeFrom(ctx); s != nil {
		s.mu.Lock()
		if s.f.CorrelationID == "" {
			s.f.CorrelationID = uuid.NewString()
		}
		s.mu.Unlock()
		return ctx
	}
	child := &scope{f: ScopeFields{CorrelationID: uuid.NewString()}}
	return context.WithValue(ctx, scopeCtxKey{}, child)
}

// --- Typed getters for well-known fields ---

// CorrelationIDFrom returns the active scope's correlation id, or "".
func CorrelationIDFrom(ctx context.Context) string { return Snapshot(ctx).CorrelationID }

// TraceIDFrom returns the active scope's trace id, or "".
func TraceIDFrom(ctx context.Context) string { return Snapshot(ctx).TraceID }

// SpanIDFrom returns the active scope's span id, or "".
func SpanIDFrom(ctx context.Context) string { return Snapshot(ctx).SpanID }

// UserIDFrom returns the active scope's user id, or "".
func UserIDFrom(ctx context.Context) string { return Snapshot(ctx).UserID }

// RequestIDFrom returns the active scope's request id, or "".
func RequestIDFrom(ctx context.Context) string { return Snapshot(ctx).RequestID }

// SessionIDFrom returns the active scope's session id, or "".
func SessionIDFrom(ctx context.Context) string { return Snapshot(ctx).SessionID }

// TenantIDFrom returns the active scope's tenant id, or "".
func TenantIDFrom(ctx context.Context) string { return Snapshot(ctx).TenantID }

// BindingFrom returns one key from the active scope's bindings map.
func BindingFrom(ctx context.Context, key string) (interface{}, bool) {
	s := scopeFrom(ctx)
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.f.Bindings[key]
	return v, ok
}

// contextFields flattens a scope snapshot into record context entries under
// their conventional key names.
func (f ScopeFields) contextFields() Fields {
	out := f.Bindings.clone()
	set := func(k, v string) {
		if v == "" {
			return
		}
		if out == nil {
			out = make(Fields)
		}
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	set("correlationId", f.CorrelationID)
	set("userId", f.UserID)
	set("requestId", f.RequestID)
	set("sessionId", f.SessionID)
	set("tenantId", f.TenantID)
	return out
}
