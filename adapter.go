// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - adapter.go
// A context-bound wrapper for handing the logger to packages that neither
// thread contexts nor know lumen's types. SimpleLogger and ExtendedLogger
// are the minimal interfaces external code should accept.

package lumen

import "context"

// SimpleLogger is the minimal leveled interface for external packages.
type SimpleLogger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(msg string, err error, fields ...Fields)
}

// ExtendedLogger adds Fatal to SimpleLogger.
type ExtendedLogger interface {
	SimpleLogger
	Fatal(msg string, err error, fields ...Fields)
}

// Bound pairs a logger with a fixed context so callers log without passing
// one. The captured context's scope applies to every call.
type Bound struct {
	l   *Logger
	ctx context.Context
}

// WithContext returns a Bound logger carrying ctx.
func (l *Logger) WithContext(ctx context.Context) *Bound {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Bound{l: l, ctx: ctx}
}

// Context returns the captured context.
func (b *Bound) Context() context.Context { return b.ctx }

// WithContext returns a new Bound sharing the logger with a different context.
func (b *Bound) WithContext(ctx context.Context) *Bound {
	return b.l.WithContext(ctx)
}

// Logger returns the underlying logger.
func (b *Bound) Logger() *Logger { return b.l }

// Trace logs at TRACE with the captured context.
func (b *Bound) Trace(msg string, fields ...Fields) { b.l.Trace(b.ctx, msg, fields...) }

// Debug logs at DEBUG with the captured context.
func (b *Bound) Debug(msg string, fields ...Fields) { b.l.Debug(b.ctx, msg, fields...) }

// Info logs at INFO with the captured context.
func (b *Bound) Info(msg string, fields ...Fields) { b.l.Info(b.ctx, msg, fields...) }

// Warn logs at WARN with the captured context.
func (b *Bound) Warn(msg string, fields ...Fields) { b.l.Warn(b.ctx, msg, fields...) }

// Error logs at ERROR with the captured context.
func (b *Bound) Error(msg string, err error, fields ...Fields) {
	b.l.Error(b.ctx, msg, err, fields...)
}

// Fatal logs at FATAL with the captured context, then exits.
func (b *Bound) Fatal(msg string, err error, fields ...Fields) {
	b.l.Fatal(b.ctx, msg, err, fields...)
}

var (
	_ SimpleLogger   = (*Bound)(nil)
	_ ExtendedLogger = (*Bound)(nil)
)
