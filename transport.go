// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - transport.go
// The transport contract and the console transport. A transport consumes
// formatted records; it must not retain the record past Write unless it
// copies it. Delivery errors never reach the logging caller; the logger
// catches them and reports through its error hook.

package lumen

import (
	"context"
	"io"
	"math/rand"
	"os"
	"sync"
	"time"
)

// Transport is a sink that delivers formatted records.
type Transport interface {
	// Name identifies the transport in stats and diagnostics.
	Name() string
	// Write delivers one record. line is the rendered form; rec is available
	// for transports that re-encode (HTTP batching). Implementations that
	// buffer must copy rec.
	Write(rec *Record, line []byte) error
	// Flush drains pending work and blocks until it completes.
	Flush(ctx context.Context) error
	// Close flushes and releases resources. Must be idempotent.
	Close(ctx context.Context) error
}

// RetryPolicy configures retry behavior for transient write failures.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// Backoff is the base delay before the first retry.
	Backoff time.Duration
	// Jitter adds a random duration up to this value to each delay.
	Jitter time.Duration
	// Exponential doubles the delay after each failed retry.
	Exponential bool
}

// writeWithRetry writes p to w, retrying per policy. It returns the last
// error when every attempt fails.
func writeWithRetry(w io.Writer, p []byte, rp RetryPolicy) error {
	maxRetries := rp.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if _, err = w.Write(p); err == nil {
			return nil
		}
		if attempt == maxRetries {
			return err
		}
		delay := rp.Backoff
		if rp.Exponential {
			delay *= time.Duration(1 << attempt)
		}
		if rp.Jitter > 0 {
			delay += time.Duration(rand.Int63n(int64(rp.Jitter)))
		}
		time.Sleep(delay)
	}
	return err
}

// ConsoleConfig configures a ConsoleTransport.
type ConsoleConfig struct {
	// Stdout receives records below ERROR. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives ERROR and FATAL records. Defaults to os.Stderr.
	Stderr io.Writer
	// Retry applies to individual writes.
	Retry RetryPolicy
}

// ConsoleTransport writes lines synchronously, routing by severity.
type ConsoleTransport struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
	retry  RetryPolicy
	closed atomicBool
}

// NewConsoleTransport builds the transport with defaults applied.
func NewConsoleTransport(cfg ConsoleConfig) *ConsoleTransport {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &ConsoleTransport{stdout: cfg.Stdout, stderr: cfg.Stderr, retry: cfg.Retry}
}

// Name implements Transport.
func (t *ConsoleTransport) Name() string { return "console" }

// Write routes the line to stdout or stderr by level. The mutex keeps
// interleaved lines whole under concurrent writers.
func (t *ConsoleTransport) Write(rec *Record, line []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	w := t.stdout
	if rec.Level >= ERROR {
		w = t.stderr
	}
	return writeWithRetry(w, line, t.retry)
}

// SetRetry replaces the write retry policy at runtime.
func (t *ConsoleTransport) SetRetry(rp RetryPolicy) {
	t.mu.Lock()
	t.retry = rp
	t.mu.Unlock()
}

// Flush is a no-op; console writes are unbuffered.
func (t *ConsoleTransport) Flush(context.Context) error { return nil }

// Close marks the transport closed. Idempotent; the underlying writers are
// not owned and stay open.
func (t *ConsoleTransport) Close(context.Context) error {
	t.closed.Store(true)
	return nil
}
