// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - errors.go
// Sentinel errors shared across the runtime. Delivery-path errors are never
// returned to the logging caller; they surface through the error hook.

package lumen

import "errors"

// ErrClosed reports a write against a logger or transport that has been closed.
var ErrClosed = errors.New("lumen: closed")

// ErrCircuitOpen reports a send rejected by an open circuit breaker.
var ErrCircuitOpen = errors.New("lumen: circuit breaker open")

// ErrBufferFull reports a buffered transport that had to shed records.
var ErrBufferFull = errors.New("lumen: buffer full")

// ErrRecordDropped reports a record dropped by a strict redaction policy.
var ErrRecordDropped = errors.New("lumen: record dropped by strict redaction")

// ErrAdapterQueueFull reports that the async adapter queue was full and an
// event was missed.
var ErrAdapterQueueFull = errors.New("lumen: adapter queue full")

// ErrAdapterTimeout reports an adapter that exceeded its execution timeout.
var ErrAdapterTimeout = errors.New("lumen: adapter timeout")

// ErrAdapterPanic reports an adapter that panicked during execution.
var ErrAdapterPanic = errors.New("lumen: adapter panic")
