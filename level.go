// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen provides an embeddable logging runtime for Go applications.
// This file defines the six-level severity model and its ordering.

package lumen

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Level represents the severity of a log record. Levels are ordered by
// numeric weight; a logger admits records whose weight is at or above its
// configured minimum.
type Level int32

// Log level constants. The gaps between weights leave room for callers that
// need intermediate custom levels when filtering.
const (
	// TRACE level is for extremely fine-grained diagnostics.
	TRACE Level = 10
	// DEBUG level is for detailed information useful when diagnosing problems.
	DEBUG Level = 20
	// INFO level is for informational messages about normal operation.
	INFO Level = 30
	// WARN level is for potentially harmful situations that are not errors.
	WARN Level = 40
	// ERROR level is for failures that still allow the application to continue.
	ERROR Level = 50
	// FATAL level is for severe failures after which the process should stop.
	FATAL Level = 60
)

// String returns the lowercase string representation of the log level.
func (lvl Level) String() string {
	switch lvl {
	case TRACE:
		return "trace"
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	case FATAL:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the level as its lowercase name, which is the wire
// representation transports emit.
func (lvl Level) MarshalJSON() ([]byte, error) {
	return []byte(`"` + lvl.String() + `"`), nil
}

// UnmarshalJSON decodes a level from its lowercase name.
func (lvl *Level) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*lvl = parsed
	return nil
}

// ParseLevel converts a level name into a Level. Matching is
// case-insensitive. An unsupported name is a caller-input error and is
// surfaced synchronously.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TRACE, nil
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	default:
		return 0, fmt.Errorf("lumen: unsupported level %q", s)
	}
}

// validLevel reports whether lvl is one of the six defined levels.
func validLevel(lvl Level) bool {
	switch lvl {
	case TRACE, DEBUG, INFO, WARN, ERROR, FATAL:
		return true
	}
	return false
}

// --- Atomic Wrappers ---

// atomicLevel provides atomic operations for the Level type (int32).
type atomicLevel struct{ v int32 }

func (a *atomicLevel) Load() Level     { return Level(atomic.LoadInt32(&a.v)) }
func (a *atomicLevel) Store(val Level) { atomic.StoreInt32(&a.v, int32(val)) }

// atomicBool provides atomic operations for a boolean.
type atomicBool struct{ v uint32 }

func (a *atomicBool) Load() bool       { return atomic.LoadUint32(&a.v) != 0 }
func (a *atomicBool) Store(val bool)   { atomic.StoreUint32(&a.v, b32(val)) }
func (a *atomicBool) TrySetTrue() bool { return atomic.CompareAndSwapUint32(&a.v, 0, 1) }

// atomicI64 provides atomic operations for an int64.
type atomicI64 struct{ v int64 }

func (a *atomicI64) Add(delta int64) { atomic.AddInt64(&a.v, delta) }
func (a *atomicI64) Load() int64     { return atomic.LoadInt64(&a.v) }
func (a *atomicI64) Store(val int64) { atomic.StoreInt64(&a.v, val) }

// b32 converts a boolean to a uint32 (0 or 1).
func b32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
