// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - global.go
// The process-wide default logger. Zero-configuration logging works out of
// the box: the default logger initializes itself on first use at INFO with a
// console transport. Applications that want more call Init at startup.

package lumen

import (
	"context"
	"sync"
	"time"
)

var (
	globalLogger   *Logger
	globalMu       sync.RWMutex
	ensureInitOnce sync.Once
)

// Init replaces the default logger with one built from cfg.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
	return nil
}

// Default returns the process-wide logger, initializing it with defaults on
// first use.
func Default() *Logger {
	ensureInit()
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Reinit swaps in a logger built from cfg and closes the previous default
// within closeOldTimeout. Useful for applying a new configuration at runtime
// without losing buffered records.
func Reinit(cfg Config, closeOldTimeout time.Duration) (*Logger, error) {
	ensureInit()
	newLogger, err := New(cfg)
	if err != nil {
		return nil, err
	}
	globalMu.Lock()
	old := globalLogger
	globalLogger = newLogger
	globalMu.Unlock()

	if old != nil {
		ctx, cancel := context.WithTimeout(context.Background(), closeOldTimeout)
		defer cancel()
		err = old.Close(ctx)
	}
	return newLogger, err
}

// CloseDefault shuts down the default logger.
func CloseDefault(ctx context.Context) error {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l == nil {
		return nil
	}
	return l.Close(ctx)
}

type ctxLoggerKey struct{}

// WithLogger attaches l to the context for retrieval with LoggerFrom.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, l)
}

// LoggerFrom returns the logger attached to ctx, falling back to the
// process-wide default.
func LoggerFrom(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxLoggerKey{}).(*Logger); ok && l != nil {
			return l
		}
	}
	return Default()
}

func ensureInit() {
	ensureInitOnce.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		if globalLogger != nil {
			return
		}
		l, err := New(Config{})
		if err != nil {
			// Config{} validates clean; this cannot happen.
			panic(err)
		}
		globalLogger = l
	})
}
