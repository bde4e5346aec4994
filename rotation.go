// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - rotation.go
// A size-and-age rotating file transport built on lumberjack, for deployments
// that want a single log file with classic backup rotation instead of the
// period-and-sequence scheme of FileTransport.

package lumen

import (
	"context"
	"fmt"

	"gopkg.in/natefinch/lumberjack.v2"
)

// SimpleFileConfig configures a SimpleFileTransport.
type SimpleFileConfig struct {
	// Filename is the log file path. Required.
	Filename string
	// MaxSizeMB rotates the file when it exceeds this size. Defaults to 100.
	MaxSizeMB int
	// MaxAgeDays deletes backups older than this. 0 keeps them indefinitely.
	MaxAgeDays int
	// MaxBackups caps retained backup files. 0 keeps them all.
	MaxBackups int
	// Compress gzips rotated backups.
	Compress bool
	// Retry applies to individual writes.
	Retry RetryPolicy
}

// SimpleFileTransport writes lines to one lumberjack-rotated file.
type SimpleFileTransport struct {
	out    *lumberjack.Logger
	retry  RetryPolicy
	closed atomicBool
}

// NewSimpleFileTransport builds the transport.
func NewSimpleFileTransport(cfg SimpleFileConfig) (*SimpleFileTransport, error) {
	if cfg.Filename == "" {
		return nil, fmt.Errorf("lumen: simple file transport requires a filename")
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 100
	}
	return &SimpleFileTransport{
		out: &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		},
		retry: cfg.Retry,
	}, nil
}

// Name implements Transport.
func (t *SimpleFileTransport) Name() string { return "simplefile" }

// Write appends the line; lumberjack rotates under the hood.
func (t *SimpleFileTransport) Write(_ *Record, line []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}
	return writeWithRetry(t.out, line, t.retry)
}

// Flush is a no-op; lumberjack writes through to the file.
func (t *SimpleFileTransport) Flush(context.Context) error { return nil }

// Close closes the underlying file. Idempotent.
func (t *SimpleFileTransport) Close(context.Context) error {
	if !t.closed.TrySetTrue() {
		return nil
	}
	return t.out.Close()
}
