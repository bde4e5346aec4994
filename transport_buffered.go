// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - transport_buffered.go
// A generic buffering decorator for any transport. Records accumulate in
// memory; reaching the batch size schedules an asynchronous drain, a timer
// drains stragglers, and hitting the full buffer bound forces a synchronous
// drain so a burst cannot outrun the sink unchecked. Records that fail to
// deliver go back to the front of the buffer in order.

package lumen

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BufferedConfig configures a BufferedTransport.
type BufferedConfig struct {
	// BufferSize is the hard bound; reaching it forces a synchronous drain.
	// Defaults to 1000.
	BufferSize int
	// MaxBatchSize schedules an asynchronous drain when pending records reach
	// it. Defaults to 100.
	MaxBatchSize int
	// FlushInterval drains stragglers periodically. Defaults to 1s.
	FlushInterval time.Duration
	// HardCap bounds the buffer absolutely; above it the oldest records are
	// dropped. Defaults to 4x BufferSize.
	HardCap int
	// OnOverflow observes records dropped at the hard cap.
	OnOverflow func(rec *Record)
	// OnError observes per-record delivery failures.
	OnError func(rec *Record, err error)
}

// buffered holds a record together with its rendered line.
type buffered struct {
	rec  *Record
	line []byte
}

// BufferedTransport decorates a transport with batching and a bounded buffer.
type BufferedTransport struct {
	inner Transport
	cfg   BufferedConfig

	mu       sync.Mutex
	pending  []buffered
	draining bool

	done   chan struct{}
	wg     sync.WaitGroup
	closed atomicBool
}

// NewBufferedTransport wraps inner with buffering.
func NewBufferedTransport(inner Transport, cfg BufferedConfig) *BufferedTransport {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.MaxBatchSize > cfg.BufferSize {
		cfg.MaxBatchSize = cfg.BufferSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.HardCap <= 0 {
		cfg.HardCap = cfg.BufferSize * 4
	}
	t := &BufferedTransport{
		inner: inner,
		cfg:   cfg,
		done:  make(chan struct{}),
	}
	t.wg.Add(1)
	go t.timerLoop()
	return t
}

// Name implements Transport.
func (t *BufferedTransport) Name() string { return t.inner.Name() + "+buffered" }

// Write buffers the record. A full batch drains asynchronously; a full
// buffer drains on the caller's goroutine before returning.
func (t *BufferedTransport) Write(rec *Record, line []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}
	cp := make([]byte, len(line))
	copy(cp, line)

	t.mu.Lock()
	t.pending = append(t.pending, buffered{rec: rec.Clone(), line: cp})
	for len(t.pending) > t.cfg.HardCap {
		victim := t.pending[0]
		t.pending = t.pending[1:]
		if t.cfg.OnOverflow != nil {
			t.cfg.OnOverflow(victim.rec)
		}
	}
	n := len(t.pending)
	t.mu.Unlock()

	switch {
	case n >= t.cfg.BufferSize:
		return t.drain()
	case n >= t.cfg.MaxBatchSize:
		go func() { _ = t.drain() }()
	}
	return nil
}

// Flush drains everything pending and flushes the inner transport.
func (t *BufferedTransport) Flush(ctx context.Context) error {
	for {
		t.mu.Lock()
		n := len(t.pending)
		t.mu.Unlock()
		if n == 0 {
			break
		}
		if err := t.drain(); err != nil {
			return err
		}
	}
	return t.inner.Flush(ctx)
}

// Close drains, stops the timer, and closes the inner transport. Idempotent.
func (t *BufferedTransport) Close(ctx context.Context) error {
	if !t.closed.TrySetTrue() {
		return nil
	}
	close(t.done)
	t.wg.Wait()
	err := t.Flush(ctx)
	if cerr := t.inner.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

// Pending returns the current buffer depth.
func (t *BufferedTransport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *BufferedTransport) timerLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = t.drain()
		case <-t.done:
			return
		}
	}
}

// drain delivers one batch to the inner transport. Only one drain runs at a
// time; concurrent callers yield to the one in flight. Records that fail go
// back to the front, in order, for the next attempt.
func (t *BufferedTransport) drain() error {
	t.mu.Lock()
	if t.draining || len(t.pending) == 0 {
		t.mu.Unlock()
		return nil
	}
	t.draining = true
	n := len(t.pending)
	if n > t.cfg.MaxBatchSize {
		n = t.cfg.MaxBatchSize
	}
	batch := t.pending[:n]
	t.pending = t.pending[n:]
	t.mu.Unlock()

	var failed []buffered
	var first error
	for _, item := range batch {
		if err := t.inner.Write(item.rec, item.line); err != nil {
			failed = append(failed, item)
			if first == nil {
				first = fmt.Errorf("lumen: buffered transport %s: %w", t.inner.Name(), err)
			}
			if t.cfg.OnError != nil {
				t.cfg.OnError(item.rec, err)
			}
		}
	}

	t.mu.Lock()
	if len(failed) > 0 {
		t.pending = append(failed, t.pending...)
	}
	t.draining = false
	t.mu.Unlock()
	return first
}
