// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - adapters.go
// Adapters are observer callbacks invoked after a record is delivered, for
// side channels like alerting or audit mirrors. They run fire-and-forget:
// synchronously off the hot path or through a bounded async worker pool,
// with a per-call timeout and panic containment. Adapter failures are
// counted and kept in a bounded error log; they never reach the caller.

package lumen

import (
	"context"
	"sync"
	"time"
)

// AdapterFunc observes a delivered record. The record is shared; adapters
// must not mutate it.
type AdapterFunc func(rec *Record) error

// AdapterConfig tunes the adapter pool.
type AdapterConfig struct {
	// Async routes records through a worker pool instead of inline goroutines.
	Async bool
	// Workers is the async pool size. Defaults to 2.
	Workers int
	// Queue is the async queue depth. Defaults to 256.
	Queue int
	// Timeout bounds each adapter call. 0 disables the bound.
	Timeout time.Duration
	// MaxErrors bounds the retained adapter error log. Defaults to 100.
	MaxErrors int
}

// AdapterError is one recorded adapter failure.
type AdapterError struct {
	Time  time.Time
	Level Level
	Msg   string
	Err   error
}

const defaultAdapterErrMax = 100

// adapterPool dispatches records to registered adapters.
type adapterPool struct {
	cfg      AdapterConfig
	adapters []AdapterFunc

	queueMu sync.RWMutex // excludes sends against close(queue)
	queue   chan *Record
	wg      sync.WaitGroup
	closed  atomicBool

	errCount atomicI64
	errMu    sync.Mutex
	errLog   []AdapterError
}

// newAdapterPool builds the pool and, in async mode, starts its workers.
func newAdapterPool(adapters []AdapterFunc, cfg AdapterConfig) *adapterPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Queue <= 0 {
		cfg.Queue = 256
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = defaultAdapterErrMax
	}
	p := &adapterPool{cfg: cfg, adapters: adapters}
	if cfg.Async && len(adapters) > 0 {
		p.queue = make(chan *Record, cfg.Queue)
		for i := 0; i < cfg.Workers; i++ {
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				for rec := range p.queue {
					p.runAll(rec)
				}
			}()
		}
	}
	return p
}

// dispatch hands a record to the adapters without blocking delivery. In
// async mode a full queue drops the notification and records the error.
func (p *adapterPool) dispatch(rec *Record) {
	if len(p.adapters) == 0 || p.closed.Load() {
		return
	}
	if p.cfg.Async {
		// Re-check closed under the read lock: close() cannot close the
		// channel while any sender holds it.
		p.queueMu.RLock()
		if p.closed.Load() {
			p.queueMu.RUnlock()
			return
		}
		select {
		case p.queue <- rec:
		default:
			p.recordError(rec, ErrAdapterQueueFull)
		}
		p.queueMu.RUnlock()
		return
	}
	go p.runAll(rec)
}

// runAll invokes every adapter for one record, panic-safe and bounded by the
// configured timeout.
func (p *adapterPool) runAll(rec *Record) {
	for _, a := range p.adapters {
		p.runOne(a, rec)
	}
}

func (p *adapterPool) runOne(a AdapterFunc, rec *Record) {
	defer func() {
		if r := recover(); r != nil {
			p.recordError(rec, ErrAdapterPanic)
		}
	}()
	if p.cfg.Timeout <= 0 {
		if err := a(rec); err != nil {
			p.recordError(rec, err)
		}
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- ErrAdapterPanic
			}
		}()
		done <- a(rec)
	}()
	select {
	case <-ctx.Done():
		p.recordError(rec, ErrAdapterTimeout)
	case err := <-done:
		if err != nil {
			p.recordError(rec, err)
		}
	}
}

// recordError counts the failure and appends it to the bounded error log,
// evicting the oldest entries when full.
func (p *adapterPool) recordError(rec *Record, err error) {
	p.errCount.Add(1)
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if len(p.errLog) >= p.cfg.MaxErrors {
		trim := len(p.errLog) - (p.cfg.MaxErrors - 1)
		p.errLog = p.errLog[trim:]
	}
	p.errLog = append(p.errLog, AdapterError{
		Time:  time.Now(),
		Level: rec.Level,
		Msg:   rec.Msg,
		Err:   err,
	})
}

// errors returns a copy of the retained adapter error log.
func (p *adapterPool) errors() []AdapterError {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	out := make([]AdapterError, len(p.errLog))
	copy(out, p.errLog)
	return out
}

// close drains the async queue and stops the workers. Idempotent.
func (p *adapterPool) close() {
	if !p.closed.TrySetTrue() {
		return
	}
	if p.cfg.Async && p.queue != nil {
		p.queueMu.Lock()
		close(p.queue)
		p.queueMu.Unlock()
		p.wg.Wait()
	}
}
