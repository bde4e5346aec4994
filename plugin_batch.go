// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - plugin_batch.go
// Batching pipeline stage: accumulates surviving records until a size or
// time threshold, then delivers them to a caller-supplied sink with
// exponential-backoff retry. Only one flush is ever in flight; a flush
// requested while another runs waits for it and then re-enters. Error and
// fatal records can force an immediate out-of-band flush.

package lumen

import (
	"context"
	"sync"
	"time"
)

// BatchSink receives a flushed batch.
type BatchSink func(ctx context.Context, recs []*Record) error

// BatchPluginConfig configures a BatchPlugin.
type BatchPluginConfig struct {
	// Order is the pipeline position. Defaults to 60.
	Order int
	// MaxBatchSize triggers a flush when reached. Defaults to 100.
	MaxBatchSize int
	// MaxWait flushes a partial batch after this long. Defaults to 1s.
	MaxWait time.Duration
	// Sink is required; a nil sink makes the plugin a no-op.
	Sink BatchSink
	// MaxRetries caps delivery attempts beyond the first. Defaults to 3.
	MaxRetries int
	// BackoffBase is the first retry delay; each retry doubles it.
	// Defaults to 100ms.
	BackoffBase time.Duration
	// FlushOnError forces an immediate flush when an error or fatal record
	// arrives, bypassing the timer.
	FlushOnError bool
	// ErrorHook observes a batch lost after all retries.
	ErrorHook func(err error)
}

// BatchPlugin observes surviving records (OnWrite) and batches them toward
// its sink. It never transforms or drops records on the main path.
type BatchPlugin struct {
	BasePlugin
	cfg BatchPluginConfig

	mu       sync.Mutex
	cond     *sync.Cond
	buf      []*Record
	flushing bool
	closed   bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewBatchPlugin builds the stage and starts its flush timer.
func NewBatchPlugin(cfg BatchPluginConfig) *BatchPlugin {
	if cfg.Order == 0 {
		cfg.Order = 60
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 100
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 100 * time.Millisecond
	}
	p := &BatchPlugin{
		BasePlugin: NewBasePlugin("batch", cfg.Order),
		cfg:        cfg,
		done:       make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(1)
	go p.timerLoop()
	return p
}

// OnWrite accumulates a copy of the record; transports may recycle theirs.
func (p *BatchPlugin) OnWrite(rec *Record) {
	if p.cfg.Sink == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.buf = append(p.buf, rec.Clone())
	full := len(p.buf) >= p.cfg.MaxBatchSize
	urgent := p.cfg.FlushOnError && rec.Level >= ERROR
	p.mu.Unlock()

	if full || urgent {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			_ = p.flush(context.Background())
		}()
	}
}

// OnFlush drains the buffer synchronously.
func (p *BatchPlugin) OnFlush(ctx context.Context) error {
	return p.flush(ctx)
}

// OnClose stops the timer and performs a final flush. Idempotent.
func (p *BatchPlugin) OnClose(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	close(p.done)
	err := p.flush(ctx)
	p.wg.Wait()
	return err
}

func (p *BatchPlugin) timerLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.MaxWait)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = p.flush(context.Background())
		case <-p.done:
			return
		}
	}
}

// flush sends the pending buffer. An in-flight flush absorbs subsequent
// requests: later callers wait for it to finish, then flush whatever
// accumulated in the meantime. No overlapping sends.
func (p *BatchPlugin) flush(ctx context.Context) error {
	p.mu.Lock()
	for p.flushing {
		p.cond.Wait()
	}
	if len(p.buf) == 0 {
		p.mu.Unlock()
		return nil
	}
	batch := p.buf
	p.buf = nil
	p.flushing = true
	p.mu.Unlock()

	err := p.send(ctx, batch)

	p.mu.Lock()
	p.flushing = false
	p.cond.Broadcast()
	p.mu.Unlock()

	if err != nil && p.cfg.ErrorHook != nil {
		p.cfg.ErrorHook(err)
	}
	return err
}

// send delivers one batch with exponential backoff: delay = base * 2^attempt.
func (p *BatchPlugin) send(ctx context.Context, batch []*Record) error {
	var err error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.cfg.BackoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = p.cfg.Sink(ctx, batch); err == nil {
			return nil
		}
	}
	return err
}
