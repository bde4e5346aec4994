// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - transport_http.go
// The batching HTTP transport. Records buffer until the batch size is
// reached, then a worker goroutine POSTs the batch as a JSON array with
// retry and exponential backoff. A failed batch is pushed back to the front
// of the buffer so ordering is preserved and nothing is lost to a single
// outage; a three-state circuit breaker stops hammering a dead endpoint.

package lumen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// HTTPAuth configures the outgoing auth header. At most one mechanism should
// be set; precedence is bearer, then basic, then API key.
type HTTPAuth struct {
	BearerToken  string
	Username     string
	Password     string
	APIKeyHeader string
	APIKey       string
}

// HTTPTransportConfig configures an HTTPTransport.
type HTTPTransportConfig struct {
	// URL is the delivery endpoint. Required.
	URL string
	// Method is POST or PUT. Defaults to POST.
	Method string
	// Headers are added to every request.
	Headers map[string]string
	// Auth configures the authorization header.
	Auth HTTPAuth
	// BatchSize triggers a send when the buffer reaches it. Defaults to 100.
	BatchSize int
	// MaxRetries caps send attempts beyond the first. Defaults to 3.
	MaxRetries int
	// BackoffBase is the first retry delay, doubled per retry. Defaults to 200ms.
	BackoffBase time.Duration
	// Timeout bounds each request. Defaults to 5s.
	Timeout time.Duration
	// Mapper transforms a batch into the request body value. Defaults to
	// identity (the records themselves, as a JSON array).
	Mapper func(recs []*Record) interface{}
	// BreakerThreshold is the consecutive-failure count that opens the
	// circuit. Defaults to 5.
	BreakerThreshold int
	// BreakerResetTimeout is how long the circuit stays open. Defaults to 30s.
	BreakerResetTimeout time.Duration
	// MaxBuffer bounds buffered records; beyond it the oldest are shed.
	// Defaults to 10000.
	MaxBuffer int
	// Client overrides the HTTP client (tests). Timeout is applied per
	// request regardless.
	Client *http.Client
	// Clock feeds the circuit breaker. Defaults to the system clock.
	Clock Clock
	// ErrorHook observes delivery failures and shed records.
	ErrorHook func(err error)
}

// HTTPTransport batches records toward a remote collector.
type HTTPTransport struct {
	cfg     HTTPTransportConfig
	client  *http.Client
	breaker *CircuitBreaker

	mu  sync.Mutex
	buf []*Record

	sendMu  sync.Mutex // serializes sends; no overlapping batches
	kick    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	closed  atomicBool
	dropped atomicI64
}

// NewHTTPTransport builds the transport and starts its send worker.
func NewHTTPTransport(cfg HTTPTransportConfig) (*HTTPTransport, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("lumen: http transport requires a URL")
	}
	switch cfg.Method {
	case "":
		cfg.Method = http.MethodPost
	case http.MethodPost, http.MethodPut:
	default:
		return nil, fmt.Errorf("lumen: http transport method must be POST or PUT, got %q", cfg.Method)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 200 * time.Millisecond
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxBuffer <= 0 {
		cfg.MaxBuffer = 10000
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	t := &HTTPTransport{
		cfg:     cfg,
		client:  client,
		breaker: NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerResetTimeout, cfg.Clock),
		kick:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	t.wg.Add(1)
	go t.worker()
	return t, nil
}

// Name implements Transport.
func (t *HTTPTransport) Name() string { return "http" }

// Breaker exposes the circuit breaker, mainly for observation.
func (t *HTTPTransport) Breaker() *CircuitBreaker { return t.breaker }

// Write buffers a copy of the record. When the batch threshold is reached
// the worker is kicked; the caller never waits on the network.
func (t *HTTPTransport) Write(rec *Record, _ []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}
	t.mu.Lock()
	t.buf = append(t.buf, rec.Clone())
	// Bounded memory: shed the oldest records beyond the hard cap.
	if over := len(t.buf) - t.cfg.MaxBuffer; over > 0 {
		t.buf = t.buf[over:]
		t.dropped.Add(int64(over))
		t.report(fmt.Errorf("%w: shed %d oldest records", ErrBufferFull, over))
	}
	full := len(t.buf) >= t.cfg.BatchSize
	t.mu.Unlock()

	if full {
		select {
		case t.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

// Flush synchronously drains the buffer. It returns the first delivery
// error; buffered records survive for the next attempt.
func (t *HTTPTransport) Flush(ctx context.Context) error {
	for {
		t.mu.Lock()
		pending := len(t.buf)
		t.mu.Unlock()
		if pending == 0 {
			return nil
		}
		if err := t.sendPending(ctx); err != nil {
			return err
		}
	}
}

// Close flushes and stops the worker. Idempotent.
func (t *HTTPTransport) Close(ctx context.Context) error {
	if !t.closed.TrySetTrue() {
		return nil
	}
	err := t.Flush(ctx)
	close(t.done)
	t.wg.Wait()
	return err
}

// Dropped returns how many records were shed to the buffer bound.
func (t *HTTPTransport) Dropped() int64 { return t.dropped.Load() }

func (t *HTTPTransport) worker() {
	defer t.wg.Done()
	for {
		select {
		case <-t.kick:
			_ = t.sendPending(context.Background())
		case <-t.done:
			return
		}
	}
}

// sendPending delivers one batch. On final failure the batch is unshifted
// back to the front of the buffer, preserving record order.
func (t *HTTPTransport) sendPending(ctx context.Context) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	t.mu.Lock()
	if len(t.buf) == 0 {
		t.mu.Unlock()
		return nil
	}
	n := len(t.buf)
	if n > t.cfg.BatchSize {
		n = t.cfg.BatchSize
	}
	batch := t.buf[:n]
	t.buf = t.buf[n:]
	t.mu.Unlock()

	if !t.breaker.Allow() {
		t.requeue(batch)
		t.report(ErrCircuitOpen)
		return ErrCircuitOpen
	}

	err := t.send(ctx, batch)
	if err != nil {
		t.requeue(batch)
		t.breaker.Failure()
		t.report(err)
		return err
	}
	t.breaker.Success()
	return nil
}

// requeue puts a batch back at the front of the buffer.
func (t *HTTPTransport) requeue(batch []*Record) {
	t.mu.Lock()
	t.buf = append(batch, t.buf...)
	t.mu.Unlock()
}

// send performs the request with retry and exponential backoff.
func (t *HTTPTransport) send(ctx context.Context, batch []*Record) error {
	var payload interface{} = batch
	if t.cfg.Mapper != nil {
		payload = t.cfg.Mapper(batch)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("lumen: http transport encode: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := t.cfg.BackoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = t.attempt(ctx, body); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (t *HTTPTransport) attempt(ctx context.Context, body []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, t.cfg.Method, t.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}
	t.applyAuth(req)

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("lumen: http transport got status %d", resp.StatusCode)
	}
	return nil
}

func (t *HTTPTransport) applyAuth(req *http.Request) {
	auth := t.cfg.Auth
	switch {
	case auth.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+auth.BearerToken)
	case auth.Username != "":
		cred := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
		req.Header.Set("Authorization", "Basic "+cred)
	case auth.APIKey != "":
		header := auth.APIKeyHeader
		if header == "" {
			header = "X-API-Key"
		}
		req.Header.Set(header, auth.APIKey)
	}
}

func (t *HTTPTransport) report(err error) {
	if t.cfg.ErrorHook != nil {
		t.cfg.ErrorHook(err)
	}
}
