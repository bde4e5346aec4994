// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

package lumen

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeRand replays a fixed sequence of draws, cycling at the end.
type fakeRand struct {
	mu  sync.Mutex
	seq []float64
	i   int
}

func (r *fakeRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seq) == 0 {
		return 0
	}
	v := r.seq[r.i%len(r.seq)]
	r.i++
	return v
}

// memTransport collects delivered records and lines in memory. failNext
// makes the next N writes fail.
type memTransport struct {
	mu       sync.Mutex
	recs     []*Record
	lines    []string
	failNext int
	flushed  int
	closed   int
}

func (t *memTransport) Name() string { return "mem" }

func (t *memTransport) Write(rec *Record, line []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failNext > 0 {
		t.failNext--
		return errors.New("mem transport write failed")
	}
	t.recs = append(t.recs, rec.Clone())
	t.lines = append(t.lines, string(line))
	return nil
}

func (t *memTransport) Flush(context.Context) error {
	t.mu.Lock()
	t.flushed++
	t.mu.Unlock()
	return nil
}

func (t *memTransport) Close(context.Context) error {
	t.mu.Lock()
	t.closed++
	t.mu.Unlock()
	return nil
}

func (t *memTransport) records() []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Record, len(t.recs))
	copy(out, t.recs)
	return out
}

func (t *memTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.recs)
}

func infoRecord(msg string) *Record {
	return &Record{Time: time.Now().UnixMilli(), Level: INFO, Msg: msg}
}
