// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

package lumen

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// captureServer records every batch body it receives.
type captureServer struct {
	mu      sync.Mutex
	batches [][]Record
	headers []http.Header
	failN   int
	srv     *httptest.Server
}

func newCaptureServer(t *testing.T) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cs.mu.Lock()
		defer cs.mu.Unlock()
		cs.headers = append(cs.headers, r.Header.Clone())
		if cs.failN > 0 {
			cs.failN--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var batch []Record
		require.NoError(t, json.Unmarshal(body, &batch))
		cs.batches = append(cs.batches, batch)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *captureServer) messages() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	var out []string
	for _, b := range cs.batches {
		for _, rec := range b {
			out = append(out, rec.Msg)
		}
	}
	return out
}

func TestHTTPTransportRequiresURL(t *testing.T) {
	_, err := NewHTTPTransport(HTTPTransportConfig{})
	require.Error(t, err)
}

func TestHTTPTransportRejectsBadMethod(t *testing.T) {
	_, err := NewHTTPTransport(HTTPTransportConfig{URL: "http://x", Method: "DELETE"})
	require.Error(t, err)
}

func TestHTTPTransportDeliversBatches(t *testing.T) {
	cs := newCaptureServer(t)
	tr, err := NewHTTPTransport(HTTPTransportConfig{
		URL:       cs.srv.URL,
		BatchSize: 2,
	})
	require.NoError(t, err)

	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "a"}, nil))
	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "b"}, nil))
	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "c"}, nil))
	require.NoError(t, tr.Close(context.Background()))

	require.Equal(t, []string{"a", "b", "c"}, cs.messages())
}

func TestHTTPTransportAuthHeaders(t *testing.T) {
	cs := newCaptureServer(t)
	tr, err := NewHTTPTransport(HTTPTransportConfig{
		URL:     cs.srv.URL,
		Auth:    HTTPAuth{BearerToken: "tok-123"},
		Headers: map[string]string{"X-Env": "test"},
	})
	require.NoError(t, err)
	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "a"}, nil))
	require.NoError(t, tr.Close(context.Background()))

	cs.mu.Lock()
	defer cs.mu.Unlock()
	require.Len(t, cs.headers, 1)
	require.Equal(t, "Bearer tok-123", cs.headers[0].Get("Authorization"))
	require.Equal(t, "test", cs.headers[0].Get("X-Env"))
	require.Equal(t, "application/json", cs.headers[0].Get("Content-Type"))
}

func TestHTTPTransportAPIKeyAuth(t *testing.T) {
	cs := newCaptureServer(t)
	tr, err := NewHTTPTransport(HTTPTransportConfig{
		URL:  cs.srv.URL,
		Auth: HTTPAuth{APIKey: "k-9"},
	})
	require.NoError(t, err)
	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "a"}, nil))
	require.NoError(t, tr.Close(context.Background()))

	cs.mu.Lock()
	defer cs.mu.Unlock()
	require.Equal(t, "k-9", cs.headers[0].Get("X-API-Key"))
}

func TestHTTPTransportRetriesTransientFailures(t *testing.T) {
	cs := newCaptureServer(t)
	cs.failN = 2
	tr, err := NewHTTPTransport(HTTPTransportConfig{
		URL:         cs.srv.URL,
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "a"}, nil))
	require.NoError(t, tr.Flush(context.Background()))
	require.Equal(t, []string{"a"}, cs.messages())
	require.NoError(t, tr.Close(context.Background()))
}

func TestHTTPTransportRequeuePreservesOrder(t *testing.T) {
	cs := newCaptureServer(t)
	cs.failN = 8 // more than the retry budget for the first flush
	var reported []error
	tr, err := NewHTTPTransport(HTTPTransportConfig{
		URL:              cs.srv.URL,
		BatchSize:        2,
		MaxRetries:       1,
		BackoffBase:      time.Millisecond,
		BreakerThreshold: 100,
		ErrorHook:        func(err error) { reported = append(reported, err) },
	})
	require.NoError(t, err)

	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "a"}, nil))
	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "b"}, nil))
	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "c"}, nil))

	// First flush fails; the batch goes back to the front.
	require.Error(t, tr.sendPending(context.Background()))
	require.NotEmpty(t, reported)

	// Server recovers; everything arrives in the original order.
	cs.mu.Lock()
	cs.failN = 0
	cs.mu.Unlock()
	require.NoError(t, tr.Flush(context.Background()))
	require.Equal(t, []string{"a", "b", "c"}, cs.messages())
	require.NoError(t, tr.Close(context.Background()))
}

func TestHTTPTransportBreakerOpensAndRejects(t *testing.T) {
	cs := newCaptureServer(t)
	cs.failN = 1 << 30
	tr, err := NewHTTPTransport(HTTPTransportConfig{
		URL:                 cs.srv.URL,
		MaxRetries:          1,
		BackoffBase:         time.Millisecond,
		BreakerThreshold:    2,
		BreakerResetTimeout: time.Hour,
	})
	require.NoError(t, err)

	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "a"}, nil))
	require.Error(t, tr.sendPending(context.Background()))
	require.Error(t, tr.sendPending(context.Background()))
	require.Equal(t, BreakerOpen, tr.Breaker().State())

	// With the circuit open the batch is rejected without a network attempt.
	err = tr.sendPending(context.Background())
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestHTTPTransportShedsOldestAboveBuffer(t *testing.T) {
	var reported []error
	tr, err := NewHTTPTransport(HTTPTransportConfig{
		URL:       "http://127.0.0.1:0/unreachable",
		BatchSize: 1000,
		MaxBuffer: 3,
		ErrorHook: func(err error) { reported = append(reported, err) },
	})
	require.NoError(t, err)

	for _, msg := range []string{"a", "b", "c", "d"} {
		require.NoError(t, tr.Write(&Record{Level: INFO, Msg: msg}, nil))
	}
	tr.mu.Lock()
	var msgs []string
	for _, r := range tr.buf {
		msgs = append(msgs, r.Msg)
	}
	tr.mu.Unlock()
	require.Equal(t, []string{"b", "c", "d"}, msgs)
	require.Equal(t, int64(1), tr.Dropped())
	require.NotEmpty(t, reported)
}

func TestHTTPTransportMapper(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr, err := NewHTTPTransport(HTTPTransportConfig{
		URL: srv.URL,
		Mapper: func(recs []*Record) interface{} {
			return map[string]interface{}{"count": len(recs)}
		},
	})
	require.NoError(t, err)
	require.NoError(t, tr.Write(&Record{Level: INFO, Msg: "a"}, nil))
	require.NoError(t, tr.Close(context.Background()))
	require.Equal(t, float64(1), got["count"])
}
