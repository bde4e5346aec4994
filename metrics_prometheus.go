// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - metrics_prometheus.go
// Prometheus-backed MetricsCollector. Snapshot deltas feed two counter
// vectors: records by level, and errors by error type.

package lumen

import "github.com/prometheus/client_golang/prometheus"

// PrometheusCollector exposes pipeline throughput as Prometheus counters.
type PrometheusCollector struct {
	records *prometheus.CounterVec
	errors  *prometheus.CounterVec
}

// NewPrometheusCollector registers the collector's metrics with reg.
// Pass prometheus.DefaultRegisterer to use the process-global registry.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	c := &PrometheusCollector{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumen",
			Name:      "records_total",
			Help:      "Log records that survived the pipeline, by level.",
		}, []string{"level"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lumen",
			Name:      "record_errors_total",
			Help:      "Error records that survived the pipeline, by error type.",
		}, []string{"type"}),
	}
	if err := reg.Register(c.records); err != nil {
		return nil, err
	}
	if err := reg.Register(c.errors); err != nil {
		return nil, err
	}
	return c, nil
}

// Collect adds one snapshot's deltas to the counters.
func (c *PrometheusCollector) Collect(s MetricsSnapshot) {
	for lvl, count := range s.Levels {
		c.records.WithLabelValues(lvl.String()).Add(float64(count))
	}
	for typ, count := range s.ErrorTypes {
		c.errors.WithLabelValues(typ).Add(float64(count))
	}
}
