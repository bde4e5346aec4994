// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen is a structured logging runtime: leveled records, sensitive
// data redaction, task-scoped context propagation, a plugin pipeline, and
// pluggable transports.
//
// Levels, lowest to highest: TRACE, DEBUG, INFO, WARN, ERROR, FATAL. A
// logger delivers a record only when the record's level is at or above the
// logger's gate, and per-level sampling can thin high-volume levels (errors
// always pass).
//
// A record flows through: the level and sampling gates, field assembly
// (logger bindings, context scope, call-site fields), the redactor, the
// plugin pipeline, a single render, then synchronous fan-out to every
// transport. Adapters observe delivered records fire-and-forget. Logging
// never panics and never returns an error; internal failures are counted in
// Stats and surfaced through the configured error hook.
//
// Basic use:
//
//	log, err := lumen.New(lumen.Config{
//		MinLevel: lumen.DEBUG,
//		Service:  "checkout",
//		Redactor: lumen.NewRedactor(lumen.RedactorConfig{}),
//	})
//	if err != nil {
//		panic(err)
//	}
//	defer log.Close(context.Background())
//
//	err = lumen.Run(ctx, lumen.ScopeFields{RequestID: "r-42"}, func(ctx context.Context) error {
//		log.Info(ctx, "payment accepted", lumen.Fields{"orderId": 1001})
//		return nil
//	})
//
// Scopes travel on context.Context: everything called inside Run, including
// goroutines spawned with the received context, logs with the scope's
// fields. Bind and Snapshot/Restore carry a scope across callback
// boundaries that do not thread contexts.
package lumen
