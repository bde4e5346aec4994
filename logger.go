// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - logger.go
// The logger core. A record's path is: level gate, sampling gate, assembly
// (bindings, scope fields, call-site fields, trace correlation), redaction,
// the plugin pipeline, one render, synchronous fan-out to every transport,
// then post-write hooks and adapters. Logging never panics and never
// returns an error; internal failures are counted and reported through the
// error hook.

package lumen

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// for tests
var osExit = os.Exit

// loggerCore is the state shared by a logger and all of its children.
type loggerCore struct {
	transports    []Transport
	pipeline      *pipeline
	redactor      *Redactor
	adapters      *adapterPool
	formatter     Formatter
	clock         Clock
	rand          RandSource
	traceProvider TraceProvider
	errorHook     func(source string, err error)
	closeTimeout  time.Duration

	service string
	env     string
	version string

	samplingMu sync.RWMutex
	sampling   map[Level]float64

	closed atomicBool

	written       atomicI64
	dropped       atomicI64
	sampledOut    atomicI64
	redactDropped atomicI64
	transportErrs sync.Map // transport name -> *atomicI64
}

// Logger is the user-facing handle. Children share the core (transports,
// pipeline, redactor, adapters, stats) but carry their own bindings and
// level gate.
type Logger struct {
	core     *loggerCore
	level    atomicLevel
	bindings Fields
}

// New builds a logger from the config. The config is validated and its
// defaults filled; the returned logger is ready for concurrent use.
func New(cfg Config) (*Logger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	core := &loggerCore{
		transports:    cfg.Transports,
		redactor:      cfg.Redactor,
		formatter:     cfg.Formatter,
		clock:         cfg.Clock,
		rand:          cfg.Rand,
		traceProvider: cfg.TraceProvider,
		sampling:      cfg.Sampling,
		errorHook:     cfg.ErrorHook,
		closeTimeout:  cfg.CloseTimeout,
		service:       cfg.Service,
		env:           cfg.Env,
		version:       cfg.Version,
	}
	core.pipeline = newPipeline(cfg.Plugins, func(stage string, err error) {
		core.report("plugin:"+stage, err)
	})
	core.adapters = newAdapterPool(cfg.Adapters, cfg.AdapterConfig)

	l := &Logger{core: core, bindings: cfg.Bindings.clone()}
	l.level.Store(cfg.MinLevel)
	return l, nil
}

// Child returns a logger sharing this logger's transports, pipeline,
// redactor, and stats, with extra bindings overlaid. The child starts at the
// parent's current level and may change it independently.
func (l *Logger) Child(extra Fields) *Logger {
	c := &Logger{core: l.core, bindings: mergeFields(l.bindings.clone(), extra)}
	c.level.Store(l.level.Load())
	return c
}

// SetLevel changes this logger's severity gate at runtime. Invalid levels
// are ignored.
func (l *Logger) SetLevel(lvl Level) {
	if validLevel(lvl) {
		l.level.Store(lvl)
	}
}

// Level returns the current severity gate.
func (l *Logger) Level() Level { return l.level.Load() }

// SetSampling replaces the per-level sampling rates at runtime. The rates
// live on the shared core, so children observe the change. Rates outside
// [0, 1] reject the whole update.
func (l *Logger) SetSampling(rates map[Level]float64) error {
	cp := make(map[Level]float64, len(rates))
	for lvl, rate := range rates {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("lumen: sampling rate for %s out of range: %v", lvl, rate)
		}
		cp[lvl] = rate
	}
	l.core.samplingMu.Lock()
	l.core.sampling = cp
	l.core.samplingMu.Unlock()
	return nil
}

// Trace logs at TRACE.
func (l *Logger) Trace(ctx context.Context, msg string, fields ...Fields) {
	l.log(ctx, TRACE, msg, nil, fields)
}

// Debug logs at DEBUG.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...Fields) {
	l.log(ctx, DEBUG, msg, nil, fields)
}

// Info logs at INFO.
func (l *Logger) Info(ctx context.Context, msg string, fields ...Fields) {
	l.log(ctx, INFO, msg, nil, fields)
}

// Warn logs at WARN.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...Fields) {
	l.log(ctx, WARN, msg, nil, fields)
}

// Error logs at ERROR with a structured error. err may be nil.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...Fields) {
	l.log(ctx, ERROR, msg, err, fields)
}

// Fatal logs at FATAL, closes the logger, and exits with status 1.
func (l *Logger) Fatal(ctx context.Context, msg string, err error, fields ...Fields) {
	l.log(ctx, FATAL, msg, err, fields)
	_ = l.Close(context.Background())
	osExit(1)
}

// log is the single delivery path. It must never panic: a defective field
// value, plugin, or transport costs at most one record.
func (l *Logger) log(ctx context.Context, lvl Level, msg string, err error, fields []Fields) {
	defer func() {
		if r := recover(); r != nil {
			l.core.report("logger", fmt.Errorf("lumen: log panicked: %v", r))
		}
	}()

	core := l.core
	if core.closed.Load() {
		return
	}
	if lvl < l.level.Load() {
		return
	}
	// Sampling gate. Errors and fatals always pass.
	if lvl < ERROR {
		if rate, ok := core.sampleRate(lvl); ok && rate < 1 {
			if !(core.rand.Float64() < rate) {
				core.sampledOut.Add(1)
				return
			}
		}
	}

	rec := l.assemble(ctx, lvl, msg, err, fields)

	if core.redactor != nil {
		red, rerr := core.redactor.RedactRecord(rec)
		if rerr != nil {
			core.redactDropped.Add(1)
			core.report("redactor", rerr)
			return
		}
		rec = red
	}

	rec = core.pipeline.run(rec)
	if rec == nil {
		core.dropped.Add(1)
		return
	}

	line, ferr := core.formatter.Format(rec)
	if ferr != nil {
		core.report("formatter", ferr)
		return
	}

	for _, t := range core.transports {
		if werr := t.Write(rec, line); werr != nil {
			core.incTransportErr(t.Name())
			core.report("transport:"+t.Name(), werr)
		}
	}
	core.written.Add(1)
	core.pipeline.afterWrite(rec)
	core.adapters.dispatch(rec)
}

// assemble builds the record: logger bindings, then scope fields, then
// call-site fields, later sources winning on key collision. Trace IDs come
// from the scope first, the trace provider second.
func (l *Logger) assemble(ctx context.Context, lvl Level, msg string, err error, fields []Fields) *Record {
	core := l.core
	scope := Snapshot(ctx)

	rcontext := l.bindings.clone()
	rcontext = mergeFields(rcontext, scope.contextFields())
	for _, f := range fields {
		rcontext = mergeFields(rcontext, f)
	}

	tid, sid := scope.TraceID, scope.SpanID
	if tid == "" && core.traceProvider != nil && ctx != nil {
		tid, sid = core.traceProvider(ctx)
	}

	return &Record{
		Time:    core.clock.Now().UnixMilli(),
		Level:   lvl,
		Msg:     msg,
		Context: rcontext,
		Err:     NewErrorInfo(err),
		Service: core.service,
		Env:     core.env,
		Version: core.version,
		TraceID: tid,
		SpanID:  sid,
	}
}

// Flush drains the pipeline and every transport.
func (l *Logger) Flush(ctx context.Context) error {
	core := l.core
	first := core.pipeline.flush(ctx)
	for _, t := range core.transports {
		if err := t.Flush(ctx); err != nil {
			core.incTransportErr(t.Name())
			core.report("transport:"+t.Name(), err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Close flushes and shuts down the shared core: pipeline, transports, and
// adapters. Idempotent; logging after Close is a silent no-op. The drain is
// bounded by the configured close timeout.
func (l *Logger) Close(ctx context.Context) error {
	core := l.core
	if !core.closed.TrySetTrue() {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		var first error
		if err := core.pipeline.flush(ctx); first == nil && err != nil {
			first = err
		}
		if err := core.pipeline.closeAll(ctx); first == nil && err != nil {
			first = err
		}
		for _, t := range core.transports {
			if err := t.Close(ctx); err != nil {
				core.incTransportErr(t.Name())
				core.report("transport:"+t.Name(), err)
				if first == nil {
					first = err
				}
			}
		}
		core.adapters.close()
		done <- first
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(core.closeTimeout):
		return fmt.Errorf("lumen: close timed out after %s", core.closeTimeout)
	}
}

func (core *loggerCore) sampleRate(lvl Level) (float64, bool) {
	core.samplingMu.RLock()
	rate, ok := core.sampling[lvl]
	core.samplingMu.RUnlock()
	return rate, ok
}

func (core *loggerCore) report(source string, err error) {
	if core.errorHook != nil {
		core.errorHook(source, err)
	}
}

// incTransportErr bumps the per-transport error counter.
func (core *loggerCore) incTransportErr(name string) {
	if c, ok := core.transportErrs.Load(name); ok {
		c.(*atomicI64).Add(1)
		return
	}
	ai := &atomicI64{}
	ai.Store(1)
	if prev, loaded := core.transportErrs.LoadOrStore(name, ai); loaded {
		prev.(*atomicI64).Add(1)
	}
}
