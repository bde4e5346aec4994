// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Command example demonstrates the main features of lumen: leveled logging,
// scoped context propagation, redaction, plugins, and transports.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumenlog/lumen"
)

func main() {
	redactor := lumen.NewRedactor(lumen.RedactorConfig{})

	sampling, err := lumen.NewSamplingPlugin(lumen.SamplingConfig{
		Rates: map[lumen.Level]float64{lumen.DEBUG: 0.25},
	})
	if err != nil {
		panic(err)
	}

	fileT, err := lumen.NewFileTransport(lumen.FileTransportConfig{
		Dir: "./logs",
		Policy: lumen.RotationPolicy{
			MaxBytes:          10 << 20,
			MaxFilesPerPeriod: 5,
			Compress:          lumen.CompressionGzip,
			CompressedTTLDays: 7,
		},
		SplitLevels: true,
	})
	if err != nil {
		panic(err)
	}

	log, err := lumen.New(lumen.Config{
		MinLevel: lumen.DEBUG,
		Service:  "checkout",
		Env:      "dev",
		Version:  "1.4.2",
		Transports: []lumen.Transport{
			lumen.NewConsoleTransport(lumen.ConsoleConfig{}),
			fileT,
		},
		Plugins: []lumen.Plugin{
			sampling,
			lumen.NewEnrichPlugin(lumen.EnrichConfig{HostMetadata: true}),
			lumen.NewRedactPlugin(lumen.RedactPluginConfig{Redactor: redactor}),
		},
		Redactor: redactor,
		ErrorHook: func(source string, err error) {
			fmt.Printf("logging error (%s): %v\n", source, err)
		},
	})
	if err != nil {
		panic(err)
	}

	ctx := lumen.EnsureCorrelationID(context.Background())
	err = lumen.Run(ctx, lumen.ScopeFields{UserID: "u-1001", RequestID: "r-42"}, func(ctx context.Context) error {
		log.Info(ctx, "payment accepted", lumen.Fields{"orderId": 1001, "amount": 24.99})

		// Sensitive values are scrubbed before the record leaves the pipeline.
		log.Info(ctx, "callback received", lumen.Fields{
			"token":  "secret-bearer-token",
			"email":  "jo@example.com",
			"amount": 12,
		})

		// Child loggers inherit transports and redaction, add their own fields.
		worker := log.Child(lumen.Fields{"component": "settlement"})
		worker.Debug(ctx, "settlement scheduled")

		log.Error(ctx, "bank connection failed", errors.New("dial tcp: connection refused"))
		return nil
	})
	if err != nil {
		panic(err)
	}

	ctxClose, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := log.Close(ctxClose); err != nil {
		fmt.Println("close:", err)
	}
}
