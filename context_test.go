// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

package lumen

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInheritsAndMerges(t *testing.T) {
	err := Run(context.Background(), ScopeFields{UserID: "u1", Bindings: Fields{"a": 1}}, func(ctx context.Context) error {
		return Run(ctx, ScopeFields{RequestID: "r1", Bindings: Fields{"b": 2}}, func(ctx context.Context) error {
			snap := Snapshot(ctx)
			require.Equal(t, "u1", snap.UserID)
			require.Equal(t, "r1", snap.RequestID)
			require.Equal(t, 1, snap.Bindings["a"])
			require.Equal(t, 2, snap.Bindings["b"])
			return nil
		})
	})
	require.NoError(t, err)
}

func TestRunInnerScopeDoesNotLeakToOuter(t *testing.T) {
	err := Run(context.Background(), ScopeFields{UserID: "u1"}, func(outer context.Context) error {
		err := Run(outer, ScopeFields{UserID: "u2"}, func(inner context.Context) error {
			require.Equal(t, "u2", UserIDFrom(inner))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, "u1", UserIDFrom(outer))
		return nil
	})
	require.NoError(t, err)
}

func TestRunIsolatedDiscardsParent(t *testing.T) {
	err := Run(context.Background(), ScopeFields{UserID: "u1", Bindings: Fields{"a": 1}}, func(ctx context.Context) error {
		return RunIsolated(ctx, ScopeFields{RequestID: "r9"}, func(ctx context.Context) error {
			snap := Snapshot(ctx)
			require.Empty(t, snap.UserID)
			require.Equal(t, "r9", snap.RequestID)
			require.Nil(t, snap.Bindings)
			return nil
		})
	})
	require.NoError(t, err)
}

func TestEnterVisibleToLaterReaders(t *testing.T) {
	err := Run(context.Background(), ScopeFields{}, func(ctx context.Context) error {
		Enter(ctx, ScopeFields{TenantID: "t-7"})
		require.Equal(t, "t-7", TenantIDFrom(ctx))
		return nil
	})
	require.NoError(t, err)

	// Without an active scope Enter is a no-op.
	ctx := context.Background()
	Enter(ctx, ScopeFields{TenantID: "nope"})
	require.Empty(t, TenantIDFrom(ctx))
}

func TestScopeSharedWithSpawnedGoroutine(t *testing.T) {
	err := Run(context.Background(), ScopeFields{CorrelationID: "c-1"}, func(ctx context.Context) error {
		var wg sync.WaitGroup
		wg.Add(1)
		var got string
		go func() {
			defer wg.Done()
			got = CorrelationIDFrom(ctx)
		}()
		wg.Wait()
		require.Equal(t, "c-1", got)
		return nil
	})
	require.NoError(t, err)
}

func TestSnapshotRestore(t *testing.T) {
	var snap ScopeFields
	err := Run(context.Background(), ScopeFields{UserID: "u5", Bindings: Fields{"k": "v"}}, func(ctx context.Context) error {
		snap = Snapshot(ctx)
		return nil
	})
	require.NoError(t, err)

	err = Restore(context.Background(), snap, func(ctx context.Context) error {
		require.Equal(t, "u5", UserIDFrom(ctx))
		v, ok := BindingFrom(ctx, "k")
		require.True(t, ok)
		require.Equal(t, "v", v)
		return nil
	})
	require.NoError(t, err)
}

func TestSnapshotIsDeepForBindings(t *testing.T) {
	err := Run(context.Background(), ScopeFields{Bindings: Fields{"k": "v"}}, func(ctx context.Context) error {
		snap := Snapshot(ctx)
		snap.Bindings["k"] = "mutated"
		v, _ := BindingFrom(ctx, "k")
		require.Equal(t, "v", v)
		return nil
	})
	require.NoError(t, err)
}

func TestBindCarriesScopeAcrossBoundary(t *testing.T) {
	var captured string
	var bound func()
	err := Run(context.Background(), ScopeFields{RequestID: "r-bind"}, func(ctx context.Context) error {
		bound = Bind(ctx, func(c context.Context) {
			captured = RequestIDFrom(c)
		})
		return nil
	})
	require.NoError(t, err)

	// Invoked later, outside the scope.
	bound()
	require.Equal(t, "r-bind", captured)
}

func TestEnsureCorrelationID(t *testing.T) {
	ctx := EnsureCorrelationID(context.Background())
	first := CorrelationIDFrom(ctx)
	require.NotEmpty(t, first)

	// Idempotent on a scope that already has one.
	ctx2 := EnsureCorrelationID(ctx)
	require.Equal(t, first, CorrelationIDFrom(ctx2))
}

func TestContextFieldsFlattening(t *testing.T) {
	f := ScopeFields{
		CorrelationID: "c1",
		UserID:        "u1",
		Bindings:      Fields{"userId": "explicit", "extra": true},
	}
	out := f.contextFields()
	// Explicit bindings win over flattened well-known fields.
	require.Equal(t, "explicit", out["userId"])
	require.Equal(t, "c1", out["correlationId"])
	require.Equal(t, true, out["extra"])
}
