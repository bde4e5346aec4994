// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

package lumen

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func newTestFileTransport(t *testing.T, policy RotationPolicy, split bool) (*FileTransport, string, *fakeClock) {
	t.Helper()
	dir := t.TempDir()
	clock := newFakeClock(time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC))
	tr, err := NewFileTransport(FileTransportConfig{
		Dir:         dir,
		Policy:      policy,
		SplitLevels: split,
		Clock:       clock,
	})
	require.NoError(t, err)
	return tr, dir, clock
}

func TestFileTransportWritesDatedFile(t *testing.T) {
	tr, dir, _ := newTestFileTransport(t, RotationPolicy{}, false)
	require.NoError(t, tr.Write(infoRecord("x"), []byte("hello\n")))
	require.NoError(t, tr.Close(context.Background()))

	names := listDir(t, dir)
	require.Equal(t, []string{"app-2026-08-23.log"}, names)
	data, err := os.ReadFile(filepath.Join(dir, names[0]))
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))
}

func TestFileTransportSplitLevels(t *testing.T) {
	tr, dir, _ := newTestFileTransport(t, RotationPolicy{}, true)
	require.NoError(t, tr.Write(&Record{Level: INFO}, []byte("i\n")))
	require.NoError(t, tr.Write(&Record{Level: WARN}, []byte("w\n")))
	require.NoError(t, tr.Write(&Record{Level: ERROR}, []byte("e\n")))
	require.NoError(t, tr.Write(&Record{Level: FATAL}, []byte("f\n")))
	require.NoError(t, tr.Close(context.Background()))

	names := listDir(t, dir)
	require.Equal(t, []string{"error-2026-08-23.log", "info-2026-08-23.log"}, names)

	errData, _ := os.ReadFile(filepath.Join(dir, "error-2026-08-23.log"))
	require.Equal(t, "e\nf\n", string(errData))
	infoData, _ := os.ReadFile(filepath.Join(dir, "info-2026-08-23.log"))
	require.Equal(t, "i\nw\n", string(infoData))
}

func TestFileTransportRotatesAtMaxBytes(t *testing.T) {
	tr, dir, _ := newTestFileTransport(t, RotationPolicy{MaxBytes: 10}, false)
	line := []byte("12345678\n") // 9 bytes

	require.NoError(t, tr.Write(infoRecord("x"), line))
	require.NoError(t, tr.Write(infoRecord("x"), line)) // would exceed 10: rotate first
	require.NoError(t, tr.Write(infoRecord("x"), line))
	require.NoError(t, tr.Close(context.Background()))

	names := listDir(t, dir)
	require.Equal(t, []string{
		"app-2026-08-23.001.log",
		"app-2026-08-23.002.log",
		"app-2026-08-23.log",
	}, names)
}

func TestFileTransportAppendsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	clock := newFakeClock(time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC))
	open := func() *FileTransport {
		tr, err := NewFileTransport(FileTransportConfig{Dir: dir, Clock: clock})
		require.NoError(t, err)
		return tr
	}

	tr := open()
	require.NoError(t, tr.Write(infoRecord("x"), []byte("one\n")))
	require.NoError(t, tr.Close(context.Background()))

	tr = open()
	require.NoError(t, tr.Write(infoRecord("x"), []byte("two\n")))
	require.NoError(t, tr.Close(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, "app-2026-08-23.log"))
	require.NoError(t, err)
	require.Equal(t, "one\ntwo\n", string(data))
}

func TestFileTransportNewPeriodNewFile(t *testing.T) {
	tr, dir, clock := newTestFileTransport(t, RotationPolicy{IntervalDays: 1}, false)
	require.NoError(t, tr.Write(infoRecord("x"), []byte("day1\n")))
	clock.Advance(24 * time.Hour)
	require.NoError(t, tr.Write(infoRecord("x"), []byte("day2\n")))
	require.NoError(t, tr.Close(context.Background()))

	names := listDir(t, dir)
	require.Equal(t, []string{"app-2026-08-23.log", "app-2026-08-24.log"}, names)
}

func TestFileTransportCompressesRotatedFiles(t *testing.T) {
	tr, dir, _ := newTestFileTransport(t, RotationPolicy{
		MaxBytes: 10,
		Compress: CompressionGzip,
	}, false)
	line := []byte("12345678\n")

	require.NoError(t, tr.Write(infoRecord("x"), line))
	require.NoError(t, tr.Write(infoRecord("x"), line))
	require.NoError(t, tr.Flush(context.Background())) // waits for compression
	require.NoError(t, tr.Close(context.Background()))

	names := listDir(t, dir)
	require.Contains(t, names, "app-2026-08-23.log.gz")
	require.NotContains(t, names, "app-2026-08-23.log")
}

func TestFileTransportLZ4Compression(t *testing.T) {
	tr, dir, _ := newTestFileTransport(t, RotationPolicy{
		MaxBytes: 10,
		Compress: CompressionLZ4,
	}, false)
	line := []byte("12345678\n")

	require.NoError(t, tr.Write(infoRecord("x"), line))
	require.NoError(t, tr.Write(infoRecord("x"), line))
	require.NoError(t, tr.Close(context.Background()))

	require.Contains(t, listDir(t, dir), "app-2026-08-23.log.lz4")
}

func TestFileTransportPruneSparesFilesBeingCompressed(t *testing.T) {
	tr, dir, _ := newTestFileTransport(t, RotationPolicy{MaxFilesPerPeriod: 1}, false)
	require.NoError(t, tr.Write(infoRecord("x"), []byte("a\n"))) // opens app-2026-08-23.log

	// Two retired files from earlier rotations, one still owned by a
	// compressor. Surplus deletion must not touch it.
	busy := "app-2026-08-23.001.log"
	idle := "app-2026-08-23.002.log"
	require.NoError(t, os.WriteFile(filepath.Join(dir, busy), []byte("b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, idle), []byte("c\n"), 0o644))

	tr.mu.Lock()
	tr.compressing[busy] = struct{}{}
	tr.prune(tr.buckets["app"])
	tr.mu.Unlock()
	require.NoError(t, tr.Close(context.Background()))

	names := listDir(t, dir)
	require.Contains(t, names, busy)
	require.NotContains(t, names, idle)
}

func TestFileTransportRotateReleasesCompressionClaim(t *testing.T) {
	tr, dir, _ := newTestFileTransport(t, RotationPolicy{
		MaxBytes: 10,
		Compress: CompressionGzip,
	}, false)
	line := []byte("12345678\n")

	require.NoError(t, tr.Write(infoRecord("x"), line))
	require.NoError(t, tr.Write(infoRecord("x"), line)) // rotates, schedules gzip
	require.NoError(t, tr.Flush(context.Background()))  // waits for compression

	tr.mu.Lock()
	require.Empty(t, tr.compressing)
	tr.mu.Unlock()
	require.Contains(t, listDir(t, dir), "app-2026-08-23.log.gz")
	require.NoError(t, tr.Close(context.Background()))
}

func TestFileTransportPrunesSurplusFiles(t *testing.T) {
	tr, dir, _ := newTestFileTransport(t, RotationPolicy{
		MaxBytes:          10,
		MaxFilesPerPeriod: 2,
	}, false)
	line := []byte("12345678\n")

	for i := 0; i < 6; i++ {
		require.NoError(t, tr.Write(infoRecord("x"), line))
	}
	require.NoError(t, tr.Close(context.Background()))

	names := listDir(t, dir)
	require.LessOrEqual(t, len(names), 2)
	for _, n := range names {
		require.True(t, strings.HasPrefix(n, "app-2026-08-23"), n)
	}
}

func TestFileTransportSweepRemovesExpiredArtifacts(t *testing.T) {
	dir := t.TempDir()
	// A compressed artifact dated well past the TTL.
	stale := filepath.Join(dir, "app-2026-08-01.log.gz")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	fresh := filepath.Join(dir, "app-2026-08-22.log.gz")
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))

	clock := newFakeClock(time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC))
	tr, err := NewFileTransport(FileTransportConfig{
		Dir:    dir,
		Policy: RotationPolicy{CompressedTTLDays: 7},
		Clock:  clock,
	})
	require.NoError(t, err)

	require.NoError(t, tr.Write(infoRecord("x"), []byte("line\n")))
	require.NoError(t, tr.Flush(context.Background()))
	require.NoError(t, tr.Close(context.Background()))

	names := listDir(t, dir)
	require.NotContains(t, names, "app-2026-08-01.log.gz")
	require.Contains(t, names, "app-2026-08-22.log.gz")
}

func TestFileTransportRequiresDir(t *testing.T) {
	_, err := NewFileTransport(FileTransportConfig{})
	require.Error(t, err)
}

func TestFileTransportClosedRejectsWrites(t *testing.T) {
	tr, _, _ := newTestFileTransport(t, RotationPolicy{}, false)
	require.NoError(t, tr.Close(context.Background()))
	require.ErrorIs(t, tr.Write(infoRecord("x"), []byte("x\n")), ErrClosed)
}
