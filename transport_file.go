// Copyright (c) 2026 The Lumen Authors
// This source code is licensed under the MIT License found in the LICENSE file.

// Package lumen - transport_file.go
// The rotating file transport. Records are appended to per-bucket files
// named {bucket}-{YYYY}-{MM}-{DD}[.{seq}].log; a new period or a full file
// retires the handle, compresses the closed file in the background, and
// opens a sequence-incremented successor. Retention is enforced per period
// (file count) and by a daily sweep of compressed artifacts past their TTL.
// Filesystem errors are reported through the error hook, never thrown back
// at the logging caller.

package lumen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the codec applied to rotated files.
type Compression int

const (
	// CompressionNone leaves rotated files as-is.
	CompressionNone Compression = iota
	// CompressionGzip compresses rotated files with gzip.
	CompressionGzip
	// CompressionLZ4 compresses rotated files with lz4.
	CompressionLZ4
)

// ext returns the artifact suffix for the codec.
func (c Compression) ext() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// RotationPolicy governs when a stream handle is retired and a new one
// opened, and how long rotated artifacts live.
type RotationPolicy struct {
	// IntervalDays is the rotation period length. Defaults to 1.
	IntervalDays int
	// MaxBytes rotates a file before a write would exceed it. 0 disables
	// size-based rotation.
	MaxBytes int64
	// MaxFilesPerPeriod caps files kept per bucket and period; the oldest
	// surplus files (by name sort) are deleted. 0 disables the cap.
	MaxFilesPerPeriod int
	// Compress selects the codec for rotated files.
	Compress Compression
	// CompressedTTLDays is how long compressed artifacts are retained by the
	// daily sweep. 0 disables the sweep.
	CompressedTTLDays int
}

// FileTransportConfig configures a FileTransport.
type FileTransportConfig struct {
	// Dir is the log directory. Required; created if absent.
	Dir string
	// Policy is the rotation policy.
	Policy RotationPolicy
	// SplitLevels writes ERROR/FATAL records to an "error" bucket and the
	// rest to "info". When false everything shares one "app" bucket.
	SplitLevels bool
	// Retry applies to individual writes.
	Retry RetryPolicy
	// Clock resolves rotation periods. Injectable for tests.
	Clock Clock
	// ErrorHook observes filesystem and compression failures.
	ErrorHook func(err error)
}

// fileBucket is the open-handle state for one level bucket.
type fileBucket struct {
	prefix string
	file   *os.File
	bytes  int64
	period int
	seq    int
}

// FileTransport appends formatted records to rotating files.
type FileTransport struct {
	cfg FileTransportConfig

	mu          sync.Mutex
	buckets     map[string]*fileBucket
	sweepDay    int                 // last calendar day (epoch days) the TTL sweep ran
	compressing map[string]struct{} // file names an in-flight compression owns
	compressW   sync.WaitGroup
	closed      atomicBool
}

// NewFileTransport builds the transport, creating the directory if needed.
func NewFileTransport(cfg FileTransportConfig) (*FileTransport, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("lumen: file transport requires a directory")
	}
	if cfg.Policy.IntervalDays <= 0 {
		cfg.Policy.IntervalDays = 1
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("lumen: file transport mkdir: %w", err)
	}
	return &FileTransport{
		cfg:         cfg,
		buckets:     make(map[string]*fileBucket),
		sweepDay:    -1,
		compressing: make(map[string]struct{}),
	}, nil
}

// Name implements Transport.
func (t *FileTransport) Name() string { return "file" }

// Write appends the line to the record's bucket, rotating first when the
// line would push the file past MaxBytes.
func (t *FileTransport) Write(rec *Record, line []byte) error {
	if t.closed.Load() {
		return ErrClosed
	}
	now := t.cfg.Clock.Now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.maybeSweep(now)

	b, err := t.bucket(rec.Level, now)
	if err != nil {
		t.report(err)
		return err
	}
	if t.cfg.Policy.MaxBytes > 0 && b.bytes+int64(len(line)) > t.cfg.Policy.MaxBytes && b.bytes > 0 {
		if err := t.rotate(b, now); err != nil {
			t.report(err)
			return err
		}
	}
	if err := writeWithRetry(b.file, line, t.cfg.Retry); err != nil {
		t.report(fmt.Errorf("lumen: file transport write %s: %w", b.file.Name(), err))
		return err
	}
	b.bytes += int64(len(line))
	return nil
}

// SetRetry replaces the write retry policy at runtime.
func (t *FileTransport) SetRetry(rp RetryPolicy) {
	t.mu.Lock()
	t.cfg.Retry = rp
	t.mu.Unlock()
}

// Flush syncs every open handle and waits for in-flight compressions.
func (t *FileTransport) Flush(context.Context) error {
	t.mu.Lock()
	var first error
	for _, b := range t.buckets {
		if b.file != nil {
			if err := b.file.Sync(); err != nil && first == nil {
				first = err
			}
		}
	}
	t.mu.Unlock()
	t.compressW.Wait()
	return first
}

// Close flushes and closes every handle. Idempotent.
func (t *FileTransport) Close(ctx context.Context) error {
	if !t.closed.TrySetTrue() {
		return nil
	}
	err := t.Flush(ctx)
	t.mu.Lock()
	for _, b := range t.buckets {
		if b.file != nil {
			_ = b.file.Close()
			b.file = nil
		}
	}
	t.mu.Unlock()
	return err
}

// bucketName maps a level onto its file prefix.
func (t *FileTransport) bucketName(lvl Level) string {
	if !t.cfg.SplitLevels {
		return "app"
	}
	if lvl >= ERROR {
		return "error"
	}
	return "info"
}

// periodIndex resolves the rotation period for a point in time.
func (t *FileTransport) periodIndex(now time.Time) int {
	days := int(now.Unix() / 86400)
	return days / t.cfg.Policy.IntervalDays
}

// periodDate renders the YYYY-MM-DD stamp of a period's first day.
func (t *FileTransport) periodDate(period int) string {
	start := int64(period*t.cfg.Policy.IntervalDays) * 86400
	return time.Unix(start, 0).UTC().Format("2006-01-02")
}

// bucket returns the open bucket for a level, opening or re-opening the
// handle when the period has moved on. Existing files are appended to,
// never truncated.
func (t *FileTransport) bucket(lvl Level, now time.Time) (*fileBucket, error) {
	name := t.bucketName(lvl)
	period := t.periodIndex(now)
	b, ok := t.buckets[name]
	if !ok {
		b = &fileBucket{prefix: name, period: -1}
		t.buckets[name] = b
	}
	if b.file != nil && b.period == period {
		return b, nil
	}
	if b.file != nil {
		_ = b.file.Close()
		b.file = nil
	}
	b.period = period
	b.seq = t.highestSeq(name, t.periodDate(period))
	return b, t.open(b)
}

// open opens the bucket's current file for append and reads its size.
func (t *FileTransport) open(b *fileBucket) error {
	path := filepath.Join(t.cfg.Dir, fileName(b.prefix, t.periodDate(b.period), b.seq))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("lumen: file transport open %s: %w", path, err)
	}
	b.file = f
	b.bytes = 0
	if st, err := f.Stat(); err == nil {
		b.bytes = st.Size()
	}
	return nil
}

// rotate retires the full file, schedules its compression, opens the next
// sequence, and enforces the per-period file cap.
func (t *FileTransport) rotate(b *fileBucket, now time.Time) error {
	closedPath := b.file.Name()
	if err := b.file.Close(); err != nil {
		t.report(fmt.Errorf("lumen: file transport close %s: %w", closedPath, err))
	}
	b.file = nil

	if t.cfg.Policy.Compress != CompressionNone {
		// The source and its artifact stay off limits to prune until the
		// compressor is done with them. rotate runs under t.mu.
		base := filepath.Base(closedPath)
		artifact := base + t.cfg.Policy.Compress.ext()
		t.compressing[base] = struct{}{}
		t.compressing[artifact] = struct{}{}
		t.compressW.Add(1)
		go func() {
			defer t.compressW.Done()
			// Compression failure is swallowed; the uncompressed file stays.
			if err := compressFile(closedPath, t.cfg.Policy.Compress); err != nil {
				t.report(fmt.Errorf("lumen: file transport compress %s: %w", closedPath, err))
			}
			t.mu.Lock()
			delete(t.compressing, base)
			delete(t.compressing, artifact)
			t.mu.Unlock()
		}()
	}

	b.seq++
	if err := t.open(b); err != nil {
		return err
	}
	t.prune(b)
	return nil
}

// prune deletes the oldest surplus files for the bucket's current prefix and
// period, by name sort. The open file is never deleted.
func (t *FileTransport) prune(b *fileBucket) {
	max := t.cfg.Policy.MaxFilesPerPeriod
	if max <= 0 {
		return
	}
	prefix := b.prefix + "-" + t.periodDate(b.period)
	entries, err := os.ReadDir(t.cfg.Dir)
	if err != nil {
		t.report(fmt.Errorf("lumen: file transport prune: %w", err))
		return
	}
	open := filepath.Base(b.file.Name())
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || e.Name() == open {
			continue
		}
		if _, busy := t.compressing[e.Name()]; busy {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	for len(names) > max-1 {
		victim := names[0]
		names = names[1:]
		if err := os.Remove(filepath.Join(t.cfg.Dir, victim)); err != nil && !os.IsNotExist(err) {
			t.report(fmt.Errorf("lumen: file transport prune %s: %w", victim, err))
		}
	}
}

// maybeSweep runs the compressed-artifact TTL sweep at most once per
// calendar day.
func (t *FileTransport) maybeSweep(now time.Time) {
	if t.cfg.Policy.CompressedTTLDays <= 0 {
		return
	}
	day := int(now.Unix() / 86400)
	if day == t.sweepDay {
		return
	}
	t.sweepDay = day
	cutoff := now.AddDate(0, 0, -t.cfg.Policy.CompressedTTLDays)

	t.compressW.Add(1)
	go func() {
		defer t.compressW.Done()
		entries, err := os.ReadDir(t.cfg.Dir)
		if err != nil {
			t.report(fmt.Errorf("lumen: file transport sweep: %w", err))
			return
		}
		for _, e := range entries {
			name := e.Name()
			if !strings.HasSuffix(name, ".gz") && !strings.HasSuffix(name, ".lz4") {
				continue
			}
			stamp, ok := dateFromName(name)
			if !ok || !stamp.Before(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(t.cfg.Dir, name)); err != nil && !os.IsNotExist(err) {
				t.report(fmt.Errorf("lumen: file transport sweep %s: %w", name, err))
			}
		}
	}()
}

func (t *FileTransport) report(err error) {
	if t.cfg.ErrorHook != nil {
		t.cfg.ErrorHook(err)
	}
}

// fileName renders {prefix}-{date}[.{seq:03d}].log.
func fileName(prefix, date string, seq int) string {
	if seq == 0 {
		return fmt.Sprintf("%s-%s.log", prefix, date)
	}
	return fmt.Sprintf("%s-%s.%03d.log", prefix, date, seq)
}

// highestSeq scans the directory for the largest existing sequence number
// for a prefix and date, so re-opening after a restart appends instead of
// clobbering.
func (t *FileTransport) highestSeq(prefix, date string) int {
	entries, err := os.ReadDir(t.cfg.Dir)
	if err != nil {
		return 0
	}
	lead := prefix + "-" + date
	best := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, lead) || !strings.HasSuffix(name, ".log") {
			continue
		}
		rest := strings.TrimSuffix(strings.TrimPrefix(name, lead), ".log")
		if rest == "" {
			continue // seq 0
		}
		if seq, err := strconv.Atoi(strings.TrimPrefix(rest, ".")); err == nil && seq > best {
			best = seq
		}
	}
	return best
}

// dateFromName extracts the YYYY-MM-DD stamp embedded in a rotated file name.
func dateFromName(name string) (time.Time, bool) {
	i := strings.IndexByte(name, '-')
	if i < 0 || len(name) < i+11 {
		return time.Time{}, false
	}
	stamp, err := time.Parse("2006-01-02", name[i+1:i+11])
	if err != nil {
		return time.Time{}, false
	}
	return stamp, true
}

// compressFile compresses path with the chosen codec and removes the
// original on success. A partial artifact from a failed attempt is cleaned
// up.
func compressFile(path string, comp Compression) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dstPath := path + comp.ext()
	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}

	var cw io.WriteCloser
	switch comp {
	case CompressionGzip:
		cw = gzip.NewWriter(dst)
	case CompressionLZ4:
		cw = lz4.NewWriter(dst)
	default:
		_ = dst.Close()
		_ = os.Remove(dstPath)
		return nil
	}

	if _, err := io.Copy(cw, src); err != nil {
		_ = cw.Close()
		_ = dst.Close()
		_ = os.Remove(dstPath)
		return err
	}
	if err := cw.Close(); err != nil {
		_ = dst.Close()
		_ = os.Remove(dstPath)
		return err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dstPath)
		return err
	}
	return os.Remove(path)
}
