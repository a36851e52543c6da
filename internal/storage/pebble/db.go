package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	logpkg "github.com/rzbill/seqid/pkg/log"
)

// FsyncMode defines durability behavior for commits.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways syncs the WAL on every commit.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble group WAL syncs within FsyncInterval.
	FsyncModeInterval
	// FsyncModeNever leaves WAL syncing entirely to Pebble. A crash may lose
	// recent counter increments.
	FsyncModeNever
)

const defaultSyncInterval = 5 * time.Millisecond

// ParseFsyncMode maps "always", "interval" or "never" onto a FsyncMode. An
// empty string yields FsyncModeUnspecified.
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch s {
	case "":
		return FsyncModeUnspecified, nil
	case "always":
		return FsyncModeAlways, nil
	case "interval":
		return FsyncModeInterval, nil
	case "never":
		return FsyncModeNever, nil
	}
	return FsyncModeUnspecified, fmt.Errorf("pebble: invalid fsync mode %q; use always|interval|never", s)
}

// Options configures Open.
type Options struct {
	DataDir       string
	Fsync         FsyncMode
	FsyncInterval time.Duration
	// PebbleOptions is passed to pebble.Open; nil means defaults.
	PebbleOptions *pebble.Options
	Metrics       MetricsHook
	// Logger receives Pebble's internal messages. Nil keeps Pebble's own
	// default, which writes to the standard library logger.
	Logger logpkg.Logger
}

// MetricsHook observes storage latencies and sizes.
type MetricsHook interface {
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveCommit(elapsed time.Duration, ops int, bytes int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveRead(time.Duration, int)        {}
func (NoopMetrics) ObserveCommit(time.Duration, int, int) {}

// ErrNotFound is returned by Get when a key is absent.
var ErrNotFound = pebble.ErrNotFound

// UpdateFunc receives the current value of a key (nil when absent) and
// returns the value to store. A nil result deletes the key.
type UpdateFunc func(current []byte) (next []byte, err error)

// DB is a Pebble database with a fixed write durability and serialized
// read-modify-write.
type DB struct {
	inner   *pebble.DB
	sync    *pebble.WriteOptions
	metrics MetricsHook

	// mu serializes every mutation so Update is indivisible.
	mu sync.Mutex
}

// Open creates or opens the database in opts.DataDir.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}
	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	switch opts.Fsync {
	case FsyncModeAlways, FsyncModeNever:
	case FsyncModeInterval:
		interval := opts.FsyncInterval
		if interval <= 0 {
			interval = defaultSyncInterval
		}
		po.WALMinSyncInterval = func() time.Duration { return interval }
	default:
		po.WALMinSyncInterval = func() time.Duration { return defaultSyncInterval }
	}
	if opts.Logger != nil {
		po.Logger = pebbleLogger{l: opts.Logger.WithComponent("pebble")}
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", opts.DataDir, err)
	}
	db := &DB{inner: inner, sync: pebble.NoSync, metrics: opts.Metrics}
	if opts.Fsync == FsyncModeAlways {
		db.sync = pebble.Sync
	}
	if db.metrics == nil {
		db.metrics = NoopMetrics{}
	}
	return db, nil
}

// Close closes the database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// Get returns a copy of the value stored under key.
func (db *DB) Get(key []byte) ([]byte, error) {
	start := time.Now()
	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	out := append([]byte(nil), val...)
	db.metrics.ObserveRead(time.Since(start), len(out))
	return out, nil
}

// Update runs fn against the current value of key and commits the result.
// Updates never interleave, so each call is an atomic read-modify-write.
// ctx is checked before the commit.
func (db *DB) Update(ctx context.Context, key []byte, fn UpdateFunc) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	current, err := db.Get(key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}

	b := db.inner.NewBatch()
	defer b.Close()
	if next == nil {
		err = b.Delete(key, nil)
	} else {
		err = b.Set(key, next, nil)
	}
	if err != nil {
		return err
	}
	return db.commit(ctx, b)
}

// Sweep deletes every key under prefix whose value satisfies drop and
// returns how many were removed. It holds the update lock for the whole
// scan.
func (db *DB) Sweep(ctx context.Context, prefix []byte, drop func(value []byte) bool) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	it, err := db.inner.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixEnd(prefix)})
	if err != nil {
		return 0, err
	}
	b := db.inner.NewBatch()
	defer b.Close()
	for it.First(); it.Valid(); it.Next() {
		if drop(it.Value()) {
			if err := b.Delete(it.Key(), nil); err != nil {
				_ = it.Close()
				return 0, err
			}
		}
	}
	if err := it.Close(); err != nil {
		return 0, err
	}
	n := int(b.Count())
	if n == 0 {
		return 0, nil
	}
	if err := db.commit(ctx, b); err != nil {
		return 0, err
	}
	return n, nil
}

// Check opens and closes an iterator to confirm the database is usable.
func (db *DB) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := db.inner.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

func (db *DB) commit(ctx context.Context, b *pebble.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	ops, size := int(b.Count()), b.Len()
	if err := b.Commit(db.sync); err != nil {
		return err
	}
	db.metrics.ObserveCommit(time.Since(start), ops, size)
	return nil
}

// prefixEnd returns the smallest key greater than every key with prefix, or
// nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// pebbleLogger routes Pebble's printf-style logging into a Logger.
type pebbleLogger struct{ l logpkg.Logger }

func (p pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Info(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func (p pebbleLogger) Errorf(format string, args ...interface{}) {
	p.l.Error(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

// Fatalf logs and exits, matching pebble.DefaultLogger.
func (p pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.l.Error(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
	os.Exit(1)
}
