package pebblestore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logpkg "github.com/rzbill/seqid/pkg/log"
)

type testMetrics struct {
	mu      sync.Mutex
	read    int
	commits int
	ops     int
}

func (m *testMetrics) ObserveRead(_ time.Duration, bytes int) {
	m.mu.Lock()
	m.read += bytes
	m.mu.Unlock()
}

func (m *testMetrics) ObserveCommit(_ time.Duration, ops int, _ int) {
	m.mu.Lock()
	m.commits++
	m.ops += ops
	m.mu.Unlock()
}

func newTestDB(t *testing.T) (*DB, *testMetrics) {
	t.Helper()
	metrics := &testMetrics{}
	db, err := Open(Options{
		DataDir:       t.TempDir(),
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
		Metrics:       metrics,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, metrics
}

func put(t *testing.T, db *DB, key, value string) {
	t.Helper()
	require.NoError(t, db.Update(context.Background(), []byte(key), func([]byte) ([]byte, error) {
		return []byte(value), nil
	}))
}

func TestOpenRequiresDataDir(t *testing.T) {
	_, err := Open(Options{})
	assert.Error(t, err)
}

func TestUpdateAndGet(t *testing.T) {
	db, metrics := newTestDB(t)
	put(t, db, "k1", "v1")

	got, err := db.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)
	assert.NotZero(t, metrics.read)
	assert.Equal(t, 1, metrics.commits)

	_, err = db.Get([]byte("missing"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateHonoursContext(t *testing.T) {
	db, _ := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.Update(ctx, []byte("a"), func([]byte) ([]byte, error) { return []byte("1"), nil })
	assert.ErrorIs(t, err, context.Canceled)
	_, err = db.Get([]byte("a"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.Check(ctx), context.Canceled)
	assert.NoError(t, db.Check(context.Background()))
}

func TestUpdateDeleteOnNil(t *testing.T) {
	db, _ := newTestDB(t)
	key := []byte("gone")
	put(t, db, string(key), "x")

	require.NoError(t, db.Update(context.Background(), key, func(cur []byte) ([]byte, error) {
		assert.Equal(t, []byte("x"), cur)
		return nil, nil
	}))
	_, err := db.Get(key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateErrorLeavesValue(t *testing.T) {
	db, _ := newTestDB(t)
	key := []byte("keep")
	put(t, db, string(key), "v")

	boom := errors.New("boom")
	err := db.Update(context.Background(), key, func([]byte) ([]byte, error) { return []byte("w"), boom })
	assert.ErrorIs(t, err, boom)

	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestUpdateIsAtomic(t *testing.T) {
	db, _ := newTestDB(t)
	key := []byte("counter")

	const workers, perWorker = 16, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				err := db.Update(context.Background(), key, func(cur []byte) ([]byte, error) {
					var n uint64
					if len(cur) == 8 {
						n = binary.BigEndian.Uint64(cur)
					}
					next := make([]byte, 8)
					binary.BigEndian.PutUint64(next, n+1)
					return next, nil
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(workers*perWorker), binary.BigEndian.Uint64(got))
}

func TestParseFsyncMode(t *testing.T) {
	for in, want := range map[string]FsyncMode{
		"":         FsyncModeUnspecified,
		"always":   FsyncModeAlways,
		"interval": FsyncModeInterval,
		"never":    FsyncModeNever,
	} {
		got, err := ParseFsyncMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFsyncMode("sometimes")
	assert.Error(t, err)
}

func TestSweep(t *testing.T) {
	db, metrics := newTestDB(t)
	put(t, db, "ctr/a", "old")
	put(t, db, "ctr/b", "new")
	put(t, db, "ctr/c", "old")
	put(t, db, "cts/d", "old")

	n, err := db.Sweep(context.Background(), []byte("ctr/"), func(v []byte) bool { return string(v) == "old" })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 4+1, metrics.commits)

	for key, present := range map[string]bool{"ctr/a": false, "ctr/b": true, "ctr/c": false, "cts/d": true} {
		_, err := db.Get([]byte(key))
		assert.Equal(t, present, err == nil, key)
	}

	n, err = db.Sweep(context.Background(), []byte("ctr/"), func([]byte) bool { return false })
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 5, metrics.commits)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("ctr0"), prefixEnd([]byte("ctr/")))
	assert.Equal(t, []byte{0x01}, prefixEnd([]byte{0x00, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
}

func TestOpenRoutesPebbleLogs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logpkg.NewLogger(logpkg.WithFormatter(&logpkg.TextFormatter{}), logpkg.WithOutput(&logpkg.ConsoleOutput{W: buf}))

	db, err := Open(Options{DataDir: t.TempDir(), Fsync: FsyncModeAlways, Logger: logger})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	pl := pebbleLogger{l: logger.WithComponent("pebble")}
	pl.Infof("flushed %d tables\n", 3)
	pl.Errorf("compaction failed: %s", "disk full")
	out := buf.String()
	assert.Contains(t, out, "flushed 3 tables")
	assert.Contains(t, out, "compaction failed: disk full")
	assert.Contains(t, out, "component=pebble")
}
