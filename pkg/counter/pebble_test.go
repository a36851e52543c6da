package counter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pebblestore "github.com/rzbill/seqid/internal/storage/pebble"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newPebbleStore(t *testing.T, clock *fakeClock) *PebbleStore {
	t.Helper()
	s, err := OpenPebbleStore(PebbleOptions{DataDir: t.TempDir(), Fsync: "never", Clock: clock.Now})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPebbleStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) harness {
		clock := &fakeClock{now: storeEpoch}
		return harness{
			store:   newPebbleStore(t, clock),
			now:     storeEpoch,
			advance: clock.Advance,
		}
	})
}

func TestPebbleStorePeekAfterExpiry(t *testing.T) {
	clock := &fakeClock{now: storeEpoch}
	s := newPebbleStore(t, clock)
	ctx := context.Background()

	_, err := s.IncrStep(ctx, "_gsid_orders_3", 20, time.Millisecond)
	require.NoError(t, err)
	n, err := s.Peek("_gsid_orders_3")
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)

	clock.Advance(time.Millisecond)
	n, err = s.Peek("_gsid_orders_3")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = s.Peek("missing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestPebbleStorePersists(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: storeEpoch}

	s, err := OpenPebbleStore(PebbleOptions{DataDir: dir, Fsync: "always", Clock: clock.Now})
	require.NoError(t, err)
	_, err = s.IncrExpire(context.Background(), "_incr_day", time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenPebbleStore(PebbleOptions{DataDir: dir, Clock: clock.Now})
	require.NoError(t, err)
	defer s.Close()
	n, err := s.IncrExpire(context.Background(), "_incr_day", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPebbleStoreConcurrentIncrStep(t *testing.T) {
	clock := &fakeClock{now: storeEpoch}
	s := newPebbleStore(t, clock)

	const callers = 40
	counts := make(chan int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.IncrStep(context.Background(), "hot", 20, time.Millisecond)
			assert.NoError(t, err)
			counts <- r.Count
		}()
	}
	wg.Wait()
	close(counts)

	seen := map[int64]bool{}
	for c := range counts {
		assert.False(t, seen[c], "duplicate count %d", c)
		seen[c] = true
	}
	assert.Len(t, seen, callers)
}

func TestPebbleStoreRejectsBadFsync(t *testing.T) {
	_, err := OpenPebbleStore(PebbleOptions{DataDir: t.TempDir(), Fsync: "sometimes"})
	assert.Error(t, err)
}

func TestPebbleStoreUnavailableOnCancelledContext(t *testing.T) {
	s := newPebbleStore(t, &fakeClock{now: storeEpoch})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.IncrStep(ctx, "k", 20, time.Millisecond)
	assert.ErrorIs(t, err, ErrCounterUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), ErrCounterUnavailable)
}

func TestPebbleStoreSweep(t *testing.T) {
	clock := &fakeClock{now: storeEpoch}
	s := newPebbleStore(t, clock)
	ctx := context.Background()

	_, err := s.IncrStep(ctx, "_gsid_orders_1", 20, time.Millisecond)
	require.NoError(t, err)
	_, err = s.IncrExpire(ctx, "_incr_20240601", 24*time.Hour)
	require.NoError(t, err)
	_, err = s.IncrWrap(ctx, "_incr_jobs", 1<<22)
	require.NoError(t, err)

	clock.Advance(time.Second)
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.DB().Get(keyCounter("_gsid_orders_1"))
	assert.ErrorIs(t, err, pebblestore.ErrNotFound)
	v, err := s.Peek("_incr_jobs")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}
