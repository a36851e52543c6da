package counter

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	pebblestore "github.com/rzbill/seqid/internal/storage/pebble"
	logpkg "github.com/rzbill/seqid/pkg/log"
)

// Pebble keyspace: ctr/{key} -> count(8B BE) | expireAtUnixMicro(8B BE).
// An expireAt of zero means the counter never expires.
var ctrPrefix = []byte("ctr/")

func keyCounter(key string) []byte {
	k := make([]byte, 0, len(ctrPrefix)+len(key))
	k = append(k, ctrPrefix...)
	k = append(k, key...)
	return k
}

type counterValue struct {
	count    int64
	expireAt int64
}

func decodeCounter(b []byte, nowMicro int64) counterValue {
	if len(b) != 16 {
		return counterValue{}
	}
	v := counterValue{
		count:    int64(binary.BigEndian.Uint64(b[:8])),
		expireAt: int64(binary.BigEndian.Uint64(b[8:])),
	}
	if v.expireAt != 0 && v.expireAt <= nowMicro {
		return counterValue{}
	}
	return v
}

func (v counterValue) encode() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], uint64(v.count))
	binary.BigEndian.PutUint64(b[8:], uint64(v.expireAt))
	return b
}

// PebbleOptions configures OpenPebbleStore.
type PebbleOptions struct {
	// DataDir is the Pebble database directory.
	DataDir string
	// Fsync is always|interval|never; empty selects a small group-commit window.
	Fsync string
	// FsyncInterval is the group-commit window when Fsync is "interval".
	FsyncInterval time.Duration
	// Clock overrides the store clock; defaults to time.Now.
	Clock func() time.Time
	// Logger receives Pebble's internal messages; nil leaves Pebble's default.
	Logger logpkg.Logger
}

// PebbleStore keeps counters in an embedded Pebble database. Each operation
// is one serialized read-modify-write, and the store's own clock supplies
// time samples and expiry.
type PebbleStore struct {
	db    *pebblestore.DB
	owned bool
	now   func() time.Time
}

var _ Store = (*PebbleStore)(nil)

// OpenPebbleStore opens (or creates) a Pebble database and returns a store
// that owns it.
func OpenPebbleStore(opts PebbleOptions) (*PebbleStore, error) {
	mode, err := pebblestore.ParseFsyncMode(opts.Fsync)
	if err != nil {
		return nil, err
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         mode,
		FsyncInterval: opts.FsyncInterval,
		Logger:        opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	s := NewPebbleStore(db, opts.Clock)
	s.owned = true
	return s, nil
}

// NewPebbleStore uses an already open database. A nil clock means time.Now.
func NewPebbleStore(db *pebblestore.DB, clock func() time.Time) *PebbleStore {
	if clock == nil {
		clock = time.Now
	}
	return &PebbleStore{db: db, now: clock}
}

// Close closes the database if the store opened it.
func (s *PebbleStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying database.
func (s *PebbleStore) DB() *pebblestore.DB { return s.db }

// update runs fn under the database's update lock with the current clock.
func (s *PebbleStore) update(ctx context.Context, op, key string, fn func(v counterValue, now time.Time) (counterValue, bool)) (Reading, error) {
	var r Reading
	err := s.db.Update(ctx, keyCounter(key), func(cur []byte) ([]byte, error) {
		now := s.now()
		next, keep := fn(decodeCounter(cur, now.UnixMicro()), now)
		r = Reading{Time: SampleOf(now), Count: next.count}
		if !keep {
			return nil, nil
		}
		return next.encode(), nil
	})
	if err != nil {
		return Reading{}, unavailable(op, key, err)
	}
	return r, nil
}

// IncrStep implements Store.
func (s *PebbleStore) IncrStep(ctx context.Context, key string, step int64, ttl time.Duration) (Reading, error) {
	return s.update(ctx, "incrstep", key, func(v counterValue, now time.Time) (counterValue, bool) {
		v.count += step
		if v.count == step {
			v.expireAt = now.Add(time.Duration(ttlMillis(ttl)) * time.Millisecond).UnixMicro()
		}
		return v, true
	})
}

// IncrWrap implements Store.
func (s *PebbleStore) IncrWrap(ctx context.Context, key string, limit int64) (Reading, error) {
	return s.update(ctx, "incrwrap", key, func(v counterValue, _ time.Time) (counterValue, bool) {
		v.count++
		return v, v.count < limit-1
	})
}

// IncrExpire implements Store.
func (s *PebbleStore) IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	r, err := s.update(ctx, "increxpire", key, func(v counterValue, now time.Time) (counterValue, bool) {
		v.count++
		v.expireAt = now.Add(time.Duration(ttlMillis(ttl)) * time.Millisecond).UnixMicro()
		return v, true
	})
	return r.Count, err
}

// Ping implements Store.
func (s *PebbleStore) Ping(ctx context.Context) error {
	if err := s.db.Check(ctx); err != nil {
		return unavailable("ping", "", err)
	}
	return nil
}

// Sweep deletes expired counters and returns how many were removed. Expired
// counters already read as absent; sweeping only reclaims space.
func (s *PebbleStore) Sweep(ctx context.Context) (int, error) {
	nowMicro := s.now().UnixMicro()
	n, err := s.db.Sweep(ctx, ctrPrefix, func(v []byte) bool {
		return len(v) != 16 || decodeCounter(v, nowMicro) == (counterValue{})
	})
	if err != nil {
		return 0, unavailable("sweep", "", err)
	}
	return n, nil
}

// Peek returns the live value of key, or 0 when it is absent or expired.
func (s *PebbleStore) Peek(key string) (int64, error) {
	b, err := s.db.Get(keyCounter(key))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return 0, nil
		}
		return 0, unavailable("peek", key, err)
	}
	return decodeCounter(b, s.now().UnixMicro()).count, nil
}
