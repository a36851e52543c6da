package idgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rzbill/seqid/internal/sequence"
	"github.com/rzbill/seqid/pkg/counter"
	"github.com/rzbill/seqid/pkg/id"
	logpkg "github.com/rzbill/seqid/pkg/log"
)

// ErrCapacityExhausted reports that a counter can no longer produce values
// that fit its bit field. Current allocation paths wait or wrap instead of
// returning it.
var ErrCapacityExhausted = errors.New("idgen: sequence capacity exhausted")

const (
	// UnshardedLimit bounds the unsharded counter; the key is reset once the
	// counter reaches UnshardedLimit-1.
	UnshardedLimit = 1 << 22

	// DefaultSerialTTL is the lifetime of a daily serial counter.
	DefaultSerialTTL = 24 * time.Hour

	serialDateLayout = "20060102"
	shardedKeyPrefix = "_gsid_"
	counterKeyPrefix = "_incr_"
)

// Clock returns the current time used for serial-number dates.
type Clock func() time.Time

// MetricsHook observes generator activity.
type MetricsHook interface {
	sequence.MetricsHook
	// ObserveError is called when the store fails an operation.
	ObserveError(op string)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{ sequence.NoopMetrics }

func (NoopMetrics) ObserveError(string) {}

// Option configures a Generator.
type Option func(*options)

type options struct {
	step      int64
	logger    logpkg.Logger
	metrics   MetricsHook
	clock     Clock
	serialTTL time.Duration
}

// WithStep sets the sharded counter increment. Shards whose IDs are equal
// modulo step share sequence offsets.
func WithStep(step int64) Option { return func(o *options) { o.step = step } }

// WithLogger sets the logger.
func WithLogger(l logpkg.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics sets the metrics hook.
func WithMetrics(m MetricsHook) Option { return func(o *options) { o.metrics = m } }

// WithClock overrides the wall clock used for serial dates.
func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }

// WithSerialTTL overrides how long daily serial counters live. Values <= 0
// keep DefaultSerialTTL.
func WithSerialTTL(ttl time.Duration) Option { return func(o *options) { o.serialTTL = ttl } }

// Generator produces IDs from a counter store. It is safe for concurrent use.
type Generator struct {
	store     counter.Store
	alloc     *sequence.Allocator
	logger    logpkg.Logger
	metrics   MetricsHook
	clock     Clock
	serialTTL time.Duration
}

// New returns a Generator over store.
func New(store counter.Store, opts ...Option) (*Generator, error) {
	if store == nil {
		return nil, errors.New("idgen: nil counter store")
	}
	o := options{
		step:      sequence.DefaultStep,
		metrics:   NoopMetrics{},
		clock:     time.Now,
		serialTTL: DefaultSerialTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logpkg.NewNopLogger()
	}
	if o.serialTTL <= 0 {
		o.serialTTL = DefaultSerialTTL
	}
	logger := o.logger.WithComponent("idgen")
	alloc, err := sequence.New(store, sequence.Options{
		Step:     o.step,
		Capacity: id.MaxSeq + 1,
		Metrics:  o.metrics,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return &Generator{
		store:     store,
		alloc:     alloc,
		logger:    logger,
		metrics:   o.metrics,
		clock:     o.clock,
		serialTTL: o.serialTTL,
	}, nil
}

// ShardedKey returns the bucket key used for a shard.
func ShardedKey(shardName string, shard int64) string {
	return fmt.Sprintf("%s%s_%d", shardedKeyPrefix, shardName, shard)
}

// CounterKey returns the store key behind Unsharded and UnshardedExpiring.
func CounterKey(key string) string { return counterKeyPrefix + key }

// Sharded returns an ID carrying the store's millisecond, shardID mod 4096
// and a sequence unique within the bucket for shardName.
func (g *Generator) Sharded(ctx context.Context, shardName string, shardID int64) (int64, error) {
	startStep := shardID % g.alloc.Step()
	if startStep < 0 {
		startStep += g.alloc.Step()
	}
	shard := id.ReduceShard(shardID)
	key := ShardedKey(shardName, shard)

	r, err := g.alloc.Next(ctx, key, startStep)
	if err != nil {
		return 0, g.fail("sharded", key, err)
	}
	return id.EncodeSharded(r.Time.Millis(), shard, r.Count), nil
}

// Unsharded returns an ID built from the store's millisecond and a per-key
// counter that resets at UnshardedLimit-1. Counters of 1024 or more carry
// into the millisecond field; use id.DecodeUnsharded only for low counters.
func (g *Generator) Unsharded(ctx context.Context, key string) (int64, error) {
	k := CounterKey(key)
	r, err := g.store.IncrWrap(ctx, k, UnshardedLimit)
	if err != nil {
		return 0, g.fail("unsharded", k, err)
	}
	return id.EncodeUnsharded(r.Time.Millis(), r.Count), nil
}

// UnshardedExpiring increments key's counter, resets its lifetime to ttl and
// returns the new count.
func (g *Generator) UnshardedExpiring(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := CounterKey(key)
	n, err := g.store.IncrExpire(ctx, k, ttl)
	if err != nil {
		return 0, g.fail("unsharded_expiring", k, err)
	}
	return n, nil
}

// SerialNumber returns today's date followed by a five digit daily counter,
// e.g. "2024060100001". Counters past 99999 print in full.
func (g *Generator) SerialNumber(ctx context.Context) (string, error) {
	return g.ProviderRequestID(ctx, "")
}

// ProviderRequestID is SerialNumber with the daily counter scoped by prefix.
// The prefix does not appear in the result.
func (g *Generator) ProviderRequestID(ctx context.Context, prefix string) (string, error) {
	date := g.clock().Format(serialDateLayout)
	n, err := g.UnshardedExpiring(ctx, prefix+date, g.serialTTL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", date, n), nil
}

// Ping checks the underlying store.
func (g *Generator) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}

func (g *Generator) fail(op, key string, err error) error {
	g.metrics.ObserveError(op)
	g.logger.Error("counter operation failed",
		logpkg.Str("op", op),
		logpkg.Str("key", key),
		logpkg.Err(err),
	)
	return err
}
