package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/rzbill/seqid/pkg/counter"
	logpkg "github.com/rzbill/seqid/pkg/log"
)

// Defaults matching the sharded ID layout.
const (
	DefaultStep      = 20
	DefaultCapacity  = 1024
	DefaultBucketTTL = time.Millisecond
)

// MetricsHook observes allocations.
type MetricsHook interface {
	// ObserveAttempts is called once per successful allocation with the
	// number of store round trips it took.
	ObserveAttempts(key string, attempts int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveAttempts(string, int) {}

// Options configures an Allocator.
type Options struct {
	// Step is the increment size; startStep offsets must be below it.
	Step int64
	// Capacity is the exclusive upper bound of the sequence field.
	Capacity int64
	// BucketTTL is armed on the first increment of a fresh bucket.
	BucketTTL time.Duration
	Metrics   MetricsHook
	Logger    logpkg.Logger
}

// Allocator hands out bounded sequence values from a counter store.
type Allocator struct {
	store     counter.Store
	step      int64
	capacity  int64
	bucketTTL time.Duration
	metrics   MetricsHook
	logger    logpkg.Logger
}

// New returns an Allocator; zero option fields take the defaults.
func New(store counter.Store, opts Options) (*Allocator, error) {
	if opts.Step == 0 {
		opts.Step = DefaultStep
	}
	if opts.Capacity == 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.BucketTTL <= 0 {
		opts.BucketTTL = DefaultBucketTTL
	}
	if opts.Step < 0 || opts.Step*2 >= opts.Capacity {
		return nil, fmt.Errorf("sequence: step %d does not fit capacity %d", opts.Step, opts.Capacity)
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNopLogger()
	}
	return &Allocator{
		store:     store,
		step:      opts.Step,
		capacity:  opts.Capacity,
		bucketTTL: opts.BucketTTL,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}, nil
}

// Step returns the configured increment.
func (a *Allocator) Step() int64 { return a.step }

// Threshold is the exclusive bound a raw count must stay under.
func (a *Allocator) Threshold() int64 { return a.capacity - a.step }

// Next allocates a sequence from bucket key. The returned Reading carries the
// store time and Count+startStep, which is always below Capacity.
// startStep must be in [0, Step). Store errors are returned as is; ctx is
// checked between attempts.
func (a *Allocator) Next(ctx context.Context, key string, startStep int64) (counter.Reading, error) {
	threshold := a.Threshold()
	for attempt := 1; ; attempt++ {
		r, err := a.store.IncrStep(ctx, key, a.step, a.bucketTTL)
		if err != nil {
			return counter.Reading{}, err
		}
		if r.Count < threshold {
			a.metrics.ObserveAttempts(key, attempt)
			r.Count += startStep
			return r, nil
		}
		a.logger.Debug("bucket saturated, retrying",
			logpkg.F("key", key),
			logpkg.F("count", r.Count),
			logpkg.F("attempt", attempt),
		)
		if err := ctx.Err(); err != nil {
			return counter.Reading{}, err
		}
	}
}
