package counter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCounterUnavailable reports that the counter store could not complete an
// operation. The underlying cause is kept in the error chain.
var ErrCounterUnavailable = errors.New("counter store unavailable")

// TimeSample is the store's clock at the moment of an operation.
type TimeSample struct {
	Seconds int64
	Micros  int64
}

// Millis returns the sample in Unix milliseconds.
func (t TimeSample) Millis() int64 { return t.Seconds*1000 + t.Micros/1000 }

// Time converts the sample to a time.Time.
func (t TimeSample) Time() time.Time { return time.Unix(t.Seconds, t.Micros*1000) }

// SampleOf builds a TimeSample from a time.Time.
func SampleOf(t time.Time) TimeSample {
	return TimeSample{Seconds: t.Unix(), Micros: int64(t.Nanosecond() / 1000)}
}

// Reading is a counter value captured together with the store clock.
type Reading struct {
	Time  TimeSample
	Count int64
}

// Store is the capability a counter backend must provide. Implementations
// must be safe for concurrent use and execute each method atomically.
type Store interface {
	// IncrStep adds step to key. When the result equals step the key gets
	// ttl as its time-to-live.
	IncrStep(ctx context.Context, key string, step int64, ttl time.Duration) (Reading, error)
	// IncrWrap adds one to key and deletes key once the result is at least
	// limit-1.
	IncrWrap(ctx context.Context, key string, limit int64) (Reading, error)
	// IncrExpire adds one to key and sets its time-to-live to ttl.
	IncrExpire(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

func unavailable(op, key string, err error) error {
	if key == "" {
		return fmt.Errorf("%w: %s: %w", ErrCounterUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s %q: %w", ErrCounterUnavailable, op, key, err)
}
