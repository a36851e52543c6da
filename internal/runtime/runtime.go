package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cfgpkg "github.com/rzbill/seqid/internal/config"
	"github.com/rzbill/seqid/pkg/counter"
	"github.com/rzbill/seqid/pkg/idgen"
	logpkg "github.com/rzbill/seqid/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// RedisClient replaces the client built from Config.Redis. The runtime
	// does not close an injected client.
	RedisClient redis.UniversalClient
	// Clock drives serial dates and the embedded store; defaults to time.Now.
	Clock func() time.Time
}

// Runtime wires config, a counter backend and the generator for one process.
type Runtime struct {
	config cfgpkg.Config
	logger logpkg.Logger
	store  counter.Store
	gen    *idgen.Generator
	closer func() error
}

// Open validates the configuration, connects the configured backend and
// returns a Runtime.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		l, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Redact: []string{"password"}})
		if err != nil {
			return nil, err
		}
		logger = l
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	rt := &Runtime{config: cfg, logger: logger.WithComponent("runtime")}
	switch cfg.Backend {
	case cfgpkg.BackendRedis:
		client := opts.RedisClient
		if client == nil {
			c := redis.NewClient(&redis.Options{
				Addr:        cfg.Redis.Addr,
				Password:    cfg.Redis.Password,
				DB:          cfg.Redis.DB,
				DialTimeout: cfg.Redis.DialTimeout.Std(),
			})
			client = c
			rt.closer = c.Close
		}
		rt.store = counter.NewRedisStore(client, counter.WithKeyPrefix(cfg.Redis.KeyPrefix))
		rt.logger.Info("using redis backend", logpkg.Str("addr", cfg.Redis.Addr), logpkg.Int("db", cfg.Redis.DB))
	case cfgpkg.BackendPebble:
		s, err := counter.OpenPebbleStore(counter.PebbleOptions{
			DataDir:       cfg.Pebble.DataDir,
			Fsync:         cfg.Pebble.Fsync,
			FsyncInterval: cfg.Pebble.FsyncInterval.Std(),
			Clock:         opts.Clock,
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open pebble backend: %w", err)
		}
		rt.store = s
		rt.closer = s.Close
		swept, err := s.Sweep(ctx)
		if err != nil {
			_ = rt.Close()
			return nil, err
		}
		rt.logger.Info("using pebble backend",
			logpkg.Str("dir", cfg.Pebble.DataDir),
			logpkg.Str("fsync", cfg.Pebble.Fsync),
			logpkg.Int("expired_swept", swept),
		)
	}

	gen, err := idgen.New(rt.store,
		idgen.WithStep(cfg.Generator.Step),
		idgen.WithLogger(logger),
		idgen.WithClock(opts.Clock),
		idgen.WithSerialTTL(cfg.Generator.SerialTTL.Std()),
	)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.gen = gen
	return rt, nil
}

// Close releases the backend.
func (r *Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer()
	r.closer = nil
	return err
}

// CheckHealth pings the counter store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("counter store not open")
	}
	return r.store.Ping(ctx)
}

// Generator returns the ID generator.
func (r *Runtime) Generator() *idgen.Generator { return r.gen }

// Store exposes the counter backend (internal use only).
func (r *Runtime) Store() counter.Store { return r.store }

// Logger returns the root logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
