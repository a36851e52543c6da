// Package counter is seqid's client for atomic counter stores.
//
// A Store exposes exactly the compound operations the generator needs, each
// executed indivisibly by the backend in a single round trip:
//
//   - IncrStep: INCRBY key step; arm a TTL when the result equals step (the
//     bucket is fresh); return the store clock and the result.
//   - IncrWrap: INCR key; delete the key once the result reaches limit-1;
//     return the store clock and the result.
//   - IncrExpire: INCR key and (re)set its TTL; return the result.
//
// Time always comes from the store, never from the calling node, so every
// node sharing a store observes one time axis.
//
// Two backends are provided. RedisStore runs each operation as a Lua script
// through go-redis; any Redis-compatible server shared by many nodes works.
// PebbleStore keeps counters in an embedded Pebble database and serializes
// each operation in-process; it suits single-node deployments and tests.
//
// Every backend failure is returned wrapped in ErrCounterUnavailable. Stores
// never retry internally.
//
//	st := counter.NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"}))
//	r, err := st.IncrStep(ctx, "_gsid_orders_7", 20, time.Millisecond)
//	if errors.Is(err, counter.ErrCounterUnavailable) { /* fail fast */ }
//	_ = r.Time.Millis()
package counter
