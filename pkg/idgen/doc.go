// Package idgen generates distributed 64-bit identifiers backed by a shared
// counter store.
//
// A Generator has no local state of its own. Uniqueness across processes
// comes from the store's atomic counters and the millisecond timestamp the
// store returns alongside each increment, so any number of Generators may
// point at the same store.
//
// # Sharded IDs
//
//	g, _ := idgen.New(counter.NewRedisStore(client))
//	v, err := g.Sharded(ctx, "orders", 7)
//	parts := id.Parse(v) // parts.Shard == 7
//
// Each (shardName, shardID) pair owns a one-millisecond counter bucket. The
// counter advances by the step (20 by default) and every shard adds its own
// offset shardID mod step, so shards with different offsets never share a
// sequence value even when they share a bucket.
//
// # Unsharded IDs and counters
//
// Unsharded packs a wrapping per-key counter below the millisecond field.
// UnshardedExpiring returns the raw counter of a key that expires after the
// given TTL. SerialNumber and ProviderRequestID build daily
// "YYYYMMDD" + five digit serials from an expiring counter.
package idgen
