// Package sequence keeps a per-bucket counter inside the sequence field of an ID.
//
// Allocator.Next increments a bucket by a fixed step until the store returns
// a count strictly below Capacity-Step, then offsets it by the caller's
// startStep. Nodes sharing a bucket use distinct startStep residues (shard id
// modulo step), so their sequences land on disjoint values. The first
// increment of a fresh bucket arms a short TTL, which is how a saturated
// bucket is eventually reclaimed; until then Next keeps retrying against the
// same bucket. There is no retry bound and no lock: the counter store is the
// only point of serialization.
package sequence
