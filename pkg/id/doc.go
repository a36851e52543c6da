// Package id packs and unpacks seqid's 64-bit identifiers.
//
// # Sharded layout
//
//	 1 bit      41 bit            12 bit      10 bit
//	|-|-----------------------|-----------|----------|
//	 0      millisecond           shard        seq
//
// The millisecond field is the counter store's clock in Unix milliseconds.
// It fits 41 bits, keeping IDs positive, until ~2039. Past that the field
// spills into the sign bit; Decode shifts unsigned, so it keeps reading the
// field correctly until ~2109. Shard is the logical partition (0..4095) and seq is the
// per-bucket counter (0..1023).
//
// # Unsharded layout
//
//	millisecond << 10 + counter
//
// The unsharded counter may run up to 2^22-2, so values of 1024 or more carry
// into the millisecond bits. Decode always assumes the sharded layout and
// misreads unsharded IDs; DecodeUnsharded reads the unsharded layout and is
// exact only while the embedded counter stayed below 1024. Neither layout
// carries a format tag: callers must know which scheme produced an ID.
//
// Usage
//
//	v := id.EncodeSharded(ms, 7, 42)
//	p := id.Parse(v)        // {Millis: ms, Shard: 7, Seq: 42}
//	s := id.ParseShard(v)   // 7
package id
