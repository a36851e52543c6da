package id

// Field widths of the sharded layout.
const (
	SeqBits   = 10
	ShardBits = 12

	// MaxSeq is the largest sequence that fits the seq field.
	MaxSeq = 1<<SeqBits - 1
	// MaxShard is the largest shard id that fits the shard field.
	MaxShard = 1<<ShardBits - 1
	// ShardCount is the modulus applied to shard ids before encoding.
	ShardCount = 1 << ShardBits
	// MaxMillis is the largest millisecond value of the 41-bit time field.
	MaxMillis = 1<<41 - 1

	timeShift  = ShardBits + SeqBits
	shardShift = SeqBits
	shardMask  = MaxShard << shardShift
	seqMask    = MaxSeq
)

// EncodeSharded packs (ms, shard, seq) into the sharded layout.
// shard <= MaxShard and seq <= MaxSeq are the caller's contract; larger values
// silently corrupt the neighbouring field.
func EncodeSharded(ms, shard, seq int64) int64 {
	return (ms << timeShift) | (shard << shardShift) | seq
}

// EncodeUnsharded packs (ms, seq) into the unsharded layout. The addition
// lets a counter of 1024 or more spill into the millisecond bits.
func EncodeUnsharded(ms, seq int64) int64 {
	return (ms << SeqBits) + seq
}

// Decode unpacks a sharded ID.
func Decode(v int64) (ms, shard, seq int64) {
	ms = int64(uint64(v) >> timeShift)
	shard = (v & shardMask) >> shardShift
	seq = v & seqMask
	return
}

// Shard returns the shard field of a sharded ID.
func Shard(v int64) int64 {
	return (v & shardMask) >> shardShift
}

// DecodeUnsharded unpacks an unsharded ID. The result is exact only if the
// counter that produced v was below 1024.
func DecodeUnsharded(v int64) (ms, seq int64) {
	ms = int64(uint64(v) >> SeqBits)
	seq = v & seqMask
	return
}

// ReduceShard maps any shard id onto [0, MaxShard].
func ReduceShard(shard int64) int64 {
	r := shard % ShardCount
	if r < 0 {
		r += ShardCount
	}
	return r
}
