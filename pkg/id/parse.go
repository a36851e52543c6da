package id

import "time"

// Parts is a decoded sharded ID.
type Parts struct {
	Millis int64 `json:"millis"`
	Shard  int64 `json:"shard"`
	Seq    int64 `json:"seq"`
}

// Time converts the millisecond field to a UTC time.
func (p Parts) Time() time.Time {
	return time.UnixMilli(p.Millis).UTC()
}

// Parse decodes v assuming the sharded layout. It never fails: foreign
// values decode into plausible but meaningless fields.
func Parse(v int64) Parts {
	ms, shard, seq := Decode(v)
	return Parts{Millis: ms, Shard: shard, Seq: seq}
}

// ParseShard returns the shard field of v.
func ParseShard(v int64) int64 { return Shard(v) }

// ParseUnsharded decodes v assuming the unsharded layout; Shard is always 0.
func ParseUnsharded(v int64) Parts {
	ms, seq := DecodeUnsharded(v)
	return Parts{Millis: ms, Seq: seq}
}
