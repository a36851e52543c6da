package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 30, 0, 250*int(time.Millisecond), time.UTC)
	v := EncodeSharded(at.UnixMilli(), 42, 61)

	p := Parse(v)
	assert.Equal(t, Parts{Millis: at.UnixMilli(), Shard: 42, Seq: 61}, p)
	assert.True(t, at.Equal(p.Time()))
	assert.Equal(t, int64(42), ParseShard(v))
}

func TestParseForeignValue(t *testing.T) {
	// no format tag: any int64 decodes without error
	p := Parse(-1)
	assert.Equal(t, int64(MaxShard), p.Shard)
	assert.Equal(t, int64(MaxSeq), p.Seq)
}

func TestParseUnsharded(t *testing.T) {
	v := EncodeUnsharded(1717200000000, 3)
	p := ParseUnsharded(v)
	assert.Equal(t, int64(1717200000000), p.Millis)
	assert.Equal(t, int64(0), p.Shard)
	assert.Equal(t, int64(3), p.Seq)
}
