package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(WithLevel(level), WithFormatter(f), WithOutput(&ConsoleOutput{W: buf}))
	return l, buf
}

func TestLevelGate(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{})
	l.Info("dropped")
	l.Warn("kept")
	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")

	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
	assert.Equal(t, DebugLevel, l.GetLevel())
}

func TestJSONFields(t *testing.T) {
	l, buf := newBufferLogger(DebugLevel, &JSONFormatter{})
	l.With(Component("idgen")).Info("allocated", Str("key", "_gsid_orders_7"), Int64("seq", 47))

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "INFO", m["level"])
	assert.Equal(t, "allocated", m["msg"])
	assert.Equal(t, "idgen", m["component"])
	assert.Equal(t, "_gsid_orders_7", m["key"])
	assert.EqualValues(t, 47, m["seq"])
}

func TestWithContext(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &JSONFormatter{})
	ctx := NewContext(context.Background(), Str("shard", "orders"))
	ctx = NewContext(ctx, Int64("shard_id", 7))
	l.WithContext(ctx).Info("allocated")

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "orders", m["shard"])
	assert.EqualValues(t, 7, m["shard_id"])
	assert.Empty(t, FieldsFromContext(context.Background()))
}

func TestWithErrorAndText(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{})
	l.WithError(errors.New("dial tcp: refused")).Error("store failed")
	line := buf.String()
	assert.True(t, strings.Contains(line, "ERROR"))
	assert.Contains(t, line, `error="dial tcp: refused"`)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": DebugLevel, "INFO": InfoLevel, "warning": WarnLevel, "error": ErrorLevel, "": InfoLevel}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestApplyConfig(t *testing.T) {
	l, err := ApplyConfig(&Config{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, l.GetLevel())

	_, err = ApplyConfig(&Config{Format: "xml"})
	assert.Error(t, err)
}

func TestRedaction(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(WithFormatter(&JSONFormatter{}), WithOutput(&ConsoleOutput{W: buf})).(*BaseLogger)
	base.slogLogger = slog.New(base.slogLogger.Handler().(*bridgeHandler).withRedactions([]string{"password"}))
	base.Info("connect", Str("password", "hunter2"), Str("addr", "127.0.0.1:6379"))
	assert.Contains(t, buf.String(), "[REDACTED]")
	assert.NotContains(t, buf.String(), "hunter2")

	buf.Reset()
	base.With(Str("password", "hunter2")).Info("retry")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestGroupPrefixAndCaller(t *testing.T) {
	buf := &bytes.Buffer{}
	base := NewLogger(WithFormatter(&JSONFormatter{}), WithOutput(&ConsoleOutput{W: buf})).(*BaseLogger)
	slog.New(base.slogLogger.Handler()).WithGroup("redis").Info("dial", "addr", "127.0.0.1:6379")

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "127.0.0.1:6379", m["redis.addr"])
	assert.Contains(t, m["caller"], "logger_test.go")
}

func TestSampler(t *testing.T) {
	s := newSampler(2, 3)
	var allowed int
	for i := 0; i < 8; i++ {
		if s.allow(0, "bucket saturated") {
			allowed++
		}
	}
	// first two, then every third of the remaining six
	assert.Equal(t, 4, allowed)
}
