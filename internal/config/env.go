package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays SEQID_* environment variables onto cfg. Unparseable
// values are ignored.
func FromEnv(cfg *Config) {
	if v := os.Getenv("SEQID_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("SEQID_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SEQID_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SEQID_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
	if v := os.Getenv("SEQID_REDIS_KEY_PREFIX"); v != "" {
		cfg.Redis.KeyPrefix = v
	}
	envDuration("SEQID_REDIS_DIAL_TIMEOUT", &cfg.Redis.DialTimeout)
	if v := os.Getenv("SEQID_PEBBLE_DATA_DIR"); v != "" {
		cfg.Pebble.DataDir = v
	}
	if v := os.Getenv("SEQID_PEBBLE_FSYNC"); v != "" {
		cfg.Pebble.Fsync = v
	}
	envDuration("SEQID_PEBBLE_FSYNC_INTERVAL", &cfg.Pebble.FsyncInterval)
	if v := os.Getenv("SEQID_STEP"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Generator.Step = n
		}
	}
	if v := os.Getenv("SEQID_SHARD_NAME"); v != "" {
		cfg.Generator.ShardName = v
	}
	if v := os.Getenv("SEQID_SHARD_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Generator.ShardID = n
		}
	}
	envDuration("SEQID_SERIAL_TTL", &cfg.Generator.SerialTTL)
	if v := os.Getenv("SEQID_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SEQID_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func envDuration(name string, dst *Duration) {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}
