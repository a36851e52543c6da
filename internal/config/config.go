package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend.
const (
	BackendRedis  = "redis"
	BackendPebble = "pebble"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Backend   string    `json:"backend" yaml:"backend"`
	Redis     Redis     `json:"redis" yaml:"redis"`
	Pebble    Pebble    `json:"pebble" yaml:"pebble"`
	Generator Generator `json:"generator" yaml:"generator"`
	Log       Log       `json:"log" yaml:"log"`
}

// Redis configures the Redis counter backend.
type Redis struct {
	Addr        string   `json:"addr" yaml:"addr"`
	Password    string   `json:"password" yaml:"password"`
	DB          int      `json:"db" yaml:"db"`
	KeyPrefix   string   `json:"keyPrefix" yaml:"keyPrefix"`
	DialTimeout Duration `json:"dialTimeout" yaml:"dialTimeout"`
}

// Pebble configures the embedded counter backend.
type Pebble struct {
	DataDir       string   `json:"dataDir" yaml:"dataDir"`
	Fsync         string   `json:"fsync" yaml:"fsync"`
	FsyncInterval Duration `json:"fsyncInterval" yaml:"fsyncInterval"`
}

// Generator holds ID generation settings and CLI defaults.
type Generator struct {
	Step      int64    `json:"step" yaml:"step"`
	ShardName string   `json:"shardName" yaml:"shardName"`
	ShardID   int64    `json:"shardId" yaml:"shardId"`
	SerialTTL Duration `json:"serialTTL" yaml:"serialTTL"`
}

// Log mirrors log.Config.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Duration is a time.Duration written as "250ms", "24h" and so on.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.set(s)
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Backend: BackendRedis,
		Redis: Redis{
			Addr:        "127.0.0.1:6379",
			DialTimeout: Duration(5 * time.Second),
		},
		Pebble: Pebble{
			DataDir:       DefaultDataDir(),
			Fsync:         "interval",
			FsyncInterval: Duration(5 * time.Millisecond),
		},
		Generator: Generator{
			Step:      20,
			ShardName: "default",
			SerialTTL: Duration(24 * time.Hour),
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("config: redis.addr is required for the redis backend")
		}
	case BackendPebble:
		if c.Pebble.DataDir == "" {
			return errors.New("config: pebble.dataDir is required for the pebble backend")
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Generator.Step <= 0 || c.Generator.Step*2 >= 1024 {
		return fmt.Errorf("config: generator.step %d must be in (0, 512)", c.Generator.Step)
	}
	if c.Generator.SerialTTL <= 0 {
		return errors.New("config: generator.serialTTL must be positive")
	}
	return nil
}
