package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/rzbill/seqid/internal/config"
	"github.com/rzbill/seqid/internal/runtime"
	logpkg "github.com/rzbill/seqid/pkg/log"
)

// NewRoot constructs the root command and registers all subcommands.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "seqid",
		Short:         "Distributed 64-bit ID generator",
		Long:          "seqid allocates sharded IDs, counters and daily serial numbers from a shared counter store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (.json, .yaml or .yml)")
	pf.String("backend", "", "Counter backend: redis|pebble")
	pf.String("redis-addr", "", "Redis address (host:port)")
	pf.String("data-dir", "", "Pebble data directory")
	pf.String("log-level", "", "Log level: debug|info|warn|error")
	pf.String("log-format", "", "Log format: text|json")

	root.AddCommand(
		newNextCommand(),
		newIncrCommand(),
		newSerialCommand(),
		newParseCommand(),
		newHealthCommand(),
	)
	return root
}

// loadConfig resolves the effective configuration for cmd.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, err
	}
	cfgpkg.FromEnv(&cfg)

	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend = v
	}
	if v, _ := cmd.Flags().GetString("redis-addr"); v != "" {
		cfg.Redis.Addr = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Pebble.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	return cfg, nil
}

// withRuntime opens a runtime for the duration of fn.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime.Runtime) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Redact: []string{"password"}})
	if err != nil {
		return err
	}
	// the CLI owns the process, so stray standard-library logs join ours
	logpkg.RedirectStdLog(logger)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := runtime.Open(ctx, runtime.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	defer func() { _ = rt.Close() }()
	return fn(ctx, rt)
}
