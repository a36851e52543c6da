package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rzbill/seqid/internal/runtime"
	"github.com/rzbill/seqid/pkg/id"
)

func newNextCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Allocate sharded IDs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, _ := cmd.Flags().GetInt("count")
			if count < 1 {
				return fmt.Errorf("invalid --count; must be at least 1")
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				name := rt.Config().Generator.ShardName
				shard := rt.Config().Generator.ShardID
				if cmd.Flags().Changed("shard-name") {
					name, _ = cmd.Flags().GetString("shard-name")
				}
				if cmd.Flags().Changed("shard-id") {
					shard, _ = cmd.Flags().GetInt64("shard-id")
				}
				for i := 0; i < count; i++ {
					v, err := rt.Generator().Sharded(ctx, name, shard)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), v)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("shard-name", "", "Logical shard name (default from config)")
	cmd.Flags().Int64("shard-id", 0, "Shard id, reduced modulo 4096 (default from config)")
	cmd.Flags().Int("count", 1, "Number of IDs to allocate")
	return cmd
}

func newIncrCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incr",
		Short: "Increment a counter; unsharded ID without --ttl, raw count with it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, _ := cmd.Flags().GetString("key")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			if ttl < 0 {
				return fmt.Errorf("invalid --ttl; must not be negative")
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				var (
					v   int64
					err error
				)
				if ttl > 0 {
					v, err = rt.Generator().UnshardedExpiring(ctx, key, ttl)
				} else {
					v, err = rt.Generator().Unsharded(ctx, key)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
	cmd.Flags().String("key", "", "Counter key")
	cmd.Flags().Duration("ttl", 0, "Expire the counter after this duration (e.g. 24h)")
	return cmd
}

func newSerialCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serial",
		Short: "Print today's next serial number (YYYYMMDDNNNNN)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefix, _ := cmd.Flags().GetString("prefix")
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				s, err := rt.Generator().ProviderRequestID(ctx, prefix)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	cmd.Flags().String("prefix", "", "Scope the daily counter, e.g. per provider")
	return cmd
}

type parsedID struct {
	ID     int64  `json:"id"`
	Layout string `json:"layout"`
	id.Parts
	Time string `json:"time"`
}

func newParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <id>",
		Short: "Decode an ID into its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[0], err)
			}
			unsharded, _ := cmd.Flags().GetBool("unsharded")
			out := parsedID{ID: v, Layout: "sharded"}
			if unsharded {
				out.Layout = "unsharded"
				out.Parts = id.ParseUnsharded(v)
			} else {
				out.Parts = id.Parse(v)
			}
			out.Time = out.Parts.Time().Format(time.RFC3339Nano)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().Bool("unsharded", false, "Decode with the unsharded layout")
	return cmd
}

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the counter store is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
				ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				if err := rt.CheckHealth(ctx); err != nil {
					return fmt.Errorf("unhealthy: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok (%s)\n", rt.Config().Backend)
				return nil
			})
		},
	}
}
