package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-campaign-site/internal/store"
)

var purgeAge time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clean the persistent query cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache entry count and size",
	RunE: withStore(func(cmd *cobra.Command, st *store.SQLite) error {
		s, err := st.Stats(cmd.Context())
		if err != nil {
			return err
		}
		oldest := "-"
		if !s.Oldest.IsZero() {
			oldest = s.Oldest.Format(time.RFC3339)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "entries=%d bytes=%d oldest=%s\n", s.Entries, s.Bytes, oldest)
		return nil
	}),
}

var cacheResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every cached query result",
	RunE: withStore(func(cmd *cobra.Command, st *store.SQLite) error {
		if err := st.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
		return nil
	}),
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cached results older than --older-than",
	RunE: withStore(func(cmd *cobra.Command, st *store.SQLite) error {
		n, err := st.PurgeOlderThan(cmd.Context(), purgeAge)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged=%d\n", n)
		return nil
	}),
}

// withStore 只在 cache.type=sqlite 时打开数据库；内存缓存没有可管理的持久数据。
func withStore(fn func(cmd *cobra.Command, st *store.SQLite) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if st == nil {
			return errors.New("cache.type is not sqlite; nothing to manage")
		}
		defer st.Close()
		return fn(cmd, st)
	}
}

func init() {
	cachePurgeCmd.Flags().DurationVar(&purgeAge, "older-than", 24*time.Hour, "age threshold")
	cacheCmd.AddCommand(cacheStatsCmd, cacheResetCmd, cachePurgeCmd)
}
