package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/numlens/numlens/internal/core"
	"github.com/numlens/numlens/internal/core/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached results",
	RunE:  runCacheClear,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <phone>",
	Short: "Remove the cached results for one number",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheInvalidate,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)

	cacheInvalidateCmd.Flags().StringP("country", "c", "", "country calling code, digits only")
	_ = cacheInvalidateCmd.MarkFlagRequired("country")
}

func openCacheStore() (*cache.Store, error) {
	cfg := GetConfig()
	if cfg == nil || !cfg.Cache.Enabled {
		return nil, fmt.Errorf("caching is disabled in the configuration")
	}
	store := cache.New(cfg.Cache.Directory, cfg.Cache.ExpireAfter, cfg.Cache.MaxSizeMB)
	if err := store.Initialize(); err != nil {
		return nil, err
	}
	return store, nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := openCacheStore()
	if err != nil {
		return err
	}

	stats := store.Stats()

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Entries", stats.Entries},
		{"Size", fmt.Sprintf("%d bytes", stats.SizeBytes)},
		{"Max size", fmt.Sprintf("%d bytes", stats.MaxSizeBytes)},
		{"Evictions", stats.Evictions},
		{"Corrupt entries removed", stats.CorruptEntries},
	})
	fmt.Println(t.Render())
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, err := openCacheStore()
	if err != nil {
		return err
	}
	if err := store.ClearAll(); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	country, err := cmd.Flags().GetString("country")
	if err != nil {
		return err
	}

	store, err := openCacheStore()
	if err != nil {
		return err
	}

	store.Invalidate(core.CleanPhoneNumber(args[0]), normalizeCountryCode(country))
	fmt.Println("cache entry invalidated")
	return nil
}
