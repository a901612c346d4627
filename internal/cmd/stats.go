package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache and checker statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	orchestrator, err := buildOrchestrator(GetConfig(), true)
	if err != nil {
		return err
	}
	defer orchestrator.Close() // nolint:errcheck // best-effort cleanup of checker resources

	stats := orchestrator.Stats()

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Platforms", strings.Join(stats.AvailablePlatforms, ", ")},
		{"Cache enabled", stats.CacheEnabled},
	})
	if cacheStats, ok := orchestrator.CacheStats(); ok {
		t.AppendRows([]table.Row{
			{"Cached entries", cacheStats.Entries},
			{"Cache size", fmt.Sprintf("%d bytes", cacheStats.SizeBytes)},
			{"Cache capacity", fmt.Sprintf("%d bytes", cacheStats.MaxSizeBytes)},
		})
	}
	fmt.Println(t.Render())
	return nil
}
