package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/numlens/numlens/internal/core/engine"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every enabled platform checker",
	Long:  "Send a harmless probe through each enabled platform checker and report reachability",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().Bool("json", false, "Emit the health report as JSON")
}

func runHealth(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	orchestrator, err := buildOrchestrator(GetConfig(), true)
	if err != nil {
		return err
	}
	defer orchestrator.Close() // nolint:errcheck // best-effort cleanup of checker resources

	health := orchestrator.HealthCheck(cmd.Context())

	if asJSON {
		data, err := json.MarshalIndent(health, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Component", "Status", "Time", "Error"})
		for name, component := range health.Components {
			t.AppendRow(table.Row{
				name,
				component.Status,
				fmt.Sprintf("%.0fms", component.ResponseTime),
				component.Error,
			})
		}
		t.AppendFooter(table.Row{"overall", health.Status, "", ""})
		fmt.Println(t.Render())
	}

	if health.Status == engine.HealthUnhealthy {
		os.Exit(1)
	}
	return nil
}
