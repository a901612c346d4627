package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/numlens/numlens/internal/core"
	"github.com/numlens/numlens/internal/observability"
	"github.com/numlens/numlens/internal/output"
)

var checkCmd = &cobra.Command{
	Use:   "check <phone>",
	Short: "Check platform presence for a phone number",
	Long:  "Check whether a phone number is registered on the supported messaging platforms",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("country", "c", "", "country calling code, digits only (e.g. 33 for France)")
	checkCmd.Flags().StringSlice("platforms", nil, "Platforms to check (default: all enabled)")
	checkCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	checkCmd.Flags().Bool("force-refresh", false, "Bypass cached results and re-check")
	checkCmd.Flags().Bool("no-cache", false, "Disable the result cache entirely")
	_ = checkCmd.MarkFlagRequired("country")
}

func runCheck(cmd *cobra.Command, args []string) error {
	phone := strings.TrimSpace(args[0])

	country, err := cmd.Flags().GetString("country")
	if err != nil {
		return err
	}
	country = normalizeCountryCode(country)

	platforms, err := cmd.Flags().GetStringSlice("platforms")
	if err != nil {
		return err
	}
	platforms = normalizePlatforms(platforms)

	forceRefresh, err := cmd.Flags().GetBool("force-refresh")
	if err != nil {
		return err
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}

	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	orchestrator, err := buildOrchestrator(GetConfig(), !noCache)
	if err != nil {
		return err
	}
	defer orchestrator.Close() // nolint:errcheck // best-effort cleanup of checker resources

	response, err := orchestrator.CheckNumber(ctx, phone, country, platforms, forceRefresh)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(format)
	rendered, err := formatter.FormatResponse(response)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		logThroughput(len(response.Results), startedAt)
	}
	return nil
}

func normalizeCountryCode(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "+")
	return core.CleanPhoneNumber(value)
}

func normalizePlatforms(values []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			platform := strings.ToLower(strings.TrimSpace(part))
			if platform == "" {
				continue
			}
			if _, ok := seen[platform]; ok {
				continue
			}
			seen[platform] = struct{}{}
			result = append(result, platform)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func logThroughput(count int, startedAt time.Time) {
	if count <= 0 {
		return
	}
	elapsed := time.Since(startedAt)
	if elapsed <= 0 {
		return
	}
	rate := float64(count) / elapsed.Seconds()
	observability.CLILogger.Info(
		"Check throughput",
		zap.Int("checks", count),
		zap.Duration("elapsed", elapsed),
		zap.Float64("rate_per_sec", rate),
	)
}
