package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/numlens/numlens/internal/core"
	"github.com/numlens/numlens/internal/core/engine"
	"github.com/numlens/numlens/internal/observability"
	"github.com/numlens/numlens/internal/output"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check multiple numbers from file",
	Long: `Read phone numbers from file and check platform presence for each.

Each line holds one number as "<country_code>,<phone>", for example:
  33,612345678
  1,4155550123
Blank lines and lines starting with # are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringSlice("platforms", nil, "Platforms to check (default: all enabled)")
	batchCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	batchCmd.Flags().Bool("force-refresh", false, "Bypass cached results and re-check")
	batchCmd.Flags().Bool("found-only", false, "Only show numbers found on at least one platform")
}

func runBatch(cmd *cobra.Command, args []string) error {
	platforms, err := cmd.Flags().GetStringSlice("platforms")
	if err != nil {
		return err
	}
	platforms = normalizePlatforms(platforms)

	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	forceRefresh, err := cmd.Flags().GetBool("force-refresh")
	if err != nil {
		return err
	}

	foundOnly, err := cmd.Flags().GetBool("found-only")
	if err != nil {
		return err
	}

	numbers, err := readBatchNumbers(args[0])
	if err != nil {
		return err
	}
	if len(numbers) == 0 {
		return errors.New("no numbers found in batch file")
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	orchestrator, err := buildOrchestrator(GetConfig(), true)
	if err != nil {
		return err
	}
	defer orchestrator.Close() // nolint:errcheck // best-effort cleanup of checker resources

	outcomes := orchestrator.CheckNumbers(ctx, numbers, platforms, forceRefresh)

	responses := make([]*core.CheckResponse, 0, len(outcomes))
	failed := 0
	for i, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			observability.CLILogger.Warn("Number check failed",
				zap.String("phone", core.AnonymizePhoneNumber(numbers[i].Phone, numbers[i].CountryCode)),
				zap.String("country_code", numbers[i].CountryCode),
				zap.Error(outcome.Err))
			continue
		}
		if foundOnly && len(outcome.Response.PlatformsFound()) == 0 {
			continue
		}
		responses = append(responses, outcome.Response)
	}

	rendered, err := output.FormatResponseList(format, responses)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rendered) != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		logThroughput(totalResults(responses), startedAt)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d numbers could not be checked", failed, len(numbers))
	}
	return nil
}

func readBatchNumbers(path string) ([]engine.NumberRef, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close() // nolint:errcheck // best-effort cleanup on read-only file

	numbers := make([]engine.NumberRef, 0)
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		country, phone, ok := strings.Cut(raw, ",")
		if !ok {
			return nil, fmt.Errorf("invalid entry on line %d: expected <country_code>,<phone>", line)
		}
		country = normalizeCountryCode(country)
		phone = core.CleanPhoneNumber(phone)
		if country == "" || phone == "" {
			return nil, fmt.Errorf("invalid entry on line %d: country code and phone are required", line)
		}
		numbers = append(numbers, engine.NumberRef{Phone: phone, CountryCode: country})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return numbers, nil
}

func totalResults(responses []*core.CheckResponse) int {
	total := 0
	for _, response := range responses {
		if response == nil {
			continue
		}
		total += len(response.Results)
	}
	return total
}
