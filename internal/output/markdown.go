package output

import (
	"fmt"
	"strings"

	"github.com/numlens/numlens/internal/core"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatResponse renders a check response as Markdown.
func (f *MarkdownFormatter) FormatResponse(response *core.CheckResponse) (string, error) {
	if response == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## +%s %s\n\n",
		escapeMarkdownCell(response.Request.CountryCode),
		escapeMarkdownCell(response.Request.Phone)))
	sb.WriteString("| Platform | Status | Exists | Confidence | Time | Notes |\n")
	sb.WriteString("|----------|--------|--------|------------|------|-------|\n")

	for _, r := range response.Results {
		if r == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			escapeMarkdownCell(r.Platform),
			escapeMarkdownCell(statusLabel(r)),
			escapeMarkdownCell(existsLabel(r)),
			escapeMarkdownCell(confidenceLabel(r)),
			escapeMarkdownCell(responseTimeLabel(r)),
			escapeMarkdownCell(formatNotes(r)),
		))
	}

	if len(response.Results) > 0 {
		summary := fmt.Sprintf("found on %d/%d", len(response.PlatformsFound()), len(response.Results))
		if failed := len(response.PlatformsWithError()); failed > 0 {
			summary += fmt.Sprintf(", %d failed", failed)
		}
		sb.WriteString(fmt.Sprintf("\n**Summary**: %s\n", summary))
	}

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
