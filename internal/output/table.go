package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/numlens/numlens/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatResponse renders a check response as a table.
func (f *TableFormatter) FormatResponse(response *core.CheckResponse) (string, error) {
	if response == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle("+%s %s", response.Request.CountryCode, response.Request.Phone)
	t.AppendHeader(table.Row{"Platform", "Status", "Exists", "Confidence", "Time", "Notes"})

	for _, r := range response.Results {
		if r == nil {
			continue
		}
		t.AppendRow(table.Row{
			r.Platform,
			statusLabel(r),
			existsLabel(r),
			confidenceLabel(r),
			responseTimeLabel(r),
			formatNotes(r),
		})
	}

	if len(response.Results) > 0 {
		summary := fmt.Sprintf("found on %d/%d", len(response.PlatformsFound()), len(response.Results))
		if failed := len(response.PlatformsWithError()); failed > 0 {
			summary += fmt.Sprintf(", %d failed", failed)
		}
		t.AppendFooter(table.Row{
			"",
			summary,
			"",
			"",
			fmt.Sprintf("%.0fms", response.TotalTime),
			"",
		})
	}

	return t.Render(), nil
}
