package output

import (
	"fmt"
	"strings"

	"github.com/numlens/numlens/internal/core"
)

func statusLabel(result *core.CheckResult) string {
	if result == nil {
		return "unknown"
	}

	switch result.Status {
	case core.StatusExists:
		return "exists"
	case core.StatusNotExists:
		return "not found"
	case core.StatusRateLimited:
		return "rate limited"
	case core.StatusTimeout:
		return "timeout"
	case core.StatusError:
		return "error"
	default:
		return "unknown"
	}
}

func existsLabel(result *core.CheckResult) string {
	if result == nil {
		return ""
	}
	if result.Status == core.StatusExists {
		return "yes"
	}
	if result.Status == core.StatusNotExists {
		return "no"
	}
	return "?"
}

func confidenceLabel(result *core.CheckResult) string {
	if result == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", result.ConfidenceScore)
}

func responseTimeLabel(result *core.CheckResult) string {
	if result == nil {
		return ""
	}
	return fmt.Sprintf("%.0fms", result.ResponseTime)
}

func formatNotes(result *core.CheckResult) string {
	if result == nil {
		return ""
	}

	parts := []string{}
	if result.Error != "" {
		parts = append(parts, result.Error)
	}
	if result.IsCached() {
		note := "cached"
		if freshness, ok := result.Metadata[core.MetaFreshness].(float64); ok {
			note = fmt.Sprintf("cached (freshness %.2f)", freshness)
		}
		parts = append(parts, note)
	}
	if method, ok := result.Metadata[core.MetaMethod].(string); ok && method != "" {
		parts = append(parts, "via "+method)
	}

	return strings.Join(parts, "; ")
}
