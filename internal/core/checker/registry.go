package checker

import (
	"net/http"

	"github.com/numlens/numlens/internal/config"
	"github.com/numlens/numlens/internal/core/engine"
)

// DefaultPlatforms lists the supported platforms in their display order.
var DefaultPlatforms = []string{"whatsapp", "telegram", "instagram", "snapchat"}

// Build constructs one checker per enabled platform. All checkers share the
// supplied HTTP client; pass nil to give each its own default client.
func Build(cfg *config.Config, client *http.Client) []engine.Checker {
	checkers := make([]engine.Checker, 0, len(DefaultPlatforms))
	for _, platform := range DefaultPlatforms {
		pc := cfg.PlatformFor(platform)
		if !pc.Enabled {
			continue
		}
		probeCfg := Config{
			Timeout:         pc.Timeout,
			RetryAttempts:   pc.RetryAttempts,
			RateLimitCalls:  pc.RateLimitCalls,
			RateLimitPeriod: pc.RateLimitPeriod,
			Headers:         pc.Headers,
		}
		switch platform {
		case "whatsapp":
			checkers = append(checkers, NewWhatsAppChecker(client, probeCfg))
		case "telegram":
			checkers = append(checkers, NewTelegramChecker(client, probeCfg))
		case "instagram":
			checkers = append(checkers, NewInstagramChecker(client, probeCfg))
		case "snapchat":
			checkers = append(checkers, NewSnapchatChecker(client, probeCfg))
		}
	}
	return checkers
}
